package logic

import "strings"

// ConfigKey names one configuration scalar on the wire, e.g. "temp_min".
type ConfigKey struct {
	Metric Metric
	Field  Field
}

func (k ConfigKey) String() string {
	return k.Metric.ConfigPrefix() + "_" + k.Field.String()
}

// ConfigKeys returns the twelve configuration keys in wire order:
// temp_offset, temp_min, temp_max, umid_offset, ... alt_max.
func ConfigKeys() []ConfigKey {
	keys := make([]ConfigKey, 0, NumMetrics*NumFields)
	for _, m := range Metrics {
		for _, f := range Fields {
			keys = append(keys, ConfigKey{Metric: m, Field: f})
		}
	}
	return keys
}

// ParseConfigKey resolves a wire key. Matching is exact and case-sensitive.
func ParseConfigKey(s string) (ConfigKey, bool) {
	prefix, field, ok := strings.Cut(s, "_")
	if !ok {
		return ConfigKey{}, false
	}
	var k ConfigKey
	found := false
	for _, m := range Metrics {
		if m.ConfigPrefix() == prefix {
			k.Metric = m
			found = true
			break
		}
	}
	if !found {
		return ConfigKey{}, false
	}
	for _, f := range Fields {
		if f.String() == field {
			k.Field = f
			return k, true
		}
	}
	return ConfigKey{}, false
}
