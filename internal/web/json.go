package web

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/sweeney/weather-station/internal/logic"
)

// The station's JSON documents are flat objects with a fixed number of
// decimals per value, so they are written by hand rather than marshalled.

// formatReadings renders the /estado document. Pressure carries three
// decimals, every other reading two.
func formatReadings(r logic.Readings) []byte {
	out := make([]byte, 0, 96)
	out = append(out, '{')
	for i, m := range logic.Metrics {
		if i > 0 {
			out = append(out, ',')
		}
		prec := 2
		if m == logic.Pressure {
			prec = 3
		}
		out = appendField(out, m.ReadingKey(), r[m], prec)
	}
	return append(out, '}')
}

// formatConfig renders the /getconfig document: twelve scalars in wire order,
// two decimals each.
func formatConfig(c logic.Configs) []byte {
	out := make([]byte, 0, 320)
	out = append(out, '{')
	for i, k := range logic.ConfigKeys() {
		if i > 0 {
			out = append(out, ',')
		}
		out = appendField(out, k.String(), c[k.Metric].Get(k.Field), 2)
	}
	return append(out, '}')
}

// formatNavigate renders the /navigate document.
func formatNavigate(route string, ok bool) []byte {
	if !ok {
		return []byte(`{"goto":null}`)
	}
	quoted, _ := json.Marshal(route)
	out := make([]byte, 0, len(quoted)+9)
	out = append(out, `{"goto":`...)
	out = append(out, quoted...)
	return append(out, '}')
}

func appendField(out []byte, key string, v float64, prec int) []byte {
	// NaN and Inf are not valid JSON numbers.
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	out = append(out, '"')
	out = append(out, key...)
	out = append(out, '"', ':')
	return strconv.AppendFloat(out, v, 'f', prec, 64)
}
