// Package logic contains the pure calibration and alerting rules of the station.
// This package has NO external dependencies (no GPIO, sensors, network or clock).
package logic

// Metric identifies one measured quantity.
type Metric int

const (
	Temperature Metric = iota
	Humidity
	Pressure
	Altitude

	NumMetrics = 4
)

// Metrics lists every metric in sampling order.
var Metrics = [NumMetrics]Metric{Temperature, Humidity, Pressure, Altitude}

var metricNames = [NumMetrics]string{"temperature", "humidity", "pressure", "altitude"}

// readingKeys are the JSON names used by /estado.
var readingKeys = [NumMetrics]string{"temperatura", "umidade", "pressao", "altitude"}

// configPrefixes are the key prefixes used by /getconfig and the /config form.
var configPrefixes = [NumMetrics]string{"temp", "umid", "press", "alt"}

func (m Metric) String() string {
	if m < 0 || m >= NumMetrics {
		return "unknown"
	}
	return metricNames[m]
}

// ReadingKey returns the wire name of the metric's reading.
func (m Metric) ReadingKey() string {
	return readingKeys[m]
}

// ConfigPrefix returns the wire prefix of the metric's configuration keys.
func (m Metric) ConfigPrefix() string {
	return configPrefixes[m]
}

// Alerting reports whether the metric takes part in alert evaluation.
// Pressure and altitude are tracked for display only.
func (m Metric) Alerting() bool {
	return m == Temperature || m == Humidity
}

// Field identifies one scalar of a MetricConfig.
type Field int

const (
	Offset Field = iota
	Min
	Max

	NumFields = 3
)

// Fields lists the configuration fields in wire order.
var Fields = [NumFields]Field{Offset, Min, Max}

var fieldNames = [NumFields]string{"offset", "min", "max"}

func (f Field) String() string {
	if f < 0 || f >= NumFields {
		return "unknown"
	}
	return fieldNames[f]
}

// MetricConfig holds the calibration offset and alert band of a metric.
// Min > Max is allowed and evaluated literally.
type MetricConfig struct {
	Offset float64
	Min    float64
	Max    float64
}

// Get returns the value of one field.
func (c MetricConfig) Get(f Field) float64 {
	switch f {
	case Min:
		return c.Min
	case Max:
		return c.Max
	default:
		return c.Offset
	}
}

func (c *MetricConfig) set(f Field, v float64) {
	switch f {
	case Offset:
		c.Offset = v
	case Min:
		c.Min = v
	case Max:
		c.Max = v
	}
}

// Outside reports whether v lies outside [Min, Max].
func (c MetricConfig) Outside(v float64) bool {
	return v < c.Min || v > c.Max
}

// Configs is the full set of metric configurations, indexed by Metric.
type Configs [NumMetrics]MetricConfig

// DefaultConfigs returns the power-on configuration.
func DefaultConfigs() Configs {
	return Configs{
		Temperature: {Offset: 0, Min: 10, Max: 40},
		Humidity:    {Offset: 0, Min: 60, Max: 85},
		Pressure:    {Offset: 0, Min: 85, Max: 105},
		Altitude:    {Offset: 0, Min: 800, Max: 900},
	}
}

// Readings holds the calibrated value of each metric, indexed by Metric.
type Readings [NumMetrics]float64

// RawSample holds uncalibrated values for one sampling cycle, indexed by Metric.
// Pressure is in kPa and altitude in metres.
type RawSample [NumMetrics]float64
