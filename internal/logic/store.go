package logic

// Store holds the latest calibrated readings, the per-metric configuration and
// the derived alert state.
//
// A Store has a single owner: the control loop applies samples and runs
// request handlers, so no locking is done here.
type Store struct {
	configs  Configs
	readings Readings
	alert    bool
}

// NewStore creates a Store with the power-on defaults and zeroed readings.
func NewStore() *Store {
	return &Store{configs: DefaultConfigs()}
}

// ApplySample stores raw + offset as the metric's reading.
func (s *Store) ApplySample(m Metric, raw float64) {
	s.readings[m] = raw + s.configs[m].Offset
}

// ApplyCycle applies a full sample in metric order and re-evaluates the alert.
func (s *Store) ApplyCycle(raw RawSample) bool {
	for _, m := range Metrics {
		s.ApplySample(m, raw[m])
	}
	return s.EvaluateAlert()
}

// EvaluateAlert recomputes and returns the alert state from the current readings.
func (s *Store) EvaluateAlert() bool {
	s.alert = EvaluateAlert(s.readings, s.configs)
	return s.alert
}

// Alert returns the alert state computed by the last evaluation.
func (s *Store) Alert() bool {
	return s.alert
}

// UpdateConfig overwrites one field of one metric's configuration.
// No ordering between Min and Max is enforced.
func (s *Store) UpdateConfig(m Metric, f Field, v float64) {
	s.configs[m].set(f, v)
}

// Config returns one metric's configuration.
func (s *Store) Config(m Metric) MetricConfig {
	return s.configs[m]
}

// Configs returns a copy of every metric's configuration.
func (s *Store) Configs() Configs {
	return s.configs
}

// Reading returns one metric's calibrated reading.
func (s *Store) Reading(m Metric) float64 {
	return s.readings[m]
}

// Readings returns a copy of the calibrated readings.
func (s *Store) Readings() Readings {
	return s.readings
}

// EvaluateAlert reports whether any alerting metric lies outside its band.
func EvaluateAlert(r Readings, c Configs) bool {
	for _, m := range Metrics {
		if m.Alerting() && c[m].Outside(r[m]) {
			return true
		}
	}
	return false
}
