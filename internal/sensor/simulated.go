package sensor

import (
	"math"
	"time"
)

// SimulatedReader produces slowly drifting plausible values for running the
// station without sensors attached.
type SimulatedReader struct {
	start time.Time
	now   func() time.Time
}

// NewSimulatedReader creates a SimulatedReader. A nil now uses time.Now.
func NewSimulatedReader(now func() time.Time) *SimulatedReader {
	if now == nil {
		now = time.Now
	}
	return &SimulatedReader{start: now(), now: now}
}

// Read returns the simulated environment at the current time.
func (s *SimulatedReader) Read() (Sample, error) {
	t := s.now().Sub(s.start).Seconds()
	return Sample{
		TemperatureC: 24 + 6*math.Sin(2*math.Pi*t/120),
		HumidityPct:  70 + 12*math.Sin(2*math.Pi*t/180),
		PressurePa:   91500 + 400*math.Sin(2*math.Pi*t/300),
	}, nil
}

// Close is a no-op.
func (s *SimulatedReader) Close() error {
	return nil
}
