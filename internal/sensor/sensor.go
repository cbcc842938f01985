// Package sensor acquires temperature, humidity and pressure samples.
// The real implementation talks to an AHT20 and a BMP280 over I²C using periph.io.
// The fake and simulated implementations allow running without hardware.
package sensor

import (
	"fmt"
	"math"

	"periph.io/x/conn/v3/physic"

	"github.com/sweeney/weather-station/internal/errors"
	"github.com/sweeney/weather-station/internal/logic"
)

// Reader produces one environmental sample per call.
type Reader interface {
	// Read performs a measurement. It may block for the sensors'
	// conversion time (around 100ms on real hardware).
	Read() (Sample, error)

	// Close releases bus resources.
	Close() error
}

// Sample is one uncalibrated measurement in sensor units.
type Sample struct {
	TemperatureC float64
	HumidityPct  float64
	PressurePa   float64
}

// Raw converts the sample into the store's units: pressure in kPa and
// altitude derived from pressure.
func (s Sample) Raw() logic.RawSample {
	return logic.RawFromEnvironment(s.TemperatureC, s.HumidityPct, s.PressurePa)
}

// Validate rejects values no working sensor produces.
func (s Sample) Validate() error {
	for name, v := range map[string]float64{
		"temperature": s.TemperatureC,
		"humidity":    s.HumidityPct,
		"pressure":    s.PressurePa,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Newf(errors.ErrSensorRead, "%s is %v", name, v)
		}
	}
	if s.PressurePa <= 0 {
		return errors.Newf(errors.ErrSensorRead, "pressure %.1f Pa", s.PressurePa)
	}
	return nil
}

func (s Sample) String() string {
	return fmt.Sprintf("%.2f°C %.2f%%RH %.1fPa", s.TemperatureC, s.HumidityPct, s.PressurePa)
}

// Celsius converts a periph temperature.
func Celsius(t physic.Temperature) float64 {
	return float64(t-physic.ZeroCelsius) / float64(physic.Kelvin)
}

// Percent converts a periph relative humidity.
func Percent(h physic.RelativeHumidity) float64 {
	return float64(h) / float64(physic.PercentRH)
}

// Pascals converts a periph pressure.
func Pascals(p physic.Pressure) float64 {
	return float64(p) / float64(physic.Pascal)
}
