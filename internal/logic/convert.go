package logic

import "math"

// SeaLevelPressurePa is the reference pressure for the altitude formula.
const SeaLevelPressurePa = 101325.0

// PressureKPa converts pascals to kilopascals.
func PressureKPa(pa float64) float64 {
	return pa / 1000.0
}

// BarometricAltitude estimates altitude in metres from absolute pressure in
// pascals using the international barometric formula.
func BarometricAltitude(pa float64) float64 {
	return 44330.0 * (1.0 - math.Pow(pa/SeaLevelPressurePa, 0.1903))
}

// RawFromEnvironment builds a raw sample from sensor units.
func RawFromEnvironment(tempC, humidityPct, pressurePa float64) RawSample {
	return RawSample{
		Temperature: tempC,
		Humidity:    humidityPct,
		Pressure:    PressureKPa(pressurePa),
		Altitude:    BarometricAltitude(pressurePa),
	}
}
