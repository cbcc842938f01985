package sensor

import (
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/sweeney/weather-station/internal/errors"
)

// AHT20Addr is the fixed I²C address of the AHT20.
const AHT20Addr = 0x38

const (
	ahtStatus     byte = 0x71
	ahtInitialize byte = 0xBE
	ahtMeasure    byte = 0xAC

	ahtBusy       byte = 1 << 7
	ahtCalibrated byte = 1 << 3
)

var (
	ahtInitArgs    = []byte{ahtInitialize, 0x08, 0x00}
	ahtMeasureArgs = []byte{ahtMeasure, 0x33, 0x00}
)

const (
	ahtConversion   = 80 * time.Millisecond
	ahtPollInterval = 10 * time.Millisecond
	ahtReadTimeout  = 150 * time.Millisecond
)

// AHT20 reads temperature and humidity from an Aosong AHT20.
type AHT20 struct {
	d     *i2c.Dev
	sleep func(time.Duration)
}

// NewAHT20 opens the sensor on bus and calibrates it if the status register
// says it is not calibrated yet.
func NewAHT20(bus i2c.Bus) (*AHT20, error) {
	return newAHT20(bus, time.Sleep)
}

func newAHT20(bus i2c.Bus, sleep func(time.Duration)) (*AHT20, error) {
	a := &AHT20{d: &i2c.Dev{Bus: bus, Addr: AHT20Addr}, sleep: sleep}

	status := make([]byte, 1)
	if err := a.d.Tx([]byte{ahtStatus}, status); err != nil {
		return nil, errors.Wrapf(errors.ErrInitHardware, err, "aht20 status")
	}
	if status[0]&ahtCalibrated == 0 {
		if err := a.d.Tx(ahtInitArgs, nil); err != nil {
			return nil, errors.Wrapf(errors.ErrInitHardware, err, "aht20 calibrate")
		}
		a.sleep(10 * time.Millisecond)
	}
	return a, nil
}

// Sense triggers a measurement and fills e.Temperature and e.Humidity.
// Pressure is left untouched.
func (a *AHT20) Sense(e *physic.Env) error {
	if err := a.d.Tx(ahtMeasureArgs, nil); err != nil {
		return errors.Wrapf(errors.ErrSensorRead, err, "aht20 trigger")
	}
	a.sleep(ahtConversion)

	data := make([]byte, 7)
	for waited := time.Duration(0); waited <= ahtReadTimeout; waited += ahtPollInterval {
		if err := a.d.Tx(nil, data); err != nil {
			return errors.Wrapf(errors.ErrSensorRead, err, "aht20 read")
		}
		if crc8(data[:6]) != data[6] {
			return errors.Newf(errors.ErrSensorRead, "aht20 crc mismatch")
		}
		if data[0]&ahtCalibrated == 0 {
			return errors.Newf(errors.ErrSensorRead, "aht20 not calibrated")
		}
		if data[0]&ahtBusy == 0 {
			hRaw := uint32(data[1])<<12 | uint32(data[2])<<4 | uint32(data[3])>>4
			tRaw := (uint32(data[3])&0xF)<<16 | uint32(data[4])<<8 | uint32(data[5])

			rh := float64(hRaw) / 1048576.0 * 100.0
			c := float64(tRaw)/1048576.0*200.0 - 50.0

			e.Humidity = physic.RelativeHumidity(rh * float64(physic.PercentRH))
			e.Temperature = physic.Temperature(c*float64(physic.Kelvin)) + physic.ZeroCelsius
			return nil
		}
		a.sleep(ahtPollInterval)
	}
	return errors.Newf(errors.ErrSensorRead, "aht20 measurement timed out")
}

// crc8 is CRC-8 with polynomial x^8+x^5+x^4+1 and initial value 0xFF.
func crc8(data []byte) byte {
	crc := byte(0xFF)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x31
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
