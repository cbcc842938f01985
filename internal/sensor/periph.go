package sensor

import (
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"

	"github.com/sweeney/weather-station/internal/errors"
)

// BMP280Addr is the default I²C address of the BMP280 (SDO to ground).
const BMP280Addr = 0x76

// PeriphConfig names the buses and addresses of the two sensors.
// Empty bus names select the first registered bus.
type PeriphConfig struct {
	AHTBus  string
	BMPBus  string
	BMPAddr uint16
}

// envSensor is satisfied by both *AHT20 and *bmxx80.Dev.
type envSensor interface {
	Sense(e *physic.Env) error
}

// PeriphReader combines temperature and humidity from the AHT20 with
// pressure from the BMP280.
type PeriphReader struct {
	aht   envSensor
	bmp   envSensor
	halt  func() error
	buses []i2c.BusCloser
}

// Open initialises the host drivers and both sensors.
func Open(cfg PeriphConfig, log zerolog.Logger) (*PeriphReader, error) {
	state, err := host.Init()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInitHardware, err, "periph host init")
	}
	for _, d := range state.Loaded {
		log.Debug().Str("driver", d.String()).Msg("driver loaded")
	}
	for _, f := range state.Skipped {
		log.Debug().Str("driver", f.D.String()).Err(f.Err).Msg("driver skipped")
	}
	for _, f := range state.Failed {
		log.Warn().Str("driver", f.D.String()).Err(f.Err).Msg("driver failed to load")
	}

	r := &PeriphReader{}

	ahtBus, err := i2creg.Open(cfg.AHTBus)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInitHardware, err, "open i2c bus %q", cfg.AHTBus)
	}
	r.buses = append(r.buses, ahtBus)

	bmpBus := ahtBus
	if cfg.BMPBus != cfg.AHTBus {
		bmpBus, err = i2creg.Open(cfg.BMPBus)
		if err != nil {
			r.Close()
			return nil, errors.Wrapf(errors.ErrInitHardware, err, "open i2c bus %q", cfg.BMPBus)
		}
		r.buses = append(r.buses, bmpBus)
	}
	log.Debug().Str("aht_bus", ahtBus.String()).Str("bmp_bus", bmpBus.String()).Msg("i2c buses open")

	aht, err := NewAHT20(ahtBus)
	if err != nil {
		r.Close()
		return nil, err
	}
	r.aht = aht

	addr := cfg.BMPAddr
	if addr == 0 {
		addr = BMP280Addr
	}
	// Humidity is left off: the BMP280 has no humidity sensor.
	bmp, err := bmxx80.NewI2C(bmpBus, addr, &bmxx80.Opts{
		Temperature: bmxx80.O2x,
		Pressure:    bmxx80.O16x,
		Filter:      bmxx80.F16,
	})
	if err != nil {
		r.Close()
		return nil, errors.Wrapf(errors.ErrInitHardware, err, "bmp280 at %#x", addr)
	}
	r.bmp = bmp
	r.halt = bmp.Halt
	log.Info().Str("bmp", bmp.String()).Msg("sensors ready")

	return r, nil
}

// Read measures both sensors. Either failing fails the whole sample.
func (r *PeriphReader) Read() (Sample, error) {
	var th, p physic.Env
	if err := r.aht.Sense(&th); err != nil {
		return Sample{}, err
	}
	if err := r.bmp.Sense(&p); err != nil {
		return Sample{}, errors.Wrapf(errors.ErrSensorRead, err, "bmp280")
	}
	s := Sample{
		TemperatureC: Celsius(th.Temperature),
		HumidityPct:  Percent(th.Humidity),
		PressurePa:   Pascals(p.Pressure),
	}
	if err := s.Validate(); err != nil {
		return Sample{}, err
	}
	return s, nil
}

// Close halts the BMP280 and closes the buses.
func (r *PeriphReader) Close() error {
	var errs []error
	if r.halt != nil {
		if err := r.halt(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, b := range r.buses {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.buses = nil
	if len(errs) > 0 {
		return errors.Newf(errors.ErrInitHardware, "close errors: %v", errs)
	}
	return nil
}
