package indicator

import (
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"

	"github.com/sweeney/weather-station/internal/errors"
	"github.com/sweeney/weather-station/internal/gpio"
)

// Matrix is a WS2812 strip driven through an SPI port.
type Matrix struct {
	dev    *nrzled.Dev
	port   spi.PortCloser
	pixels int
}

// OpenMatrix opens the named SPI port (empty for the first one) and
// attaches an NRZ LED strip of pixels LEDs to it.
func OpenMatrix(port string, pixels int) (*Matrix, error) {
	p, err := spireg.Open(port)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInitHardware, err, "open spi port %q", port)
	}
	dev, err := nrzled.NewSPI(p, &nrzled.Opts{
		NumPixels: pixels,
		Channels:  3,
		Freq:      2500 * physic.KiloHertz,
	})
	if err != nil {
		p.Close()
		return nil, errors.Wrapf(errors.ErrInitHardware, err, "nrzled on %q", port)
	}
	return &Matrix{dev: dev, port: p, pixels: pixels}, nil
}

// Pixels returns the strip length.
func (m *Matrix) Pixels() int {
	return m.pixels
}

// Write sends raw RGB bytes to the strip.
func (m *Matrix) Write(rgb []byte) (int, error) {
	return m.dev.Write(rgb)
}

// Close blanks the strip and releases the port.
func (m *Matrix) Close() error {
	var errs []error
	if err := m.dev.Halt(); err != nil {
		errs = append(errs, fmt.Errorf("halt strip: %w", err))
	}
	if err := m.port.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close spi port: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// Device is the hardware Bridge.
type Device struct {
	matrix io.Writer
	pixels int
	red    gpio.Pin
	green  gpio.Pin
	buzzer *Buzzer
	closer []io.Closer

	mu sync.Mutex
}

// NewDevice assembles a Bridge from its parts. matrix receives RGB frames
// of pixels LEDs. Closers are closed in order by Close.
func NewDevice(matrix io.Writer, pixels int, red, green, buzzer gpio.Pin, log zerolog.Logger, closers ...io.Closer) *Device {
	return &Device{
		matrix: matrix,
		pixels: pixels,
		red:    red,
		green:  green,
		buzzer: NewBuzzer(buzzer, log),
		closer: closers,
	}
}

// Render implements Bridge. Every call writes a full frame, which also
// recovers pixels corrupted by line noise.
func (d *Device) Render(p Pattern, c Color) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.matrix.Write(Frame(p, c, d.pixels)); err != nil {
		return fmt.Errorf("render %s: %w", p, err)
	}
	return nil
}

// Signal implements Bridge.
func (d *Device) Signal(tones ...Tone) <-chan struct{} {
	return d.buzzer.Play(tones...)
}

// SetLEDs implements Bridge.
func (d *Device) SetLEDs(red, green bool) error {
	if err := d.red.Set(red); err != nil {
		return err
	}
	return d.green.Set(green)
}

// Close implements Bridge.
func (d *Device) Close() error {
	d.buzzer.Stop()

	var errs []error
	if _, err := d.matrix.Write(Frame(PatternEmpty, Color{}, d.pixels)); err != nil {
		errs = append(errs, fmt.Errorf("clear matrix: %w", err))
	}
	for _, p := range []gpio.Pin{d.red, d.green, d.buzzer.pin} {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, c := range d.closer {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
