// Package indicator drives the local alarm outputs: a 5×5 RGB matrix, a
// buzzer and two status LEDs.
package indicator

import (
	"fmt"
	"time"
)

// Bridge is the output side of the station.
type Bridge interface {
	// Render shows pattern p in colour c on the matrix.
	Render(p Pattern, c Color) error

	// Signal plays tones in order without blocking. A new call cancels the
	// sequence currently playing. The returned channel closes when playback
	// ends or is cancelled.
	Signal(tones ...Tone) <-chan struct{}

	// SetLEDs sets the red and green status LEDs.
	SetLEDs(red, green bool) error

	// Close turns everything off and releases the hardware.
	Close() error
}

// Color holds per-channel intensities in [0,1].
type Color struct {
	R, G, B float64
}

// Yellow is the alert colour.
var Yellow = Color{R: 1, G: 1, B: 0}

func (c Color) String() string {
	return fmt.Sprintf("rgb(%.2f,%.2f,%.2f)", c.R, c.G, c.B)
}

// Tone is one step of a buzzer sequence. FreqHz <= 0 is a rest.
type Tone struct {
	FreqHz   float64
	Duration time.Duration
}

// Rest is a silent step.
func Rest(d time.Duration) Tone {
	return Tone{Duration: d}
}

// Total returns the summed duration of tones.
func Total(tones []Tone) time.Duration {
	var d time.Duration
	for _, t := range tones {
		d += t.Duration
	}
	return d
}
