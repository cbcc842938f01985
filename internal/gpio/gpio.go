// Package gpio provides button inputs and digital outputs with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "github.com/sweeney/weather-station/internal/nav"

// Pin is a digital output line.
type Pin interface {
	// Set drives the line high (on) or low.
	Set(on bool) error

	// Close releases the line.
	Close() error
}

// EdgeFunc receives a button press with the kernel event timestamp in
// milliseconds. It runs on the event goroutine and must not block.
type EdgeFunc func(b nav.Button, atMs int64)

// Buttons delivers button edges until closed.
type Buttons interface {
	Close() error
}

// Default line offsets on gpiochip0.
const (
	DefaultButtonA  = 5
	DefaultButtonB  = 6
	DefaultLEDGreen = 11
	DefaultLEDRed   = 13
	DefaultBuzzer   = 21
)

var (
	_ Pin     = (*OutputPin)(nil)
	_ Pin     = (*FakePin)(nil)
	_ Buttons = (*ButtonLines)(nil)
	_ Buttons = (*FakeButtons)(nil)
)
