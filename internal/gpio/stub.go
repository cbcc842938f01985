//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// Chip is not available on non-Linux platforms.
type Chip struct{}

// OpenChip returns an error on non-Linux platforms.
func OpenChip(name string) (*Chip, error) {
	return nil, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (c *Chip) Close() error {
	return nil
}

// OutputPin is not available on non-Linux platforms.
type OutputPin struct{}

// Output returns an error on non-Linux platforms.
func (c *Chip) Output(offset int) (*OutputPin, error) {
	return nil, errUnsupported
}

// Set is not implemented on non-Linux platforms.
func (p *OutputPin) Set(on bool) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (p *OutputPin) Close() error {
	return nil
}

// ButtonLines is not available on non-Linux platforms.
type ButtonLines struct{}

// WatchButtons returns an error on non-Linux platforms.
func (c *Chip) WatchButtons(offsetA, offsetB int, fn EdgeFunc) (*ButtonLines, error) {
	return nil, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (b *ButtonLines) Close() error {
	return nil
}
