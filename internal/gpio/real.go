//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/weather-station/internal/nav"
)

// Chip is an opened GPIO character device.
type Chip struct {
	chip *gpiocdev.Chip
}

// OpenChip opens the named chip, e.g. "gpiochip0".
func OpenChip(name string) (*Chip, error) {
	chip, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &Chip{chip: chip}, nil
}

// Close releases the chip. Lines requested from it stay valid until closed.
func (c *Chip) Close() error {
	return c.chip.Close()
}

// OutputPin drives a single line.
type OutputPin struct {
	line   *gpiocdev.Line
	offset int
}

// Output requests offset as an output, initially low.
func (c *Chip) Output(offset int) (*OutputPin, error) {
	line, err := c.chip.RequestLine(offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request output pin %d: %w", offset, err)
	}
	return &OutputPin{line: line, offset: offset}, nil
}

// Set drives the line.
func (p *OutputPin) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := p.line.SetValue(v); err != nil {
		return fmt.Errorf("set pin %d: %w", p.offset, err)
	}
	return nil
}

// Close drives the line low, returns it to an input with pull-down and
// releases it, so nothing is left energised across a reboot.
func (p *OutputPin) Close() error {
	var errs []error
	if err := p.line.SetValue(0); err != nil {
		errs = append(errs, fmt.Errorf("clear pin %d: %w", p.offset, err))
	}
	if err := p.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", p.offset, err))
	}
	if err := p.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close pin %d: %w", p.offset, err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// ButtonLines watches both buttons for presses.
type ButtonLines struct {
	lines *gpiocdev.Lines
}

// WatchButtons requests the two button lines together as pulled-up inputs
// with falling-edge detection. Each press calls fn on the gpiocdev event
// goroutine.
func (c *Chip) WatchButtons(offsetA, offsetB int, fn EdgeFunc) (*ButtonLines, error) {
	handler := func(evt gpiocdev.LineEvent) {
		switch evt.Offset {
		case offsetA:
			fn(nav.ButtonA, evt.Timestamp.Milliseconds())
		case offsetB:
			fn(nav.ButtonB, evt.Timestamp.Milliseconds())
		}
	}
	lines, err := c.chip.RequestLines([]int{offsetA, offsetB},
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(handler),
	)
	if err != nil {
		return nil, fmt.Errorf("request button pins %d,%d: %w", offsetA, offsetB, err)
	}
	return &ButtonLines{lines: lines}, nil
}

// Close stops edge delivery and releases the lines.
func (b *ButtonLines) Close() error {
	if err := b.lines.Close(); err != nil {
		return fmt.Errorf("close button pins: %w", err)
	}
	return nil
}
