package gpio

import (
	"errors"
	"sync"

	"github.com/sweeney/weather-station/internal/nav"
)

// FakePin is a test double that records every value written to it.
// It is safe for use from a driving goroutine while a test inspects it.
type FakePin struct {
	mu sync.Mutex

	// writes holds every value passed to Set, in order
	writes []bool

	// closed tracks if Close was called
	closed bool

	// SetError, if set, will be returned by Set()
	SetError error
}

// NewFakePin creates a FakePin.
func NewFakePin() *FakePin {
	return &FakePin{}
}

// Set records the value.
func (p *FakePin) Set(on bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errors.New("pin closed")
	}
	if p.SetError != nil {
		return p.SetError
	}
	p.writes = append(p.writes, on)
	return nil
}

// Close marks the pin as closed.
func (p *FakePin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Writes returns a copy of the recorded values.
func (p *FakePin) Writes() []bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]bool(nil), p.writes...)
}

// Level returns the last value written, false if none.
func (p *FakePin) Level() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.writes) == 0 {
		return false
	}
	return p.writes[len(p.writes)-1]
}

// Closed reports whether Close was called.
func (p *FakePin) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Reset clears recorded writes and the closed flag.
func (p *FakePin) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writes = nil
	p.closed = false
}

// FakeButtons is a test double that delivers presses on demand.
type FakeButtons struct {
	mu     sync.Mutex
	fn     EdgeFunc
	closed bool
}

// NewFakeButtons creates FakeButtons delivering to fn.
func NewFakeButtons(fn EdgeFunc) *FakeButtons {
	return &FakeButtons{fn: fn}
}

// Press delivers an edge as the event goroutine would.
// Presses after Close are dropped.
func (b *FakeButtons) Press(btn nav.Button, atMs int64) {
	b.mu.Lock()
	fn, closed := b.fn, b.closed
	b.mu.Unlock()
	if closed || fn == nil {
		return
	}
	fn(btn, atMs)
}

// Close stops delivery.
func (b *FakeButtons) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
