package indicator

import "sync"

// RenderCall records one Render call.
type RenderCall struct {
	Pattern Pattern
	Color   Color
}

// Fake is a test double that records every call.
type Fake struct {
	mu sync.Mutex

	renders []RenderCall
	signals [][]Tone
	leds    [][2]bool
	closed  bool

	// RenderError, if set, will be returned by Render()
	RenderError error
}

// NewFake creates a Fake.
func NewFake() *Fake {
	return &Fake{}
}

// Render records the call.
func (f *Fake) Render(p Pattern, c Color) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RenderError != nil {
		return f.RenderError
	}
	f.renders = append(f.renders, RenderCall{p, c})
	return nil
}

// Signal records the tones and returns an already closed channel.
func (f *Fake) Signal(tones ...Tone) <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signals = append(f.signals, append([]Tone(nil), tones...))
	done := make(chan struct{})
	close(done)
	return done
}

// SetLEDs records the state.
func (f *Fake) SetLEDs(red, green bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leds = append(f.leds, [2]bool{red, green})
	return nil
}

// Close marks the fake as closed.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Renders returns a copy of the recorded Render calls.
func (f *Fake) Renders() []RenderCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RenderCall(nil), f.renders...)
}

// LastRender returns the most recent Render call.
func (f *Fake) LastRender() (RenderCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.renders) == 0 {
		return RenderCall{}, false
	}
	return f.renders[len(f.renders)-1], true
}

// Signals returns a copy of the recorded tone sequences.
func (f *Fake) Signals() [][]Tone {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]Tone(nil), f.signals...)
}

// LEDs returns a copy of the recorded LED states as {red, green}.
func (f *Fake) LEDs() [][2]bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][2]bool(nil), f.leds...)
}

// Closed reports whether Close was called.
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

var (
	_ Bridge = (*Fake)(nil)
	_ Bridge = (*LogBridge)(nil)
	_ Bridge = (*Device)(nil)
)
