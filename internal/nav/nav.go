// Package nav implements the button-driven page navigation state.
//
// OnButtonEdge runs in the button event context and may interleave with the
// control loop at any point. PollTarget is the only consumer. All shared
// fields are atomics, so neither side ever blocks.
package nav

import (
	"sync/atomic"
	"time"
)

// DefaultDebounce is the minimum spacing between two accepted presses.
const DefaultDebounce = 500 * time.Millisecond

// Button identifies a navigation button.
type Button int

const (
	// ButtonA moves to the previous page.
	ButtonA Button = iota
	// ButtonB moves to the next page.
	ButtonB
)

func (b Button) String() string {
	switch b {
	case ButtonA:
		return "A"
	case ButtonB:
		return "B"
	default:
		return "?"
	}
}

var pages = [...]string{"/", "/config", "/temperatura", "/umidade", "/pressao", "/altitude"}

const numPages = int64(len(pages))

// Pages returns the fixed page cycle, in button order.
func Pages() []string {
	out := make([]string, len(pages))
	copy(out, pages[:])
	return out
}

// Navigator tracks the current page and a one-slot mailbox of the page the
// browser should load next.
type Navigator struct {
	debounceMs int64

	index     atomic.Int64
	lastPress atomic.Int64
	pending   atomic.Pointer[string]
}

// New creates a Navigator at page 0 with no pending target. The last press
// time starts at 0, so edges earlier than debounce after boot are ignored.
func New(debounce time.Duration) *Navigator {
	return &Navigator{debounceMs: debounce.Milliseconds()}
}

// OnButtonEdge handles one falling edge at nowMs (monotonic milliseconds).
// It returns false when the edge falls inside the debounce window.
func (n *Navigator) OnButtonEdge(b Button, nowMs int64) bool {
	last := n.lastPress.Load()
	if nowMs-last < n.debounceMs {
		return false
	}
	// Claim the edge; a concurrent edge that got here first wins.
	if !n.lastPress.CompareAndSwap(last, nowMs) {
		return false
	}

	step := int64(1)
	if b == ButtonA {
		step = numPages - 1
	}
	for {
		cur := n.index.Load()
		next := (cur + step) % numPages
		if n.index.CompareAndSwap(cur, next) {
			n.pending.Store(&pages[next])
			return true
		}
	}
}

// PollTarget takes the pending target, leaving the mailbox empty.
// The read and the clear are one atomic swap.
func (n *Navigator) PollTarget() (string, bool) {
	p := n.pending.Swap(nil)
	if p == nil {
		return "", false
	}
	return *p, true
}

// CurrentIndex returns the index of the current page in Pages().
func (n *Navigator) CurrentIndex() int {
	return int(n.index.Load())
}

// CurrentPage returns the current page route.
func (n *Navigator) CurrentPage() string {
	return pages[n.index.Load()]
}
