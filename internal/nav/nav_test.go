package nav

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialState(t *testing.T) {
	n := New(DefaultDebounce)

	assert.Equal(t, 0, n.CurrentIndex())
	assert.Equal(t, "/", n.CurrentPage())

	_, ok := n.PollTarget()
	assert.False(t, ok, "no target before any press")
}

func TestButtonBCyclesForward(t *testing.T) {
	n := New(DefaultDebounce)

	for i := 1; i <= 12; i++ {
		require.True(t, n.OnButtonEdge(ButtonB, int64(i)*500))
		want := i % len(pages)
		assert.Equal(t, want, n.CurrentIndex(), "press %d", i)

		target, ok := n.PollTarget()
		require.True(t, ok, "press %d", i)
		assert.Equal(t, pages[want], target, "press %d", i)
	}
}

func TestButtonACyclesBackward(t *testing.T) {
	n := New(DefaultDebounce)

	wantIdx := []int{5, 4, 3, 2, 1, 0, 5}
	for i, want := range wantIdx {
		require.True(t, n.OnButtonEdge(ButtonA, int64(i+1)*1000))
		assert.Equal(t, want, n.CurrentIndex(), "press %d", i)

		target, ok := n.PollTarget()
		require.True(t, ok)
		assert.Equal(t, pages[want], target)
	}
}

func TestDebounceIgnoresFastPresses(t *testing.T) {
	n := New(DefaultDebounce)

	require.True(t, n.OnButtonEdge(ButtonB, 1000))
	assert.False(t, n.OnButtonEdge(ButtonB, 1200))
	assert.False(t, n.OnButtonEdge(ButtonA, 1499))
	assert.Equal(t, 1, n.CurrentIndex(), "presses inside the window are no-ops")

	// The window is measured from the last accepted press.
	require.True(t, n.OnButtonEdge(ButtonB, 1500))
	assert.Equal(t, 2, n.CurrentIndex())
}

func TestRejectedPressDoesNotMoveWindow(t *testing.T) {
	n := New(DefaultDebounce)

	require.True(t, n.OnButtonEdge(ButtonB, 1000))
	assert.False(t, n.OnButtonEdge(ButtonB, 1400))
	// 1500 is 500ms after the accepted press, even though only 100ms after the rejected one
	assert.True(t, n.OnButtonEdge(ButtonB, 1500))
}

func TestEarlyPressAfterBootIgnored(t *testing.T) {
	n := New(DefaultDebounce)

	assert.False(t, n.OnButtonEdge(ButtonB, 100))
	assert.Equal(t, 0, n.CurrentIndex())
	_, ok := n.PollTarget()
	assert.False(t, ok)
}

func TestPollTargetDeliversOnce(t *testing.T) {
	n := New(DefaultDebounce)
	require.True(t, n.OnButtonEdge(ButtonB, 600))

	target, ok := n.PollTarget()
	require.True(t, ok)
	assert.Equal(t, "/config", target)

	_, ok = n.PollTarget()
	assert.False(t, ok, "second poll must find the mailbox drained")
}

func TestMailboxOverwrite(t *testing.T) {
	n := New(DefaultDebounce)
	require.True(t, n.OnButtonEdge(ButtonB, 600))
	require.True(t, n.OnButtonEdge(ButtonB, 1200))

	target, ok := n.PollTarget()
	require.True(t, ok)
	assert.Equal(t, "/temperatura", target, "unread target is overwritten by the newest")

	_, ok = n.PollTarget()
	assert.False(t, ok)
}

func TestCustomDebounce(t *testing.T) {
	n := New(0)
	assert.True(t, n.OnButtonEdge(ButtonB, 0))
	assert.True(t, n.OnButtonEdge(ButtonB, 0))
	assert.Equal(t, 2, n.CurrentIndex())
}

// Edges and polls from different goroutines leave the index consistent and
// never deliver more targets than accepted presses.
func TestConcurrentEdgesAndPolls(t *testing.T) {
	n := New(0)
	const presses = 1000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < presses; i++ {
			n.OnButtonEdge(ButtonB, int64(i))
		}
	}()

	delivered := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for {
		if _, ok := n.PollTarget(); ok {
			delivered++
		}
		select {
		case <-done:
			if _, ok := n.PollTarget(); ok {
				delivered++
			}
			assert.LessOrEqual(t, delivered, presses)
			assert.Equal(t, presses%len(pages), n.CurrentIndex())
			return
		default:
		}
	}
}

func TestButtonString(t *testing.T) {
	assert.Equal(t, "A", ButtonA.String())
	assert.Equal(t, "B", ButtonB.String())
}

func TestPagesReturnsCopy(t *testing.T) {
	p := Pages()
	require.Len(t, p, 6)
	p[0] = "/mutated"
	assert.Equal(t, "/", Pages()[0])
}
