package indicator

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogBridge is a Bridge for running without indicator hardware. Matrix
// changes are logged at info, everything else at debug.
type LogBridge struct {
	log zerolog.Logger

	mu      sync.Mutex
	pattern Pattern
	cancel  chan struct{}
}

// NewLogBridge creates a LogBridge.
func NewLogBridge(log zerolog.Logger) *LogBridge {
	return &LogBridge{log: log, pattern: PatternEmpty}
}

// Render logs pattern changes only; repeated frames are silent.
func (l *LogBridge) Render(p Pattern, c Color) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p != l.pattern {
		l.log.Info().Stringer("pattern", p).Stringer("color", c).Msg("matrix")
		l.pattern = p
	}
	return nil
}

// Signal logs the tones. The returned channel closes after their total
// duration so callers see real timing.
func (l *LogBridge) Signal(tones ...Tone) <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		close(l.cancel)
	}
	cancel := make(chan struct{})
	l.cancel = cancel

	for _, t := range tones {
		l.log.Debug().Float64("freq_hz", t.FreqHz).Dur("duration", t.Duration).Msg("tone")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		timer := time.NewTimer(Total(tones))
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-cancel:
		}
	}()
	return done
}

// SetLEDs logs the LED state.
func (l *LogBridge) SetLEDs(red, green bool) error {
	l.log.Debug().Bool("red", red).Bool("green", green).Msg("leds")
	return nil
}

// Close cancels any pending signal.
func (l *LogBridge) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		close(l.cancel)
		l.cancel = nil
	}
	return nil
}
