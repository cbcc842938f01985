package indicator

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/weather-station/internal/gpio"
)

// Buzzer plays square-wave tones on a GPIO line from its own goroutine.
type Buzzer struct {
	pin gpio.Pin
	log zerolog.Logger

	mu     sync.Mutex
	cancel chan struct{}
	done   chan struct{}
}

// NewBuzzer creates a Buzzer on pin.
func NewBuzzer(pin gpio.Pin, log zerolog.Logger) *Buzzer {
	return &Buzzer{pin: pin, log: log}
}

// Play cancels any sequence in progress, waits for it to release the line and
// starts tones. The returned channel closes when the new sequence ends.
func (b *Buzzer) Play(tones ...Tone) <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancel != nil {
		close(b.cancel)
		<-b.done
	}

	cancel := make(chan struct{})
	done := make(chan struct{})
	b.cancel, b.done = cancel, done

	go b.run(tones, cancel, done)
	return done
}

// Stop cancels the current sequence and waits for it to finish.
func (b *Buzzer) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		close(b.cancel)
		<-b.done
		b.cancel, b.done = nil, nil
	}
}

func (b *Buzzer) run(tones []Tone, cancel <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer b.set(false)

	for _, t := range tones {
		if !b.play(t, cancel) {
			return
		}
	}
}

// play returns false when cancelled.
func (b *Buzzer) play(t Tone, cancel <-chan struct{}) bool {
	if t.Duration <= 0 {
		return true
	}
	if t.FreqHz <= 0 {
		timer := time.NewTimer(t.Duration)
		defer timer.Stop()
		select {
		case <-timer.C:
			return true
		case <-cancel:
			return false
		}
	}

	half := time.Duration(float64(time.Second) / (2 * t.FreqHz))
	if half <= 0 {
		half = time.Microsecond
	}
	toggles := int(t.Duration/half) &^ 1

	ticker := time.NewTicker(half)
	defer ticker.Stop()

	level := true
	b.set(level)
	for i := 1; i < toggles; i++ {
		select {
		case <-ticker.C:
			level = !level
			b.set(level)
		case <-cancel:
			return false
		}
	}
	b.set(false)
	return true
}

func (b *Buzzer) set(on bool) {
	if err := b.pin.Set(on); err != nil {
		b.log.Debug().Err(err).Msg("buzzer write failed")
	}
}
