package indicator

import "time"

// Connectivity feedback sequences.
var (
	ConnectFailedTones = []Tone{{FreqHz: 300, Duration: 1000 * time.Millisecond}}
	ConnectedTones     = []Tone{
		{FreqHz: 1200, Duration: 100 * time.Millisecond},
		Rest(50 * time.Millisecond),
		{FreqHz: 1500, Duration: 100 * time.Millisecond},
	}
)

// Connecting lights both LEDs, which reads as yellow.
func Connecting(b Bridge) error {
	return b.SetLEDs(true, true)
}

// ConnectFailed leaves only the red LED lit and sounds the failure tone.
func ConnectFailed(b Bridge) <-chan struct{} {
	b.SetLEDs(true, false)
	return b.Signal(ConnectFailedTones...)
}

// Connected leaves only the green LED lit and sounds the two-note chime.
func Connected(b Bridge) <-chan struct{} {
	b.SetLEDs(false, true)
	return b.Signal(ConnectedTones...)
}

// ShowAlert renders the alert pattern or clears the matrix.
func ShowAlert(b Bridge, alert bool) error {
	if alert {
		return b.Render(PatternAlert, Yellow)
	}
	return b.Render(PatternEmpty, Yellow)
}
