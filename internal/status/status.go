// Package status provides a thread-safe status tracker for the weather-station node.
// The control loop writes to it; the status page and MQTT system events read from it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/weather-station/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains node configuration for display.
type Config struct {
	SampleMs    int64
	DebounceMs  int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	Simulated   bool
}

// Counts tallies what the control loop has done since startup.
type Counts struct {
	Samples      int
	SensorErrors int
	Transactions int
	AlertOn      int
	AlertOff     int
}

// Snapshot is a point-in-time view of node state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Readings      logic.Readings
	Alert         bool
	Counts        Counts
	LastSample    time.Time
	Page          string
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the node started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Ready reports whether at least one sample has been taken.
func (s Snapshot) Ready() bool {
	return s.Counts.Samples > 0
}

// Tracker holds mutable node state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Page:      "/",
			Config:    cfg,
		},
	}
}

// Update sets readings, alert state and counters.
// Called from the control loop after every sample.
func (t *Tracker) Update(readings logic.Readings, alert bool, counts Counts, at time.Time) {
	t.mu.Lock()
	t.snap.Readings = readings
	t.snap.Alert = alert
	t.snap.Counts = counts
	t.snap.LastSample = at
	t.mu.Unlock()
}

// SetCounts replaces the counters without touching readings.
func (t *Tracker) SetCounts(counts Counts) {
	t.mu.Lock()
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetPage records the page the navigation buttons last selected.
func (t *Tracker) SetPage(page string) {
	t.mu.Lock()
	t.snap.Page = page
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the node state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
