// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/weather-station/internal/logic"
	"github.com/sweeney/weather-station/internal/status"
)

// TopicReadings is the MQTT topic for samples and alert transitions.
const TopicReadings = "environment/weather/station/readings"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "environment/weather/station/system"

// EventType names a readings event.
type EventType string

const (
	EventSample   EventType = "SAMPLE"
	EventAlertOn  EventType = "ALERT_ON"
	EventAlertOff EventType = "ALERT_OFF"
)

// System event names.
const (
	SystemStartup     = "STARTUP"
	SystemHeartbeat   = "HEARTBEAT"
	SystemShutdown    = "SHUTDOWN"
	SystemOffline     = "OFFLINE"
	SystemReconnected = "RECONNECTED"
)

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a readings event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event ReadingEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// ReadingEvent is one calibrated sample, or an alert transition carrying the
// sample that caused it.
type ReadingEvent struct {
	Timestamp time.Time
	Type      EventType
	Readings  logic.Readings
	Alert     bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Station StationPayload `json:"station"`
}

// StationPayload contains the readings event details.
type StationPayload struct {
	Timestamp string              `json:"timestamp"`
	Event     string              `json:"event"`
	Readings  status.ReadingsJSON `json:"readings"`
	Alert     bool                `json:"alert"`
}

// FormatPayload creates the JSON payload for a readings event.
func FormatPayload(event ReadingEvent) ([]byte, error) {
	payload := Payload{
		Station: StationPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			Readings:  status.NewReadingsJSON(event.Readings),
			Alert:     event.Alert,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// NopPublisher discards everything. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ReadingEvent) error      { return nil }
func (NopPublisher) PublishSystem(SystemEvent) error { return nil }
func (NopPublisher) Close() error                    { return nil }
func (NopPublisher) IsConnected() bool               { return false }
