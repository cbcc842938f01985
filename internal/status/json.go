package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/weather-station/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Readings      ReadingsJSON `json:"readings"`
	Alert         bool         `json:"alert"`
	Ready         bool         `json:"ready"`
	Page          string       `json:"page"`
	LastSample    string       `json:"last_sample,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// ReadingsJSON carries the calibrated readings under their wire names.
type ReadingsJSON struct {
	Temperature float64 `json:"temperatura"`
	Humidity    float64 `json:"umidade"`
	Pressure    float64 `json:"pressao"`
	Altitude    float64 `json:"altitude"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of loop counters.
type CountsJSON struct {
	Samples      int `json:"samples"`
	SensorErrors int `json:"sensor_errors"`
	Transactions int `json:"transactions"`
	AlertOn      int `json:"alert_on"`
	AlertOff     int `json:"alert_off"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of node config.
type ConfigJSON struct {
	SampleMs    int64  `json:"sample_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	Simulated   bool   `json:"simulated,omitempty"`
}

// NewReadingsJSON maps readings onto their wire names.
func NewReadingsJSON(r logic.Readings) ReadingsJSON {
	return ReadingsJSON{
		Temperature: r[logic.Temperature],
		Humidity:    r[logic.Humidity],
		Pressure:    r[logic.Pressure],
		Altitude:    r[logic.Altitude],
	}
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Readings:      NewReadingsJSON(snap.Readings),
		Alert:         snap.Alert,
		Ready:         snap.Ready(),
		Page:          snap.Page,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Samples:      snap.Counts.Samples,
			SensorErrors: snap.Counts.SensorErrors,
			Transactions: snap.Counts.Transactions,
			AlertOn:      snap.Counts.AlertOn,
			AlertOff:     snap.Counts.AlertOff,
		},
		Config: ConfigJSON{
			SampleMs:    snap.Config.SampleMs,
			DebounceMs:  snap.Config.DebounceMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			Simulated:   snap.Config.Simulated,
		},
	}
	if !snap.LastSample.IsZero() {
		inner.LastSample = snap.LastSample.UTC().Format(time.RFC3339)
	}
	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the status endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
