package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/leak-monitor/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Alert         string       `json:"alert"`
	DeviceFault   string       `json:"device_fault"`
	Sensor1       SensorJSON   `json:"sensor1"`
	Sensor2       SensorJSON   `json:"sensor2"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"cycle_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// SensorJSON is the JSON representation of one sensor channel.
type SensorJSON struct {
	Location    string  `json:"location"`
	Temperature float64 `json:"temperature_c"`
	Humidity    float64 `json:"humidity_pct"`
	Health      string  `json:"health"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of cycle counts.
type CountsJSON struct {
	OK              int `json:"ok"`
	TransportFailed int `json:"transport_failed"`
	ParseEmpty      int `json:"parse_empty"`
	AlertsRaised    int `json:"alerts_raised"`
	AlertsCleared   int `json:"alerts_cleared"`
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

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Addr         string  `json:"addr"`
	PollSeconds  int64   `json:"poll_seconds"`
	ThresholdPct float64 `json:"threshold_pct"`
	HeartbeatMs  int64   `json:"heartbeat_ms"`
	Broker       string  `json:"broker"`
	HTTPAddr     string  `json:"http_addr"`
}

func buildSensor(ch logic.Channel) SensorJSON {
	health := string(ch.Health)
	if health == "" {
		health = string(logic.HealthNormal)
	}
	return SensorJSON{
		Location:    ch.Location,
		Temperature: ch.Temperature,
		Humidity:    ch.Humidity,
		Health:      health,
	}
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		Alert:         string(snap.Alert),
		DeviceFault:   string(snap.Fault),
		Sensor1:       buildSensor(snap.Sensor1),
		Sensor2:       buildSensor(snap.Sensor2),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			OK:              snap.Counts.OK,
			TransportFailed: snap.Counts.TransportFailed,
			ParseEmpty:      snap.Counts.ParseEmpty,
			AlertsRaised:    snap.Counts.AlertsRaised,
			AlertsCleared:   snap.Counts.AlertsCleared,
		},
		Config: ConfigJSON{
			Addr:         snap.Config.Addr,
			PollSeconds:  snap.Config.PollSeconds,
			ThresholdPct: snap.Config.ThresholdPct,
			HeartbeatMs:  snap.Config.HeartbeatMs,
			Broker:       snap.Config.Broker,
			HTTPAddr:     snap.Config.HTTPAddr,
		},
	}
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

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
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
