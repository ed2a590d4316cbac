// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/leak-monitor/internal/logic"
)

// TopicEvents is the MQTT topic for leak alert transitions.
const TopicEvents = "home/leak/sensor/events"

// TopicReadings is the MQTT topic for per-cycle sensor readings.
const TopicReadings = "home/leak/sensor/readings"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "home/leak/sensor/system"

// Publisher publishes daemon output to MQTT.
type Publisher interface {
	// PublishAlert sends an alert transition to the broker.
	// Returns error if publishing fails (should not crash the process).
	PublishAlert(event logic.Event) error

	// PublishReadings sends one cycle's aggregated readings to the broker.
	PublishReadings(r Readings) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Readings is one completed cycle's published output.
type Readings struct {
	Timestamp time.Time
	Sensor1   logic.Channel
	Sensor2   logic.Channel
	Alert     logic.AlertState
	Fault     logic.FaultState
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// AlertPayload is the MQTT message payload for an alert transition.
type AlertPayload struct {
	Leak LeakPayload `json:"leak"`
}

// LeakPayload contains the alert transition details.
type LeakPayload struct {
	Timestamp string        `json:"timestamp"`
	Event     string        `json:"event"`
	Alert     string        `json:"alert"`
	Sensor1   SensorPayload `json:"sensor1"`
	Sensor2   SensorPayload `json:"sensor2"`
}

// SensorPayload is one channel's published values.
type SensorPayload struct {
	Location    string  `json:"location"`
	Temperature float64 `json:"temperature_c"`
	Humidity    float64 `json:"humidity_pct"`
	Health      string  `json:"health"`
}

// ReadingsPayload is the MQTT message payload for per-cycle readings.
type ReadingsPayload struct {
	Readings ReadingsInner `json:"readings"`
}

// ReadingsInner contains the cycle reading details.
type ReadingsInner struct {
	Timestamp   string        `json:"timestamp"`
	Alert       string        `json:"alert"`
	DeviceFault string        `json:"device_fault"`
	Sensor1     SensorPayload `json:"sensor1"`
	Sensor2     SensorPayload `json:"sensor2"`
}

func sensorPayload(ch logic.Channel) SensorPayload {
	return SensorPayload{
		Location:    ch.Location,
		Temperature: ch.Temperature,
		Humidity:    ch.Humidity,
		Health:      string(ch.Health),
	}
}

// FormatAlertPayload creates the JSON payload for an alert transition.
func FormatAlertPayload(event logic.Event) ([]byte, error) {
	payload := AlertPayload{
		Leak: LeakPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			Alert:     string(event.Alert),
			Sensor1:   sensorPayload(event.Sensor1),
			Sensor2:   sensorPayload(event.Sensor2),
		},
	}
	return json.Marshal(payload)
}

// FormatReadingsPayload creates the JSON payload for per-cycle readings.
func FormatReadingsPayload(r Readings) ([]byte, error) {
	payload := ReadingsPayload{
		Readings: ReadingsInner{
			Timestamp:   r.Timestamp.UTC().Format(time.RFC3339),
			Alert:       string(r.Alert),
			DeviceFault: string(r.Fault),
			Sensor1:     sensorPayload(r.Sensor1),
			Sensor2:     sensorPayload(r.Sensor2),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events that don't carry a full status snapshot.
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
