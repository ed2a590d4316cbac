// Package logic contains pure business logic for leak alerting: per-channel
// sample aggregation and the hysteresis state machine that turns humidity
// readings into a stable alert flag.
// This package has NO external dependencies (no network, MQTT, OS, or
// time.Sleep). Time is always injectable via time.Time parameters.
package logic

import "time"

// AlertState is the process-wide leak alert flag.
type AlertState string

const (
	LeakNotDetected AlertState = "LEAK_NOT_DETECTED"
	LeakDetected    AlertState = "LEAK_DETECTED"
)

// Health is the momentary health flag of one sensor channel.
type Health string

const (
	HealthNormal Health = "NORMAL"
	HealthFault  Health = "FAULT"
)

// FaultState is the device-level fault flag, covering transport failures
// as opposed to per-channel sensor faults.
type FaultState string

const (
	NoFault      FaultState = "NO_FAULT"
	GeneralFault FaultState = "GENERAL_FAULT"
)

// EventType is an alert transition to be published.
type EventType string

const (
	EventLeakDetected EventType = "LEAK_DETECTED"
	EventLeakCleared  EventType = "LEAK_CLEARED"
)

// ChannelCount is fixed: the device reports exactly two sensor channels.
const ChannelCount = 2

// Channel is the published state of one sensor channel.
type Channel struct {
	// Location is the configured display label.
	Location string
	// Temperature is the published temperature in °C (mean of the last
	// report's 3 samples).
	Temperature float64
	// Humidity is the published relative humidity in percent.
	Humidity float64
	// Health is the channel's momentary health flag.
	Health Health
}

// Event represents an alert transition, carrying the channel states at
// the moment of the transition.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Alert     AlertState
	Sensor1   Channel
	Sensor2   Channel
}
