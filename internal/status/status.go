// Package status provides a thread-safe status tracker for the
// leak-monitor daemon. The poll loop is its single writer, once per
// completed cycle; HTTP handlers and MQTT snapshot payloads are its
// readers, at arbitrary times in between.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/leak-monitor/internal/logic"
)

// NetworkInfo contains network state reported by the host's pi-helper
// env file.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Addr         string
	PollSeconds  int64
	ThresholdPct float64
	HeartbeatMs  int64
	Broker       string
	HTTPAddr     string
}

// CycleCounts tracks poll-cycle outcomes since startup.
type CycleCounts struct {
	// OK counts cycles whose fetch succeeded and parsed at least one record.
	OK int
	// TransportFailed counts cycles whose fetch failed.
	TransportFailed int
	// ParseEmpty counts cycles whose fetch succeeded but yielded no records.
	ParseEmpty int
	// AlertsRaised and AlertsCleared count alert transitions.
	AlertsRaised  int
	AlertsCleared int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Sensor1       logic.Channel
	Sensor2       logic.Channel
	Alert         logic.AlertState
	Fault         logic.FaultState
	Counts        CycleCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
// Alert and fault start at their resting values so the status page is
// coherent before the first cycle completes.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Alert:     logic.LeakNotDetected,
			Fault:     logic.NoFault,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// UpdateCycle publishes one completed cycle's results. All fields land
// under a single write lock so a reader never observes a half-updated
// channel.
func (t *Tracker) UpdateCycle(s1, s2 logic.Channel, alert logic.AlertState, fault logic.FaultState, counts CycleCounts) {
	t.mu.Lock()
	t.snap.Sensor1 = s1
	t.snap.Sensor2 = s2
	t.snap.Alert = alert
	t.snap.Fault = fault
	t.snap.Counts = counts
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

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
