package mqtt

import (
	"github.com/sweeney/leak-monitor/internal/logic"
)

// FakePublisher records published events for test assertions.
type FakePublisher struct {
	// AlertEvents contains all alert transitions that were published.
	AlertEvents []logic.Event

	// AlertPayloads contains the JSON payloads for alert transitions.
	AlertPayloads [][]byte

	// ReadingsList contains all per-cycle readings that were published.
	ReadingsList []Readings

	// ReadingsPayloads contains the JSON payloads for readings.
	ReadingsPayloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishError, if set, will be returned by PublishAlert and
	// PublishReadings.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishAlert records the alert transition.
func (f *FakePublisher) PublishAlert(event logic.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	f.AlertEvents = append(f.AlertEvents, event)

	payload, err := FormatAlertPayload(event)
	if err != nil {
		return err
	}
	f.AlertPayloads = append(f.AlertPayloads, payload)

	return nil
}

// PublishReadings records the cycle readings.
func (f *FakePublisher) PublishReadings(r Readings) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	f.ReadingsList = append(f.ReadingsList, r)

	payload, err := FormatReadingsPayload(r)
	if err != nil {
		return err
	}
	f.ReadingsPayloads = append(f.ReadingsPayloads, payload)

	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	f.SystemEvents = append(f.SystemEvents, event)

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemPayloads = append(f.SystemPayloads, payload)

	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded events.
func (f *FakePublisher) Reset() {
	f.AlertEvents = nil
	f.AlertPayloads = nil
	f.ReadingsList = nil
	f.ReadingsPayloads = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Closed = false
	f.PublishError = nil
	f.PublishSystemError = nil
	f.Connected = false
}
