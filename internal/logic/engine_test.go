package logic

import (
	"math"
	"testing"
	"time"

	"github.com/sweeney/leak-monitor/internal/report"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func detectedRecord(index int, temps, humids [3]float64) report.Record {
	return report.Record{
		Index:        index,
		Status:       report.StatusDetected,
		Detected:     true,
		Temperatures: temps,
		Humidities:   humids,
	}
}

func TestNewEngine(t *testing.T) {
	e := NewEngine(90, "Basement", "Laundry")

	if e.Alert() != LeakNotDetected {
		t.Errorf("initial alert: got %s, want %s", e.Alert(), LeakNotDetected)
	}
	if e.Fault() != NoFault {
		t.Errorf("initial fault: got %s, want %s", e.Fault(), NoFault)
	}

	s1, s2 := e.Channels()
	if s1.Location != "Basement" {
		t.Errorf("sensor 1 location: got %q, want Basement", s1.Location)
	}
	if s2.Location != "Laundry" {
		t.Errorf("sensor 2 location: got %q, want Laundry", s2.Location)
	}
	if s1.Temperature != 0 || s1.Humidity != 0 {
		t.Errorf("sensor 1 should start at zero, got %v/%v", s1.Temperature, s1.Humidity)
	}
	if s1.Health != HealthNormal || s2.Health != HealthNormal {
		t.Error("channels should start Normal")
	}
}

func TestAggregationMean(t *testing.T) {
	e := NewEngine(90, "A", "B")
	e.ApplyReport([]report.Record{
		detectedRecord(1, [3]float64{20, 21, 22}, [3]float64{45, 46, 47}),
	}, testTime)

	s1, _ := e.Channels()
	if s1.Temperature != 21 {
		t.Errorf("Temperature: got %v, want 21", s1.Temperature)
	}
	if s1.Humidity != 46 {
		t.Errorf("Humidity: got %v, want 46", s1.Humidity)
	}
	if s1.Health != HealthNormal {
		t.Errorf("Health: got %s, want %s", s1.Health, HealthNormal)
	}
}

func TestAggregationMeanOrderIndependent(t *testing.T) {
	a := NewEngine(90, "A", "B")
	b := NewEngine(90, "A", "B")

	a.ApplyReport([]report.Record{
		detectedRecord(1, [3]float64{19.5, 20.0, 20.5}, [3]float64{44, 45, 46}),
	}, testTime)
	b.ApplyReport([]report.Record{
		detectedRecord(1, [3]float64{20.5, 19.5, 20.0}, [3]float64{46, 44, 45}),
	}, testTime)

	sa, _ := a.Channels()
	sb, _ := b.Channels()
	if sa.Temperature != sb.Temperature {
		t.Errorf("mean depends on sample order: %v vs %v", sa.Temperature, sb.Temperature)
	}
	if sa.Humidity != sb.Humidity {
		t.Errorf("mean depends on sample order: %v vs %v", sa.Humidity, sb.Humidity)
	}
}

func TestNotDetectedFaultsChannelKeepsValues(t *testing.T) {
	e := NewEngine(90, "A", "B")

	// Establish good readings on channel 2
	e.ApplyReport([]report.Record{
		detectedRecord(2, [3]float64{21, 21, 21}, [3]float64{50, 50, 50}),
	}, testTime)

	// Device now reports channel 2 as Not Detected
	e.ApplyReport([]report.Record{
		{Index: 2, Status: "Not Detected", Detected: false},
	}, testTime)

	_, s2 := e.Channels()
	if s2.Health != HealthFault {
		t.Errorf("Health: got %s, want %s", s2.Health, HealthFault)
	}
	if s2.Temperature != 21 {
		t.Errorf("Temperature changed on fault: got %v, want 21", s2.Temperature)
	}
	if s2.Humidity != 50 {
		t.Errorf("Humidity changed on fault: got %v, want 50", s2.Humidity)
	}
}

func TestNaNSampleFaultsChannelKeepsValues(t *testing.T) {
	e := NewEngine(90, "A", "B")

	e.ApplyReport([]report.Record{
		detectedRecord(1, [3]float64{20, 20, 20}, [3]float64{45, 45, 45}),
	}, testTime)

	e.ApplyReport([]report.Record{
		detectedRecord(1, [3]float64{20, math.NaN(), 20}, [3]float64{45, 45, 45}),
	}, testTime)

	s1, _ := e.Channels()
	if s1.Health != HealthFault {
		t.Errorf("Health: got %s, want %s", s1.Health, HealthFault)
	}
	if s1.Temperature != 20 {
		t.Errorf("Temperature: got %v, want 20", s1.Temperature)
	}
	if s1.Humidity != 45 {
		t.Errorf("Humidity: got %v, want 45", s1.Humidity)
	}
}

func TestAbsentChannelLeftUntouched(t *testing.T) {
	e := NewEngine(90, "A", "B")

	// Channel 2 faulted in an earlier cycle
	e.ApplyReport([]report.Record{
		detectedRecord(2, [3]float64{21, 21, 21}, [3]float64{50, 50, 50}),
	}, testTime)
	e.ApplyReport([]report.Record{
		{Index: 2, Status: "Failed", Detected: false},
	}, testTime)

	// This cycle only channel 1 reports. Channel 2 keeps its values AND
	// its fault flag — absence is not a health report either way.
	e.ApplyReport([]report.Record{
		detectedRecord(1, [3]float64{20, 20, 20}, [3]float64{45, 45, 45}),
	}, testTime)

	_, s2 := e.Channels()
	if s2.Health != HealthFault {
		t.Errorf("Health: got %s, want %s (unchanged)", s2.Health, HealthFault)
	}
	if s2.Humidity != 50 {
		t.Errorf("Humidity: got %v, want 50", s2.Humidity)
	}
}

func TestDuplicateRecordLastWins(t *testing.T) {
	e := NewEngine(90, "A", "B")
	e.ApplyReport([]report.Record{
		detectedRecord(1, [3]float64{20, 20, 20}, [3]float64{45, 45, 45}),
		detectedRecord(1, [3]float64{22, 22, 22}, [3]float64{60, 60, 60}),
	}, testTime)

	s1, _ := e.Channels()
	if s1.Humidity != 60 {
		t.Errorf("Humidity: got %v, want 60 (last record wins)", s1.Humidity)
	}
	if s1.Temperature != 22 {
		t.Errorf("Temperature: got %v, want 22 (last record wins)", s1.Temperature)
	}
}

func TestAlertRaisedWhenEitherChannelExceedsThreshold(t *testing.T) {
	e := NewEngine(90, "A", "B")

	events := e.ApplyReport([]report.Record{
		detectedRecord(1, [3]float64{20, 20, 20}, [3]float64{91, 91, 91}),
		detectedRecord(2, [3]float64{20, 20, 20}, [3]float64{10, 10, 10}),
	}, testTime)

	if e.Alert() != LeakDetected {
		t.Errorf("alert: got %s, want %s", e.Alert(), LeakDetected)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Type != EventLeakDetected {
		t.Errorf("event type: got %s, want %s", events[0].Type, EventLeakDetected)
	}
	if events[0].Alert != LeakDetected {
		t.Errorf("event alert: got %s, want %s", events[0].Alert, LeakDetected)
	}
	if !events[0].Timestamp.Equal(testTime) {
		t.Errorf("event timestamp: got %v, want %v", events[0].Timestamp, testTime)
	}
	if events[0].Sensor1.Humidity != 91 {
		t.Errorf("event sensor 1 humidity: got %v, want 91", events[0].Sensor1.Humidity)
	}
}

func TestAlertClearedOnlyWhenBothBelowThreshold(t *testing.T) {
	e := NewEngine(90, "A", "B")

	// Raise via channel 2
	e.ApplyReport([]report.Record{
		detectedRecord(1, [3]float64{20, 20, 20}, [3]float64{50, 50, 50}),
		detectedRecord(2, [3]float64{20, 20, 20}, [3]float64{95, 95, 95}),
	}, testTime)
	if e.Alert() != LeakDetected {
		t.Fatalf("setup: alert not raised")
	}

	// Channel 2 drops but channel 1 rises above: still detected, no event
	events := e.ApplyReport([]report.Record{
		detectedRecord(1, [3]float64{20, 20, 20}, [3]float64{92, 92, 92}),
		detectedRecord(2, [3]float64{20, 20, 20}, [3]float64{50, 50, 50}),
	}, testTime)
	if e.Alert() != LeakDetected {
		t.Errorf("alert: got %s, want %s", e.Alert(), LeakDetected)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}

	// Both below: cleared
	events = e.ApplyReport([]report.Record{
		detectedRecord(1, [3]float64{20, 20, 20}, [3]float64{50, 50, 50}),
		detectedRecord(2, [3]float64{20, 20, 20}, [3]float64{50, 50, 50}),
	}, testTime)
	if e.Alert() != LeakNotDetected {
		t.Errorf("alert: got %s, want %s", e.Alert(), LeakNotDetected)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Type != EventLeakCleared {
		t.Errorf("event type: got %s, want %s", events[0].Type, EventLeakCleared)
	}
}

func TestThresholdEqualityNeverTransitions(t *testing.T) {
	// From below: humidity exactly at the threshold does not raise.
	e := NewEngine(90, "A", "B")
	events := e.ApplyReport([]report.Record{
		detectedRecord(1, [3]float64{20, 20, 20}, [3]float64{90, 90, 90}),
	}, testTime)
	if e.Alert() != LeakNotDetected {
		t.Errorf("alert raised at threshold equality: %s", e.Alert())
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}

	// From above: humidity exactly at the threshold does not clear.
	e2 := NewEngine(90, "A", "B")
	e2.ApplyReport([]report.Record{
		detectedRecord(1, [3]float64{20, 20, 20}, [3]float64{95, 95, 95}),
	}, testTime)
	events = e2.ApplyReport([]report.Record{
		detectedRecord(1, [3]float64{20, 20, 20}, [3]float64{90, 90, 90}),
		detectedRecord(2, [3]float64{20, 20, 20}, [3]float64{10, 10, 10}),
	}, testTime)
	if e2.Alert() != LeakDetected {
		t.Errorf("alert cleared at threshold equality: %s", e2.Alert())
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}

func TestOscillationAroundThresholdDoesNotFlap(t *testing.T) {
	e := NewEngine(90, "A", "B")

	e.ApplyReport([]report.Record{
		detectedRecord(1, [3]float64{20, 20, 20}, [3]float64{91, 91, 91}),
	}, testTime)
	if e.Alert() != LeakDetected {
		t.Fatal("setup: alert not raised")
	}

	// Sitting exactly at the threshold: state holds.
	for i := 0; i < 5; i++ {
		events := e.ApplyReport([]report.Record{
			detectedRecord(1, [3]float64{20, 20, 20}, [3]float64{90, 90, 90}),
		}, testTime)
		if len(events) != 0 {
			t.Fatalf("cycle %d: unexpected transition", i)
		}
		if e.Alert() != LeakDetected {
			t.Fatalf("cycle %d: alert flapped to %s", i, e.Alert())
		}
	}
}

func TestFaultedChannelHumidityStillParticipates(t *testing.T) {
	e := NewEngine(90, "A", "B")

	// Channel 1 reads high, raising the alert.
	e.ApplyReport([]report.Record{
		detectedRecord(1, [3]float64{20, 20, 20}, [3]float64{95, 95, 95}),
		detectedRecord(2, [3]float64{20, 20, 20}, [3]float64{50, 50, 50}),
	}, testTime)

	// Channel 1 goes faulted: its last-known 95% still holds the alert
	// even though channel 2 is well below.
	events := e.ApplyReport([]report.Record{
		{Index: 1, Status: "Failed", Detected: false},
		detectedRecord(2, [3]float64{20, 20, 20}, [3]float64{50, 50, 50}),
	}, testTime)

	if e.Alert() != LeakDetected {
		t.Errorf("alert: got %s, want %s (faulted channel participates)", e.Alert(), LeakDetected)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}

func TestTransportFailureKeepsReadings(t *testing.T) {
	e := NewEngine(90, "A", "B")
	e.ApplyReport([]report.Record{
		detectedRecord(1, [3]float64{20, 20, 20}, [3]float64{45, 45, 45}),
		detectedRecord(2, [3]float64{21, 21, 21}, [3]float64{50, 50, 50}),
	}, testTime)
	before1, before2 := e.Channels()

	e.ApplyTransportFailure()

	if e.Fault() != GeneralFault {
		t.Errorf("fault: got %s, want %s", e.Fault(), GeneralFault)
	}
	after1, after2 := e.Channels()
	if after1 != before1 {
		t.Errorf("sensor 1 changed on transport failure: %+v vs %+v", after1, before1)
	}
	if after2 != before2 {
		t.Errorf("sensor 2 changed on transport failure: %+v vs %+v", after2, before2)
	}
	if e.Alert() != LeakNotDetected {
		t.Errorf("alert raised by transport failure: %s", e.Alert())
	}
}

func TestSuccessfulReportClearsGeneralFault(t *testing.T) {
	e := NewEngine(90, "A", "B")
	e.ApplyTransportFailure()
	if e.Fault() != GeneralFault {
		t.Fatal("setup: fault not set")
	}

	e.ApplyReport([]report.Record{
		detectedRecord(1, [3]float64{20, 20, 20}, [3]float64{45, 45, 45}),
	}, testTime)
	if e.Fault() != NoFault {
		t.Errorf("fault: got %s, want %s", e.Fault(), NoFault)
	}
}

// TestHighHumidityPayloadRaisesAlert walks the canonical device payload
// SHT,1,A,Detected,20,20,20,91%,91%,91% at threshold 90: published
// humidity is exactly 91 and the alert fires.
func TestHighHumidityPayloadRaisesAlert(t *testing.T) {
	e := NewEngine(90, "A", "B")
	events := e.ApplyReport([]report.Record{
		detectedRecord(1, [3]float64{20, 20, 20}, [3]float64{91, 91, 91}),
	}, testTime)

	s1, _ := e.Channels()
	if s1.Humidity != 91.0 {
		t.Errorf("Humidity: got %v, want 91.0", s1.Humidity)
	}
	if e.Alert() != LeakDetected {
		t.Errorf("alert: got %s, want %s", e.Alert(), LeakDetected)
	}
	if len(events) != 1 || events[0].Type != EventLeakDetected {
		t.Fatalf("expected a single LEAK_DETECTED event, got %v", events)
	}
}
