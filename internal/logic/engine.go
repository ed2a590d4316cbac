package logic

import (
	"math"
	"time"

	"github.com/sweeney/leak-monitor/internal/report"
)

// Engine owns the persistent alert/fault state and the two channel
// records across poll cycles. It is the single writer; callers read a
// consistent view via Channels/Alert/Fault after each cycle. The Engine
// itself is not goroutine-safe — the poll loop is its only caller.
type Engine struct {
	threshold float64
	channels  [ChannelCount]Channel
	alert     AlertState
	fault     FaultState
}

// NewEngine creates an Engine with the given humidity alert threshold
// (percent) and channel display labels. Channels start at zero/Normal,
// the alert at LeakNotDetected, the device fault at NoFault.
func NewEngine(threshold float64, location1, location2 string) *Engine {
	e := &Engine{
		threshold: threshold,
		alert:     LeakNotDetected,
		fault:     NoFault,
	}
	e.channels[0] = Channel{Location: location1, Health: HealthNormal}
	e.channels[1] = Channel{Location: location2, Health: HealthNormal}
	return e
}

// ApplyReport folds one cycle's parsed records into the channel state,
// then evaluates the alert transition rule. It returns the alert events
// (at most one) to publish.
//
// Aggregation rules, per record:
//   - Detected with 3 clean samples: publish the mean temperature and
//     humidity, health Normal.
//   - Detected with any sample NaN: health Fault, previous values kept.
//   - Any other status: health Fault, previous values kept.
//   - A channel absent from the payload entirely is left untouched,
//     health included — absence is not an explicit fault report.
//
// Records are applied in order, so a later record for the same channel
// overrides an earlier one. A successful report clears GeneralFault.
func (e *Engine) ApplyReport(records []report.Record, now time.Time) []Event {
	e.fault = NoFault

	for _, rec := range records {
		ch := &e.channels[rec.Index-1]

		if !rec.Detected {
			ch.Health = HealthFault
			continue
		}

		temp := mean(rec.Temperatures)
		humid := mean(rec.Humidities)
		if math.IsNaN(temp) || math.IsNaN(humid) {
			ch.Health = HealthFault
			continue
		}

		ch.Temperature = temp
		ch.Humidity = humid
		ch.Health = HealthNormal
	}

	return e.evaluate(now)
}

// ApplyTransportFailure records a failed fetch: the device fault flag is
// raised and every published reading is carried forward unchanged so the
// presentation layer keeps showing last-known values. The alert rule is
// not re-evaluated — no channel was aggregated this cycle and the inputs
// to the comparison have not moved.
func (e *Engine) ApplyTransportFailure() {
	e.fault = GeneralFault
}

// evaluate applies the hysteresis rule once per completed cycle:
//
//	LeakNotDetected -> LeakDetected  when either humidity > threshold
//	LeakDetected    -> LeakNotDetected when both humidities < threshold
//
// Equality to the threshold never transitions in either direction, so a
// reading sitting on the threshold cannot flap the alert. A faulted
// channel's last-known humidity still participates in the comparison.
func (e *Engine) evaluate(now time.Time) []Event {
	h1 := e.channels[0].Humidity
	h2 := e.channels[1].Humidity

	switch e.alert {
	case LeakNotDetected:
		if h1 > e.threshold || h2 > e.threshold {
			e.alert = LeakDetected
			return []Event{e.event(now, EventLeakDetected)}
		}
	case LeakDetected:
		if h1 < e.threshold && h2 < e.threshold {
			e.alert = LeakNotDetected
			return []Event{e.event(now, EventLeakCleared)}
		}
	}
	return nil
}

func (e *Engine) event(now time.Time, t EventType) Event {
	return Event{
		Timestamp: now,
		Type:      t,
		Alert:     e.alert,
		Sensor1:   e.channels[0],
		Sensor2:   e.channels[1],
	}
}

// Channels returns the published state of both channels.
func (e *Engine) Channels() (Channel, Channel) {
	return e.channels[0], e.channels[1]
}

// Alert returns the current alert state.
func (e *Engine) Alert() AlertState {
	return e.alert
}

// Fault returns the current device fault flag.
func (e *Engine) Fault() FaultState {
	return e.fault
}

// mean returns the arithmetic mean of the samples. NaN poisons the mean,
// which is exactly the propagation ApplyReport relies on.
func mean(samples [report.SampleCount]float64) float64 {
	var sum float64
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}
