package mqtt

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/leak-monitor/internal/logic"
)

// bufferCapacity bounds how many messages are held while disconnected.
// Alert transitions are rare and readings arrive once per poll interval,
// so 64 covers well over an hour of broker outage at the default 30s poll.
const bufferCapacity = 64

// RealPublisher publishes to an actual MQTT broker. While the broker is
// unreachable it buffers messages in a fixed ring and replays them in
// order on reconnect.
type RealPublisher struct {
	client paho.Client

	mu  sync.Mutex
	buf *ringBuffer
}

// NewRealPublisher creates a publisher connected to the given broker.
func NewRealPublisher(broker string) (*RealPublisher, error) {
	p := &RealPublisher{
		buf: newRingBuffer(bufferCapacity),
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("leak-monitor").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(paho.Client) {
			p.drain()
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

// PublishAlert sends an alert transition to the MQTT broker.
// QoS 1 (at-least-once): alert transitions must not be lost.
func (p *RealPublisher) PublishAlert(event logic.Event) error {
	payload, err := FormatAlertPayload(event)
	if err != nil {
		return fmt.Errorf("format alert payload: %w", err)
	}
	return p.publish(TopicEvents, 1, false, payload)
}

// PublishReadings sends one cycle's readings to the MQTT broker.
// QoS 0 (at-most-once): the next cycle supersedes a lost reading.
func (p *RealPublisher) PublishReadings(r Readings) error {
	payload, err := FormatReadingsPayload(r)
	if err != nil {
		return fmt.Errorf("format readings payload: %w", err)
	}
	return p.publish(TopicReadings, 0, false, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
// QoS 1 (at-least-once) - we want to ensure delivery of shutdown events.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(TopicSystem, 1, event.Retained, payload)
}

// publish sends one message, or buffers it if the broker is unreachable.
// Buffered messages are not an error from the caller's point of view:
// the daemon carries on and the drain replays them.
func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnected() {
		p.mu.Lock()
		p.buf.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		n := p.buf.len()
		p.mu.Unlock()
		log.Debug("broker unreachable, message buffered", "topic", topic, "buffered", n)
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout on %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// drain replays buffered messages after a (re)connect.
func (p *RealPublisher) drain() {
	p.mu.Lock()
	msgs := p.buf.drainAll()
	p.mu.Unlock()

	if len(msgs) == 0 {
		return
	}
	log.Info("replaying buffered messages", "count", len(msgs))
	for _, m := range msgs {
		token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(5 * time.Second) {
			log.Warn("replay timeout", "topic", m.topic)
			continue
		}
		if err := token.Error(); err != nil {
			log.Warn("replay failed", "topic", m.topic, "err", err)
		}
	}
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
