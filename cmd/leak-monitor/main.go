// Command leak-monitor polls an SHT moisture sensor unit over HTTP,
// derives a debounced leak alert, and publishes readings and alert
// transitions to MQTT alongside an HTTP status page.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sweeney/leak-monitor/internal/logic"
	"github.com/sweeney/leak-monitor/internal/mqtt"
	"github.com/sweeney/leak-monitor/internal/poller"
	"github.com/sweeney/leak-monitor/internal/report"
	"github.com/sweeney/leak-monitor/internal/status"
	"github.com/sweeney/leak-monitor/internal/telemetry"
	"github.com/sweeney/leak-monitor/internal/web"
)

func main() {
	addr := flag.String("addr", "", "Sensor unit address (host or host:port, required)")
	poll := flag.Duration("poll", 30*time.Second, "Poll interval, measured from cycle completion")
	threshold := flag.Float64("threshold", 90, "Humidity alert threshold in percent")
	location1 := flag.String("location1", "Sensor 1", "Display label for channel 1")
	location2 := flag.String("location2", "Sensor 2", "Display label for channel 2")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	httpAddr := flag.String("http", ":80", "HTTP status address (empty to disable)")
	level := flag.String("level", "info", "Log level")
	flag.Parse()

	if lvl, err := log.ParseLevel(*level); err == nil {
		log.SetLevel(lvl)
	} else {
		log.Fatal("failed to parse log level", "level", *level, "err", err)
	}

	if err := run(*addr, *poll, *threshold, *location1, *location2, *broker, *heartbeat, *httpAddr); err != nil {
		log.Fatal("fatal", "err", err)
	}
}

func run(addr string, poll time.Duration, threshold float64, location1, location2, broker string, heartbeat time.Duration, httpAddr string) error {
	if addr == "" {
		return fmt.Errorf("sensor address is required (-addr)")
	}
	if poll < time.Second {
		return fmt.Errorf("poll interval %v below 1s minimum", poll)
	}
	if poll < telemetry.FetchBudget {
		log.Warn("poll interval shorter than fetch budget, cycles may run back-to-back",
			"poll", poll, "budget", telemetry.FetchBudget)
	}

	fetcher := telemetry.NewHTTPFetcher(addr)
	engine := logic.NewEngine(threshold, location1, location2)

	publisher, err := mqtt.NewRealPublisher(broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		Addr:         addr,
		PollSeconds:  int64(poll.Seconds()),
		ThresholdPct: threshold,
		HeartbeatMs:  heartbeat.Milliseconds(),
		Broker:       broker,
		HTTPAddr:     httpAddr,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Error("failed to publish startup event", "err", err)
	} else {
		log.Info("published startup event")
	}

	// Start HTTP status server
	if httpAddr != "" {
		srv := web.New(httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("http server error", "err", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Info("http status server listening", "addr", httpAddr)
	}

	log.Info("started", "addr", addr, "poll", poll, "threshold", threshold,
		"broker", broker, "heartbeat", heartbeat)

	runner := newCycleRunner(fetcher, engine, tracker, publisher, publisher, heartbeat, time.Now)

	p := poller.New(poll, runner.run)
	p.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigCh

	log.Info("shutting down", "signal", s)
	p.Stop()

	signalName := "UNKNOWN"
	if s == syscall.SIGINT {
		signalName = "SIGINT"
	} else if s == syscall.SIGTERM {
		signalName = "SIGTERM"
	}
	tracker.SetMQTTConnected(publisher.IsConnected())
	snap = tracker.Snapshot()
	shutdownEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "SHUTDOWN",
		Reason:     signalName,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
	}
	if err := publisher.PublishSystem(shutdownEvent); err != nil {
		log.Error("failed to publish shutdown event", "err", err)
	} else {
		log.Info("published shutdown event")
	}

	return nil
}

// cycleRunner executes one poll cycle: fetch, parse, aggregate, debounce,
// publish. It owns the cycle counters and the heartbeat clock; the poller
// guarantees run is never called concurrently.
type cycleRunner struct {
	fetcher    telemetry.Fetcher
	engine     *logic.Engine
	tracker    *status.Tracker
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus

	heartbeat     time.Duration
	lastHeartbeat time.Time
	now           func() time.Time

	counts status.CycleCounts
}

func newCycleRunner(fetcher telemetry.Fetcher, engine *logic.Engine, tracker *status.Tracker, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, heartbeat time.Duration, now func() time.Time) *cycleRunner {
	return &cycleRunner{
		fetcher:       fetcher,
		engine:        engine,
		tracker:       tracker,
		publisher:     publisher,
		mqttStatus:    mqttStatus,
		heartbeat:     heartbeat,
		lastHeartbeat: now(),
		now:           now,
	}
}

func (c *cycleRunner) run(ctx context.Context) {
	payload, err := c.fetcher.Fetch(ctx)
	if ctx.Err() != nil {
		// Stopped while the fetch was in flight; discard the result.
		return
	}
	t := c.now()

	var events []logic.Event
	if err != nil {
		log.Warn("telemetry fetch failed", "err", err)
		c.engine.ApplyTransportFailure()
		c.counts.TransportFailed++
	} else {
		records := report.Parse(payload)
		if len(records) == 0 {
			log.Warn("telemetry payload had no parsable records")
			c.counts.ParseEmpty++
		} else {
			c.counts.OK++
		}
		events = c.engine.ApplyReport(records, t)
	}

	for _, event := range events {
		switch event.Type {
		case logic.EventLeakDetected:
			c.counts.AlertsRaised++
		case logic.EventLeakCleared:
			c.counts.AlertsCleared++
		}
		log.Info("alert transition", "event", event.Type,
			"humidity1", event.Sensor1.Humidity, "humidity2", event.Sensor2.Humidity)
		if err := c.publisher.PublishAlert(event); err != nil {
			// Don't crash on publish failure
			log.Error("publish alert error", "err", err)
		}
	}

	s1, s2 := c.engine.Channels()
	readings := mqtt.Readings{
		Timestamp: t,
		Sensor1:   s1,
		Sensor2:   s2,
		Alert:     c.engine.Alert(),
		Fault:     c.engine.Fault(),
	}
	if err := c.publisher.PublishReadings(readings); err != nil {
		log.Error("publish readings error", "err", err)
	}

	c.tracker.UpdateCycle(s1, s2, c.engine.Alert(), c.engine.Fault(), c.counts)
	if c.mqttStatus != nil {
		c.tracker.SetMQTTConnected(c.mqttStatus.IsConnected())
	}

	c.maybeHeartbeat(t)
}

func (c *cycleRunner) maybeHeartbeat(t time.Time) {
	if c.heartbeat <= 0 {
		return
	}
	if t.Sub(c.lastHeartbeat) < c.heartbeat {
		return
	}
	c.lastHeartbeat = t

	// Refresh network info for heartbeat
	if net := readNetworkInfo(); net != nil {
		c.tracker.SetNetwork(net)
	}
	snap := c.tracker.Snapshot()
	hbEvent := mqtt.SystemEvent{
		Timestamp:  t,
		Event:      "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
	}
	log.Info("heartbeat", "uptime", snap.Uptime().Truncate(time.Second),
		"ok", c.counts.OK, "failed", c.counts.TransportFailed)
	if err := c.publisher.PublishSystem(hbEvent); err != nil {
		log.Error("heartbeat publish error", "err", err)
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
