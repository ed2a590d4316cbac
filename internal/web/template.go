package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/leak-monitor/internal/logic"
	"github.com/sweeney/leak-monitor/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"reading": func(v float64) string {
		return fmt.Sprintf("%.1f", v)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="30">
<title>Leak Monitor</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.alert { color: red; font-weight: bold; }
.clear { color: green; font-weight: bold; }
.normal { color: green; }
.fault { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Leak Monitor</h1>

<h2>Alert</h2>
<table>
<tr><th>Leak</th><td class="{{if .Alerting}}alert{{else}}clear{{end}}">{{if .Alerting}}DETECTED{{else}}not detected{{end}}</td></tr>
<tr><th>Device fault</th><td class="{{if .Faulted}}fault{{else}}normal{{end}}">{{if .Faulted}}GENERAL FAULT{{else}}none{{end}}</td></tr>
<tr><th>Threshold</th><td>{{.Config.ThresholdPct}}%</td></tr>
</table>

<h2>Sensors</h2>
<table>
<tr><th></th><th>Temperature</th><th>Humidity</th><th>Health</th></tr>
<tr><th>{{.Sensor1.Location}}</th><td>{{reading .Sensor1.Temperature}} °C</td><td>{{reading .Sensor1.Humidity}}%</td><td class="{{if .S1Fault}}fault{{else}}normal{{end}}">{{.Sensor1.Health}}</td></tr>
<tr><th>{{.Sensor2.Location}}</th><td>{{reading .Sensor2.Temperature}} °C</td><td>{{reading .Sensor2.Humidity}}%</td><td class="{{if .S2Fault}}fault{{else}}normal{{end}}">{{.Sensor2.Health}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>Device</th><td>{{.Config.Addr}}</td></tr>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}} — {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Cycle Counts</h2>
<table>
<tr><th>OK</th><td>{{.Counts.OK}}</td></tr>
<tr><th>Transport failed</th><td>{{.Counts.TransportFailed}}</td></tr>
<tr><th>Parse empty</th><td>{{.Counts.ParseEmpty}}</td></tr>
<tr><th>Alerts raised</th><td>{{.Counts.AlertsRaised}}</td></tr>
<tr><th>Alerts cleared</th><td>{{.Counts.AlertsCleared}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollSeconds}}s</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but the template needs plain fields,
	// and the class switches are simpler as precomputed bools.
	data := struct {
		status.Snapshot
		Uptime   time.Duration
		Alerting bool
		Faulted  bool
		S1Fault  bool
		S2Fault  bool
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Alerting: snap.Alert == logic.LeakDetected,
		Faulted:  snap.Fault == logic.GeneralFault,
		S1Fault:  snap.Sensor1.Health == logic.HealthFault,
		S2Fault:  snap.Sensor2.Health == logic.HealthFault,
	}
	indexTmpl.Execute(w, data)
}
