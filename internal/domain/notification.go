package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"
)

// Notification is a message published to, or delivered from, the alert
// channel. MessageID is assigned by the channel on publish.
type Notification struct {
	MessageID string `json:"message_id,omitempty"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Publisher publishes notifications to a channel topic and returns the
// delivery confirmation identifier.
type Publisher interface {
	Publish(ctx context.Context, topic string, n Notification) (string, error)
}

// FormatTimestamp renders t as an ISO-8601 UTC timestamp.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

var alertTemplate = template.Must(template.New("alert").
	Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
	Parse(`🚨 DISASTER EARLY WARNING SYSTEM 🚨
Risk Level: {{.Level}}
Time: {{.Timestamp}}

ALERTS:
{{range $i, $a := .Alerts}}{{inc $i}}. {{$a}}
{{end}}
SENSOR DATA:
💧 Water Level: {{.WaterLevel}} meters
📳 Vibration: {{.Vibration}} magnitude
🌧️ Rainfall: {{.Rainfall}} mm
💨 Wind: {{.WindSpeed}} km/h

Take appropriate action immediately!`))

var customAlertTemplate = template.Must(template.New("custom").Parse(`🚨 CUSTOM ALERT 🚨

Type: {{.AlertType}}
Severity: {{.Severity}}

{{.Message}}

Time: {{.Time}}`))

type alertView struct {
	Level      RiskLevel
	Timestamp  string
	Alerts     []string
	WaterLevel string
	Vibration  string
	Rainfall   string
	WindSpeed  string
}

// AlertNotification composes the multi-line warning published when an
// assessment fired at least one tier.
func AlertNotification(rs ReadingSet, a Assessment, timestamp string) (Notification, error) {
	view := alertView{
		Level:      a.Level,
		Timestamp:  timestamp,
		Alerts:     a.Alerts(),
		WaterLevel: "N/A",
		Vibration:  "N/A",
		Rainfall:   "N/A",
		WindSpeed:  "N/A",
	}
	if s := rs.Sensors.WaterLevel; s != nil {
		view.WaterLevel = formatValue(s.Value)
	}
	if s := rs.Sensors.Vibration; s != nil {
		view.Vibration = formatValue(s.Value)
	}
	if s := rs.Sensors.Weather; s != nil {
		view.Rainfall = formatValue(s.Rainfall)
		view.WindSpeed = formatValue(s.WindSpeed)
	}

	var b strings.Builder
	if err := alertTemplate.Execute(&b, view); err != nil {
		return Notification{}, fmt.Errorf("render alert notification: %w", err)
	}
	return Notification{
		Subject:   fmt.Sprintf("🚨 %s DISASTER ALERT - %d Warning(s)", a.Level, len(a.Triggers)),
		Message:   b.String(),
		Timestamp: timestamp,
	}, nil
}

// CustomAlert is the flat payload accepted by a direct sender invocation.
type CustomAlert struct {
	AlertType string `json:"alert_type"`
	Message   string `json:"message"`
	Severity  string `json:"severity"`
}

// DefaultCustomAlert returns the alert used for fields a caller leaves out.
func DefaultCustomAlert() CustomAlert {
	return CustomAlert{
		AlertType: "GENERAL",
		Message:   "Custom disaster alert",
		Severity:  "LOW",
	}
}

// UnmarshalJSON applies the defaults only to absent keys. A field sent as an
// explicit empty string stays empty.
func (c *CustomAlert) UnmarshalJSON(data []byte) error {
	type plain CustomAlert
	p := plain(DefaultCustomAlert())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = CustomAlert(p)
	return nil
}

// CustomAlertNotification renders a direct-invocation alert.
func CustomAlertNotification(c CustomAlert, now time.Time) (Notification, error) {
	ts := FormatTimestamp(now)

	var b strings.Builder
	err := customAlertTemplate.Execute(&b, struct {
		CustomAlert
		Time string
	}{c, ts})
	if err != nil {
		return Notification{}, fmt.Errorf("render custom alert: %w", err)
	}
	return Notification{
		Subject:   fmt.Sprintf("🚨 %s CUSTOM ALERT - %s", c.Severity, c.AlertType),
		Message:   b.String(),
		Timestamp: ts,
	}, nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
