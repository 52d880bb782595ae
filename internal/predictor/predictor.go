// Package predictor classifies reading sets and publishes a composed warning
// to the alert channel when any category crosses a threshold.
package predictor

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/disaster-early-warning/internal/domain"
	"github.com/couchcryptid/disaster-early-warning/internal/invocation"
	"github.com/couchcryptid/disaster-early-warning/internal/observability"
)

const component = "predictor"

// Option configures a Predictor.
type Option func(*Predictor)

// WithClock overrides the clock used when a reading set has no timestamp.
func WithClock(c clockwork.Clock) Option {
	return func(p *Predictor) { p.clock = c }
}

// Predictor runs the threshold ladders and publishes alerts.
type Predictor struct {
	publisher domain.Publisher
	topic     string
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Predictor publishing to topic. An empty topic means the alert
// channel is not configured.
func New(pub domain.Publisher, topic string, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Predictor {
	p := &Predictor{
		publisher: pub,
		topic:     topic,
		clock:     clockwork.NewRealClock(),
		logger:    logger,
		metrics:   metrics,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AlertResponse is returned when at least one tier fired.
type AlertResponse struct {
	AlertsGenerated bool              `json:"alerts_generated"`
	RiskLevel       domain.RiskLevel  `json:"risk_level"`
	Alerts          []string          `json:"alerts"`
	MessageID       string            `json:"message_id,omitempty"`
	SensorData      json.RawMessage   `json:"sensor_data"`
	Timestamp       string            `json:"timestamp"`
}

// NormalResponse is returned when no tier fired.
type NormalResponse struct {
	AlertsGenerated bool              `json:"alerts_generated"`
	RiskLevel       domain.RiskLevel  `json:"risk_level"`
	Message         string            `json:"message"`
	SensorData      json.RawMessage   `json:"sensor_data"`
	Timestamp       string            `json:"timestamp"`
}

// Invoke decodes a JSON reading set and handles it.
func (p *Predictor) Invoke(ctx context.Context, payload []byte) invocation.Result {
	res := p.handlePayload(ctx, payload)
	if res.Status == invocation.StatusFailed {
		p.logger.Error("error in predictor", "error", res.Err)
	}
	return res
}

// HandleRaw handles a reading set consumed from the predictor topic. Failures
// are reported to the caller, which logs the skipped message.
func (p *Predictor) HandleRaw(ctx context.Context, raw domain.RawEvent) invocation.Result {
	return p.handlePayload(ctx, raw.Value)
}

func (p *Predictor) handlePayload(ctx context.Context, payload []byte) invocation.Result {
	rs, err := domain.ParseReadingSet(payload)
	if err != nil {
		p.metrics.InvocationErrors.WithLabelValues(component).Inc()
		return invocation.Failed(err)
	}
	return p.handle(ctx, rs, rawSensors(payload))
}

// rawSensors returns the "sensors" object exactly as it arrived, or {} when
// the payload has none.
func rawSensors(payload []byte) json.RawMessage {
	var env struct {
		Sensors json.RawMessage `json:"sensors"`
	}
	if err := json.Unmarshal(payload, &env); err != nil || len(env.Sensors) == 0 {
		return json.RawMessage(`{}`)
	}
	return env.Sensors
}

// Handle classifies one reading set. Publish failures are logged and do not
// change the result.
func (p *Predictor) Handle(ctx context.Context, rs domain.ReadingSet) invocation.Result {
	sensors, err := json.Marshal(rs.Sensors)
	if err != nil {
		p.metrics.InvocationErrors.WithLabelValues(component).Inc()
		p.logger.Error("error in predictor", "error", err)
		return invocation.Failed(err)
	}
	res := p.handle(ctx, rs, sensors)
	if res.Status == invocation.StatusFailed {
		p.logger.Error("error in predictor", "error", res.Err)
	}
	return res
}

func (p *Predictor) handle(ctx context.Context, rs domain.ReadingSet, sensors json.RawMessage) invocation.Result {
	p.logger.Info("received sensor data", "data", rs)

	timestamp := rs.Timestamp
	if timestamp == "" {
		timestamp = domain.FormatTimestamp(p.clock.Now())
	}

	a := domain.Classify(rs)
	p.metrics.ReadingsClassified.WithLabelValues(a.Level.String()).Inc()

	if !a.AlertsGenerated() {
		p.logger.Info("all sensors within normal range")
		return invocation.OK(NormalResponse{
			AlertsGenerated: false,
			RiskLevel:       domain.RiskLow,
			Message:         "All systems normal",
			SensorData:      sensors,
			Timestamp:       timestamp,
		})
	}

	for _, t := range a.Triggers {
		p.metrics.AlertsRaised.WithLabelValues(string(t.Category), t.Level.String()).Inc()
	}

	resp := AlertResponse{
		AlertsGenerated: true,
		RiskLevel:       a.Level,
		Alerts:          a.Alerts(),
		SensorData:      sensors,
		Timestamp:       timestamp,
	}

	if p.topic == "" {
		p.logger.Warn("alert topic not configured, skipping notification", "risk_level", a.Level)
		return invocation.NotConfigured(resp, invocation.ErrChannelNotConfigured)
	}

	n, err := domain.AlertNotification(rs, a, timestamp)
	if err != nil {
		p.metrics.InvocationErrors.WithLabelValues(component).Inc()
		return invocation.Failed(err)
	}

	id, err := p.publisher.Publish(ctx, p.topic, n)
	if err != nil {
		p.metrics.PublishErrors.WithLabelValues(component).Inc()
		p.logger.Error("error sending alert", "topic", p.topic, "error", err)
		return invocation.OK(resp)
	}

	p.metrics.NotificationsPublished.WithLabelValues(component).Inc()
	p.logger.Info("alert sent", "message_id", id, "risk_level", a.Level, "alerts", len(a.Triggers))
	resp.MessageID = id
	return invocation.OK(resp)
}
