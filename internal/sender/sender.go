// Package sender handles alert channel deliveries and direct custom alerts.
package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/disaster-early-warning/internal/domain"
	"github.com/couchcryptid/disaster-early-warning/internal/invocation"
	"github.com/couchcryptid/disaster-early-warning/internal/observability"
)

const component = "alertsender"

// Option configures a Sender.
type Option func(*Sender)

// WithClock overrides the clock used for response and alert timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(s *Sender) { s.clock = c }
}

// Sender processes delivered notification records and publishes custom
// alerts.
type Sender struct {
	publisher domain.Publisher
	topic     string
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Sender publishing custom alerts to topic. An empty topic means
// the alert channel is not configured.
func New(pub domain.Publisher, topic string, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Sender {
	s := &Sender{
		publisher: pub,
		topic:     topic,
		clock:     clockwork.NewRealClock(),
		logger:    logger,
		metrics:   metrics,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Response is the body of a successful sender invocation.
type Response struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Invoke accepts either a channel envelope ({"Records": [...]}) or a flat
// custom alert object.
func (s *Sender) Invoke(ctx context.Context, payload []byte) invocation.Result {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return s.fail(fmt.Errorf("decode alert payload: %w", err))
	}

	if _, ok := fields["Records"]; ok {
		var env domain.ChannelEnvelope
		if err := json.Unmarshal(payload, &env); err != nil {
			return s.fail(fmt.Errorf("decode channel records: %w", err))
		}
		for _, rec := range env.Records {
			s.processRecord(rec)
		}
		return s.ok()
	}

	var c domain.CustomAlert
	if err := json.Unmarshal(payload, &c); err != nil {
		return s.fail(fmt.Errorf("decode custom alert: %w", err))
	}
	return s.SendCustom(ctx, c)
}

// HandleRaw processes a notification consumed from the alert topic. Failures
// are reported to the caller, which logs the skipped message.
func (s *Sender) HandleRaw(_ context.Context, raw domain.RawEvent) invocation.Result {
	rec, err := domain.ParseNotificationRecord(raw)
	if err != nil {
		s.metrics.InvocationErrors.WithLabelValues(component).Inc()
		return invocation.Failed(err)
	}
	s.processRecord(rec)
	return s.ok()
}

// SendCustom formats and publishes a custom alert as given. Decoding a
// CustomAlert from JSON fills absent fields with their defaults.
func (s *Sender) SendCustom(ctx context.Context, c domain.CustomAlert) invocation.Result {
	n, err := domain.CustomAlertNotification(c, s.clock.Now())
	if err != nil {
		return s.fail(err)
	}

	if s.topic == "" {
		s.logger.Warn("alert topic not configured, skipping custom alert", "subject", n.Subject)
		return invocation.NotConfigured(s.response(), invocation.ErrChannelNotConfigured)
	}

	id, err := s.publisher.Publish(ctx, s.topic, n)
	if err != nil {
		s.metrics.PublishErrors.WithLabelValues(component).Inc()
		s.logger.Error("error publishing custom alert", "topic", s.topic, "error", err)
		return s.ok()
	}

	s.metrics.NotificationsPublished.WithLabelValues(component).Inc()
	s.logger.Info("custom alert sent", "message_id", id, "subject", n.Subject)
	return s.ok()
}

// processRecord is where downstream delivery (email, SMS, webhooks) would
// hook in. Records from other sources are ignored.
func (s *Sender) processRecord(rec domain.ChannelRecord) {
	if rec.EventSource != domain.EventSourceNotification {
		s.logger.Debug("ignoring record", "event_source", rec.EventSource)
		return
	}
	s.metrics.NotificationsReceived.Inc()
	s.logger.Info("processing alert",
		"message_id", rec.Sns.MessageID,
		"subject", rec.Sns.Subject,
		"message", rec.Sns.Message,
	)
}

func (s *Sender) ok() invocation.Result {
	return invocation.OK(s.response())
}

func (s *Sender) response() Response {
	return Response{
		Message:   "Alert processed successfully",
		Timestamp: domain.FormatTimestamp(s.clock.Now()),
	}
}

func (s *Sender) fail(err error) invocation.Result {
	s.metrics.InvocationErrors.WithLabelValues(component).Inc()
	s.logger.Error("error in alert sender", "error", err)
	return invocation.Failed(err)
}
