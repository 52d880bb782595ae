package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/disaster-early-warning/internal/config"
	"github.com/couchcryptid/disaster-early-warning/internal/domain"
)

// Publisher writes notifications to the alert channel topic and waits for
// acknowledgement. It implements domain.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a synchronous producer. The topic is chosen per
// message.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish assigns a message ID to n and writes it to topic. The returned ID is
// the delivery confirmation.
func (p *Publisher) Publish(ctx context.Context, topic string, n domain.Notification) (string, error) {
	n.MessageID = uuid.NewString()
	msg, err := serializeNotification(topic, n)
	if err != nil {
		return "", err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return "", fmt.Errorf("publish notification: %w", err)
	}
	p.logger.Debug("notification published", "topic", topic, "message_id", n.MessageID)
	return n.MessageID, nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func serializeNotification(topic string, n domain.Notification) (kafkago.Message, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize notification: %w", err)
	}
	return kafkago.Message{
		Topic: topic,
		Key:   []byte(n.MessageID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "message_id", Value: []byte(n.MessageID)},
			{Key: "subject", Value: []byte(n.Subject)},
		},
	}, nil
}
