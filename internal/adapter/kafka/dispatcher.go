package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/disaster-early-warning/internal/config"
	"github.com/couchcryptid/disaster-early-warning/internal/domain"
	"github.com/couchcryptid/disaster-early-warning/internal/observability"
)

const sourceGenerator = "generator"

// Dispatcher hands reading sets to the predictor topic without waiting for
// delivery. It implements generator.Dispatcher.
type Dispatcher struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewDispatcher creates an asynchronous producer. Delivery failures surface
// only through logs and the dispatch error counter.
func NewDispatcher(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Dispatcher {
	d := &Dispatcher{logger: logger, metrics: metrics}
	d.writer = &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
		Async:        true,
		Completion:   d.complete,
	}
	return d
}

// Dispatch enqueues rs for the target topic. It returns only local errors
// (serialization, closed writer).
func (d *Dispatcher) Dispatch(ctx context.Context, target string, rs domain.ReadingSet) error {
	msg, err := serializeReadingSet(target, rs)
	if err != nil {
		return err
	}
	if err := d.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("dispatch reading set: %w", err)
	}
	return nil
}

// Close flushes pending messages.
func (d *Dispatcher) Close() error {
	return d.writer.Close()
}

func (d *Dispatcher) complete(msgs []kafkago.Message, err error) {
	if err == nil {
		return
	}
	d.metrics.DispatchErrors.Add(float64(len(msgs)))
	for _, m := range msgs {
		d.logger.Error("async dispatch failed", "topic", m.Topic, "key", string(m.Key), "error", err)
	}
}

func serializeReadingSet(topic string, rs domain.ReadingSet) (kafkago.Message, error) {
	data, err := json.Marshal(rs)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize reading set: %w", err)
	}
	return kafkago.Message{
		Topic: topic,
		Key:   []byte(rs.Timestamp),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte(sourceGenerator)},
		},
	}, nil
}
