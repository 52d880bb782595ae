package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/disaster-early-warning/internal/domain"
	"github.com/couchcryptid/disaster-early-warning/internal/invocation"
	"github.com/couchcryptid/disaster-early-warning/internal/observability"
)

// BatchExtractor reads up to batchSize raw events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Handler processes one consumed message. The predictor and the alert sender
// both implement it.
type Handler interface {
	HandleRaw(ctx context.Context, raw domain.RawEvent) invocation.Result
}

// Pipeline feeds consumed messages to a component handler.
type Pipeline struct {
	extractor BatchExtractor
	handler   Handler
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	batchSize int
}

// New creates a Pipeline for one subscribed component.
func New(e BatchExtractor, h Handler, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor: e,
		handler:   h,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
	}
}

// CheckReadiness returns nil if the pipeline has handled at least one message,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any messages yet")
	}
	return nil
}

// Run executes the consume loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff on fetch errors: start at 200ms, double, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one fetch-handle-commit cycle. Messages fetched before an
// extract error are still handled and committed before backing off. Returns
// false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil && ctx.Err() != nil {
		return false
	}

	if len(rawBatch) > 0 {
		p.handleBatch(ctx, rawBatch)
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	}

	if err != nil {
		p.logger.Error("extract batch failed", "error", err, "handled", len(rawBatch))
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(rawBatch) > 0 {
		*backoff = 200 * time.Millisecond
	}
	return ctx.Err() == nil
}

func (p *Pipeline) handleBatch(ctx context.Context, rawBatch []domain.RawEvent) {
	p.metrics.MessagesConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))

	for _, raw := range rawBatch {
		res := p.handler.HandleRaw(ctx, raw)
		if !res.Succeeded() {
			p.logger.Warn("handler failed, skipping message",
				"error", res.Err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
		}
		// Handler work is never retried, so every message is committed.
		p.commitOffset(ctx, raw)
	}

	p.ready.Store(true)
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
