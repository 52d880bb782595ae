package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/couchcryptid/disaster-early-warning/internal/domain"
	"github.com/couchcryptid/disaster-early-warning/internal/invocation"
	"github.com/couchcryptid/disaster-early-warning/internal/observability"
	"github.com/couchcryptid/disaster-early-warning/internal/pipeline"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// --- mocks ---

type mockExtractor struct {
	events []domain.RawEvent
	errs   []error
	calls  atomic.Int64
	index  atomic.Int64
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error) {
	call := int(m.calls.Add(1) - 1)
	if call < len(m.errs) {
		return nil, m.errs[call]
	}

	start := int(m.index.Load())
	if start >= len(m.events) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	end := min(start+batchSize, len(m.events))
	m.index.Store(int64(end))
	return m.events[start:end], nil
}

type mockHandler struct {
	mu      sync.Mutex
	fail    map[string]bool
	handled []string
}

func (m *mockHandler) HandleRaw(_ context.Context, raw domain.RawEvent) invocation.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handled = append(m.handled, string(raw.Key))
	if m.fail[string(raw.Key)] {
		return invocation.Failed(errors.New("bad payload"))
	}
	return invocation.OK(nil)
}

func (m *mockHandler) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.handled...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rawEvent(key string, commits *atomic.Int64) domain.RawEvent {
	raw := domain.RawEvent{Key: []byte(key), Value: []byte(`{}`), Topic: "DisasterPredictor"}
	if commits != nil {
		raw.Commit = func(_ context.Context) error {
			commits.Add(1)
			return nil
		}
	}
	return raw
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	ext := &mockExtractor{events: []domain.RawEvent{rawEvent("a", nil), rawEvent("b", nil), rawEvent("c", nil)}}
	h := &mockHandler{}

	p := pipeline.New(ext, h, discardLogger(), observability.NewMetricsForTesting(), 2)
	require.Error(t, p.CheckReadiness(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Equal(t, []string{"a", "b", "c"}, h.keys())
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{}
	h := &mockHandler{}

	p := pipeline.New(ext, h, discardLogger(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, h.keys())
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_HandlerFailureIsCommittedAndSkipped(t *testing.T) {
	var commits atomic.Int64
	ext := &mockExtractor{events: []domain.RawEvent{rawEvent("bad", &commits), rawEvent("good", &commits)}}
	h := &mockHandler{fail: map[string]bool{"bad": true}}

	p := pipeline.New(ext, h, discardLogger(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Equal(t, []string{"bad", "good"}, h.keys())
	assert.Equal(t, int64(2), commits.Load())
}

func TestPipeline_Run_CommitErrorDoesNotStop(t *testing.T) {
	raw := rawEvent("a", nil)
	raw.Commit = func(_ context.Context) error { return errors.New("rebalance in progress") }
	ext := &mockExtractor{events: []domain.RawEvent{raw, rawEvent("b", nil)}}
	h := &mockHandler{}

	p := pipeline.New(ext, h, discardLogger(), observability.NewMetricsForTesting(), 1)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Equal(t, []string{"a", "b"}, h.keys())
}

func TestPipeline_Run_BacksOffOnExtractError(t *testing.T) {
	ext := &mockExtractor{
		errs:   []error{errors.New("broker unavailable")},
		events: []domain.RawEvent{rawEvent("a", nil)},
	}
	h := &mockHandler{}

	p := pipeline.New(ext, h, discardLogger(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return len(h.keys()) == 1 }, time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

// failingAfterFetchExtractor returns a partial batch together with a fetch
// error, then waits for cancellation.
type failingAfterFetchExtractor struct {
	batch []domain.RawEvent
	err   error
	calls atomic.Int64
}

func (f *failingAfterFetchExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	if f.calls.Add(1) == 1 {
		return f.batch, f.err
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestPipeline_Run_PartialBatchHandledOnExtractError(t *testing.T) {
	var commits atomic.Int64
	ext := &failingAfterFetchExtractor{
		batch: []domain.RawEvent{rawEvent("a", &commits), rawEvent("b", &commits)},
		err:   errors.New("fetch message: broker gone"),
	}
	h := &mockHandler{}

	p := pipeline.New(ext, h, discardLogger(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return commits.Load() == 2 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, h.keys())
	assert.NoError(t, p.CheckReadiness(context.Background()))

	cancel()
	require.NoError(t, <-done)
}
