// Package generator produces synthetic sensor reading sets and dispatches
// them to the predictor without waiting for the outcome.
package generator

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/disaster-early-warning/internal/domain"
	"github.com/couchcryptid/disaster-early-warning/internal/invocation"
	"github.com/couchcryptid/disaster-early-warning/internal/observability"
)

// Dispatcher hands a reading set to the predictor's invocation target.
// Implementations must not block on the predictor's result.
type Dispatcher interface {
	Dispatch(ctx context.Context, target string, rs domain.ReadingSet) error
}

// Source yields uniformly distributed values in [0, 1).
type Source interface {
	Float64() float64
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// Option configures a Generator.
type Option func(*Generator)

// WithClock overrides the time source used for reading timestamps and the
// schedule.
func WithClock(c clockwork.Clock) Option {
	return func(g *Generator) { g.clock = c }
}

// WithSource overrides the random source. A *rand.Rand is not safe for
// concurrent use, so only pass one when invocations are serialized.
func WithSource(s Source) Option {
	return func(g *Generator) { g.source = s }
}

// Generator builds and dispatches one reading set per invocation.
type Generator struct {
	dispatcher Dispatcher
	target     string
	clock      clockwork.Clock
	source     Source
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// New creates a Generator dispatching to target.
func New(d Dispatcher, target string, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Generator {
	g := &Generator{
		dispatcher: d,
		target:     target,
		clock:      clockwork.NewRealClock(),
		source:     globalSource{},
		logger:     logger,
		metrics:    metrics,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Response is the body of a successful generator invocation.
type Response struct {
	Message string            `json:"message"`
	Data    domain.ReadingSet `json:"data"`
}

// Generate produces one reading set and dispatches it. Dispatch failures are
// logged and swallowed; the result is always a success.
func (g *Generator) Generate(ctx context.Context) invocation.Result {
	rs := NewReadingSet(g.source, g.clock.Now())
	g.metrics.ReadingsGenerated.Inc()
	g.logger.Info("generated sensor data", "data", rs)

	if err := g.dispatcher.Dispatch(ctx, g.target, rs); err != nil {
		g.metrics.DispatchErrors.Inc()
		g.logger.Error("error invoking predictor", "target", g.target, "error", err)
	} else {
		g.logger.Info("data sent to predictor", "target", g.target)
	}

	return invocation.OK(Response{
		Message: "Mock sensor data generated and sent to predictor",
		Data:    rs,
	})
}

// CheckReadiness always succeeds: the generator has no upstream to wait for.
func (g *Generator) CheckReadiness(_ context.Context) error {
	return nil
}

// Invoke is the direct-invocation entry point. The payload is ignored.
func (g *Generator) Invoke(ctx context.Context, _ []byte) invocation.Result {
	return g.Generate(ctx)
}

// Run generates once immediately and then on every interval tick until the
// context is cancelled.
func (g *Generator) Run(ctx context.Context, interval time.Duration) error {
	g.logger.Info("generator schedule started", "interval", interval, "target", g.target)

	ticker := g.clock.NewTicker(interval)
	defer ticker.Stop()

	g.Generate(ctx)

	for {
		select {
		case <-ctx.Done():
			g.logger.Info("generator schedule stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			g.Generate(ctx)
		}
	}
}

// NewReadingSet draws one reading set. Each value is independent and uniform
// within its sensor's range.
func NewReadingSet(src Source, now time.Time) domain.ReadingSet {
	return domain.ReadingSet{
		Timestamp: domain.FormatTimestamp(now),
		Sensors: domain.Sensors{
			WaterLevel: &domain.LevelReading{
				SensorID: "WL001",
				Value:    round(uniform(src, 0, 15), 2),
				Unit:     "meters",
				Location: "River Basin A",
			},
			Vibration: &domain.LevelReading{
				SensorID: "VB001",
				Value:    round(uniform(src, 0, 10), 2),
				Unit:     "magnitude",
				Location: "Seismic Station 1",
			},
			Weather: &domain.WeatherReading{
				SensorID:    "WS001",
				Rainfall:    round(uniform(src, 0, 100), 2),
				WindSpeed:   round(uniform(src, 0, 80), 2),
				Temperature: round(uniform(src, 15, 35), 1),
				Location:    "Weather Station A",
			},
		},
	}
}

func uniform(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
