package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// generator, predictor, and alert sender.
type Metrics struct {
	// Generator metrics.
	ReadingsGenerated prometheus.Counter
	DispatchErrors    prometheus.Counter

	// Predictor metrics.
	ReadingsClassified *prometheus.CounterVec // labels: risk_level
	AlertsRaised       *prometheus.CounterVec // labels: category, risk_level

	// Channel metrics.
	NotificationsPublished *prometheus.CounterVec // labels: component
	PublishErrors          *prometheus.CounterVec // labels: component
	NotificationsReceived  prometheus.Counter

	// Invocation outcomes.
	InvocationErrors *prometheus.CounterVec // labels: component

	// Subscriber pipeline metrics.
	MessagesConsumed        prometheus.Counter
	PipelineRunning         prometheus.Gauge
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ReadingsGenerated,
		m.DispatchErrors,
		m.ReadingsClassified,
		m.AlertsRaised,
		m.NotificationsPublished,
		m.PublishErrors,
		m.NotificationsReceived,
		m.InvocationErrors,
		m.MessagesConsumed,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReadingsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dews",
			Name:      "readings_generated_total",
			Help:      "Total synthetic reading sets generated.",
		}),
		DispatchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dews",
			Name:      "dispatch_errors_total",
			Help:      "Reading sets that could not be dispatched to the predictor.",
		}),
		ReadingsClassified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dews",
			Name:      "readings_classified_total",
			Help:      "Reading sets classified, by overall risk level.",
		}, []string{"risk_level"}),
		AlertsRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dews",
			Name:      "alerts_raised_total",
			Help:      "Fired tiers by category and tier level.",
		}, []string{"category", "risk_level"}),
		NotificationsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dews",
			Name:      "notifications_published_total",
			Help:      "Notifications published to the alert channel.",
		}, []string{"component"}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dews",
			Name:      "publish_errors_total",
			Help:      "Failed notification publishes.",
		}, []string{"component"}),
		NotificationsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dews",
			Name:      "notifications_received_total",
			Help:      "Channel-delivered notification records processed by the sender.",
		}),
		InvocationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dews",
			Name:      "invocation_errors_total",
			Help:      "Invocations that ended in a processing error.",
		}, []string{"component"}),
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dews",
			Name:      "messages_consumed_total",
			Help:      "Total messages read from subscribed topics.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dews",
			Name:      "pipeline_running",
			Help:      "1 when the subscriber pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dews",
			Name:      "batch_size",
			Help:      "Number of messages per batch fetched from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dews",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of handling one fetched batch.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
	}
}
