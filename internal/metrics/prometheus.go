package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics implements the Metrics interface using Prometheus.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	invocations        *prometheus.CounterVec
	invocationDuration *prometheus.HistogramVec
	stateOps           prometheus.Counter
	sequence           prometheus.Gauge
	queries            *prometheus.CounterVec
	queueDepth         prometheus.Gauge
}

// NewPrometheusMetrics creates metrics on a private registry.
func NewPrometheusMetrics(namespace string) *PrometheusMetrics {
	m := &PrometheusMetrics{
		registry: prometheus.NewRegistry(),

		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invocations_total",
				Help:      "Journaled invocations by kind, action and output case",
			},
			[]string{"kind", "action", "outcome"},
		),
		invocationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "invocation_duration_seconds",
				Help:      "Time to execute and commit one invocation",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"kind"},
		),
		stateOps: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "state_ops_committed_total",
				Help:      "State writes and deletes committed",
			},
		),
		sequence: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "journal_sequence",
				Help:      "Seq of the most recently journaled invocation",
			},
		),
		queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Queries by name and outcome",
			},
			[]string{"query", "outcome"},
		),
		queueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "queue_depth",
				Help:      "Submitted transactions waiting for the run loop",
			},
		),
	}

	m.registry.MustRegister(
		m.invocations,
		m.invocationDuration,
		m.stateOps,
		m.sequence,
		m.queries,
		m.queueDepth,
	)
	return m
}

func (m *PrometheusMetrics) IncInvocations(kind, action, outcome string) {
	m.invocations.WithLabelValues(kind, action, outcome).Inc()
}

func (m *PrometheusMetrics) ObserveInvocationDuration(kind string, d time.Duration) {
	m.invocationDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *PrometheusMetrics) AddStateOps(n int) {
	m.stateOps.Add(float64(n))
}

func (m *PrometheusMetrics) SetSequence(seq int64) {
	m.sequence.Set(float64(seq))
}

func (m *PrometheusMetrics) IncQueries(name, outcome string) {
	m.queries.WithLabelValues(name, outcome).Inc()
}

func (m *PrometheusMetrics) SetQueueDepth(n int) {
	m.queueDepth.Set(float64(n))
}

// Registry returns the underlying registry.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		Registry: m.registry,
	})
}
