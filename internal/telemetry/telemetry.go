// Package telemetry exposes live run counters to Prometheus.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/torosent/wordstress/internal/metrics"
)

// DefaultBuckets are response time buckets in milliseconds.
var DefaultBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000}

// Manager owns the run's Prometheus metrics. It observes outcomes from the
// aggregator and client lifecycle events from the scheduler.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	requests      *prometheus.CounterVec
	responseTime  prometheus.Histogram
	bytes         prometheus.Counter
	activeClients prometheus.Gauge
}

// NewManager creates a Manager on a private registry unless one is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "wordstress",
		histogramBuckets: DefaultBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.requests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "requests_total",
		Help:      "Completed requests by status bucket or error kind",
	}, []string{"outcome"})

	m.responseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "response_time_milliseconds",
		Help:      "Response time of successful requests in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.bytes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "bytes_transferred_total",
		Help:      "Response bytes received",
	})

	m.activeClients = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "active_clients",
		Help:      "Client goroutines currently sending requests",
	})
}

// Registry returns the registry the metrics live on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveOutcome implements metrics.Observer.
func (m *Manager) ObserveOutcome(o metrics.Outcome) {
	if o.Failed() {
		m.requests.WithLabelValues(o.ErrorKind.String()).Inc()
	} else {
		m.requests.WithLabelValues(metrics.StatusBucket(o.StatusCode)).Inc()
		m.responseTime.Observe(float64(o.ResponseTime) / 1e6)
	}
	if o.SizeBytes > 0 {
		m.bytes.Add(float64(o.SizeBytes))
	}
}

// ClientStarted implements runner.ClientTracker.
func (m *Manager) ClientStarted() { m.activeClients.Inc() }

// ClientStopped implements runner.ClientTracker.
func (m *Manager) ClientStopped() { m.activeClients.Dec() }
