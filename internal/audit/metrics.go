package audit

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains audit pipeline metrics.
type Metrics struct {
	entriesTotal    *prometheus.CounterVec
	persistDuration prometheus.Histogram
}

// Persist outcome label values.
const (
	outcomePrimary  = "primary"
	outcomeFallback = "fallback"
	outcomeDropped  = "dropped"
)

// NewMetrics creates audit metrics registered with the default registerer.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWithRegisterer(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWithRegisterer creates audit metrics registered with the provided
// registerer so they appear on a custom /metrics endpoint.
func NewMetricsWithRegisterer(namespace string, registerer prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "gatekit"
	}
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		entriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "audit",
				Name:      "entries_total",
				Help:      "Total number of audit entries by persist outcome",
			},
			[]string{"outcome"},
		),
		persistDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "audit",
				Name:      "persist_duration_seconds",
				Help:      "Duration of audit persist operations in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
		),
	}

	// Ignore duplicate registration errors; descriptors are identical.
	_ = registerer.Register(m.entriesTotal)
	_ = registerer.Register(m.persistDuration)

	m.Init()

	return m
}

// Init pre-populates outcome labels with zero values so the Vec metrics
// appear in /metrics output immediately after startup. Idempotent.
func (m *Metrics) Init() {
	if m.entriesTotal == nil {
		return
	}
	for _, outcome := range []string{outcomePrimary, outcomeFallback, outcomeDropped} {
		m.entriesTotal.WithLabelValues(outcome)
	}
}

// RecordPersist records a persist outcome.
func (m *Metrics) RecordPersist(outcome string, seconds float64) {
	if m == nil || m.entriesTotal == nil {
		return
	}
	m.entriesTotal.WithLabelValues(outcome).Inc()
	m.persistDuration.Observe(seconds)
}
