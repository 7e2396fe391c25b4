// Package metrics exposes Prometheus collectors for a tracked stream.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Error kinds used as the "kind" label of semdrift_update_errors_total.
const (
	KindEmpty     = "empty_embedding"
	KindDimension = "dimension_mismatch"
)

// Metrics bundles the collectors updated by the tracker. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Updates     prometheus.Counter
	Drifts      prometheus.Counter
	Errors      *prometheus.CounterVec
	DriftScore  prometheus.Histogram
	HealthScore prometheus.Gauge
	Dimension   prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Updates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "semdrift_updates_total",
			Help: "Successful engine updates",
		}),
		Drifts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "semdrift_drift_detected_total",
			Help: "Updates that flagged drift",
		}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "semdrift_update_errors_total",
			Help: "Rejected updates by error kind",
		}, []string{"kind"}),
		DriftScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "semdrift_drift_score",
			Help:    "Drift score (1 - cosine similarity) of non-baseline updates",
			Buckets: prometheus.LinearBuckets(0, 0.25, 9),
		}),
		HealthScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "semdrift_health_score",
			Help: "Health score reported by the most recent snapshot",
		}),
		Dimension: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "semdrift_embedding_dimension",
			Help: "Established embedding dimension, 0 before the first update",
		}),
	}
	reg.MustRegister(m.Updates, m.Drifts, m.Errors, m.DriftScore, m.HealthScore, m.Dimension)
	return m
}

// ObserveUpdate records a successful update.
func (m *Metrics) ObserveUpdate(baseline, detected bool, score float32, dimension int) {
	if m == nil {
		return
	}
	m.Updates.Inc()
	m.Dimension.Set(float64(dimension))
	if baseline {
		return
	}
	m.DriftScore.Observe(float64(score))
	if detected {
		m.Drifts.Inc()
	}
}

// ObserveError records a rejected update.
func (m *Metrics) ObserveError(kind string) {
	if m == nil {
		return
	}
	m.Errors.WithLabelValues(kind).Inc()
}

// ObserveSnapshot records the health score of a snapshot.
func (m *Metrics) ObserveSnapshot(health float32) {
	if m == nil {
		return
	}
	m.HealthScore.Set(float64(health))
}
