package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveUpdate(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveUpdate(true, false, 0, 4)
	m.ObserveUpdate(false, true, 1.0, 4)
	m.ObserveUpdate(false, false, 0.1, 4)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Updates))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Drifts))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.Dimension))
	// Baseline updates are not scored.
	assert.Equal(t, 1, testutil.CollectAndCount(m.DriftScore))
}

func TestObserveErrorAndSnapshot(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveError(KindEmpty)
	m.ObserveError(KindDimension)
	m.ObserveError(KindDimension)
	m.ObserveSnapshot(0.75)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Errors.WithLabelValues(KindEmpty)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Errors.WithLabelValues(KindDimension)))
	assert.Equal(t, 0.75, testutil.ToFloat64(m.HealthScore))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveUpdate(false, true, 1, 2)
		m.ObserveError(KindEmpty)
		m.ObserveSnapshot(1)
	})
}

func TestDoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
