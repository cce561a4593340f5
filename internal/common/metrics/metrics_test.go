package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveAssembly(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveAssembly(OutcomeSuccess, 2, 3*time.Millisecond)
	m.ObserveAssembly(OutcomeSuccess, 4, time.Millisecond)
	m.ObserveAssembly(OutcomeRejected, 0, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.assemblies.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.assemblies.WithLabelValues(OutcomeRejected)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.assemblies.WithLabelValues(OutcomeDefect)))
}

func TestIncrementStored(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.IncrementStored()
	m.IncrementStored()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.storedModels))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAssembly(OutcomeSuccess, 1, time.Millisecond)
		m.IncrementStored()
	})
}
