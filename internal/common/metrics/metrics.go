package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeDefect   = "defect"
)

// Metrics holds the Prometheus collectors of the assembler service.
type Metrics struct {
	assemblies       *prometheus.CounterVec
	elements         prometheus.Histogram
	assemblyDuration prometheus.Histogram
	storedModels     prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		assemblies: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bim_assemblies_total",
				Help: "Total number of model assemblies by outcome",
			},
			[]string{"outcome"},
		),
		elements: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bim_assembly_elements",
				Help:    "Number of physical elements per assembled model",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 1000},
			},
		),
		assemblyDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bim_assembly_duration_ms",
				Help:    "Duration of model assembly in milliseconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250},
			},
		),
		storedModels: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bim_models_stored_total",
				Help: "Total number of assembled models persisted",
			},
		),
	}
}

// ObserveAssembly records one assembly attempt.
func (m *Metrics) ObserveAssembly(outcome string, elements int, d time.Duration) {
	if m == nil {
		return
	}
	m.assemblies.WithLabelValues(outcome).Inc()
	m.assemblyDuration.Observe(float64(d.Microseconds()) / 1000)
	if outcome == OutcomeSuccess {
		m.elements.Observe(float64(elements))
	}
}

// IncrementStored counts a persisted model.
func (m *Metrics) IncrementStored() {
	if m == nil {
		return
	}
	m.storedModels.Inc()
}
