package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MutationMetrics records optimistic cart mutations by operation and outcome.
type MutationMetrics struct {
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
}

// NewMutationMetrics registers the mutation metrics on the provided registerer.
func NewMutationMetrics(reg prometheus.Registerer) *MutationMetrics {
	if reg == nil {
		return &MutationMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_mutation_duration_seconds",
		Help:    "Duration of cart mutations including the remote call.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by operation and outcome.",
	}, []string{"op", "outcome"})
	reg.MustRegister(duration, outcomes)
	return &MutationMetrics{
		duration: duration,
		outcomes: outcomes,
	}
}

// ObserveMutation records one settled mutation.
func (m *MutationMetrics) ObserveMutation(op, outcome string, duration time.Duration) {
	if m == nil || m.duration == nil || m.outcomes == nil {
		return
	}
	op = normalizeLabel(op)
	m.duration.WithLabelValues(op).Observe(duration.Seconds())
	m.outcomes.WithLabelValues(op, normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
