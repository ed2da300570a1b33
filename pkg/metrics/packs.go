package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PackMetrics records pricing and submission activity for the pack builder.
type PackMetrics struct {
	pricingDuration *prometheus.HistogramVec
	mutations       *prometheus.CounterVec
	submissions     *prometheus.CounterVec
}

// NewPackMetrics registers the pack metrics on the provided registerer.
func NewPackMetrics(reg prometheus.Registerer) *PackMetrics {
	if reg == nil {
		return &PackMetrics{}
	}
	pricingDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pack_pricing_duration_seconds",
		Help:    "Duration of pricing recomputations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pack_mutations_total",
		Help: "Selection mutations applied, by operation and outcome.",
	}, []string{"operation", "outcome"})
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pack_submissions_total",
		Help: "Cart submissions attempted, by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(pricingDuration, mutations, submissions)
	return &PackMetrics{
		pricingDuration: pricingDuration,
		mutations:       mutations,
		submissions:     submissions,
	}
}

// ObservePricing records the duration of one pricing recomputation.
func (p *PackMetrics) ObservePricing(operation string, duration time.Duration) {
	if p == nil || p.pricingDuration == nil {
		return
	}
	p.pricingDuration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncMutation increments the mutation counter for the operation/outcome pair.
func (p *PackMetrics) IncMutation(operation, outcome string) {
	if p == nil || p.mutations == nil {
		return
	}
	p.mutations.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// IncSubmission increments the submission counter for the outcome.
func (p *PackMetrics) IncSubmission(outcome string) {
	if p == nil || p.submissions == nil {
		return
	}
	p.submissions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
