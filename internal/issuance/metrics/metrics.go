// Package metrics provides observability for the issuance controller.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the issuance controller.
type Metrics struct {
	// Claim attempts by outcome
	Claims *prometheus.CounterVec

	// End-to-end claim latency (verify + mint + events)
	ClaimLatency prometheus.Histogram

	// Configuration set attempts by field and outcome
	ConfigSets *prometheus.CounterVec
}

// New creates a new Metrics instance with all issuance metrics registered.
func New() *Metrics {
	return &Metrics{
		Claims: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "proofgate_issuance_claims_total",
			Help: "Total claim attempts by outcome",
		}, []string{"outcome"}), // outcome: "ok", "verification_failed", "already_issued", "unauthorized", "not_configured", "error"

		ClaimLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "proofgate_issuance_claim_duration_seconds",
			Help:    "Duration of full claim processing including verification and mint",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		ConfigSets: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "proofgate_issuance_config_sets_total",
			Help: "Total one-time configuration attempts by field and outcome",
		}, []string{"field", "outcome"}), // outcome: "ok", "already_set", "unauthorized", "invalid_address", "error"
	}
}

// IncClaim records a claim outcome.
func (m *Metrics) IncClaim(outcome string) {
	if m != nil {
		m.Claims.WithLabelValues(outcome).Inc()
	}
}

// ObserveClaimLatency records the duration of a claim.
func (m *Metrics) ObserveClaimLatency(d time.Duration) {
	if m != nil {
		m.ClaimLatency.Observe(d.Seconds())
	}
}

// IncConfigSet records a configuration attempt outcome.
func (m *Metrics) IncConfigSet(field, outcome string) {
	if m != nil {
		m.ConfigSets.WithLabelValues(field, outcome).Inc()
	}
}
