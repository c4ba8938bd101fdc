// Package metrics provides observability for the verification gateway.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification gateway.
type Metrics struct {
	// Verification outcomes by result
	Verifications *prometheus.CounterVec

	// End-to-end verify latency including the engine round trip
	VerifyLatency prometheus.Histogram
}

// New creates a new Metrics instance with all gateway metrics registered.
func New() *Metrics {
	return &Metrics{
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "proofgate_gateway_verifications_total",
			Help: "Total proof verifications by outcome",
		}, []string{"outcome"}), // outcome: "ok", "invalid_settings", "malformed_proof", "malformed_public_input", "engine_rejected"

		VerifyLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "proofgate_gateway_verify_duration_seconds",
			Help:    "Duration of full proof verification including the engine call",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// IncVerification records a verification outcome.
func (m *Metrics) IncVerification(outcome string) {
	if m != nil {
		m.Verifications.WithLabelValues(outcome).Inc()
	}
}

// ObserveVerifyLatency records the duration of a verification run.
func (m *Metrics) ObserveVerifyLatency(d time.Duration) {
	if m != nil {
		m.VerifyLatency.Observe(d.Seconds())
	}
}
