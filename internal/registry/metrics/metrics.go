// Package metrics provides observability for the registry module.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registry module.
type Metrics struct {
	// Mint attempts by outcome
	Mints *prometheus.CounterVec

	// Rejected ownership changes
	TransferRejections prometheus.Counter
}

// New creates a new Metrics instance with all registry metrics registered.
func New() *Metrics {
	return &Metrics{
		Mints: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "proofgate_registry_mints_total",
			Help: "Total credential mint attempts by outcome",
		}, []string{"outcome"}), // outcome: "ok", "already_issued", "unauthorized", "invalid_address", "error"

		TransferRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "proofgate_registry_transfer_rejections_total",
			Help: "Total ownership changes rejected by the non-transferability hook",
		}),
	}
}

// IncMint records a mint attempt outcome.
func (m *Metrics) IncMint(outcome string) {
	if m != nil {
		m.Mints.WithLabelValues(outcome).Inc()
	}
}

// IncTransferRejection records a rejected ownership change.
func (m *Metrics) IncTransferRejection() {
	if m != nil {
		m.TransferRejections.Inc()
	}
}
