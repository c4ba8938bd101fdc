package gateway

import (
	"context"

	"proofgate/internal/gateway/models"
)

//go:generate mockgen -source=engine.go -destination=mocks/engine_mock.go -package=mocks

// Engine is the external proof checker the gateway delegates to. It must be
// deterministic over its inputs: the same proof, settings, and trust targets
// always produce the same result. A rejected or malformed proof is an error;
// on success the engine reports the security level the run actually achieved.
type Engine interface {
	CheckProof(ctx context.Context, targets models.TrustTargets, settings models.Settings, proof []byte) (securityBits uint32, err error)
}
