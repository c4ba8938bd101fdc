package gateway

import (
	"bytes"
	"context"
	"fmt"

	"proofgate/internal/gateway/models"
)

// StaticEngine accepts exactly one expected proof blob and reports a fixed
// security level for it. It backs dev environments and tests where no real
// verifier is reachable; selected with PROOFGATE_ENGINE=static.
type StaticEngine struct {
	expected []byte
	bits     uint32
}

// NewStaticEngine builds an engine that accepts only the given proof data.
func NewStaticEngine(expected []byte, securityBits uint32) *StaticEngine {
	return &StaticEngine{expected: expected, bits: securityBits}
}

// CheckProof compares the submitted proof data against the expected blob.
func (e *StaticEngine) CheckProof(_ context.Context, _ models.TrustTargets, _ models.Settings, proof []byte) (uint32, error) {
	envelope, err := models.DecodeProof(proof)
	if err != nil {
		return 0, fmt.Errorf("static engine: %w", err)
	}
	if !bytes.Equal(envelope.ProofData, e.expected) {
		return 0, fmt.Errorf("static engine: proof data does not match expected blob")
	}
	return e.bits, nil
}
