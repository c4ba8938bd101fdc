// Package gateway turns an opaque proof blob into a deterministic fact
// digest after delegating the cryptographic check to a verification engine.
// It is stateless: nothing here touches issuance state.
package gateway

import (
	"golang.org/x/crypto/sha3"

	"proofgate/pkg/domain"
)

// DeriveFact computes the fact digest binding a verified statement to an
// issuance: Keccak-256 over programDigest followed by outputDigest. The
// order is fixed; swapping the arguments yields a different fact. Two
// different proofs of the same statement produce the same fact because the
// fact depends only on the verified public input, never on proof bytes.
func DeriveFact(programDigest, outputDigest [32]byte) domain.Fact {
	h := sha3.NewLegacyKeccak256()
	h.Write(programDigest[:])
	h.Write(outputDigest[:])

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return domain.FactFromBytes(out)
}
