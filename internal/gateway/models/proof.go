package models

import (
	"encoding/json"
	"fmt"
)

// PublicInput is the statement a proof attests to. Which fields are
// consulted depends on the verification mode: strict reads Output, relaxed
// reads OutputHash, compat reads the legacy digest pair.
type PublicInput struct {
	ProgramHash string   `json:"program_hash,omitempty"`
	Output      []string `json:"output,omitempty"`
	OutputHash  string   `json:"output_hash,omitempty"`

	// Legacy layout fields, consulted only in compat mode.
	ProgramDigest string `json:"program_digest,omitempty"`
	OutputDigest  string `json:"output_digest,omitempty"`
}

// Proof is the wire envelope for an opaque proof blob: the public input the
// statement is checked against plus the base64-encoded proof data itself.
type Proof struct {
	PublicInput PublicInput `json:"public_input"`
	ProofData   []byte      `json:"proof_data"`
}

// DecodeProof parses a proof envelope from its JSON encoding.
func DecodeProof(raw []byte) (*Proof, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty proof")
	}
	var p Proof
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode proof envelope: %w", err)
	}
	if len(p.ProofData) == 0 {
		return nil, fmt.Errorf("proof envelope missing proof_data")
	}
	return &p, nil
}
