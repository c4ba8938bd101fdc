// Package models holds the verification gateway's data shapes: settings,
// the proof envelope, and the receipt returned to callers.
package models

import (
	"proofgate/pkg/domain"
	dErrors "proofgate/pkg/domain-errors"
)

// Mode selects how the proof's public input is parsed and checked.
type Mode string

const (
	// ModeStrict recomputes the output digest over the full output segment.
	ModeStrict Mode = "strict"
	// ModeRelaxed trusts the output page hash declared in the public input.
	ModeRelaxed Mode = "relaxed"
	// ModeCompat parses the legacy public-input layout.
	ModeCompat Mode = "compat"
)

// ParseMode validates a verification mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeStrict, ModeRelaxed, ModeCompat:
		return Mode(s), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidSettings, "unknown memory verification mode: "+s)
	}
}

// Settings are the verification parameters a caller declares alongside a
// proof. They are echoed back in the receipt for auditability.
type Settings struct {
	MemoryVerification Mode   `json:"memory_verification"`
	HasherBitLength    uint   `json:"hasher_bit_length"`
	Version            uint64 `json:"version"`
}

// DefaultSettings are applied when a claim carries no explicit settings.
func DefaultSettings() Settings {
	return Settings{
		MemoryVerification: ModeStrict,
		HasherBitLength:    160,
		Version:            1,
	}
}

// Normalize fills zero-valued fields with defaults. An empty mode means the
// caller accepts the default; an unknown mode is an error caught by Validate.
func (s *Settings) Normalize() {
	def := DefaultSettings()
	if s.MemoryVerification == "" {
		s.MemoryVerification = def.MemoryVerification
	}
	if s.HasherBitLength == 0 {
		s.HasherBitLength = def.HasherBitLength
	}
	if s.Version == 0 {
		s.Version = def.Version
	}
}

// Validate checks the settings against the closed set of supported values.
func (s Settings) Validate() error {
	if _, err := ParseMode(string(s.MemoryVerification)); err != nil {
		return err
	}
	if s.HasherBitLength != 160 && s.HasherBitLength != 248 {
		return dErrors.New(dErrors.CodeInvalidSettings, "hasher bit length must be 160 or 248")
	}
	return nil
}

// TrustTargets are the verifier sub-targets the gateway passes to the engine.
type TrustTargets struct {
	Composition domain.Address
	Sampling    domain.Address
}

// Receipt reports the outcome of a successful verification.
// JobID is reserved for a future job-identifier scheme; every verification
// currently runs as job 0.
type Receipt struct {
	Fact         domain.Fact `json:"fact"`
	SecurityBits uint32      `json:"security_bits"`
	Settings     Settings    `json:"settings"`
	JobID        uint64      `json:"job_id"`
}
