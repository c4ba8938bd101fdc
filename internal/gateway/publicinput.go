package gateway

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"

	"proofgate/internal/gateway/models"
)

// extractDigests parses the public input according to the verification mode
// and returns the (programDigest, outputDigest) pair the fact is derived
// from. The mode is assumed validated; an unknown mode here is a programming
// error, not caller input.
func extractDigests(mode models.Mode, proof *models.Proof) (program, output [32]byte, err error) {
	switch mode {
	case models.ModeStrict:
		program, err = parseDigest(proof.PublicInput.ProgramHash)
		if err != nil {
			return program, output, fmt.Errorf("program hash: %w", err)
		}
		output, err = recomputeOutputDigest(proof.PublicInput.Output)
		if err != nil {
			return program, output, fmt.Errorf("output segment: %w", err)
		}
		return program, output, nil

	case models.ModeRelaxed:
		program, err = parseDigest(proof.PublicInput.ProgramHash)
		if err != nil {
			return program, output, fmt.Errorf("program hash: %w", err)
		}
		output, err = parseDigest(proof.PublicInput.OutputHash)
		if err != nil {
			return program, output, fmt.Errorf("output hash: %w", err)
		}
		return program, output, nil

	case models.ModeCompat:
		program, err = parseDigest(proof.PublicInput.ProgramDigest)
		if err != nil {
			return program, output, fmt.Errorf("program digest: %w", err)
		}
		output, err = parseDigest(proof.PublicInput.OutputDigest)
		if err != nil {
			return program, output, fmt.Errorf("output digest: %w", err)
		}
		return program, output, nil

	default:
		return program, output, fmt.Errorf("unhandled verification mode %q", mode)
	}
}

// recomputeOutputDigest hashes the full output segment word by word rather
// than trusting a declared page hash.
func recomputeOutputDigest(words []string) ([32]byte, error) {
	var out [32]byte
	if len(words) == 0 {
		return out, fmt.Errorf("empty output segment")
	}

	h := sha3.NewLegacyKeccak256()
	for i, w := range words {
		word, err := parseWord(w)
		if err != nil {
			return out, fmt.Errorf("word %d: %w", i, err)
		}
		h.Write(word[:])
	}
	copy(out[:], h.Sum(nil))
	return out, nil
}

// parseDigest parses a full-width 0x-prefixed 32-byte hex digest.
func parseDigest(s string) ([32]byte, error) {
	var out [32]byte
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "0x") || len(s) != 2+64 {
		return out, fmt.Errorf("malformed digest %q", s)
	}
	if _, err := hex.Decode(out[:], []byte(s[2:])); err != nil {
		return out, fmt.Errorf("malformed digest %q", s)
	}
	return out, nil
}

// parseWord parses an output word: 0x-prefixed hex up to 64 digits,
// left-padded to 32 bytes.
func parseWord(s string) ([32]byte, error) {
	var out [32]byte
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "0x") || len(s) < 3 || len(s) > 2+64 {
		return out, fmt.Errorf("malformed word %q", s)
	}
	payload := s[2:]
	if len(payload)%2 == 1 {
		payload = "0" + payload
	}
	if _, err := hex.Decode(out[32-len(payload)/2:], []byte(payload)); err != nil {
		return out, fmt.Errorf("malformed word %q", s)
	}
	return out, nil
}
