// Package domain holds the typed identifiers shared across modules.
// These are domain primitives that enforce validity at parse time so
// services never handle raw, unchecked strings.
package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Address identifies an account: a claimant, the configuration owner, or a
// configured trust target. Addresses are lowercase 0x-prefixed hex scalars,
// at most 64 hex digits.
type Address string

// ZeroAddress is the unset/null account handle. It is never a valid
// configuration target and marks the "previous owner" of a mint.
const ZeroAddress Address = "0x0"

var addressPattern = regexp.MustCompile(`^0x[0-9a-f]{1,64}$`)

// ParseAddress validates and normalizes an address string.
func ParseAddress(s string) (Address, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !addressPattern.MatchString(s) {
		return "", fmt.Errorf("malformed address: %q", s)
	}
	return Address(canonicalHex(s)), nil
}

// String returns the canonical string form.
func (a Address) String() string {
	return string(a)
}

// IsZero reports whether the address is unset or the zero handle.
func (a Address) IsZero() bool {
	return a == "" || a == ZeroAddress
}

// Topic is the opaque scalar identifying what claim a credential attests to.
// The issuance protocol never interprets it beyond equality.
type Topic string

// ParseTopic validates a topic value. Topics are non-empty printable scalars
// up to 128 bytes; hex scalars are normalized like addresses.
func ParseTopic(s string) (Topic, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("topic is required")
	}
	if len(s) > 128 {
		return "", fmt.Errorf("topic exceeds 128 bytes")
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		lower := strings.ToLower(s)
		if !addressPattern.MatchString(lower) {
			return "", fmt.Errorf("malformed hex topic: %q", s)
		}
		return Topic(canonicalHex(lower)), nil
	}
	return Topic(s), nil
}

// String returns the string form of the topic.
func (t Topic) String() string {
	return string(t)
}

// IsNil reports whether the topic is empty.
func (t Topic) IsNil() bool {
	return t == ""
}

// CredentialID is the sequential identifier assigned at mint time.
// IDs start at 1 and increase monotonically; 0 means "not yet minted".
type CredentialID uint64

// IsNil reports whether the id has been assigned.
func (id CredentialID) IsNil() bool {
	return id == 0
}

// Fact is the deterministic digest binding a verified public statement to an
// issuance. It is a lowercase 0x-prefixed 32-byte hex string.
type Fact string

const factHexLen = 64

// ParseFact validates a fact digest string.
func ParseFact(s string) (Fact, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "0x") || len(s) != 2+factHexLen {
		return "", fmt.Errorf("malformed fact digest: %q", s)
	}
	for _, c := range s[2:] {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", fmt.Errorf("malformed fact digest: %q", s)
		}
	}
	return Fact(s), nil
}

// FactFromBytes builds a Fact from a raw 32-byte digest.
func FactFromBytes(digest [32]byte) Fact {
	return Fact(fmt.Sprintf("0x%x", digest[:]))
}

// String returns the hex form of the fact.
func (f Fact) String() string {
	return string(f)
}

// IsNil reports whether the fact is empty.
func (f Fact) IsNil() bool {
	return f == ""
}

// canonicalHex strips leading zeros from the hex payload so equal scalars
// compare equal regardless of padding. "0x000a" and "0xa" are the same handle.
func canonicalHex(s string) string {
	payload := strings.TrimLeft(s[2:], "0")
	if payload == "" {
		payload = "0"
	}
	return "0x" + payload
}
