// Package models holds the registry's data shapes.
package models

import (
	"time"

	"proofgate/pkg/domain"
)

// Credential is the unique, non-transferable record issued to one claimant
// for one topic. Owner and Topic are set at mint and never change; the
// ledger's update hook rejects every post-mint ownership write.
type Credential struct {
	ID       domain.CredentialID `json:"id"`
	Owner    domain.Address      `json:"owner"`
	Topic    domain.Topic        `json:"topic"`
	MintedAt time.Time           `json:"minted_at"`
}
