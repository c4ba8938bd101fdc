// Package models holds the issuance controller's request and event shapes.
package models

import (
	"encoding/json"
	"strings"

	gwmodels "proofgate/internal/gateway/models"
	"proofgate/pkg/domain"
	dErrors "proofgate/pkg/domain-errors"
)

// ClaimRequest is the body of a claim call: the opaque proof envelope, the
// topic being claimed, and optional verification settings.
type ClaimRequest struct {
	Proof    json.RawMessage    `json:"proof"`
	Topic    string             `json:"topic"`
	Settings *gwmodels.Settings `json:"settings,omitempty"`
}

// Normalize trims the topic.
func (r *ClaimRequest) Normalize() {
	r.Topic = strings.TrimSpace(r.Topic)
}

// Validate checks the request is complete enough to attempt a claim.
// Settings content is validated by the gateway, not here.
func (r *ClaimRequest) Validate() error {
	if len(r.Proof) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "proof is required")
	}
	if _, err := domain.ParseTopic(r.Topic); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "topic: "+err.Error())
	}
	return nil
}

// VerificationSettings returns the requested settings or the defaults.
func (r *ClaimRequest) VerificationSettings() gwmodels.Settings {
	if r.Settings == nil {
		return gwmodels.DefaultSettings()
	}
	return *r.Settings
}

// ClaimResult is returned to a successful claimant.
type ClaimResult struct {
	CredentialID domain.CredentialID `json:"credential_id"`
	Fact         domain.Fact         `json:"fact"`
	SecurityBits uint32              `json:"security_bits"`
}

// Event types published through the outbox.
const (
	EventCredentialIssued = "credential_issued"
	EventProofVerified    = "proof_verified"
	EventTargetSet        = "target_set"
)

// CredentialIssuedEvent is emitted once per successful mint.
type CredentialIssuedEvent struct {
	Claimant     domain.Address      `json:"claimant"`
	CredentialID domain.CredentialID `json:"credential_id"`
	Topic        domain.Topic        `json:"topic"`
}

// ProofVerifiedEvent is emitted alongside the mint it gated.
type ProofVerifiedEvent struct {
	Fact         domain.Fact       `json:"fact"`
	SecurityBits uint32            `json:"security_bits"`
	Settings     gwmodels.Settings `json:"settings"`
}

// TargetSetEvent signals a one-time configuration transition.
type TargetSetEvent struct {
	Field string         `json:"field"`
	Value domain.Address `json:"value"`
	SetBy domain.Address `json:"set_by"`
}
