// Package service enforces the registry's business rules: issuer-only
// minting, one credential per (claimant, topic), and the transfer ban.
package service

import (
	"context"
	"errors"
	"log/slog"

	"proofgate/internal/registry/ledger"
	"proofgate/internal/registry/metrics"
	"proofgate/internal/registry/models"
	"proofgate/pkg/domain"
	dErrors "proofgate/pkg/domain-errors"
	"proofgate/pkg/platform/sentinel"
	"proofgate/pkg/requestcontext"
)

// Service owns the credential set. All mutations go through the ledger so
// the non-transferability hook applies regardless of entry point.
type Service struct {
	ledger  *ledger.Ledger
	issuer  domain.Address // the one identity allowed to mint
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New builds the registry service. issuer is the issuance controller's
// identity; every Issue call must present it.
func New(l *ledger.Ledger, issuer domain.Address, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		ledger:  l,
		issuer:  issuer,
		metrics: m,
		logger:  logger,
	}
}

// Issue mints a credential binding claimant to topic and returns its id.
//
// caller must be the configured issuance controller. The (claimant, topic)
// uniqueness check is a keyed lookup in the store, never a scan; a duplicate
// fails with AlreadyIssued and mints nothing.
func (s *Service) Issue(ctx context.Context, caller, claimant domain.Address, topic domain.Topic) (domain.CredentialID, error) {
	if s.issuer.IsZero() || caller != s.issuer {
		s.metrics.IncMint("unauthorized")
		return 0, dErrors.New(dErrors.CodeUnauthorized, "only the issuance controller may mint")
	}
	if claimant.IsZero() {
		s.metrics.IncMint("invalid_address")
		return 0, dErrors.New(dErrors.CodeInvalidAddress, "claimant must be a concrete handle")
	}
	if topic.IsNil() {
		s.metrics.IncMint("invalid_address")
		return 0, dErrors.New(dErrors.CodeBadRequest, "topic is required")
	}

	cred, err := s.ledger.Mint(ctx, claimant, topic, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			s.metrics.IncMint("already_issued")
			return 0, dErrors.Wrap(err, dErrors.CodeAlreadyIssued,
				"a credential for this claimant and topic already exists")
		}
		s.metrics.IncMint("error")
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "mint failed")
	}

	s.metrics.IncMint("ok")
	s.logger.InfoContext(ctx, "credential minted",
		"credential_id", cred.ID,
		"claimant", claimant,
		"topic", topic,
		"request_id", requestcontext.RequestID(ctx),
	)
	return cred.ID, nil
}

// CredentialsOf lists a claimant's credentials in mint order. A claimant
// with no credentials gets an empty slice.
func (s *Service) CredentialsOf(ctx context.Context, owner domain.Address) ([]*models.Credential, error) {
	creds, err := s.ledger.OwnedBy(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list credentials")
	}
	return creds, nil
}

// Get returns a single credential by id.
func (s *Service) Get(ctx context.Context, id domain.CredentialID) (*models.Credential, error) {
	cred, err := s.ledger.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "credential not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load credential")
	}
	return cred, nil
}

// Transfer attempts an ownership change. It exists so the prohibition is
// exercised through the same ledger hook as any other write path; for any
// minted credential it fails with TransferNotAllowed.
func (s *Service) Transfer(ctx context.Context, id domain.CredentialID, to domain.Address) error {
	err := s.ledger.SetOwner(ctx, id, to)
	if err == nil {
		return nil
	}
	if dErrors.HasCode(err, dErrors.CodeTransferNotAllowed) {
		s.metrics.IncTransferRejection()
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "credential not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "transfer attempt failed")
}
