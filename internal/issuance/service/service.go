// Package service orchestrates the claim lifecycle: configuration gating,
// proof verification, minting, and event emission, with the mutating steps
// under one transaction so a failed step leaves nothing behind.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	gwmodels "proofgate/internal/gateway/models"
	"proofgate/internal/issuance/metrics"
	"proofgate/internal/issuance/models"
	"proofgate/internal/issuance/store/config"
	"proofgate/pkg/domain"
	dErrors "proofgate/pkg/domain-errors"
	"proofgate/pkg/platform/outbox"
	"proofgate/pkg/platform/sentinel"
	"proofgate/pkg/platform/tracer"
	"proofgate/pkg/platform/tx"
	"proofgate/pkg/requestcontext"
)

// Verifier is the gateway surface the controller needs.
type Verifier interface {
	Verify(ctx context.Context, rawProof []byte, settings gwmodels.Settings) (gwmodels.Receipt, error)
}

// Registry is the minting surface the controller needs.
type Registry interface {
	Issue(ctx context.Context, caller, claimant domain.Address, topic domain.Topic) (domain.CredentialID, error)
}

// ConfigStore is the one-time configuration backend.
type ConfigStore interface {
	SetOnce(ctx context.Context, entry config.Entry) error
	Get(ctx context.Context, field string) (config.Entry, error)
}

// ReceiptCache records the latest receipt per fact, best effort.
type ReceiptCache interface {
	Save(ctx context.Context, receipt gwmodels.Receipt) error
}

// Service is the issuance controller.
type Service struct {
	verifier Verifier
	registry Registry
	configs  ConfigStore
	outbox   outbox.Store
	receipts ReceiptCache

	owner    domain.Address // administrative identity allowed to configure
	identity domain.Address // the controller's own handle, presented to the registry

	runner  tx.Runner
	metrics *metrics.Metrics
	tracer  tracer.Tracer
	logger  *slog.Logger
}

// Config wires the service's collaborators.
type Config struct {
	Verifier     Verifier
	Registry     Registry
	ConfigStore  ConfigStore
	Outbox       outbox.Store
	ReceiptCache ReceiptCache
	Owner        domain.Address
	Identity     domain.Address
	Runner       tx.Runner
	Metrics      *metrics.Metrics
	Tracer       tracer.Tracer
	Logger       *slog.Logger
}

// New builds the issuance controller service.
func New(cfg Config) *Service {
	tr := cfg.Tracer
	if tr == nil {
		tr = tracer.Noop()
	}
	return &Service{
		verifier: cfg.Verifier,
		registry: cfg.Registry,
		configs:  cfg.ConfigStore,
		outbox:   cfg.Outbox,
		receipts: cfg.ReceiptCache,
		owner:    cfg.Owner,
		identity: cfg.Identity,
		runner:   cfg.Runner,
		metrics:  cfg.Metrics,
		tracer:   tr,
		logger:   cfg.Logger,
	}
}

// SetVerificationTarget configures the trusted verification engine handle.
// Owner-only, non-zero, settable exactly once.
func (s *Service) SetVerificationTarget(ctx context.Context, target domain.Address) error {
	return s.setTarget(ctx, config.FieldVerificationTarget, target)
}

// SetRegistryTarget configures the registry handle the controller mints into.
// Owner-only, non-zero, settable exactly once.
func (s *Service) SetRegistryTarget(ctx context.Context, target domain.Address) error {
	return s.setTarget(ctx, config.FieldRegistryTarget, target)
}

func (s *Service) setTarget(ctx context.Context, field string, target domain.Address) error {
	caller := requestcontext.Caller(ctx)
	if s.owner.IsZero() || caller != s.owner {
		s.metrics.IncConfigSet(field, "unauthorized")
		return dErrors.New(dErrors.CodeUnauthorized, "only the owner may configure targets")
	}
	if target.IsZero() {
		s.metrics.IncConfigSet(field, "invalid_address")
		return dErrors.New(dErrors.CodeInvalidAddress, "target must be a concrete handle")
	}

	entry := config.Entry{
		Field: field,
		Value: target,
		SetBy: caller,
		SetAt: requestcontext.Now(ctx),
	}

	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.configs.SetOnce(ctx, entry); err != nil {
			return err
		}
		return s.appendEvent(ctx, "config", field, models.EventTargetSet, models.TargetSetEvent{
			Field: field,
			Value: target,
			SetBy: caller,
		})
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			s.metrics.IncConfigSet(field, "already_set")
			return dErrors.Wrap(err, dErrors.CodeAlreadySet, field+" is already configured")
		}
		s.metrics.IncConfigSet(field, "error")
		return dErrors.Wrap(err, dErrors.CodeInternal, "configure "+field)
	}

	s.metrics.IncConfigSet(field, "ok")
	s.logger.InfoContext(ctx, "configuration target set",
		"field", field,
		"value", target,
		"set_by", caller,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// RegistryTarget returns the configured registry handle.
func (s *Service) RegistryTarget(ctx context.Context) (domain.Address, error) {
	entry, err := s.configs.Get(ctx, config.FieldRegistryTarget)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.ZeroAddress, dErrors.New(dErrors.CodeNotFound, "registry target is not configured")
		}
		return domain.ZeroAddress, dErrors.Wrap(err, dErrors.CodeInternal, "read registry target")
	}
	return entry.Value, nil
}

// Claim runs the full issuance protocol for the authenticated caller:
// verify the proof, mint the credential, emit both events. The mint and the
// events share one transaction; verification happens before it opens because
// it mutates nothing.
func (s *Service) Claim(ctx context.Context, req *models.ClaimRequest) (models.ClaimResult, error) {
	start := time.Now()

	claimant := requestcontext.Caller(ctx)
	if claimant.IsZero() {
		s.metrics.IncClaim("unauthorized")
		return models.ClaimResult{}, dErrors.New(dErrors.CodeUnauthorized, "claim requires an authenticated caller")
	}

	topic, err := domain.ParseTopic(req.Topic)
	if err != nil {
		s.metrics.IncClaim("error")
		return models.ClaimResult{}, dErrors.New(dErrors.CodeBadRequest, "topic: "+err.Error())
	}

	if err := s.requireConfigured(ctx); err != nil {
		s.metrics.IncClaim("not_configured")
		return models.ClaimResult{}, err
	}

	ctx, span := s.tracer.Start(ctx, "issuance.claim",
		tracer.String("claimant", claimant.String()),
		tracer.String("topic", topic.String()),
	)
	var cerr error
	defer func() { span.End(cerr) }()

	receipt, err := s.verifier.Verify(ctx, req.Proof, req.VerificationSettings())
	if err != nil {
		// InvalidSettings / VerificationFailed propagate unchanged.
		cerr = err
		s.metrics.IncClaim("verification_failed")
		return models.ClaimResult{}, err
	}

	var credentialID domain.CredentialID
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		id, err := s.registry.Issue(ctx, s.identity, claimant, topic)
		if err != nil {
			return err
		}
		credentialID = id

		aggregateID := strconv.FormatUint(uint64(id), 10)
		if err := s.appendEvent(ctx, "credential", aggregateID, models.EventCredentialIssued, models.CredentialIssuedEvent{
			Claimant:     claimant,
			CredentialID: id,
			Topic:        topic,
		}); err != nil {
			return err
		}
		return s.appendEvent(ctx, "credential", aggregateID, models.EventProofVerified, models.ProofVerifiedEvent{
			Fact:         receipt.Fact,
			SecurityBits: receipt.SecurityBits,
			Settings:     receipt.Settings,
		})
	})
	if err != nil {
		cerr = err
		if dErrors.HasCode(err, dErrors.CodeAlreadyIssued) {
			s.metrics.IncClaim("already_issued")
			return models.ClaimResult{}, err
		}
		var domainErr *dErrors.Error
		if errors.As(err, &domainErr) {
			s.metrics.IncClaim("error")
			return models.ClaimResult{}, err
		}
		s.metrics.IncClaim("error")
		return models.ClaimResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "claim failed")
	}

	// Best effort: the receipt cache never gates issuance.
	if s.receipts != nil {
		if err := s.receipts.Save(ctx, receipt); err != nil {
			s.logger.WarnContext(ctx, "failed to cache verification receipt",
				"error", err,
				"fact", receipt.Fact,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}

	s.metrics.IncClaim("ok")
	s.metrics.ObserveClaimLatency(time.Since(start))
	s.logger.InfoContext(ctx, "claim fulfilled",
		"claimant", claimant,
		"credential_id", credentialID,
		"topic", topic,
		"fact", receipt.Fact,
		"security_bits", receipt.SecurityBits,
		"request_id", requestcontext.RequestID(ctx),
	)

	return models.ClaimResult{
		CredentialID: credentialID,
		Fact:         receipt.Fact,
		SecurityBits: receipt.SecurityBits,
	}, nil
}

// requireConfigured refuses claims until both one-time targets are set.
func (s *Service) requireConfigured(ctx context.Context) error {
	for _, field := range []string{config.FieldVerificationTarget, config.FieldRegistryTarget} {
		if _, err := s.configs.Get(ctx, field); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeInvariantViolation,
					fmt.Sprintf("claims are not accepted until %s is configured", field))
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "read configuration")
		}
	}
	return nil
}

func (s *Service) appendEvent(ctx context.Context, aggregateType, aggregateID, eventType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", eventType, err)
	}
	entry := outbox.NewEntry(aggregateType, aggregateID, eventType, raw)
	entry.CreatedAt = requestcontext.Now(ctx)
	if err := s.outbox.Append(ctx, entry); err != nil {
		return fmt.Errorf("append %s event: %w", eventType, err)
	}
	return nil
}
