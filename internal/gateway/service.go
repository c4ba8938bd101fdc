package gateway

import (
	"context"
	"log/slog"
	"time"

	"proofgate/internal/gateway/metrics"
	"proofgate/internal/gateway/models"
	dErrors "proofgate/pkg/domain-errors"
	"proofgate/pkg/platform/tracer"
	"proofgate/pkg/requestcontext"
)

// Service performs proof verification: settings validation, public-input
// parsing per mode, engine delegation, and fact derivation. It holds no
// issuance state.
type Service struct {
	engine  Engine
	targets models.TrustTargets
	metrics *metrics.Metrics
	tracer  tracer.Tracer
	logger  *slog.Logger
}

// NewService builds a verification service around the given engine.
func NewService(engine Engine, targets models.TrustTargets, m *metrics.Metrics, tr tracer.Tracer, logger *slog.Logger) *Service {
	if tr == nil {
		tr = tracer.Noop()
	}
	return &Service{
		engine:  engine,
		targets: targets,
		metrics: m,
		tracer:  tr,
		logger:  logger,
	}
}

// Verify checks the proof under the given settings and returns a receipt.
//
// Settings are validated before the proof is touched: an unknown mode fails
// with InvalidSettings without any proof processing. Everything that goes
// wrong with the proof itself — a malformed envelope, an unparsable public
// input, or the engine rejecting it — surfaces as VerificationFailed. The
// receipt is recomputed on every call and never persisted here.
func (s *Service) Verify(ctx context.Context, rawProof []byte, settings models.Settings) (models.Receipt, error) {
	start := time.Now()

	settings.Normalize()
	if err := settings.Validate(); err != nil {
		s.metrics.IncVerification("invalid_settings")
		return models.Receipt{}, err
	}

	ctx, span := s.tracer.Start(ctx, "gateway.verify",
		tracer.String("mode", string(settings.MemoryVerification)),
	)
	var verr error
	defer func() { span.End(verr) }()

	proof, err := models.DecodeProof(rawProof)
	if err != nil {
		verr = dErrors.Wrap(err, dErrors.CodeVerificationFailed, "malformed_proof")
		s.metrics.IncVerification("malformed_proof")
		return models.Receipt{}, verr
	}

	program, output, err := extractDigests(settings.MemoryVerification, proof)
	if err != nil {
		verr = dErrors.Wrap(err, dErrors.CodeVerificationFailed, "malformed_public_input")
		s.metrics.IncVerification("malformed_public_input")
		return models.Receipt{}, verr
	}

	securityBits, err := s.engine.CheckProof(ctx, s.targets, settings, rawProof)
	if err != nil {
		verr = dErrors.Wrap(err, dErrors.CodeVerificationFailed, "engine_rejected")
		s.metrics.IncVerification("engine_rejected")
		s.logger.WarnContext(ctx, "proof rejected by verification engine",
			"error", err,
			"mode", settings.MemoryVerification,
			"request_id", requestcontext.RequestID(ctx),
		)
		return models.Receipt{}, verr
	}

	fact := DeriveFact(program, output)
	span.SetAttributes(
		tracer.String("fact", fact.String()),
		tracer.Int64("security_bits", int64(securityBits)),
	)

	s.metrics.IncVerification("ok")
	s.metrics.ObserveVerifyLatency(time.Since(start))

	return models.Receipt{
		Fact:         fact,
		SecurityBits: securityBits,
		Settings:     settings,
		JobID:        0,
	}, nil
}

// Targets exposes the configured trust targets for diagnostics.
func (s *Service) Targets() models.TrustTargets {
	return s.targets
}
