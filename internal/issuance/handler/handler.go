// Package handler exposes the issuance controller's HTTP surface: claims and
// owner-only one-time configuration.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"proofgate/internal/issuance/models"
	"proofgate/internal/issuance/service"
	"proofgate/pkg/domain"
	dErrors "proofgate/pkg/domain-errors"
	"proofgate/pkg/platform/httputil"
	"proofgate/pkg/requestcontext"
)

// Handler serves issuance routes. All routes require an authenticated caller;
// the router mounts them behind the auth middleware.
type Handler struct {
	service *service.Service
	logger  *slog.Logger
}

// New creates an issuance handler.
func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register mounts the issuance routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/claim", h.claim)
	r.Route("/admin/targets", func(r chi.Router) {
		r.Post("/verification", h.setVerificationTarget)
		r.Post("/registry", h.setRegistryTarget)
		r.Get("/registry", h.getRegistryTarget)
	})
}

type setTargetRequest struct {
	Address string `json:"address"`
}

func (h *Handler) claim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[models.ClaimRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	result, err := h.service.Claim(ctx, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) setVerificationTarget(w http.ResponseWriter, r *http.Request) {
	h.setTarget(w, r, h.service.SetVerificationTarget)
}

func (h *Handler) setRegistryTarget(w http.ResponseWriter, r *http.Request) {
	h.setTarget(w, r, h.service.SetRegistryTarget)
}

func (h *Handler) setTarget(w http.ResponseWriter, r *http.Request, set func(ctx context.Context, target domain.Address) error) {
	ctx := r.Context()

	req, ok := httputil.DecodeJSON[setTargetRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	target, err := domain.ParseAddress(req.Address)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidAddress, "target must be a valid handle"))
		return
	}

	if err := set(ctx, target); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "set"})
}

func (h *Handler) getRegistryTarget(w http.ResponseWriter, r *http.Request) {
	target, err := h.service.RegistryTarget(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"address": target.String()})
}
