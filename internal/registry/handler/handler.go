// Package handler exposes the registry's HTTP surface: enumeration, single
// credential reads, and the (always rejected) transfer endpoint.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"proofgate/internal/registry/models"
	"proofgate/internal/registry/service"
	"proofgate/pkg/domain"
	dErrors "proofgate/pkg/domain-errors"
	"proofgate/pkg/platform/httputil"
	"proofgate/pkg/requestcontext"
)

// Handler serves registry routes.
type Handler struct {
	service *service.Service
	logger  *slog.Logger
}

// New creates a registry handler.
func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register mounts the registry routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/registry/credentials", func(r chi.Router) {
		r.Get("/", h.listByOwner)
		r.Get("/{id}", h.getCredential)
		r.Post("/{id}/transfer", h.transfer)
	})
}

type transferRequest struct {
	To string `json:"to"`
}

type listResponse struct {
	Owner       string               `json:"owner"`
	Credentials []credentialResponse `json:"credentials"`
}

type credentialResponse struct {
	ID       domain.CredentialID `json:"id"`
	Owner    string              `json:"owner"`
	Topic    string              `json:"topic"`
	MintedAt string              `json:"minted_at"`
}

func (h *Handler) listByOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, err := domain.ParseAddress(r.URL.Query().Get("owner"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "owner query parameter must be a valid handle"))
		return
	}

	creds, err := h.service.CredentialsOf(ctx, owner)
	if err != nil {
		h.logger.ErrorContext(ctx, "credential enumeration failed",
			"error", err,
			"owner", owner,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	resp := listResponse{Owner: owner.String(), Credentials: make([]credentialResponse, 0, len(creds))}
	for _, c := range creds {
		resp.Credentials = append(resp.Credentials, toResponse(c))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) getCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cred, err := h.service.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(cred))
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeJSON[transferRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	to, err := domain.ParseAddress(req.To)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "transfer target must be a valid handle"))
		return
	}

	if err := h.service.Transfer(ctx, id, to); err != nil {
		httputil.WriteError(w, err)
		return
	}

	// Unreachable for minted credentials; kept for symmetry with the ledger contract.
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "transferred"})
}

func parseID(raw string) (domain.CredentialID, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "credential id must be a positive integer")
	}
	return domain.CredentialID(id), nil
}

func toResponse(c *models.Credential) credentialResponse {
	return credentialResponse{
		ID:       c.ID,
		Owner:    c.Owner.String(),
		Topic:    c.Topic.String(),
		MintedAt: c.MintedAt.UTC().Format(time.RFC3339),
	}
}
