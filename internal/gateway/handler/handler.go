// Package handler exposes the gateway's read surface: receipt lookups.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"proofgate/internal/gateway/models"
	"proofgate/pkg/domain"
	dErrors "proofgate/pkg/domain-errors"
	"proofgate/pkg/platform/httputil"
	"proofgate/pkg/requestcontext"
)

// ReceiptSource looks up the most recent receipt recorded for a fact.
// Receipts are cached best-effort; a miss is NotFound, never a failure of
// the issuance path.
type ReceiptSource interface {
	Receipt(ctx context.Context, fact domain.Fact) (models.Receipt, error)
}

// Handler serves verification receipt lookups.
type Handler struct {
	receipts ReceiptSource
	logger   *slog.Logger
}

// New creates a gateway handler.
func New(receipts ReceiptSource, logger *slog.Logger) *Handler {
	return &Handler{receipts: receipts, logger: logger}
}

// Register mounts the gateway routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/verify/receipts/{fact}", h.getReceipt)
}

func (h *Handler) getReceipt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fact, err := domain.ParseFact(chi.URLParam(r, "fact"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed fact digest"))
		return
	}

	receipt, err := h.receipts.Receipt(ctx, fact)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "receipt lookup failed",
				"error", err,
				"fact", fact,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, receipt)
}
