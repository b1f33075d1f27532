package inventory

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stockgrid/stockgrid/internal/platform/httpx"
	"github.com/stockgrid/stockgrid/internal/rbac"
	"github.com/stockgrid/stockgrid/internal/shared"
)

// APIHandler exposes the transfer operation as JSON.
type APIHandler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewAPIHandler constructs APIHandler.
func NewAPIHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *APIHandler {
	return &APIHandler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers routes below /api.
func (h *APIHandler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAll(shared.PermInventoryEdit)).Post("/transfers", h.handleTransfer)
}

func (h *APIHandler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var input TransferInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input.ActorID, _ = shared.CurrentUserID(r.Context())
	if input.RequestKey == "" {
		input.RequestKey = r.Header.Get("Idempotency-Key")
	}
	result, err := h.service.Transfer(r.Context(), input)
	if err != nil {
		if !shared.IsBusiness(err) {
			h.logger.Error("api transfer failed", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
