package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stockgrid/stockgrid/internal/platform/httpx"
	"github.com/stockgrid/stockgrid/internal/shared"
)

// PermissionsHandler reports the permissions of the signed-in user.
type PermissionsHandler struct {
	logger  *slog.Logger
	service *Service
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, service *Service) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, service: service}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Get("/me/permissions", h.listOwn)
	r.Get("/roles", h.listRoles)
}

type permissionsResponse struct {
	UserID      int64    `json:"user_id"`
	Permissions []string `json:"permissions"`
}

func (h *PermissionsHandler) listOwn(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	perms, err := h.service.EffectivePermissions(r.Context(), userID)
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, permissionsResponse{UserID: userID, Permissions: perms})
}

type rolesResponse struct {
	Roles       []Role       `json:"roles"`
	Permissions []Permission `json:"permissions"`
}

func (h *PermissionsHandler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permission catalog", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rolesResponse{Roles: roles, Permissions: perms})
}
