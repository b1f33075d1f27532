package rbac

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/stockgrid/stockgrid/internal/shared"
)

// PermissionSource resolves the permissions granted to a user.
type PermissionSource interface {
	EffectivePermissions(ctx context.Context, userID int64) ([]string, error)
}

// Middleware wires RBAC authorization helpers for HTTP handlers. Requests
// without a signed-in user are answered with 401, missing permissions with
// 403.
type Middleware struct {
	Service PermissionSource
	Logger  *slog.Logger
}

// RequireAny ensures the current user has at least one of the required permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return m.require("any", hasAnyPermission, perms)
}

// RequireAll ensures the current user has all required permissions.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	return m.require("all", hasAllPermissions, perms)
}

func (m Middleware) require(mode string, match func(granted, required []string) bool, perms []string) func(http.Handler) http.Handler {
	required := normalizePermissions(perms)
	return func(next http.Handler) http.Handler {
		if len(required) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := shared.CurrentUserID(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			granted, err := m.Service.EffectivePermissions(r.Context(), userID)
			if err != nil {
				m.logger().Error("rbac resolve permissions", slog.String("mode", mode), slog.Int64("user_id", userID), slog.Any("error", err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !match(granted, required) {
				m.logger().Debug("rbac denied", slog.String("mode", mode), slog.Int64("user_id", userID), slog.Any("required", required))
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		unique[p] = struct{}{}
	}
	normalized := make([]string, 0, len(unique))
	for p := range unique {
		normalized = append(normalized, p)
	}
	return normalized
}

func grantedSet(granted []string) map[string]struct{} {
	set := make(map[string]struct{}, len(granted))
	for _, p := range granted {
		set[strings.ToLower(p)] = struct{}{}
	}
	return set
}

func hasAnyPermission(granted, required []string) bool {
	set := grantedSet(granted)
	for _, p := range required {
		if _, ok := set[p]; ok {
			return true
		}
	}
	return false
}

func hasAllPermissions(granted, required []string) bool {
	set := grantedSet(granted)
	for _, p := range required {
		if _, ok := set[p]; !ok {
			return false
		}
	}
	return true
}
