package rbac

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockgrid/stockgrid/internal/shared"
)

func requestAs(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if userID == "" {
		return req
	}
	sess := &shared.Session{ID: "test"}
	sess.SetUser(userID)
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func TestMiddlewareStatuses(t *testing.T) {
	svc := NewService()
	require.NoError(t, svc.AssignRole(context.Background(), 1, "admin"))
	require.NoError(t, svc.AssignRole(context.Background(), 2, "Viewer"))
	mw := Middleware{Service: svc}
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	cases := []struct {
		name   string
		user   string
		guard  func(http.Handler) http.Handler
		status int
	}{
		{"anonymous", "", mw.RequireAny(shared.PermInventoryView), http.StatusUnauthorized},
		{"viewer reads", "2", mw.RequireAny(shared.PermInventoryView), http.StatusNoContent},
		{"viewer cannot edit", "2", mw.RequireAll(shared.PermInventoryEdit), http.StatusForbidden},
		{"admin edits", "1", mw.RequireAll(shared.PermInventoryEdit, shared.PermInventoryView), http.StatusNoContent},
		{"unknown user", "9", mw.RequireAny(shared.PermProductsView), http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tc.guard(ok).ServeHTTP(rec, requestAs(tc.user))
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestAssignUnknownRole(t *testing.T) {
	err := NewService().AssignRole(context.Background(), 1, "auditor")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEffectivePermissionsUnion(t *testing.T) {
	svc := NewService()
	ctx := context.Background()
	require.NoError(t, svc.AssignRole(ctx, 5, "viewer"))
	require.NoError(t, svc.AssignRole(ctx, 5, "admin"))
	require.NoError(t, svc.AssignRole(ctx, 5, "admin"))

	perms, err := svc.EffectivePermissions(ctx, 5)
	require.NoError(t, err)
	assert.ElementsMatch(t, shared.WarehouseScopes(), perms)
}

func TestPermissionsHandlerRoutes(t *testing.T) {
	svc := NewService()
	require.NoError(t, svc.AssignRole(context.Background(), 2, "viewer"))
	r := chi.NewRouter()
	NewPermissionsHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).MountRoutes(r)

	rec := httptest.NewRecorder()
	req := requestAs("2")
	req.URL.Path = "/me/permissions"
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var own permissionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &own))
	assert.Equal(t, int64(2), own.UserID)
	assert.ElementsMatch(t, RoleViewer.Permissions, own.Permissions)

	rec = httptest.NewRecorder()
	req = requestAs("")
	req.URL.Path = "/me/permissions"
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req = requestAs("2")
	req.URL.Path = "/roles"
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var catalog rolesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &catalog))
	require.Len(t, catalog.Roles, 2)
	assert.Equal(t, "admin", catalog.Roles[0].Name)
	assert.Equal(t, "viewer", catalog.Roles[1].Name)
	assert.Len(t, catalog.Permissions, len(permissionDescriptions))
}
