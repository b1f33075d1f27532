package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockgrid/stockgrid/internal/auth"
	"github.com/stockgrid/stockgrid/internal/shared"
	"github.com/stockgrid/stockgrid/internal/view"
	_ "github.com/stockgrid/stockgrid/testing"
)

type recordingAudit struct {
	entries []shared.AuditLog
}

func (a *recordingAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.entries = append(a.entries, log)
	return nil
}

func newAuthHandler(t *testing.T, audit shared.AuditRecorder) (*auth.Handler, *shared.SessionManager) {
	t.Helper()
	admin, err := auth.AdminAccount("admin@almacen.com", "Admin", "admin123", "")
	require.NoError(t, err)
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	templates, err := view.NewEngine()
	require.NoError(t, err)
	handler := auth.NewHandler(nil, auth.NewService(auth.NewStaticRepository(admin), audit), templates, sessionManager, csrfManager)
	return handler, sessionManager
}

// primeSession performs the GET that issues the session cookie and CSRF token.
func primeSession(t *testing.T, handler *auth.Handler, sm *shared.SessionManager) *shared.Session {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	ctx := shared.ContextWithSession(req.Context(), sess)
	req = req.WithContext(ctx)
	res := httptest.NewRecorder()
	handler.ShowLoginForTest(res, req)
	require.NoError(t, sm.Commit(ctx, res, req, sess))
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), "<form")
	return sess
}

func postLogin(t *testing.T, handler *auth.Handler, sm *shared.SessionManager, sess *shared.Session, email, password string) (*httptest.ResponseRecorder, *shared.Session) {
	t.Helper()
	form := url.Values{}
	form.Set("email", email)
	form.Set("password", password)
	form.Set("csrf_token", sess.Get(shared.CSRFSessionKey))

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: sess.ID})
	loaded, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	ctx := shared.ContextWithSession(req.Context(), loaded)
	req = req.WithContext(ctx)

	res := httptest.NewRecorder()
	handler.HandleLoginForTest(res, req)
	require.NoError(t, sm.Commit(ctx, res, req, loaded))
	return res, loaded
}

func TestLoginPage(t *testing.T) {
	handler, sm := newAuthHandler(t, nil)
	sess := primeSession(t, handler, sm)
	assert.NotEmpty(t, sess.Get(shared.CSRFSessionKey))
}

func TestLoginInvalidCredentials(t *testing.T) {
	handler, sm := newAuthHandler(t, nil)
	sess := primeSession(t, handler, sm)

	res, loaded := postLogin(t, handler, sm, sess, "admin@almacen.com", "wrongpass")
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.Body.String(), "Invalid email or password.")
	assert.Empty(t, loaded.User())
}

func TestLoginSuccessRenewsSession(t *testing.T) {
	audit := &recordingAudit{}
	handler, sm := newAuthHandler(t, audit)
	sess := primeSession(t, handler, sm)
	originalID := sess.ID

	res, loaded := postLogin(t, handler, sm, sess, "Admin@Almacen.com", "admin123")
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/", res.Header().Get("Location"))
	assert.Equal(t, "1", loaded.User())
	assert.NotEqual(t, originalID, loaded.ID, "session id must change on login")

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "auth.login", audit.entries[0].Action)
}

func TestAdminAccountRejectsBadHash(t *testing.T) {
	_, err := auth.AdminAccount("admin@almacen.com", "", "", "not-a-hash")
	assert.Error(t, err)
}
