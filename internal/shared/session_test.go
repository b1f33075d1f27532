package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newSessionManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "sg_session", "secret", time.Hour, false), mr
}

func roundTrip(t *testing.T, sm *SessionManager, cookie *http.Cookie, mutate func(*Session)) (*Session, *http.Cookie) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	if mutate != nil {
		mutate(sess)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rec, req, sess))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return sess, cookies[0]
}

func TestSessionPersistsValuesAndFlashes(t *testing.T) {
	sm, _ := newSessionManager(t)
	require.Equal(t, time.Hour, sm.TTL())
	require.Equal(t, "sg_session", sm.CookieName())

	_, cookie := roundTrip(t, sm, nil, func(s *Session) {
		s.SetUser("1")
		s.Set("k", "v")
		s.AddFlash(FlashMessage{Kind: "success", Message: "saved"})
	})

	var flash *FlashMessage
	sess, cookie := roundTrip(t, sm, cookie, func(s *Session) { flash = s.PopFlash() })
	require.Equal(t, "1", sess.User())
	require.Equal(t, "v", sess.Get("k"))
	require.NotNil(t, flash)
	require.Equal(t, "saved", flash.Message)

	_, _ = roundTrip(t, sm, cookie, func(s *Session) { require.Nil(t, s.PopFlash()) })
}

func TestSessionRenewDropsOldID(t *testing.T) {
	sm, mr := newSessionManager(t)
	first, cookie := roundTrip(t, sm, nil, func(s *Session) { s.Set("k", "v") })
	oldID := first.ID

	renewed, newCookie := roundTrip(t, sm, cookie, func(s *Session) {
		sm.Renew(s)
		s.SetUser("1")
	})
	require.NotEqual(t, oldID, renewed.ID)
	require.Equal(t, renewed.ID, newCookie.Value)
	require.False(t, mr.Exists(sm.redisKey(oldID)))
	require.True(t, mr.Exists(sm.redisKey(renewed.ID)))
}

func TestSessionDestroyClearsCookie(t *testing.T) {
	sm, mr := newSessionManager(t)
	sess, cookie := roundTrip(t, sm, nil, func(s *Session) { s.SetUser("1") })

	_, cleared := roundTrip(t, sm, cookie, func(s *Session) { sm.Destroy(s) })
	require.Equal(t, -1, cleared.MaxAge)
	require.False(t, mr.Exists(sm.redisKey(sess.ID)))
}

func TestSessionIgnoresForeignCookie(t *testing.T) {
	sm, _ := newSessionManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sg_session", Value: "not-a-uuid"})
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	require.NotEqual(t, "not-a-uuid", sess.ID)
	require.Empty(t, sess.User())
}
