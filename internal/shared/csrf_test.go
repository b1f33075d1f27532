package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCSRFTokenLifecycle(t *testing.T) {
	m := NewCSRFManager("secret")
	sess := &Session{ID: "s1"}
	ctx := context.Background()

	token, err := m.EnsureToken(ctx, sess)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	again, err := m.EnsureToken(ctx, sess)
	require.NoError(t, err)
	require.Equal(t, token, again)

	require.NoError(t, m.VerifyToken(ctx, sess, token))
	require.ErrorIs(t, m.VerifyToken(ctx, sess, "forged"), ErrCSRFTokenMismatch)
	require.ErrorIs(t, m.VerifyToken(ctx, sess, ""), ErrCSRFTokenMissing)
	require.ErrorIs(t, m.VerifyToken(ctx, nil, token), ErrCSRFTokenMissing)

	rotated, err := m.Rotate(ctx, sess)
	require.NoError(t, err)
	require.NotEqual(t, token, rotated)
	require.ErrorIs(t, m.VerifyToken(ctx, sess, token), ErrCSRFTokenMismatch)
}
