package shared

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newGuard(t *testing.T) (*RequestGuard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRequestGuard(client, time.Minute), mr
}

func TestRequestGuardClaimOnce(t *testing.T) {
	guard, mr := newGuard(t)
	ctx := context.Background()

	require.NoError(t, guard.Claim(ctx, "transfer", "abc"))
	require.ErrorIs(t, guard.Claim(ctx, "transfer", "abc"), ErrDuplicateRequest)
	require.NoError(t, guard.Claim(ctx, "assign", "abc"))

	require.NoError(t, guard.Release(ctx, "transfer", "abc"))
	require.NoError(t, guard.Claim(ctx, "transfer", "abc"))

	mr.FastForward(2 * time.Minute)
	require.NoError(t, guard.Claim(ctx, "transfer", "abc"))
}

func TestRequestGuardEmptyKeyIsNoop(t *testing.T) {
	guard, _ := newGuard(t)
	require.NoError(t, guard.Claim(context.Background(), "transfer", ""))
	require.NoError(t, guard.Claim(context.Background(), "transfer", ""))
}

func TestRequestGuardLock(t *testing.T) {
	guard, _ := newGuard(t)
	ctx := context.Background()

	release, err := guard.Lock(ctx, LocationGenerationLockKey, time.Minute)
	require.NoError(t, err)
	_, err = guard.Lock(ctx, LocationGenerationLockKey, time.Minute)
	require.ErrorIs(t, err, ErrConflict)
	release()
	release, err = guard.Lock(ctx, LocationGenerationLockKey, time.Minute)
	require.NoError(t, err)
	release()
}

func TestRequestGuardExpiredLockKeepsNewHolder(t *testing.T) {
	guard, mr := newGuard(t)
	ctx := context.Background()

	stale, err := guard.Lock(ctx, LocationGenerationLockKey, time.Minute)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	current, err := guard.Lock(ctx, LocationGenerationLockKey, time.Minute)
	require.NoError(t, err)
	stale()
	require.True(t, mr.Exists(LocationGenerationLockKey))
	_, err = guard.Lock(ctx, LocationGenerationLockKey, time.Minute)
	require.ErrorIs(t, err, ErrConflict)

	current()
	require.False(t, mr.Exists(LocationGenerationLockKey))
}
