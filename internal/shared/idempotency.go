package shared

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrDuplicateRequest indicates the request key was already claimed.
var ErrDuplicateRequest = errors.New("request already submitted")

// RequestGuard deduplicates form submissions by claiming a key in Redis.
type RequestGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRequestGuard constructs the guard. Claimed keys expire after ttl.
func NewRequestGuard(client *redis.Client, ttl time.Duration) *RequestGuard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RequestGuard{client: client, ttl: ttl}
}

// Claim records key within scope. A second claim of the same key returns
// ErrDuplicateRequest until the key expires or is released.
func (g *RequestGuard) Claim(ctx context.Context, scope, key string) error {
	if g == nil || g.client == nil {
		return nil
	}
	if key == "" {
		return nil
	}
	if scope == "" {
		return errors.New("request guard: scope required")
	}
	ok, err := g.client.SetNX(ctx, RequestKey(scope, key), time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrDuplicateRequest
	}
	return nil
}

// Release removes a claimed key, typically after the guarded work failed.
func (g *RequestGuard) Release(ctx context.Context, scope, key string) error {
	if g == nil || g.client == nil || key == "" {
		return nil
	}
	return g.client.Del(ctx, RequestKey(scope, key)).Err()
}

// unlockScript deletes the lock only while it still holds the caller's token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock acquires a short-lived mutex key. The returned func releases it unless
// the lock expired and was taken over by another holder.
func (g *RequestGuard) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if g == nil || g.client == nil {
		return func() {}, nil
	}
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	return func() {
		_ = unlockScript.Run(context.Background(), g.client, []string{key}, token).Err()
	}, nil
}
