// ratelimit_redis.go implements the rate-limit counter store on Redis so the
// budget is shared when the portal runs more than one instance.
package middleware

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a fixed-window counter store backed by Redis. Atomicity per
// key comes from INCR itself; the window boundary is the key's TTL, set only
// on the hit that created the window. Redis expiry doubles as the sweep, so
// there is no background goroutine to run.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Hit counts one request against key's current window.
func (s *RedisStore) Hit(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	ttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, err
	}

	count := int(incr.Val())
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	resetAt := time.Now().Add(window)
	if d := ttl.Val(); d > 0 {
		resetAt = time.Now().Add(d)
	}

	return Result{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

// NewStoreFromConfig builds the configured store backend.
func NewStoreFromConfig(backend string, addr, password string, db int) Store {
	if backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		})
		return NewRedisStore(client)
	}
	return NewMemoryStore(5 * time.Minute)
}
