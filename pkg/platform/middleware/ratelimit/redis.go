package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "proofgate:ratelimit:"

// RedisStore is a fixed-window counter shared across instances. INCR plus a
// first-writer EXPIRE keeps the whole check to one round trip.
type RedisStore struct {
	client *redis.Client
}

// NewRedis creates a limiter store backed by the given client.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Allow increments the key's window counter and compares it to the limit.
func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	redisKey := redisKeyPrefix + key

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, window)
	ttl := pipe.TTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("rate limit incr: %w", err)
	}

	count := int(incr.Val())
	resetAt := time.Now().Add(ttl.Val())

	if count > limit {
		return &Result{Allowed: false, Limit: limit, Remaining: 0, ResetAt: resetAt}, nil
	}
	return &Result{Allowed: true, Limit: limit, Remaining: limit - count, ResetAt: resetAt}, nil
}
