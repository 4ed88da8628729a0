package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a fixed-window counter limiter shared across gateway
// instances. One counter per key per window; the window key carries its own
// TTL so Redis handles expiry.
type RedisStore struct {
	rdb    redis.Cmdable
	prefix string
	limit  int
	window time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithPrefix sets the key namespace.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = strings.Trim(prefix, ":") }
}

// NewRedisStore creates a limiter allowing limit requests per key per
// window.
func NewRedisStore(rdb redis.Cmdable, limit int, window time.Duration, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		rdb:    rdb,
		prefix: "ratelimit",
		limit:  limit,
		window: window,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow implements Limiter. Counter errors are returned to the caller; the
// caller decides whether to fail open.
func (s *RedisStore) Allow(ctx context.Context, key string) (bool, error) {
	k := windowKey(s.prefix, key, time.Now(), s.window)

	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit counter for %s: %w", key, err)
	}

	return incr.Val() <= int64(s.limit), nil
}

// windowKey buckets time into fixed windows so all gateway instances count
// against the same Redis key within a window.
func windowKey(prefix, key string, now time.Time, window time.Duration) string {
	bucket := now.UnixNano() / int64(window)
	return fmt.Sprintf("%s:%s:%d", prefix, key, bucket)
}
