package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter counts requests per key over a fixed window
type RateLimiter interface {
	// Allow records one hit for key and reports whether it stays within limit
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RedisRateLimiter uses INCR with a window-scoped expiry. Counters shared
// across instances, so the limit holds fleet-wide.
type RedisRateLimiter struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisRateLimiter creates a Redis-backed rate limiter
func NewRedisRateLimiter(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:    client,
		keyPrefix: "ratelimit:",
	}
}

// Allow increments the counter for key and checks it against limit. The
// expiry is set only on the first hit of a window so the window does not
// slide forward on every request.
func (l *RedisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	fullKey := l.keyPrefix + key

	count, err := l.client.Incr(ctx, fullKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate counter: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, fullKey, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate counter expiry: %w", err)
		}
	}
	return count <= int64(limit), nil
}

var _ RateLimiter = (*RedisRateLimiter)(nil)

// InMemoryRateLimiter is a process-local limiter for development and tests
type InMemoryRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*countWindow
}

type countWindow struct {
	count   int
	resetAt time.Time
}

// NewInMemoryRateLimiter creates an in-memory rate limiter
func NewInMemoryRateLimiter() *InMemoryRateLimiter {
	return &InMemoryRateLimiter{
		windows: make(map[string]*countWindow),
	}
}

// Allow records a hit and reports whether key stays within limit
func (l *InMemoryRateLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &countWindow{resetAt: now.Add(window)}
		l.windows[key] = w
	}
	w.count++
	return w.count <= limit, nil
}

var _ RateLimiter = (*InMemoryRateLimiter)(nil)
