package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRateLimitPrefix namespaces rate limit counters in Redis
const DefaultRateLimitPrefix = "smartqueue:ratelimit:"

// Quota is the outcome of taking one request from a fixed-window budget
type Quota struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

func newQuota(limit, used int, resetIn time.Duration) Quota {
	q := Quota{Allowed: used <= limit, Limit: limit, Remaining: max(limit-used, 0)}
	if !q.Allowed {
		q.RetryAfter = resetIn
	}
	return q
}

// MemoryRateLimiter counts requests per key in process memory. Counters are not
// shared between instances.
type MemoryRateLimiter struct {
	mu        sync.Mutex
	windows   map[string]*window
	limit     int
	period    time.Duration
	nextSweep time.Time
	now       func() time.Time
}

type window struct {
	started time.Time
	used    int
}

// NewMemoryRateLimiter allows limit requests per key in every period
func NewMemoryRateLimiter(limit int, period time.Duration) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     time.Now,
	}
}

// Take counts one request against key
func (l *MemoryRateLimiter) Take(_ context.Context, key string) (Quota, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	w, ok := l.windows[key]
	if !ok || now.Sub(w.started) >= l.period {
		w = &window{started: now}
		l.windows[key] = w
	}
	w.used++
	return newQuota(l.limit, w.used, w.started.Add(l.period).Sub(now)), nil
}

// sweep drops finished windows at most once per period
func (l *MemoryRateLimiter) sweep(now time.Time) {
	if now.Before(l.nextSweep) {
		return
	}
	for key, w := range l.windows {
		if now.Sub(w.started) >= l.period {
			delete(l.windows, key)
		}
	}
	l.nextSweep = now.Add(l.period)
}

// RedisRateLimiter counts requests per key in Redis so every instance shares
// the same budget
type RedisRateLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	period time.Duration
}

// NewRedisRateLimiter allows limit requests per key in every period
func NewRedisRateLimiter(client *redis.Client, prefix string, limit int, period time.Duration) *RedisRateLimiter {
	if prefix == "" {
		prefix = DefaultRateLimitPrefix
	}
	return &RedisRateLimiter{client: client, prefix: prefix, limit: limit, period: period}
}

// Take increments the key's counter; the first request of a window sets its expiry
func (l *RedisRateLimiter) Take(ctx context.Context, key string) (Quota, error) {
	k := l.prefix + key
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, l.period)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return Quota{}, fmt.Errorf("failed to count request for %s: %w", key, err)
	}

	resetIn := ttl.Val()
	if resetIn <= 0 {
		resetIn = l.period
	}
	return newQuota(l.limit, int(incr.Val()), resetIn), nil
}

// RateLimiter is what the HTTP layer takes requests from
type RateLimiter interface {
	Take(ctx context.Context, key string) (Quota, error)
}

// NewRateLimiter returns a Redis limiter when client is connected, an in-memory one otherwise
func NewRateLimiter(client *redis.Client, prefix string, limit int, period time.Duration) RateLimiter {
	if client == nil {
		return NewMemoryRateLimiter(limit, period)
	}
	return NewRedisRateLimiter(client, prefix, limit, period)
}
