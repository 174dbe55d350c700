package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRateLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("blocks requests over the limit", func(t *testing.T) {
		l := NewMemoryRateLimiter(3, time.Minute)
		for i := range 3 {
			q, err := l.Take(ctx, "kiosk")
			require.NoError(t, err)
			assert.True(t, q.Allowed, "request %d", i+1)
			assert.Equal(t, 2-i, q.Remaining)
		}
		q, err := l.Take(ctx, "kiosk")
		require.NoError(t, err)
		assert.False(t, q.Allowed)
		assert.Equal(t, 0, q.Remaining)
		assert.Equal(t, 3, q.Limit)
		assert.Greater(t, q.RetryAfter, time.Duration(0))
	})

	t.Run("separate budgets per key", func(t *testing.T) {
		l := NewMemoryRateLimiter(1, time.Minute)
		first, _ := l.Take(ctx, "a")
		second, _ := l.Take(ctx, "a")
		other, _ := l.Take(ctx, "b")
		assert.True(t, first.Allowed)
		assert.False(t, second.Allowed)
		assert.True(t, other.Allowed)
	})

	t.Run("new window after the period", func(t *testing.T) {
		now := time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)
		l := NewMemoryRateLimiter(1, time.Minute)
		l.now = func() time.Time { return now }

		q, _ := l.Take(ctx, "counter")
		assert.True(t, q.Allowed)
		q, _ = l.Take(ctx, "counter")
		assert.False(t, q.Allowed)
		assert.Equal(t, time.Minute, q.RetryAfter)

		now = now.Add(61 * time.Second)
		q, _ = l.Take(ctx, "counter")
		assert.True(t, q.Allowed)
	})

	t.Run("sweeps finished windows", func(t *testing.T) {
		now := time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)
		l := NewMemoryRateLimiter(5, time.Minute)
		l.now = func() time.Time { return now }
		for _, key := range []string{"a", "b", "c"} {
			_, _ = l.Take(ctx, key)
		}
		now = now.Add(2 * time.Minute)
		_, _ = l.Take(ctx, "d")
		assert.Len(t, l.windows, 1)
	})

	t.Run("concurrent access", func(t *testing.T) {
		l := NewMemoryRateLimiter(50, time.Minute)
		var wg sync.WaitGroup
		var mu sync.Mutex
		allowed := 0
		for range 100 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if q, _ := l.Take(ctx, "burst"); q.Allowed {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 50, allowed)
	})
}

func TestNewRateLimiter_FallsBackToMemory(t *testing.T) {
	l := NewRateLimiter(nil, "", 10, time.Minute)
	_, ok := l.(*MemoryRateLimiter)
	assert.True(t, ok)
}
