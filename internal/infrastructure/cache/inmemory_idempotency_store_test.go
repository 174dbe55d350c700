package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore(t *testing.T) {
	ctx := context.Background()

	t.Run("first mark wins", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		fresh, err := store.MarkProcessed(ctx, "wave:TX-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, fresh)

		fresh, err = store.MarkProcessed(ctx, "wave:TX-1", time.Hour)
		require.NoError(t, err)
		assert.False(t, fresh)

		processed, err := store.IsProcessed(ctx, "wave:TX-1")
		require.NoError(t, err)
		assert.True(t, processed)
	})

	t.Run("expired keys can be marked again", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()
		now := time.Now()
		store.now = func() time.Time { return now }

		_, _ = store.MarkProcessed(ctx, "event-1", time.Minute)
		now = now.Add(2 * time.Minute)

		processed, _ := store.IsProcessed(ctx, "event-1")
		assert.False(t, processed)
		fresh, err := store.MarkProcessed(ctx, "event-1", time.Minute)
		require.NoError(t, err)
		assert.True(t, fresh)
	})

	t.Run("release forgets the key", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		_, _ = store.MarkProcessed(ctx, "event-2", time.Hour)
		require.NoError(t, store.Release(ctx, "event-2"))

		fresh, _ := store.MarkProcessed(ctx, "event-2", time.Hour)
		assert.True(t, fresh)
	})

	t.Run("sweep removes expired keys", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()
		now := time.Now()
		store.now = func() time.Time { return now }

		_, _ = store.MarkProcessed(ctx, "short", time.Second)
		_, _ = store.MarkProcessed(ctx, "long", time.Hour)
		now = now.Add(time.Minute)
		store.removeExpired()

		assert.Equal(t, 1, store.Size())
	})

	t.Run("concurrent marks give one winner", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		var winners atomic.Int32
		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if fresh, _ := store.MarkProcessed(ctx, "orange_money:TX-9", time.Hour); fresh {
					winners.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), winners.Load())
	})

	t.Run("close is idempotent", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		assert.NoError(t, store.Close())
		assert.NoError(t, store.Close())
	})
}
