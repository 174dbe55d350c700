//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisStores(t *testing.T) {
	ctx := context.Background()
	client := startRedis(t)

	t.Run("rate limiter shares one budget", func(t *testing.T) {
		a := NewRedisRateLimiter(client, "test:ratelimit:", 2, time.Minute)
		b := NewRedisRateLimiter(client, "test:ratelimit:", 2, time.Minute)

		q, err := a.Take(ctx, "ip:10.0.0.1")
		require.NoError(t, err)
		assert.True(t, q.Allowed)
		assert.Equal(t, 1, q.Remaining)

		q, err = b.Take(ctx, "ip:10.0.0.1")
		require.NoError(t, err)
		assert.True(t, q.Allowed)

		q, err = a.Take(ctx, "ip:10.0.0.1")
		require.NoError(t, err)
		assert.False(t, q.Allowed)
		assert.LessOrEqual(t, q.RetryAfter, time.Minute)

		ttl, err := client.TTL(ctx, "test:ratelimit:ip:10.0.0.1").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})

	t.Run("idempotency keys are set once", func(t *testing.T) {
		store := NewRedisIdempotencyStore(client, "test:idempotency:")
		first, err := store.MarkProcessed(ctx, "payment-completed:evt-1", time.Hour)
		require.NoError(t, err)
		second, err := store.MarkProcessed(ctx, "payment-completed:evt-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, first)
		assert.False(t, second)

		processed, err := store.IsProcessed(ctx, "payment-completed:evt-1")
		require.NoError(t, err)
		assert.True(t, processed)
	})
}
