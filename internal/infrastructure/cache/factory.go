package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/smartqueue/backend/internal/domain/shared"
	"github.com/smartqueue/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Stores bundles the Redis client, when one is connected, with the idempotency
// store built on it
type Stores struct {
	Redis       *redis.Client
	Idempotency shared.IdempotencyStore
}

// Close releases the idempotency store and the client
func (s *Stores) Close() error {
	if s.Idempotency != nil {
		return s.Idempotency.Close()
	}
	return nil
}

// NewStores connects to Redis when enabled and falls back to in-memory stores
// when it is disabled or unreachable. In production an unreachable Redis is an error.
func NewStores(ctx context.Context, cfg config.RedisConfig, production bool, logger *zap.Logger) (*Stores, error) {
	if !cfg.Enabled {
		logger.Info("redis disabled, using in-memory idempotency store")
		return &Stores{Idempotency: NewInMemoryIdempotencyStore()}, nil
	}

	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		if production {
			return nil, fmt.Errorf("redis is required in production: %w", err)
		}
		logger.Warn("redis unavailable, falling back to in-memory idempotency store", zap.Error(err))
		return &Stores{Idempotency: NewInMemoryIdempotencyStore()}, nil
	}

	logger.Info("using redis idempotency store", zap.String("addr", cfg.Addr()))
	return &Stores{
		Redis:       client,
		Idempotency: NewRedisIdempotencyStore(client, ""),
	}, nil
}
