package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTokenBlacklist(t *testing.T) {
	ctx := context.Background()

	t.Run("revoked jti is reported", func(t *testing.T) {
		blacklist := NewInMemoryTokenBlacklist()
		require.NoError(t, blacklist.Revoke(ctx, "jti-1", time.Hour))

		revoked, err := blacklist.IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, revoked)

		revoked, err = blacklist.IsRevoked(ctx, "jti-2")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("entry lapses with the token", func(t *testing.T) {
		blacklist := NewInMemoryTokenBlacklist()
		now := time.Now()
		blacklist.now = func() time.Time { return now }

		require.NoError(t, blacklist.Revoke(ctx, "jti-3", time.Minute))
		now = now.Add(2 * time.Minute)

		revoked, err := blacklist.IsRevoked(ctx, "jti-3")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("already expired token is not stored", func(t *testing.T) {
		blacklist := NewInMemoryTokenBlacklist()
		require.NoError(t, blacklist.Revoke(ctx, "jti-4", 0))
		assert.Empty(t, blacklist.revoked)
	})
}

func TestNewTokenBlacklist(t *testing.T) {
	assert.IsType(t, &InMemoryTokenBlacklist{}, NewTokenBlacklist(nil))
}
