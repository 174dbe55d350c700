package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCustomer(t *testing.T) {
	t.Run("creates customer with normalized phone", func(t *testing.T) {
		user, err := NewCustomer("77 123 45 67", "Awa Diop", "Password123")
		require.NoError(t, err)
		assert.Equal(t, "+221771234567", user.Phone)
		assert.Equal(t, RoleCustomer, user.Role)
		assert.Nil(t, user.OrganizationID)
		assert.True(t, user.IsActive)
		assert.NotEqual(t, "Password123", user.PasswordHash)
		assert.True(t, user.VerifyPassword("Password123"))
		assert.False(t, user.VerifyPassword("wrong"))

		events := user.GetDomainEvents()
		require.Len(t, events, 1)
		_, ok := events[0].(*UserRegisteredEvent)
		assert.True(t, ok)
	})

	t.Run("fails with invalid phone", func(t *testing.T) {
		_, err := NewCustomer("12345", "Awa Diop", "Password123")
		assert.Error(t, err)
	})

	t.Run("fails with weak password", func(t *testing.T) {
		_, err := NewCustomer("771234567", "Awa Diop", "password")
		assert.Error(t, err)
		_, err = NewCustomer("771234567", "Awa Diop", "short1")
		assert.Error(t, err)
	})

	t.Run("fails with empty name", func(t *testing.T) {
		_, err := NewCustomer("771234567", "  ", "Password123")
		assert.Error(t, err)
	})
}

func TestNewStaff(t *testing.T) {
	orgID := uuid.New()

	user, err := NewStaff(orgID, "+221761234567", "Moussa Fall", "Password123", RoleStaff)
	require.NoError(t, err)
	assert.True(t, user.BelongsTo(orgID))
	assert.False(t, user.BelongsTo(uuid.New()))
	assert.True(t, user.Role.IsStaff())
	assert.Equal(t, orgID, user.GetDomainEvents()[0].OrganizationID())

	_, err = NewStaff(orgID, "+221761234567", "Moussa Fall", "Password123", RoleSuperAdmin)
	assert.Error(t, err)
}

func TestUser_LoginLockout(t *testing.T) {
	user, err := NewCustomer("771234567", "Awa Diop", "Password123")
	require.NoError(t, err)
	now := time.Now()

	for i := 0; i < MaxFailedAttempts-1; i++ {
		assert.False(t, user.RecordLoginFailure(now))
	}
	assert.True(t, user.RecordLoginFailure(now))
	assert.True(t, user.IsLocked(now))
	assert.False(t, user.CanLogin(now))
	assert.True(t, user.CanLogin(now.Add(LockDuration+time.Second)))

	user.RecordLoginSuccess(now.Add(LockDuration + time.Second))
	assert.Nil(t, user.LockedUntil)
	assert.NotNil(t, user.LastLoginAt)
}

func TestUser_ChangePassword(t *testing.T) {
	user, err := NewCustomer("771234567", "Awa Diop", "Password123")
	require.NoError(t, err)

	assert.Error(t, user.ChangePassword("bad", "Newpass456"))
	require.NoError(t, user.ChangePassword("Password123", "Newpass456"))
	assert.True(t, user.VerifyPassword("Newpass456"))
}

func TestRole_IsValid(t *testing.T) {
	assert.True(t, RoleAdmin.IsValid())
	assert.False(t, Role("root").IsValid())
	assert.False(t, RoleCustomer.IsStaff())
}
