package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/identity"
	"github.com/smartqueue/backend/internal/domain/organization"
	"github.com/smartqueue/backend/internal/domain/shared"
	"github.com/smartqueue/backend/internal/infrastructure/auth"
	"github.com/smartqueue/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *identity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByPhone(ctx context.Context, phone string) (*identity.User, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	args := m.Called(ctx, phone)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) FindStaff(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) ([]identity.User, int64, error) {
	args := m.Called(ctx, organizationID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]identity.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) CountStaff(ctx context.Context, organizationID uuid.UUID) (int64, error) {
	args := m.Called(ctx, organizationID)
	return args.Get(0).(int64), args.Error(1)
}

// MockOrganizationRepository mocks the organization lookups of staff management
type MockOrganizationRepository struct {
	organization.OrganizationRepository
	mock.Mock
}

func (m *MockOrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.Organization), args.Error(1)
}

type recorder struct {
	events []shared.DomainEvent
}

func (r *recorder) Record(_ context.Context, events ...shared.DomainEvent) error {
	r.events = append(r.events, events...)
	return nil
}

var fixedNow = time.Date(2024, 3, 12, 10, 30, 0, 0, time.UTC)

func newJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-for-unit-tests-only",
		AccessTokenExpiration: time.Hour,
		Issuer:                "smartqueue",
	})
}

func newAuthService(users *MockUserRepository, blacklist auth.TokenBlacklist, events *recorder) *AuthService {
	svc := NewAuthService(users, newJWTService(), blacklist, events, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected a domain error, got %v", err)
	return de.Code
}

func newCustomer(t *testing.T) *identity.User {
	t.Helper()
	user, err := identity.NewCustomer("771234567", "Awa Diop", "Password123")
	require.NoError(t, err)
	user.ClearDomainEvents()
	return user
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("registers and logs in", func(t *testing.T) {
		users := new(MockUserRepository)
		events := &recorder{}
		users.On("ExistsByPhone", ctx, "+221771234567").Return(false, nil)
		users.On("Create", ctx, mock.AnythingOfType("*identity.User")).Return(nil).Once()

		resp, err := newAuthService(users, auth.NewInMemoryTokenBlacklist(), events).Register(ctx, RegisterRequest{
			Phone:    "77 123 45 67",
			FullName: "Awa Diop",
			Email:    "Awa@Example.SN",
			Password: "Password123",
		})
		require.NoError(t, err)

		assert.NotEmpty(t, resp.AccessToken)
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, "+221771234567", resp.User.Phone)
		assert.Equal(t, "awa@example.sn", resp.User.Email)
		assert.Equal(t, "customer", resp.User.Role)
		require.Len(t, events.events, 1)
		assert.Equal(t, identity.EventTypeUserRegistered, events.events[0].EventType())

		claims, err := newJWTService().ValidateAccessToken(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, resp.User.ID.String(), claims.UserID)
		assert.Equal(t, "customer", claims.Role)
		assert.Empty(t, claims.OrganizationID)
		users.AssertExpectations(t)
	})

	t.Run("phone already registered", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("ExistsByPhone", ctx, "+221771234567").Return(true, nil)

		_, err := newAuthService(users, auth.NewInMemoryTokenBlacklist(), &recorder{}).Register(ctx, RegisterRequest{
			Phone: "+221771234567", FullName: "Awa Diop", Password: "Password123",
		})
		assert.ErrorIs(t, err, ErrPhoneTaken)
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("invalid phone", func(t *testing.T) {
		users := new(MockUserRepository)
		_, err := newAuthService(users, auth.NewInMemoryTokenBlacklist(), &recorder{}).Register(ctx, RegisterRequest{
			Phone: "12345", FullName: "Awa Diop", Password: "Password123",
		})
		assert.Error(t, err)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success resets failed attempts", func(t *testing.T) {
		users := new(MockUserRepository)
		user := newCustomer(t)
		user.FailedAttempts = 3
		users.On("FindByPhone", ctx, "+221771234567").Return(user, nil)
		users.On("Update", ctx, user).Return(nil).Once()

		resp, err := newAuthService(users, auth.NewInMemoryTokenBlacklist(), &recorder{}).Login(ctx, LoginRequest{
			Phone: "771234567", Password: "Password123",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.Equal(t, 0, user.FailedAttempts)
		require.NotNil(t, user.LastLoginAt)
		assert.Equal(t, fixedNow, *user.LastLoginAt)
	})

	t.Run("unknown phone", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("FindByPhone", ctx, "+221771234567").Return(nil, shared.ErrNotFound)

		_, err := newAuthService(users, auth.NewInMemoryTokenBlacklist(), &recorder{}).Login(ctx, LoginRequest{
			Phone: "771234567", Password: "Password123",
		})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("locks after five failures", func(t *testing.T) {
		users := new(MockUserRepository)
		user := newCustomer(t)
		users.On("FindByPhone", ctx, "+221771234567").Return(user, nil)
		users.On("Update", ctx, user).Return(nil)
		svc := newAuthService(users, auth.NewInMemoryTokenBlacklist(), &recorder{})

		for i := 1; i < identity.MaxFailedAttempts; i++ {
			_, err := svc.Login(ctx, LoginRequest{Phone: "771234567", Password: "wrong"})
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			assert.Equal(t, i, user.FailedAttempts)
		}
		_, err := svc.Login(ctx, LoginRequest{Phone: "771234567", Password: "wrong"})
		assert.ErrorIs(t, err, ErrAccountLocked)
		require.NotNil(t, user.LockedUntil)
		assert.Equal(t, fixedNow.Add(identity.LockDuration), *user.LockedUntil)

		// even the right password is refused while locked
		_, err = svc.Login(ctx, LoginRequest{Phone: "771234567", Password: "Password123"})
		assert.ErrorIs(t, err, ErrAccountLocked)

		svc.now = func() time.Time { return fixedNow.Add(identity.LockDuration + time.Second) }
		_, err = svc.Login(ctx, LoginRequest{Phone: "771234567", Password: "Password123"})
		assert.NoError(t, err)
	})

	t.Run("deactivated account", func(t *testing.T) {
		users := new(MockUserRepository)
		user := newCustomer(t)
		require.NoError(t, user.Deactivate())
		users.On("FindByPhone", ctx, "+221771234567").Return(user, nil)

		_, err := newAuthService(users, auth.NewInMemoryTokenBlacklist(), &recorder{}).Login(ctx, LoginRequest{
			Phone: "771234567", Password: "Password123",
		})
		assert.Equal(t, "ACCOUNT_INACTIVE", domainCode(t, err))
	})

	t.Run("staff token carries the organization", func(t *testing.T) {
		users := new(MockUserRepository)
		orgID := uuid.New()
		user, err := identity.NewStaff(orgID, "781112233", "Moussa Fall", "Password123", identity.RoleAdmin)
		require.NoError(t, err)
		users.On("FindByPhone", ctx, "+221781112233").Return(user, nil)
		users.On("Update", ctx, user).Return(nil)

		resp, err := newAuthService(users, auth.NewInMemoryTokenBlacklist(), &recorder{}).Login(ctx, LoginRequest{
			Phone: "781112233", Password: "Password123",
		})
		require.NoError(t, err)
		claims, err := newJWTService().ValidateAccessToken(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, orgID.String(), claims.OrganizationID)
		assert.Equal(t, "admin", claims.Role)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	blacklist := auth.NewInMemoryTokenBlacklist()
	svc := newAuthService(new(MockUserRepository), blacklist, &recorder{})

	require.NoError(t, svc.Logout(ctx, LogoutInput{UserID: uuid.New(), TokenJTI: "jti-1", TokenTTL: time.Minute}))
	revoked, err := blacklist.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	require.NoError(t, svc.Logout(ctx, LogoutInput{UserID: uuid.New(), TokenJTI: "jti-2"}))
	revoked, err = blacklist.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestAuthService_MeAndChangePassword(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	user := newCustomer(t)
	users.On("FindByID", ctx, user.ID).Return(user, nil)
	users.On("FindByID", ctx, mock.Anything).Return(nil, shared.ErrNotFound)
	users.On("Update", ctx, user).Return(nil)
	svc := newAuthService(users, auth.NewInMemoryTokenBlacklist(), &recorder{})
	actor := identity.ActorOf(user)

	me, err := svc.Me(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, "Awa Diop", me.FullName)

	_, err = svc.Me(ctx, identity.Actor{UserID: uuid.New(), Role: identity.RoleCustomer})
	assert.ErrorIs(t, err, ErrUserNotFound)

	err = svc.ChangePassword(ctx, actor, ChangePasswordRequest{OldPassword: "nope", NewPassword: "NewPassword1"})
	assert.Equal(t, "INVALID_PASSWORD", domainCode(t, err))

	require.NoError(t, svc.ChangePassword(ctx, actor, ChangePasswordRequest{OldPassword: "Password123", NewPassword: "NewPassword1"}))
	assert.True(t, user.VerifyPassword("NewPassword1"))
}
