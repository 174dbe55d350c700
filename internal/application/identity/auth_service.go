package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/smartqueue/backend/internal/domain/identity"
	"github.com/smartqueue/backend/internal/domain/shared"
	"github.com/smartqueue/backend/internal/domain/shared/valueobject"
	"github.com/smartqueue/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid phone number or password")
	ErrAccountLocked      = shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed attempts. Try again later")
	ErrAccountInactive    = shared.NewDomainError("ACCOUNT_INACTIVE", "Account has been deactivated")
	ErrPhoneTaken         = shared.NewDomainError("ALREADY_EXISTS", "This phone number is already registered")
	ErrUserNotFound       = shared.NewDomainError("USER_NOT_FOUND", "User not found")
)

// TokenIssuer signs access tokens
type TokenIssuer interface {
	GenerateAccessToken(input auth.TokenInput) (*auth.AccessToken, error)
}

// AuthService registers customers and logs users in and out
type AuthService struct {
	users     identity.UserRepository
	tokens    TokenIssuer
	blacklist auth.TokenBlacklist
	events    shared.EventRecorder
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	users identity.UserRepository,
	tokens TokenIssuer,
	blacklist auth.TokenBlacklist,
	events shared.EventRecorder,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		blacklist: blacklist,
		events:    events,
		logger:    logger,
		now:       time.Now,
	}
}

// Register creates a customer account and logs it in
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	phone, err := valueobject.NewPhone(req.Phone)
	if err != nil {
		return nil, err
	}
	exists, err := s.users.ExistsByPhone(ctx, phone.String())
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrPhoneTaken
	}

	user, err := identity.NewCustomer(phone.String(), req.FullName, req.Password)
	if err != nil {
		return nil, err
	}
	if err := user.SetEmail(req.Email); err != nil {
		return nil, err
	}
	user.RecordLoginSuccess(s.now())
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.record(ctx, user)

	s.logger.Info("Customer registered", zap.String("user_id", user.ID.String()))
	return s.issue(user)
}

// Login checks the phone and password. Five failures in a row lock the account for 15 minutes.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	phone, err := valueobject.NewPhone(req.Phone)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.FindByPhone(ctx, phone.String())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login for unknown phone", zap.String("phone", phone.Local()))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := s.now()
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	if user.IsLocked(now) {
		s.logger.Warn("Login attempt for locked account", zap.String("user_id", user.ID.String()))
		return nil, ErrAccountLocked
	}

	if !user.VerifyPassword(req.Password) {
		locked := user.RecordLoginFailure(now)
		if err := s.users.Update(ctx, user); err != nil {
			s.logger.Error("Failed to update user after login failure", zap.Error(err))
		}
		if locked {
			s.logger.Warn("Account locked after too many failed attempts",
				zap.String("user_id", user.ID.String()),
				zap.Int("attempts", identity.MaxFailedAttempts))
			return nil, ErrAccountLocked
		}
		s.logger.Warn("Invalid password attempt",
			zap.String("user_id", user.ID.String()),
			zap.Int("failed_attempts", user.FailedAttempts))
		return nil, ErrInvalidCredentials
	}

	user.RecordLoginSuccess(now)
	if err := s.users.Update(ctx, user); err != nil {
		// the login still succeeds
		s.logger.Error("Failed to update user after successful login", zap.Error(err))
	}

	s.logger.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)))
	return s.issue(user)
}

// Logout revokes the presented token until it would have expired
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.TokenJTI == "" || input.TokenTTL <= 0 {
		return nil
	}
	if err := s.blacklist.Revoke(ctx, input.TokenJTI, input.TokenTTL); err != nil {
		s.logger.Error("Failed to revoke token", zap.String("user_id", input.UserID.String()), zap.Error(err))
		return err
	}
	s.logger.Info("User logged out", zap.String("user_id", input.UserID.String()))
	return nil
}

// Me returns the actor's own account
func (s *AuthService) Me(ctx context.Context, actor identity.Actor) (*UserResponse, error) {
	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// ChangePassword replaces the actor's password
func (s *AuthService) ChangePassword(ctx context.Context, actor identity.Actor, req ChangePasswordRequest) error {
	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if err := user.ChangePassword(req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	s.logger.Info("User password changed", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *AuthService) issue(user *identity.User) (*AuthResponse, error) {
	token, err := s.tokens.GenerateAccessToken(auth.TokenInput{
		UserID:         user.ID,
		OrganizationID: user.OrganizationID,
		Role:           string(user.Role),
		Phone:          user.Phone,
	})
	if err != nil {
		s.logger.Error("Failed to generate access token", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication token")
	}
	return &AuthResponse{
		AccessToken: token.Token,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt,
		User:        ToUserResponse(user),
	}, nil
}

func (s *AuthService) record(ctx context.Context, user *identity.User) {
	events := shared.PullEvents(user)
	if len(events) == 0 || s.events == nil {
		return
	}
	if err := s.events.Record(ctx, events...); err != nil {
		s.logger.Warn("Failed to record user events", zap.Error(err))
	}
}

func normalizeSearch(search string) string {
	return strings.TrimSpace(search)
}
