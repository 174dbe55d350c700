package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-characters",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "smartqueue-test",
	})
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := newTestJWTService()

	t.Run("staff token carries the organization", func(t *testing.T) {
		userID, orgID := uuid.New(), uuid.New()
		token, err := svc.GenerateAccessToken(TokenInput{
			UserID:         userID,
			OrganizationID: &orgID,
			Role:           "staff",
			Phone:          "+221771234567",
		})
		require.NoError(t, err)
		assert.Equal(t, "Bearer", token.TokenType)
		assert.WithinDuration(t, time.Now().Add(15*time.Minute), token.ExpiresAt, 2*time.Second)

		claims, err := svc.ValidateAccessToken(token.Token)
		require.NoError(t, err)
		assert.Equal(t, userID.String(), claims.UserID)
		assert.Equal(t, "staff", claims.Role)
		assert.NotEmpty(t, claims.ID)

		parsedOrg, err := claims.OrganizationUUID()
		require.NoError(t, err)
		assert.Equal(t, &orgID, parsedOrg)
		parsedUser, err := claims.UserUUID()
		require.NoError(t, err)
		assert.Equal(t, userID, parsedUser)
	})

	t.Run("customer token has no organization", func(t *testing.T) {
		token, err := svc.GenerateAccessToken(TokenInput{UserID: uuid.New(), Role: "customer"})
		require.NoError(t, err)

		claims, err := svc.ValidateAccessToken(token.Token)
		require.NoError(t, err)
		orgID, err := claims.OrganizationUUID()
		require.NoError(t, err)
		assert.Nil(t, orgID)
	})

	t.Run("each token gets its own jti", func(t *testing.T) {
		input := TokenInput{UserID: uuid.New(), Role: "customer"}
		a, _ := svc.GenerateAccessToken(input)
		b, _ := svc.GenerateAccessToken(input)

		ca, _ := svc.ValidateAccessToken(a.Token)
		cb, _ := svc.ValidateAccessToken(b.Token)
		assert.NotEqual(t, ca.ID, cb.ID)
	})
}

func TestJWTService_ValidateAccessToken_Errors(t *testing.T) {
	svc := newTestJWTService()

	t.Run("expired", func(t *testing.T) {
		token, err := svc.GenerateAccessToken(TokenInput{UserID: uuid.New(), Role: "customer"})
		require.NoError(t, err)

		later := newTestJWTService()
		later.now = func() time.Time { return time.Now().Add(time.Hour) }
		_, err = later.ValidateAccessToken(token.Token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, _ := svc.GenerateAccessToken(TokenInput{UserID: uuid.New(), Role: "customer"})

		other := NewJWTService(config.JWTConfig{
			Secret:                "another-secret-key-at-least-32-chars",
			AccessTokenExpiration: time.Minute,
			Issuer:                "smartqueue-test",
		})
		_, err := other.ValidateAccessToken(token.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateAccessToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing role", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "smartqueue-test",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
			UserID: uuid.NewString(),
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.secret)
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(signed)
		assert.ErrorIs(t, err, ErrMissingRole)
	})

	t.Run("none algorithm rejected", func(t *testing.T) {
		claims := &Claims{UserID: uuid.NewString(), Role: "super_admin"}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestClaims_RemainingTTL(t *testing.T) {
	now := time.Now()
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute))}}

	assert.InDelta(t, (10 * time.Minute).Seconds(), claims.RemainingTTL(now).Seconds(), 1)
	assert.Zero(t, claims.RemainingTTL(now.Add(time.Hour)))
	assert.Zero(t, (&Claims{}).RemainingTTL(now))
}
