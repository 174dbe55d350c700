package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/identity"
)

// RegisterRequest represents a customer sign-up
type RegisterRequest struct {
	Phone    string `json:"phone" binding:"required,sn_phone"`
	FullName string `json:"full_name" binding:"required,min=1,max=150"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// LoginRequest represents a phone and password login
type LoginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CreateStaffRequest represents an admin adding a member to their organization
type CreateStaffRequest struct {
	OrganizationID *uuid.UUID `json:"organization_id"`
	Phone          string     `json:"phone" binding:"required,sn_phone"`
	FullName       string     `json:"full_name" binding:"required,min=1,max=150"`
	Email          string     `json:"email" binding:"omitempty,email"`
	Password       string     `json:"password" binding:"required,min=8,max=72"`
	Role           string     `json:"role" binding:"omitempty,oneof=staff admin"`
}

// StaffListFilter narrows staff listings
type StaffListFilter struct {
	Page           int        `form:"page" binding:"omitempty,min=1"`
	PageSize       int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search         string     `form:"search"`
	OrganizationID *uuid.UUID `form:"-"`
}

// ChangePasswordRequest represents a password change by its owner
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

// LogoutInput identifies the token being revoked
type LogoutInput struct {
	UserID   uuid.UUID
	TokenJTI string
	// TokenTTL is the time left before the token would have expired
	TokenTTL time.Duration
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID             uuid.UUID  `json:"id"`
	Phone          string     `json:"phone"`
	FullName       string     `json:"full_name"`
	Email          string     `json:"email,omitempty"`
	Role           string     `json:"role"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	IsActive       bool       `json:"is_active"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ToUserResponse converts a user to its response
func ToUserResponse(u *identity.User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		Phone:          u.Phone,
		FullName:       u.FullName,
		Email:          u.Email,
		Role:           string(u.Role),
		OrganizationID: u.OrganizationID,
		IsActive:       u.IsActive,
		LastLoginAt:    u.LastLoginAt,
		CreatedAt:      u.CreatedAt,
	}
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}
