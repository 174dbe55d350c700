package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/smartqueue/backend/internal/domain/shared"
	"github.com/smartqueue/backend/internal/domain/shared/valueobject"
)

// Role decides what a user may do
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleStaff      Role = "staff"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// IsValid checks if the role is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleStaff, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role works at an organization's counters or above
func (r Role) IsStaff() bool {
	return r == RoleStaff || r == RoleAdmin || r == RoleSuperAdmin
}

// Password cost for bcrypt
const bcryptCost = 12

const (
	MaxFailedAttempts = 5
	LockDuration      = 15 * time.Minute
)

// User is a customer or a member of an organization's staff
type User struct {
	shared.BaseAggregateRoot
	Phone          string
	FullName       string
	Email          string
	PasswordHash   string
	Role           Role
	OrganizationID *uuid.UUID
	IsActive       bool
	LastLoginAt    *time.Time
	FailedAttempts int
	LockedUntil    *time.Time
}

// NewCustomer registers a customer
func NewCustomer(phone, fullName, password string) (*User, error) {
	return newUser(phone, fullName, password, RoleCustomer, nil)
}

// NewStaff creates a staff member or admin of an organization
func NewStaff(organizationID uuid.UUID, phone, fullName, password string, role Role) (*User, error) {
	if role != RoleStaff && role != RoleAdmin {
		return nil, shared.NewDomainError("INVALID_ROLE", "Organization members are staff or admin")
	}
	return newUser(phone, fullName, password, role, &organizationID)
}

func newUser(phone, fullName, password string, role Role, organizationID *uuid.UUID) (*User, error) {
	normalized, err := valueobject.NewPhone(phone)
	if err != nil {
		return nil, err
	}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" || len(fullName) > 150 {
		return nil, shared.NewDomainError("INVALID_NAME", "Full name must be 1 to 150 characters")
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	user := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Phone:             normalized.String(),
		FullName:          fullName,
		PasswordHash:      hash,
		Role:              role,
		OrganizationID:    organizationID,
		IsActive:          true,
	}
	user.AddDomainEvent(NewUserRegisteredEvent(user))
	return user, nil
}

// SetEmail sets the user's email
func (u *User) SetEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" && !emailPattern.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	u.Email = email
	u.Touch()
	return nil
}

// VerifyPassword checks a password against the stored hash
func (u *User) VerifyPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// ChangePassword replaces the password after checking the old one
func (u *User) ChangePassword(oldPassword, newPassword string) error {
	if !u.VerifyPassword(oldPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	u.PasswordHash = hash
	u.Touch()
	return nil
}

// IsLocked reports whether failed logins locked the account at now
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// CanLogin reports whether the user may log in at now
func (u *User) CanLogin(now time.Time) bool {
	return u.IsActive && !u.IsLocked(now)
}

// RecordLoginSuccess clears failed attempts
func (u *User) RecordLoginSuccess(now time.Time) {
	u.LastLoginAt = &now
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.UpdatedAt = now
}

// RecordLoginFailure counts a failed login and locks the account after too many; returns true when locked
func (u *User) RecordLoginFailure(now time.Time) bool {
	u.FailedAttempts++
	u.UpdatedAt = now
	if u.FailedAttempts >= MaxFailedAttempts {
		until := now.Add(LockDuration)
		u.LockedUntil = &until
		u.FailedAttempts = 0
		return true
	}
	return false
}

// Deactivate disables the account
func (u *User) Deactivate() error {
	if !u.IsActive {
		return shared.NewDomainError("ALREADY_INACTIVE", "User is already inactive")
	}
	u.IsActive = false
	u.Touch()
	return nil
}

// BelongsTo reports whether the user works for the organization
func (u *User) BelongsTo(organizationID uuid.UUID) bool {
	return u.OrganizationID != nil && *u.OrganizationID == organizationID
}

var emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}

	hasLetter := regexp.MustCompile(`[a-zA-Z]`).MatchString(password)
	hasNumber := regexp.MustCompile(`[0-9]`).MatchString(password)
	if !hasLetter || !hasNumber {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
