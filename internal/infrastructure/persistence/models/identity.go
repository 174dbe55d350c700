package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/identity"
)

// UserModel is the persistence model for customers and staff.
// Staff rows carry the organization they work for; customers have none.
type UserModel struct {
	AggregateModel
	Phone          string        `gorm:"type:varchar(20);not null;uniqueIndex"`
	FullName       string        `gorm:"type:varchar(200);not null"`
	Email          string        `gorm:"type:varchar(200)"`
	PasswordHash   string        `gorm:"type:varchar(255);not null"`
	Role           identity.Role `gorm:"type:varchar(20);not null;default:'customer';index"`
	OrganizationID *uuid.UUID    `gorm:"type:uuid;index"`
	IsActive       bool          `gorm:"not null;default:true"`
	LastLoginAt    *time.Time
	FailedAttempts int `gorm:"not null;default:0"`
	LockedUntil    *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.toAggregate(),
		Phone:             m.Phone,
		FullName:          m.FullName,
		Email:             m.Email,
		PasswordHash:      m.PasswordHash,
		Role:              m.Role,
		OrganizationID:    m.OrganizationID,
		IsActive:          m.IsActive,
		LastLoginAt:       m.LastLoginAt,
		FailedAttempts:    m.FailedAttempts,
		LockedUntil:       m.LockedUntil,
	}
}

// UserModelFromDomain builds the model for u
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Phone:          u.Phone,
		FullName:       u.FullName,
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		Role:           u.Role,
		OrganizationID: u.OrganizationID,
		IsActive:       u.IsActive,
		LastLoginAt:    u.LastLoginAt,
		FailedAttempts: u.FailedAttempts,
		LockedUntil:    u.LockedUntil,
	}
	m.fromAggregate(u.BaseAggregateRoot)
	return m
}
