package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/smartqueue/backend/internal/domain/shared"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// Update updates an existing user
	Update(ctx context.Context, user *User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByPhone finds a user by normalized phone number
	FindByPhone(ctx context.Context, phone string) (*User, error)

	// ExistsByPhone checks if a phone number is already registered
	ExistsByPhone(ctx context.Context, phone string) (bool, error)

	// FindStaff lists the staff and admins of an organization
	FindStaff(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) ([]User, int64, error)

	// CountStaff counts active staff and admins of an organization
	CountStaff(ctx context.Context, organizationID uuid.UUID) (int64, error)
}
