package identity

import (
	"github.com/google/uuid"

	"github.com/smartqueue/backend/internal/domain/shared"
)

// Aggregate type constant for User
const AggregateTypeUser = "User"

// EventTypeUserRegistered is raised when a customer registers or staff is created
const EventTypeUserRegistered = "UserRegistered"

// UserRegisteredEvent is published when a user is created
type UserRegisteredEvent struct {
	shared.BaseDomainEvent
	Phone string `json:"phone"`
	Role  Role   `json:"role"`
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent
func NewUserRegisteredEvent(user *User) *UserRegisteredEvent {
	orgID := uuid.Nil
	if user.OrganizationID != nil {
		orgID = *user.OrganizationID
	}
	return &UserRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRegistered, AggregateTypeUser, user.ID, orgID),
		Phone:           user.Phone,
		Role:            user.Role,
	}
}
