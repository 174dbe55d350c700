package identity

import (
	"github.com/google/uuid"

	"github.com/smartqueue/backend/internal/domain/shared"
)

// Actor is the authenticated user performing an operation
type Actor struct {
	UserID         uuid.UUID
	OrganizationID *uuid.UUID
	Role           Role
	Phone          string
}

// ActorOf builds the actor for a loaded user
func ActorOf(u *User) Actor {
	return Actor{UserID: u.ID, OrganizationID: u.OrganizationID, Role: u.Role, Phone: u.Phone}
}

// IsSuperAdmin reports whether the actor may act on every organization
func (a Actor) IsSuperAdmin() bool {
	return a.Role == RoleSuperAdmin
}

// IsStaff reports whether the actor works at counters or administers an organization
func (a Actor) IsStaff() bool {
	return a.Role.IsStaff()
}

// IsCustomer reports whether the actor is a customer
func (a Actor) IsCustomer() bool {
	return a.Role == RoleCustomer
}

// CanManage reports whether the actor is staff of organizationID, or a super admin
func (a Actor) CanManage(organizationID uuid.UUID) bool {
	if a.IsSuperAdmin() {
		return true
	}
	return a.IsStaff() && a.OrganizationID != nil && *a.OrganizationID == organizationID
}

// CanAdminister reports whether the actor is an admin of organizationID, or a super admin
func (a Actor) CanAdminister(organizationID uuid.UUID) bool {
	if a.IsSuperAdmin() {
		return true
	}
	return a.Role == RoleAdmin && a.OrganizationID != nil && *a.OrganizationID == organizationID
}

// RequireStaff returns ErrForbidden unless the actor can manage organizationID
func (a Actor) RequireStaff(organizationID uuid.UUID) error {
	if !a.CanManage(organizationID) {
		return shared.ErrForbidden
	}
	return nil
}

// Organization resolves the organization a staff query runs against.
// Staff always use their own; a super admin names one explicitly.
func (a Actor) Organization(requested *uuid.UUID) (uuid.UUID, error) {
	if a.IsSuperAdmin() {
		if requested == nil || *requested == uuid.Nil {
			return uuid.Nil, shared.NewDomainError("ORGANIZATION_REQUIRED", "organization_id is required")
		}
		return *requested, nil
	}
	if !a.IsStaff() || a.OrganizationID == nil {
		return uuid.Nil, shared.ErrForbidden
	}
	if requested != nil && *requested != uuid.Nil && *requested != *a.OrganizationID {
		return uuid.Nil, shared.ErrForbidden
	}
	return *a.OrganizationID, nil
}
