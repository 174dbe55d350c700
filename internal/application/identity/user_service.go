package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/identity"
	"github.com/smartqueue/backend/internal/domain/organization"
	"github.com/smartqueue/backend/internal/domain/shared"
	"github.com/smartqueue/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// ErrStaffLimitReached is returned when an organization has used all its staff seats
var ErrStaffLimitReached = shared.NewDomainError("STAFF_LIMIT_REACHED", "The organization has reached its staff limit")

// UserService manages the staff of organizations
type UserService struct {
	users         identity.UserRepository
	organizations organization.OrganizationRepository
	events        shared.EventRecorder
	logger        *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	users identity.UserRepository,
	organizations organization.OrganizationRepository,
	events shared.EventRecorder,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		users:         users,
		organizations: organizations,
		events:        events,
		logger:        logger,
	}
}

// CreateStaff adds a staff member or admin to the admin's organization
func (s *UserService) CreateStaff(ctx context.Context, actor identity.Actor, req CreateStaffRequest) (*UserResponse, error) {
	orgID, err := actor.Organization(req.OrganizationID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAdminister(orgID) {
		return nil, shared.ErrForbidden
	}

	org, err := s.organizations.FindByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("ORGANIZATION_NOT_FOUND", "Organization not found")
		}
		return nil, err
	}
	count, err := s.users.CountStaff(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org.MaxStaffUsers > 0 && count >= int64(org.MaxStaffUsers) {
		return nil, ErrStaffLimitReached
	}

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

	role := identity.RoleStaff
	if req.Role != "" {
		role = identity.Role(req.Role)
	}
	user, err := identity.NewStaff(orgID, phone.String(), req.FullName, req.Password, role)
	if err != nil {
		return nil, err
	}
	if err := user.SetEmail(req.Email); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	if events := shared.PullEvents(user); len(events) > 0 && s.events != nil {
		if err := s.events.Record(ctx, events...); err != nil {
			s.logger.Warn("Failed to record user events", zap.Error(err))
		}
	}

	s.logger.Info("Staff member created",
		zap.String("user_id", user.ID.String()),
		zap.String("organization_id", orgID.String()),
		zap.String("role", string(role)),
		zap.String("created_by", actor.UserID.String()))
	resp := ToUserResponse(user)
	return &resp, nil
}

// ListStaff lists the staff of the actor's organization
func (s *UserService) ListStaff(ctx context.Context, actor identity.Actor, filter StaffListFilter) (*shared.Paginated[UserResponse], error) {
	orgID, err := actor.Organization(filter.OrganizationID)
	if err != nil {
		return nil, err
	}
	f := shared.Filter{Page: filter.Page, PageSize: filter.PageSize, Search: normalizeSearch(filter.Search)}.Normalize()
	users, total, err := s.users.FindStaff(ctx, orgID, f)
	if err != nil {
		return nil, err
	}
	items := make([]UserResponse, len(users))
	for i := range users {
		items[i] = ToUserResponse(&users[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// DeactivateStaff disables a member of the admin's organization
func (s *UserService) DeactivateStaff(ctx context.Context, actor identity.Actor, id uuid.UUID) (*UserResponse, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.OrganizationID == nil || !actor.CanAdminister(*user.OrganizationID) {
		return nil, ErrUserNotFound
	}
	if user.ID == actor.UserID {
		return nil, shared.NewDomainError("CANNOT_DEACTIVATE_SELF", "You cannot deactivate your own account")
	}
	if err := user.Deactivate(); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("Staff member deactivated",
		zap.String("user_id", user.ID.String()),
		zap.String("deactivated_by", actor.UserID.String()))
	resp := ToUserResponse(user)
	return &resp, nil
}
