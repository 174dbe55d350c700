package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appidentity "github.com/smartqueue/backend/internal/application/identity"
	"github.com/smartqueue/backend/internal/domain/identity"
	"github.com/smartqueue/backend/internal/domain/shared"
)

// StaffService manages the members of an organization
type StaffService interface {
	CreateStaff(ctx context.Context, actor identity.Actor, req appidentity.CreateStaffRequest) (*appidentity.UserResponse, error)
	ListStaff(ctx context.Context, actor identity.Actor, filter appidentity.StaffListFilter) (*shared.Paginated[appidentity.UserResponse], error)
	DeactivateStaff(ctx context.Context, actor identity.Actor, id uuid.UUID) (*appidentity.UserResponse, error)
}

// UserHandler handles staff management
type UserHandler struct {
	BaseHandler
	users StaffService
}

// NewUserHandler creates a new user handler
func NewUserHandler(users StaffService) *UserHandler {
	return &UserHandler{users: users}
}

// CreateStaff godoc
// @ID           createUserStaff
// @Summary      Create a staff member
// @Description  Admins add staff or admins to their organization
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body appidentity.CreateStaffRequest true "Staff details"
// @Success      201 {object} APIResponse[appidentity.UserResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/staff [post]
func (h *UserHandler) CreateStaff(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req appidentity.CreateStaffRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.users.CreateStaff(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, user)
}

// ListStaff godoc
// @ID           listUserStaff
// @Summary      List staff members
// @Tags         users
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Param        search query string false "Name or phone"
// @Param        organization_id query string false "Organization (super admin only)" format(uuid)
// @Success      200 {object} APIResponse[[]appidentity.UserResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/staff [get]
func (h *UserHandler) ListStaff(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var filter appidentity.StaffListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	if filter.OrganizationID, ok = h.queryUUID(c, "organization_id"); !ok {
		return
	}
	page, err := h.users.ListStaff(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// DeactivateStaff godoc
// @ID           deactivateUserStaff
// @Summary      Deactivate a staff member
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} APIResponse[appidentity.UserResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/staff/{id}/deactivate [post]
func (h *UserHandler) DeactivateStaff(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.DeactivateStaff(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}
