package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apporg "github.com/smartqueue/backend/internal/application/organization"
	"github.com/smartqueue/backend/internal/domain/identity"
	"github.com/smartqueue/backend/internal/domain/shared"
)

// OrganizationService serves organizations and their services
type OrganizationService interface {
	Create(ctx context.Context, actor identity.Actor, req apporg.CreateOrganizationRequest) (*apporg.OrganizationResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*apporg.OrganizationResponse, error)
	List(ctx context.Context, actor identity.Actor, filter apporg.OrganizationListFilter) (*shared.Paginated[apporg.OrganizationResponse], error)
	Update(ctx context.Context, actor identity.Actor, id uuid.UUID, req apporg.UpdateOrganizationRequest) (*apporg.OrganizationResponse, error)

	CreateService(ctx context.Context, actor identity.Actor, organizationID uuid.UUID, req apporg.CreateServiceRequest) (*apporg.ServiceResponse, error)
	GetService(ctx context.Context, organizationID, id uuid.UUID) (*apporg.ServiceResponse, error)
	ListServices(ctx context.Context, actor identity.Actor, organizationID uuid.UUID, filter apporg.ServiceListFilter) (*shared.Paginated[apporg.ServiceResponse], error)
	UpdateService(ctx context.Context, actor identity.Actor, organizationID, id uuid.UUID, req apporg.UpdateServiceRequest) (*apporg.ServiceResponse, error)
	DeactivateService(ctx context.Context, actor identity.Actor, organizationID, id uuid.UUID) (*apporg.ServiceResponse, error)
}

// OrganizationHandler handles organization endpoints
type OrganizationHandler struct {
	BaseHandler
	organizations OrganizationService
}

// NewOrganizationHandler creates a new organization handler
func NewOrganizationHandler(organizations OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{organizations: organizations}
}

// Create godoc
// @ID           createOrganization
// @Summary      Create an organization
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Param        request body apporg.CreateOrganizationRequest true "Organization details"
// @Success      201 {object} APIResponse[apporg.OrganizationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /organizations [post]
func (h *OrganizationHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req apporg.CreateOrganizationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	org, err := h.organizations.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, org)
}

// Get godoc
// @ID           getOrganization
// @Summary      Get an organization
// @Tags         organizations
// @Produce      json
// @Param        id path string true "Organization ID" format(uuid)
// @Success      200 {object} APIResponse[apporg.OrganizationResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /organizations/{id} [get]
func (h *OrganizationHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	org, err := h.organizations.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, org)
}

// List godoc
// @ID           listOrganizations
// @Summary      List organizations
// @Description  Customers see active organizations, staff see their own
// @Tags         organizations
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Param        search query string false "Name"
// @Param        type query string false "Organization type"
// @Param        region query string false "Region"
// @Success      200 {object} APIResponse[[]apporg.OrganizationResponse]
// @Security     BearerAuth
// @Router       /organizations [get]
func (h *OrganizationHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var filter apporg.OrganizationListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.organizations.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// Update godoc
// @ID           updateOrganization
// @Summary      Update an organization
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Param        id path string true "Organization ID" format(uuid)
// @Param        request body apporg.UpdateOrganizationRequest true "Changes"
// @Success      200 {object} APIResponse[apporg.OrganizationResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /organizations/{id} [put]
func (h *OrganizationHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req apporg.UpdateOrganizationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	org, err := h.organizations.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, org)
}
