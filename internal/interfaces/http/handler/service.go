package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apporg "github.com/smartqueue/backend/internal/application/organization"
	"github.com/smartqueue/backend/internal/domain/identity"
	"github.com/smartqueue/backend/internal/interfaces/http/dto"
)

// ServiceHandler handles the services offered by organizations
type ServiceHandler struct {
	BaseHandler
	organizations OrganizationService
}

// NewServiceHandler creates a new service handler
func NewServiceHandler(organizations OrganizationService) *ServiceHandler {
	return &ServiceHandler{organizations: organizations}
}

// organizationOf resolves the organization a service request targets: the
// organization_id query parameter, or the actor's own organization.
func (h *ServiceHandler) organizationOf(c *gin.Context, actor identity.Actor) (uuid.UUID, bool) {
	requested, ok := h.queryUUID(c, "organization_id")
	if !ok {
		return uuid.Nil, false
	}
	if requested != nil {
		return *requested, true
	}
	if actor.OrganizationID != nil {
		return *actor.OrganizationID, true
	}
	h.Error(c, dto.GetHTTPStatus("ORGANIZATION_REQUIRED"), "ORGANIZATION_REQUIRED", "organization_id is required")
	return uuid.Nil, false
}

// Create godoc
// @ID           createService
// @Summary      Create a service
// @Tags         services
// @Accept       json
// @Produce      json
// @Param        organization_id query string false "Organization (super admin only)" format(uuid)
// @Param        request body apporg.CreateServiceRequest true "Service details"
// @Success      201 {object} APIResponse[apporg.ServiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /services [post]
func (h *ServiceHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	orgID, ok := h.organizationOf(c, actor)
	if !ok {
		return
	}
	var req apporg.CreateServiceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	svc, err := h.organizations.CreateService(c.Request.Context(), actor, orgID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, svc)
}

// Get godoc
// @ID           getService
// @Summary      Get a service
// @Tags         services
// @Produce      json
// @Param        id path string true "Service ID" format(uuid)
// @Param        organization_id query string false "Organization" format(uuid)
// @Success      200 {object} APIResponse[apporg.ServiceResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /services/{id} [get]
func (h *ServiceHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	orgID, ok := h.organizationOf(c, actor)
	if !ok {
		return
	}
	svc, err := h.organizations.GetService(c.Request.Context(), orgID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, svc)
}

// List godoc
// @ID           listServices
// @Summary      List the services of an organization
// @Tags         services
// @Produce      json
// @Param        organization_id query string false "Organization" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Param        search query string false "Name or code"
// @Param        allows_appointments query bool false "Only services bookable in advance"
// @Param        include_inactive query bool false "Include deactivated services (staff only)"
// @Success      200 {object} APIResponse[[]apporg.ServiceResponse]
// @Security     BearerAuth
// @Router       /services [get]
func (h *ServiceHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	orgID, ok := h.organizationOf(c, actor)
	if !ok {
		return
	}
	var filter apporg.ServiceListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.organizations.ListServices(c.Request.Context(), actor, orgID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// Update godoc
// @ID           updateService
// @Summary      Update a service
// @Tags         services
// @Accept       json
// @Produce      json
// @Param        id path string true "Service ID" format(uuid)
// @Param        organization_id query string false "Organization (super admin only)" format(uuid)
// @Param        request body apporg.UpdateServiceRequest true "Changes"
// @Success      200 {object} APIResponse[apporg.ServiceResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /services/{id} [put]
func (h *ServiceHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	orgID, ok := h.organizationOf(c, actor)
	if !ok {
		return
	}
	var req apporg.UpdateServiceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	svc, err := h.organizations.UpdateService(c.Request.Context(), actor, orgID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, svc)
}

// Deactivate godoc
// @ID           deactivateService
// @Summary      Deactivate a service
// @Tags         services
// @Produce      json
// @Param        id path string true "Service ID" format(uuid)
// @Param        organization_id query string false "Organization (super admin only)" format(uuid)
// @Success      200 {object} APIResponse[apporg.ServiceResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /services/{id}/deactivate [post]
func (h *ServiceHandler) Deactivate(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	orgID, ok := h.organizationOf(c, actor)
	if !ok {
		return
	}
	svc, err := h.organizations.DeactivateService(c.Request.Context(), actor, orgID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, svc)
}
