package organization

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/identity"
	"github.com/smartqueue/backend/internal/domain/organization"
	"github.com/smartqueue/backend/internal/domain/shared"
	"go.uber.org/zap"
)

var (
	ErrOrganizationNotFound = shared.NewDomainError("ORGANIZATION_NOT_FOUND", "Organization not found")
	ErrServiceNotFound      = shared.NewDomainError("SERVICE_NOT_FOUND", "Service not found")
	ErrDuplicateServiceCode = shared.NewDomainError("DUPLICATE_SERVICE_CODE", "This organization already uses that service code")
)

// OrganizationService manages organizations and the services they offer
type OrganizationService struct {
	organizations organization.OrganizationRepository
	services      organization.ServiceRepository
	logger        *zap.Logger
}

// NewOrganizationService creates a new OrganizationService
func NewOrganizationService(organizations organization.OrganizationRepository, services organization.ServiceRepository, logger *zap.Logger) *OrganizationService {
	return &OrganizationService{organizations: organizations, services: services, logger: logger}
}

// Create registers an organization. Only a super admin may do this.
func (s *OrganizationService) Create(ctx context.Context, actor identity.Actor, req CreateOrganizationRequest) (*OrganizationResponse, error) {
	if !actor.IsSuperAdmin() {
		return nil, shared.ErrForbidden
	}
	org, err := organization.NewOrganization(req.Name, req.TradeName, organization.OrganizationType(req.Type), req.Phone, req.City, req.Region)
	if err != nil {
		return nil, err
	}
	if err := org.Update("", "", "", req.Email, req.Address, ""); err != nil {
		return nil, err
	}
	if req.Latitude != nil && req.Longitude != nil {
		if err := org.SetLocation(*req.Latitude, *req.Longitude); err != nil {
			return nil, err
		}
	}
	if req.Plan != "" {
		if err := org.ChangePlan(organization.Plan(req.Plan)); err != nil {
			return nil, err
		}
	}
	if req.Timezone != "" {
		org.Timezone = req.Timezone
	}

	if err := s.organizations.Save(ctx, org); err != nil {
		return nil, err
	}
	s.logger.Info("Organization created",
		zap.String("organization_id", org.ID.String()),
		zap.String("name", org.Name))

	resp := ToOrganizationResponse(org)
	return &resp, nil
}

// Get returns an organization
func (s *OrganizationService) Get(ctx context.Context, id uuid.UUID) (*OrganizationResponse, error) {
	org, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToOrganizationResponse(org)
	return &resp, nil
}

// List lists organizations; only a super admin sees inactive ones
func (s *OrganizationService) List(ctx context.Context, actor identity.Actor, filter OrganizationListFilter) (*shared.Paginated[OrganizationResponse], error) {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Search:   filter.Search,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
	}.Normalize()
	if filter.Type != "" {
		f.Filters["type"] = filter.Type
	}
	if filter.Region != "" {
		f.Filters["region"] = strings.ToLower(filter.Region)
	}
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}
	if !actor.IsSuperAdmin() {
		f.Filters["is_active"] = true
	}

	orgs, err := s.organizations.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.organizations.Count(ctx, f)
	if err != nil {
		return nil, err
	}
	items := make([]OrganizationResponse, len(orgs))
	for i := range orgs {
		items[i] = ToOrganizationResponse(&orgs[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// Update changes an organization; its admins or a super admin may do this
func (s *OrganizationService) Update(ctx context.Context, actor identity.Actor, id uuid.UUID, req UpdateOrganizationRequest) (*OrganizationResponse, error) {
	if !actor.CanAdminister(id) {
		return nil, shared.ErrForbidden
	}
	org, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := org.Update(req.Name, req.TradeName, req.Phone, req.Email, req.Address, req.City); err != nil {
		return nil, err
	}
	if req.Latitude != nil && req.Longitude != nil {
		if err := org.SetLocation(*req.Latitude, *req.Longitude); err != nil {
			return nil, err
		}
	}
	if req.Plan != "" {
		// only a super admin changes the plan
		if !actor.IsSuperAdmin() {
			return nil, shared.ErrForbidden
		}
		if err := org.ChangePlan(organization.Plan(req.Plan)); err != nil {
			return nil, err
		}
	}
	if err := s.organizations.Save(ctx, org); err != nil {
		return nil, err
	}
	resp := ToOrganizationResponse(org)
	return &resp, nil
}

func (s *OrganizationService) load(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	org, err := s.organizations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}
	return org, nil
}

// CreateService adds a service to an organization
func (s *OrganizationService) CreateService(ctx context.Context, actor identity.Actor, organizationID uuid.UUID, req CreateServiceRequest) (*ServiceResponse, error) {
	if !actor.CanAdminister(organizationID) {
		return nil, shared.ErrForbidden
	}
	if _, err := s.load(ctx, organizationID); err != nil {
		return nil, err
	}

	svc, err := organization.NewService(organizationID, req.Name, req.Code, req.EstimatedDuration)
	if err != nil {
		return nil, err
	}
	taken, err := s.services.ExistsByCode(ctx, organizationID, svc.Code)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateServiceCode
	}

	if err := svc.Update("", req.Description, 0, req.MaxWaitTime); err != nil {
		return nil, err
	}
	if err := svc.SetCost(req.Cost); err != nil {
		return nil, err
	}
	notice, advance := svc.MinAppointmentNotice, svc.MaxAppointmentAdvance
	if req.MinAppointmentNotice != nil {
		notice = *req.MinAppointmentNotice
	}
	if req.MaxAppointmentAdvance != nil {
		advance = *req.MaxAppointmentAdvance
	}
	if err := svc.ConfigureAppointments(req.AllowsAppointments, req.RequiresAppointment, notice, advance); err != nil {
		return nil, err
	}
	if req.DefaultPriority != "" {
		if err := svc.SetDefaultPriority(organization.Priority(req.DefaultPriority)); err != nil {
			return nil, err
		}
	}

	if err := s.services.Save(ctx, svc); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, ErrDuplicateServiceCode
		}
		return nil, err
	}
	s.logger.Info("Service created",
		zap.String("organization_id", organizationID.String()),
		zap.String("service_id", svc.ID.String()),
		zap.String("code", svc.Code))

	resp := ToServiceResponse(svc)
	return &resp, nil
}

// GetService returns a service of an organization
func (s *OrganizationService) GetService(ctx context.Context, organizationID, id uuid.UUID) (*ServiceResponse, error) {
	svc, err := s.loadService(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}
	resp := ToServiceResponse(svc)
	return &resp, nil
}

// ListServices lists the services of an organization. Inactive services are
// only listed for the organization's staff.
func (s *OrganizationService) ListServices(ctx context.Context, actor identity.Actor, organizationID uuid.UUID, filter ServiceListFilter) (*shared.Paginated[ServiceResponse], error) {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Search:   filter.Search,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
	}.Normalize()
	if !filter.IncludeInactive || !actor.CanManage(organizationID) {
		f.Filters["is_active"] = true
	}
	if filter.AllowsAppointments != nil {
		f.Filters["allows_appointments"] = *filter.AllowsAppointments
	}

	services, err := s.services.FindAllForOrg(ctx, organizationID, f)
	if err != nil {
		return nil, err
	}
	total, err := s.services.CountForOrg(ctx, organizationID, f)
	if err != nil {
		return nil, err
	}
	items := make([]ServiceResponse, len(services))
	for i := range services {
		items[i] = ToServiceResponse(&services[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// UpdateService changes a service
func (s *OrganizationService) UpdateService(ctx context.Context, actor identity.Actor, organizationID, id uuid.UUID, req UpdateServiceRequest) (*ServiceResponse, error) {
	if !actor.CanAdminister(organizationID) {
		return nil, shared.ErrForbidden
	}
	svc, err := s.loadService(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}

	description := svc.Description
	if req.Description != nil {
		description = *req.Description
	}
	if err := svc.Update(req.Name, description, req.EstimatedDuration, req.MaxWaitTime); err != nil {
		return nil, err
	}
	switch {
	case req.ClearCost:
		err = svc.SetCost(nil)
	case req.Cost != nil:
		err = svc.SetCost(req.Cost)
	}
	if err != nil {
		return nil, err
	}

	if req.AllowsAppointments != nil || req.RequiresAppointment != nil || req.MinAppointmentNotice != nil || req.MaxAppointmentAdvance != nil {
		allows, requires := svc.AllowsAppointments, svc.RequiresAppointment
		notice, advance := svc.MinAppointmentNotice, svc.MaxAppointmentAdvance
		if req.AllowsAppointments != nil {
			allows = *req.AllowsAppointments
		}
		if req.RequiresAppointment != nil {
			requires = *req.RequiresAppointment
		}
		if req.MinAppointmentNotice != nil {
			notice = *req.MinAppointmentNotice
		}
		if req.MaxAppointmentAdvance != nil {
			advance = *req.MaxAppointmentAdvance
		}
		if err := svc.ConfigureAppointments(allows, requires, notice, advance); err != nil {
			return nil, err
		}
	}
	if req.DefaultPriority != "" {
		if err := svc.SetDefaultPriority(organization.Priority(req.DefaultPriority)); err != nil {
			return nil, err
		}
	}

	if err := s.services.Save(ctx, svc); err != nil {
		return nil, err
	}
	resp := ToServiceResponse(svc)
	return &resp, nil
}

// DeactivateService stops offering a service
func (s *OrganizationService) DeactivateService(ctx context.Context, actor identity.Actor, organizationID, id uuid.UUID) (*ServiceResponse, error) {
	if !actor.CanAdminister(organizationID) {
		return nil, shared.ErrForbidden
	}
	svc, err := s.loadService(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}
	if err := svc.Deactivate(); err != nil {
		return nil, err
	}
	if err := s.services.Save(ctx, svc); err != nil {
		return nil, err
	}
	s.logger.Info("Service deactivated", zap.String("service_id", id.String()))
	resp := ToServiceResponse(svc)
	return &resp, nil
}

func (s *OrganizationService) loadService(ctx context.Context, organizationID, id uuid.UUID) (*organization.Service, error) {
	svc, err := s.services.FindByIDForOrg(ctx, organizationID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return svc, nil
}
