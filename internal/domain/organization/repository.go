package organization

import (
	"context"

	"github.com/google/uuid"

	"github.com/smartqueue/backend/internal/domain/shared"
)

// OrganizationRepository persists organizations
type OrganizationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Organization, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	Save(ctx context.Context, org *Organization) error
	// FindActiveIDs returns the IDs of all active organizations, used by scheduled jobs
	FindActiveIDs(ctx context.Context) ([]uuid.UUID, error)
}

// ServiceRepository persists services
type ServiceRepository interface {
	FindByIDForOrg(ctx context.Context, organizationID, id uuid.UUID) (*Service, error)
	FindAllForOrg(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) ([]Service, error)
	CountForOrg(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) (int64, error)
	ExistsByCode(ctx context.Context, organizationID uuid.UUID, code string) (bool, error)
	Save(ctx context.Context, service *Service) error
}
