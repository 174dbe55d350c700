package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/organization"
	"github.com/smartqueue/backend/internal/domain/shared"
	"github.com/smartqueue/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrganizationRepository implements organization.OrganizationRepository using GORM
type GormOrganizationRepository struct {
	db *gorm.DB
}

// NewGormOrganizationRepository creates a new GormOrganizationRepository
func NewGormOrganizationRepository(db *gorm.DB) *GormOrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

// FindByID finds an organization by ID
func (r *GormOrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	var model models.OrganizationModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists organizations with filtering and pagination
func (r *GormOrganizationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]organization.Organization, error) {
	var rows []models.OrganizationModel
	query := r.applyFilter(conn(ctx, r.db).Model(&models.OrganizationModel{}), filter)
	if err := query.Scopes(Paginate(filter, OrganizationSortFields)).Find(&rows).Error; err != nil {
		return nil, err
	}
	orgs := make([]organization.Organization, len(rows))
	for i := range rows {
		orgs[i] = *rows[i].ToDomain()
	}
	return orgs, nil
}

// Count counts organizations matching the filter
func (r *GormOrganizationRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(conn(ctx, r.db).Model(&models.OrganizationModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates the organization or updates it under optimistic locking
func (r *GormOrganizationRepository) Save(ctx context.Context, org *organization.Organization) error {
	db := conn(ctx, r.db)
	model := models.OrganizationModelFromDomain(org)
	model.Version = org.Version + 1
	err := versionedUpdate(db, model, org.ID, org.Version)
	if err == nil {
		org.IncrementVersion()
		return nil
	}
	if !errors.Is(err, shared.ErrConcurrencyConflict) {
		return err
	}
	found, err := exists(db, &models.OrganizationModel{}, org.ID)
	if err != nil {
		return err
	}
	if found {
		return shared.ErrConcurrencyConflict
	}
	return db.Create(models.OrganizationModelFromDomain(org)).Error
}

// FindActiveIDs returns the IDs of all active organizations
func (r *GormOrganizationRepository) FindActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := conn(ctx, r.db).Model(&models.OrganizationModel{}).
		Where("is_active = ? AND status <> ?", true, organization.StatusSuspended).
		Order("created_at ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *GormOrganizationRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR trade_name ILIKE ? OR city ILIKE ?", like, like, like)
	}
	if v, ok := filterString(filter, "type"); ok {
		query = query.Where("type = ?", v)
	}
	if v, ok := filterString(filter, "region"); ok {
		query = query.Where("region = ?", v)
	}
	if v, ok := filterString(filter, "status"); ok {
		query = query.Where("status = ?", v)
	}
	if v, ok := filterBool(filter, "is_active"); ok {
		query = query.Where("is_active = ?", v)
	}
	return query
}
