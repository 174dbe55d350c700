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

// GormServiceRepository implements organization.ServiceRepository using GORM
type GormServiceRepository struct {
	db *gorm.DB
}

// NewGormServiceRepository creates a new GormServiceRepository
func NewGormServiceRepository(db *gorm.DB) *GormServiceRepository {
	return &GormServiceRepository{db: db}
}

// FindByIDForOrg finds a service of an organization
func (r *GormServiceRepository) FindByIDForOrg(ctx context.Context, organizationID, id uuid.UUID) (*organization.Service, error) {
	var model models.ServiceModel
	if err := conn(ctx, r.db).
		Where("organization_id = ?", organizationID).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindAllForOrg lists the services of an organization
func (r *GormServiceRepository) FindAllForOrg(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) ([]organization.Service, error) {
	var rows []models.ServiceModel
	query := r.applyFilter(conn(ctx, r.db).Model(&models.ServiceModel{}).Where("organization_id = ?", organizationID), filter)
	if err := query.Scopes(Paginate(filter, ServiceSortFields)).Find(&rows).Error; err != nil {
		return nil, err
	}
	services := make([]organization.Service, len(rows))
	for i := range rows {
		services[i] = *rows[i].ToDomain()
	}
	return services, nil
}

// CountForOrg counts the services of an organization matching the filter
func (r *GormServiceRepository) CountForOrg(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(conn(ctx, r.db).Model(&models.ServiceModel{}).Where("organization_id = ?", organizationID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByCode checks if the organization already uses a service code
func (r *GormServiceRepository) ExistsByCode(ctx context.Context, organizationID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.ServiceModel{}).
		Where("organization_id = ?", organizationID).
		Where("code = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates the service or updates it under optimistic locking
func (r *GormServiceRepository) Save(ctx context.Context, service *organization.Service) error {
	db := conn(ctx, r.db)
	model := models.ServiceModelFromDomain(service)
	model.Version = service.Version + 1
	err := versionedUpdate(db, model, service.ID, service.Version)
	if err == nil {
		service.IncrementVersion()
		return nil
	}
	if !errors.Is(err, shared.ErrConcurrencyConflict) {
		return err
	}
	found, err := exists(db, &models.ServiceModel{}, service.ID)
	if err != nil {
		return err
	}
	if found {
		return shared.ErrConcurrencyConflict
	}
	err = db.Create(models.ServiceModelFromDomain(service)).Error
	return mapUniqueViolation(err, constraintServiceCode)
}

func (r *GormServiceRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR code ILIKE ?", like, like)
	}
	if v, ok := filterBool(filter, "is_active"); ok {
		query = query.Where("is_active = ?", v)
	}
	if v, ok := filterBool(filter, "allows_appointments"); ok {
		query = query.Where("allows_appointments = ?", v)
	}
	return query
}
