package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/queue"
	"github.com/smartqueue/backend/internal/domain/shared"
	"github.com/smartqueue/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormQueueRepository implements queue.QueueRepository using GORM
type GormQueueRepository struct {
	db *gorm.DB
}

// NewGormQueueRepository creates a new GormQueueRepository
func NewGormQueueRepository(db *gorm.DB) *GormQueueRepository {
	return &GormQueueRepository{db: db}
}

// FindByID finds a queue by id alone
func (r *GormQueueRepository) FindByID(ctx context.Context, id uuid.UUID) (*queue.Queue, error) {
	var model models.QueueModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForOrg finds a queue of an organization
func (r *GormQueueRepository) FindByIDForOrg(ctx context.Context, organizationID, id uuid.UUID) (*queue.Queue, error) {
	var model models.QueueModel
	if err := conn(ctx, r.db).
		Where("organization_id = ?", organizationID).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a queue and locks its row until the transaction ends
func (r *GormQueueRepository) FindByIDForUpdate(ctx context.Context, organizationID, id uuid.UUID) (*queue.Queue, error) {
	var model models.QueueModel
	if err := conn(ctx, r.db).
		Clauses(forUpdate).
		Where("organization_id = ?", organizationID).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindAllForOrg lists the queues of an organization
func (r *GormQueueRepository) FindAllForOrg(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) ([]queue.Queue, error) {
	var rows []models.QueueModel
	query := r.applyFilter(conn(ctx, r.db).Model(&models.QueueModel{}).Where("organization_id = ?", organizationID), filter)
	if err := query.Scopes(Paginate(filter, QueueSortFields)).Find(&rows).Error; err != nil {
		return nil, err
	}
	queues := make([]queue.Queue, len(rows))
	for i := range rows {
		queues[i] = *rows[i].ToDomain()
	}
	return queues, nil
}

// CountForOrg counts the queues of an organization matching the filter
func (r *GormQueueRepository) CountForOrg(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(conn(ctx, r.db).Model(&models.QueueModel{}).Where("organization_id = ?", organizationID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindFirstOpen returns the oldest open queue of the organization
func (r *GormQueueRepository) FindFirstOpen(ctx context.Context, organizationID uuid.UUID, serviceID *uuid.UUID, queueType queue.Type) (*queue.Queue, error) {
	query := conn(ctx, r.db).
		Where("organization_id = ?", organizationID).
		Where("status = ? AND is_active = ?", queue.StatusActive, true)
	if serviceID != nil {
		query = query.Where("service_id = ?", *serviceID)
	}
	if queueType != "" {
		query = query.Where("type = ?", queueType)
	}
	var model models.QueueModel
	if err := query.Order("created_at ASC").First(&model).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindActiveIDs returns every active queue with its organization
func (r *GormQueueRepository) FindActiveIDs(ctx context.Context) ([]queue.QueueRef, error) {
	var rows []struct {
		OrganizationID uuid.UUID
		ID             uuid.UUID
	}
	if err := conn(ctx, r.db).Model(&models.QueueModel{}).
		Select("organization_id, id").
		Where("is_active = ?", true).
		Order("organization_id, created_at").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	refs := make([]queue.QueueRef, len(rows))
	for i, row := range rows {
		refs[i] = queue.QueueRef{OrganizationID: row.OrganizationID, QueueID: row.ID}
	}
	return refs, nil
}

// ExistsForService checks if the service already has a queue of this type.
// Inactive queues count too, as they do for uq_queues_org_service_type.
func (r *GormQueueRepository) ExistsForService(ctx context.Context, organizationID, serviceID uuid.UUID, queueType queue.Type) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.QueueModel{}).
		Where("organization_id = ?", organizationID).
		Where("service_id = ? AND type = ?", serviceID, queueType).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a new queue
func (r *GormQueueRepository) Create(ctx context.Context, q *queue.Queue) error {
	err := conn(ctx, r.db).Create(models.QueueModelFromDomain(q)).Error
	return mapUniqueViolation(err, constraintQueueServiceType)
}

// Update saves q when its stored version still matches
func (r *GormQueueRepository) Update(ctx context.Context, q *queue.Queue) error {
	model := models.QueueModelFromDomain(q)
	model.Version = q.Version + 1
	if err := versionedUpdate(conn(ctx, r.db), model, q.ID, q.Version); err != nil {
		return err
	}
	q.IncrementVersion()
	return nil
}

func (r *GormQueueRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}
	if v, ok := filterString(filter, "service_id"); ok {
		query = query.Where("service_id = ?", v)
	}
	if v, ok := filterString(filter, "status"); ok {
		query = query.Where("status = ?", v)
	}
	if v, ok := filterString(filter, "type"); ok {
		query = query.Where("type = ?", v)
	}
	if v, ok := filterBool(filter, "is_active"); ok {
		query = query.Where("is_active = ?", v)
	}
	return query
}
