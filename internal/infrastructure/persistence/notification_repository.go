package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/notification"
	"github.com/smartqueue/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormNotificationRepository implements notification.NotificationRepository using GORM
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GormNotificationRepository
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Create records a sent or failed notification
func (r *GormNotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	return conn(ctx, r.db).Create(models.NotificationModelFromDomain(n)).Error
}

// FindAll lists notifications matching the filter with the total count
func (r *GormNotificationRepository) FindAll(ctx context.Context, filter notification.Filter) ([]notification.Notification, int64, error) {
	query := conn(ctx, r.db).Model(&models.NotificationModel{}).
		Scopes(OptionalOrganizationScope(filter.OrganizationID))
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.NotificationModel
	if err := query.Scopes(Paginate(filter.Filter, NotificationSortFields)).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]notification.Notification, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// ExistsForReference reports whether a notification of kind was already recorded for ref
func (r *GormNotificationRepository) ExistsForReference(ctx context.Context, kind notification.Kind, referenceID uuid.UUID) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.NotificationModel{}).
		Where("kind = ? AND reference_id = ? AND status = ?", kind, referenceID, notification.StatusSent).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
