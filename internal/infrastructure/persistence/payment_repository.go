package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/payment"
	"github.com/smartqueue/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentRepository implements payment.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by id alone
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	var model models.PaymentModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForOrg finds a payment of an organization
func (r *GormPaymentRepository) FindByIDForOrg(ctx context.Context, organizationID, id uuid.UUID) (*payment.Payment, error) {
	var model models.PaymentModel
	if err := conn(ctx, r.db).
		Where("organization_id = ?", organizationID).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByNumberForUpdate locks the payment a provider callback refers to
func (r *GormPaymentRepository) FindByNumberForUpdate(ctx context.Context, number string) (*payment.Payment, error) {
	var model models.PaymentModel
	if err := conn(ctx, r.db).
		Clauses(forUpdate).
		Where("number = ?", number).
		First(&model).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists payments; a nil organization lists them platform wide
func (r *GormPaymentRepository) FindAll(ctx context.Context, organizationID *uuid.UUID, filter payment.Filter) ([]payment.Payment, error) {
	var rows []models.PaymentModel
	query := r.applyFilter(conn(ctx, r.db).Model(&models.PaymentModel{}).Scopes(OptionalOrganizationScope(organizationID)), filter)
	if err := query.Scopes(Paginate(filter.Filter, PaymentSortFields)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return paymentsToDomain(rows), nil
}

// Count counts payments matching the filter
func (r *GormPaymentRepository) Count(ctx context.Context, organizationID *uuid.UUID, filter payment.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(conn(ctx, r.db).Model(&models.PaymentModel{}).Scopes(OptionalOrganizationScope(organizationID)), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindExpired returns unpaid payments past their expiry, oldest first
func (r *GormPaymentRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]payment.Payment, error) {
	var rows []models.PaymentModel
	if err := conn(ctx, r.db).
		Where("status IN ? AND expires_at < ?", []payment.Status{payment.StatusPending, payment.StatusProcessing}, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return paymentsToDomain(rows), nil
}

// Create inserts a new payment
func (r *GormPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	return conn(ctx, r.db).Create(models.PaymentModelFromDomain(p)).Error
}

// Update saves p when its stored version still matches
func (r *GormPaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	model := models.PaymentModelFromDomain(p)
	model.Version = p.Version + 1
	if err := versionedUpdate(conn(ctx, r.db), model, p.ID, p.Version); err != nil {
		return err
	}
	p.IncrementVersion()
	return nil
}

func (r *GormPaymentRepository) applyFilter(query *gorm.DB, filter payment.Filter) *gorm.DB {
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Provider != nil {
		query = query.Where("provider = ?", *filter.Provider)
	}
	if filter.Search != "" {
		query = query.Where("number ILIKE ? OR external_reference ILIKE ?", "%"+filter.Search+"%", "%"+filter.Search+"%")
	}
	return query
}

func paymentsToDomain(rows []models.PaymentModel) []payment.Payment {
	payments := make([]payment.Payment, len(rows))
	for i := range rows {
		payments[i] = *rows[i].ToDomain()
	}
	return payments
}
