package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/appointment"
	"github.com/smartqueue/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAppointmentRepository implements appointment.AppointmentRepository using GORM
type GormAppointmentRepository struct {
	db *gorm.DB
}

// NewGormAppointmentRepository creates a new GormAppointmentRepository
func NewGormAppointmentRepository(db *gorm.DB) *GormAppointmentRepository {
	return &GormAppointmentRepository{db: db}
}

// FindByID finds an appointment by id alone
func (r *GormAppointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	var model models.AppointmentModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForOrg finds an appointment of an organization
func (r *GormAppointmentRepository) FindByIDForOrg(ctx context.Context, organizationID, id uuid.UUID) (*appointment.Appointment, error) {
	var model models.AppointmentModel
	if err := conn(ctx, r.db).
		Where("organization_id = ?", organizationID).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds an appointment and locks its row until the transaction ends
func (r *GormAppointmentRepository) FindByIDForUpdate(ctx context.Context, organizationID, id uuid.UUID) (*appointment.Appointment, error) {
	var model models.AppointmentModel
	if err := conn(ctx, r.db).
		Clauses(forUpdate).
		Where("organization_id = ?", organizationID).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists appointments; a nil organization lists them platform wide
func (r *GormAppointmentRepository) FindAll(ctx context.Context, organizationID *uuid.UUID, filter appointment.Filter) ([]appointment.Appointment, error) {
	var rows []models.AppointmentModel
	query := r.applyFilter(conn(ctx, r.db).Model(&models.AppointmentModel{}).Scopes(OptionalOrganizationScope(organizationID)), filter)
	if err := query.Scopes(Paginate(filter.Filter, AppointmentSortFields)).Find(&rows).Error; err != nil {
		return nil, err
	}
	appointments := make([]appointment.Appointment, len(rows))
	for i := range rows {
		appointments[i] = *rows[i].ToDomain()
	}
	return appointments, nil
}

// Count counts appointments matching the filter
func (r *GormAppointmentRepository) Count(ctx context.Context, organizationID *uuid.UUID, filter appointment.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(conn(ctx, r.db).Model(&models.AppointmentModel{}).Scopes(OptionalOrganizationScope(organizationID)), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// nextSequenceSQL bumps the counter of one month-day. The upsert locks the row
// until commit, so concurrent bookings of that day are numbered one after the other.
// Counters never reset: numbers carry only MMDD and must stay unique across years.
const nextSequenceSQL = `INSERT INTO appointment_sequences (month_day, last_number) VALUES (?, 1)
ON CONFLICT (month_day) DO UPDATE SET last_number = appointment_sequences.last_number + 1
RETURNING last_number`

// NextSequence reserves the next appointment sequence of the calendar day of day
func (r *GormAppointmentRepository) NextSequence(ctx context.Context, day time.Time) (int, error) {
	var next int
	if err := conn(ctx, r.db).Raw(nextSequenceSQL, day.Format("0102")).Scan(&next).Error; err != nil {
		return 0, err
	}
	return next, nil
}

// Create inserts a new appointment
func (r *GormAppointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	err := conn(ctx, r.db).Create(models.AppointmentModelFromDomain(a)).Error
	return mapUniqueViolation(err, constraintAppointmentNumber)
}

// Update saves a when its stored version still matches
func (r *GormAppointmentRepository) Update(ctx context.Context, a *appointment.Appointment) error {
	model := models.AppointmentModelFromDomain(a)
	model.Version = a.Version + 1
	if err := versionedUpdate(conn(ctx, r.db), model, a.ID, a.Version); err != nil {
		return err
	}
	a.IncrementVersion()
	return nil
}

func (r *GormAppointmentRepository) applyFilter(query *gorm.DB, filter appointment.Filter) *gorm.DB {
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.ServiceID != nil {
		query = query.Where("service_id = ?", *filter.ServiceID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.From != nil {
		query = query.Where("scheduled_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("scheduled_at < ?", *filter.To)
	}
	if filter.Search != "" {
		query = query.Where("number ILIKE ?", "%"+filter.Search+"%")
	}
	return query
}
