package persistence

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/smartqueue/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate is the row lock taken by the ForUpdate finders
var forUpdate = clause.Locking{Strength: "UPDATE"}

// forUpdateSkipLocked lets concurrent dispatchers pass over rows another transaction holds
var forUpdateSkipLocked = clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}

// mapNotFound translates gorm.ErrRecordNotFound to shared.ErrNotFound
func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

// Unique constraints the repositories translate into shared.ErrAlreadyExists
const (
	constraintServiceCode       = "uq_services_org_code"
	constraintQueueServiceType  = "uq_queues_org_service_type"
	constraintAppointmentNumber = "idx_appointments_number"
)

// uniqueViolation reports whether err is a PostgreSQL unique violation of constraint
func uniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}

// mapUniqueViolation replaces a violation of constraint with shared.ErrAlreadyExists
func mapUniqueViolation(err error, constraint string) error {
	if uniqueViolation(err, constraint) {
		return shared.ErrAlreadyExists
	}
	return err
}

// versionedUpdate writes every column of model when the stored row is still at
// version expected. model must already carry version expected+1.
func versionedUpdate(db *gorm.DB, model any, id uuid.UUID, expected int) error {
	result := db.Model(model).
		Where("id = ? AND version = ?", id, expected).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// inOrganization scopes query to one organization; uuid.Nil leaves it unscoped
func inOrganization(query *gorm.DB, organizationID uuid.UUID) *gorm.DB {
	if organizationID == uuid.Nil {
		return query
	}
	return query.Where("organization_id = ?", organizationID)
}

// exists reports whether a row with id is stored in the table of model
func exists(db *gorm.DB, model any, id uuid.UUID) (bool, error) {
	var count int64
	if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// filterString returns filter.Filters[key] when it is a non-empty string
func filterString(filter shared.Filter, key string) (string, bool) {
	v, ok := filter.Filters[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

// filterBool returns filter.Filters[key] when it is a bool
func filterBool(filter shared.Filter, key string) (bool, bool) {
	v, ok := filter.Filters[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}
