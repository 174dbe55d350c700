package persistence

import (
	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// OptionalOrganizationScope restricts the query when organizationID is set.
// A nil organization is the platform-wide view of a super admin.
func OptionalOrganizationScope(organizationID *uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if organizationID == nil {
			return db
		}
		return db.Where("organization_id = ?", *organizationID)
	}
}

// Paginate applies ordering, offset and limit from filter.
// The order field is checked against allowed; unknown fields fall back to created_at.
func Paginate(filter shared.Filter, allowed map[string]bool) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		f := filter.Normalize()
		field := ValidateSortField(f.OrderBy, allowed, "created_at")
		dir := ValidateSortOrder(f.OrderDir)
		return db.Order(field + " " + dir).Offset((f.Page - 1) * f.PageSize).Limit(f.PageSize)
	}
}
