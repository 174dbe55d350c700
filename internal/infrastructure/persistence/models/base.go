package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/shared"
)

// BaseModel holds the identity and audit columns shared by every table.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to a domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

func (m *BaseModel) fromEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel adds the optimistic lock version.
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

func (m *AggregateModel) fromAggregate(a shared.BaseAggregateRoot) {
	m.fromEntity(a.BaseEntity)
	m.Version = a.Version
}

func (m *AggregateModel) toAggregate() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{BaseEntity: m.BaseModel.ToDomain(), Version: m.Version}
}

// OrgAggregateModel is an aggregate row owned by one organization.
type OrgAggregateModel struct {
	AggregateModel
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index"`
}

func (m *OrgAggregateModel) fromOrgAggregate(o shared.OrgAggregateRoot) {
	m.fromAggregate(o.BaseAggregateRoot)
	m.OrganizationID = o.OrganizationID
}

func (m *OrgAggregateModel) toOrgAggregate() shared.OrgAggregateRoot {
	return shared.OrgAggregateRoot{BaseAggregateRoot: m.toAggregate(), OrganizationID: m.OrganizationID}
}
