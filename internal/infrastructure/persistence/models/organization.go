package models

import (
	"github.com/shopspring/decimal"
	"github.com/smartqueue/backend/internal/domain/organization"
)

// OrganizationModel is the persistence model for organizations.
type OrganizationModel struct {
	AggregateModel
	Name             string                        `gorm:"type:varchar(200);not null"`
	TradeName        string                        `gorm:"type:varchar(200)"`
	Type             organization.OrganizationType `gorm:"type:varchar(20);not null"`
	Phone            string                        `gorm:"type:varchar(20);not null"`
	Email            string                        `gorm:"type:varchar(200)"`
	Address          string                        `gorm:"type:text"`
	City             string                        `gorm:"type:varchar(100)"`
	Region           string                        `gorm:"type:varchar(30);index"`
	Latitude         *float64
	Longitude        *float64
	SubscriptionPlan organization.Plan   `gorm:"type:varchar(20);not null;default:'starter'"`
	Status           organization.Status `gorm:"type:varchar(20);not null;default:'trial'"`
	MaxCounters      int                 `gorm:"not null;default:3"`
	MaxStaffUsers    int                 `gorm:"not null;default:5"`
	Timezone         string              `gorm:"type:varchar(50);not null;default:'Africa/Dakar'"`
	IsActive         bool                `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (OrganizationModel) TableName() string {
	return "organizations"
}

// ToDomain converts the model to a domain Organization
func (m *OrganizationModel) ToDomain() *organization.Organization {
	return &organization.Organization{
		BaseAggregateRoot: m.toAggregate(),
		Name:              m.Name,
		TradeName:         m.TradeName,
		Type:              m.Type,
		Phone:             m.Phone,
		Email:             m.Email,
		Address:           m.Address,
		City:              m.City,
		Region:            m.Region,
		Latitude:          m.Latitude,
		Longitude:         m.Longitude,
		SubscriptionPlan:  m.SubscriptionPlan,
		Status:            m.Status,
		MaxCounters:       m.MaxCounters,
		MaxStaffUsers:     m.MaxStaffUsers,
		Timezone:          m.Timezone,
		IsActive:          m.IsActive,
	}
}

// OrganizationModelFromDomain builds the model for o
func OrganizationModelFromDomain(o *organization.Organization) *OrganizationModel {
	m := &OrganizationModel{
		Name:             o.Name,
		TradeName:        o.TradeName,
		Type:             o.Type,
		Phone:            o.Phone,
		Email:            o.Email,
		Address:          o.Address,
		City:             o.City,
		Region:           o.Region,
		Latitude:         o.Latitude,
		Longitude:        o.Longitude,
		SubscriptionPlan: o.SubscriptionPlan,
		Status:           o.Status,
		MaxCounters:      o.MaxCounters,
		MaxStaffUsers:    o.MaxStaffUsers,
		Timezone:         o.Timezone,
		IsActive:         o.IsActive,
	}
	m.fromAggregate(o.BaseAggregateRoot)
	return m
}

// ServiceModel is the persistence model for services offered by an organization.
type ServiceModel struct {
	OrgAggregateModel
	Name                  string                `gorm:"type:varchar(200);not null"`
	Code                  string                `gorm:"type:varchar(10);not null"`
	Description           string                `gorm:"type:text"`
	EstimatedDuration     int                   `gorm:"not null;default:5"`
	MaxWaitTime           int                   `gorm:"not null;default:60"`
	Cost                  *decimal.Decimal      `gorm:"type:decimal(12,2)"`
	AllowsAppointments    bool                  `gorm:"not null;default:false"`
	RequiresAppointment   bool                  `gorm:"not null;default:false"`
	MinAppointmentNotice  int                   `gorm:"not null;default:2"`
	MaxAppointmentAdvance int                   `gorm:"not null;default:30"`
	DefaultPriority       organization.Priority `gorm:"type:varchar(10);not null;default:'medium'"`
	IsActive              bool                  `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ServiceModel) TableName() string {
	return "services"
}

// ToDomain converts the model to a domain Service
func (m *ServiceModel) ToDomain() *organization.Service {
	return &organization.Service{
		OrgAggregateRoot:      m.toOrgAggregate(),
		Name:                  m.Name,
		Code:                  m.Code,
		Description:           m.Description,
		EstimatedDuration:     m.EstimatedDuration,
		MaxWaitTime:           m.MaxWaitTime,
		Cost:                  m.Cost,
		AllowsAppointments:    m.AllowsAppointments,
		RequiresAppointment:   m.RequiresAppointment,
		MinAppointmentNotice:  m.MinAppointmentNotice,
		MaxAppointmentAdvance: m.MaxAppointmentAdvance,
		DefaultPriority:       m.DefaultPriority,
		IsActive:              m.IsActive,
	}
}

// ServiceModelFromDomain builds the model for s
func ServiceModelFromDomain(s *organization.Service) *ServiceModel {
	m := &ServiceModel{
		Name:                  s.Name,
		Code:                  s.Code,
		Description:           s.Description,
		EstimatedDuration:     s.EstimatedDuration,
		MaxWaitTime:           s.MaxWaitTime,
		Cost:                  s.Cost,
		AllowsAppointments:    s.AllowsAppointments,
		RequiresAppointment:   s.RequiresAppointment,
		MinAppointmentNotice:  s.MinAppointmentNotice,
		MaxAppointmentAdvance: s.MaxAppointmentAdvance,
		DefaultPriority:       s.DefaultPriority,
		IsActive:              s.IsActive,
	}
	m.fromOrgAggregate(s.OrgAggregateRoot)
	return m
}
