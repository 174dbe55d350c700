package organization

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smartqueue/backend/internal/domain/organization"
)

// CreateOrganizationRequest represents a request to register an organization
type CreateOrganizationRequest struct {
	Name      string   `json:"name" binding:"required,min=1,max=200"`
	TradeName string   `json:"trade_name" binding:"max=200"`
	Type      string   `json:"type" binding:"required,oneof=bank hospital administration telecom insurance other"`
	Phone     string   `json:"phone" binding:"omitempty,sn_phone"`
	Email     string   `json:"email" binding:"omitempty,email"`
	Address   string   `json:"address" binding:"max=500"`
	City      string   `json:"city" binding:"max=100"`
	Region    string   `json:"region" binding:"max=50"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
	Plan      string   `json:"subscription_plan" binding:"omitempty,oneof=starter business enterprise"`
	Timezone  string   `json:"timezone" binding:"max=50"`
}

// UpdateOrganizationRequest represents a request to update an organization
type UpdateOrganizationRequest struct {
	Name      string   `json:"name" binding:"max=200"`
	TradeName string   `json:"trade_name" binding:"max=200"`
	Phone     string   `json:"phone" binding:"omitempty,sn_phone"`
	Email     string   `json:"email" binding:"omitempty,email"`
	Address   string   `json:"address" binding:"max=500"`
	City      string   `json:"city" binding:"max=100"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
	Plan      string   `json:"subscription_plan" binding:"omitempty,oneof=starter business enterprise"`
}

// OrganizationListFilter narrows organization listings
type OrganizationListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Type     string `form:"type" binding:"omitempty,oneof=bank hospital administration telecom insurance other"`
	Region   string `form:"region"`
	Status   string `form:"status" binding:"omitempty,oneof=active suspended trial"`
}

// OrganizationResponse represents an organization in API responses
type OrganizationResponse struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	TradeName        string    `json:"trade_name"`
	Type             string    `json:"type"`
	Phone            string    `json:"phone"`
	Email            string    `json:"email,omitempty"`
	Address          string    `json:"address,omitempty"`
	City             string    `json:"city"`
	Region           string    `json:"region"`
	Latitude         *float64  `json:"latitude,omitempty"`
	Longitude        *float64  `json:"longitude,omitempty"`
	SubscriptionPlan string    `json:"subscription_plan"`
	Status           string    `json:"status"`
	MaxCounters      int       `json:"max_counters"`
	MaxStaffUsers    int       `json:"max_staff_users"`
	Timezone         string    `json:"timezone"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ToOrganizationResponse converts a domain organization to a response
func ToOrganizationResponse(o *organization.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:               o.ID,
		Name:             o.Name,
		TradeName:        o.TradeName,
		Type:             string(o.Type),
		Phone:            o.Phone,
		Email:            o.Email,
		Address:          o.Address,
		City:             o.City,
		Region:           o.Region,
		Latitude:         o.Latitude,
		Longitude:        o.Longitude,
		SubscriptionPlan: string(o.SubscriptionPlan),
		Status:           string(o.Status),
		MaxCounters:      o.MaxCounters,
		MaxStaffUsers:    o.MaxStaffUsers,
		Timezone:         o.Timezone,
		IsActive:         o.IsActive,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

// CreateServiceRequest represents a request to add a service to an organization
type CreateServiceRequest struct {
	Name                  string           `json:"name" binding:"required,min=1,max=200"`
	Code                  string           `json:"code" binding:"required,min=1,max=10"`
	Description           string           `json:"description" binding:"max=1000"`
	EstimatedDuration     int              `json:"estimated_duration" binding:"omitempty,min=1,max=180"`
	MaxWaitTime           int              `json:"max_wait_time" binding:"omitempty,min=5"`
	Cost                  *decimal.Decimal `json:"cost"`
	AllowsAppointments    bool             `json:"allows_appointments"`
	RequiresAppointment   bool             `json:"requires_appointment"`
	MinAppointmentNotice  *int             `json:"min_appointment_notice" binding:"omitempty,min=0"`
	MaxAppointmentAdvance *int             `json:"max_appointment_advance" binding:"omitempty,min=1"`
	DefaultPriority       string           `json:"default_priority" binding:"omitempty,ticket_priority"`
}

// UpdateServiceRequest represents a request to update a service
type UpdateServiceRequest struct {
	Name                  string           `json:"name" binding:"max=200"`
	Description           *string          `json:"description" binding:"omitempty,max=1000"`
	EstimatedDuration     int              `json:"estimated_duration" binding:"omitempty,min=1,max=180"`
	MaxWaitTime           int              `json:"max_wait_time" binding:"omitempty,min=5"`
	Cost                  *decimal.Decimal `json:"cost"`
	ClearCost             bool             `json:"clear_cost"`
	AllowsAppointments    *bool            `json:"allows_appointments"`
	RequiresAppointment   *bool            `json:"requires_appointment"`
	MinAppointmentNotice  *int             `json:"min_appointment_notice" binding:"omitempty,min=0"`
	MaxAppointmentAdvance *int             `json:"max_appointment_advance" binding:"omitempty,min=1"`
	DefaultPriority       string           `json:"default_priority" binding:"omitempty,ticket_priority"`
}

// ServiceListFilter narrows service listings
type ServiceListFilter struct {
	Page               int    `form:"page" binding:"omitempty,min=1"`
	PageSize           int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search             string `form:"search"`
	OrderBy            string `form:"order_by"`
	OrderDir           string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	AllowsAppointments *bool  `form:"allows_appointments"`
	IncludeInactive    bool   `form:"include_inactive"`
}

// ServiceResponse represents a service in API responses
type ServiceResponse struct {
	ID                    uuid.UUID        `json:"id"`
	OrganizationID        uuid.UUID        `json:"organization_id"`
	Name                  string           `json:"name"`
	Code                  string           `json:"code"`
	Description           string           `json:"description"`
	EstimatedDuration     int              `json:"estimated_duration"`
	MaxWaitTime           int              `json:"max_wait_time"`
	Cost                  *decimal.Decimal `json:"cost"`
	IsPaid                bool             `json:"is_paid"`
	AllowsAppointments    bool             `json:"allows_appointments"`
	RequiresAppointment   bool             `json:"requires_appointment"`
	MinAppointmentNotice  int              `json:"min_appointment_notice"`
	MaxAppointmentAdvance int              `json:"max_appointment_advance"`
	DefaultPriority       string           `json:"default_priority"`
	IsActive              bool             `json:"is_active"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// ToServiceResponse converts a domain service to a response
func ToServiceResponse(s *organization.Service) ServiceResponse {
	return ServiceResponse{
		ID:                    s.ID,
		OrganizationID:        s.OrganizationID,
		Name:                  s.Name,
		Code:                  s.Code,
		Description:           s.Description,
		EstimatedDuration:     s.EstimatedDuration,
		MaxWaitTime:           s.MaxWaitTime,
		Cost:                  s.Cost,
		IsPaid:                s.IsPaid(),
		AllowsAppointments:    s.AllowsAppointments,
		RequiresAppointment:   s.RequiresAppointment,
		MinAppointmentNotice:  s.MinAppointmentNotice,
		MaxAppointmentAdvance: s.MaxAppointmentAdvance,
		DefaultPriority:       string(s.DefaultPriority),
		IsActive:              s.IsActive,
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
	}
}
