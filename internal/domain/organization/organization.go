package organization

import (
	"strings"
	"time"

	"github.com/smartqueue/backend/internal/domain/shared"
)

// OrganizationType is the kind of establishment customers queue at
type OrganizationType string

const (
	TypeBank           OrganizationType = "bank"
	TypeHospital       OrganizationType = "hospital"
	TypeAdministration OrganizationType = "administration"
	TypeTelecom        OrganizationType = "telecom"
	TypeInsurance      OrganizationType = "insurance"
	TypeOther          OrganizationType = "other"
)

// IsValid checks if the organization type is valid
func (t OrganizationType) IsValid() bool {
	switch t {
	case TypeBank, TypeHospital, TypeAdministration, TypeTelecom, TypeInsurance, TypeOther:
		return true
	}
	return false
}

// Status is the subscription status of an organization
type Status string

const (
	StatusTrial     Status = "trial"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// Plan is the subscription plan
type Plan string

const (
	PlanStarter    Plan = "starter"
	PlanBusiness   Plan = "business"
	PlanEnterprise Plan = "enterprise"
)

// IsValid checks if the plan is valid
func (p Plan) IsValid() bool {
	return p == PlanStarter || p == PlanBusiness || p == PlanEnterprise
}

// Regions lists the 14 administrative regions of Senegal
var Regions = map[string]bool{
	"dakar":       true,
	"diourbel":    true,
	"fatick":      true,
	"kaffrine":    true,
	"kaolack":     true,
	"kedougou":    true,
	"kolda":       true,
	"louga":       true,
	"matam":       true,
	"saint-louis": true,
	"sedhiou":     true,
	"tambacounda": true,
	"thies":       true,
	"ziguinchor":  true,
}

const (
	DefaultTimezone      = "Africa/Dakar"
	DefaultMaxCounters   = 3
	DefaultMaxStaffUsers = 5
)

// Organization is a business that runs queues
type Organization struct {
	shared.BaseAggregateRoot
	Name             string
	TradeName        string
	Type             OrganizationType
	Phone            string
	Email            string
	Address          string
	City             string
	Region           string
	Latitude         *float64
	Longitude        *float64
	SubscriptionPlan Plan
	Status           Status
	MaxCounters      int
	MaxStaffUsers    int
	Timezone         string
	IsActive         bool
}

// NewOrganization creates a new organization in trial status
func NewOrganization(name, tradeName string, orgType OrganizationType, phone, city, region string) (*Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Organization name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Organization name cannot exceed 200 characters")
	}
	if !orgType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TYPE", "Invalid organization type")
	}
	region = strings.ToLower(strings.TrimSpace(region))
	if region != "" && !Regions[region] {
		return nil, shared.NewDomainError("INVALID_REGION", "Unknown region: "+region)
	}
	if strings.TrimSpace(tradeName) == "" {
		tradeName = name
	}

	return &Organization{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		TradeName:         strings.TrimSpace(tradeName),
		Type:              orgType,
		Phone:             phone,
		City:              city,
		Region:            region,
		SubscriptionPlan:  PlanStarter,
		Status:            StatusTrial,
		MaxCounters:       DefaultMaxCounters,
		MaxStaffUsers:     DefaultMaxStaffUsers,
		Timezone:          DefaultTimezone,
		IsActive:          true,
	}, nil
}

// Update changes the descriptive fields
func (o *Organization) Update(name, tradeName, phone, email, address, city string) error {
	if strings.TrimSpace(name) != "" {
		o.Name = strings.TrimSpace(name)
	}
	if strings.TrimSpace(tradeName) != "" {
		o.TradeName = strings.TrimSpace(tradeName)
	}
	if phone != "" {
		o.Phone = phone
	}
	if email != "" {
		o.Email = email
	}
	if address != "" {
		o.Address = address
	}
	if city != "" {
		o.City = city
	}
	o.UpdatedAt = time.Now()
	return nil
}

// SetLocation sets the GPS coordinates
func (o *Organization) SetLocation(lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return shared.NewDomainError("INVALID_LOCATION", "Coordinates out of range")
	}
	o.Latitude = &lat
	o.Longitude = &lng
	o.UpdatedAt = time.Now()
	return nil
}

// ChangePlan switches the subscription plan and activates a trial organization
func (o *Organization) ChangePlan(plan Plan) error {
	if !plan.IsValid() {
		return shared.NewDomainError("INVALID_PLAN", "Invalid subscription plan")
	}
	o.SubscriptionPlan = plan
	if o.Status == StatusTrial {
		o.Status = StatusActive
	}
	o.UpdatedAt = time.Now()
	return nil
}

// Suspend suspends the organization; its queues stop accepting tickets
func (o *Organization) Suspend() {
	o.Status = StatusSuspended
	o.UpdatedAt = time.Now()
}

// IsOperational reports whether the organization can issue tickets
func (o *Organization) IsOperational() bool {
	return o.IsActive && o.Status != StatusSuspended
}

// DisplayName is the name shown to customers: the trade name when set
func (o *Organization) DisplayName() string {
	if o.TradeName != "" {
		return o.TradeName
	}
	return o.Name
}

// Location returns the organization's time zone, falling back to Africa/Dakar
func (o *Organization) Location() *time.Location {
	return LoadLocation(o.Timezone)
}

// LoadLocation loads a time zone by name, falling back to Africa/Dakar then UTC
func LoadLocation(name string) *time.Location {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		if loc, err = time.LoadLocation(DefaultTimezone); err != nil {
			return time.UTC
		}
	}
	return loc
}
