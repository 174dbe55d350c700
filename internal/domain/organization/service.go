package organization

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartqueue/backend/internal/domain/shared"
)

// Priority is the dispatch priority of a ticket
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// IsValid checks if the priority is valid
func (p Priority) IsValid() bool {
	return p.Rank() > 0
}

// Rank orders priorities; higher is served first
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	}
	return 0
}

const (
	MinEstimatedDuration = 1
	MaxEstimatedDuration = 180
)

// Service is something an organization offers customers a queue for
type Service struct {
	shared.OrgAggregateRoot
	Name                  string
	Code                  string
	Description           string
	EstimatedDuration     int // minutes per customer
	MaxWaitTime           int // minutes
	Cost                  *decimal.Decimal
	AllowsAppointments    bool
	RequiresAppointment   bool
	MinAppointmentNotice  int // hours
	MaxAppointmentAdvance int // days
	DefaultPriority       Priority
	IsActive              bool
}

// NewService creates a new service with the usual defaults
func NewService(organizationID uuid.UUID, name, code string, estimatedDuration int) (*Service, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Service name cannot be empty")
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || len(code) > 10 {
		return nil, shared.NewDomainError("INVALID_CODE", "Service code must be 1 to 10 characters")
	}
	if estimatedDuration == 0 {
		estimatedDuration = 5
	}
	if estimatedDuration < MinEstimatedDuration || estimatedDuration > MaxEstimatedDuration {
		return nil, shared.NewDomainError("INVALID_DURATION", "Estimated duration must be between 1 and 180 minutes")
	}

	return &Service{
		OrgAggregateRoot:      shared.NewOrgAggregateRoot(organizationID),
		Name:                  name,
		Code:                  code,
		EstimatedDuration:     estimatedDuration,
		MaxWaitTime:           60,
		MinAppointmentNotice:  2,
		MaxAppointmentAdvance: 30,
		DefaultPriority:       PriorityMedium,
		IsActive:              true,
	}, nil
}

// SetCost sets the price of the service; nil means free
func (s *Service) SetCost(cost *decimal.Decimal) error {
	if cost != nil && cost.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Service cost cannot be negative")
	}
	s.Cost = cost
	s.UpdatedAt = time.Now()
	return nil
}

// IsPaid reports whether the service has a positive cost
func (s *Service) IsPaid() bool {
	return s.Cost != nil && s.Cost.IsPositive()
}

// ConfigureAppointments sets the appointment policy
func (s *Service) ConfigureAppointments(allows, requires bool, minNoticeHours, maxAdvanceDays int) error {
	if requires && !allows {
		return shared.NewDomainError("INVALID_APPOINTMENT_POLICY", "A service that requires appointments must allow them")
	}
	if minNoticeHours < 0 || maxAdvanceDays < 1 {
		return shared.NewDomainError("INVALID_APPOINTMENT_POLICY", "Invalid appointment notice or advance window")
	}
	s.AllowsAppointments = allows
	s.RequiresAppointment = requires
	s.MinAppointmentNotice = minNoticeHours
	s.MaxAppointmentAdvance = maxAdvanceDays
	s.UpdatedAt = time.Now()
	return nil
}

// SetDefaultPriority sets the priority given to tickets that don't ask for one
func (s *Service) SetDefaultPriority(p Priority) error {
	if !p.IsValid() {
		return shared.NewDomainError("INVALID_PRIORITY", "Invalid priority")
	}
	s.DefaultPriority = p
	s.UpdatedAt = time.Now()
	return nil
}

// Update changes name, description and durations
func (s *Service) Update(name, description string, estimatedDuration, maxWaitTime int) error {
	if strings.TrimSpace(name) != "" {
		s.Name = strings.TrimSpace(name)
	}
	s.Description = description
	if estimatedDuration != 0 {
		if estimatedDuration < MinEstimatedDuration || estimatedDuration > MaxEstimatedDuration {
			return shared.NewDomainError("INVALID_DURATION", "Estimated duration must be between 1 and 180 minutes")
		}
		s.EstimatedDuration = estimatedDuration
	}
	if maxWaitTime > 0 {
		s.MaxWaitTime = maxWaitTime
	}
	s.UpdatedAt = time.Now()
	return nil
}

// Deactivate stops the service from being offered
func (s *Service) Deactivate() error {
	if !s.IsActive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Service is already inactive")
	}
	s.IsActive = false
	s.UpdatedAt = time.Now()
	return nil
}

// TicketPrefix is the letter printed in front of ticket numbers for this service
func (s *Service) TicketPrefix() string {
	for _, r := range s.Code {
		if unicode.IsLetter(r) {
			return string(unicode.ToUpper(r))
		}
	}
	return "T"
}

// AppointmentWindow returns the earliest and latest time an appointment may be booked at
func (s *Service) AppointmentWindow(now time.Time) (earliest, latest time.Time) {
	return now.Add(time.Duration(s.MinAppointmentNotice) * time.Hour),
		now.AddDate(0, 0, s.MaxAppointmentAdvance)
}
