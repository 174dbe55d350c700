package appointment

import (
	"time"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/appointment"
)

// BookAppointmentRequest represents a request to book an appointment
type BookAppointmentRequest struct {
	OrganizationID uuid.UUID `json:"organization_id" binding:"required"`
	ServiceID      uuid.UUID `json:"service_id" binding:"required"`
	ScheduledAt    time.Time `json:"scheduled_at" binding:"required"`
	Notes          string    `json:"notes" binding:"max=1000"`
}

// CancelAppointmentRequest carries the reason of a cancellation
type CancelAppointmentRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// RescheduleAppointmentRequest moves an appointment to another time
type RescheduleAppointmentRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

// AppointmentListFilter narrows appointment listings
type AppointmentListFilter struct {
	Page           int        `form:"page" binding:"omitempty,min=1"`
	PageSize       int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search         string     `form:"search"`
	OrderBy        string     `form:"order_by"`
	OrderDir       string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	OrganizationID *uuid.UUID `form:"-"`
	ServiceID      *uuid.UUID `form:"-"`
	Status         string     `form:"status" binding:"omitempty,oneof=pending pending_payment confirmed cancelled rescheduled checked_in in_progress completed no_show"`
	From           *time.Time `form:"from" time_format:"2006-01-02"`
	To             *time.Time `form:"to" time_format:"2006-01-02"`
}

// AppointmentResponse represents an appointment in API responses
type AppointmentResponse struct {
	ID                uuid.UUID  `json:"id"`
	OrganizationID    uuid.UUID  `json:"organization_id"`
	ServiceID         uuid.UUID  `json:"service_id"`
	CustomerID        uuid.UUID  `json:"customer_id"`
	CustomerPhone     string     `json:"customer_phone,omitempty"`
	AppointmentNumber string     `json:"appointment_number"`
	ScheduledAt       time.Time  `json:"scheduled_at"`
	Duration          int        `json:"duration"`
	Status            string     `json:"status"`
	Notes             string     `json:"notes,omitempty"`
	CancelReason      string     `json:"cancel_reason,omitempty"`
	TicketID          *uuid.UUID `json:"ticket_id,omitempty"`
	PaymentID         *uuid.UUID `json:"payment_id,omitempty"`
	RescheduledTo     *uuid.UUID `json:"rescheduled_to,omitempty"`
	ConfirmedAt       *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`
	CheckedInAt       *time.Time `json:"checked_in_at,omitempty"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ToAppointmentResponse converts a domain appointment to a response
func ToAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:                a.ID,
		OrganizationID:    a.OrganizationID,
		ServiceID:         a.ServiceID,
		CustomerID:        a.CustomerID,
		CustomerPhone:     a.CustomerPhone,
		AppointmentNumber: a.Number,
		ScheduledAt:       a.ScheduledAt,
		Duration:          a.Duration,
		Status:            string(a.Status),
		Notes:             a.Notes,
		CancelReason:      a.CancelReason,
		TicketID:          a.TicketID,
		PaymentID:         a.PaymentID,
		RescheduledTo:     a.RescheduledTo,
		ConfirmedAt:       a.ConfirmedAt,
		CancelledAt:       a.CancelledAt,
		CheckedInAt:       a.CheckedInAt,
		StartedAt:         a.StartedAt,
		CompletedAt:       a.CompletedAt,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

// RescheduleResponse holds the closed appointment and its replacement
type RescheduleResponse struct {
	Previous AppointmentResponse `json:"previous"`
	Next     AppointmentResponse `json:"next"`
}

// CheckInResponse holds the checked-in appointment and the ticket issued for it
type CheckInResponse struct {
	Appointment  AppointmentResponse `json:"appointment"`
	TicketID     uuid.UUID           `json:"ticket_id"`
	TicketNumber string              `json:"ticket_number"`
	QueueID      uuid.UUID           `json:"queue_id"`
	Position     int                 `json:"position"`
}
