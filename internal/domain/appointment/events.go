package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/smartqueue/backend/internal/domain/shared"
)

// AggregateTypeAppointment is the aggregate type of appointment events
const AggregateTypeAppointment = "Appointment"

// Event type constants
const (
	EventTypeAppointmentBooked      = "AppointmentBooked"
	EventTypeAppointmentConfirmed   = "AppointmentConfirmed"
	EventTypeAppointmentCancelled   = "AppointmentCancelled"
	EventTypeAppointmentRescheduled = "AppointmentRescheduled"
	EventTypeAppointmentCheckedIn   = "AppointmentCheckedIn"
	EventTypeAppointmentCompleted   = "AppointmentCompleted"
	EventTypeAppointmentNoShow      = "AppointmentNoShow"
)

// AppointmentEvent is raised on every appointment transition
type AppointmentEvent struct {
	shared.BaseDomainEvent
	AppointmentID     uuid.UUID  `json:"appointment_id"`
	AppointmentNumber string     `json:"appointment_number"`
	ServiceID         uuid.UUID  `json:"service_id"`
	CustomerID        uuid.UUID  `json:"customer_id"`
	CustomerPhone     string     `json:"customer_phone,omitempty"`
	ScheduledAt       time.Time  `json:"scheduled_at"`
	Status            Status     `json:"status"`
	TicketID          *uuid.UUID `json:"ticket_id,omitempty"`
	PaymentID         *uuid.UUID `json:"payment_id,omitempty"`
	Reason            string     `json:"reason,omitempty"`
}

// NewAppointmentEvent creates an AppointmentEvent of the given type
func NewAppointmentEvent(eventType string, a *Appointment) *AppointmentEvent {
	return &AppointmentEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(eventType, AggregateTypeAppointment, a.ID, a.OrganizationID),
		AppointmentID:     a.ID,
		AppointmentNumber: a.Number,
		ServiceID:         a.ServiceID,
		CustomerID:        a.CustomerID,
		CustomerPhone:     a.CustomerPhone,
		ScheduledAt:       a.ScheduledAt,
		Status:            a.Status,
		TicketID:          a.TicketID,
		PaymentID:         a.PaymentID,
		Reason:            a.CancelReason,
	}
}
