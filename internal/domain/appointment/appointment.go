package appointment

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smartqueue/backend/internal/domain/organization"
	"github.com/smartqueue/backend/internal/domain/shared"
)

// Status is the lifecycle status of an appointment
type Status string

const (
	StatusPending        Status = "pending"
	StatusPendingPayment Status = "pending_payment"
	StatusConfirmed      Status = "confirmed"
	StatusCancelled      Status = "cancelled"
	StatusRescheduled    Status = "rescheduled"
	StatusCheckedIn      Status = "checked_in"
	StatusInProgress     Status = "in_progress"
	StatusCompleted      Status = "completed"
	StatusNoShow         Status = "no_show"
)

// IsValid checks if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPendingPayment, StatusConfirmed, StatusCancelled, StatusRescheduled,
		StatusCheckedIn, StatusInProgress, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

// IsUpcoming reports whether the appointment still has to take place
func (s Status) IsUpcoming() bool {
	return s == StatusPending || s == StatusPendingPayment || s == StatusConfirmed
}

var allowedFrom = map[Status][]Status{
	StatusConfirmed:   {StatusPending, StatusPendingPayment},
	StatusCancelled:   {StatusPending, StatusPendingPayment, StatusConfirmed},
	StatusRescheduled: {StatusPending, StatusConfirmed},
	StatusCheckedIn:   {StatusConfirmed},
	StatusInProgress:  {StatusCheckedIn},
	StatusCompleted:   {StatusInProgress},
	StatusNoShow:      {StatusConfirmed, StatusCheckedIn},
}

// CanTransitionTo reports whether the status may move to target
func (s Status) CanTransitionTo(target Status) bool {
	return slices.Contains(allowedFrom[target], s)
}

// MinCancelNotice is how long before the appointment cancelling is still allowed
const MinCancelNotice = 2 * time.Hour

// Appointment is a booked time slot for a service
type Appointment struct {
	shared.OrgAggregateRoot
	ServiceID     uuid.UUID
	CustomerID    uuid.UUID
	CustomerPhone string
	Number        string
	ScheduledAt   time.Time
	Duration      int
	Status        Status
	Notes         string
	CancelReason  string
	TicketID      *uuid.UUID
	PaymentID     *uuid.UUID
	RescheduledTo *uuid.UUID
	ConfirmedAt   *time.Time
	CancelledAt   *time.Time
	CheckedInAt   *time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
}

// FormatNumber builds an appointment number such as RDV0315007
func FormatNumber(createdOn time.Time, sequence int) string {
	return fmt.Sprintf("RDV%s%03d", createdOn.Format("0102"), sequence)
}

// Book creates an appointment after checking the service's booking policy.
// Paid services start in pending_payment.
func Book(service *organization.Service, customerID uuid.UUID, phone string, scheduledAt time.Time, notes string, sequence int, now time.Time) (*Appointment, error) {
	if !service.IsActive {
		return nil, shared.NewDomainError("SERVICE_INACTIVE", "Service is not available")
	}
	if !service.AllowsAppointments {
		return nil, shared.NewDomainError("APPOINTMENTS_NOT_ALLOWED", "This service does not take appointments")
	}
	earliest, latest := service.AppointmentWindow(now)
	if scheduledAt.Before(earliest) {
		return nil, shared.NewDomainErrorf("TOO_SOON", "Appointments must be booked at least %d hours ahead", service.MinAppointmentNotice)
	}
	if scheduledAt.After(latest) {
		return nil, shared.NewDomainErrorf("TOO_FAR", "Appointments cannot be booked more than %d days ahead", service.MaxAppointmentAdvance)
	}

	status := StatusPending
	if service.IsPaid() {
		status = StatusPendingPayment
	}

	a := &Appointment{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(service.OrganizationID),
		ServiceID:        service.ID,
		CustomerID:       customerID,
		CustomerPhone:    phone,
		Number:           FormatNumber(now, sequence),
		ScheduledAt:      scheduledAt,
		Duration:         service.EstimatedDuration,
		Status:           status,
		Notes:            strings.TrimSpace(notes),
	}
	a.AddDomainEvent(NewAppointmentEvent(EventTypeAppointmentBooked, a))
	return a, nil
}

func (a *Appointment) transition(target Status, verb string) error {
	if !a.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot %s appointment in %s status", verb, a.Status))
	}
	a.Status = target
	a.Touch()
	return nil
}

// IsOwnedBy reports whether the customer booked this appointment
func (a *Appointment) IsOwnedBy(customerID uuid.UUID) bool {
	return a.CustomerID == customerID
}

// IsToday reports whether the appointment is on the same calendar day as now
func (a *Appointment) IsToday(now time.Time) bool {
	y1, m1, d1 := a.ScheduledAt.In(now.Location()).Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// IsAwaitingPayment reports whether the appointment waits for its payment
func (a *Appointment) IsAwaitingPayment() bool {
	return a.Status == StatusPendingPayment
}

// Confirm confirms the appointment
func (a *Appointment) Confirm(now time.Time) error {
	if err := a.transition(StatusConfirmed, "confirm"); err != nil {
		return err
	}
	a.ConfirmedAt = &now
	a.AddDomainEvent(NewAppointmentEvent(EventTypeAppointmentConfirmed, a))
	return nil
}

// ConfirmPayment links the payment and confirms an appointment awaiting it
func (a *Appointment) ConfirmPayment(paymentID uuid.UUID, now time.Time) error {
	if !a.IsAwaitingPayment() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Appointment is %s, not awaiting payment", a.Status))
	}
	a.PaymentID = &paymentID
	return a.Confirm(now)
}

// Cancel cancels the appointment; refused within two hours of it
func (a *Appointment) Cancel(reason string, now time.Time) error {
	if a.Status.CanTransitionTo(StatusCancelled) && a.ScheduledAt.Sub(now) < MinCancelNotice && a.ScheduledAt.After(now) {
		return shared.NewDomainError("TOO_LATE_TO_CANCEL", "Appointments cannot be cancelled less than 2 hours ahead")
	}
	return a.cancel(reason, now)
}

// CancelUnpaid cancels an appointment whose payment failed, regardless of notice
func (a *Appointment) CancelUnpaid(reason string, now time.Time) error {
	if !a.IsAwaitingPayment() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Appointment is %s, not awaiting payment", a.Status))
	}
	return a.cancel(reason, now)
}

func (a *Appointment) cancel(reason string, now time.Time) error {
	if err := a.transition(StatusCancelled, "cancel"); err != nil {
		return err
	}
	a.CancelledAt = &now
	a.CancelReason = reason
	a.AddDomainEvent(NewAppointmentEvent(EventTypeAppointmentCancelled, a))
	return nil
}

// Reschedule closes this appointment and returns a new pending one at the new time
func (a *Appointment) Reschedule(service *organization.Service, newTime time.Time, sequence int, now time.Time) (*Appointment, error) {
	if !a.Status.CanTransitionTo(StatusRescheduled) {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reschedule appointment in %s status", a.Status))
	}
	if service.ID != a.ServiceID {
		return nil, shared.NewDomainError("INVALID_SERVICE", "Service does not match the appointment")
	}
	if a.ScheduledAt.After(now) && a.ScheduledAt.Sub(now) < MinCancelNotice {
		return nil, shared.NewDomainError("TOO_LATE_TO_RESCHEDULE", "Appointments cannot be rescheduled less than 2 hours ahead")
	}
	next, err := Book(service, a.CustomerID, a.CustomerPhone, newTime, a.Notes, sequence, now)
	if err != nil {
		return nil, err
	}
	// the original payment carries over
	if a.PaymentID != nil {
		next.PaymentID = a.PaymentID
		next.Status = StatusPending
	}
	if err := a.transition(StatusRescheduled, "reschedule"); err != nil {
		return nil, err
	}
	a.RescheduledTo = &next.ID
	a.AddDomainEvent(NewAppointmentEvent(EventTypeAppointmentRescheduled, a))
	return next, nil
}

// CheckIn records the customer's arrival on the day of the appointment
func (a *Appointment) CheckIn(ticketID uuid.UUID, now time.Time) error {
	if a.Status == StatusConfirmed && !a.IsToday(now) {
		return shared.NewDomainError("NOT_TODAY", "Check-in is only possible on the day of the appointment")
	}
	if err := a.transition(StatusCheckedIn, "check in"); err != nil {
		return err
	}
	a.CheckedInAt = &now
	a.TicketID = &ticketID
	a.AddDomainEvent(NewAppointmentEvent(EventTypeAppointmentCheckedIn, a))
	return nil
}

// Start marks the appointment as in progress
func (a *Appointment) Start(now time.Time) error {
	if err := a.transition(StatusInProgress, "start"); err != nil {
		return err
	}
	a.StartedAt = &now
	return nil
}

// Complete finishes the appointment
func (a *Appointment) Complete(now time.Time) error {
	if err := a.transition(StatusCompleted, "complete"); err != nil {
		return err
	}
	a.CompletedAt = &now
	a.AddDomainEvent(NewAppointmentEvent(EventTypeAppointmentCompleted, a))
	return nil
}

// MarkNoShow records that the customer did not come
func (a *Appointment) MarkNoShow() error {
	if err := a.transition(StatusNoShow, "mark no-show"); err != nil {
		return err
	}
	a.AddDomainEvent(NewAppointmentEvent(EventTypeAppointmentNoShow, a))
	return nil
}
