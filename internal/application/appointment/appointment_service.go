package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	queueapp "github.com/smartqueue/backend/internal/application/queue"
	"github.com/smartqueue/backend/internal/domain/appointment"
	"github.com/smartqueue/backend/internal/domain/identity"
	"github.com/smartqueue/backend/internal/domain/organization"
	"github.com/smartqueue/backend/internal/domain/queue"
	"github.com/smartqueue/backend/internal/domain/shared"
	"go.uber.org/zap"
)

var (
	ErrAppointmentNotFound = shared.NewDomainError("APPOINTMENT_NOT_FOUND", "Appointment not found")
	ErrServiceNotFound     = shared.NewDomainError("SERVICE_NOT_FOUND", "Service not found")
	ErrNoOpenQueue         = shared.NewDomainError("NO_OPEN_QUEUE", "No queue is open for this service")
	ErrOrganizationClosed  = shared.NewDomainError("ORGANIZATION_UNAVAILABLE", "This organization is not taking appointments")
	ErrNumberTaken         = shared.NewDomainError("CONCURRENCY_CONFLICT", "Another booking took this appointment number, please retry")
)

// TicketIssuer issues queue tickets; it joins the caller's transaction
type TicketIssuer interface {
	Issue(ctx context.Context, cmd queueapp.IssueCommand) (*queue.Ticket, error)
}

// Dependencies are the ports the appointment service works with
type Dependencies struct {
	Tx            shared.TxRunner
	Organizations organization.OrganizationRepository
	Services      organization.ServiceRepository
	Queues        queue.QueueRepository
	Appointments  appointment.AppointmentRepository
	Events        shared.EventRecorder
}

// AppointmentService books appointments and drives them through their lifecycle
type AppointmentService struct {
	deps    Dependencies
	tickets TicketIssuer
	logger  *zap.Logger
	now     func() time.Time
}

// NewAppointmentService creates a new AppointmentService
func NewAppointmentService(deps Dependencies, tickets TicketIssuer, logger *zap.Logger) *AppointmentService {
	return &AppointmentService{deps: deps, tickets: tickets, logger: logger, now: time.Now}
}

// Book books an appointment for the calling customer
func (s *AppointmentService) Book(ctx context.Context, actor identity.Actor, req BookAppointmentRequest) (*AppointmentResponse, error) {
	if !actor.IsCustomer() {
		return nil, shared.ErrForbidden
	}
	org, err := s.deps.Organizations.FindByID(ctx, req.OrganizationID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("ORGANIZATION_NOT_FOUND", "Organization not found")
		}
		return nil, err
	}
	if !org.IsOperational() {
		return nil, ErrOrganizationClosed
	}
	now := s.now().In(org.Location())

	var a *appointment.Appointment
	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context) error {
		service, err := s.loadService(ctx, org.ID, req.ServiceID)
		if err != nil {
			return err
		}
		sequence, err := s.deps.Appointments.NextSequence(ctx, now)
		if err != nil {
			return err
		}
		a, err = appointment.Book(service, actor.UserID, actor.Phone, req.ScheduledAt, req.Notes, sequence, now)
		if err != nil {
			return err
		}
		if err := s.create(ctx, a); err != nil {
			return err
		}
		return s.record(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Appointment booked",
		zap.String("appointment_id", a.ID.String()),
		zap.String("appointment_number", a.Number),
		zap.String("status", string(a.Status)))
	resp := ToAppointmentResponse(a)
	return &resp, nil
}

// Get returns an appointment the actor may see
func (s *AppointmentService) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*AppointmentResponse, error) {
	a, err := s.load(ctx, actor, id, false)
	if err != nil {
		return nil, err
	}
	resp := ToAppointmentResponse(a)
	return &resp, nil
}

// List lists appointments. Customers see their own across organizations,
// staff those of their organization.
func (s *AppointmentService) List(ctx context.Context, actor identity.Actor, filter AppointmentListFilter) (*shared.Paginated[AppointmentResponse], error) {
	f := appointment.Filter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			Search:   filter.Search,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
		}.Normalize(),
		ServiceID: filter.ServiceID,
		From:      filter.From,
		To:        filter.To,
	}
	if filter.Status != "" {
		status := appointment.Status(filter.Status)
		f.Status = &status
	}

	var organizationID *uuid.UUID
	if actor.IsCustomer() {
		customerID := actor.UserID
		f.CustomerID = &customerID
		organizationID = filter.OrganizationID
	} else {
		orgID, err := actor.Organization(filter.OrganizationID)
		if err != nil {
			return nil, err
		}
		organizationID = &orgID
	}

	rows, err := s.deps.Appointments.FindAll(ctx, organizationID, f)
	if err != nil {
		return nil, err
	}
	total, err := s.deps.Appointments.Count(ctx, organizationID, f)
	if err != nil {
		return nil, err
	}
	items := make([]AppointmentResponse, len(rows))
	for i := range rows {
		items[i] = ToAppointmentResponse(&rows[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// Confirm confirms a pending appointment
func (s *AppointmentService) Confirm(ctx context.Context, actor identity.Actor, id uuid.UUID) (*AppointmentResponse, error) {
	return s.transition(ctx, actor, id, true, func(a *appointment.Appointment, now time.Time) error {
		return a.Confirm(now)
	})
}

// Cancel cancels an appointment; the customer who booked it or staff may do this
func (s *AppointmentService) Cancel(ctx context.Context, actor identity.Actor, id uuid.UUID, req CancelAppointmentRequest) (*AppointmentResponse, error) {
	return s.transition(ctx, actor, id, false, func(a *appointment.Appointment, now time.Time) error {
		return a.Cancel(req.Reason, now)
	})
}

// Start marks a checked-in appointment as in progress
func (s *AppointmentService) Start(ctx context.Context, actor identity.Actor, id uuid.UUID) (*AppointmentResponse, error) {
	return s.transition(ctx, actor, id, true, func(a *appointment.Appointment, now time.Time) error {
		return a.Start(now)
	})
}

// Complete finishes an appointment in progress
func (s *AppointmentService) Complete(ctx context.Context, actor identity.Actor, id uuid.UUID) (*AppointmentResponse, error) {
	return s.transition(ctx, actor, id, true, func(a *appointment.Appointment, now time.Time) error {
		return a.Complete(now)
	})
}

// NoShow records that the customer did not come
func (s *AppointmentService) NoShow(ctx context.Context, actor identity.Actor, id uuid.UUID) (*AppointmentResponse, error) {
	return s.transition(ctx, actor, id, true, func(a *appointment.Appointment, _ time.Time) error {
		return a.MarkNoShow()
	})
}

func (s *AppointmentService) transition(ctx context.Context, actor identity.Actor, id uuid.UUID, staffOnly bool,
	fn func(a *appointment.Appointment, now time.Time) error) (*AppointmentResponse, error) {
	current, err := s.load(ctx, actor, id, staffOnly)
	if err != nil {
		return nil, err
	}
	now, err := s.clock(ctx, current.OrganizationID)
	if err != nil {
		return nil, err
	}

	var a *appointment.Appointment
	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context) error {
		a, err = s.lock(ctx, current.OrganizationID, id)
		if err != nil {
			return err
		}
		if err := fn(a, now); err != nil {
			return err
		}
		if err := s.deps.Appointments.Update(ctx, a); err != nil {
			return err
		}
		return s.record(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	resp := ToAppointmentResponse(a)
	return &resp, nil
}

// Reschedule closes the appointment and books a new one at the requested time
func (s *AppointmentService) Reschedule(ctx context.Context, actor identity.Actor, id uuid.UUID, req RescheduleAppointmentRequest) (*RescheduleResponse, error) {
	current, err := s.load(ctx, actor, id, false)
	if err != nil {
		return nil, err
	}
	now, err := s.clock(ctx, current.OrganizationID)
	if err != nil {
		return nil, err
	}

	var previous, next *appointment.Appointment
	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context) error {
		previous, err = s.lock(ctx, current.OrganizationID, id)
		if err != nil {
			return err
		}
		service, err := s.loadService(ctx, previous.OrganizationID, previous.ServiceID)
		if err != nil {
			return err
		}
		sequence, err := s.deps.Appointments.NextSequence(ctx, now)
		if err != nil {
			return err
		}
		next, err = previous.Reschedule(service, req.ScheduledAt, sequence, now)
		if err != nil {
			return err
		}
		if err := s.create(ctx, next); err != nil {
			return err
		}
		if err := s.deps.Appointments.Update(ctx, previous); err != nil {
			return err
		}
		return s.record(ctx, previous, next)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Appointment rescheduled",
		zap.String("appointment_id", previous.ID.String()),
		zap.String("rescheduled_to", next.ID.String()))
	return &RescheduleResponse{
		Previous: ToAppointmentResponse(previous),
		Next:     ToAppointmentResponse(next),
	}, nil
}

// CheckIn records the customer's arrival and issues a ticket for the
// appointment, in the service's appointment queue when one is open
func (s *AppointmentService) CheckIn(ctx context.Context, actor identity.Actor, id uuid.UUID) (*CheckInResponse, error) {
	current, err := s.load(ctx, actor, id, false)
	if err != nil {
		return nil, err
	}
	now, err := s.clock(ctx, current.OrganizationID)
	if err != nil {
		return nil, err
	}

	var (
		a      *appointment.Appointment
		ticket *queue.Ticket
	)
	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context) error {
		a, err = s.lock(ctx, current.OrganizationID, id)
		if err != nil {
			return err
		}
		if !a.Status.CanTransitionTo(appointment.StatusCheckedIn) {
			return shared.NewDomainErrorf("INVALID_STATE", "Cannot check in appointment in %s status", a.Status)
		}
		if !a.IsToday(now) {
			return shared.NewDomainError("NOT_TODAY", "Check-in is only possible on the day of the appointment")
		}

		q, err := s.checkInQueue(ctx, a)
		if err != nil {
			return err
		}
		customerID := a.CustomerID
		scheduledAt := a.ScheduledAt
		appointmentID := a.ID
		ticket, err = s.tickets.Issue(ctx, queueapp.IssueCommand{
			OrganizationID: a.OrganizationID,
			QueueID:        q.ID,
			Options: queue.IssueOptions{
				CustomerID:      &customerID,
				CustomerPhone:   a.CustomerPhone,
				Channel:         queue.ChannelMobile,
				CustomerNotes:   a.Notes,
				AppointmentID:   &appointmentID,
				AppointmentTime: &scheduledAt,
				PaymentID:       a.PaymentID,
				IsPaid:          a.PaymentID != nil,
			},
		})
		if err != nil {
			return err
		}

		if err := a.CheckIn(ticket.ID, now); err != nil {
			return err
		}
		if err := s.deps.Appointments.Update(ctx, a); err != nil {
			return err
		}
		return s.record(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Appointment checked in",
		zap.String("appointment_id", a.ID.String()),
		zap.String("ticket_number", ticket.Number))
	return &CheckInResponse{
		Appointment:  ToAppointmentResponse(a),
		TicketID:     ticket.ID,
		TicketNumber: ticket.Number,
		QueueID:      ticket.QueueID,
		Position:     ticket.Position,
	}, nil
}

// checkInQueue prefers the service's appointment queue and falls back to any open queue of the service
func (s *AppointmentService) checkInQueue(ctx context.Context, a *appointment.Appointment) (*queue.Queue, error) {
	serviceID := a.ServiceID
	q, err := s.deps.Queues.FindFirstOpen(ctx, a.OrganizationID, &serviceID, queue.TypeAppointment)
	if err == nil {
		return q, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	q, err = s.deps.Queues.FindFirstOpen(ctx, a.OrganizationID, &serviceID, "")
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrNoOpenQueue
		}
		return nil, err
	}
	return q, nil
}

// ConfirmPayment confirms an appointment once its payment completed. It
// reports false when the appointment was no longer awaiting payment.
func (s *AppointmentService) ConfirmPayment(ctx context.Context, organizationID, id, paymentID uuid.UUID) (*appointment.Appointment, bool, error) {
	now, err := s.clock(ctx, organizationID)
	if err != nil {
		return nil, false, err
	}
	var (
		a       *appointment.Appointment
		changed bool
	)
	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context) error {
		a, err = s.lock(ctx, organizationID, id)
		if err != nil {
			return err
		}
		if !a.IsAwaitingPayment() {
			return nil
		}
		if err := a.ConfirmPayment(paymentID, now); err != nil {
			return err
		}
		if err := s.deps.Appointments.Update(ctx, a); err != nil {
			return err
		}
		changed = true
		return s.record(ctx, a)
	})
	if err != nil {
		return nil, false, err
	}
	return a, changed, nil
}

// CancelUnpaid cancels an appointment whose payment failed. It reports false
// when the appointment was no longer awaiting payment.
func (s *AppointmentService) CancelUnpaid(ctx context.Context, organizationID, id uuid.UUID, reason string) (bool, error) {
	now, err := s.clock(ctx, organizationID)
	if err != nil {
		return false, err
	}
	changed := false
	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context) error {
		a, err := s.lock(ctx, organizationID, id)
		if err != nil {
			return err
		}
		if !a.IsAwaitingPayment() {
			return nil
		}
		if err := a.CancelUnpaid(reason, now); err != nil {
			return err
		}
		if err := s.deps.Appointments.Update(ctx, a); err != nil {
			return err
		}
		changed = true
		return s.record(ctx, a)
	})
	return changed, err
}

// load finds an appointment the actor may act on; customers only their own
func (s *AppointmentService) load(ctx context.Context, actor identity.Actor, id uuid.UUID, staffOnly bool) (*appointment.Appointment, error) {
	a, err := s.deps.Appointments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	switch {
	case actor.CanManage(a.OrganizationID):
		return a, nil
	case staffOnly || !actor.IsCustomer():
		return nil, shared.ErrForbidden
	case !a.IsOwnedBy(actor.UserID):
		return nil, ErrAppointmentNotFound
	}
	return a, nil
}

func (s *AppointmentService) lock(ctx context.Context, organizationID, id uuid.UUID) (*appointment.Appointment, error) {
	a, err := s.deps.Appointments.FindByIDForUpdate(ctx, organizationID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *AppointmentService) loadService(ctx context.Context, organizationID, id uuid.UUID) (*organization.Service, error) {
	service, err := s.deps.Services.FindByIDForOrg(ctx, organizationID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return service, nil
}

// clock returns now in the organization's time zone
func (s *AppointmentService) clock(ctx context.Context, organizationID uuid.UUID) (time.Time, error) {
	org, err := s.deps.Organizations.FindByID(ctx, organizationID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return time.Time{}, shared.NewDomainError("ORGANIZATION_NOT_FOUND", "Organization not found")
		}
		return time.Time{}, err
	}
	return s.now().In(org.Location()), nil
}

// create inserts a, reporting a number taken by a concurrent booking as a conflict
func (s *AppointmentService) create(ctx context.Context, a *appointment.Appointment) error {
	err := s.deps.Appointments.Create(ctx, a)
	if errors.Is(err, shared.ErrAlreadyExists) {
		return ErrNumberTaken
	}
	return err
}

func (s *AppointmentService) record(ctx context.Context, aggregates ...shared.AggregateRoot) error {
	events := shared.PullEvents(aggregates...)
	if len(events) == 0 || s.deps.Events == nil {
		return nil
	}
	return s.deps.Events.Record(ctx, events...)
}
