package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	queueapp "github.com/smartqueue/backend/internal/application/queue"
	"github.com/smartqueue/backend/internal/domain/appointment"
	"github.com/smartqueue/backend/internal/domain/notification"
	"github.com/smartqueue/backend/internal/domain/organization"
	"github.com/smartqueue/backend/internal/domain/payment"
	"github.com/smartqueue/backend/internal/domain/queue"
	"github.com/smartqueue/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// PaymentFailedCancelReason is recorded on appointments cancelled by a failed payment
const PaymentFailedCancelReason = "Paiement échoué"

// Tickets is the part of the ticket service payment outcomes drive
type Tickets interface {
	Issue(ctx context.Context, cmd queueapp.IssueCommand) (*queue.Ticket, error)
	MarkPaid(ctx context.Context, organizationID, ticketID, paymentID uuid.UUID) (*queue.Ticket, error)
	CancelForPayment(ctx context.Context, organizationID, ticketID uuid.UUID) (bool, error)
}

// Appointments is the part of the appointment service payment outcomes drive
type Appointments interface {
	ConfirmPayment(ctx context.Context, organizationID, id, paymentID uuid.UUID) (*appointment.Appointment, bool, error)
	CancelUnpaid(ctx context.Context, organizationID, id uuid.UUID, reason string) (bool, error)
}

// Notifier sends customer SMS
type Notifier interface {
	Notify(ctx context.Context, msg notification.Message) (*notification.Notification, error)
	NotifyOnce(ctx context.Context, msg notification.Message) (*notification.Notification, error)
}

// HandlerDependencies are the ports the payment event handlers work with
type HandlerDependencies struct {
	Tx            shared.TxRunner
	Payments      payment.PaymentRepository
	Organizations organization.OrganizationRepository
	Queues        queue.QueueRepository
	Tickets       Tickets
	Appointments  Appointments
	Notifier      Notifier
}

// PaymentCompletedHandler applies a completed payment to what it paid for
type PaymentCompletedHandler struct {
	deps   HandlerDependencies
	logger *zap.Logger
}

// NewPaymentCompletedHandler creates a new PaymentCompletedHandler
func NewPaymentCompletedHandler(deps HandlerDependencies, logger *zap.Logger) *PaymentCompletedHandler {
	return &PaymentCompletedHandler{deps: deps, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *PaymentCompletedHandler) EventTypes() []string {
	return []string{payment.EventTypePaymentCompleted}
}

// Handle marks the linked ticket or appointment paid, or issues a ticket for an
// unlinked ticket fee, then texts the payer
func (h *PaymentCompletedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*payment.PaymentCompletedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			payment.EventTypePaymentCompleted, event.EventType())
	}

	h.logger.Info("Applying completed payment",
		zap.String("payment_id", e.PaymentID.String()),
		zap.String("payment_number", e.PaymentNumber),
		zap.String("payment_type", string(e.PaymentType)))

	org, err := h.deps.Organizations.FindByID(ctx, e.OrganizationID())
	if err != nil {
		return fmt.Errorf("failed to load organization: %w", err)
	}

	switch {
	case e.TicketID != nil:
		return h.payTicket(ctx, org, e)
	case e.AppointmentID != nil:
		return h.payAppointment(ctx, org, e)
	case e.PaymentType == payment.TypeTicketFee:
		return h.issueTicket(ctx, org, e)
	default:
		h.logger.Info("Completed payment has nothing to apply to",
			zap.String("payment_number", e.PaymentNumber))
		return nil
	}
}

func (h *PaymentCompletedHandler) payTicket(ctx context.Context, org *organization.Organization, e *payment.PaymentCompletedEvent) error {
	t, err := h.deps.Tickets.MarkPaid(ctx, org.ID, *e.TicketID, e.PaymentID)
	if err != nil {
		return fmt.Errorf("failed to mark ticket paid: %w", err)
	}
	return h.confirm(ctx, org, e, notification.TicketPaidText(t.Number, org.DisplayName()))
}

func (h *PaymentCompletedHandler) payAppointment(ctx context.Context, org *organization.Organization, e *payment.PaymentCompletedEvent) error {
	a, changed, err := h.deps.Appointments.ConfirmPayment(ctx, org.ID, *e.AppointmentID, e.PaymentID)
	if err != nil {
		return fmt.Errorf("failed to confirm appointment payment: %w", err)
	}
	if !changed {
		return nil
	}
	return h.confirm(ctx, org, e, notification.AppointmentPaidText(a.Number,
		a.ScheduledAt.In(org.Location()), org.DisplayName()))
}

// issueTicket issues a paid ticket for a ticket fee paid before queueing
func (h *PaymentCompletedHandler) issueTicket(ctx context.Context, org *organization.Organization, e *payment.PaymentCompletedEvent) error {
	var (
		ticket *queue.Ticket
		q      *queue.Queue
	)
	err := h.deps.Tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := h.deps.Payments.FindByNumberForUpdate(ctx, e.PaymentNumber)
		if err != nil {
			return err
		}
		if p.TicketID != nil {
			return nil
		}

		paymentID := p.ID
		opts := queue.IssueOptions{
			CustomerPhone: p.PayerPhone,
			Priority:      organization.PriorityMedium,
			Channel:       queue.ChannelMobile,
			PaymentID:     &paymentID,
			IsPaid:        true,
		}
		if p.CustomerID != uuid.Nil {
			customerID := p.CustomerID
			opts.CustomerID = &customerID
		}
		issue := func(target *queue.Queue) (*queue.Ticket, error) {
			return h.deps.Tickets.Issue(ctx, queueapp.IssueCommand{
				OrganizationID: org.ID,
				QueueID:        target.ID,
				Options:        opts,
			})
		}

		if e.QueueID != nil {
			q, err = h.deps.Queues.FindByIDForOrg(ctx, org.ID, *e.QueueID)
			if err == nil {
				ticket, err = issue(q)
			}
			if err != nil && (errors.Is(err, shared.ErrNotFound) || queueUnavailable(err)) {
				h.logger.Warn("Queue of paid ticket fee unavailable, trying another open queue",
					zap.String("payment_number", p.Number),
					zap.String("queue_id", e.QueueID.String()),
					zap.Error(err))
				ticket, err = nil, nil
			}
		}
		if ticket == nil && err == nil {
			q, err = h.deps.Queues.FindFirstOpen(ctx, org.ID, nil, "")
			if err == nil {
				ticket, err = issue(q)
			}
		}
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) || queueUnavailable(err) {
				h.logger.Warn("No open queue for paid ticket fee",
					zap.String("payment_number", p.Number),
					zap.String("organization_id", org.ID.String()),
					zap.Error(err))
				ticket, q = nil, nil
				return nil
			}
			return err
		}
		p.LinkTicket(ticket.ID)
		return h.deps.Payments.Update(ctx, p)
	})
	if err != nil {
		return fmt.Errorf("failed to issue ticket for payment: %w", err)
	}
	if ticket == nil {
		return nil
	}

	h.logger.Info("Ticket issued for payment",
		zap.String("payment_number", e.PaymentNumber),
		zap.String("ticket_number", ticket.Number))
	return h.confirm(ctx, org, e, notification.TicketCreatedByPaymentText(ticket.Number, q.Name, org.DisplayName()))
}

func (h *PaymentCompletedHandler) confirm(ctx context.Context, org *organization.Organization, e *payment.PaymentCompletedEvent, text string) error {
	if e.PayerPhone == "" {
		return nil
	}
	_, err := h.deps.Notifier.NotifyOnce(ctx, message(org.ID, &e.PaymentInfo, notification.KindPaymentConfirmed, text))
	return err
}

// PaymentFailedHandler releases what a failed payment was holding and tells the payer
type PaymentFailedHandler struct {
	deps   HandlerDependencies
	logger *zap.Logger
}

// NewPaymentFailedHandler creates a new PaymentFailedHandler
func NewPaymentFailedHandler(deps HandlerDependencies, logger *zap.Logger) *PaymentFailedHandler {
	return &PaymentFailedHandler{deps: deps, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *PaymentFailedHandler) EventTypes() []string {
	return []string{payment.EventTypePaymentFailed}
}

// Handle cancels the unpaid ticket or appointment and texts the payer
func (h *PaymentFailedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*payment.PaymentFailedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			payment.EventTypePaymentFailed, event.EventType())
	}
	orgID := e.OrganizationID()

	if e.TicketID != nil {
		cancelled, err := h.deps.Tickets.CancelForPayment(ctx, orgID, *e.TicketID)
		if err != nil {
			return fmt.Errorf("failed to cancel ticket: %w", err)
		}
		if cancelled {
			h.logger.Info("Ticket cancelled after failed payment",
				zap.String("payment_number", e.PaymentNumber),
				zap.String("ticket_id", e.TicketID.String()))
		}
	}
	if e.AppointmentID != nil {
		cancelled, err := h.deps.Appointments.CancelUnpaid(ctx, orgID, *e.AppointmentID, PaymentFailedCancelReason)
		if err != nil {
			return fmt.Errorf("failed to cancel appointment: %w", err)
		}
		if cancelled {
			h.logger.Info("Appointment cancelled after failed payment",
				zap.String("payment_number", e.PaymentNumber),
				zap.String("appointment_id", e.AppointmentID.String()))
		}
	}

	if e.PayerPhone == "" {
		return nil
	}
	text := notification.PaymentFailedText(e.PaymentNumber, e.Total, e.Reason)
	_, err := h.deps.Notifier.NotifyOnce(ctx, message(orgID, &e.PaymentInfo, notification.KindPaymentFailed, text))
	return err
}

func message(organizationID uuid.UUID, info *payment.PaymentInfo, kind notification.Kind, text string) notification.Message {
	msg := notification.Message{
		OrganizationID: organizationID,
		Phone:          info.PayerPhone,
		Kind:           kind,
		Text:           text,
	}
	if info.CustomerID != uuid.Nil {
		customerID := info.CustomerID
		msg.CustomerID = &customerID
	}
	paymentID := info.PaymentID
	msg.ReferenceID = &paymentID
	return msg
}

// queueUnavailable reports a queue that closed or filled up since the payment started
func queueUnavailable(err error) bool {
	return errors.Is(err, queue.ErrQueueClosed) || errors.Is(err, queue.ErrQueueFull)
}
