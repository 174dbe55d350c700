package notification

import (
	"context"
	"fmt"

	"github.com/smartqueue/backend/internal/domain/notification"
	"github.com/smartqueue/backend/internal/domain/organization"
	"github.com/smartqueue/backend/internal/domain/queue"
	"github.com/smartqueue/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Notifier sends one SMS and records it
type Notifier interface {
	Notify(ctx context.Context, msg notification.Message) (*notification.Notification, error)
	NotifyOnce(ctx context.Context, msg notification.Message) (*notification.Notification, error)
}

// TicketNotificationHandler texts customers when their ticket is issued or called,
// and warns the customer a few turns behind the called ticket
type TicketNotificationHandler struct {
	tx       shared.TxRunner
	queues   queue.QueueRepository
	tickets  queue.TicketRepository
	services organization.ServiceRepository
	notifier Notifier
	logger   *zap.Logger
}

// NewTicketNotificationHandler creates a new TicketNotificationHandler
func NewTicketNotificationHandler(
	tx shared.TxRunner,
	queues queue.QueueRepository,
	tickets queue.TicketRepository,
	services organization.ServiceRepository,
	notifier Notifier,
	logger *zap.Logger,
) *TicketNotificationHandler {
	return &TicketNotificationHandler{
		tx:       tx,
		queues:   queues,
		tickets:  tickets,
		services: services,
		notifier: notifier,
		logger:   logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *TicketNotificationHandler) EventTypes() []string {
	return []string{queue.EventTypeTicketIssued, queue.EventTypeTicketCalled, queue.EventTypeTicketRecalled}
}

// Handle dispatches on the event type
func (h *TicketNotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *queue.TicketIssuedEvent:
		return h.handleIssued(ctx, e)
	case *queue.TicketCalledEvent:
		return h.handleCalled(ctx, e)
	default:
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}
}

func (h *TicketNotificationHandler) handleIssued(ctx context.Context, e *queue.TicketIssuedEvent) error {
	if e.CustomerPhone == "" {
		return nil
	}
	q, err := h.queues.FindByIDForOrg(ctx, e.OrganizationID(), e.QueueID)
	if err != nil {
		return fmt.Errorf("failed to load queue: %w", err)
	}
	if !q.NotificationsEnabled {
		return nil
	}
	service, err := h.services.FindByIDForOrg(ctx, e.OrganizationID(), q.ServiceID)
	if err != nil {
		return fmt.Errorf("failed to load service: %w", err)
	}

	wait := max(e.Position-1, 0) * service.EstimatedDuration
	ticketID := e.TicketID
	_, err = h.notifier.NotifyOnce(ctx, notification.Message{
		OrganizationID: e.OrganizationID(),
		CustomerID:     e.CustomerID,
		Phone:          e.CustomerPhone,
		Kind:           notification.KindTicketIssued,
		Text:           notification.TicketIssuedText(e.TicketNumber, q.Name, e.Position, wait),
		ReferenceID:    &ticketID,
	})
	return err
}

func (h *TicketNotificationHandler) handleCalled(ctx context.Context, e *queue.TicketCalledEvent) error {
	q, err := h.queues.FindByIDForOrg(ctx, e.OrganizationID(), e.QueueID)
	if err != nil {
		return fmt.Errorf("failed to load queue: %w", err)
	}
	if !q.NotificationsEnabled {
		return nil
	}

	if e.CustomerPhone != "" {
		ticketID := e.TicketID
		if _, err := h.notifier.Notify(ctx, notification.Message{
			OrganizationID: e.OrganizationID(),
			CustomerID:     e.CustomerID,
			Phone:          e.CustomerPhone,
			Kind:           notification.KindTicketCalled,
			Text:           notification.TicketCalledText(e.TicketNumber, q.Name),
			ReferenceID:    &ticketID,
		}); err != nil {
			return err
		}
	}

	// a recall does not move the line
	if e.EventType() != queue.EventTypeTicketCalled {
		return nil
	}
	return h.warnApproaching(ctx, q)
}

// warnApproaching texts the waiting ticket that has exactly NotifyBeforeTurns tickets ahead of it
func (h *TicketNotificationHandler) warnApproaching(ctx context.Context, q *queue.Queue) error {
	turns := q.NotifyBeforeTurns
	if turns < 1 {
		return nil
	}
	waiting, err := h.tickets.FindWaiting(ctx, q.ID, q.Strategy.Ordering(), turns+1)
	if err != nil {
		return fmt.Errorf("failed to list waiting tickets: %w", err)
	}
	if len(waiting) <= turns {
		return nil
	}
	candidate := waiting[turns]
	if candidate.CustomerPhone == "" {
		return nil
	}

	var target *queue.Ticket
	err = h.tx.RunInTx(ctx, func(ctx context.Context) error {
		t, err := h.tickets.FindByIDForUpdate(ctx, q.OrganizationID, candidate.ID)
		if err != nil {
			return err
		}
		if t.Status != queue.TicketWaiting || !t.RecordNotification(queue.NotificationTurnApproaching) {
			return nil
		}
		if err := h.tickets.Update(ctx, t); err != nil {
			return err
		}
		target = t
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record turn notification: %w", err)
	}
	if target == nil {
		return nil
	}

	ticketID := target.ID
	_, err = h.notifier.Notify(ctx, notification.Message{
		OrganizationID: target.OrganizationID,
		CustomerID:     target.CustomerID,
		Phone:          target.CustomerPhone,
		Kind:           notification.KindTurnApproaching,
		Text:           notification.TurnApproachingText(target.Number, turns),
		ReferenceID:    &ticketID,
	})
	if err == nil {
		h.logger.Debug("Turn approaching notification sent",
			zap.String("ticket_id", ticketID.String()),
			zap.Int("turns_ahead", turns))
	}
	return err
}

var _ shared.EventHandler = (*TicketNotificationHandler)(nil)
