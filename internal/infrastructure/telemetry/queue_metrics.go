package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/smartqueue/backend/internal/domain/payment"
	"github.com/smartqueue/backend/internal/domain/queue"
	"github.com/smartqueue/backend/internal/domain/shared"
)

// ErrMeterNil is returned when queue metrics are built without a meter
var ErrMeterNil = errors.New("telemetry: meter is nil")

// QueueMetrics counts tickets and payments as they flow through the system
type QueueMetrics struct {
	ticketsIssued    *Counter
	ticketsCalled    *Counter
	ticketsCompleted *Counter
	waitMinutes      *Histogram
	serviceMinutes   *Histogram
	payments         *Counter
}

// NewQueueMetrics registers the queue instruments on meter
func NewQueueMetrics(meter metric.Meter) (*QueueMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	m := &QueueMetrics{}
	var err error

	if m.ticketsIssued, err = NewCounter(meter, "smartqueue_tickets_issued_total",
		"Tickets taken by customers", "{tickets}"); err != nil {
		return nil, err
	}
	if m.ticketsCalled, err = NewCounter(meter, "smartqueue_tickets_called_total",
		"Ticket calls, recalls included", "{calls}"); err != nil {
		return nil, err
	}
	if m.ticketsCompleted, err = NewCounter(meter, "smartqueue_tickets_completed_total",
		"Tickets that reached a terminal status", "{tickets}"); err != nil {
		return nil, err
	}
	if m.waitMinutes, err = NewHistogram(meter, "smartqueue_ticket_wait_minutes",
		"Minutes between taking a ticket and being called", "min", WaitMinutesBuckets...); err != nil {
		return nil, err
	}
	if m.serviceMinutes, err = NewHistogram(meter, "smartqueue_ticket_service_minutes",
		"Minutes spent at the counter", "min", WaitMinutesBuckets...); err != nil {
		return nil, err
	}
	if m.payments, err = NewCounter(meter, "smartqueue_payments_total",
		"Payments that completed or failed", "{payments}"); err != nil {
		return nil, err
	}
	return m, nil
}

func ticketAttrs(e shared.DomainEvent, info queue.TicketInfo) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrOrganizationID.String(e.OrganizationID().String()),
		AttrQueueID.String(info.QueueID.String()),
	}
}

// Handle records the metric matching the event
func (m *QueueMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *queue.TicketIssuedEvent:
		attrs := append(ticketAttrs(e, e.TicketInfo), AttrPriority.String(e.Priority), AttrChannel.String(e.Channel))
		m.ticketsIssued.Inc(ctx, attrs...)
	case *queue.TicketCalledEvent:
		m.ticketsCalled.Inc(ctx, ticketAttrs(e, e.TicketInfo)...)
	case *queue.TicketServedEvent:
		attrs := ticketAttrs(e, e.TicketInfo)
		m.ticketsCompleted.Inc(ctx, append(attrs, AttrStatus.String(string(queue.TicketServed)))...)
		m.waitMinutes.Record(ctx, float64(e.WaitTimeMinutes), attrs...)
		m.serviceMinutes.Record(ctx, float64(e.ServiceTimeMinutes), attrs...)
	case *queue.TicketStatusEvent:
		m.ticketsCompleted.Inc(ctx, append(ticketAttrs(e, e.TicketInfo), AttrStatus.String(string(e.Status)))...)
	case *queue.TicketTransferredEvent:
		m.ticketsCompleted.Inc(ctx, append(ticketAttrs(e, e.TicketInfo), AttrStatus.String(string(queue.TicketTransferred)))...)
	case *payment.PaymentCompletedEvent:
		m.recordPayment(ctx, e.OrganizationID().String(), e.PaymentInfo, "completed")
	case *payment.PaymentFailedEvent:
		m.recordPayment(ctx, e.OrganizationID().String(), e.PaymentInfo, "failed")
	}
	return nil
}

func (m *QueueMetrics) recordPayment(ctx context.Context, organizationID string, info payment.PaymentInfo, status string) {
	m.payments.Inc(ctx,
		AttrOrganizationID.String(organizationID),
		AttrProvider.String(string(info.Provider)),
		AttrPaymentType.String(string(info.PaymentType)),
		AttrStatus.String(status),
	)
}

// EventTypes lists the events that feed the metrics
func (m *QueueMetrics) EventTypes() []string {
	return []string{
		queue.EventTypeTicketIssued,
		queue.EventTypeTicketCalled,
		queue.EventTypeTicketRecalled,
		queue.EventTypeTicketServed,
		queue.EventTypeTicketCancelled,
		queue.EventTypeTicketSkipped,
		queue.EventTypeTicketNoShow,
		queue.EventTypeTicketExpired,
		queue.EventTypeTicketTransferred,
		payment.EventTypePaymentCompleted,
		payment.EventTypePaymentFailed,
	}
}

var _ shared.EventHandler = (*QueueMetrics)(nil)
