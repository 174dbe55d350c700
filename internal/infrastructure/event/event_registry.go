package event

import (
	"github.com/smartqueue/backend/internal/domain/appointment"
	"github.com/smartqueue/backend/internal/domain/identity"
	"github.com/smartqueue/backend/internal/domain/payment"
	"github.com/smartqueue/backend/internal/domain/queue"
)

// RegisterAllEvents registers every domain event type the outbox processor can replay
func RegisterAllEvents(serializer *EventSerializer) {
	// Queue
	serializer.Register(queue.EventTypeQueueStatusChanged, &queue.QueueStatusChangedEvent{})
	serializer.Register(queue.EventTypeQueueDailyReset, &queue.QueueDailyResetEvent{})

	// Tickets
	serializer.Register(queue.EventTypeTicketIssued, &queue.TicketIssuedEvent{})
	serializer.Register(queue.EventTypeTicketCalled, &queue.TicketCalledEvent{})
	serializer.Register(queue.EventTypeTicketRecalled, &queue.TicketCalledEvent{})
	serializer.Register(queue.EventTypeTicketServingStarted, &queue.TicketServingStartedEvent{})
	serializer.Register(queue.EventTypeTicketServed, &queue.TicketServedEvent{})
	serializer.Register(queue.EventTypeTicketCancelled, &queue.TicketStatusEvent{})
	serializer.Register(queue.EventTypeTicketSkipped, &queue.TicketStatusEvent{})
	serializer.Register(queue.EventTypeTicketNoShow, &queue.TicketStatusEvent{})
	serializer.Register(queue.EventTypeTicketExpired, &queue.TicketStatusEvent{})
	serializer.Register(queue.EventTypeTicketTransferred, &queue.TicketTransferredEvent{})
	serializer.Register(queue.EventTypeTicketExtended, &queue.TicketExtendedEvent{})
	serializer.Register(queue.EventTypeTicketRated, &queue.TicketRatedEvent{})

	// Payments
	serializer.Register(payment.EventTypePaymentCompleted, &payment.PaymentCompletedEvent{})
	serializer.Register(payment.EventTypePaymentFailed, &payment.PaymentFailedEvent{})

	// Appointments
	for _, t := range []string{
		appointment.EventTypeAppointmentBooked,
		appointment.EventTypeAppointmentConfirmed,
		appointment.EventTypeAppointmentCancelled,
		appointment.EventTypeAppointmentRescheduled,
		appointment.EventTypeAppointmentCheckedIn,
		appointment.EventTypeAppointmentCompleted,
		appointment.EventTypeAppointmentNoShow,
	} {
		serializer.Register(t, &appointment.AppointmentEvent{})
	}

	// Identity
	serializer.Register(identity.EventTypeUserRegistered, &identity.UserRegisteredEvent{})
}
