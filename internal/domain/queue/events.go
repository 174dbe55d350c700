package queue

import (
	"github.com/google/uuid"

	"github.com/smartqueue/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeQueue  = "Queue"
	AggregateTypeTicket = "Ticket"
)

// Event type constants
const (
	EventTypeQueueStatusChanged   = "QueueStatusChanged"
	EventTypeQueueDailyReset      = "QueueDailyReset"
	EventTypeTicketIssued         = "TicketIssued"
	EventTypeTicketCalled         = "TicketCalled"
	EventTypeTicketRecalled       = "TicketRecalled"
	EventTypeTicketServingStarted = "TicketServingStarted"
	EventTypeTicketServed         = "TicketServed"
	EventTypeTicketCancelled      = "TicketCancelled"
	EventTypeTicketSkipped        = "TicketSkipped"
	EventTypeTicketNoShow         = "TicketNoShow"
	EventTypeTicketTransferred    = "TicketTransferred"
	EventTypeTicketExpired        = "TicketExpired"
	EventTypeTicketExtended       = "TicketExtended"
	EventTypeTicketRated          = "TicketRated"
)

// QueueStatusChangedEvent is raised when a queue is paused, resumed, opened or closed
type QueueStatusChangedEvent struct {
	shared.BaseDomainEvent
	QueueID   uuid.UUID `json:"queue_id"`
	QueueName string    `json:"queue_name"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
}

// NewQueueStatusChangedEvent creates a new QueueStatusChangedEvent
func NewQueueStatusChangedEvent(q *Queue, from Status) *QueueStatusChangedEvent {
	return &QueueStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQueueStatusChanged, AggregateTypeQueue, q.ID, q.OrganizationID),
		QueueID:         q.ID,
		QueueName:       q.Name,
		From:            from,
		To:              q.Status,
	}
}

// QueueDailyResetEvent is raised when the daily counters of a queue are reset
type QueueDailyResetEvent struct {
	shared.BaseDomainEvent
	QueueID      uuid.UUID `json:"queue_id"`
	WaitingCount int       `json:"waiting_count"`
}

// NewQueueDailyResetEvent creates a new QueueDailyResetEvent
func NewQueueDailyResetEvent(q *Queue) *QueueDailyResetEvent {
	return &QueueDailyResetEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQueueDailyReset, AggregateTypeQueue, q.ID, q.OrganizationID),
		QueueID:         q.ID,
		WaitingCount:    q.WaitingCount,
	}
}

// TicketInfo is the ticket snapshot carried by ticket events
type TicketInfo struct {
	TicketID      uuid.UUID    `json:"ticket_id"`
	QueueID       uuid.UUID    `json:"queue_id"`
	ServiceID     uuid.UUID    `json:"service_id"`
	TicketNumber  string       `json:"ticket_number"`
	CustomerID    *uuid.UUID   `json:"customer_id,omitempty"`
	CustomerPhone string       `json:"customer_phone,omitempty"`
	Status        TicketStatus `json:"status"`
	Position      int          `json:"position"`
}

func ticketInfo(t *Ticket) TicketInfo {
	return TicketInfo{
		TicketID:      t.ID,
		QueueID:       t.QueueID,
		ServiceID:     t.ServiceID,
		TicketNumber:  t.Number,
		CustomerID:    t.CustomerID,
		CustomerPhone: t.CustomerPhone,
		Status:        t.Status,
		Position:      t.Position,
	}
}

// TicketIssuedEvent is raised when a customer takes a ticket
type TicketIssuedEvent struct {
	shared.BaseDomainEvent
	TicketInfo
	Priority  string `json:"priority"`
	Channel   string `json:"channel"`
	ExpiresAt string `json:"expires_at"`
}

// NewTicketIssuedEvent creates a new TicketIssuedEvent
func NewTicketIssuedEvent(t *Ticket) *TicketIssuedEvent {
	return &TicketIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTicketIssued, AggregateTypeTicket, t.ID, t.OrganizationID),
		TicketInfo:      ticketInfo(t),
		Priority:        string(t.Priority),
		Channel:         string(t.Channel),
		ExpiresAt:       t.ExpiresAt.Format("15:04"),
	}
}

// TicketCalledEvent is raised when a ticket is called to a counter, first time or again
type TicketCalledEvent struct {
	shared.BaseDomainEvent
	TicketInfo
	AgentID   *uuid.UUID `json:"agent_id,omitempty"`
	CallCount int        `json:"call_count"`
}

// NewTicketCalledEvent creates a new TicketCalledEvent
func NewTicketCalledEvent(t *Ticket, agentID *uuid.UUID) *TicketCalledEvent {
	return &TicketCalledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTicketCalled, AggregateTypeTicket, t.ID, t.OrganizationID),
		TicketInfo:      ticketInfo(t),
		AgentID:         agentID,
		CallCount:       t.CallCount,
	}
}

// NewTicketRecalledEvent creates a TicketCalledEvent typed as a recall
func NewTicketRecalledEvent(t *Ticket, agentID *uuid.UUID) *TicketCalledEvent {
	e := NewTicketCalledEvent(t, agentID)
	e.Type = EventTypeTicketRecalled
	return e
}

// TicketServingStartedEvent is raised when an agent starts serving a customer
type TicketServingStartedEvent struct {
	shared.BaseDomainEvent
	TicketInfo
	AgentID uuid.UUID `json:"agent_id"`
}

// NewTicketServingStartedEvent creates a new TicketServingStartedEvent
func NewTicketServingStartedEvent(t *Ticket) *TicketServingStartedEvent {
	e := &TicketServingStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTicketServingStarted, AggregateTypeTicket, t.ID, t.OrganizationID),
		TicketInfo:      ticketInfo(t),
	}
	if t.ServingAgentID != nil {
		e.AgentID = *t.ServingAgentID
	}
	return e
}

// TicketServedEvent is raised when a ticket is completed
type TicketServedEvent struct {
	shared.BaseDomainEvent
	TicketInfo
	WaitTimeMinutes    int `json:"wait_time_minutes"`
	ServiceTimeMinutes int `json:"service_time_minutes"`
}

// NewTicketServedEvent creates a new TicketServedEvent
func NewTicketServedEvent(t *Ticket) *TicketServedEvent {
	return &TicketServedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeTicketServed, AggregateTypeTicket, t.ID, t.OrganizationID),
		TicketInfo:         ticketInfo(t),
		WaitTimeMinutes:    t.WaitTimeMinutes,
		ServiceTimeMinutes: t.ServiceTimeMinutes,
	}
}

// TicketStatusEvent is raised for cancel, skip, no-show and expiry
type TicketStatusEvent struct {
	shared.BaseDomainEvent
	TicketInfo
	Reason string `json:"reason,omitempty"`
}

// NewTicketStatusEvent creates a TicketStatusEvent of the given type
func NewTicketStatusEvent(eventType string, t *Ticket, reason string) *TicketStatusEvent {
	return &TicketStatusEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeTicket, t.ID, t.OrganizationID),
		TicketInfo:      ticketInfo(t),
		Reason:          reason,
	}
}

// TicketTransferredEvent is raised when a ticket moves to another queue
type TicketTransferredEvent struct {
	shared.BaseDomainEvent
	TicketInfo
	NewTicketID   uuid.UUID `json:"new_ticket_id"`
	TargetQueueID uuid.UUID `json:"target_queue_id"`
	NewPosition   int       `json:"new_position"`
	Reason        string    `json:"reason"`
}

// NewTicketTransferredEvent creates a new TicketTransferredEvent
func NewTicketTransferredEvent(origin, moved *Ticket, reason string) *TicketTransferredEvent {
	return &TicketTransferredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTicketTransferred, AggregateTypeTicket, origin.ID, origin.OrganizationID),
		TicketInfo:      ticketInfo(origin),
		NewTicketID:     moved.ID,
		TargetQueueID:   moved.QueueID,
		NewPosition:     moved.Position,
		Reason:          reason,
	}
}

// TicketExtendedEvent is raised when the expiry of a ticket is pushed back
type TicketExtendedEvent struct {
	shared.BaseDomainEvent
	TicketInfo
	Minutes        int `json:"minutes"`
	ExtensionCount int `json:"extension_count"`
}

// NewTicketExtendedEvent creates a new TicketExtendedEvent
func NewTicketExtendedEvent(t *Ticket, minutes int) *TicketExtendedEvent {
	return &TicketExtendedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTicketExtended, AggregateTypeTicket, t.ID, t.OrganizationID),
		TicketInfo:      ticketInfo(t),
		Minutes:         minutes,
		ExtensionCount:  t.ExtensionCount,
	}
}

// TicketRatedEvent is raised when a customer rates a served ticket
type TicketRatedEvent struct {
	shared.BaseDomainEvent
	TicketInfo
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// NewTicketRatedEvent creates a new TicketRatedEvent
func NewTicketRatedEvent(t *Ticket) *TicketRatedEvent {
	e := &TicketRatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTicketRated, AggregateTypeTicket, t.ID, t.OrganizationID),
		TicketInfo:      ticketInfo(t),
		Comment:         t.RatingComment,
	}
	if t.Rating != nil {
		e.Rating = *t.Rating
	}
	return e
}
