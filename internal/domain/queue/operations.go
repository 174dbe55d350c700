package queue

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smartqueue/backend/internal/domain/shared"
)

// ErrQueueClosed and ErrQueueFull match, by code, the refusals of Issue and Transfer
var (
	ErrQueueClosed = shared.NewDomainError("QUEUE_CLOSED", "Queue is not open")
	ErrQueueFull   = shared.NewDomainError("QUEUE_FULL", "Queue is full")
)

// The methods in this file change a ticket and its queue's counters together.
// Callers hold the row lock on every queue passed in.

// Issue reserves a number and creates a waiting ticket at the end of the line.
// now must be in the organization's time zone for the opening hours check.
func (q *Queue) Issue(prefix string, opts IssueOptions, now time.Time) (*Ticket, error) {
	if !q.IsOpen() {
		return nil, shared.NewDomainError("QUEUE_CLOSED", fmt.Sprintf("Queue %s is not open", q.Name))
	}
	if !q.OpeningHours.IsOpenAt(now) {
		return nil, shared.NewDomainError("QUEUE_CLOSED", fmt.Sprintf("Queue %s is closed at this hour", q.Name))
	}
	if q.IsFull() {
		return nil, shared.NewDomainError("QUEUE_FULL", fmt.Sprintf("Queue %s is full", q.Name))
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	number := q.IssueNumber(prefix, now)
	t := newTicket(q, number, q.WaitingCount, opts, now)
	t.AddDomainEvent(NewTicketIssuedEvent(t))
	return t, nil
}

func (q *Queue) owns(t *Ticket) error {
	if t.QueueID != q.ID {
		return shared.NewDomainError("TICKET_NOT_IN_QUEUE", "Ticket does not belong to this queue")
	}
	return nil
}

// CallTicket calls a waiting ticket and makes it the queue's current ticket
func (q *Queue) CallTicket(t *Ticket, agentID *uuid.UUID, now time.Time) error {
	if err := q.owns(t); err != nil {
		return err
	}
	if !q.IsOpen() {
		return shared.NewDomainError("QUEUE_CLOSED", fmt.Sprintf("Queue %s is not open", q.Name))
	}
	if err := t.Call(agentID, now); err != nil {
		return err
	}
	q.RecordCall(t.Number, true)
	return nil
}

// RecallTicket calls a ticket again; a waiting ticket leaves the waiting line
func (q *Queue) RecallTicket(t *Ticket, agentID *uuid.UUID, now time.Time) error {
	if err := q.owns(t); err != nil {
		return err
	}
	wasWaiting := t.Status == TicketWaiting
	if err := t.CallAgain(agentID, now); err != nil {
		return err
	}
	q.RecordCall(t.Number, wasWaiting)
	return nil
}

// ServeTicket completes a ticket and feeds its wait time into the daily average
func (q *Queue) ServeTicket(t *Ticket, now time.Time) error {
	if err := q.owns(t); err != nil {
		return err
	}
	if err := t.MarkServed(now); err != nil {
		return err
	}
	q.RecordServed(t.WaitTimeMinutes, now)
	return nil
}

// CancelTicket cancels a ticket
func (q *Queue) CancelTicket(t *Ticket, reason string, now time.Time) error {
	return q.leave(t, func() error { return t.Cancel(reason, now) })
}

// SkipTicket skips a ticket
func (q *Queue) SkipTicket(t *Ticket, reason string, now time.Time) error {
	return q.leave(t, func() error { return t.Skip(reason, now) })
}

// ExpireTicket expires an overdue waiting ticket
func (q *Queue) ExpireTicket(t *Ticket, now time.Time) error {
	return q.leave(t, func() error { return t.Expire(now) })
}

func (q *Queue) leave(t *Ticket, transition func() error) error {
	if err := q.owns(t); err != nil {
		return err
	}
	wasWaiting := t.Status == TicketWaiting
	if err := transition(); err != nil {
		return err
	}
	if wasWaiting {
		q.RecordLeftWaiting()
	}
	return nil
}

// TransferTicket closes t in its queue from and opens a waiting copy at the end of to.
// The copy keeps the ticket number, customer and priority.
func TransferTicket(from, to *Queue, t *Ticket, reason string, now time.Time) (*Ticket, error) {
	if err := from.owns(t); err != nil {
		return nil, err
	}
	if from.ID == to.ID {
		return nil, shared.NewDomainError("SAME_QUEUE", "Cannot transfer a ticket to the same queue")
	}
	if from.OrganizationID != to.OrganizationID {
		return nil, shared.NewDomainError("CROSS_ORGANIZATION", "Cannot transfer a ticket to another organization")
	}
	if !to.IsOpen() {
		return nil, shared.NewDomainError("QUEUE_CLOSED", fmt.Sprintf("Target queue %s is %s", to.Name, to.Status))
	}
	if to.IsFull() {
		return nil, shared.NewDomainError("QUEUE_FULL", fmt.Sprintf("Target queue %s is full", to.Name))
	}
	if err := t.guard(ActionTransfer); err != nil {
		return nil, err
	}
	if reason == "" {
		reason = DefaultTransferReason
	}

	wasWaiting := t.Status == TicketWaiting
	to.RecordArrival()
	moved := newTicket(to, t.Number, to.WaitingCount, IssueOptions{
		CustomerID:      t.CustomerID,
		CustomerPhone:   t.CustomerPhone,
		Priority:        t.Priority,
		Channel:         t.Channel,
		CustomerNotes:   t.CustomerNotes,
		Documents:       t.DocumentsBrought,
		AppointmentID:   t.AppointmentID,
		AppointmentTime: t.AppointmentTime,
		PaymentID:       t.PaymentID,
		IsPaid:          t.IsPaid,
		CreatedIP:       t.CreatedIP,
	}, now)
	moved.TransferredFromID = &t.ID
	moved.appendNote(fmt.Sprintf("Transféré de %s vers %s: %s", from.Name, to.Name, reason))

	t.Status = TicketTransferred
	t.TransferredToID = &moved.ID
	t.UpdatedAt = now
	t.appendNote(fmt.Sprintf("Transféré de %s vers %s: %s", from.Name, to.Name, reason))
	if wasWaiting {
		from.RecordLeftWaiting()
	}

	t.AddDomainEvent(NewTicketTransferredEvent(t, moved, reason))
	return moved, nil
}
