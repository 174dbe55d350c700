package queue

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/identity"
	"github.com/smartqueue/backend/internal/domain/organization"
	"github.com/smartqueue/backend/internal/domain/queue"
	"github.com/smartqueue/backend/internal/domain/shared"
)

// Dependencies are the ports the queue and ticket services work with
type Dependencies struct {
	Tx            shared.TxRunner
	Organizations organization.OrganizationRepository
	Services      organization.ServiceRepository
	Queues        queue.QueueRepository
	Tickets       queue.TicketRepository
	Events        shared.EventRecorder
}

var (
	ErrQueueNotFound   = shared.NewDomainError("QUEUE_NOT_FOUND", "Queue not found")
	ErrTicketNotFound  = shared.NewDomainError("TICKET_NOT_FOUND", "Ticket not found")
	ErrServiceNotFound = shared.NewDomainError("SERVICE_NOT_FOUND", "Service not found")
	ErrQueueEmpty      = shared.NewDomainError("QUEUE_EMPTY", "No waiting ticket in this queue")
)

func duplicateQueueType(t queue.Type) *shared.DomainError {
	return shared.NewDomainError("ALREADY_EXISTS", "This service already has a queue of type "+string(t))
}

// notFound replaces shared.ErrNotFound with a more specific error
func notFound(err error, specific *shared.DomainError) error {
	if errors.Is(err, shared.ErrNotFound) {
		return specific
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}

// record stores the pending events of the aggregates in the outbox
func (d Dependencies) record(ctx context.Context, aggregates ...shared.AggregateRoot) error {
	events := shared.PullEvents(aggregates...)
	if len(events) == 0 || d.Events == nil {
		return nil
	}
	return d.Events.Record(ctx, events...)
}

// organizationClock returns the organization and now in its time zone
func (d Dependencies) organizationClock(ctx context.Context, organizationID uuid.UUID, now time.Time) (*organization.Organization, time.Time, error) {
	org, err := d.Organizations.FindByID(ctx, organizationID)
	if err != nil {
		return nil, time.Time{}, notFound(err, shared.NewDomainError("ORGANIZATION_NOT_FOUND", "Organization not found"))
	}
	return org, now.In(org.Location()), nil
}

// loadQueue finds a queue the actor may see. Customers see every queue; staff only their organization's.
func (d Dependencies) loadQueue(ctx context.Context, actor identity.Actor, queueID uuid.UUID, staffOnly bool) (*queue.Queue, error) {
	q, err := d.Queues.FindByID(ctx, queueID)
	if err != nil {
		return nil, notFound(err, ErrQueueNotFound)
	}
	if actor.IsStaff() || staffOnly {
		if !actor.CanManage(q.OrganizationID) {
			return nil, shared.ErrForbidden
		}
	}
	return q, nil
}

// loadTicket finds a ticket the actor may act on; customers only their own
func (d Dependencies) loadTicket(ctx context.Context, actor identity.Actor, ticketID uuid.UUID, staffOnly bool) (*queue.Ticket, error) {
	t, err := d.Tickets.FindByID(ctx, ticketID)
	if err != nil {
		return nil, notFound(err, ErrTicketNotFound)
	}
	switch {
	case actor.CanManage(t.OrganizationID):
		return t, nil
	case staffOnly || !actor.IsCustomer():
		return nil, shared.ErrForbidden
	case !t.IsOwnedBy(actor.UserID):
		// another customer's ticket is reported as missing
		return nil, ErrTicketNotFound
	}
	return t, nil
}

// scopeOrganization picks the organization a listing runs against.
// Customers must name it; staff are held to their own.
func scopeOrganization(actor identity.Actor, requested *uuid.UUID) (uuid.UUID, error) {
	if actor.IsCustomer() {
		if requested == nil || *requested == uuid.Nil {
			return uuid.Nil, shared.NewDomainError("ORGANIZATION_REQUIRED", "organization_id is required")
		}
		return *requested, nil
	}
	return actor.Organization(requested)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func percent(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*1000) / 10
}

func todayCounts(issued int64, counts []queue.StatusCount) TodayCounts {
	out := TodayCounts{Issued: issued}
	for _, c := range counts {
		switch c.Status {
		case queue.TicketServed:
			out.Served = c.Count
		case queue.TicketCancelled:
			out.Cancelled = c.Count
		case queue.TicketNoShow:
			out.NoShow = c.Count
		case queue.TicketSkipped:
			out.Skipped = c.Count
		case queue.TicketExpired:
			out.Expired = c.Count
		}
	}
	return out
}

func sumCounts(counts []queue.StatusCount) int64 {
	var total int64
	for _, c := range counts {
		total += c.Count
	}
	return total
}
