package queue

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/smartqueue/backend/internal/domain/shared"
)

// QueueRepository persists queues. The ForUpdate finders take a row lock and
// must run inside a transaction started by shared.TxRunner.
type QueueRepository interface {
	// FindByID finds a queue in any organization; callers check access
	FindByID(ctx context.Context, id uuid.UUID) (*Queue, error)
	FindByIDForOrg(ctx context.Context, organizationID, id uuid.UUID) (*Queue, error)
	FindByIDForUpdate(ctx context.Context, organizationID, id uuid.UUID) (*Queue, error)
	FindAllForOrg(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) ([]Queue, error)
	CountForOrg(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) (int64, error)
	// FindFirstOpen returns the oldest open queue of the organization, optionally for one service
	FindFirstOpen(ctx context.Context, organizationID uuid.UUID, serviceID *uuid.UUID, queueType Type) (*Queue, error)
	FindActiveIDs(ctx context.Context) ([]QueueRef, error)
	ExistsForService(ctx context.Context, organizationID, serviceID uuid.UUID, queueType Type) (bool, error)
	Create(ctx context.Context, q *Queue) error
	// Update saves q when its stored version still matches; the version is then incremented
	Update(ctx context.Context, q *Queue) error
}

// QueueRef identifies a queue and its owner
type QueueRef struct {
	OrganizationID uuid.UUID
	QueueID        uuid.UUID
}

// TicketFilter narrows ticket listings
type TicketFilter struct {
	shared.Filter
	QueueID    *uuid.UUID
	CustomerID *uuid.UUID
	Statuses   []TicketStatus
	Since      *time.Time
	Until      *time.Time
}

// StatusCount is the number of tickets in one status
type StatusCount struct {
	Status TicketStatus
	Count  int64
}

// DailyCount is the tickets issued and served on one day
type DailyCount struct {
	Day    time.Time
	Issued int64
	Served int64
}

// TicketAggregates summarizes a set of tickets. AverageRating is 0 when
// no ticket was rated.
type TicketAggregates struct {
	ByStatus           []StatusCount
	AverageWaitMinutes float64
	AverageServiceTime float64
	AverageRating      float64
	RatingCount        int64
}

// TicketRepository persists tickets
type TicketRepository interface {
	// FindByID finds a ticket in any organization; callers check access
	FindByID(ctx context.Context, id uuid.UUID) (*Ticket, error)
	FindByIDForOrg(ctx context.Context, organizationID, id uuid.UUID) (*Ticket, error)
	FindByIDForUpdate(ctx context.Context, organizationID, id uuid.UUID) (*Ticket, error)
	// FindNextWaitingForUpdate locks the first waiting ticket in dispatch order, skipping
	// rows locked by concurrent dispatchers. Returns shared.ErrNotFound when none is left.
	FindNextWaitingForUpdate(ctx context.Context, queueID uuid.UUID, ordering []SortKey) (*Ticket, error)
	// FindWaiting returns up to limit waiting tickets of the queue in dispatch order
	FindWaiting(ctx context.Context, queueID uuid.UUID, ordering []SortKey, limit int) ([]Ticket, error)
	FindCurrent(ctx context.Context, queueID uuid.UUID) (*Ticket, error)
	// FindAll, Count, Aggregates, CountByStatusSince and DailySeries span every
	// organization when organizationID is uuid.Nil
	FindAll(ctx context.Context, organizationID uuid.UUID, filter TicketFilter) ([]Ticket, error)
	Count(ctx context.Context, organizationID uuid.UUID, filter TicketFilter) (int64, error)
	ExistsActiveForCustomer(ctx context.Context, queueID, customerID uuid.UUID) (bool, error)
	CountWaiting(ctx context.Context, queueID uuid.UUID) (int64, error)
	// FindExpiredWaiting returns waiting tickets past their expiry, oldest first
	FindExpiredWaiting(ctx context.Context, now time.Time, limit int) ([]Ticket, error)
	FindByPaymentID(ctx context.Context, organizationID, paymentID uuid.UUID) (*Ticket, error)
	CountByStatusSince(ctx context.Context, organizationID uuid.UUID, queueID *uuid.UUID, since time.Time) ([]StatusCount, error)
	Aggregates(ctx context.Context, organizationID uuid.UUID, filter TicketFilter) (*TicketAggregates, error)
	DailySeries(ctx context.Context, organizationID uuid.UUID, customerID *uuid.UUID, since time.Time) ([]DailyCount, error)
	Create(ctx context.Context, t *Ticket) error
	// Update saves t when its stored version still matches; the version is then incremented
	Update(ctx context.Context, t *Ticket) error
}
