package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/identity"
	"github.com/smartqueue/backend/internal/domain/queue"
	"github.com/smartqueue/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DashboardSize is how many upcoming tickets the agent dashboard shows by default
const DashboardSize = 5

// Defaults fill the queue settings a request leaves out
type Defaults struct {
	MaxWaitTime      int // minutes
	TicketExpiryTime int // minutes
	DashboardSize    int
}

func (d Defaults) orFallback() Defaults {
	if d.MaxWaitTime <= 0 {
		d.MaxWaitTime = queue.DefaultMaxWaitTime
	}
	if d.TicketExpiryTime <= 0 {
		d.TicketExpiryTime = queue.DefaultTicketExpiry
	}
	if d.DashboardSize <= 0 {
		d.DashboardSize = DashboardSize
	}
	return d
}

// DailyArchiver stores the report of a queue's previous day before its counters are reset
type DailyArchiver interface {
	Archive(ctx context.Context, q *queue.Queue, day time.Time) error
}

// QueueService handles queue configuration, status and statistics
type QueueService struct {
	deps     Dependencies
	defaults Defaults
	archiver DailyArchiver
	logger   *zap.Logger
	now      func() time.Time
}

// NewQueueService creates a new QueueService
func NewQueueService(deps Dependencies, logger *zap.Logger) *QueueService {
	return &QueueService{deps: deps, defaults: Defaults{}.orFallback(), logger: logger, now: time.Now}
}

// SetDefaults replaces the settings applied to new queues and dashboards
func (s *QueueService) SetDefaults(d Defaults) {
	s.defaults = d.orFallback()
}

// SetArchiver makes ResetAll archive the previous day of every reset queue
func (s *QueueService) SetArchiver(a DailyArchiver) {
	s.archiver = a
}

// Create creates a closed queue for a service of the actor's organization
func (s *QueueService) Create(ctx context.Context, actor identity.Actor, req CreateQueueRequest) (*QueueResponse, error) {
	orgID, err := actor.Organization(req.OrganizationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.deps.Services.FindByIDForOrg(ctx, orgID, req.ServiceID); err != nil {
		return nil, notFound(err, ErrServiceNotFound)
	}

	q, err := queue.NewQueue(orgID, req.ServiceID, req.Name, queue.Type(req.Type), queue.Strategy(req.Strategy))
	if err != nil {
		return nil, err
	}
	exists, err := s.deps.Queues.ExistsForService(ctx, orgID, req.ServiceID, q.Type)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, duplicateQueueType(q.Type)
	}

	q.Description = req.Description
	maxWait, expiry := req.MaxWaitTime, req.TicketExpiryTime
	if maxWait == 0 {
		maxWait = s.defaults.MaxWaitTime
	}
	if expiry == 0 {
		expiry = s.defaults.TicketExpiryTime
	}
	if err := q.Configure(req.MaxCapacity, maxWait, expiry); err != nil {
		return nil, err
	}
	if req.NotificationsEnabled != nil || req.NotifyBeforeTurns != 0 {
		enabled, turns := q.NotificationsEnabled, q.NotifyBeforeTurns
		if req.NotificationsEnabled != nil {
			enabled = *req.NotificationsEnabled
		}
		if req.NotifyBeforeTurns != 0 {
			turns = req.NotifyBeforeTurns
		}
		if err := q.ConfigureNotifications(enabled, turns); err != nil {
			return nil, err
		}
	}
	if req.OpeningHours != nil {
		if err := q.SetOpeningHours(req.OpeningHours); err != nil {
			return nil, err
		}
	}

	if err := s.deps.Queues.Create(ctx, q); err != nil {
		// a concurrent create of the same type won the constraint
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, duplicateQueueType(q.Type)
		}
		return nil, err
	}
	s.logger.Info("Queue created",
		zap.String("queue_id", q.ID.String()),
		zap.String("organization_id", orgID.String()),
		zap.String("type", string(q.Type)))

	resp := ToQueueResponse(q)
	return &resp, nil
}

// Get returns a queue
func (s *QueueService) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*QueueResponse, error) {
	q, err := s.deps.loadQueue(ctx, actor, id, false)
	if err != nil {
		return nil, err
	}
	resp := ToQueueResponse(q)
	return &resp, nil
}

// List lists the queues of an organization
func (s *QueueService) List(ctx context.Context, actor identity.Actor, filter QueueListFilter) (*shared.Paginated[QueueResponse], error) {
	orgID, err := scopeOrganization(actor, filter.OrganizationID)
	if err != nil {
		return nil, err
	}
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Search:   filter.Search,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Filters:  map[string]any{},
	}
	if filter.ServiceID != "" {
		f.Filters["service_id"] = filter.ServiceID
	}
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}
	if filter.Type != "" {
		f.Filters["type"] = filter.Type
	}
	if actor.IsCustomer() {
		f.Filters["is_active"] = true
	}
	f = f.Normalize()

	queues, err := s.deps.Queues.FindAllForOrg(ctx, orgID, f)
	if err != nil {
		return nil, err
	}
	total, err := s.deps.Queues.CountForOrg(ctx, orgID, f)
	if err != nil {
		return nil, err
	}
	items := make([]QueueResponse, len(queues))
	for i := range queues {
		items[i] = ToQueueResponse(&queues[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// Update changes the configuration of a queue
func (s *QueueService) Update(ctx context.Context, actor identity.Actor, id uuid.UUID, req UpdateQueueRequest) (*QueueResponse, error) {
	return s.mutate(ctx, actor, id, func(q *queue.Queue) error {
		if req.Name != nil {
			if *req.Name == "" {
				return shared.NewDomainError("INVALID_NAME", "Queue name cannot be empty")
			}
			q.Name = *req.Name
		}
		if req.Description != nil {
			q.Description = *req.Description
		}
		if req.Strategy != nil {
			if err := q.SetStrategy(queue.Strategy(*req.Strategy)); err != nil {
				return err
			}
		}
		if req.MaxCapacity != nil || req.MaxWaitTime != nil || req.TicketExpiryTime != nil {
			capacity, maxWait, expiry := q.MaxCapacity, q.MaxWaitTime, q.TicketExpiryTime
			if req.MaxCapacity != nil {
				capacity = *req.MaxCapacity
			}
			if req.MaxWaitTime != nil {
				maxWait = *req.MaxWaitTime
			}
			if req.TicketExpiryTime != nil {
				expiry = *req.TicketExpiryTime
			}
			if err := q.Configure(capacity, maxWait, expiry); err != nil {
				return err
			}
		}
		if req.NotificationsEnabled != nil || req.NotifyBeforeTurns != nil {
			enabled, turns := q.NotificationsEnabled, q.NotifyBeforeTurns
			if req.NotificationsEnabled != nil {
				enabled = *req.NotificationsEnabled
			}
			if req.NotifyBeforeTurns != nil {
				turns = *req.NotifyBeforeTurns
			}
			if err := q.ConfigureNotifications(enabled, turns); err != nil {
				return err
			}
		}
		if req.OpeningHours != nil {
			return q.SetOpeningHours(req.OpeningHours)
		}
		return nil
	})
}

// Pause stops dispatch until the queue is resumed
func (s *QueueService) Pause(ctx context.Context, actor identity.Actor, id uuid.UUID) (*QueueResponse, error) {
	return s.mutate(ctx, actor, id, func(q *queue.Queue) error { return q.Pause() })
}

// Resume restarts a paused queue
func (s *QueueService) Resume(ctx context.Context, actor identity.Actor, id uuid.UUID) (*QueueResponse, error) {
	return s.mutate(ctx, actor, id, func(q *queue.Queue) error { return q.Resume() })
}

// ChangeStatus moves the queue to another status; waiting tickets stay in place
func (s *QueueService) ChangeStatus(ctx context.Context, actor identity.Actor, id uuid.UUID, req ChangeStatusRequest) (*QueueResponse, error) {
	return s.mutate(ctx, actor, id, func(q *queue.Queue) error { return q.ChangeStatus(queue.Status(req.Status)) })
}

// ResetDaily zeroes the daily counters and recounts the waiting tickets
func (s *QueueService) ResetDaily(ctx context.Context, actor identity.Actor, id uuid.UUID) (*QueueResponse, error) {
	q, err := s.deps.loadQueue(ctx, actor, id, true)
	if err != nil {
		return nil, err
	}
	if err := s.resetQueue(ctx, q.OrganizationID, q.ID); err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, id)
}

// ResetAll resets every active queue, one transaction per queue, and returns how many were reset.
// A failing queue is logged and does not stop the others.
func (s *QueueService) ResetAll(ctx context.Context, now time.Time) (int, error) {
	refs, err := s.deps.Queues.FindActiveIDs(ctx)
	if err != nil {
		return 0, err
	}
	reset := 0
	for _, ref := range refs {
		if ctx.Err() != nil {
			return reset, ctx.Err()
		}
		if s.archiver != nil {
			s.archive(ctx, ref, now)
		}
		if err := s.resetQueue(ctx, ref.OrganizationID, ref.QueueID); err != nil {
			s.logger.Error("Daily reset failed",
				zap.String("queue_id", ref.QueueID.String()),
				zap.Error(err))
			continue
		}
		reset++
	}
	s.logger.Info("Daily reset finished", zap.Int("queues", reset), zap.Int("total", len(refs)))
	return reset, nil
}

func (s *QueueService) archive(ctx context.Context, ref queue.QueueRef, now time.Time) {
	q, err := s.deps.Queues.FindByIDForOrg(ctx, ref.OrganizationID, ref.QueueID)
	if err != nil {
		s.logger.Warn("Queue archive skipped", zap.String("queue_id", ref.QueueID.String()), zap.Error(err))
		return
	}
	// the counters being reset belong to the day stored on the queue
	day := q.StatsDate
	if day.IsZero() {
		day = now.AddDate(0, 0, -1)
	}
	if err := s.archiver.Archive(ctx, q, day); err != nil {
		s.logger.Warn("Queue archive failed",
			zap.String("queue_id", ref.QueueID.String()),
			zap.Time("day", day),
			zap.Error(err))
	}
}

func (s *QueueService) resetQueue(ctx context.Context, organizationID, queueID uuid.UUID) error {
	_, now, err := s.deps.organizationClock(ctx, organizationID, s.now())
	if err != nil {
		return err
	}
	return s.deps.Tx.RunInTx(ctx, func(ctx context.Context) error {
		q, err := s.deps.Queues.FindByIDForUpdate(ctx, organizationID, queueID)
		if err != nil {
			return notFound(err, ErrQueueNotFound)
		}
		waiting, err := s.deps.Tickets.CountWaiting(ctx, queueID)
		if err != nil {
			return err
		}
		q.ResetDaily(int(waiting), now)
		if err := s.deps.Queues.Update(ctx, q); err != nil {
			return err
		}
		return s.deps.record(ctx, q)
	})
}

// mutate applies fn to the locked queue and saves it with its events
func (s *QueueService) mutate(ctx context.Context, actor identity.Actor, id uuid.UUID, fn func(q *queue.Queue) error) (*QueueResponse, error) {
	found, err := s.deps.loadQueue(ctx, actor, id, true)
	if err != nil {
		return nil, err
	}
	var q *queue.Queue
	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context) error {
		q, err = s.deps.Queues.FindByIDForUpdate(ctx, found.OrganizationID, id)
		if err != nil {
			return notFound(err, ErrQueueNotFound)
		}
		if err := fn(q); err != nil {
			return err
		}
		if err := s.deps.Queues.Update(ctx, q); err != nil {
			return err
		}
		return s.deps.record(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	resp := ToQueueResponse(q)
	return &resp, nil
}

// AgentDashboard returns the waiting line as an agent sees it
func (s *QueueService) AgentDashboard(ctx context.Context, actor identity.Actor, id uuid.UUID) (*DashboardResponse, error) {
	q, err := s.deps.loadQueue(ctx, actor, id, true)
	if err != nil {
		return nil, err
	}
	_, now, err := s.deps.organizationClock(ctx, q.OrganizationID, s.now())
	if err != nil {
		return nil, err
	}

	resp := &DashboardResponse{Queue: ToQueueResponse(q), WaitingCount: q.WaitingCount, NextTickets: []TicketResponse{}}

	current, err := s.deps.Tickets.FindCurrent(ctx, q.ID)
	switch {
	case err == nil:
		tr := ToTicketResponse(current)
		resp.CurrentTicket = &tr
	case !isNotFound(err):
		return nil, err
	}

	next, err := s.deps.Tickets.FindWaiting(ctx, q.ID, q.Strategy.Ordering(), s.defaults.DashboardSize)
	if err != nil {
		return nil, err
	}
	resp.NextTickets = toTicketResponses(next)

	counts, err := s.deps.Tickets.CountByStatusSince(ctx, q.OrganizationID, &q.ID, startOfDay(now))
	if err != nil {
		return nil, err
	}
	resp.Today = todayCounts(sumCounts(counts), counts)
	return resp, nil
}

// Stats returns today's statistics of a queue
func (s *QueueService) Stats(ctx context.Context, actor identity.Actor, id uuid.UUID) (*QueueStatsResponse, error) {
	q, err := s.deps.loadQueue(ctx, actor, id, true)
	if err != nil {
		return nil, err
	}
	_, now, err := s.deps.organizationClock(ctx, q.OrganizationID, s.now())
	if err != nil {
		return nil, err
	}
	service, err := s.deps.Services.FindByIDForOrg(ctx, q.OrganizationID, q.ServiceID)
	if err != nil {
		return nil, notFound(err, ErrServiceNotFound)
	}
	since := startOfDay(now)
	agg, err := s.deps.Tickets.Aggregates(ctx, q.OrganizationID, queue.TicketFilter{QueueID: &q.ID, Since: &since})
	if err != nil {
		return nil, err
	}

	today := todayCounts(sumCounts(agg.ByStatus), agg.ByStatus)
	return &QueueStatsResponse{
		QueueID:              q.ID,
		Status:               string(q.Status),
		WaitingCount:         q.WaitingCount,
		CapacityUsage:        q.CapacityUsage(),
		SuccessRate:          percent(today.Served, today.Served+today.Cancelled+today.NoShow),
		AverageWaitMinutes:   q.DailyAverageWait,
		EstimatedWaitMinutes: q.EstimatedWaitTime(service.EstimatedDuration),
		AverageRating:        agg.AverageRating,
		RatingCount:          agg.RatingCount,
		Today:                today,
	}, nil
}
