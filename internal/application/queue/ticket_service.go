package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/identity"
	"github.com/smartqueue/backend/internal/domain/organization"
	"github.com/smartqueue/backend/internal/domain/queue"
	"github.com/smartqueue/backend/internal/domain/shared"
	"github.com/smartqueue/backend/internal/infrastructure/printing"
	"go.uber.org/zap"
)

const (
	// RecentTicketsLimit is how many completed tickets MyTickets returns
	RecentTicketsLimit = 10
	// ExpirySweepBatch bounds the tickets expired by one sweep
	ExpirySweepBatch = 500
	statsDays        = 7
)

var (
	ErrDuplicateActiveTicket = shared.NewDomainError("DUPLICATE_ACTIVE_TICKET", "You already hold an active ticket in this queue")
	ErrOrganizationClosed    = shared.NewDomainError("ORGANIZATION_UNAVAILABLE", "This organization is not taking tickets")
	ErrServiceUnavailable    = shared.NewDomainError("SERVICE_UNAVAILABLE", "This service is not available")
)

// SlipPrinter renders printable ticket slips
type SlipPrinter interface {
	PrintSlip(ctx context.Context, s printing.Slip) ([]byte, error)
}

// IssueCommand asks for a ticket on behalf of another flow, such as an
// appointment check-in or a completed ticket fee payment
type IssueCommand struct {
	OrganizationID uuid.UUID
	QueueID        uuid.UUID
	Options        queue.IssueOptions
	// RejectDuplicate refuses the ticket when the customer already holds an active one
	RejectDuplicate bool
}

// TicketService handles the ticket lifecycle
type TicketService struct {
	deps       Dependencies
	printer    SlipPrinter
	sweepBatch int
	logger     *zap.Logger
	now        func() time.Time
}

// NewTicketService creates a new TicketService
func NewTicketService(deps Dependencies, printer SlipPrinter, logger *zap.Logger) *TicketService {
	return &TicketService{deps: deps, printer: printer, sweepBatch: ExpirySweepBatch, logger: logger, now: time.Now}
}

// SetSweepBatch bounds the tickets one ExpireOverdue call expires
func (s *TicketService) SetSweepBatch(n int) {
	if n > 0 {
		s.sweepBatch = n
	}
}

// TakeTicket issues a ticket in a queue for the actor. Staff may issue one at the
// counter for a walk-in customer identified by phone.
func (s *TicketService) TakeTicket(ctx context.Context, actor identity.Actor, queueID uuid.UUID, req TakeTicketRequest) (*TicketResponse, error) {
	q, err := s.deps.loadQueue(ctx, actor, queueID, false)
	if err != nil {
		return nil, err
	}

	opts := queue.IssueOptions{
		Priority:      organization.Priority(req.Priority),
		Channel:       queue.Channel(req.Channel),
		CustomerNotes: req.CustomerNotes,
		Documents:     req.Documents,
		AppointmentID: req.AppointmentID,
		CreatedIP:     req.CreatedIP,
	}
	if actor.IsCustomer() {
		customerID := actor.UserID
		opts.CustomerID = &customerID
		opts.CustomerPhone = actor.Phone
		if opts.Channel == "" {
			opts.Channel = queue.ChannelMobile
		}
	} else {
		opts.CustomerPhone = req.CustomerPhone
		if opts.Channel == "" {
			opts.Channel = queue.ChannelCounter
		}
	}

	t, err := s.Issue(ctx, IssueCommand{
		OrganizationID:  q.OrganizationID,
		QueueID:         q.ID,
		Options:         opts,
		RejectDuplicate: true,
	})
	if err != nil {
		return nil, err
	}
	return s.withEstimate(ctx, t)
}

// Issue locks the queue, issues the next number and stores the ticket. It joins
// the caller's transaction when there is one.
func (s *TicketService) Issue(ctx context.Context, cmd IssueCommand) (*queue.Ticket, error) {
	org, now, err := s.deps.organizationClock(ctx, cmd.OrganizationID, s.now())
	if err != nil {
		return nil, err
	}
	if !org.IsOperational() {
		return nil, ErrOrganizationClosed
	}

	var t *queue.Ticket
	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context) error {
		q, err := s.deps.Queues.FindByIDForUpdate(ctx, cmd.OrganizationID, cmd.QueueID)
		if err != nil {
			return notFound(err, ErrQueueNotFound)
		}
		service, err := s.deps.Services.FindByIDForOrg(ctx, q.OrganizationID, q.ServiceID)
		if err != nil {
			return notFound(err, ErrServiceNotFound)
		}
		if !service.IsActive {
			return ErrServiceUnavailable
		}

		opts := cmd.Options
		if opts.Priority == "" {
			opts.Priority = service.DefaultPriority
		}
		if cmd.RejectDuplicate && opts.CustomerID != nil {
			held, err := s.deps.Tickets.ExistsActiveForCustomer(ctx, q.ID, *opts.CustomerID)
			if err != nil {
				return err
			}
			if held {
				return ErrDuplicateActiveTicket
			}
		}

		t, err = q.Issue(service.TicketPrefix(), opts, now)
		if err != nil {
			return err
		}
		if err := s.deps.Tickets.Create(ctx, t); err != nil {
			return err
		}
		if err := s.deps.Queues.Update(ctx, q); err != nil {
			return err
		}
		return s.deps.record(ctx, q, t)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Ticket issued",
		zap.String("ticket_id", t.ID.String()),
		zap.String("queue_id", t.QueueID.String()),
		zap.String("ticket_number", t.Number),
		zap.Int("position", t.Position))
	return t, nil
}

// CallNext calls the next waiting ticket in dispatch order
func (s *TicketService) CallNext(ctx context.Context, actor identity.Actor, queueID uuid.UUID) (*TicketResponse, error) {
	found, err := s.deps.loadQueue(ctx, actor, queueID, true)
	if err != nil {
		return nil, err
	}
	_, now, err := s.deps.organizationClock(ctx, found.OrganizationID, s.now())
	if err != nil {
		return nil, err
	}

	agentID := actor.UserID
	var t *queue.Ticket
	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context) error {
		q, err := s.deps.Queues.FindByIDForUpdate(ctx, found.OrganizationID, queueID)
		if err != nil {
			return notFound(err, ErrQueueNotFound)
		}
		if !q.IsOpen() {
			return shared.NewDomainError("QUEUE_CLOSED", "Queue "+q.Name+" is not open")
		}
		t, err = s.deps.Tickets.FindNextWaitingForUpdate(ctx, q.ID, q.Strategy.Ordering())
		if err != nil {
			return notFound(err, ErrQueueEmpty)
		}
		if err := q.CallTicket(t, &agentID, now); err != nil {
			return err
		}
		if err := s.deps.Tickets.Update(ctx, t); err != nil {
			return err
		}
		if err := s.deps.Queues.Update(ctx, q); err != nil {
			return err
		}
		return s.deps.record(ctx, q, t)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Ticket called",
		zap.String("ticket_id", t.ID.String()),
		zap.String("queue_id", queueID.String()),
		zap.String("ticket_number", t.Number),
		zap.String("agent_id", agentID.String()))
	resp := ToTicketResponse(t)
	return &resp, nil
}

// CallAgain calls a ticket once more
func (s *TicketService) CallAgain(ctx context.Context, actor identity.Actor, ticketID uuid.UUID) (*TicketResponse, error) {
	agentID := actor.UserID
	return s.transition(ctx, actor, ticketID, true, func(q *queue.Queue, t *queue.Ticket, now time.Time) error {
		return q.RecallTicket(t, &agentID, now)
	})
}

// StartServing marks a called ticket as being served
func (s *TicketService) StartServing(ctx context.Context, actor identity.Actor, ticketID uuid.UUID) (*TicketResponse, error) {
	return s.transition(ctx, actor, ticketID, true, func(_ *queue.Queue, t *queue.Ticket, now time.Time) error {
		return t.StartServing(actor.UserID, now)
	})
}

// MarkServed completes a ticket
func (s *TicketService) MarkServed(ctx context.Context, actor identity.Actor, ticketID uuid.UUID) (*TicketResponse, error) {
	return s.transition(ctx, actor, ticketID, true, func(q *queue.Queue, t *queue.Ticket, now time.Time) error {
		return q.ServeTicket(t, now)
	})
}

// MarkNoShow records that the called customer did not come
func (s *TicketService) MarkNoShow(ctx context.Context, actor identity.Actor, ticketID uuid.UUID) (*TicketResponse, error) {
	return s.transition(ctx, actor, ticketID, true, func(_ *queue.Queue, t *queue.Ticket, now time.Time) error {
		return t.MarkNoShow(now)
	})
}

// Skip moves past a ticket
func (s *TicketService) Skip(ctx context.Context, actor identity.Actor, ticketID uuid.UUID, req ReasonRequest) (*TicketResponse, error) {
	return s.transition(ctx, actor, ticketID, true, func(q *queue.Queue, t *queue.Ticket, now time.Time) error {
		return q.SkipTicket(t, req.Reason, now)
	})
}

// Cancel cancels a ticket; customers may cancel their own
func (s *TicketService) Cancel(ctx context.Context, actor identity.Actor, ticketID uuid.UUID, req ReasonRequest) (*TicketResponse, error) {
	return s.transition(ctx, actor, ticketID, false, func(q *queue.Queue, t *queue.Ticket, now time.Time) error {
		return q.CancelTicket(t, req.Reason, now)
	})
}

// Extend pushes the expiry of a waiting ticket
func (s *TicketService) Extend(ctx context.Context, actor identity.Actor, ticketID uuid.UUID, req ExtendRequest) (*TicketResponse, error) {
	return s.transition(ctx, actor, ticketID, false, func(_ *queue.Queue, t *queue.Ticket, now time.Time) error {
		return t.Extend(req.Minutes, now)
	})
}

// Rate records a customer's satisfaction with a served ticket
func (s *TicketService) Rate(ctx context.Context, actor identity.Actor, ticketID uuid.UUID, req RateRequest) (*TicketResponse, error) {
	if !actor.IsCustomer() {
		return nil, shared.ErrForbidden
	}
	found, err := s.deps.loadTicket(ctx, actor, ticketID, false)
	if err != nil {
		return nil, err
	}
	_, now, err := s.deps.organizationClock(ctx, found.OrganizationID, s.now())
	if err != nil {
		return nil, err
	}

	var t *queue.Ticket
	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context) error {
		t, err = s.deps.Tickets.FindByIDForUpdate(ctx, found.OrganizationID, ticketID)
		if err != nil {
			return notFound(err, ErrTicketNotFound)
		}
		if err := t.Rate(actor.UserID, req.Rating, req.Comment, now); err != nil {
			return err
		}
		if err := s.deps.Tickets.Update(ctx, t); err != nil {
			return err
		}
		return s.deps.record(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	resp := ToTicketResponse(t)
	return &resp, nil
}

// CancelForPayment cancels a ticket whose payment failed. Tickets that are
// already paid or no longer active are left untouched.
func (s *TicketService) CancelForPayment(ctx context.Context, organizationID, ticketID uuid.UUID) (bool, error) {
	_, now, err := s.deps.organizationClock(ctx, organizationID, s.now())
	if err != nil {
		return false, err
	}
	cancelled := false
	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context) error {
		found, err := s.deps.Tickets.FindByIDForOrg(ctx, organizationID, ticketID)
		if err != nil {
			return notFound(err, ErrTicketNotFound)
		}
		if found.IsPaid || !found.Status.IsActive() {
			return nil
		}
		q, t, err := s.lockPair(ctx, organizationID, found.QueueID, ticketID)
		if err != nil {
			return err
		}
		if err := q.CancelTicket(t, queue.PaymentFailedReason, now); err != nil {
			return err
		}
		cancelled = true
		return s.save(ctx, q, t)
	})
	return cancelled, err
}

// MarkPaid links a completed payment to a ticket
func (s *TicketService) MarkPaid(ctx context.Context, organizationID, ticketID, paymentID uuid.UUID) (*queue.Ticket, error) {
	var t *queue.Ticket
	err := s.deps.Tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		t, err = s.deps.Tickets.FindByIDForUpdate(ctx, organizationID, ticketID)
		if err != nil {
			return notFound(err, ErrTicketNotFound)
		}
		t.MarkPaid(paymentID)
		return s.deps.Tickets.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// transition locks the ticket's queue then the ticket, applies fn and saves both
func (s *TicketService) transition(ctx context.Context, actor identity.Actor, ticketID uuid.UUID, staffOnly bool,
	fn func(q *queue.Queue, t *queue.Ticket, now time.Time) error) (*TicketResponse, error) {
	found, err := s.deps.loadTicket(ctx, actor, ticketID, staffOnly)
	if err != nil {
		return nil, err
	}
	_, now, err := s.deps.organizationClock(ctx, found.OrganizationID, s.now())
	if err != nil {
		return nil, err
	}

	var t *queue.Ticket
	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context) error {
		var q *queue.Queue
		q, t, err = s.lockPair(ctx, found.OrganizationID, found.QueueID, ticketID)
		if err != nil {
			return err
		}
		if err := fn(q, t, now); err != nil {
			return err
		}
		return s.save(ctx, q, t)
	})
	if err != nil {
		return nil, err
	}
	resp := ToTicketResponse(t)
	return &resp, nil
}

// lockPair locks the queue before the ticket, the order every ticket mutation uses
func (s *TicketService) lockPair(ctx context.Context, organizationID, queueID, ticketID uuid.UUID) (*queue.Queue, *queue.Ticket, error) {
	q, err := s.deps.Queues.FindByIDForUpdate(ctx, organizationID, queueID)
	if err != nil {
		return nil, nil, notFound(err, ErrQueueNotFound)
	}
	t, err := s.deps.Tickets.FindByIDForUpdate(ctx, organizationID, ticketID)
	if err != nil {
		return nil, nil, notFound(err, ErrTicketNotFound)
	}
	return q, t, nil
}

func (s *TicketService) save(ctx context.Context, q *queue.Queue, tickets ...*queue.Ticket) error {
	aggregates := make([]shared.AggregateRoot, 0, len(tickets)+1)
	for _, t := range tickets {
		if err := s.deps.Tickets.Update(ctx, t); err != nil {
			return err
		}
		aggregates = append(aggregates, t)
	}
	if err := s.deps.Queues.Update(ctx, q); err != nil {
		return err
	}
	aggregates = append(aggregates, q)
	return s.deps.record(ctx, aggregates...)
}

// Transfer closes a ticket in its queue and reissues it at the end of another
// queue of the same organization
func (s *TicketService) Transfer(ctx context.Context, actor identity.Actor, ticketID uuid.UUID, req TransferRequest) (*TransferResponse, error) {
	found, err := s.deps.loadTicket(ctx, actor, ticketID, true)
	if err != nil {
		return nil, err
	}
	_, now, err := s.deps.organizationClock(ctx, found.OrganizationID, s.now())
	if err != nil {
		return nil, err
	}

	var original, moved *queue.Ticket
	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context) error {
		from, to, err := s.lockQueues(ctx, found.OrganizationID, found.QueueID, req.TargetQueueID)
		if err != nil {
			return err
		}
		original, err = s.deps.Tickets.FindByIDForUpdate(ctx, found.OrganizationID, ticketID)
		if err != nil {
			return notFound(err, ErrTicketNotFound)
		}
		moved, err = queue.TransferTicket(from, to, original, req.Reason, now)
		if err != nil {
			return err
		}
		if err := s.deps.Tickets.Create(ctx, moved); err != nil {
			return err
		}
		if err := s.deps.Tickets.Update(ctx, original); err != nil {
			return err
		}
		if err := s.deps.Queues.Update(ctx, from); err != nil {
			return err
		}
		if err := s.deps.Queues.Update(ctx, to); err != nil {
			return err
		}
		return s.deps.record(ctx, original, moved, from, to)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Ticket transferred",
		zap.String("ticket_id", original.ID.String()),
		zap.String("new_ticket_id", moved.ID.String()),
		zap.String("target_queue_id", req.TargetQueueID.String()))
	return &TransferResponse{Original: ToTicketResponse(original), Ticket: ToTicketResponse(moved)}, nil
}

// lockQueues locks two queues in id order so concurrent transfers cannot deadlock
func (s *TicketService) lockQueues(ctx context.Context, organizationID, fromID, toID uuid.UUID) (*queue.Queue, *queue.Queue, error) {
	if fromID == toID {
		return nil, nil, shared.NewDomainError("SAME_QUEUE", "Cannot transfer a ticket to the same queue")
	}
	firstID, secondID := fromID, toID
	if secondID.String() < firstID.String() {
		firstID, secondID = secondID, firstID
	}
	first, err := s.deps.Queues.FindByIDForUpdate(ctx, organizationID, firstID)
	if err != nil {
		return nil, nil, notFound(err, ErrQueueNotFound)
	}
	second, err := s.deps.Queues.FindByIDForUpdate(ctx, organizationID, secondID)
	if err != nil {
		return nil, nil, notFound(err, ErrQueueNotFound)
	}
	if first.ID == fromID {
		return first, second, nil
	}
	return second, first, nil
}

// ExpireOverdue expires waiting tickets past their expiry time, one transaction
// per queue, and returns how many were expired
func (s *TicketService) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	overdue, err := s.deps.Tickets.FindExpiredWaiting(ctx, now, s.sweepBatch)
	if err != nil {
		return 0, err
	}

	type queueKey struct{ org, queue uuid.UUID }
	byQueue := make(map[queueKey][]uuid.UUID)
	var order []queueKey
	for _, t := range overdue {
		key := queueKey{t.OrganizationID, t.QueueID}
		if _, seen := byQueue[key]; !seen {
			order = append(order, key)
		}
		byQueue[key] = append(byQueue[key], t.ID)
	}

	expired := 0
	for _, key := range order {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
		n, err := s.expireInQueue(ctx, key.org, key.queue, byQueue[key], now)
		if err != nil {
			s.logger.Error("Ticket expiry failed",
				zap.String("queue_id", key.queue.String()),
				zap.Error(err))
			continue
		}
		expired += n
	}
	if expired > 0 {
		s.logger.Info("Expired overdue tickets", zap.Int("count", expired))
	}
	return expired, nil
}

func (s *TicketService) expireInQueue(ctx context.Context, organizationID, queueID uuid.UUID, ticketIDs []uuid.UUID, now time.Time) (int, error) {
	expired := 0
	err := s.deps.Tx.RunInTx(ctx, func(ctx context.Context) error {
		expired = 0
		q, err := s.deps.Queues.FindByIDForUpdate(ctx, organizationID, queueID)
		if err != nil {
			return notFound(err, ErrQueueNotFound)
		}
		changed := make([]*queue.Ticket, 0, len(ticketIDs))
		for _, id := range ticketIDs {
			t, err := s.deps.Tickets.FindByIDForUpdate(ctx, organizationID, id)
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			// called or extended since the sweep read it
			if !t.IsExpiredAt(now) {
				continue
			}
			if err := q.ExpireTicket(t, now); err != nil {
				return err
			}
			changed = append(changed, t)
		}
		if len(changed) == 0 {
			return nil
		}
		expired = len(changed)
		return s.save(ctx, q, changed...)
	})
	return expired, err
}

// Get returns a ticket with its estimated wait
func (s *TicketService) Get(ctx context.Context, actor identity.Actor, ticketID uuid.UUID) (*TicketResponse, error) {
	t, err := s.deps.loadTicket(ctx, actor, ticketID, false)
	if err != nil {
		return nil, err
	}
	return s.withEstimate(ctx, t)
}

// ListForQueue lists the tickets of a queue
func (s *TicketService) ListForQueue(ctx context.Context, actor identity.Actor, queueID uuid.UUID, filter TicketListFilter) (*shared.Paginated[TicketResponse], error) {
	q, err := s.deps.loadQueue(ctx, actor, queueID, true)
	if err != nil {
		return nil, err
	}
	tf := queue.TicketFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			Search:   filter.Search,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
		}.Normalize(),
		QueueID: &q.ID,
	}
	for _, st := range filter.Status {
		tf.Statuses = append(tf.Statuses, queue.TicketStatus(st))
	}
	if filter.Today {
		_, now, err := s.deps.organizationClock(ctx, q.OrganizationID, s.now())
		if err != nil {
			return nil, err
		}
		since := startOfDay(now)
		tf.Since = &since
	}

	tickets, err := s.deps.Tickets.FindAll(ctx, q.OrganizationID, tf)
	if err != nil {
		return nil, err
	}
	total, err := s.deps.Tickets.Count(ctx, q.OrganizationID, tf)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(toTicketResponses(tickets), total, tf.Page, tf.PageSize)
	return &page, nil
}

// MyTickets returns the customer's active tickets and latest completed ones
func (s *TicketService) MyTickets(ctx context.Context, actor identity.Actor) (*MyTicketsResponse, error) {
	customerID := actor.UserID
	active, err := s.deps.Tickets.FindAll(ctx, uuid.Nil, queue.TicketFilter{
		Filter:     shared.Filter{Page: 1, PageSize: shared.MaxPageSize, OrderBy: "created_at", OrderDir: "asc"},
		CustomerID: &customerID,
		Statuses:   queue.ActiveStatuses,
	})
	if err != nil {
		return nil, err
	}

	completed := queue.TicketFilter{
		Filter:     shared.Filter{Page: 1, PageSize: RecentTicketsLimit, OrderBy: "created_at", OrderDir: "desc"},
		CustomerID: &customerID,
		Statuses:   completedStatuses,
	}
	recent, err := s.deps.Tickets.FindAll(ctx, uuid.Nil, completed)
	if err != nil {
		return nil, err
	}
	totalCompleted, err := s.deps.Tickets.Count(ctx, uuid.Nil, completed)
	if err != nil {
		return nil, err
	}
	served := queue.TicketFilter{CustomerID: &customerID, Statuses: []queue.TicketStatus{queue.TicketServed}}
	totalServed, err := s.deps.Tickets.Count(ctx, uuid.Nil, served)
	if err != nil {
		return nil, err
	}

	resp := &MyTicketsResponse{
		Active:      make([]TicketResponse, 0, len(active)),
		Recent:      toTicketResponses(recent),
		SuccessRate: percent(totalServed, totalCompleted),
	}
	for i := range active {
		tr, err := s.withEstimate(ctx, &active[i])
		if err != nil {
			return nil, err
		}
		resp.Active = append(resp.Active, *tr)
	}
	return resp, nil
}

// completedStatuses are the finished outcomes counted by the success rate
var completedStatuses = []queue.TicketStatus{
	queue.TicketServed, queue.TicketCancelled, queue.TicketExpired, queue.TicketNoShow, queue.TicketSkipped,
}

// TicketStats summarizes tickets: a customer's own, or an organization's for staff
func (s *TicketService) TicketStats(ctx context.Context, actor identity.Actor, organizationID *uuid.UUID) (*TicketStatsResponse, error) {
	var (
		orgID      uuid.UUID
		customerID *uuid.UUID
		loc        = organization.LoadLocation("")
		err        error
	)
	if actor.IsCustomer() {
		id := actor.UserID
		customerID = &id
	} else {
		orgID, err = actor.Organization(organizationID)
		if err != nil {
			return nil, err
		}
		org, _, err := s.deps.organizationClock(ctx, orgID, s.now())
		if err != nil {
			return nil, err
		}
		loc = org.Location()
	}
	now := s.now().In(loc)
	today := startOfDay(now)

	agg, err := s.deps.Tickets.Aggregates(ctx, orgID, queue.TicketFilter{CustomerID: customerID})
	if err != nil {
		return nil, err
	}
	series, err := s.deps.Tickets.DailySeries(ctx, orgID, customerID, today.AddDate(0, 0, -(statsDays-1)))
	if err != nil {
		return nil, err
	}

	resp := &TicketStatsResponse{
		ByStatus:              make(map[string]int64, len(agg.ByStatus)),
		AverageWaitMinutes:    agg.AverageWaitMinutes,
		AverageServiceMinutes: agg.AverageServiceTime,
		AverageRating:         agg.AverageRating,
		RatingCount:           agg.RatingCount,
		Last7Days:             fillSeries(series, today),
	}
	for _, c := range agg.ByStatus {
		resp.ByStatus[string(c.Status)] = c.Count
		resp.Total += c.Count
	}
	last := resp.Last7Days[len(resp.Last7Days)-1]
	resp.TodayIssued, resp.TodayServed = last.Issued, last.Served
	return resp, nil
}

// fillSeries returns one point per day ending today, zero for days without tickets
func fillSeries(series []queue.DailyCount, today time.Time) []DailyPoint {
	byDay := make(map[string]queue.DailyCount, len(series))
	for _, c := range series {
		byDay[c.Day.Format(time.DateOnly)] = c
	}
	points := make([]DailyPoint, statsDays)
	for i := range statsDays {
		day := today.AddDate(0, 0, i-(statsDays-1)).Format(time.DateOnly)
		c := byDay[day]
		points[i] = DailyPoint{Date: day, Issued: c.Issued, Served: c.Served}
	}
	return points
}

// withEstimate adds the estimated wait to a waiting ticket
func (s *TicketService) withEstimate(ctx context.Context, t *queue.Ticket) (*TicketResponse, error) {
	resp := ToTicketResponse(t)
	if t.Status != queue.TicketWaiting {
		return &resp, nil
	}
	service, err := s.deps.Services.FindByIDForOrg(ctx, t.OrganizationID, t.ServiceID)
	if err != nil {
		return nil, notFound(err, ErrServiceNotFound)
	}
	wait := max(t.Position-1, 0) * service.EstimatedDuration
	resp.EstimatedWaitMinutes = &wait
	return &resp, nil
}

// PrintSlip renders the kiosk slip of a ticket
func (s *TicketService) PrintSlip(ctx context.Context, actor identity.Actor, ticketID uuid.UUID) ([]byte, error) {
	if s.printer == nil {
		return nil, printing.ErrPrintingDisabled
	}
	t, err := s.deps.loadTicket(ctx, actor, ticketID, false)
	if err != nil {
		return nil, err
	}
	org, err := s.deps.Organizations.FindByID(ctx, t.OrganizationID)
	if err != nil {
		return nil, err
	}
	q, err := s.deps.Queues.FindByIDForOrg(ctx, t.OrganizationID, t.QueueID)
	if err != nil {
		return nil, notFound(err, ErrQueueNotFound)
	}
	service, err := s.deps.Services.FindByIDForOrg(ctx, t.OrganizationID, t.ServiceID)
	if err != nil {
		return nil, notFound(err, ErrServiceNotFound)
	}

	return s.printer.PrintSlip(ctx, printing.Slip{
		OrganizationName:     org.DisplayName(),
		ServiceName:          service.Name,
		QueueName:            q.Name,
		TicketNumber:         t.Number,
		Priority:             string(t.Priority),
		Position:             t.Position,
		EstimatedWaitMinutes: max(t.Position-1, 0) * service.EstimatedDuration,
		IssuedAt:             t.CreatedAt,
		ExpiresAt:            t.ExpiresAt,
		Location:             org.Location(),
	})
}
