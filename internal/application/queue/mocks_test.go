package queue

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/identity"
	"github.com/smartqueue/backend/internal/domain/organization"
	"github.com/smartqueue/backend/internal/domain/queue"
	"github.com/smartqueue/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockOrganizationRepository struct {
	mock.Mock
}

func (m *MockOrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]organization.Organization, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]organization.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrganizationRepository) Save(ctx context.Context, org *organization.Organization) error {
	return m.Called(ctx, org).Error(0)
}

func (m *MockOrganizationRepository) FindActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type MockServiceRepository struct {
	mock.Mock
}

func (m *MockServiceRepository) FindByIDForOrg(ctx context.Context, organizationID, id uuid.UUID) (*organization.Service, error) {
	args := m.Called(ctx, organizationID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.Service), args.Error(1)
}

func (m *MockServiceRepository) FindAllForOrg(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) ([]organization.Service, error) {
	args := m.Called(ctx, organizationID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]organization.Service), args.Error(1)
}

func (m *MockServiceRepository) CountForOrg(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, organizationID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockServiceRepository) ExistsByCode(ctx context.Context, organizationID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, organizationID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockServiceRepository) Save(ctx context.Context, service *organization.Service) error {
	return m.Called(ctx, service).Error(0)
}

type MockQueueRepository struct {
	mock.Mock
}

func (m *MockQueueRepository) FindByID(ctx context.Context, id uuid.UUID) (*queue.Queue, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.Queue), args.Error(1)
}

func (m *MockQueueRepository) FindByIDForOrg(ctx context.Context, organizationID, id uuid.UUID) (*queue.Queue, error) {
	args := m.Called(ctx, organizationID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.Queue), args.Error(1)
}

func (m *MockQueueRepository) FindByIDForUpdate(ctx context.Context, organizationID, id uuid.UUID) (*queue.Queue, error) {
	args := m.Called(ctx, organizationID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.Queue), args.Error(1)
}

func (m *MockQueueRepository) FindAllForOrg(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) ([]queue.Queue, error) {
	args := m.Called(ctx, organizationID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]queue.Queue), args.Error(1)
}

func (m *MockQueueRepository) CountForOrg(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, organizationID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQueueRepository) FindFirstOpen(ctx context.Context, organizationID uuid.UUID, serviceID *uuid.UUID, queueType queue.Type) (*queue.Queue, error) {
	args := m.Called(ctx, organizationID, serviceID, queueType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.Queue), args.Error(1)
}

func (m *MockQueueRepository) FindActiveIDs(ctx context.Context) ([]queue.QueueRef, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]queue.QueueRef), args.Error(1)
}

func (m *MockQueueRepository) ExistsForService(ctx context.Context, organizationID, serviceID uuid.UUID, queueType queue.Type) (bool, error) {
	args := m.Called(ctx, organizationID, serviceID, queueType)
	return args.Bool(0), args.Error(1)
}

func (m *MockQueueRepository) Create(ctx context.Context, q *queue.Queue) error {
	return m.Called(ctx, q).Error(0)
}

func (m *MockQueueRepository) Update(ctx context.Context, q *queue.Queue) error {
	return m.Called(ctx, q).Error(0)
}

type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) FindByID(ctx context.Context, id uuid.UUID) (*queue.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.Ticket), args.Error(1)
}

func (m *MockTicketRepository) FindByIDForOrg(ctx context.Context, organizationID, id uuid.UUID) (*queue.Ticket, error) {
	args := m.Called(ctx, organizationID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.Ticket), args.Error(1)
}

func (m *MockTicketRepository) FindByIDForUpdate(ctx context.Context, organizationID, id uuid.UUID) (*queue.Ticket, error) {
	args := m.Called(ctx, organizationID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.Ticket), args.Error(1)
}

func (m *MockTicketRepository) FindNextWaitingForUpdate(ctx context.Context, queueID uuid.UUID, ordering []queue.SortKey) (*queue.Ticket, error) {
	args := m.Called(ctx, queueID, ordering)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.Ticket), args.Error(1)
}

func (m *MockTicketRepository) FindWaiting(ctx context.Context, queueID uuid.UUID, ordering []queue.SortKey, limit int) ([]queue.Ticket, error) {
	args := m.Called(ctx, queueID, ordering, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]queue.Ticket), args.Error(1)
}

func (m *MockTicketRepository) FindCurrent(ctx context.Context, queueID uuid.UUID) (*queue.Ticket, error) {
	args := m.Called(ctx, queueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.Ticket), args.Error(1)
}

func (m *MockTicketRepository) FindAll(ctx context.Context, organizationID uuid.UUID, filter queue.TicketFilter) ([]queue.Ticket, error) {
	args := m.Called(ctx, organizationID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]queue.Ticket), args.Error(1)
}

func (m *MockTicketRepository) Count(ctx context.Context, organizationID uuid.UUID, filter queue.TicketFilter) (int64, error) {
	args := m.Called(ctx, organizationID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTicketRepository) ExistsActiveForCustomer(ctx context.Context, queueID, customerID uuid.UUID) (bool, error) {
	args := m.Called(ctx, queueID, customerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTicketRepository) CountWaiting(ctx context.Context, queueID uuid.UUID) (int64, error) {
	args := m.Called(ctx, queueID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTicketRepository) FindExpiredWaiting(ctx context.Context, now time.Time, limit int) ([]queue.Ticket, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]queue.Ticket), args.Error(1)
}

func (m *MockTicketRepository) FindByPaymentID(ctx context.Context, organizationID, paymentID uuid.UUID) (*queue.Ticket, error) {
	args := m.Called(ctx, organizationID, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.Ticket), args.Error(1)
}

func (m *MockTicketRepository) CountByStatusSince(ctx context.Context, organizationID uuid.UUID, queueID *uuid.UUID, since time.Time) ([]queue.StatusCount, error) {
	args := m.Called(ctx, organizationID, queueID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]queue.StatusCount), args.Error(1)
}

func (m *MockTicketRepository) Aggregates(ctx context.Context, organizationID uuid.UUID, filter queue.TicketFilter) (*queue.TicketAggregates, error) {
	args := m.Called(ctx, organizationID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.TicketAggregates), args.Error(1)
}

func (m *MockTicketRepository) DailySeries(ctx context.Context, organizationID uuid.UUID, customerID *uuid.UUID, since time.Time) ([]queue.DailyCount, error) {
	args := m.Called(ctx, organizationID, customerID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]queue.DailyCount), args.Error(1)
}

func (m *MockTicketRepository) Create(ctx context.Context, t *queue.Ticket) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockTicketRepository) Update(ctx context.Context, t *queue.Ticket) error {
	return m.Called(ctx, t).Error(0)
}

// recorder keeps the events handed to it
type recorder struct {
	events []shared.DomainEvent
}

func (r *recorder) Record(_ context.Context, events ...shared.DomainEvent) error {
	r.events = append(r.events, events...)
	return nil
}

func (r *recorder) types() []string {
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.EventType()
	}
	return out
}

// fixedNow is 10:30 in Dakar
var fixedNow = time.Date(2024, 3, 12, 10, 30, 0, 0, time.UTC)

type fixture struct {
	orgs     *MockOrganizationRepository
	services *MockServiceRepository
	queues   *MockQueueRepository
	tickets  *MockTicketRepository
	events   *recorder

	org     *organization.Organization
	service *organization.Service
	queue   *queue.Queue

	staff    identity.Actor
	customer identity.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	org, err := organization.NewOrganization("Banque Atlantique", "", organization.TypeBank, "338210000", "Dakar", "dakar")
	require.NoError(t, err)
	service, err := organization.NewService(org.ID, "Retrait", "ret", 5)
	require.NoError(t, err)
	q, err := queue.NewQueue(org.ID, service.ID, "Guichet 1", queue.TypeNormal, queue.StrategyFIFO)
	require.NoError(t, err)
	require.NoError(t, q.Open())
	q.ClearDomainEvents()

	orgID := org.ID
	return &fixture{
		orgs:     new(MockOrganizationRepository),
		services: new(MockServiceRepository),
		queues:   new(MockQueueRepository),
		tickets:  new(MockTicketRepository),
		events:   &recorder{},
		org:      org,
		service:  service,
		queue:    q,
		staff:    identity.Actor{UserID: uuid.New(), OrganizationID: &orgID, Role: identity.RoleStaff},
		customer: identity.Actor{UserID: uuid.New(), Role: identity.RoleCustomer, Phone: "+221771234567"},
	}
}

func (f *fixture) deps() Dependencies {
	return Dependencies{
		Tx:            shared.NoTx,
		Organizations: f.orgs,
		Services:      f.services,
		Queues:        f.queues,
		Tickets:       f.tickets,
		Events:        f.events,
	}
}

func (f *fixture) queueService() *QueueService {
	s := NewQueueService(f.deps(), zap.NewNop())
	s.now = func() time.Time { return fixedNow }
	return s
}

func (f *fixture) ticketService(printer SlipPrinter) *TicketService {
	s := NewTicketService(f.deps(), printer, zap.NewNop())
	s.now = func() time.Time { return fixedNow }
	return s
}

// expectOrg makes the organization and service lookups succeed
func (f *fixture) expectOrg() {
	f.orgs.On("FindByID", mock.Anything, f.org.ID).Return(f.org, nil).Maybe()
	f.services.On("FindByIDForOrg", mock.Anything, f.org.ID, f.service.ID).Return(f.service, nil).Maybe()
}

// expectQueue makes every queue lookup return the fixture queue
func (f *fixture) expectQueue() {
	f.queues.On("FindByID", mock.Anything, f.queue.ID).Return(f.queue, nil).Maybe()
	f.queues.On("FindByIDForOrg", mock.Anything, f.org.ID, f.queue.ID).Return(f.queue, nil).Maybe()
	f.queues.On("FindByIDForUpdate", mock.Anything, f.org.ID, f.queue.ID).Return(f.queue, nil).Maybe()
	f.queues.On("Update", mock.Anything, f.queue).Return(nil).Maybe()
}

// addWaiting issues a waiting ticket in the fixture queue and wires its lookups
func (f *fixture) addWaiting(t *testing.T, customerID *uuid.UUID) *queue.Ticket {
	t.Helper()
	ticket, err := f.queue.Issue("R", queue.IssueOptions{
		CustomerID: customerID,
		Priority:   organization.PriorityMedium,
		Channel:    queue.ChannelMobile,
	}, fixedNow.Add(-20*time.Minute))
	require.NoError(t, err)
	ticket.ClearDomainEvents()
	f.queue.ClearDomainEvents()
	f.tickets.On("FindByID", mock.Anything, ticket.ID).Return(ticket, nil).Maybe()
	f.tickets.On("FindByIDForOrg", mock.Anything, f.org.ID, ticket.ID).Return(ticket, nil).Maybe()
	f.tickets.On("FindByIDForUpdate", mock.Anything, f.org.ID, ticket.ID).Return(ticket, nil).Maybe()
	f.tickets.On("Update", mock.Anything, ticket).Return(nil).Maybe()
	return ticket
}
