package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/notification"
	"github.com/smartqueue/backend/internal/domain/organization"
	"github.com/smartqueue/backend/internal/domain/queue"
	"github.com/smartqueue/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
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

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockNotificationRepository) FindAll(ctx context.Context, filter notification.Filter) ([]notification.Notification, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]notification.Notification), args.Get(1).(int64), args.Error(2)
}

func (m *MockNotificationRepository) ExistsForReference(ctx context.Context, kind notification.Kind, referenceID uuid.UUID) (bool, error) {
	args := m.Called(ctx, kind, referenceID)
	return args.Bool(0), args.Error(1)
}

// fakeSender keeps what it was asked to send
type fakeSender struct {
	sent []sentSMS
	fail bool
}

type sentSMS struct {
	phone string
	text  string
}

func (s *fakeSender) Send(_ context.Context, phone, text string) error {
	if s.fail {
		return errors.New("operator unreachable")
	}
	s.sent = append(s.sent, sentSMS{phone: phone, text: text})
	return nil
}

var fixedNow = time.Date(2024, 3, 12, 10, 30, 0, 0, time.UTC)
