package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	queueapp "github.com/smartqueue/backend/internal/application/queue"
	"github.com/smartqueue/backend/internal/domain/appointment"
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

type MockAppointmentRepository struct {
	mock.Mock
}

func (m *MockAppointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appointment.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) FindByIDForOrg(ctx context.Context, organizationID, id uuid.UUID) (*appointment.Appointment, error) {
	args := m.Called(ctx, organizationID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appointment.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) FindByIDForUpdate(ctx context.Context, organizationID, id uuid.UUID) (*appointment.Appointment, error) {
	args := m.Called(ctx, organizationID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appointment.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) FindAll(ctx context.Context, organizationID *uuid.UUID, filter appointment.Filter) ([]appointment.Appointment, error) {
	args := m.Called(ctx, organizationID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appointment.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) Count(ctx context.Context, organizationID *uuid.UUID, filter appointment.Filter) (int64, error) {
	args := m.Called(ctx, organizationID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAppointmentRepository) NextSequence(ctx context.Context, day time.Time) (int, error) {
	args := m.Called(ctx, day)
	return args.Int(0), args.Error(1)
}

func (m *MockAppointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAppointmentRepository) Update(ctx context.Context, a *appointment.Appointment) error {
	return m.Called(ctx, a).Error(0)
}

// fakeIssuer issues tickets straight from an open queue
type fakeIssuer struct {
	queue    *queue.Queue
	commands []queueapp.IssueCommand
	err      error
}

func (f *fakeIssuer) Issue(_ context.Context, cmd queueapp.IssueCommand) (*queue.Ticket, error) {
	f.commands = append(f.commands, cmd)
	if f.err != nil {
		return nil, f.err
	}
	opts := cmd.Options
	if opts.Priority == "" {
		opts.Priority = organization.PriorityMedium
	}
	return f.queue.Issue("C", opts, fixedNow)
}

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

var fixedNow = time.Date(2024, 3, 12, 10, 30, 0, 0, time.UTC)

type fixture struct {
	orgs         *MockOrganizationRepository
	services     *MockServiceRepository
	queues       *MockQueueRepository
	appointments *MockAppointmentRepository
	issuer       *fakeIssuer
	events       *recorder

	org     *organization.Organization
	service *organization.Service
	queue   *queue.Queue

	staff    identity.Actor
	customer identity.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	org, err := organization.NewOrganization("Hôpital Principal", "", organization.TypeHospital, "338390000", "Dakar", "dakar")
	require.NoError(t, err)
	service, err := organization.NewService(org.ID, "Consultation", "cons", 15)
	require.NoError(t, err)
	require.NoError(t, service.ConfigureAppointments(true, false, 2, 30))
	q, err := queue.NewQueue(org.ID, service.ID, "Rendez-vous", queue.TypeAppointment, queue.StrategyAppointmentFirst)
	require.NoError(t, err)
	require.NoError(t, q.Open())
	q.ClearDomainEvents()

	orgID := org.ID
	f := &fixture{
		orgs:         new(MockOrganizationRepository),
		services:     new(MockServiceRepository),
		queues:       new(MockQueueRepository),
		appointments: new(MockAppointmentRepository),
		issuer:       &fakeIssuer{queue: q},
		events:       &recorder{},
		org:          org,
		service:      service,
		queue:        q,
		staff:        identity.Actor{UserID: uuid.New(), OrganizationID: &orgID, Role: identity.RoleStaff},
		customer:     identity.Actor{UserID: uuid.New(), Role: identity.RoleCustomer, Phone: "+221771234567"},
	}
	f.orgs.On("FindByID", mock.Anything, org.ID).Return(org, nil).Maybe()
	f.services.On("FindByIDForOrg", mock.Anything, org.ID, service.ID).Return(service, nil).Maybe()
	return f
}

func (f *fixture) appointmentService() *AppointmentService {
	s := NewAppointmentService(Dependencies{
		Tx:            shared.NoTx,
		Organizations: f.orgs,
		Services:      f.services,
		Queues:        f.queues,
		Appointments:  f.appointments,
		Events:        f.events,
	}, f.issuer, zap.NewNop())
	s.now = func() time.Time { return fixedNow }
	return s
}

// book stores an appointment for the fixture customer, booked two days ago
func (f *fixture) book(t *testing.T, scheduledAt time.Time, confirm bool) *appointment.Appointment {
	t.Helper()
	bookedAt := fixedNow.Add(-48 * time.Hour)
	a, err := appointment.Book(f.service, f.customer.UserID, f.customer.Phone, scheduledAt, "", 1, bookedAt)
	require.NoError(t, err)
	if confirm {
		require.NoError(t, a.Confirm(bookedAt))
	}
	a.ClearDomainEvents()
	f.appointments.On("FindByID", mock.Anything, a.ID).Return(a, nil).Maybe()
	f.appointments.On("FindByIDForUpdate", mock.Anything, f.org.ID, a.ID).Return(a, nil).Maybe()
	f.appointments.On("Update", mock.Anything, a).Return(nil).Maybe()
	return a
}
