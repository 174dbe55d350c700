package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	queueapp "github.com/smartqueue/backend/internal/application/queue"
	"github.com/smartqueue/backend/internal/domain/appointment"
	"github.com/smartqueue/backend/internal/domain/identity"
	"github.com/smartqueue/backend/internal/domain/notification"
	"github.com/smartqueue/backend/internal/domain/organization"
	"github.com/smartqueue/backend/internal/domain/payment"
	"github.com/smartqueue/backend/internal/domain/queue"
	"github.com/smartqueue/backend/internal/domain/shared"
	"github.com/smartqueue/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2024, 3, 12, 10, 30, 0, 0, time.UTC)

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByIDForOrg(ctx context.Context, organizationID, id uuid.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, organizationID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByNumberForUpdate(ctx context.Context, number string) (*payment.Payment, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindAll(ctx context.Context, organizationID *uuid.UUID, filter payment.Filter) ([]payment.Payment, error) {
	args := m.Called(ctx, organizationID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Count(ctx context.Context, organizationID *uuid.UUID, filter payment.Filter) (int64, error) {
	args := m.Called(ctx, organizationID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]payment.Payment, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	return m.Called(ctx, p).Error(0)
}

// MockTicketRepository mocks the ticket lookups payments make; other methods panic
type MockTicketRepository struct {
	queue.TicketRepository
	mock.Mock
}

func (m *MockTicketRepository) FindByIDForOrg(ctx context.Context, organizationID, id uuid.UUID) (*queue.Ticket, error) {
	args := m.Called(ctx, organizationID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.Ticket), args.Error(1)
}

// MockAppointmentRepository mocks the appointment lookups payments make
type MockAppointmentRepository struct {
	appointment.AppointmentRepository
	mock.Mock
}

func (m *MockAppointmentRepository) FindByIDForOrg(ctx context.Context, organizationID, id uuid.UUID) (*appointment.Appointment, error) {
	args := m.Called(ctx, organizationID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appointment.Appointment), args.Error(1)
}

type MockOrganizationRepository struct {
	organization.OrganizationRepository
	mock.Mock
}

func (m *MockOrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.Organization), args.Error(1)
}

type MockQueueRepository struct {
	queue.QueueRepository
	mock.Mock
}

func (m *MockQueueRepository) FindByIDForOrg(ctx context.Context, organizationID, id uuid.UUID) (*queue.Queue, error) {
	args := m.Called(ctx, organizationID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.Queue), args.Error(1)
}

func (m *MockQueueRepository) FindFirstOpen(ctx context.Context, organizationID uuid.UUID, serviceID *uuid.UUID, queueType queue.Type) (*queue.Queue, error) {
	args := m.Called(ctx, organizationID, serviceID, queueType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.Queue), args.Error(1)
}

type MockTickets struct {
	mock.Mock
}

func (m *MockTickets) Issue(ctx context.Context, cmd queueapp.IssueCommand) (*queue.Ticket, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.Ticket), args.Error(1)
}

func (m *MockTickets) MarkPaid(ctx context.Context, organizationID, ticketID, paymentID uuid.UUID) (*queue.Ticket, error) {
	args := m.Called(ctx, organizationID, ticketID, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.Ticket), args.Error(1)
}

func (m *MockTickets) CancelForPayment(ctx context.Context, organizationID, ticketID uuid.UUID) (bool, error) {
	args := m.Called(ctx, organizationID, ticketID)
	return args.Bool(0), args.Error(1)
}

type MockAppointments struct {
	mock.Mock
}

func (m *MockAppointments) ConfirmPayment(ctx context.Context, organizationID, id, paymentID uuid.UUID) (*appointment.Appointment, bool, error) {
	args := m.Called(ctx, organizationID, id, paymentID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*appointment.Appointment), args.Bool(1), args.Error(2)
}

func (m *MockAppointments) CancelUnpaid(ctx context.Context, organizationID, id uuid.UUID, reason string) (bool, error) {
	args := m.Called(ctx, organizationID, id, reason)
	return args.Bool(0), args.Error(1)
}

// fakeNotifier collects messages, sending each reference and kind once
type fakeNotifier struct {
	sent []notification.Message
}

func (f *fakeNotifier) Notify(_ context.Context, msg notification.Message) (*notification.Notification, error) {
	f.sent = append(f.sent, msg)
	return notification.NewNotification(msg, nil, fixedNow), nil
}

func (f *fakeNotifier) NotifyOnce(ctx context.Context, msg notification.Message) (*notification.Notification, error) {
	for _, s := range f.sent {
		if s.Kind == msg.Kind && s.ReferenceID != nil && msg.ReferenceID != nil && *s.ReferenceID == *msg.ReferenceID {
			return nil, nil
		}
	}
	return f.Notify(ctx, msg)
}

// fakeGateway is a mobile money operator with a scripted callback
type fakeGateway struct {
	provider    payment.Provider
	checkoutErr error
	callback    *payment.Callback
	verifyErr   error
	requests    []payment.CheckoutRequest
}

func (g *fakeGateway) Provider() payment.Provider { return g.provider }

func (g *fakeGateway) CreateCheckout(_ context.Context, req payment.CheckoutRequest) (*payment.CheckoutResponse, error) {
	g.requests = append(g.requests, req)
	if g.checkoutErr != nil {
		return nil, g.checkoutErr
	}
	return &payment.CheckoutResponse{Reference: "REF-" + req.PaymentNumber, CheckoutURL: "https://pay.example.sn/" + req.PaymentNumber}, nil
}

func (g *fakeGateway) VerifyCallback(_ context.Context, _ []byte, _ string) (*payment.Callback, error) {
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return g.callback, nil
}

func (g *fakeGateway) CallbackResponse(success bool, message string) []byte {
	if success {
		return []byte(`{"status":"ok"}`)
	}
	return []byte(`{"status":"error","message":"` + message + `"}`)
}

type fakeGateways map[payment.Provider]payment.Gateway

func (f fakeGateways) Get(provider payment.Provider) (payment.Gateway, error) {
	g, ok := f[provider]
	if !ok {
		return nil, errors.New("provider disabled")
	}
	return g, nil
}

func (f fakeGateways) Enabled() []payment.Provider {
	var out []payment.Provider
	for _, p := range payment.Providers() {
		if _, ok := f[p.Provider]; ok {
			out = append(out, p.Provider)
		}
	}
	return out
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

type fixture struct {
	payments     *MockPaymentRepository
	tickets      *MockTicketRepository
	appointments *MockAppointmentRepository
	wave         *fakeGateway
	cash         *fakeGateway
	idempotency  *cache.InMemoryIdempotencyStore
	events       *recorder
	orgID        uuid.UUID
	customer     identity.Actor
	staff        identity.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	orgID := uuid.New()
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })
	return &fixture{
		payments:     new(MockPaymentRepository),
		tickets:      new(MockTicketRepository),
		appointments: new(MockAppointmentRepository),
		wave:         &fakeGateway{provider: payment.ProviderWave},
		cash:         &fakeGateway{provider: payment.ProviderCash},
		idempotency:  store,
		events:       &recorder{},
		orgID:        orgID,
		customer:     identity.Actor{UserID: uuid.New(), Role: identity.RoleCustomer, Phone: "+221770000001"},
		staff:        identity.Actor{UserID: uuid.New(), OrganizationID: &orgID, Role: identity.RoleStaff},
	}
}

func (f *fixture) paymentService() *PaymentService {
	svc := NewPaymentService(Dependencies{
		Tx:           shared.NoTx,
		Payments:     f.payments,
		Tickets:      f.tickets,
		Appointments: f.appointments,
		Events:       f.events,
		Idempotency:  f.idempotency,
		Gateways:     fakeGateways{payment.ProviderWave: f.wave, payment.ProviderCash: f.cash},
	}, Options{CallbackBaseURL: "https://api.smartqueue.sn/api/v1/payments/callback"}, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

// processing returns a wave payment of the customer awaiting its callback
func (f *fixture) processing(t *testing.T, amount int64) *payment.Payment {
	t.Helper()
	p, err := payment.NewPayment(payment.NewPaymentInput{
		OrganizationID: f.orgID,
		CustomerID:     f.customer.UserID,
		PayerPhone:     f.customer.Phone,
		Type:           payment.TypeServiceFee,
		Provider:       payment.ProviderWave,
		Amount:         decimal.NewFromInt(amount),
	}, fixedNow.Add(-time.Hour))
	require.NoError(t, err)
	require.NoError(t, p.StartProcessing("REF", "https://pay.example.sn"))
	return p
}
