package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/appointment"
	"github.com/smartqueue/backend/internal/domain/identity"
	"github.com/smartqueue/backend/internal/domain/payment"
	"github.com/smartqueue/backend/internal/domain/queue"
	"github.com/smartqueue/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ExpirySweepBatch is the default cap on stale payments expired by one sweep
const ExpirySweepBatch = 200

// DefaultCallbackTTL is how long a processed provider transaction id is remembered
const DefaultCallbackTTL = 7 * 24 * time.Hour

var (
	ErrPaymentNotFound     = shared.NewDomainError("PAYMENT_NOT_FOUND", "Payment not found")
	ErrTicketNotFound      = shared.NewDomainError("TICKET_NOT_FOUND", "Ticket not found")
	ErrAppointmentNotFound = shared.NewDomainError("APPOINTMENT_NOT_FOUND", "Appointment not found")
	ErrAmountMismatch      = shared.NewDomainError("AMOUNT_MISMATCH", "Callback amount does not match the payment")
	ErrCashOnly            = shared.NewDomainError("CASH_ONLY", "Staff can only record cash payments")
	ErrNotCash             = shared.NewDomainError("NOT_CASH", "Only cash payments are confirmed at the counter")
)

// Gateways resolves the gateway of an enabled provider
type Gateways interface {
	Get(provider payment.Provider) (payment.Gateway, error)
	Enabled() []payment.Provider
}

// Dependencies are the ports the payment service works with
type Dependencies struct {
	Tx           shared.TxRunner
	Payments     payment.PaymentRepository
	Tickets      queue.TicketRepository
	Appointments appointment.AppointmentRepository
	Events       shared.EventRecorder
	Idempotency  shared.IdempotencyStore
	Gateways     Gateways
}

// Options tune the payment service
type Options struct {
	// CallbackBaseURL is the public URL providers post their callbacks under
	CallbackBaseURL string
	Expiry          time.Duration
	CallbackTTL     time.Duration
	// SweepBatch caps how many stale payments one ExpireStale call expires
	SweepBatch int
}

// PaymentService starts payments, applies provider callbacks and expires stale payments
type PaymentService struct {
	deps    Dependencies
	options Options
	logger  *zap.Logger
	now     func() time.Time
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(deps Dependencies, options Options, logger *zap.Logger) *PaymentService {
	if options.Expiry <= 0 {
		options.Expiry = payment.DefaultExpiry
	}
	if options.CallbackTTL <= 0 {
		options.CallbackTTL = DefaultCallbackTTL
	}
	if options.SweepBatch <= 0 {
		options.SweepBatch = ExpirySweepBatch
	}
	return &PaymentService{deps: deps, options: options, logger: logger, now: time.Now}
}

// Providers lists the enabled providers with their terms
func (s *PaymentService) Providers() []ProviderResponse {
	enabled := make(map[payment.Provider]bool)
	for _, p := range s.deps.Gateways.Enabled() {
		enabled[p] = true
	}
	var out []ProviderResponse
	for _, t := range payment.Providers() {
		if !enabled[t.Provider] {
			continue
		}
		out = append(out, ProviderResponse{
			Provider:    string(t.Provider),
			DisplayName: t.DisplayName,
			MinAmount:   t.MinAmount,
			MaxAmount:   t.MaxAmount,
			FixedFee:    t.FixedFee,
			PercentFee:  t.PercentFee,
			Online:      t.Online,
		})
	}
	return out
}

// Initiate creates a payment and asks the provider for a checkout. Customers pay
// for themselves; staff record cash payments at the counter.
func (s *PaymentService) Initiate(ctx context.Context, actor identity.Actor, req InitiatePaymentRequest) (*PaymentResponse, error) {
	provider := payment.Provider(req.Provider)
	staff := actor.CanManage(req.OrganizationID)
	switch {
	case actor.IsCustomer():
	case staff:
		if provider != payment.ProviderCash {
			return nil, ErrCashOnly
		}
	default:
		return nil, shared.ErrForbidden
	}
	gateway, err := s.deps.Gateways.Get(provider)
	if err != nil {
		return nil, err
	}

	in := payment.NewPaymentInput{
		OrganizationID: req.OrganizationID,
		PayerPhone:     strings.TrimSpace(req.PayerPhone),
		Type:           payment.Type(req.Type),
		Provider:       provider,
		Amount:         req.Amount,
		TicketID:       req.TicketID,
		AppointmentID:  req.AppointmentID,
		QueueID:        req.QueueID,
		Description:    req.Description,
	}
	if actor.IsCustomer() {
		in.CustomerID = actor.UserID
		if in.PayerPhone == "" {
			in.PayerPhone = actor.Phone
		}
	}
	if err := s.checkLinks(ctx, actor, &in); err != nil {
		return nil, err
	}

	now := s.now()
	p, err := payment.NewPayment(in, now)
	if err != nil {
		return nil, err
	}
	p.ExpiresAt = now.Add(s.options.Expiry)
	if err := s.deps.Payments.Create(ctx, p); err != nil {
		return nil, err
	}

	checkout, err := gateway.CreateCheckout(ctx, payment.CheckoutRequest{
		PaymentNumber: p.Number,
		Amount:        p.Total,
		PayerPhone:    p.PayerPhone,
		Description:   p.Description,
		CallbackURL:   s.callbackURL(provider),
	})
	if err != nil {
		s.logger.Warn("Checkout failed",
			zap.String("payment_number", p.Number),
			zap.String("provider", string(provider)),
			zap.Error(err))
		if cancelErr := p.Cancel(s.now()); cancelErr == nil {
			if updateErr := s.deps.Payments.Update(ctx, p); updateErr != nil {
				s.logger.Error("Failed to cancel payment after checkout error", zap.Error(updateErr))
			}
		}
		return nil, err
	}
	if err := p.StartProcessing(checkout.Reference, checkout.CheckoutURL); err != nil {
		return nil, err
	}
	if err := s.deps.Payments.Update(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("Payment initiated",
		zap.String("payment_id", p.ID.String()),
		zap.String("payment_number", p.Number),
		zap.String("provider", string(provider)),
		zap.String("total", p.Total.String()))
	resp := ToPaymentResponse(p)
	return &resp, nil
}

// checkLinks checks the linked ticket or appointment and fills the customer from it
func (s *PaymentService) checkLinks(ctx context.Context, actor identity.Actor, in *payment.NewPaymentInput) error {
	if in.TicketID != nil {
		t, err := s.deps.Tickets.FindByIDForOrg(ctx, in.OrganizationID, *in.TicketID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return ErrTicketNotFound
			}
			return err
		}
		if actor.IsCustomer() && !t.IsOwnedBy(actor.UserID) {
			return ErrTicketNotFound
		}
		if t.IsPaid {
			return shared.NewDomainError("ALREADY_PAID", "This ticket is already paid")
		}
		if t.CustomerID != nil && in.CustomerID == uuid.Nil {
			in.CustomerID = *t.CustomerID
		}
		if in.PayerPhone == "" {
			in.PayerPhone = t.CustomerPhone
		}
		in.QueueID = &t.QueueID
	}
	if in.AppointmentID != nil {
		a, err := s.deps.Appointments.FindByIDForOrg(ctx, in.OrganizationID, *in.AppointmentID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return ErrAppointmentNotFound
			}
			return err
		}
		if actor.IsCustomer() && !a.IsOwnedBy(actor.UserID) {
			return ErrAppointmentNotFound
		}
		if !a.IsAwaitingPayment() {
			return shared.NewDomainError("NOT_AWAITING_PAYMENT", "This appointment is not awaiting payment")
		}
		if in.CustomerID == uuid.Nil {
			in.CustomerID = a.CustomerID
		}
		if in.PayerPhone == "" {
			in.PayerPhone = a.CustomerPhone
		}
	}
	return nil
}

func (s *PaymentService) callbackURL(provider payment.Provider) string {
	if s.options.CallbackBaseURL == "" {
		return ""
	}
	return strings.TrimRight(s.options.CallbackBaseURL, "/") + "/" + string(provider)
}

// Get returns a payment the actor may see
func (s *PaymentService) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*PaymentResponse, error) {
	p, err := s.load(ctx, actor, id, false)
	if err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(p)
	return &resp, nil
}

// List lists payments. Customers see their own, staff those of their organization.
func (s *PaymentService) List(ctx context.Context, actor identity.Actor, filter PaymentListFilter) (*shared.Paginated[PaymentResponse], error) {
	f := payment.Filter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			Search:   filter.Search,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
		}.Normalize(),
	}
	if filter.Status != "" {
		status := payment.Status(filter.Status)
		f.Status = &status
	}
	if filter.Provider != "" {
		provider := payment.Provider(filter.Provider)
		f.Provider = &provider
	}

	var organizationID *uuid.UUID
	if actor.IsCustomer() {
		customerID := actor.UserID
		f.CustomerID = &customerID
		organizationID = filter.OrganizationID
	} else {
		orgID, err := actor.Organization(filter.OrganizationID)
		if err != nil {
			return nil, err
		}
		organizationID = &orgID
	}

	rows, err := s.deps.Payments.FindAll(ctx, organizationID, f)
	if err != nil {
		return nil, err
	}
	total, err := s.deps.Payments.Count(ctx, organizationID, f)
	if err != nil {
		return nil, err
	}
	items := make([]PaymentResponse, len(rows))
	for i := range rows {
		items[i] = ToPaymentResponse(&rows[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// ConfirmCash completes a cash payment collected at the counter
func (s *PaymentService) ConfirmCash(ctx context.Context, actor identity.Actor, id uuid.UUID) (*PaymentResponse, error) {
	current, err := s.load(ctx, actor, id, true)
	if err != nil {
		return nil, err
	}
	if current.Provider != payment.ProviderCash {
		return nil, ErrNotCash
	}

	var p *payment.Payment
	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err = s.deps.Payments.FindByNumberForUpdate(ctx, current.Number)
		if err != nil {
			return notFound(err)
		}
		if err := p.Complete("", s.now()); err != nil {
			return err
		}
		if err := s.deps.Payments.Update(ctx, p); err != nil {
			return err
		}
		return s.record(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Cash payment confirmed",
		zap.String("payment_number", p.Number),
		zap.String("confirmed_by", actor.UserID.String()))
	resp := ToPaymentResponse(p)
	return &resp, nil
}

// ProcessCallback verifies and applies a provider callback. A final status seen
// before for the same transaction is acknowledged without being applied again.
// Pending notifications are never recorded so the final one still goes through.
func (s *PaymentService) ProcessCallback(ctx context.Context, provider payment.Provider, body []byte, signature string) (*CallbackResult, error) {
	gateway, err := s.deps.Gateways.Get(provider)
	if err != nil {
		return nil, err
	}
	cb, err := gateway.VerifyCallback(ctx, body, signature)
	if err != nil {
		s.logger.Warn("Payment callback rejected",
			zap.String("provider", string(provider)),
			zap.Error(err))
		return nil, err
	}

	var key string
	if cb.TransactionID != "" && cb.Status != payment.CallbackPending && s.deps.Idempotency != nil {
		key = callbackKey(provider, cb)
		fresh, err := s.deps.Idempotency.MarkProcessed(ctx, key, s.options.CallbackTTL)
		if err != nil {
			return nil, err
		}
		if !fresh {
			s.logger.Info("Duplicate payment callback",
				zap.String("provider", string(provider)),
				zap.String("transaction_id", cb.TransactionID))
			return &CallbackResult{Duplicate: true, Reply: gateway.CallbackResponse(true, "already processed")}, nil
		}
	}

	p, err := s.applyCallback(ctx, cb)
	if err != nil {
		if key != "" {
			if releaseErr := s.deps.Idempotency.Release(ctx, key); releaseErr != nil {
				s.logger.Error("Failed to release callback key", zap.String("key", key), zap.Error(releaseErr))
			}
		}
		return nil, err
	}

	s.logger.Info("Payment callback applied",
		zap.String("payment_number", p.Number),
		zap.String("callback_status", string(cb.Status)),
		zap.String("status", string(p.Status)))
	resp := ToPaymentResponse(p)
	return &CallbackResult{Payment: &resp, Reply: gateway.CallbackResponse(true, "ok")}, nil
}

// callbackKey identifies one final outcome of a provider transaction
func callbackKey(provider payment.Provider, cb *payment.Callback) string {
	return "payment:callback:" + string(provider) + ":" + cb.TransactionID + ":" + string(cb.Status)
}

func (s *PaymentService) applyCallback(ctx context.Context, cb *payment.Callback) (*payment.Payment, error) {
	var p *payment.Payment
	err := s.deps.Tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.deps.Payments.FindByNumberForUpdate(ctx, cb.PaymentNumber)
		if err != nil {
			return notFound(err)
		}
		if p.Provider != cb.Provider {
			return ErrPaymentNotFound
		}
		if p.Status.IsFinal() {
			return nil
		}

		now := s.now()
		switch cb.Status {
		case payment.CallbackCompleted:
			if cb.Amount.IsPositive() && !cb.Amount.Equal(p.Total) {
				return ErrAmountMismatch
			}
			err = p.Complete(cb.TransactionID, now)
		case payment.CallbackFailed:
			reason := cb.ErrorMessage
			if reason == "" {
				reason = "Paiement refusé par l'opérateur"
			}
			err = p.Fail(reason, now)
		default:
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.deps.Payments.Update(ctx, p); err != nil {
			return err
		}
		return s.record(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ExpireStale expires unpaid payments past their expiry. Each payment is expired
// in its own transaction so one failure does not hold back the rest.
func (s *PaymentService) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	stale, err := s.deps.Payments.FindExpired(ctx, now, s.options.SweepBatch)
	if err != nil {
		return 0, err
	}
	expired := 0
	for i := range stale {
		number := stale[i].Number
		err := s.deps.Tx.RunInTx(ctx, func(ctx context.Context) error {
			p, err := s.deps.Payments.FindByNumberForUpdate(ctx, number)
			if err != nil {
				return err
			}
			// a callback may have landed since the scan
			if !p.IsExpiredAt(now) {
				return nil
			}
			if err := p.Expire(now); err != nil {
				return err
			}
			if err := s.deps.Payments.Update(ctx, p); err != nil {
				return err
			}
			expired++
			return s.record(ctx, p)
		})
		if err != nil {
			s.logger.Warn("Failed to expire payment", zap.String("payment_number", number), zap.Error(err))
		}
	}
	return expired, nil
}

// load finds a payment the actor may see; customers only their own
func (s *PaymentService) load(ctx context.Context, actor identity.Actor, id uuid.UUID, staffOnly bool) (*payment.Payment, error) {
	p, err := s.deps.Payments.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	switch {
	case actor.CanManage(p.OrganizationID):
		return p, nil
	case staffOnly || !actor.IsCustomer():
		return nil, shared.ErrForbidden
	case !p.IsOwnedBy(actor.UserID):
		return nil, ErrPaymentNotFound
	}
	return p, nil
}

func (s *PaymentService) record(ctx context.Context, aggregates ...shared.AggregateRoot) error {
	events := shared.PullEvents(aggregates...)
	if len(events) == 0 || s.deps.Events == nil {
		return nil
	}
	return s.deps.Events.Record(ctx, events...)
}

func notFound(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return ErrPaymentNotFound
	}
	return err
}
