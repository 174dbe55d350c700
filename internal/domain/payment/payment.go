package payment

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartqueue/backend/internal/domain/shared"
)

// Type is what the payment is for
type Type string

const (
	TypeTicketFee       Type = "ticket_fee"
	TypeAppointmentFee  Type = "appointment_fee"
	TypeServiceFee      Type = "service_fee"
	TypePenaltyFee      Type = "penalty_fee"
	TypeSubscriptionFee Type = "subscription_fee"
	TypeOther           Type = "other"
)

// IsValid checks if the payment type is valid
func (t Type) IsValid() bool {
	switch t {
	case TypeTicketFee, TypeAppointmentFee, TypeServiceFee, TypePenaltyFee, TypeSubscriptionFee, TypeOther:
		return true
	}
	return false
}

// Status is the lifecycle status of a payment
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
	StatusExpired    Status = "expired"
)

// IsFinal reports whether the payment can no longer change, refunds aside
func (s Status) IsFinal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusRefunded, StatusExpired:
		return true
	}
	return false
}

const (
	// DefaultExpiry is how long a payment can stay unpaid
	DefaultExpiry = 24 * time.Hour
	ExpiredReason = "Paiement expiré"
)

// Payment is a mobile money, bank or cash payment by a customer
type Payment struct {
	shared.OrgAggregateRoot
	Number            string
	CustomerID        uuid.UUID
	PayerPhone        string
	Type              Type
	Provider          Provider
	Amount            decimal.Decimal
	Fees              decimal.Decimal
	Total             decimal.Decimal
	Status            Status
	TicketID          *uuid.UUID
	AppointmentID     *uuid.UUID
	QueueID           *uuid.UUID
	Description       string
	ExternalReference string
	CheckoutURL       string
	FailureReason     string
	ExpiresAt         time.Time
	CompletedAt       *time.Time
	FailedAt          *time.Time
}

// NewPaymentInput carries what a customer asks to pay
type NewPaymentInput struct {
	OrganizationID uuid.UUID
	CustomerID     uuid.UUID
	PayerPhone     string
	Type           Type
	Provider       Provider
	Amount         decimal.Decimal
	TicketID       *uuid.UUID
	AppointmentID  *uuid.UUID
	QueueID        *uuid.UUID
	Description    string
}

// GenerateNumber builds a payment number such as PAY1710489600K3F
func GenerateNumber(now time.Time) string {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	suffix := make([]byte, 3)
	for i := range suffix {
		suffix[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return fmt.Sprintf("PAY%d%s", now.Unix(), suffix)
}

// NewPayment validates the amount against the provider terms and computes fees
func NewPayment(in NewPaymentInput, now time.Time) (*Payment, error) {
	if !in.Type.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_TYPE", "Invalid payment type")
	}
	t, err := Terms(in.Provider)
	if err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if !t.Accepts(in.Amount) {
		return nil, shared.NewDomainErrorf("AMOUNT_OUT_OF_RANGE", "%s accepts amounts between %s and %s FCFA",
			t.DisplayName, t.MinAmount.String(), t.MaxAmount.String())
	}
	if in.TicketID != nil && in.AppointmentID != nil {
		return nil, shared.NewDomainError("INVALID_LINK", "A payment is linked to a ticket or an appointment, not both")
	}

	fees := t.Fees(in.Amount)
	p := &Payment{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(in.OrganizationID),
		Number:           GenerateNumber(now),
		CustomerID:       in.CustomerID,
		PayerPhone:       in.PayerPhone,
		Type:             in.Type,
		Provider:         in.Provider,
		Amount:           in.Amount,
		Fees:             fees,
		Total:            in.Amount.Add(fees),
		Status:           StatusPending,
		TicketID:         in.TicketID,
		AppointmentID:    in.AppointmentID,
		QueueID:          in.QueueID,
		Description:      in.Description,
		ExpiresAt:        now.Add(DefaultExpiry),
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return p, nil
}

// IsOwnedBy reports whether the customer made this payment
func (p *Payment) IsOwnedBy(customerID uuid.UUID) bool {
	return p.CustomerID == customerID
}

// IsExpiredAt reports whether an unpaid payment passed its expiry
func (p *Payment) IsExpiredAt(now time.Time) bool {
	return (p.Status == StatusPending || p.Status == StatusProcessing) && now.After(p.ExpiresAt)
}

// StartProcessing records the checkout reference returned by the gateway
func (p *Payment) StartProcessing(reference, checkoutURL string) error {
	if p.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot process payment in %s status", p.Status))
	}
	p.Status = StatusProcessing
	p.ExternalReference = reference
	p.CheckoutURL = checkoutURL
	p.Touch()
	return nil
}

// Complete marks the payment as paid
func (p *Payment) Complete(externalReference string, now time.Time) error {
	if p.Status.IsFinal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete payment in %s status", p.Status))
	}
	p.Status = StatusCompleted
	p.CompletedAt = &now
	if externalReference != "" {
		p.ExternalReference = externalReference
	}
	p.UpdatedAt = now
	p.AddDomainEvent(NewPaymentCompletedEvent(p))
	return nil
}

// Fail marks the payment as failed
func (p *Payment) Fail(reason string, now time.Time) error {
	if p.Status.IsFinal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot fail payment in %s status", p.Status))
	}
	p.Status = StatusFailed
	p.FailedAt = &now
	p.FailureReason = reason
	p.UpdatedAt = now
	p.AddDomainEvent(NewPaymentFailedEvent(p))
	return nil
}

// Cancel cancels a payment not yet paid
func (p *Payment) Cancel(now time.Time) error {
	if p.Status != StatusPending && p.Status != StatusProcessing {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel payment in %s status", p.Status))
	}
	p.Status = StatusCancelled
	p.UpdatedAt = now
	return nil
}

// Expire expires an unpaid payment past its expiry time
func (p *Payment) Expire(now time.Time) error {
	if !p.IsExpiredAt(now) {
		return shared.NewDomainError("NOT_EXPIRED", "Payment has not expired")
	}
	p.Status = StatusExpired
	p.FailureReason = ExpiredReason
	p.UpdatedAt = now
	p.AddDomainEvent(NewPaymentFailedEvent(p))
	return nil
}

// Refund refunds a completed payment
func (p *Payment) Refund(now time.Time) error {
	if p.Status != StatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Only completed payments can be refunded")
	}
	p.Status = StatusRefunded
	p.UpdatedAt = now
	return nil
}

// LinkTicket links a ticket issued for this payment
func (p *Payment) LinkTicket(ticketID uuid.UUID) {
	p.TicketID = &ticketID
	p.Touch()
}
