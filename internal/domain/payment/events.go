package payment

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartqueue/backend/internal/domain/shared"
)

// AggregateTypePayment is the aggregate type of payment events
const AggregateTypePayment = "Payment"

// Event type constants
const (
	EventTypePaymentCompleted = "PaymentCompleted"
	EventTypePaymentFailed    = "PaymentFailed"
)

// PaymentInfo is the payment snapshot carried by payment events
type PaymentInfo struct {
	PaymentID     uuid.UUID       `json:"payment_id"`
	PaymentNumber string          `json:"payment_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	PayerPhone    string          `json:"payer_phone"`
	PaymentType   Type            `json:"payment_type"`
	Provider      Provider        `json:"provider"`
	Amount        decimal.Decimal `json:"amount"`
	Total         decimal.Decimal `json:"total"`
	Status        Status          `json:"status"`
	TicketID      *uuid.UUID      `json:"ticket_id,omitempty"`
	AppointmentID *uuid.UUID      `json:"appointment_id,omitempty"`
	QueueID       *uuid.UUID      `json:"queue_id,omitempty"`
}

func paymentInfo(p *Payment) PaymentInfo {
	return PaymentInfo{
		PaymentID:     p.ID,
		PaymentNumber: p.Number,
		CustomerID:    p.CustomerID,
		PayerPhone:    p.PayerPhone,
		PaymentType:   p.Type,
		Provider:      p.Provider,
		Amount:        p.Amount,
		Total:         p.Total,
		Status:        p.Status,
		TicketID:      p.TicketID,
		AppointmentID: p.AppointmentID,
		QueueID:       p.QueueID,
	}
}

// PaymentCompletedEvent is raised when a payment is confirmed by its provider.
// Handlers mark the linked ticket paid, confirm the linked appointment or issue a ticket.
type PaymentCompletedEvent struct {
	shared.BaseDomainEvent
	PaymentInfo
	ExternalReference string `json:"external_reference,omitempty"`
}

// NewPaymentCompletedEvent creates a new PaymentCompletedEvent
func NewPaymentCompletedEvent(p *Payment) *PaymentCompletedEvent {
	return &PaymentCompletedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypePaymentCompleted, AggregateTypePayment, p.ID, p.OrganizationID),
		PaymentInfo:       paymentInfo(p),
		ExternalReference: p.ExternalReference,
	}
}

// PaymentFailedEvent is raised when a payment fails or expires
type PaymentFailedEvent struct {
	shared.BaseDomainEvent
	PaymentInfo
	Reason string `json:"reason"`
}

// NewPaymentFailedEvent creates a new PaymentFailedEvent
func NewPaymentFailedEvent(p *Payment) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentFailed, AggregateTypePayment, p.ID, p.OrganizationID),
		PaymentInfo:     paymentInfo(p),
		Reason:          p.FailureReason,
	}
}
