package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smartqueue/backend/internal/domain/payment"
)

// InitiatePaymentRequest represents a request to start a payment
type InitiatePaymentRequest struct {
	OrganizationID uuid.UUID       `json:"organization_id" binding:"required"`
	Type           string          `json:"payment_type" binding:"required,oneof=ticket_fee appointment_fee service_fee penalty_fee subscription_fee other"`
	Provider       string          `json:"provider" binding:"required,oneof=wave orange_money free_money wizall wari postefinance bank_transfer cash"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	PayerPhone     string          `json:"payer_phone" binding:"omitempty,sn_phone"`
	TicketID       *uuid.UUID      `json:"ticket_id"`
	AppointmentID  *uuid.UUID      `json:"appointment_id"`
	QueueID        *uuid.UUID      `json:"queue_id"`
	Description    string          `json:"description" binding:"max=500"`
}

// PaymentListFilter narrows payment listings
type PaymentListFilter struct {
	Page           int        `form:"page" binding:"omitempty,min=1"`
	PageSize       int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search         string     `form:"search"`
	OrderBy        string     `form:"order_by"`
	OrderDir       string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	OrganizationID *uuid.UUID `form:"-"`
	Status         string     `form:"status" binding:"omitempty,oneof=pending processing completed failed cancelled refunded expired"`
	Provider       string     `form:"provider"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID                uuid.UUID       `json:"id"`
	OrganizationID    uuid.UUID       `json:"organization_id"`
	PaymentNumber     string          `json:"payment_number"`
	CustomerID        uuid.UUID       `json:"customer_id"`
	PayerPhone        string          `json:"payer_phone"`
	PaymentType       string          `json:"payment_type"`
	Provider          string          `json:"provider"`
	Amount            decimal.Decimal `json:"amount"`
	Fees              decimal.Decimal `json:"fees"`
	Total             decimal.Decimal `json:"total"`
	Status            string          `json:"status"`
	TicketID          *uuid.UUID      `json:"ticket_id,omitempty"`
	AppointmentID     *uuid.UUID      `json:"appointment_id,omitempty"`
	QueueID           *uuid.UUID      `json:"queue_id,omitempty"`
	Description       string          `json:"description,omitempty"`
	ExternalReference string          `json:"external_reference,omitempty"`
	CheckoutURL       string          `json:"checkout_url,omitempty"`
	FailureReason     string          `json:"failure_reason,omitempty"`
	ExpiresAt         time.Time       `json:"expires_at"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
	FailedAt          *time.Time      `json:"failed_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ToPaymentResponse converts a domain payment to a response
func ToPaymentResponse(p *payment.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                p.ID,
		OrganizationID:    p.OrganizationID,
		PaymentNumber:     p.Number,
		CustomerID:        p.CustomerID,
		PayerPhone:        p.PayerPhone,
		PaymentType:       string(p.Type),
		Provider:          string(p.Provider),
		Amount:            p.Amount,
		Fees:              p.Fees,
		Total:             p.Total,
		Status:            string(p.Status),
		TicketID:          p.TicketID,
		AppointmentID:     p.AppointmentID,
		QueueID:           p.QueueID,
		Description:       p.Description,
		ExternalReference: p.ExternalReference,
		CheckoutURL:       p.CheckoutURL,
		FailureReason:     p.FailureReason,
		ExpiresAt:         p.ExpiresAt,
		CompletedAt:       p.CompletedAt,
		FailedAt:          p.FailedAt,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// ProviderResponse describes an enabled payment provider and its terms
type ProviderResponse struct {
	Provider    string          `json:"provider"`
	DisplayName string          `json:"display_name"`
	MinAmount   decimal.Decimal `json:"min_amount"`
	MaxAmount   decimal.Decimal `json:"max_amount"`
	FixedFee    decimal.Decimal `json:"fixed_fee"`
	PercentFee  decimal.Decimal `json:"percent_fee"`
	Online      bool            `json:"online"`
}

// CallbackResult is the outcome of a provider callback
type CallbackResult struct {
	Payment   *PaymentResponse
	Duplicate bool
	// Reply is the body the provider expects back
	Reply []byte
}
