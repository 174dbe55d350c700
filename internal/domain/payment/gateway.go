package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// CallbackStatus is the outcome a provider reports in its callback
type CallbackStatus string

const (
	CallbackCompleted CallbackStatus = "completed"
	CallbackFailed    CallbackStatus = "failed"
	CallbackPending   CallbackStatus = "pending"
)

// CheckoutRequest asks a provider to collect a payment
type CheckoutRequest struct {
	PaymentNumber string
	Amount        decimal.Decimal
	PayerPhone    string
	Description   string
	CallbackURL   string
}

// CheckoutResponse is the provider's answer to a checkout request
type CheckoutResponse struct {
	Reference   string
	CheckoutURL string
}

// Callback is a verified provider notification
type Callback struct {
	Provider      Provider
	PaymentNumber string
	TransactionID string
	Status        CallbackStatus
	Amount        decimal.Decimal
	ErrorMessage  string
	RawPayload    []byte
}

// Gateway is the port to one payment operator
type Gateway interface {
	Provider() Provider
	// CreateCheckout asks the operator to collect the payment
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error)
	// VerifyCallback checks the signature of a raw callback body and parses it
	VerifyCallback(ctx context.Context, payload []byte, signature string) (*Callback, error)
	// CallbackResponse is the body the operator expects in reply to its callback
	CallbackResponse(success bool, message string) []byte
}
