package payment

import (
	"context"
	"encoding/json"

	"github.com/smartqueue/backend/internal/domain/payment"
)

// CashGateway records payments collected at the counter. Staff complete them
// by hand, so there is no checkout page and no callback.
type CashGateway struct{}

// NewCashGateway creates the cash gateway
func NewCashGateway() *CashGateway {
	return &CashGateway{}
}

// Provider returns payment.ProviderCash
func (g *CashGateway) Provider() payment.Provider {
	return payment.ProviderCash
}

// CreateCheckout returns a counter reference
func (g *CashGateway) CreateCheckout(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutResponse, error) {
	if req.PaymentNumber == "" || !req.Amount.IsPositive() {
		return nil, ErrInvalidCheckout
	}
	return &payment.CheckoutResponse{Reference: "CASH-" + req.PaymentNumber}, nil
}

// VerifyCallback always fails
func (g *CashGateway) VerifyCallback(ctx context.Context, body []byte, signature string) (*payment.Callback, error) {
	return nil, ErrCallbackNotSupported
}

// CallbackResponse renders a JSON acknowledgement
func (g *CashGateway) CallbackResponse(success bool, message string) []byte {
	data, _ := json.Marshal(map[string]any{"success": success, "message": message})
	return data
}

var _ payment.Gateway = (*CashGateway)(nil)
