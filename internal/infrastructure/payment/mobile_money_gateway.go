package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smartqueue/backend/internal/domain/payment"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body
const SignatureHeader = "X-Signature"

// MobileMoneyConfig configures one online operator
type MobileMoneyConfig struct {
	Provider payment.Provider
	// Secret signs checkout requests and verifies callbacks
	Secret string
	// CheckoutURL is the operator's checkout endpoint; empty runs in sandbox mode
	CheckoutURL string
	Timeout     time.Duration
}

// Validate validates the configuration
func (c MobileMoneyConfig) Validate() error {
	if !c.Provider.IsValid() {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, c.Provider)
	}
	if c.Secret == "" {
		return fmt.Errorf("%w: %s", ErrMissingSecret, c.Provider)
	}
	return nil
}

// MobileMoneyGateway talks to Wave, Orange Money and the other operators that
// confirm payments with an HMAC-SHA256 signed JSON callback
type MobileMoneyGateway struct {
	config     MobileMoneyConfig
	httpClient *http.Client
	now        func() time.Time
}

// NewMobileMoneyGateway creates a gateway for one operator
func NewMobileMoneyGateway(config MobileMoneyConfig) (*MobileMoneyGateway, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &MobileMoneyGateway{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		now:        time.Now,
	}, nil
}

// Provider returns the operator
func (g *MobileMoneyGateway) Provider() payment.Provider {
	return g.config.Provider
}

type checkoutBody struct {
	Reference   string `json:"reference"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Phone       string `json:"phone"`
	Description string `json:"description"`
	CallbackURL string `json:"callback_url"`
}

type checkoutReply struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkout_url"`
	Error       string `json:"error"`
}

// CreateCheckout sends a signed checkout request to the operator
func (g *MobileMoneyGateway) CreateCheckout(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutResponse, error) {
	if req.PaymentNumber == "" || !req.Amount.IsPositive() {
		return nil, ErrInvalidCheckout
	}
	if g.config.CheckoutURL == "" {
		return &payment.CheckoutResponse{
			Reference: fmt.Sprintf("%s-%s", strings.ToUpper(string(g.config.Provider)), req.PaymentNumber),
		}, nil
	}

	body, err := json.Marshal(checkoutBody{
		Reference:   req.PaymentNumber,
		Amount:      req.Amount.StringFixed(0),
		Currency:    "XOF",
		Phone:       req.PayerPhone,
		Description: req.Description,
		CallbackURL: req.CallbackURL,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to marshal checkout: %w", g.config.Provider, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.CheckoutURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", g.config.Provider, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(SignatureHeader, Sign(g.config.Secret, body))

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", g.config.Provider, err)
	}

	var reply checkoutReply
	_ = json.Unmarshal(respBody, &reply)
	if resp.StatusCode >= 400 {
		if reply.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrGatewayRequestFailed, reply.Error)
		}
		return nil, fmt.Errorf("%w: HTTP %d", ErrGatewayRequestFailed, resp.StatusCode)
	}
	if reply.ID == "" {
		return nil, fmt.Errorf("%w: missing checkout id", ErrGatewayRequestFailed)
	}

	return &payment.CheckoutResponse{Reference: reply.ID, CheckoutURL: reply.CheckoutURL}, nil
}

type callbackBody struct {
	PaymentNumber string          `json:"payment_number"`
	TransactionID string          `json:"transaction_id"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	ErrorMessage  string          `json:"error_message"`
}

// VerifyCallback checks the HMAC-SHA256 signature of the raw body and parses it
func (g *MobileMoneyGateway) VerifyCallback(ctx context.Context, body []byte, signature string) (*payment.Callback, error) {
	if !Verify(g.config.Secret, body, signature) {
		return nil, ErrInvalidSignature
	}

	var cb callbackBody
	if err := json.Unmarshal(body, &cb); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCallback, err)
	}
	if cb.PaymentNumber == "" || cb.TransactionID == "" {
		return nil, fmt.Errorf("%w: payment_number and transaction_id are required", ErrMalformedCallback)
	}

	return &payment.Callback{
		Provider:      g.config.Provider,
		PaymentNumber: cb.PaymentNumber,
		TransactionID: cb.TransactionID,
		Status:        MapStatus(cb.Status),
		Amount:        cb.Amount,
		ErrorMessage:  cb.ErrorMessage,
		RawPayload:    body,
	}, nil
}

// CallbackResponse is the JSON acknowledgement the operators expect
func (g *MobileMoneyGateway) CallbackResponse(success bool, message string) []byte {
	data, _ := json.Marshal(map[string]any{"success": success, "message": message})
	return data
}

// MapStatus maps an operator status string to a callback status
func MapStatus(status string) payment.CallbackStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "completed", "success", "successful", "succeeded", "paid":
		return payment.CallbackCompleted
	case "failed", "failure", "error", "cancelled", "canceled", "declined", "expired":
		return payment.CallbackFailed
	default:
		return payment.CallbackPending
	}
}

// Sign returns the hex HMAC-SHA256 of body
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares signature with the HMAC of body in constant time.
// An optional "sha256=" prefix is accepted.
func Verify(secret string, body []byte, signature string) bool {
	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	got, err := hex.DecodeString(signature)
	if err != nil || len(got) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

var _ payment.Gateway = (*MobileMoneyGateway)(nil)
