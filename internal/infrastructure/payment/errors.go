package payment

import (
	"errors"

	"github.com/smartqueue/backend/internal/domain/shared"
)

var (
	ErrUnknownProvider = errors.New("payment: unknown provider")
	ErrMissingSecret   = errors.New("payment: missing provider secret")

	// ErrGatewayUnavailable is returned when the operator cannot be reached
	ErrGatewayUnavailable = shared.NewDomainError("GATEWAY_UNAVAILABLE", "Payment provider is unavailable")
	// ErrGatewayRequestFailed is returned when the operator rejects a request
	ErrGatewayRequestFailed = shared.NewDomainError("GATEWAY_REQUEST_FAILED", "Payment provider rejected the request")

	ErrInvalidCheckout      = shared.NewDomainError("INVALID_CHECKOUT", "Checkout needs a payment number and a positive amount")
	ErrInvalidSignature     = shared.NewDomainError("INVALID_SIGNATURE", "Callback signature is invalid")
	ErrMalformedCallback    = shared.NewDomainError("MALFORMED_CALLBACK", "Callback payload is malformed")
	ErrCallbackNotSupported = shared.NewDomainError("CALLBACK_NOT_SUPPORTED", "Provider does not send callbacks")
	ErrProviderDisabled     = shared.NewDomainError("PROVIDER_DISABLED", "Payment provider is not enabled")
)
