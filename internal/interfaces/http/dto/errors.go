package dto

import (
	"net/http"
	"strings"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeUnavailable is used when an optional subsystem is switched off
	ErrCodeUnavailable = "ERR_UNAVAILABLE"
)

// Validation error codes
const (
	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	ErrCodeValidationFormat   = "ERR_VALIDATION_FORMAT"
	ErrCodeValidationRange    = "ERR_VALIDATION_RANGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	// ErrCodeTokenRevoked is returned for tokens presented after logout
	ErrCodeTokenRevoked = "TOKEN_REVOKED"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
)

// Input error codes
const (
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:     http.StatusInternalServerError,
	ErrCodeInternal:    http.StatusInternalServerError,
	ErrCodeUnavailable: http.StatusServiceUnavailable,

	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeTokenRevoked: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	ErrCodeBusinessRule: http.StatusUnprocessableEntity,

	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// DomainCodeHTTPStatus maps queue, ticket, appointment and payment rule codes.
// Codes not listed fall back to the suffix rules of GetHTTPStatus.
var DomainCodeHTTPStatus = map[string]int{
	// identity
	"INVALID_CREDENTIALS":     http.StatusUnauthorized,
	"ACCOUNT_LOCKED":          http.StatusLocked,
	"ACCOUNT_INACTIVE":        http.StatusForbidden,
	"ORGANIZATION_REQUIRED":   http.StatusBadRequest,
	"STAFF_LIMIT_REACHED":     http.StatusUnprocessableEntity,
	"CANNOT_DEACTIVATE_SELF":  http.StatusUnprocessableEntity,
	"DUPLICATE_ACTIVE_TICKET": http.StatusConflict,

	// queues and tickets
	"QUEUE_EMPTY":              http.StatusNotFound,
	"QUEUE_FULL":               http.StatusConflict,
	"QUEUE_CLOSED":             http.StatusConflict,
	"ALREADY_PAUSED":           http.StatusConflict,
	"NOT_PAUSED":               http.StatusConflict,
	"SAME_QUEUE":               http.StatusUnprocessableEntity,
	"CROSS_ORGANIZATION":       http.StatusUnprocessableEntity,
	"MAX_EXTENSIONS_REACHED":   http.StatusUnprocessableEntity,
	"ORGANIZATION_UNAVAILABLE": http.StatusConflict,
	"SERVICE_UNAVAILABLE":      http.StatusConflict,
	"SERVICE_INACTIVE":         http.StatusConflict,

	// appointments
	"APPOINTMENTS_NOT_ALLOWED": http.StatusUnprocessableEntity,
	"TOO_SOON":                 http.StatusUnprocessableEntity,
	"TOO_FAR":                  http.StatusUnprocessableEntity,
	"NOT_TODAY":                http.StatusUnprocessableEntity,
	"TOO_LATE_TO_CANCEL":       http.StatusUnprocessableEntity,
	"TOO_LATE_TO_RESCHEDULE":   http.StatusUnprocessableEntity,
	"NO_OPEN_QUEUE":            http.StatusConflict,
	"NOT_AWAITING_PAYMENT":     http.StatusConflict,

	// payments
	"ALREADY_PAID":           http.StatusConflict,
	"AMOUNT_OUT_OF_RANGE":    http.StatusUnprocessableEntity,
	"AMOUNT_MISMATCH":        http.StatusUnprocessableEntity,
	"CASH_ONLY":              http.StatusForbidden,
	"NOT_CASH":               http.StatusUnprocessableEntity,
	"UNKNOWN_PROVIDER":       http.StatusBadRequest,
	"PROVIDER_DISABLED":      http.StatusUnprocessableEntity,
	"INVALID_SIGNATURE":      http.StatusUnauthorized,
	"MALFORMED_CALLBACK":     http.StatusBadRequest,
	"CALLBACK_NOT_SUPPORTED": http.StatusBadRequest,
	"GATEWAY_UNAVAILABLE":    http.StatusBadGateway,
	"GATEWAY_REQUEST_FAILED": http.StatusBadGateway,

	// printing
	"PRINTING_DISABLED": http.StatusServiceUnavailable,
	"RENDER_FAILED":     http.StatusInternalServerError,
	"RENDER_TIMEOUT":    http.StatusGatewayTimeout,

	"RATE_LIMIT_EXCEEDED": http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes ending in _NOT_FOUND map to 404, INVALID_ prefixes to 400
// and everything else to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if status, ok := DomainCodeHTTPStatus[code]; ok {
		return status
	}
	switch {
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	case strings.HasPrefix(code, "INVALID_"):
		return http.StatusBadRequest
	case strings.HasPrefix(code, "ALREADY_"):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps the generic domain error codes to ERR_* codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"INVALID_TRANSITION":   ErrCodeInvalidState,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,
}

// NormalizeErrorCode converts a generic error code to the ERR_* format.
// Specific codes such as QUEUE_FULL pass through unchanged.
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
