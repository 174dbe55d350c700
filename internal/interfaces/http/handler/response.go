package handler

import (
	"github.com/smartqueue/backend/internal/interfaces/http/dto"
)

// Envelopes below only feed the generated OpenAPI document; handlers write dto.Response.

// APIResponse is the success envelope with a typed data field
// @Description Success envelope
type APIResponse[T any] struct {
	Success bool           `json:"success" example:"true"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse is the failure envelope
// @Description Failure envelope; error.code is stable, error.message is for humans
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error"`
}

// CountData wraps a bare count
type CountData struct {
	Count int64 `json:"count" example:"3"`
}

// MessageData carries a confirmation shown to the user
type MessageData struct {
	Message string `json:"message" example:"Logged out"`
}
