package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	CodeNotFound               = "NOT_FOUND"
	CodeValidation             = "VALIDATION_ERROR"
	CodeConflict               = "CONFLICT"
	CodeInternal               = "INTERNAL_ERROR"
	CodeInvalidInput           = "INVALID_INPUT"
	CodeTimeout                = "TIMEOUT"
	CodeSlotFull               = "SLOT_FULL"
	CodeSlotRejected           = "SLOT_REJECTED"
	CodeTemporarilyUnavailable = "TEMPORARILY_UNAVAILABLE"
	CodeUpstreamUnavailable    = "UPSTREAM_UNAVAILABLE"
	CodeDuplicateInFlight      = "DUPLICATE_IN_FLIGHT"
)

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Retryable  bool           `json:"retryable,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func (e *AppError) ToJSON() []byte {
	data, _ := json.Marshal(ErrorResponse{
		Code:      e.Code,
		Message:   e.Message,
		Details:   e.Details,
		Retryable: e.Retryable,
	})
	return data
}

type ErrorResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Retryable bool           `json:"retryable,omitempty"`
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

func NotFoundWithID(resource, id string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func Validation(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    details,
	}
}

func InvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func Timeout(message string) *AppError {
	return &AppError{
		Code:       CodeTimeout,
		Message:    message,
		HTTPStatus: http.StatusGatewayTimeout,
	}
}

// SlotFull means the slot cannot take the requested participant count.
// Retrying with the same intent will not succeed.
func SlotFull(slotID string, requested, remaining int) *AppError {
	return &AppError{
		Code:       CodeSlotFull,
		Message:    "Not enough places left in this slot",
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"slot_id":   slotID,
			"requested": requested,
			"remaining": remaining,
		},
	}
}

// SlotRejected means the calendar provider permanently refused the slot,
// e.g. the slot no longer exists.
func SlotRejected(slotID, reason string) *AppError {
	return &AppError{
		Code:       CodeSlotRejected,
		Message:    "The calendar provider rejected this slot",
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"slot_id": slotID,
			"reason":  reason,
		},
	}
}

// TemporarilyUnavailable means the commit could not reach the provider.
// The client may retry with the same request token.
func TemporarilyUnavailable(message string, err error) *AppError {
	return &AppError{
		Code:       CodeTemporarilyUnavailable,
		Message:    message,
		HTTPStatus: http.StatusServiceUnavailable,
		Retryable:  true,
		Err:        err,
	}
}

// UpstreamUnavailable means availability could not be determined at all:
// the provider is down and no usable snapshot exists.
func UpstreamUnavailable(message string, err error) *AppError {
	return &AppError{
		Code:       CodeUpstreamUnavailable,
		Message:    message,
		HTTPStatus: http.StatusServiceUnavailable,
		Retryable:  true,
		Err:        err,
	}
}

// DuplicateInFlight means another submission with the same token is still
// committing; the client should retry shortly with the same token.
func DuplicateInFlight(token string) *AppError {
	return &AppError{
		Code:       CodeDuplicateInFlight,
		Message:    "A booking with this request token is already in progress",
		HTTPStatus: http.StatusConflict,
		Retryable:  true,
		Details: map[string]any{
			"request_token": token,
		},
	}
}

func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

func AsAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code string) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Code == code
}
