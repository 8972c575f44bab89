package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// FieldError is a backend field-scoped error ({path, message}) attached to
// a request failure.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

type AppError struct {
	Code    string
	Message string
	Status  int
	Fields  []FieldError
	Err     error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// Validation is a client-detected precondition failure. It is surfaced to
// the user immediately and never sent to the backend.
func Validation(message string) *AppError {
	return &AppError{
		Code:    "VALIDATION_ERROR",
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// Transport marks a realtime-connection failure. These stay in the logs
// unless reconnection is exhausted.
func Transport(message string, err error) *AppError {
	return &AppError{
		Code:    "TRANSPORT_ERROR",
		Message: message,
		Status:  http.StatusServiceUnavailable,
		Err:     err,
	}
}

// Request wraps a backend rejection (non-2xx). Field-scoped details, when
// present, ride along in Fields.
func Request(message string, status int, fields []FieldError) *AppError {
	return &AppError{
		Code:    "REQUEST_ERROR",
		Message: message,
		Status:  status,
		Fields:  fields,
	}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    "BAD_REQUEST",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

func Forbidden(message string, err error) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// UserMessage extracts the message a toast should show: the backend's
// structured message when present, otherwise the given fallback.
func UserMessage(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
