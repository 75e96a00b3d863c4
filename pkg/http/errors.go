package http

import (
	"fmt"
	"net/http"
)

// AppError is a caller-facing failure: a stable code, the request field it
// concerns and the HTTP status it is served with. Upstream source failures
// never become an AppError; they are answered with synthetic data instead.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, field, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Field: field, Status: status}
}

// WithError wraps an underlying error.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// RequestError is a 400 about field, carrying err's text.
func RequestError(code, field string, err error) *AppError {
	return NewAppError(code, field, err.Error(), http.StatusBadRequest).WithError(err)
}

// MissingError is a 404 for an unknown catalog entry named by field.
func MissingError(code, field string, err error) *AppError {
	return NewAppError(code, field, err.Error(), http.StatusNotFound).WithError(err)
}

// UnavailableError is a 503 for a request that ended before a series was ready.
func UnavailableError(code, message string, err error) *AppError {
	return NewAppError(code, "", message, http.StatusServiceUnavailable).WithError(err)
}

// InternalError creates a 500 error.
func InternalError(message string) *AppError {
	return NewAppError("ERR_INTERNAL", "", message, http.StatusInternalServerError)
}
