package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors shared by repositories and services. Repositories return
// these bare; services wrap them or promote them to an AppError.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")
	ErrRateLimited   = errors.New("rate limited")
	ErrInternal      = errors.New("internal error")
)

// AppError is an error that knows how it should be rendered to an API client.
// Details carries machine-readable context such as countdowns or usage counts.
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Status  int            `json:"-"`
	Err     error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail returns a copy of e with key set in Details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	cp := *e
	cp.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

// New builds an AppError with an explicit code. The sentinel decides how
// errors.Is matches it; the status decides how it is rendered.
func New(code string, status int, sentinel error, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     sentinel,
	}
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return New("NOT_FOUND", http.StatusNotFound, ErrNotFound,
		fmt.Sprintf("%s with id %s not found", resource, id))
}

// AlreadyExists creates a 409 error.
func AlreadyExists(resource, field, value string) *AppError {
	return New("ALREADY_EXISTS", http.StatusConflict, ErrAlreadyExists,
		fmt.Sprintf("%s with %s %q already exists", resource, field, value))
}

// Conflict creates a 409 error with a caller-supplied code.
func Conflict(code, message string) *AppError {
	return New(code, http.StatusConflict, ErrConflict, message)
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return New("INVALID_INPUT", http.StatusBadRequest, ErrInvalidInput, message)
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return New("UNAUTHORIZED", http.StatusUnauthorized, ErrUnauthorized, message)
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return New("FORBIDDEN", http.StatusForbidden, ErrForbidden, message)
}

// TooManyRequests creates a 429 error.
func TooManyRequests(code, message string) *AppError {
	return New(code, http.StatusTooManyRequests, ErrRateLimited, message)
}

// Internal creates a 500 error hiding the cause from the client.
func Internal(err error) *AppError {
	return New("INTERNAL_ERROR", http.StatusInternalServerError, err, "an internal error occurred")
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the machine-readable code of err, or "" if err is not an AppError.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
