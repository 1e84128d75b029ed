// Package errors defines the error values the browse service reports to
// clients and how each maps onto an HTTP response.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Codes carried in API error bodies.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeInvalidInput = "INVALID_INPUT"
	CodeInternal     = "INTERNAL_ERROR"
	CodeUnavailable  = "SERVICE_UNAVAILABLE"
	CodeUpstream     = "UPSTREAM_ERROR"
)

// Sentinels for errors.Is checks.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrServiceUnavail = errors.New("service unavailable")
	ErrUpstream       = errors.New("upstream error")
)

// AppError is an error with a client-facing code and message.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
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

// NotFound reports a missing resource, such as an expired session.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput reports a request the caller must change before retrying.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidInput,
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// ServiceUnavailable reports a dependency that is down.
func ServiceUnavailable(message string) *AppError {
	return &AppError{
		Code:    CodeUnavailable,
		Message: message,
		Status:  http.StatusServiceUnavailable,
		Err:     ErrServiceUnavail,
	}
}

// Upstream reports a failed call to another service.
func Upstream(service string, status int, message string) *AppError {
	return &AppError{
		Code:    CodeUpstream,
		Message: fmt.Sprintf("%s returned status %d: %s", service, status, message),
		Status:  http.StatusBadGateway,
		Err:     ErrUpstream,
	}
}

// kinds describes a bare or wrapped sentinel. An empty message means the
// error text is safe to show.
var kinds = []struct {
	sentinel error
	status   int
	code     string
	message  string
}{
	{ErrNotFound, http.StatusNotFound, CodeNotFound, "resource not found"},
	{ErrInvalidInput, http.StatusBadRequest, CodeInvalidInput, ""},
	{ErrServiceUnavail, http.StatusServiceUnavailable, CodeUnavailable, "a dependency is unavailable"},
	{ErrUpstream, http.StatusBadGateway, CodeUpstream, "the catalog service returned an error"},
}

// Describe returns the HTTP status, code and client-safe message for err.
// Anything unrecognised is an internal error whose text is withheld.
func Describe(err error) (status int, code, message string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status, appErr.Code, appErr.Message
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			if k.message == "" {
				return k.status, k.code, err.Error()
			}
			return k.status, k.code, k.message
		}
	}
	return http.StatusInternalServerError, CodeInternal, "an internal error occurred"
}

// HTTPStatus returns the HTTP status code for err.
func HTTPStatus(err error) int {
	status, _, _ := Describe(err)
	return status
}
