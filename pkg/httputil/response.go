// Package httputil writes the browse API's JSON envelopes.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/utafrali/storefront-browse/pkg/errors"
	"github.com/utafrali/storefront-browse/pkg/logger"
	"github.com/utafrali/storefront-browse/pkg/validator"
)

// Response is the standard JSON response envelope.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is the body of a failed request. RequestID echoes the
// correlation id so a shopper's report can be matched to the logs.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to a status and error body. Server-side failures are
// logged with the request-scoped logger, or fallback when there is none.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	status, code, message := apperrors.Describe(err)

	if status >= http.StatusInternalServerError {
		l := logger.FromContext(r.Context())
		if l == slog.Default() && fallback != nil {
			l = fallback
		}
		level := slog.LevelWarn
		if status == http.StatusInternalServerError {
			level = slog.LevelError
		}
		l.Log(r.Context(), level, "request failed",
			slog.String("code", code),
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, status, Response{Error: &ErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: logger.CorrelationIDFromContext(r.Context()),
	}})
}

// WriteValidationError writes a 400. A *validator.ValidationError lists the
// offending fields; any other error is reported by its text.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, Response{Error: &ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "request validation failed",
			Fields:  valErr.Fields(),
		}})
		return
	}
	WriteJSON(w, http.StatusBadRequest, Response{Error: &ErrorResponse{
		Code:    apperrors.CodeInvalidInput,
		Message: err.Error(),
	}})
}

// ParseUUID parses a path parameter as a UUID. On failure it writes a 400
// with code INVALID_PARAMETER and returns false.
func ParseUUID(w http.ResponseWriter, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(param)
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, Response{Error: &ErrorResponse{
			Code:    "INVALID_PARAMETER",
			Message: "invalid UUID: " + param,
		}})
		return uuid.Nil, false
	}
	return id, true
}
