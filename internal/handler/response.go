package handler

// RESPONSE HELPERS:
// Form handlers answer errors with a short plain-text body; the JSON
// endpoints answer with ErrorResponse. Both go through statusFor so a given
// domain error always maps to the same status code.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/tasklist/internal/apperror"
)

// ErrorResponse is the error shape of the JSON endpoints:
//
//	{"error": "not_found", "message": "item not found with id abc123"}
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"` // Human-readable description
}

// statusFor maps a domain error to an HTTP status, an error type and a
// client-safe message. Unknown errors become a generic 500; their text may
// contain SQL or file paths and is never sent to the client.
func statusFor(err error) (status int, errorType, message string) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		switch {
		case errors.Is(err, apperror.ErrValidation):
			return http.StatusBadRequest, "validation_error", appErr.Message
		case errors.Is(err, apperror.ErrNotFound):
			return http.StatusNotFound, "not_found", appErr.Message
		case errors.Is(err, apperror.ErrForbidden):
			return http.StatusForbidden, "forbidden", appErr.Message
		}
	}
	return http.StatusInternalServerError, "internal_error", "An internal error occurred"
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be written before the body.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError sends a JSON error response for err.
func writeError(w http.ResponseWriter, err error) {
	status, errorType, message := statusFor(err)
	writeJSON(w, status, ErrorResponse{
		Error:   errorType,
		Message: message,
	})
}

// writeFormError answers a failed form submission. 5xx errors are logged
// with their full detail; 4xx errors are the client's problem and only
// logged at debug.
func writeFormError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, _, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	} else {
		logger.Debug("request rejected",
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.String("reason", message),
		)
	}
	http.Error(w, message, status)
}

// FormErrorWriter adapts writeFormError for middleware that rejects requests
// before they reach a handler (see csrf.Protect).
func FormErrorWriter(logger *slog.Logger) func(http.ResponseWriter, *http.Request, error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		writeFormError(w, r, logger, err)
	}
}
