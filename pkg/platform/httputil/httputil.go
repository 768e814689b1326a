// Package httputil centralizes JSON encoding and domain-error translation for
// HTTP handlers so every endpoint returns the same error envelope.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "gatepass/pkg/domain-errors"
)

// WriteJSON encodes v with the given status. Encoding failures are ignored;
// the status line has already been committed.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the shared error envelope.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, ToHTTPStatus(code), map[string]string{
		"error":             string(code),
		"error_description": dErrors.MessageOf(err),
	})
}

// ToHTTPStatus maps domain error codes onto HTTP status codes.
func ToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict, dErrors.CodeInvariantViolation:
		return http.StatusConflict
	case dErrors.CodeFailedPrecondition:
		return http.StatusUnprocessableEntity
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Decode reads a JSON body into T, rejecting unknown fields. The boolean
// result signals whether the handler should continue; on failure the error
// response has already been written.
func Decode[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (T, bool) {
	var req T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if logger != nil {
			logger.WarnContext(r.Context(), "malformed request body", "error", err)
		}
		WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "malformed JSON body"))
		return req, false
	}
	return req, true
}
