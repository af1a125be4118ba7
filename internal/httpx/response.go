// Package httpx holds the JSON response helpers and the error-to-status mapping shared
// by every HTTP handler.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Error codes in the "error" field of every error body.
const (
	CodeBadRequest      = "bad_request"
	CodeUnauthorized    = "unauthorized"
	CodeForbidden       = "forbidden"
	CodeNotFound        = "not_found"
	CodeConflict        = "conflict"
	CodeTooManyRequests = "too_many_requests"
	CodeInternal        = "internal_error"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error      string   `json:"error"`
	Message    string   `json:"message"`
	Violations []string `json:"violations,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError writes an ErrorBody.
func WriteError(w http.ResponseWriter, status int, code, message string, violations []string) {
	JSON(w, status, ErrorBody{Error: code, Message: message, Violations: violations})
}

// Unauthorized writes the uniform 401 body.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, message, nil)
}

// InvalidCredentials writes the 401 body used by every login failure.
func InvalidCredentials(w http.ResponseWriter) {
	Unauthorized(w, "invalid credentials")
}
