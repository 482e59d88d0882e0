// Package httpx provides HTTP response utilities: RFC7807 problem details
// for transport-level failures and the report envelope returned by every
// statement endpoint.
package httpx

import (
	"encoding/json"
	"net/http"
)

// ProblemDetail represents RFC7807 problem details.
type ProblemDetail struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Envelope wraps every report payload. Builders never leak errors past this
// boundary: failures surface as success=false with a message and the error
// string, nothing else.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Problem sends an RFC7807 problem details response. Used for malformed
// requests that never reach a builder.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	JSON(w, status, ProblemDetail{
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// Report sends a successful report envelope.
func Report(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// ReportError sends a failed report envelope. The message names the builder
// that failed; the error carries the service-layer error string verbatim and
// nothing beyond it.
func ReportError(w http.ResponseWriter, builder string, err error) {
	JSON(w, http.StatusInternalServerError, Envelope{
		Success: false,
		Message: builder + " Error",
		Error:   err.Error(),
	})
}

// DecodeJSON decodes a JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
