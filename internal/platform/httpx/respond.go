// Package httpx carries the JSON conventions shared by every handler in
// the shop API: plain JSON bodies for data and RFC7807 problem details
// for errors, so not-found, validation, and allocation-conflict
// responses all look the same to clients.
package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ProblemDetail is the RFC7807 error body. Handlers fill Title with a
// short machine-stable phrase and Detail with the human explanation.
type ProblemDetail struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// JSON writes data as a JSON response with the given status code.
// Encoding failures are ignored since the status line is already out.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Problem writes an RFC7807 problem body with the given status.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	JSON(w, status, ProblemDetail{
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// DecodeJSON reads the request body into target. Handlers turn a
// non-nil error into a 400 problem response.
func DecodeJSON(r *http.Request, target any) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return fmt.Errorf("httpx: decode request body: %w", err)
	}
	return nil
}
