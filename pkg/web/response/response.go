// Package response renders the JSON responses produced by generated CRUD
// handlers, including the structured error payload surfaced for rejected
// requests.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorBody is the structured error payload returned to callers.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSON writes data as a JSON response with the given status code.
func JSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data == nil {
		return
	}
	// The status line is already on the wire; an encode failure here can
	// only truncate the body.
	_ = json.NewEncoder(w).Encode(data)
}

// Error writes a structured error response.
func Error(w http.ResponseWriter, statusCode int, message string) {
	JSON(w, statusCode, ErrorBody{Error: message})
}

// NotFound writes the standard not-found payload for a missing entity.
func NotFound(w http.ResponseWriter, entity string) {
	Error(w, http.StatusNotFound, fmt.Sprintf("%s not found", entity))
}
