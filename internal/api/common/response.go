// Package common provides shared HTTP utility functions for API handlers.
package common

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// InvalidURLMessage is the message of the not-found body
const InvalidURLMessage = "Invalid URL"

// ErrorResponse is the body of every non-200 response
type ErrorResponse struct {
	Message string `json:"message"`
}

// NotFoundResponse is the body returned when no item matches the request
type NotFoundResponse struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// WriteJSONResponse writes a JSON response with the given data
func WriteJSONResponse(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent, only the log is left
		slog.Error("Failed to encode response", "error", err)
	}
}

// WriteErrorResponse writes a {"message": ...} body with the given status
func WriteErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	WriteJSONResponse(w, ErrorResponse{Message: message}, statusCode)
}

// WriteNotFound writes the 404 body naming the requested path
func WriteNotFound(w http.ResponseWriter, r *http.Request) {
	WriteJSONResponse(w, NotFoundResponse{
		Path:    r.URL.Path,
		Message: InvalidURLMessage,
	}, http.StatusNotFound)
}
