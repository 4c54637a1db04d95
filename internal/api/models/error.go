package models

import (
	"encoding/json"
	"net/http"
)

// Client-facing error messages.
const (
	MessageInvalidStation     = "Invalid station"
	MessageNoStations         = "No stations available"
	MessageFetchFailed        = "Unable to fetch predictions"
	MessageNotFound           = "Not found"
	MessageMethodNotAllowed   = "Method not allowed"
	MessageInternal           = "An unexpected error occurred"
	MessageRateLimited        = "Rate limit exceeded. Please try again later."
	MessageTLSRequired        = "This endpoint requires HTTPS"
	MessageDirectoryNotLoaded = "Station directory not loaded"
)

// Error is the body of every error response.
type Error struct {
	Message string `json:"message"`
}

// NewError creates an error body.
func NewError(message string) *Error {
	return &Error{Message: message}
}

// Write writes the error as JSON with the given status code.
// requestID is echoed in X-Request-Id when set.
func (e *Error) Write(w http.ResponseWriter, status int, requestID string) {
	if requestID != "" {
		w.Header().Set("X-Request-Id", requestID)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(e)
}
