// Package response provides utilities for HTTP response handling.
package response

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/tideline/tideline/internal/api/middleware"
	"github.com/tideline/tideline/internal/api/models"
	"github.com/tideline/tideline/internal/httpcache"
)

// JSON writes a JSON response with the given status code.
// Includes X-Request-Id header for correlation.
func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	setRequestID(w, r)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Cached writes data as a 200 JSON response with Expires, Cache-Control and
// ETag headers. When the request's If-None-Match matches the body's ETag the
// response is 304 with the same cache headers and no body.
func Cached(w http.ResponseWriter, r *http.Request, freshness time.Duration, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		InternalError(w, r)
		return
	}

	meta := httpcache.Compute(body, freshness, time.Now())

	setRequestID(w, r)
	meta.Apply(w.Header())

	if meta.Matches(r.Header.Get("If-None-Match")) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// Error writes a {"message": ...} error response.
func Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	models.NewError(message).Write(w, status, middleware.GetRequestID(r.Context()))
}

// BadRequest writes a 400 Bad Request error response.
func BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, http.StatusBadRequest, message)
}

// NotFound writes a 404 Not Found error response.
func NotFound(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, http.StatusNotFound, message)
}

// MethodNotAllowed writes a 405 Method Not Allowed error response.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", "GET, OPTIONS")
	Error(w, r, http.StatusMethodNotAllowed, models.MessageMethodNotAllowed)
}

// InternalError writes a 500 Internal Server Error response with a generic
// message.
func InternalError(w http.ResponseWriter, r *http.Request) {
	Error(w, r, http.StatusInternalServerError, models.MessageInternal)
}

// ServiceUnavailable writes a 503 Service Unavailable error response.
func ServiceUnavailable(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, http.StatusServiceUnavailable, message)
}

func setRequestID(w http.ResponseWriter, r *http.Request) {
	if requestID := middleware.GetRequestID(r.Context()); requestID != "" {
		w.Header().Set("X-Request-Id", requestID)
	}
}
