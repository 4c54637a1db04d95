package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tideline/tideline/internal/api/middleware"
	"github.com/tideline/tideline/internal/api/response"
)

// requestWithContext creates an HTTP request that has been processed by the RequestID middleware
// to populate the context with a request ID.
func requestWithContext(t *testing.T, method, path string) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(method, path, http.NoBody)
	rec := httptest.NewRecorder()

	var processedReq *http.Request
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		processedReq = r
	}))
	handler.ServeHTTP(rec, req)

	return processedReq, httptest.NewRecorder()
}

func TestJSON_IncludesRequestID(t *testing.T) {
	req, rec := requestWithContext(t, http.MethodGet, "/test")

	response.JSON(rec, req, http.StatusOK, map[string]string{"message": "hello"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("X-Request-Id"), "req_"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"hello"}`, rec.Body.String())
}

func TestJSON_WithoutRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusOK, map[string]string{"message": "hello"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Request-Id"))
}

func TestCached_SetsCacheHeaders(t *testing.T) {
	req, rec := requestWithContext(t, http.MethodGet, "/all")

	before := time.Now()
	response.Cached(rec, req, 30*time.Minute, map[string]int{"n": 1})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"n":1}`, rec.Body.String())
	assert.Equal(t, "public, max-age=1800", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get("ETag"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	expires, err := http.ParseTime(rec.Header().Get("Expires"))
	require.NoError(t, err)
	assert.WithinDuration(t, before.Add(30*time.Minute), expires, 2*time.Second)
}

func TestCached_SameBodySameETag(t *testing.T) {
	data := map[string]string{"id": "8410140"}

	req1, rec1 := requestWithContext(t, http.MethodGet, "/8410140")
	response.Cached(rec1, req1, time.Hour, data)

	req2, rec2 := requestWithContext(t, http.MethodGet, "/8410140")
	response.Cached(rec2, req2, time.Hour, data)

	assert.Equal(t, rec1.Header().Get("ETag"), rec2.Header().Get("ETag"))

	req3, rec3 := requestWithContext(t, http.MethodGet, "/8410140")
	response.Cached(rec3, req3, time.Hour, map[string]string{"id": "9414290"})

	assert.NotEqual(t, rec1.Header().Get("ETag"), rec3.Header().Get("ETag"))
}

func TestCached_NotModified(t *testing.T) {
	data := map[string]string{"id": "8410140"}

	req, rec := requestWithContext(t, http.MethodGet, "/8410140")
	response.Cached(rec, req, time.Hour, data)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req, rec = requestWithContext(t, http.MethodGet, "/8410140")
	req.Header.Set("If-None-Match", etag)
	response.Cached(rec, req, time.Hour, data)

	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, etag, rec.Header().Get("ETag"))
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
}

func TestCached_MarshalFailure(t *testing.T) {
	req, rec := requestWithContext(t, http.MethodGet, "/all")

	response.Cached(rec, req, time.Hour, map[string]interface{}{"bad": make(chan int)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Header().Get("ETag"))
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name       string
		write      func(http.ResponseWriter, *http.Request)
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "bad request",
			write:      func(w http.ResponseWriter, r *http.Request) { response.BadRequest(w, r, "invalid latitude") },
			wantStatus: http.StatusBadRequest,
			wantMsg:    "invalid latitude",
		},
		{
			name:       "not found",
			write:      func(w http.ResponseWriter, r *http.Request) { response.NotFound(w, r, "Invalid station") },
			wantStatus: http.StatusNotFound,
			wantMsg:    "Invalid station",
		},
		{
			name:       "method not allowed",
			write:      response.MethodNotAllowed,
			wantStatus: http.StatusMethodNotAllowed,
			wantMsg:    "Method not allowed",
		},
		{
			name:       "internal error",
			write:      response.InternalError,
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "An unexpected error occurred",
		},
		{
			name:       "service unavailable",
			write:      func(w http.ResponseWriter, r *http.Request) { response.ServiceUnavailable(w, r, "not ready") },
			wantStatus: http.StatusServiceUnavailable,
			wantMsg:    "not ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := requestWithContext(t, http.MethodGet, "/x")

			tt.write(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, map[string]string{"message": tt.wantMsg}, body)
		})
	}
}
