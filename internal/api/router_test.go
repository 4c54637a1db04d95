package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tideline/tideline/internal/api"
	"github.com/tideline/tideline/internal/predictions"
	"github.com/tideline/tideline/internal/stations"
	"github.com/tideline/tideline/internal/tides"
)

type utcZones struct{}

func (utcZones) Locate(_, _ float64) *time.Location { return time.UTC }

type fakePredictions struct {
	mu       sync.Mutex
	requests map[string]predictions.Request
	fail     map[string]bool
}

func (f *fakePredictions) FetchPredictions(_ context.Context, req predictions.Request) ([]predictions.RawPrediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests[req.StationID] = req
	if f.fail[req.StationID] {
		return nil, errors.New("upstream unavailable")
	}
	return []predictions.RawPrediction{
		{Time: "2024-03-10 04:12", Type: "H", Value: "3.104"},
		{Time: "2024-03-10 10:30", Type: "L", Value: "-0.2"},
	}, nil
}

func (f *fakePredictions) Name() string { return "fake-predictions" }

func (f *fakePredictions) request(id string) predictions.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[id]
}

type testEnv struct {
	router    *chi.Mux
	directory *stations.Directory
	upstream  *fakePredictions
}

func newTestEnv(t *testing.T, list []stations.Station) *testEnv {
	t.Helper()

	directory := stations.NewDirectory(stations.DirectoryConfig{Logger: zerolog.Nop()})
	if list != nil {
		directory.Replace(list)
	}

	upstream := &fakePredictions{
		requests: make(map[string]predictions.Request),
		fail:     make(map[string]bool),
	}
	fetcher := predictions.NewFetcher(predictions.FetcherConfig{
		Provider: upstream,
		Zones:    utcZones{},
		Logger:   zerolog.Nop(),
		Now:      func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) },
	})
	service := tides.NewService(tides.ServiceConfig{
		Directory: directory,
		Fetcher:   fetcher,
		Zones:     utcZones{},
		Logger:    zerolog.Nop(),
	})

	router := api.NewRouter(api.RouterConfig{
		Version:        "test",
		Logger:         zerolog.Nop(),
		CacheFreshness: time.Hour,
		Tides:          service,
		Directory:      directory,
	})

	return &testEnv{router: router, directory: directory, upstream: upstream}
}

func (e *testEnv) do(method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, http.NoBody)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func abcStations() []stations.Station {
	return []stations.Station{
		{ID: "1000003", Name: "CHARLIE", Lat: 10, Lon: 10, TypeCode: "R"},
		{ID: "1000001", Name: "ALPHA", Lat: 0, Lon: 0, TypeCode: "R"},
		{ID: "1000002", Name: "BRAVO", Lat: 0, Lon: 1, TypeCode: "S"},
	}
}

func messageOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["message"]
}

func TestRouter_Preflight(t *testing.T) {
	env := newTestEnv(t, abcStations())

	for _, path := range []string{"/all", "/near/0,0", "/closest/0,0", "/1000001", "/not/a/route"} {
		t.Run(path, func(t *testing.T) {
			rec := env.do(http.MethodOptions, path, nil)

			assert.Equal(t, http.StatusNoContent, rec.Code)
			assert.Empty(t, rec.Body.String())
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
			assert.Equal(t, "Content-Type, If-None-Match", rec.Header().Get("Access-Control-Allow-Headers"))
			assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
		})
	}
	assert.Empty(t, env.upstream.requests)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, abcStations())

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		t.Run(method, func(t *testing.T) {
			rec := env.do(method, "/all", nil)

			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
			assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Allow"))
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "Method not allowed", messageOf(t, rec))
		})
	}
}

func TestRouter_NotFound(t *testing.T) {
	env := newTestEnv(t, abcStations())

	rec := env.do(http.MethodGet, "/not/a/route", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Not found", messageOf(t, rec))

	rec = env.do(http.MethodGet, "/9999999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Invalid station", messageOf(t, rec))
	assert.Empty(t, rec.Header().Get("ETag"))
}

func TestRouter_ListAll(t *testing.T) {
	env := newTestEnv(t, abcStations())

	rec := env.do(http.MethodGet, "/all", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get("Expires"))
	assert.NotEmpty(t, rec.Header().Get("ETag"))

	var body struct {
		Stations []map[string]interface{} `json:"stations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Stations, 3)
	assert.Equal(t, "Charlie", body.Stations[0]["name"])
	assert.Equal(t, "subordinate", body.Stations[2]["type"])
	assert.Equal(t, "UTC", body.Stations[0]["timeZone"])
	assert.NotContains(t, body.Stations[0], "distance")
	assert.NotContains(t, body.Stations[0], "predictions")
	assert.Empty(t, env.upstream.requests)
}

func TestRouter_FindNear(t *testing.T) {
	env := newTestEnv(t, abcStations())

	rec := env.do(http.MethodGet, "/near/0,0", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Lat      float64 `json:"lat"`
		Lon      float64 `json:"lon"`
		Stations []struct {
			ID          string                   `json:"id"`
			Distance    *float64                 `json:"distance"`
			Predictions []map[string]interface{} `json:"predictions"`
		} `json:"stations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Stations, 3)

	ids := []string{body.Stations[0].ID, body.Stations[1].ID, body.Stations[2].ID}
	assert.Equal(t, []string{"1000001", "1000002", "1000003"}, ids)
	require.NotNil(t, body.Stations[0].Distance)
	assert.Equal(t, 0.0, *body.Stations[0].Distance)
	assert.InDelta(t, 111.19, *body.Stations[1].Distance, 0.01)

	first := body.Stations[0].Predictions[0]
	assert.Equal(t, "high", first["type"])
	assert.Equal(t, 3.104, first["height"])
	assert.Equal(t, "2024-03-10T04:12:00Z", first["time"])
	assert.Equal(t, float64(1710043920), first["unixTime"])

	// Two forward days plus the leading and trailing day.
	req := env.upstream.request("1000001")
	assert.Equal(t, "20240309", req.BeginDate)
	assert.Equal(t, 96, req.RangeHours)
}

func TestRouter_FindClosestAndByIDAgree(t *testing.T) {
	env := newTestEnv(t, abcStations())

	closest := env.do(http.MethodGet, "/closest/0.1,0.9", nil)
	require.Equal(t, http.StatusOK, closest.Code)
	assert.Equal(t, 216, env.upstream.request("1000002").RangeHours)

	byID := env.do(http.MethodGet, "/1000002", nil)
	require.Equal(t, http.StatusOK, byID.Code)

	var c struct {
		Station map[string]interface{} `json:"station"`
	}
	require.NoError(t, json.Unmarshal(closest.Body.Bytes(), &c))
	var b map[string]interface{}
	require.NoError(t, json.Unmarshal(byID.Body.Bytes(), &b))

	assert.Contains(t, c.Station, "distance")
	assert.NotContains(t, b, "distance")
	delete(c.Station, "distance")
	assert.Equal(t, b, c.Station)
}

func TestRouter_ConditionalGet(t *testing.T) {
	env := newTestEnv(t, abcStations())

	first := env.do(http.MethodGet, "/1000001", nil)
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)

	second := env.do(http.MethodGet, "/1000001", map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, second.Code)
	assert.Empty(t, second.Body.String())
	assert.Equal(t, etag, second.Header().Get("ETag"))
	assert.Equal(t, "*", second.Header().Get("Access-Control-Allow-Origin"))

	stale := env.do(http.MethodGet, "/1000001", map[string]string{"If-None-Match": `"0000000000000000"`})
	assert.Equal(t, http.StatusOK, stale.Code)
}

func TestRouter_FetchFailure(t *testing.T) {
	env := newTestEnv(t, abcStations())
	env.upstream.fail["1000003"] = true

	rec := env.do(http.MethodGet, "/near/0,0", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Unable to fetch predictions", messageOf(t, rec))
	assert.Empty(t, rec.Header().Get("ETag"))
}

func TestRouter_InvalidCoordinates(t *testing.T) {
	env := newTestEnv(t, abcStations())

	for _, path := range []string{"/near/95,0", "/closest/0,-181", "/near/north,west", "/closest/1"} {
		t.Run(path, func(t *testing.T) {
			rec := env.do(http.MethodGet, path, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, messageOf(t, rec), "invalid ")
		})
	}
	assert.Empty(t, env.upstream.requests)
}

func TestRouter_EmptyDirectory(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/closest/0,0", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No stations available", messageOf(t, rec))

	rec = env.do(http.MethodGet, "/all", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"stations":[]}`, rec.Body.String())

	rec = env.do(http.MethodGet, "/ops/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	env.directory.Replace(abcStations())

	rec = env.do(http.MethodGet, "/ops/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_SecurityHeadersAndRequestID(t *testing.T) {
	env := newTestEnv(t, abcStations())

	rec := env.do(http.MethodGet, "/ops/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}
