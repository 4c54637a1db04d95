package tides_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tideline/tideline/internal/predictions"
	predcoops "github.com/tideline/tideline/internal/predictions/coops"
	"github.com/tideline/tideline/internal/provider/resilience"
	"github.com/tideline/tideline/internal/stations"
	"github.com/tideline/tideline/internal/tides"
)

// upstreamWithOneBadStation serves CO-OPS style predictions. Station "a"
// answers 500 at once; every other station answers after delay unless the
// caller goes away first.
func upstreamWithOneBadStation(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("station") == "a" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"predictions":[` +
			`{"t":"2024-03-10 04:12","v":"3.104","type":"H"},` +
			`{"t":"2024-03-10 10:30","v":"-0.2","type":"L"}]}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestService_FailedNearDoesNotBreakOtherStations(t *testing.T) {
	server := upstreamWithOneBadStation(t, 200*time.Millisecond)

	registry := resilience.NewRegistry()
	client := predcoops.NewClient(predcoops.ClientConfig{
		URL:         server.URL,
		Application: "tideline-test",
		Registry:    registry,
		Logger:      zerolog.Nop(),
	})

	list := make([]stations.Station, 10)
	for i := range list {
		id := string(rune('a' + i))
		list[i] = stations.Station{ID: id, Name: "STATION " + id, Lat: float64(i) * 0.1, Lon: 0, TypeCode: "R"}
	}
	dir := stations.NewDirectory(stations.DirectoryConfig{Logger: zerolog.Nop()})
	dir.Replace(list)

	svc := tides.NewService(tides.ServiceConfig{
		Directory: dir,
		Fetcher: predictions.NewFetcher(predictions.FetcherConfig{
			Provider: client,
			Zones:    fixedZone{},
			Logger:   zerolog.Nop(),
			Now:      func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) },
		}),
		Zones:  fixedZone{},
		Logger: zerolog.Nop(),
	})

	// Several failed requests in a row, each cancelling nine in-flight fetches.
	for i := 0; i < 3; i++ {
		_, err := svc.FindNear(context.Background(), 0, 0)
		var fetchErr *tides.FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, "a", fetchErr.StationID)
	}

	health := registry.GetHealth(predcoops.ProviderName)
	require.NotNil(t, health)
	assert.Equal(t, gobreaker.StateClosed, health.CircuitState)
	assert.Equal(t, resilience.RolePredictions, health.Role)
	assert.Equal(t, uint64(3), health.Failures, "only the bad station's answers count as failures")

	view, err := svc.GetByID(context.Background(), "j")
	require.NoError(t, err)
	assert.Equal(t, "j", view.ID)
	require.Len(t, view.Predictions, 2)
	assert.Equal(t, predictions.KindHigh, view.Predictions[0].Kind)

	closest, err := svc.FindClosest(context.Background(), 0.9, 0)
	require.NoError(t, err)
	assert.Equal(t, "j", closest.Station.ID)
}
