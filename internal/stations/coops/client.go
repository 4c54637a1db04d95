// Package coops provides a client for the NOAA CO-OPS station metadata API.
package coops

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tideline/tideline/internal/provider/resilience"
	"github.com/tideline/tideline/internal/stations"
)

const (
	// DefaultURL lists every station that publishes tide predictions.
	DefaultURL = "https://api.tidesandcurrents.noaa.gov/mdapi/prod/webapi/tidepredstations.json"

	// ProviderName identifies this provider.
	ProviderName = "coops-stations"
)

// ClientConfig holds configuration for the station list client.
type ClientConfig struct {
	// URL is the station list endpoint (defaults to DefaultURL).
	URL string

	// HTTPClient is the HTTP client to use.
	// If nil, a default resilient client will be created.
	HTTPClient HTTPDoer

	// Timeout for individual API requests (default: 10s).
	Timeout time.Duration

	// Registry receives provider health records for the default client.
	Registry *resilience.Registry

	// Logger receives circuit breaker state changes of the default client.
	Logger zerolog.Logger
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches the station directory from CO-OPS.
type Client struct {
	url        string
	httpClient HTTPDoer
}

// NewClient creates a new station list client.
func NewClient(cfg ClientConfig) *Client {
	url := cfg.URL
	if url == "" {
		url = DefaultURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:            ProviderName,
			Role:            resilience.RoleDirectory,
			Timeout:         timeout,
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     10 * time.Second,
			Registry:        cfg.Registry,
			Logger:          cfg.Logger,
		})
	}

	return &Client{
		url:        url,
		httpClient: httpClient,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

type stationListResponse struct {
	StationList []stationData `json:"stationList"`
}

type stationData struct {
	StationID   string  `json:"stationId"`
	Name        string  `json:"name"`
	CommonName  string  `json:"commonName"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	State       string  `json:"state"`
	Region      string  `json:"region"`
	StationType string  `json:"stationType"`
}

// FetchStations retrieves every tide prediction station.
// Entries without a station id are skipped.
func (c *Client) FetchStations(ctx context.Context) ([]stations.Station, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch stations: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status %d from stations endpoint", resp.StatusCode)
	}

	var result stationListResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode stations response: %w", err)
	}

	list := make([]stations.Station, 0, len(result.StationList))
	for _, s := range result.StationList {
		id := strings.TrimSpace(s.StationID)
		if id == "" {
			continue
		}
		list = append(list, stations.Station{
			ID:         id,
			Name:       s.Name,
			CommonName: s.CommonName,
			Lat:        s.Lat,
			Lon:        s.Lon,
			State:      s.State,
			Region:     s.Region,
			TypeCode:   s.StationType,
		})
	}

	return list, nil
}
