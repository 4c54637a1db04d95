// Package coops provides a client for the NOAA CO-OPS data API predictions product.
package coops

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/tideline/tideline/internal/predictions"
	"github.com/tideline/tideline/internal/provider/resilience"
)

const (
	// DefaultURL is the CO-OPS data API endpoint.
	DefaultURL = "https://api.tidesandcurrents.noaa.gov/api/prod/datagetter"

	// ProviderName identifies this provider.
	ProviderName = "coops-predictions"
)

// Query parameters fixed for every request: high/low extremes in feet above
// MLLW, timestamps in the station's local standard/daylight time.
const (
	product  = "predictions"
	datum    = "MLLW"
	timeZone = "lst_ldt"
	units    = "english"
	interval = "hilo"
	format   = "json"
)

// ErrUpstream is returned when the API answers with an error envelope.
var ErrUpstream = errors.New("upstream error")

// ClientConfig holds configuration for the predictions client.
type ClientConfig struct {
	// URL is the data API endpoint (defaults to DefaultURL).
	URL string

	// Application identifies this service to NOAA. Required.
	Application string

	// HTTPClient is the HTTP client to use.
	// If nil, a default resilient client without retries will be created.
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

// Client fetches tide predictions from CO-OPS.
type Client struct {
	url         string
	application string
	httpClient  HTTPDoer
}

// NewClient creates a new predictions client.
func NewClient(cfg ClientConfig) *Client {
	endpoint := cfg.URL
	if endpoint == "" {
		endpoint = DefaultURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		breaker := CircuitBreakerConfig()
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:           ProviderName,
			Role:           resilience.RolePredictions,
			Timeout:        timeout,
			DisableRetries: true,
			CircuitBreaker: &breaker,
			Registry:       cfg.Registry,
			Logger:         cfg.Logger,
		})
	}

	return &Client{
		url:         endpoint,
		application: cfg.Application,
		httpClient:  httpClient,
	}
}

// CircuitBreakerConfig returns the breaker settings of the default client.
// Every station shares one breaker, so it opens only on a run of consecutive
// upstream failures: a single bad station among many healthy ones never
// takes the others down with it.
func CircuitBreakerConfig() resilience.CircuitBreakerConfig {
	cfg := resilience.DefaultCircuitBreakerConfig(ProviderName)
	cfg.Interval = time.Minute
	cfg.Timeout = 30 * time.Second
	cfg.ReadyToTrip = resilience.ConsecutiveFailuresReadyToTrip(5)
	return cfg
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

type predictionsResponse struct {
	Predictions []predictionData `json:"predictions"`
	Error       *errorData       `json:"error"`
}

type predictionData struct {
	Time  string `json:"t"`
	Value string `json:"v"`
	Type  string `json:"type"`
}

type errorData struct {
	Message string `json:"message"`
}

// FetchPredictions retrieves the raw high/low points for one request.
func (c *Client) FetchPredictions(ctx context.Context, r predictions.Request) ([]predictions.RawPrediction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(r), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch predictions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status %d from predictions endpoint", resp.StatusCode)
	}

	var result predictionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode predictions response: %w", err)
	}

	if result.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, result.Error.Message)
	}
	if result.Predictions == nil {
		return nil, errors.New("predictions response has no predictions field")
	}

	raw := make([]predictions.RawPrediction, len(result.Predictions))
	for i, p := range result.Predictions {
		raw[i] = predictions.RawPrediction{Time: p.Time, Type: p.Type, Value: p.Value}
	}
	return raw, nil
}

func (c *Client) requestURL(r predictions.Request) string {
	params := url.Values{}
	params.Set("product", product)
	params.Set("station", r.StationID)
	params.Set("begin_date", r.BeginDate)
	params.Set("range", strconv.Itoa(r.RangeHours))
	params.Set("datum", datum)
	params.Set("time_zone", timeZone)
	params.Set("units", units)
	params.Set("interval", interval)
	params.Set("format", format)
	params.Set("application", c.application)

	return c.url + "?" + params.Encode()
}
