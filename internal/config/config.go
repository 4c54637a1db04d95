// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Upstream endpoint defaults.
const (
	DefaultStationsURL    = "https://api.tidesandcurrents.noaa.gov/mdapi/prod/webapi/tidepredstations.json"
	DefaultPredictionsURL = "https://api.tidesandcurrents.noaa.gov/api/prod/datagetter"
)

// Config holds all application configuration.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// NOAAApplication identifies this service to the NOAA API.
	NOAAApplication string
	StationsURL     string
	PredictionsURL  string
	UpstreamTimeout time.Duration

	RefreshInterval time.Duration
	RefreshTimeout  time.Duration

	CacheFreshness     time.Duration
	NearMaxConcurrency int

	OTelEnabled  bool
	OTLPEndpoint string

	// OTelSampleRatio is the share of new traces recorded; incoming sampled
	// traces are always continued.
	OTelSampleRatio     float64
	OTelMetricsInterval time.Duration
	RequireTLS          bool
}

// Load reads configuration from environment variables with defaults.
// Variables are first seeded from the given dotenv files (".env" when none
// are given); a missing file is ignored and existing variables are never
// overridden. Malformed values are reported together in the returned error.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	p := &parser{}
	cfg := &Config{
		Port:     getEnv("APP_PORT", "8080"),
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		NOAAApplication: os.Getenv("NOAA_APPLICATION"),
		StationsURL:     getEnv("NOAA_STATIONS_URL", DefaultStationsURL),
		PredictionsURL:  getEnv("NOAA_PREDICTIONS_URL", DefaultPredictionsURL),
		UpstreamTimeout: p.duration("UPSTREAM_TIMEOUT", 10*time.Second),

		RefreshInterval: p.duration("DIRECTORY_REFRESH_INTERVAL", 24*time.Hour),
		RefreshTimeout:  p.duration("DIRECTORY_REFRESH_TIMEOUT", 2*time.Minute),

		CacheFreshness:     p.duration("CACHE_FRESHNESS", time.Hour),
		NearMaxConcurrency: p.integer("NEAR_MAX_CONCURRENCY", 10),

		OTelEnabled:         p.boolean("OTEL_ENABLED", false),
		OTLPEndpoint:        getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelSampleRatio:     p.float("OTEL_TRACE_SAMPLE_RATIO", 1),
		OTelMetricsInterval: p.duration("OTEL_METRIC_EXPORT_INTERVAL", 15*time.Second),
		RequireTLS:          p.boolean("REQUIRE_TLS", false),
	}

	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate checks that required configuration is present and sane.
func (c *Config) Validate() error {
	var errs []error
	if c.NOAAApplication == "" {
		errs = append(errs, errors.New("NOAA_APPLICATION is required"))
	}
	if c.NearMaxConcurrency < 1 {
		errs = append(errs, errors.New("NEAR_MAX_CONCURRENCY must be at least 1"))
	}
	if c.UpstreamTimeout <= 0 {
		errs = append(errs, errors.New("UPSTREAM_TIMEOUT must be positive"))
	}
	if c.RefreshInterval <= 0 {
		errs = append(errs, errors.New("DIRECTORY_REFRESH_INTERVAL must be positive"))
	}
	if c.RefreshTimeout <= 0 {
		errs = append(errs, errors.New("DIRECTORY_REFRESH_TIMEOUT must be positive"))
	}
	if c.CacheFreshness <= 0 {
		errs = append(errs, errors.New("CACHE_FRESHNESS must be positive"))
	}
	if c.OTelSampleRatio <= 0 || c.OTelSampleRatio > 1 {
		errs = append(errs, errors.New("OTEL_TRACE_SAMPLE_RATIO must be above 0 and at most 1"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parser collects malformed values instead of silently using defaults.
type parser struct {
	errs []error
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid duration %q", key, value))
		return def
	}
	return d
}

func (p *parser) integer(key string, def int) int {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid integer %q", key, value))
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid number %q", key, value))
		return def
	}
	return f
}

func (p *parser) boolean(key string, def bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid boolean %q", key, value))
		return def
	}
	return b
}
