// Package main provides the entrypoint for the tides API server.
package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // station zones must resolve on hosts without a zoneinfo database

	"github.com/rs/zerolog"

	"github.com/tideline/tideline/internal/api"
	"github.com/tideline/tideline/internal/api/middleware"
	"github.com/tideline/tideline/internal/config"
	"github.com/tideline/tideline/internal/predictions"
	predcoops "github.com/tideline/tideline/internal/predictions/coops"
	"github.com/tideline/tideline/internal/provider/resilience"
	"github.com/tideline/tideline/internal/stations"
	stationcoops "github.com/tideline/tideline/internal/stations/coops"
	"github.com/tideline/tideline/internal/telemetry"
	"github.com/tideline/tideline/internal/tides"
	"github.com/tideline/tideline/internal/timezone"
	"github.com/tideline/tideline/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "tideline-api"

	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	var out io.Writer = os.Stdout
	if cfg.IsDevelopment() {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	// Setup structured logging
	log := zerolog.New(out).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	log = log.Level(level)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Env).
		Msg("starting tides API")

	// Initialize OpenTelemetry
	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
		SampleRatio:    cfg.OTelSampleRatio,
		ExportInterval: cfg.OTelMetricsInterval,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTelEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Float64("sample_ratio", cfg.OTelSampleRatio).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}
	providerMetrics, err := telemetry.NewProviderMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize provider metrics")
		os.Exit(1)
	}

	zones, err := timezone.NewResolver()
	if err != nil {
		log.Error().Err(err).Msg("failed to load timezone boundaries")
		os.Exit(1)
	}

	// Upstream clients share one health registry for /ops/status.
	registry := resilience.NewRegistry()

	stationClient := stationcoops.NewClient(stationcoops.ClientConfig{
		URL:      cfg.StationsURL,
		Timeout:  cfg.UpstreamTimeout,
		Registry: registry,
		Logger:   log,
	})
	predictionClient := predcoops.NewClient(predcoops.ClientConfig{
		URL:         cfg.PredictionsURL,
		Application: cfg.NOAAApplication,
		Timeout:     cfg.UpstreamTimeout,
		Registry:    registry,
		Logger:      log,
	})

	directory := stations.NewDirectory(stations.DirectoryConfig{
		Provider: stationClient,
		Logger:   log.With().Str("component", "directory").Logger(),
		Metrics:  providerMetrics,
	})

	fetcher := predictions.NewFetcher(predictions.FetcherConfig{
		Provider: predictionClient,
		Zones:    zones,
		Logger:   log.With().Str("component", "predictions").Logger(),
		Metrics:  providerMetrics,
	})

	service := tides.NewService(tides.ServiceConfig{
		Directory:      directory,
		Fetcher:        fetcher,
		Zones:          zones,
		Logger:         log,
		MaxConcurrency: cfg.NearMaxConcurrency,
	})

	// Refresh the directory now and on every interval until shutdown.
	refreshJob := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{
			Interval: cfg.RefreshInterval,
			Timeout:  cfg.RefreshTimeout,
		},
		Logger:    log.With().Str("component", "refresh").Logger(),
		Directory: directory,
	})
	if err := refreshJob.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start directory refresh")
	}

	router := api.NewRouter(api.RouterConfig{
		Version:        Version,
		BuildTime:      BuildTime,
		Logger:         log,
		ServiceName:    serviceName,
		Metrics:        metrics,
		RequireTLS:     cfg.RequireTLS,
		CacheFreshness: cfg.CacheFreshness,
		Tides:          service,
		Directory:      directory,
		Providers:      registry,
		Refresh:        refreshJob,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	refreshJob.Stop()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
