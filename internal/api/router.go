// Package api provides the HTTP API for the tides service.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/tideline/tideline/internal/api/handler"
	"github.com/tideline/tideline/internal/api/middleware"
	"github.com/tideline/tideline/internal/api/models"
	"github.com/tideline/tideline/internal/api/response"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	RequireTLS  bool

	// CacheFreshness is the max-age of successful tide responses.
	CacheFreshness time.Duration

	Tides     handler.TidesService
	Directory handler.DirectoryStatus
	Providers handler.ProviderHealth
	Refresh   handler.RefreshMetrics
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "tideline-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction

	// Preflight is answered before the method check so OPTIONS works on any path.
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.AllowMethods(http.MethodGet, http.MethodOptions))

	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement
	r.Use(middleware.ContentTypeJSON)            // JSON content type

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, models.MessageNotFound)
	})
	r.MethodNotAllowed(response.MethodNotAllowed)

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Directory: cfg.Directory,
		Providers: cfg.Providers,
		Refresh:   cfg.Refresh,
	})
	tidesHandler := handler.NewTidesHandler(cfg.Tides, cfg.CacheFreshness, cfg.Logger)

	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	r.Route("/ops", func(r chi.Router) {
		r.Get("/health", opsHandler.HealthCheck)
		r.Get("/ready", opsHandler.ReadinessCheck)
		r.Get("/status", opsHandler.SystemStatus)
	})

	r.Group(func(r chi.Router) {
		r.Use(standardRateLimit)
		r.Get("/all", tidesHandler.ListAll)
		r.Get("/closest/{coords}", tidesHandler.FindClosest)
		r.Get("/{id}", tidesHandler.GetByID)
	})

	// Fans out to up to ten upstream calls per request.
	r.With(expensiveRateLimit).Get("/near/{coords}", tidesHandler.FindNear)

	return r
}
