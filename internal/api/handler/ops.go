package handler

import (
	"net/http"
	"time"

	"github.com/tideline/tideline/internal/api/models"
	"github.com/tideline/tideline/internal/api/response"
	"github.com/tideline/tideline/internal/provider/resilience"
	"github.com/tideline/tideline/internal/stations"
)

// DirectoryStatus reports the station directory's state.
type DirectoryStatus interface {
	Ready() bool
	Status() stations.Status
}

// ProviderHealth reports upstream provider health.
type ProviderHealth interface {
	GetAllHealth() []*resilience.ProviderHealth
}

// RefreshMetrics reports directory refresh job metrics.
type RefreshMetrics interface {
	MetricsSnapshot() map[string]interface{}
}

// OpsConfig holds the dependencies of the ops endpoints. Providers and
// Refresh are optional.
type OpsConfig struct {
	Version   string
	BuildTime string
	Directory DirectoryStatus
	Providers ProviderHealth
	Refresh   RefreshMetrics
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
	now func() time.Time
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg, now: time.Now}
}

// HealthCheck handles GET /ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
		Details: map[string]interface{}{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /ops/ready. The service is ready once the
// directory holds a snapshot.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Directory == nil || !h.cfg.Directory.Ready() {
		response.ServiceUnavailable(w, r, models.MessageDirectoryNotLoaded)
		return
	}

	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /ops/status - directory, refresh and provider status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:    models.HealthStatusOK,
		Time:      models.Timestamp(h.now()),
		Providers: []models.ProviderStatus{},
	}

	if h.cfg.Directory != nil {
		status.Directory = directoryStatus(h.cfg.Directory.Status())
	}
	if h.cfg.Refresh != nil {
		status.Refresh = h.cfg.Refresh.MetricsSnapshot()
	}
	if h.cfg.Providers != nil {
		for _, ph := range h.cfg.Providers.GetAllHealth() {
			status.Providers = append(status.Providers, providerStatus(ph))
		}
	}

	switch {
	case !status.Directory.Loaded:
		status.Status = models.HealthStatusFail
	case status.Directory.LastError != nil:
		status.Status = models.HealthStatusDegraded
	default:
		for _, p := range status.Providers {
			if p.Status != models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
				break
			}
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func directoryStatus(s stations.Status) models.DirectoryStatus {
	out := models.DirectoryStatus{
		Loaded:       s.Loaded,
		StationCount: s.StationCount,
		Provider:     s.Provider,
	}
	if !s.LastRefreshedAt.IsZero() {
		ts := models.Timestamp(s.LastRefreshedAt)
		out.LastRefreshedAt = &ts
	}
	if !s.LastAttemptAt.IsZero() {
		ts := models.Timestamp(s.LastAttemptAt)
		out.LastAttemptAt = &ts
	}
	if s.LastError != "" {
		msg := s.LastError
		out.LastError = &msg
	}
	return out
}

func providerStatus(ph *resilience.ProviderHealth) models.ProviderStatus {
	out := models.ProviderStatus{
		Provider:            ph.Name,
		Role:                string(ph.Role),
		Status:              models.HealthStatus(ph.Status()),
		CircuitState:        ph.CircuitState.String(),
		ConsecutiveFailures: ph.ConsecutiveFailures,
		Calls:               ph.Calls,
		Failures:            ph.Failures,
		LastStatusCode:      ph.LastStatusCode,
	}
	if ph.LastSuccessAt != nil {
		ts := models.Timestamp(*ph.LastSuccessAt)
		out.LastSuccessAt = &ts
	}
	if ph.LastFailureAt != nil {
		ts := models.Timestamp(*ph.LastFailureAt)
		out.LastFailureAt = &ts
	}
	if ph.LastError != "" {
		msg := ph.LastError
		out.Message = &msg
	}
	return out
}
