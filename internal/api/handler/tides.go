// Package handler provides HTTP handlers for the tides API.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tideline/tideline/internal/api/middleware"
	"github.com/tideline/tideline/internal/api/models"
	"github.com/tideline/tideline/internal/api/response"
	"github.com/tideline/tideline/internal/predictions"
	"github.com/tideline/tideline/internal/tides"
)

// TidesService answers the four tide queries.
type TidesService interface {
	ListAll() []tides.StationView
	FindNear(ctx context.Context, lat, lon float64) (*tides.NearbyResult, error)
	FindClosest(ctx context.Context, lat, lon float64) (*tides.ClosestResult, error)
	GetByID(ctx context.Context, id string) (*tides.StationView, error)
}

// TidesHandler handles the station and prediction endpoints.
type TidesHandler struct {
	service   TidesService
	freshness time.Duration
	logger    zerolog.Logger
}

// NewTidesHandler creates a new TidesHandler. freshness sets the
// Cache-Control max-age of successful responses.
func NewTidesHandler(service TidesService, freshness time.Duration, logger zerolog.Logger) *TidesHandler {
	return &TidesHandler{
		service:   service,
		freshness: freshness,
		logger:    logger,
	}
}

// ListAll handles GET /all.
func (h *TidesHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	views := h.service.ListAll()

	list := models.StationList{Stations: make([]models.Station, 0, len(views))}
	for i := range views {
		list.Stations = append(list.Stations, toStation(&views[i]))
	}
	response.Cached(w, r, h.freshness, list)
}

// FindNear handles GET /near/{lat},{lon}.
func (h *TidesHandler) FindNear(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := tides.ParseCoordinates(chi.URLParam(r, "coords"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.service.FindNear(r.Context(), lat, lon)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	body := models.NearbyStations{
		Lat:      result.Lat,
		Lon:      result.Lon,
		Stations: make([]models.StationWithPredictions, 0, len(result.Stations)),
	}
	for i := range result.Stations {
		body.Stations = append(body.Stations, toStationWithPredictions(&result.Stations[i]))
	}
	response.Cached(w, r, h.freshness, body)
}

// FindClosest handles GET /closest/{lat},{lon}.
func (h *TidesHandler) FindClosest(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := tides.ParseCoordinates(chi.URLParam(r, "coords"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.service.FindClosest(r.Context(), lat, lon)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Cached(w, r, h.freshness, models.ClosestStation{
		Lat:     result.Lat,
		Lon:     result.Lon,
		Station: toStationWithPredictions(&result.Station),
	})
}

// GetByID handles GET /{id}.
func (h *TidesHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Cached(w, r, h.freshness, toStationWithPredictions(view))
}

// writeError maps service errors to responses. Internal detail is logged,
// never returned, except for validation messages which describe the input.
func (h *TidesHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fetchErr *tides.FetchError

	switch {
	case errors.Is(err, tides.ErrValidation):
		response.BadRequest(w, r, err.Error())
	case errors.Is(err, tides.ErrStationNotFound):
		response.NotFound(w, r, models.MessageInvalidStation)
	case errors.Is(err, tides.ErrNoStations):
		response.NotFound(w, r, models.MessageNoStations)
	case errors.As(err, &fetchErr):
		h.logger.Warn().
			Err(fetchErr.Err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("station_id", fetchErr.StationID).
			Str("path", r.URL.Path).
			Msg("prediction fetch failed")
		response.NotFound(w, r, models.MessageFetchFailed)
	default:
		h.logger.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("tide query failed")
		response.InternalError(w, r)
	}
}

func toStation(v *tides.StationView) models.Station {
	return models.Station{
		ID:         v.ID,
		Name:       v.Name,
		CommonName: v.CommonName,
		Lat:        v.Lat,
		Lon:        v.Lon,
		State:      v.State,
		Region:     v.Region,
		TimeZone:   v.TimeZone,
		Distance:   v.Distance,
		Type:       models.StationType(v.Type),
	}
}

func toStationWithPredictions(v *tides.StationView) models.StationWithPredictions {
	out := models.StationWithPredictions{
		Station:     toStation(v),
		Predictions: make([]models.Prediction, 0, len(v.Predictions)),
	}
	for _, p := range v.Predictions {
		out.Predictions = append(out.Predictions, toPrediction(p))
	}
	return out
}

func toPrediction(p predictions.Point) models.Prediction {
	return models.Prediction{
		Type:     models.PredictionType(p.Kind),
		Height:   p.Height,
		Time:     models.Timestamp(p.Time),
		UnixTime: p.Time.Unix(),
	}
}
