// Package tides resolves stations for a query and assembles their predictions.
package tides

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tideline/tideline/internal/names"
	"github.com/tideline/tideline/internal/predictions"
	"github.com/tideline/tideline/internal/stations"
	"github.com/tideline/tideline/pkg/geo"
)

// Directory is the read side of the station directory.
type Directory interface {
	All() []stations.Station
	Lookup(id string) (stations.Station, bool)
	Nearest(p geo.Point, limit int) []stations.Ranked
}

// Fetcher retrieves predictions for a single station.
type Fetcher interface {
	Fetch(ctx context.Context, st stations.Station, days int) ([]predictions.Point, error)
}

// ZoneLocator resolves the civil timezone for a coordinate. It must be the
// same locator the Fetcher uses so metadata and predictions agree.
type ZoneLocator interface {
	Locate(lat, lon float64) *time.Location
}

// ServiceConfig holds configuration for the tides service.
type ServiceConfig struct {
	Directory Directory
	Fetcher   Fetcher
	Zones     ZoneLocator
	Logger    zerolog.Logger

	// MaxConcurrency bounds concurrent fetches in FindNear (default: NearLimit).
	MaxConcurrency int
}

// Service implements the four tide queries.
type Service struct {
	directory      Directory
	fetcher        Fetcher
	zones          ZoneLocator
	logger         zerolog.Logger
	maxConcurrency int
}

// NewService creates a new tides service.
func NewService(cfg ServiceConfig) *Service {
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency < 1 {
		maxConcurrency = NearLimit
	}

	return &Service{
		directory:      cfg.Directory,
		fetcher:        cfg.Fetcher,
		zones:          cfg.Zones,
		logger:         cfg.Logger,
		maxConcurrency: maxConcurrency,
	}
}

// ListAll returns every station in the directory without predictions.
func (s *Service) ListAll() []StationView {
	all := s.directory.All()
	views := make([]StationView, len(all))
	for i, st := range all {
		views[i] = s.view(st, nil, nil)
	}
	return views
}

// FindNear returns the NearLimit stations nearest to (lat, lon), nearest
// first, each with NearDays of predictions. Fetches run concurrently up to
// the configured bound. The first failed fetch cancels the rest and fails the
// whole request.
func (s *Service) FindNear(ctx context.Context, lat, lon float64) (*NearbyResult, error) {
	p, err := validatePoint(lat, lon)
	if err != nil {
		return nil, err
	}

	ranked := s.directory.Nearest(p, NearLimit)
	views := make([]StationView, len(ranked))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)
	for i, r := range ranked {
		i, r := i, r
		g.Go(func() error {
			points, err := s.fetcher.Fetch(gctx, r.Station, NearDays)
			if err != nil {
				return &FetchError{StationID: r.Station.ID, Err: err}
			}
			distance := r.Distance
			views[i] = s.view(r.Station, &distance, points)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Float64("lat", lat).
		Float64("lon", lon).
		Int("stations", len(views)).
		Msg("resolved nearby stations")

	return &NearbyResult{Lat: lat, Lon: lon, Stations: views}, nil
}

// FindClosest returns the station nearest to (lat, lon) with DetailDays of
// predictions.
func (s *Service) FindClosest(ctx context.Context, lat, lon float64) (*ClosestResult, error) {
	p, err := validatePoint(lat, lon)
	if err != nil {
		return nil, err
	}

	ranked := s.directory.Nearest(p, 1)
	if len(ranked) == 0 {
		return nil, ErrNoStations
	}
	closest := ranked[0]

	points, err := s.fetcher.Fetch(ctx, closest.Station, DetailDays)
	if err != nil {
		return nil, &FetchError{StationID: closest.Station.ID, Err: err}
	}

	distance := closest.Distance
	return &ClosestResult{
		Lat:     lat,
		Lon:     lon,
		Station: s.view(closest.Station, &distance, points),
	}, nil
}

// GetByID returns the station with the given id and DetailDays of predictions.
func (s *Service) GetByID(ctx context.Context, id string) (*StationView, error) {
	if id == "" {
		return nil, &ValidationError{Field: "id", Message: "must not be empty"}
	}

	st, ok := s.directory.Lookup(id)
	if !ok {
		return nil, ErrStationNotFound
	}

	points, err := s.fetcher.Fetch(ctx, st, DetailDays)
	if err != nil {
		return nil, &FetchError{StationID: st.ID, Err: err}
	}

	view := s.view(st, nil, points)
	return &view, nil
}

// view renders st for output. Both upstream names go through the same
// normalization so they read alike.
func (s *Service) view(st stations.Station, distance *float64, points []predictions.Point) StationView {
	return StationView{
		ID:          st.ID,
		Name:        names.Normalize(st.Name),
		CommonName:  names.Normalize(st.CommonName),
		Lat:         st.Lat,
		Lon:         st.Lon,
		State:       st.State,
		Region:      st.Region,
		TimeZone:    s.zones.Locate(st.Lat, st.Lon).String(),
		Type:        st.Type(),
		Distance:    distance,
		Predictions: points,
	}
}
