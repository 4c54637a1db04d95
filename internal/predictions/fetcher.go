package predictions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tideline/tideline/internal/stations"
	"github.com/tideline/tideline/internal/telemetry"
)

// ErrInvalidDays is returned when the requested day span is not positive.
var ErrInvalidDays = errors.New("day span must be positive")

// ZoneLocator resolves the civil timezone for a coordinate.
type ZoneLocator interface {
	Locate(lat, lon float64) *time.Location
}

// FetcherConfig holds configuration for the prediction fetcher.
type FetcherConfig struct {
	Provider Provider
	Zones    ZoneLocator
	Logger   zerolog.Logger

	// Metrics records provider calls. Optional.
	Metrics *telemetry.ProviderMetrics

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Fetcher retrieves and parses predictions for one station at a time.
type Fetcher struct {
	provider Provider
	zones    ZoneLocator
	logger   zerolog.Logger
	metrics  *telemetry.ProviderMetrics
	now      func() time.Time
}

// NewFetcher creates a prediction fetcher.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Fetcher{
		provider: cfg.Provider,
		zones:    cfg.Zones,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		now:      now,
	}
}

// Zone returns the civil timezone used for a station.
func (f *Fetcher) Zone(st stations.Station) *time.Location {
	return f.zones.Locate(st.Lat, st.Lon)
}

// Window builds the upstream request for days of forward predictions.
// The window starts on yesterday's date in loc and spans days+2 whole days,
// leaving slack at both edges for the zone conversion.
func (f *Fetcher) Window(stationID string, days int, loc *time.Location) Request {
	yesterday := f.now().In(loc).AddDate(0, 0, -1)
	return Request{
		StationID:  stationID,
		BeginDate:  yesterday.Format(DateLayout),
		RangeHours: 24 * (days + 2),
	}
}

// Fetch returns the predictions for st covering days forward-looking days,
// in upstream order. Any malformed point fails the whole fetch.
func (f *Fetcher) Fetch(ctx context.Context, st stations.Station, days int) ([]Point, error) {
	if days < 1 {
		return nil, ErrInvalidDays
	}

	loc := f.Zone(st)
	req := f.Window(st.ID, days, loc)

	start := time.Now()
	raw, err := f.provider.FetchPredictions(ctx, req)
	var points []Point
	if err == nil {
		points, err = parsePoints(raw, loc)
	}
	f.metrics.RecordRequest(f.provider.Name(), "fetch_predictions", time.Since(start), err)

	if err != nil {
		f.logger.Warn().
			Err(err).
			Str("station_id", st.ID).
			Str("begin_date", req.BeginDate).
			Int("range_hours", req.RangeHours).
			Msg("prediction fetch failed")
		return nil, err
	}

	return points, nil
}

func parsePoints(raw []RawPrediction, loc *time.Location) ([]Point, error) {
	points := make([]Point, 0, len(raw))
	for i, r := range raw {
		t, err := time.ParseInLocation(TimeLayout, strings.TrimSpace(r.Time), loc)
		if err != nil {
			return nil, fmt.Errorf("%w: point %d: time %q", ErrMalformedPrediction, i, r.Time)
		}

		height, err := strconv.ParseFloat(strings.TrimSpace(r.Value), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: point %d: height %q", ErrMalformedPrediction, i, r.Value)
		}

		kind, err := KindFromCode(r.Type)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}

		points = append(points, Point{Kind: kind, Height: height, Time: t})
	}
	return points, nil
}
