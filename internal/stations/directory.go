package stations

import (
	"context"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tideline/tideline/internal/telemetry"
	"github.com/tideline/tideline/pkg/geo"
)

// Provider defines the interface for station directory providers.
type Provider interface {
	// FetchStations fetches the complete list of stations.
	FetchStations(ctx context.Context) ([]Station, error)

	// Name returns the provider name for logging and metrics.
	Name() string
}

// DirectoryConfig holds configuration for the station directory.
type DirectoryConfig struct {
	// Provider is the upstream station list provider.
	Provider Provider

	// Logger for directory operations.
	Logger zerolog.Logger

	// Metrics records provider calls. Optional.
	Metrics *telemetry.ProviderMetrics

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Directory is the process-wide station cache.
//
// Readers never lock: the current snapshot is published through an atomic
// pointer and replaced wholesale by Refresh, so a reader sees either the old
// or the new snapshot in full.
type Directory struct {
	provider Provider
	logger   zerolog.Logger
	metrics  *telemetry.ProviderMetrics
	now      func() time.Time

	snapshot atomic.Pointer[Snapshot]

	// refreshes collapses overlapping Refresh calls into one upstream fetch.
	refreshes singleflight.Group

	statusMu      sync.RWMutex
	lastAttemptAt time.Time
	lastError     string
}

// NewDirectory creates an empty directory. Call Refresh to load it.
func NewDirectory(cfg DirectoryConfig) *Directory {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Directory{
		provider: cfg.Provider,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		now:      now,
	}
}

// Refresh fetches the full station list and atomically replaces the snapshot.
// On failure the previous snapshot stays in place and the error is logged and
// returned; callers reading the directory never see it.
//
// A Refresh that starts while another is in flight waits for that one and
// shares its result instead of fetching again. No lock is held during the
// fetch.
func (d *Directory) Refresh(ctx context.Context) error {
	_, err, _ := d.refreshes.Do("refresh", func() (interface{}, error) {
		return nil, d.refresh(ctx)
	})
	return err
}

func (d *Directory) refresh(ctx context.Context) error {
	start := d.now()
	d.logger.Debug().Str("provider", d.provider.Name()).Msg("refreshing station directory")

	list, err := d.provider.FetchStations(ctx)
	if err == nil && len(list) == 0 {
		err = ErrEmptyStationList
	}
	d.metrics.RecordRequest(d.provider.Name(), "fetch_stations", d.now().Sub(start), err)

	if err != nil {
		d.setStatus(start, err)

		event := d.logger.Error().Err(err).Str("provider", d.provider.Name())
		if prev := d.snapshot.Load(); prev != nil {
			event = event.
				Int("stations", prev.Len()).
				Time("fetched_at", prev.FetchedAt).
				Dur("age", d.now().Sub(prev.FetchedAt))
		}
		event.Msg("station directory refresh failed, keeping previous snapshot")
		return err
	}

	snap := NewSnapshot(d.provider.Name(), list, d.now())
	d.snapshot.Store(snap)
	d.setStatus(start, nil)
	d.metrics.RecordStationCount(snap.Len())

	d.logger.Info().
		Int("stations", snap.Len()).
		Dur("duration", d.now().Sub(start)).
		Msg("station directory refreshed")

	return nil
}

// Replace installs a snapshot built from list without contacting the provider.
func (d *Directory) Replace(list []Station) {
	name := ""
	if d.provider != nil {
		name = d.provider.Name()
	}
	d.snapshot.Store(NewSnapshot(name, list, d.now()))
}

// Ready reports whether a snapshot has been loaded.
func (d *Directory) Ready() bool {
	return d.snapshot.Load() != nil
}

// Lookup returns the station with the given id from the current snapshot.
func (d *Directory) Lookup(id string) (Station, bool) {
	snap := d.snapshot.Load()
	if snap == nil {
		return Station{}, false
	}
	return snap.Lookup(id)
}

// All returns every station in the current snapshot, in snapshot order.
func (d *Directory) All() []Station {
	snap := d.snapshot.Load()
	if snap == nil {
		return nil
	}
	return snap.Stations()
}

// Nearest returns up to limit stations ordered by ascending distance from p.
// Ties keep snapshot order. A non-positive limit returns nil.
func (d *Directory) Nearest(p geo.Point, limit int) []Ranked {
	snap := d.snapshot.Load()
	if snap == nil || limit <= 0 {
		return nil
	}

	ranked := make([]Ranked, len(snap.stations))
	for i, st := range snap.stations {
		ranked[i] = Ranked{Station: st, Distance: geo.Distance(p, st.Point())}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return sortKey(ranked[i].Distance) < sortKey(ranked[j].Distance)
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// sortKey pushes stations with unusable coordinates to the end.
func sortKey(distance float64) float64 {
	if math.IsNaN(distance) {
		return math.Inf(1)
	}
	return distance
}

// Status describes the directory's current state.
type Status struct {
	Loaded          bool
	StationCount    int
	Provider        string
	LastRefreshedAt time.Time
	LastAttemptAt   time.Time
	LastError       string
}

// Status returns a point-in-time description of the directory.
func (d *Directory) Status() Status {
	d.statusMu.RLock()
	status := Status{
		LastAttemptAt: d.lastAttemptAt,
		LastError:     d.lastError,
	}
	d.statusMu.RUnlock()

	if snap := d.snapshot.Load(); snap != nil {
		status.Loaded = true
		status.StationCount = snap.Len()
		status.Provider = snap.Provider
		status.LastRefreshedAt = snap.FetchedAt
	}
	return status
}

func (d *Directory) setStatus(attemptAt time.Time, err error) {
	d.statusMu.Lock()
	defer d.statusMu.Unlock()

	d.lastAttemptAt = attemptAt
	d.lastError = ""
	if err != nil {
		d.lastError = err.Error()
	}
}
