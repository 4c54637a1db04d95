// Package timezone resolves the civil time zone for a geographic coordinate.
package timezone

import (
	"fmt"
	"sync"
	"time"

	"github.com/ringsaturn/tzf"
)

// Finder looks up an IANA time zone name for a coordinate.
// Note the longitude-first argument order, matching tzf.
type Finder interface {
	GetTimezoneName(lng float64, lat float64) string
}

// Resolver maps coordinates to *time.Location values.
// Results are memoized per coordinate so the zone reported for a station's
// metadata always matches the zone used to interpret its predictions.
type Resolver struct {
	finder Finder
	cache  sync.Map // coordKey -> *time.Location
}

type coordKey struct {
	lat float64
	lon float64
}

// NewResolver creates a Resolver backed by the embedded tzf boundary data.
func NewResolver() (*Resolver, error) {
	finder, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("load time zone boundaries: %w", err)
	}
	return NewResolverWithFinder(finder), nil
}

// NewResolverWithFinder creates a Resolver using the given Finder.
func NewResolverWithFinder(finder Finder) *Resolver {
	return &Resolver{finder: finder}
}

// Locate returns the time zone in effect at (lat, lon).
// Coordinates that fall outside every zone polygon, or whose zone name is not
// known to the local tz database, resolve to UTC.
func (r *Resolver) Locate(lat, lon float64) *time.Location {
	key := coordKey{lat: lat, lon: lon}
	if loc, ok := r.cache.Load(key); ok {
		return loc.(*time.Location)
	}

	loc := time.UTC
	if name := r.finder.GetTimezoneName(lon, lat); name != "" {
		if l, err := time.LoadLocation(name); err == nil {
			loc = l
		}
	}

	actual, _ := r.cache.LoadOrStore(key, loc)
	return actual.(*time.Location)
}
