// Package stations maintains the in-memory directory of tide prediction stations.
package stations

import (
	"errors"
	"strings"
	"time"

	"github.com/tideline/tideline/pkg/geo"
)

// ErrEmptyStationList is returned by Refresh when the provider lists no stations.
var ErrEmptyStationList = errors.New("provider returned no stations")

// Type classifies how a station's predictions are produced.
type Type string

const (
	// TypeHarmonic stations have their own harmonic constituents.
	TypeHarmonic Type = "harmonic"
	// TypeSubordinate stations are predicted by offsets from a reference station.
	TypeSubordinate Type = "subordinate"
)

// TypeFromCode maps an upstream station type code to a Type.
// "S" is subordinate; every other code ("R" in practice) is harmonic.
func TypeFromCode(code string) Type {
	if strings.EqualFold(strings.TrimSpace(code), "S") {
		return TypeSubordinate
	}
	return TypeHarmonic
}

// Station is an immutable record from a directory snapshot.
// Names are stored as received from the provider.
type Station struct {
	ID         string
	Name       string
	CommonName string
	Lat        float64
	Lon        float64
	State      string
	Region     string
	TypeCode   string
}

// Point returns the station's location.
func (s Station) Point() geo.Point {
	return geo.Point{Lat: s.Lat, Lon: s.Lon}
}

// Type returns the station's classification.
func (s Station) Type() Type {
	return TypeFromCode(s.TypeCode)
}

// Ranked pairs a station with its distance in kilometers from a query point.
type Ranked struct {
	Station  Station
	Distance float64
}

// Snapshot is one complete, immutable load of the station list.
type Snapshot struct {
	stations  []Station
	index     map[string]int
	FetchedAt time.Time
	Provider  string
}

// NewSnapshot builds a snapshot preserving the order of list.
// When an id appears more than once the first record wins.
func NewSnapshot(provider string, list []Station, fetchedAt time.Time) *Snapshot {
	s := &Snapshot{
		stations:  make([]Station, 0, len(list)),
		index:     make(map[string]int, len(list)),
		FetchedAt: fetchedAt,
		Provider:  provider,
	}
	for _, st := range list {
		if _, dup := s.index[st.ID]; dup {
			continue
		}
		s.index[st.ID] = len(s.stations)
		s.stations = append(s.stations, st)
	}
	return s
}

// Len returns the number of stations in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.stations)
}

// Lookup returns the station with the given id.
func (s *Snapshot) Lookup(id string) (Station, bool) {
	i, ok := s.index[id]
	if !ok {
		return Station{}, false
	}
	return s.stations[i], true
}

// Stations returns a copy of the stations in snapshot order.
func (s *Snapshot) Stations() []Station {
	out := make([]Station, len(s.stations))
	copy(out, s.stations)
	return out
}
