package tides

import (
	"github.com/tideline/tideline/internal/predictions"
	"github.com/tideline/tideline/internal/stations"
)

// Request sizing.
const (
	// NearLimit is the number of stations returned by FindNear.
	NearLimit = 10
	// NearDays is the forward prediction window for FindNear.
	NearDays = 2
	// DetailDays is the forward prediction window for FindClosest and GetByID.
	DetailDays = 7
)

// StationView is a station in canonical form, optionally with predictions.
type StationView struct {
	ID         string
	Name       string
	CommonName string
	Lat        float64
	Lon        float64
	State      string
	Region     string
	TimeZone   string
	Type       stations.Type

	// Distance in kilometers from the query point; nil outside coordinate queries.
	Distance *float64

	// Predictions in upstream order; nil for directory listings.
	Predictions []predictions.Point
}

// NearbyResult is the response for a nearby-stations query.
type NearbyResult struct {
	Lat      float64
	Lon      float64
	Stations []StationView
}

// ClosestResult is the response for a closest-station query.
type ClosestResult struct {
	Lat     float64
	Lon     float64
	Station StationView
}
