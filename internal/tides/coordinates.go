package tides

import (
	"math"
	"strconv"
	"strings"

	"github.com/tideline/tideline/pkg/geo"
)

// ParseCoordinates parses a "lat,lon" path segment.
func ParseCoordinates(s string) (float64, float64, error) {
	latStr, lonStr, ok := strings.Cut(s, ",")
	if !ok || strings.Contains(lonStr, ",") {
		return 0, 0, &ValidationError{Field: "coordinates", Message: "expected lat,lon"}
	}

	lat, err := parseDegrees("latitude", latStr)
	if err != nil {
		return 0, 0, err
	}
	lon, err := parseDegrees("longitude", lonStr)
	if err != nil {
		return 0, 0, err
	}

	if _, err := validatePoint(lat, lon); err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

func parseDegrees(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, &ValidationError{Field: field, Message: "must be a decimal number"}
	}
	return v, nil
}

func validatePoint(lat, lon float64) (geo.Point, error) {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return geo.Point{}, &ValidationError{Field: "latitude", Message: "must be between -90 and 90"}
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return geo.Point{}, &ValidationError{Field: "longitude", Message: "must be between -180 and 180"}
	}
	return geo.Point{Lat: lat, Lon: lon}, nil
}
