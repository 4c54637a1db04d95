package tides

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below match them with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrStationNotFound = errors.New("station not found")
	ErrNoStations      = errors.New("no stations available")
	ErrFetchFailed     = errors.New("prediction fetch failed")
)

// ValidationError describes rejected request input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// FetchError wraps a failed prediction fetch for one station.
type FetchError struct {
	StationID string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch predictions for station %s: %v", e.StationID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrFetchFailed.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}
