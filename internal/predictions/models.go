// Package predictions fetches high/low tide predictions for a station and
// converts upstream local timestamps into zone-aware instants.
package predictions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// TimeLayout is the upstream local timestamp format. It carries no offset.
	TimeLayout = "2006-01-02 15:04"

	// DateLayout is the upstream begin_date format.
	DateLayout = "20060102"
)

// ErrMalformedPrediction is returned when an upstream point cannot be parsed.
var ErrMalformedPrediction = errors.New("malformed prediction")

// Kind is a predicted tide extreme.
type Kind string

const (
	KindHigh Kind = "high"
	KindLow  Kind = "low"
)

// KindFromCode maps the upstream discriminator to a Kind.
func KindFromCode(code string) (Kind, error) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "H":
		return KindHigh, nil
	case "L":
		return KindLow, nil
	default:
		return "", fmt.Errorf("%w: unknown type %q", ErrMalformedPrediction, code)
	}
}

// Point is a single predicted high or low tide.
type Point struct {
	Kind   Kind
	Height float64
	Time   time.Time
}

// Request describes one upstream predictions query.
type Request struct {
	StationID  string
	BeginDate  string
	RangeHours int
}

// RawPrediction is an upstream point before parsing.
type RawPrediction struct {
	Time  string
	Type  string
	Value string
}

// Provider defines the interface for prediction data providers.
type Provider interface {
	// FetchPredictions returns the raw points for a request, in upstream order.
	FetchPredictions(ctx context.Context, req Request) ([]RawPrediction, error)

	// Name returns the provider name for logging and metrics.
	Name() string
}
