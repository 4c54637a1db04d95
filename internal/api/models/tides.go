package models

// StationType is the prediction method of a station.
type StationType string

const (
	StationTypeHarmonic    StationType = "harmonic"
	StationTypeSubordinate StationType = "subordinate"
)

// PredictionType is a high or low tide.
type PredictionType string

const (
	PredictionTypeHigh PredictionType = "high"
	PredictionTypeLow  PredictionType = "low"
)

// Station is a tide station's public fields.
type Station struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	CommonName string      `json:"commonName"`
	Lat        float64     `json:"lat"`
	Lon        float64     `json:"lon"`
	State      string      `json:"state"`
	Region     string      `json:"region"`
	TimeZone   string      `json:"timeZone"`
	Distance   *float64    `json:"distance,omitempty"`
	Type       StationType `json:"type"`
}

// Prediction is a predicted high or low tide.
type Prediction struct {
	Type     PredictionType `json:"type"`
	Height   float64        `json:"height"`
	Time     Timestamp      `json:"time"`
	UnixTime int64          `json:"unixTime"`
}

// StationWithPredictions is a station with its prediction window.
type StationWithPredictions struct {
	Station
	Predictions []Prediction `json:"predictions"`
}

// StationList is the response for GET /all.
type StationList struct {
	Stations []Station `json:"stations"`
}

// NearbyStations is the response for GET /near/{lat},{lon}.
type NearbyStations struct {
	Lat      float64                  `json:"lat"`
	Lon      float64                  `json:"lon"`
	Stations []StationWithPredictions `json:"stations"`
}

// ClosestStation is the response for GET /closest/{lat},{lon}.
type ClosestStation struct {
	Lat     float64                `json:"lat"`
	Lon     float64                `json:"lon"`
	Station StationWithPredictions `json:"station"`
}
