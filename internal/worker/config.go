// Package worker runs background jobs for the tides service.
package worker

import (
	"time"
)

// RefreshConfig holds configuration for the station directory refresh job.
type RefreshConfig struct {
	// Interval between refreshes. The first refresh runs at Start.
	// Default: 24 hours
	Interval time.Duration

	// Timeout bounds a single refresh.
	// Default: 2 minutes
	Timeout time.Duration
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Interval: 24 * time.Hour,
		Timeout:  2 * time.Minute,
	}
}

func (c RefreshConfig) withDefaults() RefreshConfig {
	def := DefaultRefreshConfig()
	if c.Interval <= 0 {
		c.Interval = def.Interval
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	return c
}
