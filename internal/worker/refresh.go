package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrAlreadyStarted is returned by Start when the job is already running.
var ErrAlreadyStarted = errors.New("refresh job already started")

// Refresher reloads a cached dataset from its upstream source.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshJob periodically refreshes the station directory.
type RefreshJob struct {
	config    RefreshConfig
	logger    zerolog.Logger
	directory Refresher

	metrics *RefreshMetrics

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalRefreshes      int64
	SuccessfulRefreshes int64
	FailedRefreshes     int64

	// Timings
	LastRefreshAt       time.Time
	LastSuccessAt       time.Time
	LastRefreshDuration time.Duration
	TotalDuration       time.Duration

	LastError string
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config    RefreshConfig
	Logger    zerolog.Logger
	Directory Refresher
}

// NewRefreshJob creates a new refresh job.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	return &RefreshJob{
		config:    cfg.Config.withDefaults(),
		logger:    cfg.Logger,
		directory: cfg.Directory,
		metrics:   &RefreshMetrics{},
	}
}

// RefreshResult contains the result of a refresh operation.
type RefreshResult struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Err       error
}

// Run performs one refresh bounded by the configured timeout.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	result := &RefreshResult{StartTime: time.Now()}
	result.Err = j.directory.Refresh(ctx)
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	j.updateMetrics(result)

	j.logger.Debug().
		Dur("duration", result.Duration).
		Bool("success", result.Err == nil).
		Msg("directory refresh job completed")

	return result
}

// Start runs a refresh immediately and then once per interval until Stop is
// called or ctx is cancelled. A failed refresh does not stop the schedule.
// The first refresh runs in the background; Start does not wait for it.
func (j *RefreshJob) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.done = make(chan struct{})

	j.logger.Info().
		Dur("interval", j.config.Interval).
		Dur("timeout", j.config.Timeout).
		Msg("starting directory refresh job")

	go j.loop(ctx, j.done)
	return nil
}

func (j *RefreshJob) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	j.Run(ctx)

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Run(ctx)
		}
	}
}

// Stop cancels the schedule and waits for an in-flight refresh to return.
// It is safe to call Stop more than once or before Start.
func (j *RefreshJob) Stop() {
	j.mu.Lock()
	cancel, done := j.cancel, j.done
	j.cancel, j.done = nil, nil
	j.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	j.logger.Info().Msg("directory refresh job stopped")
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRefreshes++
	if result.Err != nil {
		j.metrics.FailedRefreshes++
		j.metrics.LastError = result.Err.Error()
	} else {
		j.metrics.SuccessfulRefreshes++
		j.metrics.LastSuccessAt = result.EndTime
		j.metrics.LastError = ""
	}
	j.metrics.LastRefreshAt = result.EndTime
	j.metrics.LastRefreshDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRefreshes:      j.metrics.TotalRefreshes,
		SuccessfulRefreshes: j.metrics.SuccessfulRefreshes,
		FailedRefreshes:     j.metrics.FailedRefreshes,
		LastRefreshAt:       j.metrics.LastRefreshAt,
		LastSuccessAt:       j.metrics.LastSuccessAt,
		LastRefreshDuration: j.metrics.LastRefreshDuration,
		TotalDuration:       j.metrics.TotalDuration,
		LastError:           j.metrics.LastError,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"interval":              j.config.Interval.String(),
		"total_refreshes":       m.TotalRefreshes,
		"successful_refreshes":  m.SuccessfulRefreshes,
		"failed_refreshes":      m.FailedRefreshes,
		"last_refresh_at":       m.LastRefreshAt,
		"last_success_at":       m.LastSuccessAt,
		"last_refresh_duration": m.LastRefreshDuration.String(),
		"total_duration":        m.TotalDuration.String(),
		"last_error":            m.LastError,
	}
}
