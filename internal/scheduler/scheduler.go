package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Job is one unit of scheduled work.
type Job func(ctx context.Context) error

// Scheduler runs a job with a fixed delay: the next run starts Interval after
// the previous one finished, so runs never overlap.
type Scheduler struct {
	job          Job
	initialDelay time.Duration
	interval     time.Duration
	logger       *slog.Logger
}

// New creates a scheduler. A nil logger discards output.
func New(job Job, initialDelay, interval time.Duration, logger *slog.Logger) (*Scheduler, error) {
	if job == nil {
		return nil, fmt.Errorf("scheduler: job is nil")
	}
	if initialDelay < 0 {
		return nil, fmt.Errorf("scheduler: negative initial delay %s", initialDelay)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("scheduler: interval must be positive, got %s", interval)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{
		job:          job,
		initialDelay: initialDelay,
		interval:     interval,
		logger:       logger.With("component", "scheduler"),
	}, nil
}

// Run blocks until ctx is done. A run in progress is allowed to finish.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler started", "initial_delay", s.initialDelay, "interval", s.interval)

	timer := time.NewTimer(s.initialDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-timer.C:
		}

		s.RunOnce(ctx)
		timer.Reset(s.interval)
	}
}

// RunOnce runs the job once. Errors and recovered panics are logged and returned.
func (s *Scheduler) RunOnce(ctx context.Context) (err error) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job panicked: %v", rec)
		}
		if err != nil {
			s.logger.Error("scheduled run failed", "error", err, "duration", time.Since(start))
			return
		}
		s.logger.Debug("scheduled run finished", "duration", time.Since(start))
	}()

	return s.job(ctx)
}
