// Package scheduler runs a recurring job on a fixed period with an
// explicit start/stop lifecycle.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Job is one unit of scheduled work. The job owns its internal failure
// isolation; an error return here only gets logged.
type Job func(ctx context.Context) error

// Scheduler fires a job on every tick of a fixed interval. Runs never
// overlap: a tick that arrives while the job is still running is dropped
// by the ticker.
type Scheduler struct {
	name     string
	interval time.Duration
	job      Job
	logger   zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a scheduler for the given job.
func New(name string, interval time.Duration, job Job, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		name:     name,
		interval: interval,
		job:      job,
		logger:   logger,
	}
}

// Start launches the periodic loop. It returns immediately; the job runs
// on a background goroutine until Stop is called or ctx is cancelled.
// Starting an already started scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx)

	s.logger.Info().
		Str("job", s.name).
		Dur("interval", s.interval).
		Msg("scheduler started")
}

// Stop halts the loop and waits for an in-flight run to finish. Stopping
// a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done

	s.logger.Info().Str("job", s.name).Msg("scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	start := time.Now()

	if err := s.job(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}

		s.logger.Error().
			Err(err).
			Str("job", s.name).
			Msg("scheduled job failed")

		return
	}

	s.logger.Debug().
		Str("job", s.name).
		Dur("took", time.Since(start)).
		Msg("scheduled job completed")
}
