package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// EventPruner is the part of the event service the scheduler needs.
type EventPruner interface {
	PruneEvents(ctx context.Context, before time.Time) (int64, error)
}

// Scheduler periodically removes events older than the retention window.
type Scheduler struct {
	pruner    EventPruner
	schedule  cron.Schedule
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	nextRunAt time.Time
	done      chan struct{}
	stopped   chan struct{}
}

// NewScheduler creates a scheduler that prunes on the standard cron
// expression expr. Descriptors such as "@hourly" and "@every 10m" are accepted.
func NewScheduler(pruner EventPruner, expr string, retention time.Duration) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", expr, err)
	}
	return &Scheduler{
		pruner:    pruner,
		schedule:  schedule,
		retention: retention,
		interval:  time.Minute,
		now:       time.Now,
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}, nil
}

// Run starts the scheduler's ticking loop. It returns after Stop.
func (s *Scheduler) Run() {
	defer close(s.stopped)

	log.Info().Dur("retention", s.retention).Msg("Starting event retention scheduler")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run once immediately on start
	s.nextRunAt = s.now()
	s.checkAndRun()

	for {
		select {
		case <-s.done:
			log.Info().Msg("Stopping event retention scheduler")
			return
		case <-ticker.C:
			s.checkAndRun()
		}
	}
}

// Stop halts the scheduler and waits for Run to return.
func (s *Scheduler) Stop() {
	close(s.done)
	<-s.stopped
}

// checkAndRun prunes when the next scheduled time has passed.
func (s *Scheduler) checkAndRun() {
	now := s.now()
	if now.Before(s.nextRunAt) {
		return
	}
	s.nextRunAt = s.schedule.Next(now)

	removed, err := s.Prune(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("Scheduler: failed to prune events")
		return
	}
	log.Info().Int64("removed", removed).Time("next_run_at", s.nextRunAt).Msg("Scheduler: pruned events")
}

// Prune removes events older than the retention window. Zero retention keeps everything.
func (s *Scheduler) Prune(ctx context.Context) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	return s.pruner.PruneEvents(ctx, s.now().Add(-s.retention))
}
