// Package scheduler runs background jobs on a cron schedule.
package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps a cron runner for periodic background jobs. All
// schedules are evaluated in UTC.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// New creates a stopped scheduler. Call Add to register jobs, then Start.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		logger: logger,
	}
}

// Add registers job to run per spec, a standard five-field cron
// expression ("0 6 * * *") or a descriptor ("@every 12h").
func (s *Scheduler) Add(spec string, job func()) error {
	if job == nil {
		return fmt.Errorf("scheduler: nil job")
	}
	if _, err := s.cron.AddFunc(spec, job); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	s.logger.Info("job scheduled", "spec", spec)
	return nil
}

// Start launches the cron runner in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the runner and waits for any running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
