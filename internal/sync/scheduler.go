package sync

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/iudanet/listingsync/internal/models"
)

// Scheduler periodically runs delta jobs.
type Scheduler struct {
	service  Service
	logger   *slog.Logger
	interval time.Duration
}

// NewScheduler creates a scheduler; it does nothing until Run is called.
func NewScheduler(service Service, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		service:  service,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is canceled, starting a delta job on every tick.
// A tick that finds another job running is skipped.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Sync scheduler started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sync scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	job, err := s.service.RunDeltaSync(ctx, nil)
	switch {
	case errors.Is(err, models.ErrSyncAlreadyInProgress):
		s.logger.Debug("Scheduled delta sync skipped, job already running")
	case err != nil:
		s.logger.Error("Scheduled delta sync failed to start", "error", err)
	default:
		s.logger.Debug("Scheduled delta sync finished",
			"job_id", job.ID,
			"status", job.Status,
			"changes", job.ChangesProcessed)
	}
}
