// Package ledger owns durable sync state: the job lease, job history,
// per-direction cursors and the append-only error log.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/listingsync/internal/models"
	"github.com/iudanet/listingsync/internal/storage"
)

// DefaultLeaseTTL время жизни lease без продления
const DefaultLeaseTTL = 2 * time.Minute

// Ledger is the only writer of cursors and the error log.
type Ledger struct {
	store  storage.LedgerStorage
	logger *slog.Logger
	now    func() time.Time
	ttl    time.Duration
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLeaseTTL sets how long a lease lives without a heartbeat.
func WithLeaseTTL(ttl time.Duration) Option {
	return func(l *Ledger) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// New creates a ledger over store.
func New(store storage.LedgerStorage, logger *slog.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		logger: logger,
		now:    time.Now,
		ttl:    DefaultLeaseTTL,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LeaseTTL returns how long a lease lives without a heartbeat.
func (l *Ledger) LeaseTTL() time.Duration {
	return l.ttl
}

// Now returns the ledger clock.
func (l *Ledger) Now() time.Time {
	return l.now()
}

// AcquireLease takes the job lease for jobID.
// Returns models.ErrSyncAlreadyInProgress while another live job holds it.
// An expired lease is taken over and its job is marked Failed as abandoned.
func (l *Ledger) AcquireLease(ctx context.Context, jobID string) (*Lease, error) {
	now := l.now()

	current, previous, err := l.store.AcquireLock(ctx, jobID, now, now.Add(l.ttl))
	if err != nil {
		if errors.Is(err, storage.ErrLockHeld) {
			return nil, models.ErrSyncAlreadyInProgress
		}
		return nil, fmt.Errorf("failed to acquire job lease: %w", err)
	}

	if previous != nil {
		l.logger.Warn("Took over expired job lease",
			"job_id", jobID,
			"previous_job_id", previous.JobID,
			"expired_at", previous.ExpiresAt)
		if err := l.abandon(ctx, previous.JobID, now); err != nil {
			l.logger.Error("Failed to mark abandoned job",
				"job_id", previous.JobID,
				"error", err)
		}
	}

	return &Lease{ledger: l, jobID: jobID, current: *current}, nil
}

// abandon переводит задачу, чей lease истек, в Failed
func (l *Ledger) abandon(ctx context.Context, jobID string, now time.Time) error {
	job, err := l.store.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			return nil
		}
		return err
	}
	if job.Status.Terminal() {
		return nil
	}

	job.Status = models.JobStatusFailed
	job.ErrorKind = models.ErrorKindAbandoned
	job.ErrorMessage = "job lease expired without completion"
	job.FinishedAt = &now

	if err := l.store.UpdateJob(ctx, job); err != nil && !errors.Is(err, storage.ErrJobFinished) {
		return err
	}
	return nil
}

// ActiveLease returns the live lease or nil when no job runs.
func (l *Ledger) ActiveLease(ctx context.Context) (*models.JobLease, error) {
	lease, err := l.store.GetLock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read job lease: %w", err)
	}
	if !lease.Held(l.now()) {
		return nil, nil
	}
	return lease, nil
}

// StartJob persists a new running job.
func (l *Ledger) StartJob(ctx context.Context, job *models.SyncJob) error {
	now := l.now()
	job.Status = models.JobStatusRunning
	job.StartedAt = now
	job.HeartbeatAt = now
	job.Stats = models.SyncStats{}

	if err := l.store.CreateJob(ctx, job); err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// Checkpoint renews the lease and persists job progress.
func (l *Ledger) Checkpoint(ctx context.Context, lease *Lease, job *models.SyncJob) error {
	if err := lease.Heartbeat(ctx); err != nil {
		return err
	}

	job.HeartbeatAt = l.now()
	if err := l.store.UpdateJob(ctx, job); err != nil {
		if errors.Is(err, storage.ErrJobFinished) {
			return fmt.Errorf("%w: job %s was finished elsewhere", models.ErrLeaseLost, job.ID)
		}
		return fmt.Errorf("failed to checkpoint job: %w", err)
	}
	return nil
}

// FinishJob moves job to Completed when cause is nil and to Failed otherwise.
func (l *Ledger) FinishJob(ctx context.Context, job *models.SyncJob, cause error) error {
	now := l.now()
	job.FinishedAt = &now
	job.HeartbeatAt = now

	if cause == nil {
		job.Status = models.JobStatusCompleted
	} else {
		job.Status = models.JobStatusFailed
		job.ErrorKind = models.KindOf(cause)
		job.ErrorMessage = cause.Error()
	}

	if err := l.store.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("failed to finish job: %w", err)
	}

	l.logger.Info("Sync job finished",
		"job_id", job.ID,
		"kind", job.Kind,
		"direction", job.Direction,
		"status", job.Status,
		"error_kind", job.ErrorKind,
		"duration", job.Duration(now),
		"processed", job.Stats.TotalProcessed,
		"errors", job.Stats.Errors)

	return nil
}

// Job returns a job by id.
func (l *Ledger) Job(ctx context.Context, id string) (*models.SyncJob, error) {
	return l.store.GetJob(ctx, id)
}

// Jobs returns the latest jobs first.
func (l *Ledger) Jobs(ctx context.Context, limit int) ([]*models.SyncJob, error) {
	return l.store.ListJobs(ctx, limit)
}

// LastJob returns the most recent job with status or nil.
func (l *Ledger) LastJob(ctx context.Context, status models.JobStatus) (*models.SyncJob, error) {
	job, err := l.store.LastJobWithStatus(ctx, status)
	if err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return job, nil
}

// LastCompletedJob returns the most recent completed job or nil.
func (l *Ledger) LastCompletedJob(ctx context.Context) (*models.SyncJob, error) {
	return l.LastJob(ctx, models.JobStatusCompleted)
}

// Cursor returns the last successful sync time of dir, zero if never synced.
func (l *Ledger) Cursor(ctx context.Context, dir models.Direction) (time.Time, error) {
	c, err := l.store.GetCursor(ctx, dir)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read cursor: %w", err)
	}
	return c.LastSyncedAt, nil
}

// AdvanceCursor moves the cursor of dir forward to at. A cursor never moves back.
func (l *Ledger) AdvanceCursor(ctx context.Context, dir models.Direction, at time.Time) error {
	current, err := l.Cursor(ctx, dir)
	if err != nil {
		return err
	}
	if !at.After(current) {
		return nil
	}

	if err := l.store.SetCursor(ctx, models.Cursor{Direction: dir, LastSyncedAt: at}); err != nil {
		return fmt.Errorf("failed to advance cursor: %w", err)
	}
	return nil
}

// HoldCursor sets the cursor of dir to at, moving it back when needed, so
// that records changed after at are enumerated again by the next delta job.
func (l *Ledger) HoldCursor(ctx context.Context, dir models.Direction, at time.Time) error {
	if err := l.store.SetCursor(ctx, models.Cursor{Direction: dir, LastSyncedAt: at}); err != nil {
		return fmt.Errorf("failed to hold cursor: %w", err)
	}
	l.logger.Info("Cursor held before failed records", "direction", dir, "cursor", at)
	return nil
}

// AppendError appends a record-level error to the log.
func (l *Ledger) AppendError(ctx context.Context, jobID, recordID, message string) error {
	entry := &models.LedgerError{
		JobID:     jobID,
		RecordID:  recordID,
		Message:   message,
		CreatedAt: l.now(),
	}
	if err := l.store.AppendError(ctx, entry); err != nil {
		return fmt.Errorf("failed to append ledger error: %w", err)
	}
	return nil
}

// RecentErrors returns the latest error entries first.
func (l *Ledger) RecentErrors(ctx context.Context, limit int) ([]*models.LedgerError, error) {
	return l.store.ListErrors(ctx, limit)
}

// CountErrorsSince returns the number of error entries after since.
func (l *Ledger) CountErrorsSince(ctx context.Context, since time.Time) (int, error) {
	return l.store.CountErrorsSince(ctx, since)
}
