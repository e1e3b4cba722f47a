package storage

import (
	"context"
	"time"

	"github.com/iudanet/listingsync/internal/models"
)

// LedgerStorage defines interface for job history, cursors, the job lock and
// the append-only error log
type LedgerStorage interface {
	// AcquireLock takes the job lock for jobID until expiresAt
	// A live lock held by another job returns ErrLockHeld. An expired lock is
	// taken over and returned as previous
	AcquireLock(ctx context.Context, jobID string, now, expiresAt time.Time) (lease *models.JobLease, previous *models.JobLease, err error)

	// RenewLock extends the lock if it is still held by jobID at version
	// Returns ErrLockLost otherwise
	RenewLock(ctx context.Context, jobID string, version int64, expiresAt time.Time) (*models.JobLease, error)

	// ReleaseLock clears the lock if it is held by jobID
	ReleaseLock(ctx context.Context, jobID string) error

	// GetLock returns the current lock row (JobID is empty when free)
	GetLock(ctx context.Context) (*models.JobLease, error)

	// CreateJob inserts a new job row
	CreateJob(ctx context.Context, job *models.SyncJob) error

	// UpdateJob overwrites a running job row
	// Returns ErrJobFinished if the stored row is no longer running
	UpdateJob(ctx context.Context, job *models.SyncJob) error

	// GetJob retrieves job by ID
	// Returns ErrJobNotFound if job doesn't exist
	GetJob(ctx context.Context, id string) (*models.SyncJob, error)

	// ListJobs returns latest jobs first
	ListJobs(ctx context.Context, limit int) ([]*models.SyncJob, error)

	// LastJobWithStatus returns the most recently started job with the status
	// Returns ErrJobNotFound if there is none
	LastJobWithStatus(ctx context.Context, status models.JobStatus) (*models.SyncJob, error)

	// GetCursor returns cursor of a direction, zero time if never set
	GetCursor(ctx context.Context, dir models.Direction) (models.Cursor, error)

	// SetCursor stores cursor of a direction
	SetCursor(ctx context.Context, cursor models.Cursor) error

	// AppendError appends entry to the error log and fills its ID
	AppendError(ctx context.Context, entry *models.LedgerError) error

	// ListErrors returns latest error entries first
	ListErrors(ctx context.Context, limit int) ([]*models.LedgerError, error)

	// CountErrorsSince returns the number of error entries created after since
	CountErrorsSince(ctx context.Context, since time.Time) (int, error)
}
