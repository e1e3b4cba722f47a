package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/listingsync/internal/models"
	"github.com/iudanet/listingsync/internal/storage"
)

// AcquireLock takes the job lock for jobID until expiresAt
func (s *Storage) AcquireLock(ctx context.Context, jobID string, now, expiresAt time.Time) (*models.JobLease, *models.JobLease, error) {
	var lease, previous *models.JobLease

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getLock(ctx, tx)
		if err != nil {
			return err
		}

		if current.Held(now) {
			return storage.ErrLockHeld
		}
		if current.JobID != "" {
			// Lock просрочен: забираем его, предыдущий владелец возвращается вызывающему
			previous = current
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE sync_lock
			SET job_id = ?, version = version + 1, acquired_at = ?, expires_at = ?
			WHERE id = 1 AND version = ?
		`, jobID, timeToMillis(now), timeToMillis(expiresAt), current.Version)
		if err != nil {
			return fmt.Errorf("failed to acquire lock: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return storage.ErrLockHeld
		}

		lease = &models.JobLease{
			JobID:      jobID,
			Version:    current.Version + 1,
			AcquiredAt: millisToTime(timeToMillis(now)),
			ExpiresAt:  millisToTime(timeToMillis(expiresAt)),
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return lease, previous, nil
}

// RenewLock extends the lock if it is still held by jobID at version
func (s *Storage) RenewLock(ctx context.Context, jobID string, version int64, expiresAt time.Time) (*models.JobLease, error) {
	var lease *models.JobLease

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE sync_lock
			SET version = version + 1, expires_at = ?
			WHERE id = 1 AND job_id = ? AND version = ?
		`, timeToMillis(expiresAt), jobID, version)
		if err != nil {
			return fmt.Errorf("failed to renew lock: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return storage.ErrLockLost
		}

		lease, err = getLock(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	return lease, nil
}

// ReleaseLock clears the lock if it is held by jobID
func (s *Storage) ReleaseLock(ctx context.Context, jobID string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sync_lock
		SET job_id = '', version = version + 1, expires_at = 0
		WHERE id = 1 AND job_id = ?
	`, jobID)
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrLockLost
	}

	return nil
}

// GetLock returns the current lock row
func (s *Storage) GetLock(ctx context.Context) (*models.JobLease, error) {
	return getLock(ctx, s.db)
}

func getLock(ctx context.Context, q querier) (*models.JobLease, error) {
	lease := &models.JobLease{}
	var acquiredAt, expiresAt int64

	err := q.QueryRowContext(ctx,
		`SELECT job_id, version, acquired_at, expires_at FROM sync_lock WHERE id = 1`,
	).Scan(&lease.JobID, &lease.Version, &acquiredAt, &expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to read lock: %w", err)
	}

	lease.AcquiredAt = millisToTime(acquiredAt)
	lease.ExpiresAt = millisToTime(expiresAt)

	return lease, nil
}

const jobColumns = `id, kind, direction, force_full, status, error_kind, error_message,
	stats, changes_processed, degraded, started_at, heartbeat_at, finished_at`

// CreateJob inserts a new job row
func (s *Storage) CreateJob(ctx context.Context, job *models.SyncJob) error {
	stats, err := json.Marshal(job.Stats)
	if err != nil {
		return fmt.Errorf("failed to encode job stats: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO sync_jobs (`+jobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		string(job.Kind),
		string(job.Direction),
		boolToInt(job.ForceFull),
		string(job.Status),
		string(job.ErrorKind),
		job.ErrorMessage,
		string(stats),
		job.ChangesProcessed,
		boolToInt(job.Degraded),
		timeToMillis(job.StartedAt),
		timeToMillis(job.HeartbeatAt),
		timePtrToNull(job.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}

	return nil
}

// UpdateJob overwrites a running job row
func (s *Storage) UpdateJob(ctx context.Context, job *models.SyncJob) error {
	stats, err := json.Marshal(job.Stats)
	if err != nil {
		return fmt.Errorf("failed to encode job stats: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE sync_jobs
		SET status = ?, error_kind = ?, error_message = ?, stats = ?,
		    changes_processed = ?, degraded = ?, heartbeat_at = ?, finished_at = ?
		WHERE id = ? AND status = ?
	`,
		string(job.Status),
		string(job.ErrorKind),
		job.ErrorMessage,
		string(stats),
		job.ChangesProcessed,
		boolToInt(job.Degraded),
		timeToMillis(job.HeartbeatAt),
		timePtrToNull(job.FinishedAt),
		job.ID,
		string(models.JobStatusRunning),
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		if _, err := s.GetJob(ctx, job.ID); err != nil {
			return err
		}
		return storage.ErrJobFinished
	}

	return nil
}

// GetJob retrieves job by ID
func (s *Storage) GetJob(ctx context.Context, id string) (*models.SyncJob, error) {
	job, err := scanJob(s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM sync_jobs WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// ListJobs returns latest jobs first
func (s *Storage) ListJobs(ctx context.Context, limit int) ([]*models.SyncJob, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM sync_jobs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.SyncJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return jobs, nil
}

// LastJobWithStatus returns the most recently started job with the status
func (s *Storage) LastJobWithStatus(ctx context.Context, status models.JobStatus) (*models.SyncJob, error) {
	job, err := scanJob(s.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM sync_jobs WHERE status = ? ORDER BY started_at DESC, rowid DESC LIMIT 1`,
		string(status),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get last job: %w", err)
	}
	return job, nil
}

func scanJob(row rowScanner) (*models.SyncJob, error) {
	job := &models.SyncJob{}
	var (
		kind, direction, status, errorKind string
		stats                              string
		forceFull, degraded                int
		startedAt, heartbeatAt             int64
		finishedAt                         sql.NullInt64
	)

	err := row.Scan(
		&job.ID,
		&kind,
		&direction,
		&forceFull,
		&status,
		&errorKind,
		&job.ErrorMessage,
		&stats,
		&job.ChangesProcessed,
		&degraded,
		&startedAt,
		&heartbeatAt,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(stats), &job.Stats); err != nil {
		return nil, fmt.Errorf("failed to decode job stats: %w", err)
	}

	job.Kind = models.JobKind(kind)
	job.Direction = models.Direction(direction)
	job.Status = models.JobStatus(status)
	job.ErrorKind = models.ErrorKind(errorKind)
	job.ForceFull = intToBool(forceFull)
	job.Degraded = intToBool(degraded)
	job.StartedAt = millisToTime(startedAt)
	job.HeartbeatAt = millisToTime(heartbeatAt)
	job.FinishedAt = nullMillisToTime(finishedAt)

	return job, nil
}

// GetCursor returns cursor of a direction, zero time if never set
func (s *Storage) GetCursor(ctx context.Context, dir models.Direction) (models.Cursor, error) {
	cursor := models.Cursor{Direction: dir}
	var ts int64

	err := s.db.QueryRowContext(ctx,
		`SELECT last_synced_at FROM sync_cursors WHERE direction = ?`, string(dir),
	).Scan(&ts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return cursor, nil
		}
		return cursor, fmt.Errorf("failed to get cursor: %w", err)
	}

	cursor.LastSyncedAt = millisToTime(ts)
	return cursor, nil
}

// SetCursor stores cursor of a direction
func (s *Storage) SetCursor(ctx context.Context, cursor models.Cursor) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_cursors (direction, last_synced_at) VALUES (?, ?)
		ON CONFLICT(direction) DO UPDATE SET last_synced_at = excluded.last_synced_at
	`, string(cursor.Direction), timeToMillis(cursor.LastSyncedAt))
	if err != nil {
		return fmt.Errorf("failed to set cursor: %w", err)
	}
	return nil
}

// AppendError appends entry to the error log and fills its ID
func (s *Storage) AppendError(ctx context.Context, entry *models.LedgerError) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_errors (job_id, record_id, message, created_at) VALUES (?, ?, ?, ?)`,
		entry.JobID, entry.RecordID, entry.Message, timeToMillis(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to append error: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get error id: %w", err)
	}
	entry.ID = id

	return nil
}

// ListErrors returns latest error entries first
func (s *Storage) ListErrors(ctx context.Context, limit int) ([]*models.LedgerError, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_id, record_id, message, created_at FROM sync_errors ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query errors: %w", err)
	}
	defer rows.Close()

	var entries []*models.LedgerError
	for rows.Next() {
		e := &models.LedgerError{}
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.JobID, &e.RecordID, &e.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan error: %w", err)
		}
		e.CreatedAt = millisToTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return entries, nil
}

// CountErrorsSince returns the number of error entries created after since
func (s *Storage) CountErrorsSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sync_errors WHERE created_at > ?`, timeToMillis(since),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count errors: %w", err)
	}
	return n, nil
}
