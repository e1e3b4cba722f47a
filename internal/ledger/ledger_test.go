package ledger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/listingsync/internal/models"
	"github.com/iudanet/listingsync/internal/storage/sqlite"
)

type fakeClock struct {
	t  time.Time
	mu sync.Mutex
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func setupTestLedger(t *testing.T) (*Ledger, *fakeClock) {
	t.Helper()

	db, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

	return New(db, logger, WithLeaseTTL(time.Minute), WithClock(clock.Now)), clock
}

func startJob(t *testing.T, l *Ledger, id string) (*models.SyncJob, *Lease) {
	t.Helper()
	ctx := context.Background()

	lease, err := l.AcquireLease(ctx, id)
	require.NoError(t, err)

	job := &models.SyncJob{ID: id, Kind: models.JobKindFull, Direction: models.DirectionBoth}
	require.NoError(t, l.StartJob(ctx, job))
	return job, lease
}

func TestLedger_LeaseIsExclusive(t *testing.T) {
	ctx := context.Background()
	l, _ := setupTestLedger(t)

	_, lease := startJob(t, l, "job-1")

	_, err := l.AcquireLease(ctx, "job-2")
	assert.ErrorIs(t, err, models.ErrSyncAlreadyInProgress)

	active, err := l.ActiveLease(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "job-1", active.JobID)

	require.NoError(t, lease.Release(ctx))

	active, err = l.ActiveLease(ctx)
	require.NoError(t, err)
	assert.Nil(t, active)

	_, err = l.AcquireLease(ctx, "job-2")
	assert.NoError(t, err)
}

func TestLedger_ExpiredLeaseIsTakenOver(t *testing.T) {
	ctx := context.Background()
	l, clock := setupTestLedger(t)

	stale, staleLease := startJob(t, l, "job-1")

	// Процесс "упал": heartbeat не приходит дольше TTL
	clock.Advance(2 * time.Minute)

	active, err := l.ActiveLease(ctx)
	require.NoError(t, err)
	assert.Nil(t, active, "expired lease is not reported as active")

	_, lease := startJob(t, l, "job-2")
	assert.Equal(t, "job-2", lease.JobID())

	got, err := l.Job(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, got.Status)
	assert.Equal(t, models.ErrorKindAbandoned, got.ErrorKind)
	require.NotNil(t, got.FinishedAt)

	// Старый владелец узнает о потере lease
	err = staleLease.Heartbeat(ctx)
	assert.ErrorIs(t, err, models.ErrLeaseLost)
	assert.ErrorIs(t, l.Checkpoint(ctx, staleLease, stale), models.ErrLeaseLost)

	// Освобождение чужого lease не ломает нового владельца
	require.NoError(t, staleLease.Release(ctx))
	active, err = l.ActiveLease(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "job-2", active.JobID)
}

func TestLedger_CheckpointAndFinish(t *testing.T) {
	ctx := context.Background()
	l, clock := setupTestLedger(t)

	job, lease := startJob(t, l, "job-1")
	before := lease.Snapshot()

	clock.Advance(50 * time.Second)
	job.Stats.RecordUpdated()
	job.Stats.RecordError()
	require.NoError(t, l.Checkpoint(ctx, lease, job))

	after := lease.Snapshot()
	assert.Greater(t, after.Version, before.Version)
	assert.Equal(t, clock.Now().Add(time.Minute), after.ExpiresAt)

	// Heartbeat продлил lease: через 50 секунд он все еще держится
	clock.Advance(50 * time.Second)
	_, err := l.AcquireLease(ctx, "job-2")
	assert.ErrorIs(t, err, models.ErrSyncAlreadyInProgress)

	stored, err := l.Job(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusRunning, stored.Status)
	assert.Equal(t, 2, stored.Stats.TotalProcessed)

	require.NoError(t, l.FinishJob(ctx, job, nil))
	stored, err = l.Job(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, stored.Status)
	assert.Equal(t, models.ErrorKindNone, stored.ErrorKind)

	last, err := l.LastCompletedJob(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, job.ID, last.ID)

	// Завершенная задача больше не меняется
	job.Stats.RecordUpdated()
	assert.Error(t, l.FinishJob(ctx, job, nil))
}

func TestLedger_FinishJobFailed(t *testing.T) {
	ctx := context.Background()
	l, _ := setupTestLedger(t)

	job, _ := startJob(t, l, "job-1")
	require.NoError(t, l.FinishJob(ctx, job, fmt.Errorf("start: %w", models.ErrConfigInvalid)))

	stored, err := l.Job(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, stored.Status)
	assert.Equal(t, models.ErrorKindConfigInvalid, stored.ErrorKind)
	assert.True(t, stored.Stats.IsZero())

	last, err := l.LastCompletedJob(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	jobs, err := l.Jobs(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestLedger_Cursor(t *testing.T) {
	ctx := context.Background()
	l, clock := setupTestLedger(t)

	c, err := l.Cursor(ctx, models.DirectionLocalToRemote)
	require.NoError(t, err)
	assert.True(t, c.IsZero())

	at := clock.Now()
	require.NoError(t, l.AdvanceCursor(ctx, models.DirectionLocalToRemote, at))
	require.NoError(t, l.AdvanceCursor(ctx, models.DirectionLocalToRemote, at.Add(-time.Hour)))

	c, err = l.Cursor(ctx, models.DirectionLocalToRemote)
	require.NoError(t, err)
	assert.True(t, at.Equal(c), "cursor never moves back")

	other, err := l.Cursor(ctx, models.DirectionRemoteToLocal)
	require.NoError(t, err)
	assert.True(t, other.IsZero())
}

func TestLedger_HoldCursor(t *testing.T) {
	ctx := context.Background()
	l, clock := setupTestLedger(t)

	at := clock.Now()
	require.NoError(t, l.AdvanceCursor(ctx, models.DirectionRemoteToLocal, at))

	// Удержание возвращает курсор назад, в отличие от AdvanceCursor
	held := at.Add(-time.Hour)
	require.NoError(t, l.HoldCursor(ctx, models.DirectionRemoteToLocal, held))

	c, err := l.Cursor(ctx, models.DirectionRemoteToLocal)
	require.NoError(t, err)
	assert.True(t, held.Equal(c))

	require.NoError(t, l.AdvanceCursor(ctx, models.DirectionRemoteToLocal, at))
	c, err = l.Cursor(ctx, models.DirectionRemoteToLocal)
	require.NoError(t, err)
	assert.True(t, at.Equal(c))
}

func TestLedger_Errors(t *testing.T) {
	ctx := context.Background()
	l, clock := setupTestLedger(t)

	require.NoError(t, l.AppendError(ctx, "job-1", "rec1", "first"))
	since := clock.Now()
	clock.Advance(time.Second)
	require.NoError(t, l.AppendError(ctx, "job-1", "rec2", "second"))
	require.NoError(t, l.AppendError(ctx, "webhook:evt", "", "third"))

	n, err := l.CountErrorsSince(ctx, since)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	recent, err := l.RecentErrors(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "third", recent[0].Message)
	assert.Equal(t, "second", recent[1].Message)
	assert.Equal(t, "rec2", recent[1].RecordID)
}

func TestLease_KeepAlive(t *testing.T) {
	l, _ := setupTestLedger(t)
	_, lease := startJob(t, l, "job-1")

	initial := lease.Snapshot().Version
	stop := lease.KeepAlive(context.Background(), 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return lease.Snapshot().Version > initial+1
	}, time.Second, 5*time.Millisecond)

	stop()
	assert.Equal(t, "job-1", lease.Snapshot().JobID)
}
