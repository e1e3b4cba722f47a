package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iudanet/listingsync/internal/models"
	"github.com/iudanet/listingsync/internal/storage"
)

// Lease is a held job lease. Every renewal bumps its version, so a job that
// lost the lease finds out on its next heartbeat.
type Lease struct {
	ledger  *Ledger
	jobID   string
	current models.JobLease
	mu      sync.Mutex
}

// JobID returns the owning job id.
func (l *Lease) JobID() string {
	return l.jobID
}

// Snapshot returns the last known lease row.
func (l *Lease) Snapshot() models.JobLease {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Heartbeat extends the lease by the ledger TTL.
// Returns models.ErrLeaseLost when another job took it over.
func (l *Lease) Heartbeat(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	renewed, err := l.ledger.store.RenewLock(ctx, l.jobID, l.current.Version, l.ledger.now().Add(l.ledger.ttl))
	if err != nil {
		if errors.Is(err, storage.ErrLockLost) {
			return fmt.Errorf("%w: job %s", models.ErrLeaseLost, l.jobID)
		}
		return fmt.Errorf("failed to renew job lease: %w", err)
	}

	l.current = *renewed
	return nil
}

// KeepAlive renews the lease every interval until the returned stop is called.
// Renewal failures are logged; the job notices a lost lease at its next checkpoint.
func (l *Lease) KeepAlive(ctx context.Context, interval time.Duration) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := l.Heartbeat(ctx); err != nil && ctx.Err() == nil {
					l.ledger.logger.Warn("Job lease heartbeat failed",
						"job_id", l.jobID,
						"error", err)
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// Release frees the lease. A lease already taken over is not an error.
func (l *Lease) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ledger.store.ReleaseLock(ctx, l.jobID); err != nil {
		if errors.Is(err, storage.ErrLockLost) {
			l.ledger.logger.Warn("Job lease was taken over before release",
				"job_id", l.jobID)
			return nil
		}
		return fmt.Errorf("failed to release job lease: %w", err)
	}
	return nil
}
