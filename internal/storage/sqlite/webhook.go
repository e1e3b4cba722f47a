package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iudanet/listingsync/internal/models"
)

// InsertWebhookEvent stores event unless a duplicate exists
func (s *Storage) InsertWebhookEvent(ctx context.Context, e *models.WebhookEvent) (*models.WebhookEvent, bool, error) {
	var (
		stored   *models.WebhookEvent
		inserted bool
	)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO webhook_events (
				id, event_type, record_id, remote_modified_at, payload, received_at, processed
			) VALUES (?, ?, ?, ?, ?, ?, 0)
			ON CONFLICT(record_id, remote_modified_at) DO NOTHING
		`,
			e.ID,
			string(e.EventType),
			e.RecordID,
			e.RemoteModifiedAt.UnixNano(),
			e.Payload,
			timeToMillis(e.ReceivedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert webhook event: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		if rows == 1 {
			inserted = true
			stored = e
			return nil
		}

		stored, err = getWebhookEvent(ctx, tx, e.RecordID, e.RemoteModifiedAt)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	return stored, inserted, nil
}

func getWebhookEvent(ctx context.Context, q querier, recordID string, remoteModifiedAt time.Time) (*models.WebhookEvent, error) {
	e := &models.WebhookEvent{}
	var (
		eventType             string
		remoteNanos, received int64
		processed             int
		processedAt           sql.NullInt64
	)

	err := q.QueryRowContext(ctx, `
		SELECT id, event_type, record_id, remote_modified_at, payload, received_at, processed, processed_at
		FROM webhook_events
		WHERE record_id = ? AND remote_modified_at = ?
	`, recordID, remoteModifiedAt.UnixNano()).Scan(
		&e.ID,
		&eventType,
		&e.RecordID,
		&remoteNanos,
		&e.Payload,
		&received,
		&processed,
		&processedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get webhook event: %w", err)
	}

	e.EventType = models.WebhookEventType(eventType)
	e.RemoteModifiedAt = time.Unix(0, remoteNanos).UTC()
	e.ReceivedAt = millisToTime(received)
	e.Processed = intToBool(processed)
	e.ProcessedAt = nullMillisToTime(processedAt)

	return e, nil
}

// MarkWebhookProcessed flips processed from false to true
func (s *Storage) MarkWebhookProcessed(ctx context.Context, id string, at time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE webhook_events SET processed = 1, processed_at = ? WHERE id = ? AND processed = 0`,
		timeToMillis(at), id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark webhook processed: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows == 1, nil
}

// CountUnprocessedWebhooks returns the number of stored but unprocessed events
func (s *Storage) CountUnprocessedWebhooks(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM webhook_events WHERE processed = 0`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count webhook events: %w", err)
	}
	return n, nil
}
