package storage

import (
	"context"
	"time"

	"github.com/iudanet/listingsync/internal/models"
)

// WebhookStorage defines interface for received webhook events
type WebhookStorage interface {
	// InsertWebhookEvent stores event unless one with the same
	// (record_id, remote_modified_at) exists; then the stored one is returned
	// with inserted=false
	InsertWebhookEvent(ctx context.Context, event *models.WebhookEvent) (stored *models.WebhookEvent, inserted bool, err error)

	// MarkWebhookProcessed flips processed from false to true
	// Returns false if the event was already processed
	MarkWebhookProcessed(ctx context.Context, id string, at time.Time) (bool, error)

	// CountUnprocessedWebhooks returns the number of stored but unprocessed events
	CountUnprocessedWebhooks(ctx context.Context) (int, error)
}
