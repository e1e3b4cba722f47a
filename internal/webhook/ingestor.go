// Package webhook applies push notifications from the remote store to the
// local listing store, one record per delivery.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/listingsync/internal/fields"
	"github.com/iudanet/listingsync/internal/ledger"
	"github.com/iudanet/listingsync/internal/merge"
	"github.com/iudanet/listingsync/internal/models"
	"github.com/iudanet/listingsync/internal/storage"
)

// jobPrefix префикс job id в журнале ошибок для вебхуков
const jobPrefix = "webhook:"

// Action is what a delivery did to the local store.
type Action string

const (
	ActionCreated  Action = "created"
	ActionUpdated  Action = "updated"
	ActionUnlinked Action = "unlinked"
	ActionSkipped  Action = "skipped"
)

// Result итог обработки одного вебхука
type Result struct {
	EventID       string   `json:"event_id"`
	RecordID      string   `json:"record_id"`
	ListingID     string   `json:"listing_id,omitempty"`
	Action        Action   `json:"action"`
	ChangedFields []string `json:"changed_fields,omitempty"`
	Conflicts     []string `json:"conflicts,omitempty"`
	Processed     int      `json:"processed"`
	Duplicate     bool     `json:"duplicate"`
}

// ConfigSource returns the stored connection config.
type ConfigSource interface {
	Config(ctx context.Context) (models.ConnectionConfig, error)
}

// MediaSyncer reconciles attachments of listings.
type MediaSyncer interface {
	SyncForRecords(ctx context.Context, listingIDs []string, mediaTypes []string) (map[string]models.MediaResult, error)
}

// Ingestor validates and applies webhook deliveries. Deliveries may be
// processed concurrently with each other and with a running job.
type Ingestor struct {
	store    storage.Storage
	configs  ConfigSource
	registry *fields.Holder
	ledger   *ledger.Ledger
	media    MediaSyncer
	logger   *slog.Logger
	records  *keyLock
	now      func() time.Time
}

// NewIngestor creates a new webhook ingestor
func NewIngestor(
	store storage.Storage,
	configs ConfigSource,
	registry *fields.Holder,
	ledger *ledger.Ledger,
	media MediaSyncer,
	logger *slog.Logger,
) *Ingestor {
	return &Ingestor{
		store:    store,
		configs:  configs,
		registry: registry,
		ledger:   ledger,
		media:    media,
		logger:   logger,
		records:  newKeyLock(),
		now:      time.Now,
	}
}

// Process validates raw and applies it. Malformed payloads return
// models.ErrWebhookInvalid and never reach the merge. A delivery that was
// already processed is a successful no-op.
func (i *Ingestor) Process(ctx context.Context, raw []byte, signature string) (*Result, error) {
	payload, err := ParsePayload(raw)
	if err != nil {
		return nil, err
	}

	cfg, err := i.configs.Config(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.WebhookSecret != "" {
		if err := VerifySignature(cfg.WebhookSecret, raw, signature); err != nil {
			return nil, err
		}
	}
	if payload.BaseID != "" && cfg.BaseID != "" && payload.BaseID != cfg.BaseID {
		return nil, fmt.Errorf("%w: base %q is not configured", models.ErrWebhookInvalid, payload.BaseID)
	}
	if payload.Table != "" && cfg.TableName != "" && payload.Table != cfg.TableName {
		return nil, fmt.Errorf("%w: table %q is not configured", models.ErrWebhookInvalid, payload.Table)
	}

	// Доставки разных записей идут параллельно, одной записи по очереди
	unlock := i.records.Lock(payload.Record.ID)
	defer unlock()

	event := &models.WebhookEvent{
		ID:               uuid.New().String(),
		EventType:        models.WebhookEventType(payload.EventType),
		RecordID:         payload.Record.ID,
		RemoteModifiedAt: payload.Record.LastModified,
		ReceivedAt:       i.now(),
		Payload:          raw,
	}

	stored, inserted, err := i.store.InsertWebhookEvent(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("failed to store webhook event: %w", err)
	}

	result := &Result{EventID: stored.ID, RecordID: stored.RecordID, Action: ActionSkipped}
	if !inserted && stored.Processed {
		i.logger.Info("Duplicate webhook delivery ignored",
			"event_id", stored.ID,
			"record_id", stored.RecordID)
		result.Duplicate = true
		return result, nil
	}

	if err := i.apply(ctx, payload, result); err != nil {
		i.logger.Error("Webhook processing failed",
			"event_id", stored.ID,
			"record_id", stored.RecordID,
			"error", err)
		if lerr := i.ledger.AppendError(ctx, jobPrefix+stored.ID, stored.RecordID, err.Error()); lerr != nil {
			i.logger.Error("Failed to append ledger error", "event_id", stored.ID, "error", lerr)
		}
		return nil, fmt.Errorf("failed to process webhook event %s: %w", stored.ID, err)
	}

	marked, err := i.store.MarkWebhookProcessed(ctx, stored.ID, i.now())
	if err != nil {
		return nil, fmt.Errorf("failed to mark webhook event processed: %w", err)
	}
	if !marked {
		// Параллельная доставка того же события успела раньше
		result.Duplicate = true
		return result, nil
	}

	result.Processed = 1
	i.logger.Info("Webhook processed",
		"event_id", stored.ID,
		"record_id", stored.RecordID,
		"event_type", payload.EventType,
		"action", result.Action,
		"changed_fields", len(result.ChangedFields))

	return result, nil
}

func (i *Ingestor) apply(ctx context.Context, payload *Payload, result *Result) error {
	local, err := i.store.GetListingByRemoteID(ctx, payload.Record.ID)
	if err != nil && !errors.Is(err, storage.ErrListingNotFound) {
		return fmt.Errorf("failed to load linked listing: %w", err)
	}

	if payload.EventType == string(models.WebhookDeleted) {
		if local == nil {
			return nil
		}
		// Содержимое листинга остается, снимается только связь
		if err := i.store.UnlinkRemote(ctx, local.ID); err != nil {
			return fmt.Errorf("failed to unlink listing: %w", err)
		}
		result.ListingID = local.ID
		result.Action = ActionUnlinked
		return nil
	}

	mapper := merge.New(i.registry.Get(), i.logger)
	res := mapper.Merge(merge.Input{
		Local:     local,
		Remote:    payload.ToRecord(),
		Target:    models.SideLocal,
		Initiator: models.SideRemote,
		// Вебхук несет только измененные поля, очистка приходит явным null
		Partial: true,
	})
	result.Conflicts = res.Conflicts
	result.ChangedFields = slices.Sorted(maps.Keys(res.Fields))

	if local == nil {
		created := &models.Record{
			ID:            uuid.New().String(),
			RemoteID:      payload.Record.ID,
			Fields:        res.Fields,
			FieldModified: res.FieldTimes,
			Synced:        maps.Clone(res.Fields),
			CreatedAt:     payload.Record.LastModified,
			ModifiedAt:    payload.Record.LastModified,
		}
		if err := i.store.CreateListing(ctx, created); err != nil {
			return fmt.Errorf("failed to create listing: %w", err)
		}
		result.ListingID = created.ID
		result.Action = ActionCreated
		i.syncMedia(ctx, created.ID, res)
		return nil
	}

	result.ListingID = local.ID
	if !res.Empty() {
		if err := i.store.ApplySyncedFields(ctx, local.ID, res.Fields, res.FieldTimes); err != nil {
			return fmt.Errorf("failed to apply remote fields: %w", err)
		}
		result.Action = ActionUpdated
	}
	i.syncMedia(ctx, local.ID, res)

	return nil
}

// syncMedia сверяет вложения, на которые ссылается вебхук. Ошибки вложений
// пишутся в журнал и не проваливают доставку.
func (i *Ingestor) syncMedia(ctx context.Context, listingID string, res merge.Result) {
	if len(res.MediaRefs) == 0 || i.media == nil {
		return
	}

	results, err := i.media.SyncForRecords(ctx, []string{listingID}, nil)
	if err != nil {
		i.logger.Warn("Webhook media sync skipped", "listing_id", listingID, "error", err)
		return
	}
	for _, msg := range results[listingID].Errors {
		if err := i.ledger.AppendError(ctx, jobPrefix+"media", listingID, msg); err != nil {
			i.logger.Error("Failed to append ledger error", "listing_id", listingID, "error", err)
		}
	}
}
