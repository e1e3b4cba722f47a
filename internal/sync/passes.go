package sync

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/iudanet/listingsync/internal/merge"
	"github.com/iudanet/listingsync/internal/models"
	"github.com/iudanet/listingsync/internal/remote"
	"github.com/iudanet/listingsync/internal/storage"
)

// pendingWrite локальная запись и ее слияние для remote стороны
type pendingWrite struct {
	local *models.Record
	res   merge.Result
}

// outbound записывает локальные изменения в remote пакетами по BatchSize.
func (r *jobRun) outbound(ctx context.Context, locals []*models.Record) error {
	var creates, updates []pendingWrite

	for _, local := range locals {
		res := r.mapper.Merge(merge.Input{
			Local:     local,
			Remote:    r.remoteView(local),
			Target:    models.SideRemote,
			Initiator: models.SideLocal,
		})

		if local.RemoteID != "" {
			r.linked[local.ID] = struct{}{}
			r.addMedia(local.ID, &res)
		}

		if res.Empty() {
			r.job.Stats.RecordSkipped()
			continue
		}

		w := pendingWrite{local: local, res: res}
		if local.RemoteID == "" {
			creates = append(creates, w)
		} else {
			updates = append(updates, w)
		}
	}

	r.svc.logger.Info("Outbound pass",
		"job_id", r.job.ID,
		"candidates", len(locals),
		"creates", len(creates),
		"updates", len(updates))

	for chunk := range slices.Chunk(creates, r.cfg.BatchSize) {
		if err := r.writeBatch(ctx, chunk, true); err != nil {
			return err
		}
	}
	for chunk := range slices.Chunk(updates, r.cfg.BatchSize) {
		if err := r.writeBatch(ctx, chunk, false); err != nil {
			return err
		}
	}

	return r.checkpoint(ctx)
}

func (r *jobRun) writeBatch(ctx context.Context, writes []pendingWrite, create bool) error {
	recs := make([]remote.WriteRecord, len(writes))
	for i, w := range writes {
		recs[i] = remote.WriteRecord{
			Fields:   w.res.Fields,
			LocalID:  w.local.ID,
			RemoteID: w.local.RemoteID,
		}
	}

	var (
		batch *remote.BatchResult
		err   error
	)
	if create {
		batch, err = r.api.CreateRecords(ctx, recs)
	} else {
		batch, err = r.api.UpdateRecords(ctx, recs)
	}
	if err != nil {
		return fmt.Errorf("failed to write batch: %w", err)
	}

	for i, item := range batch.Items {
		w := writes[i]

		switch item.Outcome {
		case remote.OutcomeApplied:
			if err := r.applyWritten(ctx, w, item, create); err != nil {
				r.failLocal(ctx, w.local, err)
				continue
			}
			if create {
				r.job.Stats.RecordCreated()
			} else {
				r.job.Stats.RecordUpdated()
			}
		case remote.OutcomeSkipped:
			r.job.Stats.RecordSkipped()
		default:
			r.failLocal(ctx, w.local, &remote.Error{Result: item.Result})
		}
	}

	if err := r.trackBatch(batch); err != nil {
		return err
	}

	return r.checkpoint(ctx)
}

// applyWritten фиксирует успешную запись: связь с remote записью и база слияния.
// Remote состояние после записи заменяет прочитанное до нее.
func (r *jobRun) applyWritten(ctx context.Context, w pendingWrite, item remote.ItemResult, create bool) error {
	if create {
		if err := r.svc.store.LinkRemote(ctx, w.local.ID, item.RemoteID); err != nil {
			return fmt.Errorf("failed to link remote record %s: %w", item.RemoteID, err)
		}
		r.linked[w.local.ID] = struct{}{}
		r.addMedia(w.local.ID, &w.res)
	}

	if err := r.svc.store.MarkSynced(ctx, w.local.ID, w.res.Fields); err != nil {
		return fmt.Errorf("failed to mark fields synced: %w", err)
	}

	if item.Record != nil {
		r.remoteRecords[item.RemoteID] = item.Record
	}
	return nil
}

// inbound применяет remote изменения к локальным записям.
func (r *jobRun) inbound(ctx context.Context) error {
	recs := make([]*models.Record, 0, len(r.pull))
	for id := range r.pull {
		recs = append(recs, r.remoteRecords[id])
	}
	slices.SortFunc(recs, byModified)

	r.svc.logger.Info("Inbound pass",
		"job_id", r.job.ID,
		"records", len(recs))

	for i, rec := range recs {
		if err := r.pullRecord(ctx, rec); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			r.failRemote(ctx, rec, err)
		}

		if (i+1)%r.cfg.BatchSize == 0 {
			if err := r.checkpoint(ctx); err != nil {
				return err
			}
		}
	}

	return r.checkpoint(ctx)
}

func (r *jobRun) pullRecord(ctx context.Context, rec *models.Record) error {
	local, err := r.svc.store.GetListingByRemoteID(ctx, rec.RemoteID)
	if err != nil && !errors.Is(err, storage.ErrListingNotFound) {
		return fmt.Errorf("failed to load linked listing: %w", err)
	}

	res := r.mapper.Merge(merge.Input{
		Local:     local,
		Remote:    rec,
		Target:    models.SideLocal,
		Initiator: models.SideLocal,
	})

	if local == nil {
		created, err := createFromRemote(ctx, r.svc.store, rec, res)
		if err != nil {
			return err
		}
		r.linked[created.ID] = struct{}{}
		r.addMedia(created.ID, &res)
		r.job.Stats.RecordCreated()
		return nil
	}

	r.linked[local.ID] = struct{}{}
	r.addMedia(local.ID, &res)

	if res.Empty() {
		r.job.Stats.RecordSkipped()
		return nil
	}

	if err := r.svc.store.ApplySyncedFields(ctx, local.ID, res.Fields, res.FieldTimes); err != nil {
		return fmt.Errorf("failed to apply remote fields: %w", err)
	}
	r.job.Stats.RecordUpdated()
	return nil
}

// createFromRemote создает локальный листинг для новой remote записи.
func createFromRemote(ctx context.Context, listings storage.ListingStorage, rec *models.Record, res merge.Result) (*models.Record, error) {
	created := &models.Record{
		ID:            uuid.New().String(),
		RemoteID:      rec.RemoteID,
		Fields:        res.Fields,
		FieldModified: res.FieldTimes,
		Synced:        maps.Clone(res.Fields),
		CreatedAt:     rec.CreatedAt,
		ModifiedAt:    rec.ModifiedAt,
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = rec.ModifiedAt
	}

	if err := listings.CreateListing(ctx, created); err != nil {
		return nil, fmt.Errorf("failed to create listing from remote record: %w", err)
	}
	return created, nil
}
