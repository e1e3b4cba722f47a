package sync

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/iudanet/listingsync/internal/merge"
	"github.com/iudanet/listingsync/internal/models"
	"github.com/iudanet/listingsync/internal/remote"
	"github.com/iudanet/listingsync/internal/storage"
)

// singleJobPrefix префикс job id в журнале ошибок для синхронизации одной записи
const singleJobPrefix = "single:"

// recordSync синхронизация одной записи вне задачи
type recordSync struct {
	svc    *service
	api    remote.API
	mapper *merge.Mapper
	result *SingleRecordResult

	local  *models.Record
	remote *models.Record

	changed   map[string]struct{}
	conflicts map[string]struct{}
}

// SyncSingleRecord syncs one listing addressed by its local or remote id.
// It does not take the job lease: concurrent writes to the same record
// converge through the last-writer-wins merge.
func (s *service) SyncSingleRecord(ctx context.Context, recordID string, direction models.Direction) (*SingleRecordResult, error) {
	if recordID == "" {
		return nil, fmt.Errorf("%w: record id is required", models.ErrInvalidRequest)
	}
	if direction == "" {
		direction = models.DirectionBoth
	}
	if !direction.Valid() {
		return nil, fmt.Errorf("%w: unknown direction %q", models.ErrInvalidRequest, direction)
	}

	api, _, err := s.clients.Client(ctx)
	if err != nil {
		return nil, err
	}

	rs := &recordSync{
		svc:       s,
		api:       api,
		mapper:    merge.New(s.registry.Get(), s.logger),
		result:    &SingleRecordResult{RecordID: recordID},
		changed:   make(map[string]struct{}),
		conflicts: make(map[string]struct{}),
	}

	if err := rs.load(ctx, recordID); err != nil {
		return nil, err
	}

	if err := rs.run(ctx, direction); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		rs.fail(ctx, err)
		return rs.result, nil
	}

	rs.syncMedia(ctx)

	rs.result.ChangedFields = slices.Sorted(maps.Keys(rs.changed))
	rs.result.Conflicts = slices.Sorted(maps.Keys(rs.conflicts))
	rs.result.Outcome = models.OutcomeApplied
	if len(rs.result.Conflicts) > 0 {
		rs.result.Outcome = models.OutcomeConflict
	}

	s.logger.Info("Record synced",
		"record_id", recordID,
		"remote_id", rs.result.RemoteID,
		"direction", direction,
		"outcome", rs.result.Outcome,
		"changed_fields", len(rs.result.ChangedFields))

	return rs.result, nil
}

// load находит обе стороны записи. id может быть локальным или remote.
func (rs *recordSync) load(ctx context.Context, id string) error {
	local, err := rs.svc.store.GetListing(ctx, id)
	if errors.Is(err, storage.ErrListingNotFound) {
		local, err = rs.svc.store.GetListingByRemoteID(ctx, id)
	}
	switch {
	case err == nil:
		rs.local = local
	case !errors.Is(err, storage.ErrListingNotFound):
		return fmt.Errorf("failed to load listing: %w", err)
	}

	remoteID := id
	if rs.local != nil {
		remoteID = rs.local.RemoteID
		rs.result.RecordID = rs.local.ID
	}
	if remoteID == "" {
		return nil
	}

	rec, err := rs.api.GetRecord(ctx, remoteID)
	switch {
	case err == nil:
		rs.remote = rec
		rs.result.RemoteID = rec.RemoteID
	case errors.Is(err, models.ErrNotFound):
		if rs.local == nil {
			return fmt.Errorf("record %s: %w", id, models.ErrNotFound)
		}
		// связь указывает на удаленную remote запись: выгружаем заново
		rs.svc.logger.Warn("Linked remote record not found",
			"record_id", rs.local.ID,
			"remote_id", remoteID)
		rs.local.RemoteID = ""
	default:
		return fmt.Errorf("failed to fetch remote record: %w", err)
	}

	return nil
}

func (rs *recordSync) run(ctx context.Context, direction models.Direction) error {
	if direction != models.DirectionRemoteToLocal && rs.local != nil {
		if err := rs.push(ctx); err != nil {
			return err
		}
	}
	if direction != models.DirectionLocalToRemote && rs.remote != nil {
		if err := rs.pull(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (rs *recordSync) push(ctx context.Context) error {
	res := rs.mapper.Merge(merge.Input{
		Local:     rs.local,
		Remote:    rs.remote,
		Target:    models.SideRemote,
		Initiator: models.SideLocal,
	})
	rs.note(res)
	if res.Empty() {
		return nil
	}

	create := rs.local.RemoteID == ""
	recs := []remote.WriteRecord{{
		Fields:   res.Fields,
		LocalID:  rs.local.ID,
		RemoteID: rs.local.RemoteID,
	}}

	var (
		batch *remote.BatchResult
		err   error
	)
	if create {
		batch, err = rs.api.CreateRecords(ctx, recs)
	} else {
		batch, err = rs.api.UpdateRecords(ctx, recs)
	}
	if err != nil {
		return fmt.Errorf("failed to write remote record: %w", err)
	}
	if len(batch.Items) != 1 {
		return fmt.Errorf("remote returned %d results for one record", len(batch.Items))
	}

	item := batch.Items[0]
	switch item.Outcome {
	case remote.OutcomeSkipped:
		return nil
	case remote.OutcomeErrored:
		return &remote.Error{Result: item.Result}
	}

	if create {
		if err := rs.svc.store.LinkRemote(ctx, rs.local.ID, item.RemoteID); err != nil {
			return fmt.Errorf("failed to link remote record %s: %w", item.RemoteID, err)
		}
	}
	if err := rs.svc.store.MarkSynced(ctx, rs.local.ID, res.Fields); err != nil {
		return fmt.Errorf("failed to mark fields synced: %w", err)
	}

	rs.result.RemoteID = item.RemoteID
	if item.Record != nil {
		rs.remote = item.Record
	}
	for name := range res.Fields {
		rs.changed[name] = struct{}{}
	}
	return nil
}

func (rs *recordSync) pull(ctx context.Context) error {
	// база слияния могла измениться после выгрузки
	local, err := rs.svc.store.GetListingByRemoteID(ctx, rs.remote.RemoteID)
	if err != nil && !errors.Is(err, storage.ErrListingNotFound) {
		return fmt.Errorf("failed to load linked listing: %w", err)
	}

	res := rs.mapper.Merge(merge.Input{
		Local:     local,
		Remote:    rs.remote,
		Target:    models.SideLocal,
		Initiator: models.SideLocal,
	})
	rs.note(res)

	if local == nil {
		created, err := createFromRemote(ctx, rs.svc.store, rs.remote, res)
		if err != nil {
			return err
		}
		rs.local = created
		rs.result.RecordID = created.ID
		for name := range res.Fields {
			rs.changed[name] = struct{}{}
		}
		return nil
	}

	rs.local = local
	if res.Empty() {
		return nil
	}
	if err := rs.svc.store.ApplySyncedFields(ctx, local.ID, res.Fields, res.FieldTimes); err != nil {
		return fmt.Errorf("failed to apply remote fields: %w", err)
	}
	for name := range res.Fields {
		rs.changed[name] = struct{}{}
	}
	return nil
}

func (rs *recordSync) note(res merge.Result) {
	for _, name := range res.Conflicts {
		rs.conflicts[name] = struct{}{}
	}
}

// syncMedia сверяет вложения записи, если она связана и в схеме есть media поля.
func (rs *recordSync) syncMedia(ctx context.Context) {
	if rs.local == nil || rs.result.RemoteID == "" || len(rs.mapper.Registry().MediaFields()) == 0 {
		return
	}

	results, err := rs.svc.media.SyncForRecords(ctx, []string{rs.local.ID}, nil)
	if err != nil {
		rs.svc.logger.Warn("Media sync skipped", "record_id", rs.local.ID, "error", err)
		return
	}
	for _, msg := range results[rs.local.ID].Errors {
		rs.appendError(ctx, "media: "+msg)
	}
}

func (rs *recordSync) fail(ctx context.Context, err error) {
	rs.result.Outcome = models.OutcomeError
	rs.result.Message = err.Error()
	rs.result.ChangedFields = slices.Sorted(maps.Keys(rs.changed))
	rs.result.Conflicts = slices.Sorted(maps.Keys(rs.conflicts))

	rs.svc.logger.Warn("Record sync failed",
		"record_id", rs.result.RecordID,
		"error", err)
	rs.appendError(ctx, err.Error())
}

func (rs *recordSync) appendError(ctx context.Context, message string) {
	jobID := singleJobPrefix + rs.result.RecordID
	if err := rs.svc.ledger.AppendError(ctx, jobID, rs.result.RecordID, message); err != nil {
		rs.svc.logger.Error("Failed to append ledger error", "job_id", jobID, "error", err)
	}
}
