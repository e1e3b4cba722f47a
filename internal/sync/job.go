package sync

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/listingsync/internal/delta"
	"github.com/iudanet/listingsync/internal/ledger"
	"github.com/iudanet/listingsync/internal/merge"
	"github.com/iudanet/listingsync/internal/models"
	"github.com/iudanet/listingsync/internal/remote"
)

// jobRun состояние одной выполняющейся задачи. Принадлежит одной горутине.
type jobRun struct {
	svc    *service
	job    *models.SyncJob
	lease  *ledger.Lease
	api    remote.API
	mapper *merge.Mapper
	cfg    models.ConnectionConfig

	// remoteRecords remote состояние записей, известное задаче, по remote id
	remoteRecords map[string]*models.Record
	// pull remote id записей для входящего прохода
	pull map[string]struct{}
	// media листинги, вложения которых нужно сверить после проходов
	media map[string]struct{}
	// linked обработанные листинги, связанные с remote записью
	linked map[string]struct{}

	// holdLocal/holdRemote время изменения самой ранней записи, которую не
	// удалось синхронизировать в этом направлении; курсор не уходит дальше
	holdLocal  *time.Time
	holdRemote *time.Time

	connFailures int
}

// RunFullSync runs a full job in the given direction.
func (s *service) RunFullSync(ctx context.Context, direction models.Direction, forceFull bool) (*models.SyncJob, error) {
	if !direction.Valid() {
		return nil, fmt.Errorf("%w: unknown direction %q", models.ErrInvalidRequest, direction)
	}

	return s.runJob(ctx, &models.SyncJob{
		Kind:      models.JobKindFull,
		Direction: direction,
		ForceFull: forceFull,
	}, func(ctx context.Context, run *jobRun) error {
		return run.full(ctx)
	})
}

// RunDeltaSync runs a delta job in both directions.
func (s *service) RunDeltaSync(ctx context.Context, since *time.Time) (*models.SyncJob, error) {
	return s.runJob(ctx, &models.SyncJob{
		Kind:      models.JobKindDelta,
		Direction: models.DirectionBoth,
	}, func(ctx context.Context, run *jobRun) error {
		return run.delta(ctx, since)
	})
}

// runJob проводит задачу по состояниям Idle → Running → Completed|Failed.
func (s *service) runJob(ctx context.Context, job *models.SyncJob, body func(context.Context, *jobRun) error) (*models.SyncJob, error) {
	job.ID = uuid.New().String()

	lease, err := s.ledger.AcquireLease(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Error("Failed to release job lease", "job_id", job.ID, "error", err)
		}
	}()

	stop := lease.KeepAlive(ctx, s.ledger.LeaseTTL()/3)
	defer stop()

	if err := s.ledger.StartJob(ctx, job); err != nil {
		return nil, err
	}

	s.logger.Info("Sync job started",
		"job_id", job.ID,
		"kind", job.Kind,
		"direction", job.Direction,
		"force_full", job.ForceFull)

	cause := s.execute(ctx, job, lease, body)
	if cause != nil {
		s.logger.Error("Sync job failed",
			"job_id", job.ID,
			"error_kind", models.KindOf(cause),
			"error", cause)
	}

	if err := s.ledger.FinishJob(context.WithoutCancel(ctx), job, cause); err != nil {
		return job, err
	}

	return job, nil
}

func (s *service) execute(ctx context.Context, job *models.SyncJob, lease *ledger.Lease, body func(context.Context, *jobRun) error) error {
	// Конфигурация проверяется до первой записи: задача с неверной
	// конфигурацией завершается Failed с нулевой статистикой
	api, cfg, err := s.clients.Client(ctx)
	if err != nil {
		return err
	}

	run := &jobRun{
		svc:           s,
		job:           job,
		lease:         lease,
		api:           api,
		cfg:           cfg,
		mapper:        merge.New(s.registry.Get(), s.logger),
		remoteRecords: make(map[string]*models.Record),
		pull:          make(map[string]struct{}),
		media:         make(map[string]struct{}),
		linked:        make(map[string]struct{}),
	}

	if err := body(ctx, run); err != nil {
		return err
	}

	run.syncMedia(ctx)

	return nil
}

// full: исходящий проход целиком предшествует входящему.
func (r *jobRun) full(ctx context.Context) error {
	outbound := r.job.Direction != models.DirectionRemoteToLocal
	inbound := r.job.Direction != models.DirectionLocalToRemote

	localSince, err := r.since(ctx, models.DirectionLocalToRemote)
	if err != nil {
		return err
	}
	remoteSince, err := r.since(ctx, models.DirectionRemoteToLocal)
	if err != nil {
		return err
	}

	if err := r.loadRemote(ctx, remoteSince); err != nil {
		return err
	}

	if outbound {
		var locals []*models.Record
		if localSince.IsZero() {
			locals, err = r.svc.store.ListListings(ctx)
		} else {
			locals, err = r.svc.store.ListListingsModifiedSince(ctx, localSince)
		}
		if err != nil {
			return fmt.Errorf("failed to load local listings: %w", err)
		}

		r.job.ChangesProcessed += len(locals)
		if err := r.outbound(ctx, locals); err != nil {
			return err
		}
	}

	if inbound {
		r.job.ChangesProcessed += len(r.pull)
		if err := r.inbound(ctx); err != nil {
			return err
		}
	}

	return r.advanceCursors(ctx, outbound, inbound)
}

// since возвращает нижнюю границу выборки: ноль для force_full.
func (r *jobRun) since(ctx context.Context, dir models.Direction) (time.Time, error) {
	if r.job.ForceFull {
		return time.Time{}, nil
	}
	return r.svc.ledger.Cursor(ctx, dir)
}

// loadRemote читает remote записи, измененные после since (все при нулевом since).
func (r *jobRun) loadRemote(ctx context.Context, since time.Time) error {
	var (
		recs []*models.Record
		err  error
	)

	if since.IsZero() {
		recs, err = r.api.ListRecords(ctx, remote.ListOptions{})
	} else {
		var res *delta.Result
		res, err = r.svc.detector.RemoteChanges(ctx, r.api, since)
		if res != nil {
			r.job.Degraded = r.job.Degraded || res.Degraded
			recs = slices.Collect(maps.Values(res.Records))
		}
	}
	if err != nil {
		return fmt.Errorf("failed to enumerate remote records: %w", err)
	}

	for _, rec := range recs {
		r.remoteRecords[rec.RemoteID] = rec
		r.pull[rec.RemoteID] = struct{}{}
	}
	return nil
}

// delta обрабатывает только изменения после курсоров (или после since).
func (r *jobRun) delta(ctx context.Context, since *time.Time) error {
	localSince, remoteSince := time.Time{}, time.Time{}
	if since != nil {
		localSince, remoteSince = *since, *since
	} else {
		var err error
		if localSince, err = r.svc.ledger.Cursor(ctx, models.DirectionLocalToRemote); err != nil {
			return err
		}
		if remoteSince, err = r.svc.ledger.Cursor(ctx, models.DirectionRemoteToLocal); err != nil {
			return err
		}
	}

	local, err := r.svc.detector.LocalChanges(ctx, localSince)
	if err != nil {
		return err
	}
	remoteChanges, err := r.svc.detector.RemoteChanges(ctx, r.api, remoteSince)
	if err != nil {
		return err
	}

	r.job.Degraded = remoteChanges.Degraded
	if remoteChanges.Degraded {
		r.svc.logger.Warn("Delta job enumerated the whole remote table, cursor completeness is reduced",
			"job_id", r.job.ID)
	}

	r.job.ChangesProcessed = len(local.Changes) + len(remoteChanges.Changes)
	if r.job.ChangesProcessed == 0 {
		r.svc.logger.Info("Delta job found no changes", "job_id", r.job.ID)
		return r.advanceCursors(ctx, true, true)
	}

	for id, rec := range remoteChanges.Records {
		r.remoteRecords[id] = rec
		r.pull[id] = struct{}{}
	}

	locals := make([]*models.Record, 0, len(local.Changes))
	for _, ch := range local.Changes {
		locals = append(locals, local.Records[ch.RecordID])
	}

	if err := r.outbound(ctx, locals); err != nil {
		return err
	}
	if err := r.inbound(ctx); err != nil {
		return err
	}

	return r.advanceCursors(ctx, true, true)
}

// advanceCursors переносит курсоры на начало задачи. Если записи направления
// упали, курсор остается перед самой ранней из них, и следующий delta
// повторит их.
func (r *jobRun) advanceCursors(ctx context.Context, outbound, inbound bool) error {
	if outbound {
		if err := r.settleCursor(ctx, models.DirectionLocalToRemote, r.holdLocal); err != nil {
			return err
		}
	}
	if inbound {
		if err := r.settleCursor(ctx, models.DirectionRemoteToLocal, r.holdRemote); err != nil {
			return err
		}
	}
	return nil
}

func (r *jobRun) settleCursor(ctx context.Context, dir models.Direction, hold *time.Time) error {
	if hold == nil {
		return r.svc.ledger.AdvanceCursor(ctx, dir, r.job.StartedAt)
	}

	// Выборки строгие (modified > cursor): курсор на миллисекунду раньше записи
	at := hold.Add(-time.Millisecond)
	if at.After(r.job.StartedAt) {
		at = r.job.StartedAt
	}
	return r.svc.ledger.HoldCursor(ctx, dir, at)
}

// failLocal учитывает ошибку исходящей записи локального листинга.
func (r *jobRun) failLocal(ctx context.Context, local *models.Record, err error) {
	r.recordError(ctx, local.ID, err)
	r.holdLocal = earliest(r.holdLocal, local.ModifiedAt)
}

// failRemote учитывает ошибку входящей remote записи.
func (r *jobRun) failRemote(ctx context.Context, rec *models.Record, err error) {
	r.recordError(ctx, rec.RemoteID, err)
	r.holdRemote = earliest(r.holdRemote, rec.ModifiedAt)
}

func earliest(current *time.Time, at time.Time) *time.Time {
	if current != nil && !at.Before(*current) {
		return current
	}
	return &at
}

// checkpoint сохраняет прогресс после пакета.
func (r *jobRun) checkpoint(ctx context.Context) error {
	return r.svc.ledger.Checkpoint(ctx, r.lease, r.job)
}

// recordError учитывает ошибку записи в статистике и журнале.
func (r *jobRun) recordError(ctx context.Context, recordID string, err error) {
	r.job.Stats.RecordError()

	r.svc.logger.Warn("Record sync failed",
		"job_id", r.job.ID,
		"record_id", recordID,
		"error", err)

	if lerr := r.svc.ledger.AppendError(ctx, r.job.ID, recordID, err.Error()); lerr != nil {
		r.svc.logger.Error("Failed to append ledger error", "job_id", r.job.ID, "error", lerr)
	}
}

// trackBatch считает подряд идущие пакеты, целиком упавшие по связи.
func (r *jobRun) trackBatch(batch *remote.BatchResult) error {
	if !batch.AllConnectivityErrors() {
		r.connFailures = 0
		return nil
	}

	r.connFailures++
	if r.connFailures >= maxConnectivityBatches {
		return fmt.Errorf("%w: %d consecutive batches failed", models.ErrConnectivity, r.connFailures)
	}
	return nil
}

// remoteView возвращает известное remote состояние записи. Если запись не
// менялась на remote стороне после курсора, ее состояние равно базе слияния.
func (r *jobRun) remoteView(local *models.Record) *models.Record {
	if local.RemoteID == "" {
		return nil
	}
	if rec, ok := r.remoteRecords[local.RemoteID]; ok {
		return rec
	}
	return &models.Record{
		RemoteID: local.RemoteID,
		Fields:   maps.Clone(local.Synced),
	}
}

func (r *jobRun) addMedia(listingID string, res *merge.Result) {
	if len(res.MediaRefs) > 0 {
		r.media[listingID] = struct{}{}
	}
}

// syncMedia сверяет вложения затронутых листингов. Ошибки вложений пишутся
// в журнал и не меняют статус задачи.
func (r *jobRun) syncMedia(ctx context.Context) {
	if len(r.registryMedia()) == 0 {
		return
	}

	ids := slices.Sorted(maps.Keys(r.media))

	pending, err := r.svc.media.Pending(ctx, r.touched())
	if err != nil {
		r.svc.logger.Warn("Failed to find pending media", "job_id", r.job.ID, "error", err)
	}
	for _, id := range pending {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return
	}

	results, err := r.svc.media.SyncForRecords(ctx, ids, nil)
	if err != nil {
		r.svc.logger.Warn("Media sync skipped", "job_id", r.job.ID, "error", err)
		return
	}

	for _, id := range slices.Sorted(maps.Keys(results)) {
		res := results[id]
		r.job.Stats.MediaSynced += res.Synced
		for _, msg := range res.Errors {
			if err := r.svc.ledger.AppendError(ctx, r.job.ID, id, "media: "+msg); err != nil {
				r.svc.logger.Error("Failed to append ledger error", "job_id", r.job.ID, "error", err)
			}
		}
	}
}

func (r *jobRun) registryMedia() []models.FieldSpec {
	return r.mapper.Registry().MediaFields()
}

// touched листинги, обработанные задачей и связанные с remote записью
func (r *jobRun) touched() []string {
	return slices.Sorted(maps.Keys(r.linked))
}

func byModified(a, b *models.Record) int {
	if c := a.ModifiedAt.Compare(b.ModifiedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.RemoteID, b.RemoteID)
}
