// Package delta finds listings changed on either side since a cursor.
package delta

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/iudanet/listingsync/internal/models"
	"github.com/iudanet/listingsync/internal/remote"
	"github.com/iudanet/listingsync/internal/storage"
)

// Result is the change set of one side.
type Result struct {
	// Records changed records keyed by ChangeRecord.RecordID
	Records map[string]*models.Record
	Changes []models.ChangeRecord
	// Degraded the remote could not filter on the server and the whole table was
	// enumerated, so completeness relies on client-side timestamps
	Degraded bool
}

// Empty reports whether no change was found.
func (r *Result) Empty() bool {
	return len(r.Changes) == 0
}

// Detector queries both sides for changes.
type Detector struct {
	listings storage.ListingStorage
	logger   *slog.Logger
}

// New creates a change detector.
func New(listings storage.ListingStorage, logger *slog.Logger) *Detector {
	return &Detector{
		listings: listings,
		logger:   logger,
	}
}

// ChangesSince returns changes of side after since. The remote side is read
// through api, which the local side does not use.
func (d *Detector) ChangesSince(ctx context.Context, api remote.API, side models.Side, since time.Time) (*Result, error) {
	if side == models.SideRemote {
		return d.RemoteChanges(ctx, api, since)
	}
	return d.LocalChanges(ctx, since)
}

// LocalChanges returns listings whose modified time is after since, keyed by
// local id. Changed fields are those with a field time after since.
func (d *Detector) LocalChanges(ctx context.Context, since time.Time) (*Result, error) {
	recs, err := d.listings.ListListingsModifiedSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query local changes: %w", err)
	}

	res := &Result{Records: make(map[string]*models.Record, len(recs))}
	for _, rec := range recs {
		var changed []string
		for _, name := range slices.Sorted(maps.Keys(rec.Fields)) {
			if rec.FieldTime(name).After(since) {
				changed = append(changed, name)
			}
		}

		res.Records[rec.ID] = rec
		res.Changes = append(res.Changes, models.ChangeRecord{
			RecordID:      rec.ID,
			Source:        models.SideLocal,
			ChangedFields: changed,
			ChangedAt:     rec.ModifiedAt,
		})
	}

	return res, nil
}

// RemoteChanges returns remote records modified after since, keyed by remote id.
// Changed fields are computed against the merge base of the linked listing.
func (d *Detector) RemoteChanges(ctx context.Context, api remote.API, since time.Time) (*Result, error) {
	res := &Result{}

	recs, err := api.ListRecords(ctx, remote.ListOptions{ModifiedSince: &since})
	if errors.Is(err, remote.ErrFilterUnsupported) {
		d.logger.Warn("Remote rejected modified-since filter, enumerating whole table",
			"since", since)
		res.Degraded = true

		recs, err = api.ListRecords(ctx, remote.ListOptions{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query remote changes: %w", err)
	}

	res.Records = make(map[string]*models.Record, len(recs))
	for _, rec := range recs {
		if res.Degraded && !rec.ModifiedAt.After(since) {
			continue
		}

		changed, err := d.changedRemoteFields(ctx, rec)
		if err != nil {
			return nil, err
		}
		if len(changed) == 0 {
			// отражение нашей же записи: значения совпадают с базой
			continue
		}

		res.Records[rec.RemoteID] = rec
		res.Changes = append(res.Changes, models.ChangeRecord{
			RecordID:      rec.RemoteID,
			Source:        models.SideRemote,
			ChangedFields: changed,
			ChangedAt:     rec.ModifiedAt,
		})
	}

	slices.SortStableFunc(res.Changes, func(a, b models.ChangeRecord) int {
		return a.ChangedAt.Compare(b.ChangedAt)
	})

	return res, nil
}

func (d *Detector) changedRemoteFields(ctx context.Context, rec *models.Record) ([]string, error) {
	names := slices.Sorted(maps.Keys(rec.Fields))

	local, err := d.listings.GetListingByRemoteID(ctx, rec.RemoteID)
	if err != nil {
		if errors.Is(err, storage.ErrListingNotFound) {
			// Новая для нас запись: изменены все поля
			return names, nil
		}
		return nil, fmt.Errorf("failed to load linked listing: %w", err)
	}

	var changed []string
	for _, name := range names {
		base, ok := local.Synced[name]
		if !ok || !models.ValuesEqual(base, rec.Fields[name]) {
			changed = append(changed, name)
		}
	}
	return changed, nil
}
