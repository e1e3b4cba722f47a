package delta

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/listingsync/internal/models"
	"github.com/iudanet/listingsync/internal/remote/remotetest"
	"github.com/iudanet/listingsync/internal/storage/sqlite"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func setupTestDetector(t *testing.T) (*Detector, *sqlite.Storage) {
	t.Helper()

	db, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(db, logger), db
}

func createListing(t *testing.T, db *sqlite.Storage, remoteID string, fields, synced map[string]any, at time.Time) *models.Record {
	t.Helper()

	rec := &models.Record{
		ID:         uuid.New().String(),
		RemoteID:   remoteID,
		Fields:     fields,
		Synced:     synced,
		CreatedAt:  at,
		ModifiedAt: at,
	}
	require.NoError(t, db.CreateListing(context.Background(), rec))
	return rec
}

func TestDetector_LocalChanges(t *testing.T) {
	ctx := context.Background()
	d, db := setupTestDetector(t)

	createListing(t, db, "", map[string]any{"title": "Old"}, nil, t0.Add(-time.Hour))
	edited := createListing(t, db, "", map[string]any{"title": "House", "price": 100}, nil, t0.Add(-time.Hour))
	fresh := createListing(t, db, "", map[string]any{"title": "New"}, nil, t0.Add(time.Minute))

	require.NoError(t, db.EditFields(ctx, edited.ID, map[string]any{"price": 120}, t0.Add(2*time.Minute)))

	res, err := d.ChangesSince(ctx, nil, models.SideLocal, t0)
	require.NoError(t, err)
	require.Len(t, res.Changes, 2)
	assert.False(t, res.Degraded)

	// Порядок по времени изменения
	assert.Equal(t, fresh.ID, res.Changes[0].RecordID)
	assert.Equal(t, []string{"title"}, res.Changes[0].ChangedFields)
	assert.Equal(t, edited.ID, res.Changes[1].RecordID)
	assert.Equal(t, []string{"price"}, res.Changes[1].ChangedFields)
	assert.Equal(t, models.SideLocal, res.Changes[1].Source)
	assert.Contains(t, res.Records, edited.ID)

	future, err := d.LocalChanges(ctx, t0.Add(24*time.Hour))
	require.NoError(t, err)
	assert.True(t, future.Empty())
}

func TestDetector_RemoteChanges(t *testing.T) {
	ctx := context.Background()
	d, db := setupTestDetector(t)
	store := remotetest.New()

	store.Put(&models.Record{RemoteID: "rec_old", ModifiedAt: t0.Add(-time.Hour), Fields: map[string]any{"title": "Old"}})
	store.Put(&models.Record{RemoteID: "rec_new", ModifiedAt: t0.Add(2 * time.Minute), Fields: map[string]any{"title": "New"}})
	store.Put(&models.Record{RemoteID: "rec_linked", ModifiedAt: t0.Add(time.Minute), Fields: map[string]any{"title": "Same", "price": 150.0}})

	createListing(t, db, "rec_linked", map[string]any{"title": "Same", "price": 100.0},
		map[string]any{"title": "Same", "price": 100.0}, t0.Add(-time.Hour))

	// запись, только что выгруженная нами: значения совпадают с базой
	store.Put(&models.Record{RemoteID: "rec_echo", ModifiedAt: t0.Add(3 * time.Minute), Fields: map[string]any{"title": "Echo"}})
	createListing(t, db, "rec_echo", map[string]any{"title": "Echo"},
		map[string]any{"title": "Echo"}, t0.Add(-time.Hour))

	for _, unsupported := range []bool{false, true} {
		store.FilterUnsupported = unsupported

		res, err := d.ChangesSince(ctx, store, models.SideRemote, t0)
		require.NoError(t, err)
		assert.Equal(t, unsupported, res.Degraded)

		require.Len(t, res.Changes, 2)
		assert.Equal(t, "rec_linked", res.Changes[0].RecordID)
		assert.Equal(t, []string{"price"}, res.Changes[0].ChangedFields)
		assert.Equal(t, "rec_new", res.Changes[1].RecordID)
		assert.Equal(t, []string{"title"}, res.Changes[1].ChangedFields)
		assert.Equal(t, models.SideRemote, res.Changes[1].Source)
		assert.NotContains(t, res.Records, "rec_old")
		assert.NotContains(t, res.Records, "rec_echo")
	}
}

func TestDetector_RemoteConnectivity(t *testing.T) {
	d, _ := setupTestDetector(t)
	store := remotetest.New()
	store.Down = true

	_, err := d.RemoteChanges(context.Background(), store, t0)
	assert.ErrorIs(t, err, models.ErrConnectivity)
}
