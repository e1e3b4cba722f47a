package media

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/listingsync/internal/crypto"
	"github.com/iudanet/listingsync/internal/fields"
	"github.com/iudanet/listingsync/internal/models"
	"github.com/iudanet/listingsync/internal/remote"
	"github.com/iudanet/listingsync/internal/remote/remotetest"
	"github.com/iudanet/listingsync/internal/storage/boltdb"
	"github.com/iudanet/listingsync/internal/storage/sqlite"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type staticClients struct {
	api remote.API
	err error
}

func (c staticClients) Client(ctx context.Context) (remote.API, models.ConnectionConfig, error) {
	return c.api, models.ConnectionConfig{}, c.err
}

type testEnv struct {
	db    *sqlite.Storage
	blobs *boltdb.Storage
	store *remotetest.Store
	sync  *Synchronizer
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	blobs, err := boltdb.New(ctx, t.TempDir()+"/media.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = blobs.Close() })

	registry, err := fields.NewRegistry([]models.FieldSpec{
		{Name: "title", Category: models.CategoryManualSync},
		{Name: "photos", Category: models.CategoryMediaSync, MediaType: models.MediaTypeImage},
		{Name: "floor_plan", Category: models.CategoryMediaSync, MediaType: models.MediaTypeDocument},
	})
	require.NoError(t, err)

	store := remotetest.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

	return &testEnv{
		db:    db,
		blobs: blobs,
		store: store,
		sync:  New(db, db, blobs, staticClients{api: store}, fields.NewHolder(registry), logger),
	}
}

// linkedListing создает локальную запись, связанную с новой remote записью
func (e *testEnv) linkedListing(t *testing.T, remoteFields map[string]any) *models.Record {
	t.Helper()

	remoteID := e.store.Put(&models.Record{Fields: remoteFields})
	rec := &models.Record{
		ID:         uuid.New().String(),
		RemoteID:   remoteID,
		Fields:     map[string]any{"title": "House"},
		ModifiedAt: time.Now(),
	}
	require.NoError(t, e.db.CreateListing(context.Background(), rec))
	return rec
}

func TestSynchronizer_PullsAndSkipsOnSecondRun(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)

	photo := append(append([]byte{}, pngHeader...), []byte("front")...)
	url := env.store.PutAsset(photo)
	listing := env.linkedListing(t, map[string]any{
		"photos": remote.AttachmentValue([]remote.Attachment{
			{ID: "att1", URL: url, Filename: "front.png", Type: "image/png", Size: int64(len(photo))},
		}),
	})

	results, err := env.sync.SyncForRecords(ctx, []string{listing.ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.MediaResult{Synced: 1}, results[listing.ID])

	assets, err := env.sync.Assets(ctx, listing.ID, "photos")
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "att1", assets[0].RemoteAssetID)
	assert.Equal(t, crypto.Fingerprint(photo), assets[0].Fingerprint)
	assert.Equal(t, assets[0].Fingerprint, assets[0].UploadedFingerprint)

	data, _, err := env.blobs.GetBlob(ctx, assets[0].Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, photo, data)

	// Связь и отпечаток совпадают: повторная передача не нужна
	results, err = env.sync.SyncForRecords(ctx, []string{listing.ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.MediaResult{Skipped: 1}, results[listing.ID])
}

func TestSynchronizer_RedownloadsWhenRemoteSizeChanges(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)

	v1 := []byte("plan v1")
	url := env.store.PutAsset(v1)
	listing := env.linkedListing(t, map[string]any{
		"floor_plan": remote.AttachmentValue([]remote.Attachment{
			{ID: "att1", URL: url, Filename: "plan.pdf", Size: int64(len(v1))},
		}),
	})

	_, err := env.sync.SyncForRecords(ctx, []string{listing.ID}, nil)
	require.NoError(t, err)

	v2 := []byte("plan version 2")
	url2 := env.store.PutAsset(v2)
	rec := env.store.Get(listing.RemoteID)
	rec.Fields["floor_plan"] = remote.AttachmentValue([]remote.Attachment{
		{ID: "att1", URL: url2, Filename: "plan.pdf", Size: int64(len(v2))},
	})
	env.store.Put(rec)

	results, err := env.sync.SyncForRecords(ctx, []string{listing.ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, results[listing.ID].Synced)

	assets, err := env.sync.Assets(ctx, listing.ID, "floor_plan")
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, crypto.Fingerprint(v2), assets[0].Fingerprint)
}

func TestSynchronizer_UploadsLocalAssets(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)

	listing := env.linkedListing(t, map[string]any{"title": "House"})

	photo := append(append([]byte{}, pngHeader...), []byte("kitchen")...)
	asset, err := env.sync.AddLocal(ctx, listing.ID, "photos", "kitchen.png", photo)
	require.NoError(t, err)
	assert.Equal(t, "image/png", asset.MimeType)
	assert.Empty(t, asset.RemoteAssetID)

	results, err := env.sync.SyncForRecords(ctx, []string{listing.ID}, []string{models.MediaTypeImage})
	require.NoError(t, err)
	assert.Equal(t, models.MediaResult{Synced: 1}, results[listing.ID])

	atts := remote.ParseAttachments(env.store.Get(listing.RemoteID).Fields["photos"])
	require.Len(t, atts, 1)
	assert.Equal(t, "kitchen.png", atts[0].Filename)

	assets, err := env.sync.Assets(ctx, listing.ID, "photos")
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, atts[0].ID, assets[0].RemoteAssetID)

	// Второй прогон ничего не выгружает
	results, err = env.sync.SyncForRecords(ctx, []string{listing.ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.MediaResult{Skipped: 1}, results[listing.ID])
	assert.Len(t, remote.ParseAttachments(env.store.Get(listing.RemoteID).Fields["photos"]), 1)
}

func TestSynchronizer_MediaTypeFilter(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)

	doc := []byte("plan")
	listing := env.linkedListing(t, map[string]any{
		"floor_plan": remote.AttachmentValue([]remote.Attachment{
			{ID: "att1", URL: env.store.PutAsset(doc), Filename: "plan.pdf", Size: int64(len(doc))},
		}),
	})

	results, err := env.sync.SyncForRecords(ctx, []string{listing.ID}, []string{models.MediaTypeImage})
	require.NoError(t, err)
	assert.Equal(t, models.MediaResult{}, results[listing.ID])
}

func TestSynchronizer_FailuresAreReportedPerRecord(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)

	good := []byte("good")
	ok := env.linkedListing(t, map[string]any{
		"floor_plan": remote.AttachmentValue([]remote.Attachment{
			{ID: "att1", URL: env.store.PutAsset(good), Filename: "a.pdf", Size: 4},
			{ID: "att2", URL: "mem://missing", Filename: "b.pdf", Size: 4},
		}),
	})

	unlinked := &models.Record{ID: uuid.New().String(), Fields: map[string]any{"title": "x"}}
	require.NoError(t, env.db.CreateListing(ctx, unlinked))

	results, err := env.sync.SyncForRecords(ctx, []string{ok.ID, unlinked.ID, "missing"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, results[ok.ID].Synced)
	assert.Equal(t, 1, results[ok.ID].Failed)
	require.Len(t, results[ok.ID].Errors, 1)
	assert.Contains(t, results[ok.ID].Errors[0], "b.pdf")

	assert.Equal(t, 1, results[unlinked.ID].Failed)
	assert.Equal(t, 1, results["missing"].Failed)
}

func TestSynchronizer_AddLocalValidation(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)
	listing := env.linkedListing(t, nil)

	_, err := env.sync.AddLocal(ctx, listing.ID, "title", "a.png", pngHeader)
	assert.ErrorIs(t, err, ErrNotMediaField)

	_, err = env.sync.AddLocal(ctx, listing.ID, "photos", "a.txt", []byte("plain text"))
	assert.ErrorIs(t, err, ErrMediaTypeMismatch)

	_, err = env.sync.AddLocal(ctx, "missing", "photos", "a.png", pngHeader)
	assert.ErrorIs(t, err, models.ErrNotFound)

	asset, err := env.sync.AddLocal(ctx, listing.ID, "floor_plan", "", []byte("any bytes"))
	require.NoError(t, err)
	assert.NotEmpty(t, asset.Filename)
}

func TestSynchronizer_Cleanup(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)
	listing := env.linkedListing(t, nil)

	_, err := env.sync.AddLocal(ctx, listing.ID, "floor_plan", "plan.pdf", []byte("kept"))
	require.NoError(t, err)

	orphan := []byte("orphan blob")
	_, _, err = env.blobs.PutBlob(ctx, orphan, "application/pdf")
	require.NoError(t, err)

	plan, err := env.sync.PlanCleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{crypto.Fingerprint(orphan)}, plan.Fingerprints)
	assert.Equal(t, int64(len(orphan)), plan.Bytes)

	// Новый осиротевший blob меняет план
	_, _, err = env.blobs.PutBlob(ctx, []byte("another"), "application/pdf")
	require.NoError(t, err)

	_, err = env.sync.ExecuteCleanup(ctx, plan.Token)
	assert.ErrorIs(t, err, ErrCleanupPlanChanged)

	blobs, err := env.blobs.ListBlobs(ctx)
	require.NoError(t, err)
	assert.Len(t, blobs, 3, "nothing is deleted without a matching plan")

	plan, err = env.sync.PlanCleanup(ctx)
	require.NoError(t, err)
	executed, err := env.sync.ExecuteCleanup(ctx, plan.Token)
	require.NoError(t, err)
	assert.Len(t, executed.Fingerprints, 2)

	blobs, err = env.blobs.ListBlobs(ctx)
	require.NoError(t, err)
	require.Len(t, blobs, 1)
	assert.Equal(t, crypto.Fingerprint([]byte("kept")), blobs[0].Fingerprint)
}

func TestSynchronizer_ClientUnavailable(t *testing.T) {
	env := setupTestEnv(t)
	env.sync.clients = staticClients{err: models.ErrConfigInvalid}

	_, err := env.sync.SyncForRecords(context.Background(), []string{"x"}, nil)
	assert.ErrorIs(t, err, models.ErrConfigInvalid)
}

func TestSynchronizer_Pending(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)

	withAsset := env.linkedListing(t, nil)
	without := env.linkedListing(t, nil)

	_, err := env.sync.AddLocal(ctx, withAsset.ID, "floor_plan", "plan.pdf", []byte("plan"))
	require.NoError(t, err)

	pending, err := env.sync.Pending(ctx, []string{withAsset.ID, without.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{withAsset.ID}, pending)

	_, err = env.sync.SyncForRecords(ctx, []string{withAsset.ID}, nil)
	require.NoError(t, err)

	pending, err = env.sync.Pending(ctx, []string{withAsset.ID, without.ID})
	require.NoError(t, err)
	assert.Empty(t, pending)
}
