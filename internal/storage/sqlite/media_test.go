package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/listingsync/internal/models"
)

func TestMediaStorage_SaveAndList(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	rec := createTestListing(t, ctx, s, map[string]any{"title": "a"}, testTime(0))

	asset := &models.MediaAsset{
		ID:            uuid.New().String(),
		ListingID:     rec.ID,
		Field:         "gallery",
		Filename:      "front.jpg",
		MimeType:      "image/jpeg",
		Size:          1024,
		Fingerprint:   "fp1",
		RemoteAssetID: "att1",
		RemoteSize:    1024,
		SyncedAt:      testTime(time.Minute),
	}
	require.NoError(t, s.SaveMediaAsset(ctx, asset))

	asset.UploadedFingerprint = "fp1"
	require.NoError(t, s.SaveMediaAsset(ctx, asset))

	require.NoError(t, s.SaveMediaAsset(ctx, &models.MediaAsset{
		ID:          uuid.New().String(),
		ListingID:   rec.ID,
		Field:       "floor_plan",
		Filename:    "plan.pdf",
		Fingerprint: "fp2",
	}))

	assets, err := s.ListMediaAssets(ctx, rec.ID, "gallery")
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, asset, assets[0])

	refs, err := s.ReferencedFingerprints(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"fp1": {}, "fp2": {}}, refs)

	// Одна и та же remote-вложение не может быть сопоставлена дважды
	dup := *asset
	dup.ID = uuid.New().String()
	assert.Error(t, s.SaveMediaAsset(ctx, &dup))
}
