package boltdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/iudanet/listingsync/internal/crypto"
	"github.com/iudanet/listingsync/internal/storage"
)

func setupTestStorage(t *testing.T) *Storage {
	dbPath := filepath.Join(t.TempDir(), "blobs.db")

	store, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	return store
}

func TestNew_Success(t *testing.T) {
	store := setupTestStorage(t)

	// Проверяем, что бакеты существуют
	err := store.db.View(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketBlobs, bucketBlobMeta} {
			if tx.Bucket(b) == nil {
				return os.ErrNotExist
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestNew_InvalidPath(t *testing.T) {
	store, err := New(context.Background(), filepath.Join(t.TempDir(), "missing", "dir", "blobs.db"))
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestClose_NilDB(t *testing.T) {
	s := &Storage{}
	assert.NoError(t, s.Close())
}

func TestPutBlob_Dedup(t *testing.T) {
	ctx := context.Background()
	store := setupTestStorage(t)

	data := []byte("jpeg-bytes")

	info, created, err := store.PutBlob(ctx, data, "image/jpeg")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, crypto.Fingerprint(data), info.Fingerprint)
	assert.Equal(t, int64(len(data)), info.Size)

	again, created, err := store.PutBlob(ctx, data, "application/octet-stream")
	require.NoError(t, err)
	assert.False(t, created, "одинаковое содержимое хранится один раз")
	assert.Equal(t, info, again)

	blobs, err := store.ListBlobs(ctx)
	require.NoError(t, err)
	assert.Len(t, blobs, 1)
}

func TestGetAndDeleteBlob(t *testing.T) {
	ctx := context.Background()
	store := setupTestStorage(t)

	info, _, err := store.PutBlob(ctx, []byte("pdf-bytes"), "application/pdf")
	require.NoError(t, err)

	data, meta, err := store.GetBlob(ctx, info.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf-bytes"), data)
	assert.Equal(t, "application/pdf", meta.MimeType)

	require.NoError(t, store.DeleteBlob(ctx, info.Fingerprint))

	_, _, err = store.GetBlob(ctx, info.Fingerprint)
	assert.ErrorIs(t, err, storage.ErrBlobNotFound)
	assert.ErrorIs(t, store.DeleteBlob(ctx, info.Fingerprint), storage.ErrBlobNotFound)
}
