package boltdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/listingsync/internal/crypto"
	"github.com/iudanet/listingsync/internal/storage"
)

var (
	// BoltDB bucket names
	bucketBlobs    = []byte("blobs")
	bucketBlobMeta = []byte("blob_meta")
)

var _ storage.BlobStorage = (*Storage)(nil)

// Storage represents content-addressed media blob store on top of BoltDB.
// Ключ blob'а его BLAKE2b отпечаток, поэтому одинаковое содержимое хранится один раз.
type Storage struct {
	db  *bbolt.DB
	now func() time.Time
}

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file
func New(ctx context.Context, dbPath string) (*Storage, error) {
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	s := &Storage{db: db, now: time.Now}

	if err := s.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// initBuckets создает необходимые buckets если они не существуют
func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketBlobs); err != nil {
			return fmt.Errorf("failed to create blobs bucket: %w", err)
		}

		if _, err := tx.CreateBucketIfNotExists(bucketBlobMeta); err != nil {
			return fmt.Errorf("failed to create blob meta bucket: %w", err)
		}

		return nil
	})
}

// PutBlob stores content under its fingerprint
func (s *Storage) PutBlob(ctx context.Context, data []byte, mimeType string) (storage.BlobInfo, bool, error) {
	info := storage.BlobInfo{
		Fingerprint: crypto.Fingerprint(data),
		MimeType:    mimeType,
		Size:        int64(len(data)),
		CreatedAt:   s.now().UnixMilli(),
	}
	created := false

	err := s.db.Update(func(tx *bbolt.Tx) error {
		blobs := tx.Bucket(bucketBlobs)
		meta := tx.Bucket(bucketBlobMeta)
		if blobs == nil || meta == nil {
			return fmt.Errorf("blob buckets not found")
		}

		key := []byte(info.Fingerprint)
		if existing := meta.Get(key); existing != nil {
			// Уже хранится: возвращаем исходные метаданные
			return json.Unmarshal(existing, &info)
		}

		metaJSON, err := json.Marshal(info)
		if err != nil {
			return fmt.Errorf("failed to marshal blob meta: %w", err)
		}

		if err := blobs.Put(key, data); err != nil {
			return fmt.Errorf("failed to save blob: %w", err)
		}
		if err := meta.Put(key, metaJSON); err != nil {
			return fmt.Errorf("failed to save blob meta: %w", err)
		}

		created = true
		return nil
	})
	if err != nil {
		return storage.BlobInfo{}, false, err
	}

	return info, created, nil
}

// GetBlob returns content by fingerprint
func (s *Storage) GetBlob(ctx context.Context, fingerprint string) ([]byte, *storage.BlobInfo, error) {
	var (
		data []byte
		info storage.BlobInfo
	)

	err := s.db.View(func(tx *bbolt.Tx) error {
		key := []byte(fingerprint)

		metaJSON := tx.Bucket(bucketBlobMeta).Get(key)
		if metaJSON == nil {
			return storage.ErrBlobNotFound
		}
		if err := json.Unmarshal(metaJSON, &info); err != nil {
			return fmt.Errorf("failed to unmarshal blob meta: %w", err)
		}

		raw := tx.Bucket(bucketBlobs).Get(key)
		if raw == nil {
			return storage.ErrBlobNotFound
		}

		// Данные из bbolt валидны только внутри транзакции
		data = make([]byte, len(raw))
		copy(data, raw)
		return nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("failed to get blob: %w", err)
	}

	return data, &info, nil
}

// ListBlobs returns metadata of every stored blob
func (s *Storage) ListBlobs(ctx context.Context) ([]storage.BlobInfo, error) {
	var result []storage.BlobInfo

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketBlobMeta).ForEach(func(k, v []byte) error {
			var info storage.BlobInfo
			if err := json.Unmarshal(v, &info); err != nil {
				return fmt.Errorf("failed to unmarshal blob meta %s: %w", string(k), err)
			}
			result = append(result, info)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list blobs: %w", err)
	}

	return result, nil
}

// DeleteBlob removes blob by fingerprint
func (s *Storage) DeleteBlob(ctx context.Context, fingerprint string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		key := []byte(fingerprint)
		meta := tx.Bucket(bucketBlobMeta)

		if meta.Get(key) == nil {
			return storage.ErrBlobNotFound
		}

		if err := tx.Bucket(bucketBlobs).Delete(key); err != nil {
			return fmt.Errorf("failed to delete blob: %w", err)
		}
		if err := meta.Delete(key); err != nil {
			return fmt.Errorf("failed to delete blob meta: %w", err)
		}

		return nil
	})
}
