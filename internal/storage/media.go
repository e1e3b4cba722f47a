package storage

import (
	"context"

	"github.com/iudanet/listingsync/internal/models"
)

// MediaStorage defines interface for attachment mapping rows
type MediaStorage interface {
	// ListMediaAssets returns the assets of a listing field
	ListMediaAssets(ctx context.Context, listingID, field string) ([]*models.MediaAsset, error)

	// SaveMediaAsset creates or replaces asset row by ID
	SaveMediaAsset(ctx context.Context, asset *models.MediaAsset) error

	// ReferencedFingerprints returns every fingerprint referenced by an asset row
	ReferencedFingerprints(ctx context.Context) (map[string]struct{}, error)
}

// BlobInfo describes one stored blob
type BlobInfo struct {
	Fingerprint string `json:"fingerprint"`
	MimeType    string `json:"mime_type"`
	Size        int64  `json:"size"`
	CreatedAt   int64  `json:"created_at"`
}

// BlobStorage defines interface for content-addressed media content
type BlobStorage interface {
	// PutBlob stores content under its fingerprint
	// Returns created=false if the same content already exists
	PutBlob(ctx context.Context, data []byte, mimeType string) (info BlobInfo, created bool, err error)

	// GetBlob returns content by fingerprint
	// Returns ErrBlobNotFound if blob doesn't exist
	GetBlob(ctx context.Context, fingerprint string) ([]byte, *BlobInfo, error)

	// ListBlobs returns metadata of every stored blob
	ListBlobs(ctx context.Context) ([]BlobInfo, error)

	// DeleteBlob removes blob by fingerprint
	// Returns ErrBlobNotFound if blob doesn't exist
	DeleteBlob(ctx context.Context, fingerprint string) error
}
