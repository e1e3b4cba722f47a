package sqlite

import (
	"context"
	"fmt"

	"github.com/iudanet/listingsync/internal/models"
)

// ListMediaAssets returns the assets of a listing field
func (s *Storage) ListMediaAssets(ctx context.Context, listingID, field string) ([]*models.MediaAsset, error) {
	query := `
		SELECT id, listing_id, field, filename, mime_type, size, fingerprint,
		       remote_asset_id, remote_url, remote_size, uploaded_fingerprint, synced_at
		FROM media_assets
		WHERE listing_id = ? AND field = ?
		ORDER BY rowid ASC
	`

	rows, err := s.db.QueryContext(ctx, query, listingID, field)
	if err != nil {
		return nil, fmt.Errorf("failed to query media assets: %w", err)
	}
	defer rows.Close()

	var assets []*models.MediaAsset
	for rows.Next() {
		a := &models.MediaAsset{}
		var syncedAt int64
		err := rows.Scan(
			&a.ID,
			&a.ListingID,
			&a.Field,
			&a.Filename,
			&a.MimeType,
			&a.Size,
			&a.Fingerprint,
			&a.RemoteAssetID,
			&a.RemoteURL,
			&a.RemoteSize,
			&a.UploadedFingerprint,
			&syncedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media asset: %w", err)
		}
		a.SyncedAt = millisToTime(syncedAt)
		assets = append(assets, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return assets, nil
}

// SaveMediaAsset creates or replaces asset row by ID
func (s *Storage) SaveMediaAsset(ctx context.Context, a *models.MediaAsset) error {
	query := `
		INSERT INTO media_assets (
			id, listing_id, field, filename, mime_type, size, fingerprint,
			remote_asset_id, remote_url, remote_size, uploaded_fingerprint, synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filename = excluded.filename,
			mime_type = excluded.mime_type,
			size = excluded.size,
			fingerprint = excluded.fingerprint,
			remote_asset_id = excluded.remote_asset_id,
			remote_url = excluded.remote_url,
			remote_size = excluded.remote_size,
			uploaded_fingerprint = excluded.uploaded_fingerprint,
			synced_at = excluded.synced_at
	`

	_, err := s.db.ExecContext(ctx, query,
		a.ID,
		a.ListingID,
		a.Field,
		a.Filename,
		a.MimeType,
		a.Size,
		a.Fingerprint,
		a.RemoteAssetID,
		a.RemoteURL,
		a.RemoteSize,
		a.UploadedFingerprint,
		timeToMillis(a.SyncedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save media asset: %w", err)
	}

	return nil
}

// ReferencedFingerprints returns every fingerprint referenced by an asset row
func (s *Storage) ReferencedFingerprints(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT fingerprint FROM media_assets WHERE fingerprint <> ''`)
	if err != nil {
		return nil, fmt.Errorf("failed to query fingerprints: %w", err)
	}
	defer rows.Close()

	refs := make(map[string]struct{})
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, fmt.Errorf("failed to scan fingerprint: %w", err)
		}
		refs[fp] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return refs, nil
}
