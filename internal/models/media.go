package models

import "time"

// MediaAsset связь между локальным вложением и вложением в remote store.
type MediaAsset struct {
	SyncedAt            time.Time `json:"synced_at"`
	ID                  string    `json:"id"`
	ListingID           string    `json:"listing_id"`
	Field               string    `json:"field"`
	Filename            string    `json:"filename"`
	MimeType            string    `json:"mime_type"`
	Fingerprint         string    `json:"fingerprint"`          // BLAKE2b-256 текущего содержимого
	RemoteAssetID       string    `json:"remote_asset_id"`      // пусто, пока вложение не выгружено
	RemoteURL           string    `json:"remote_url,omitempty"` // адрес скачивания (временный)
	UploadedFingerprint string    `json:"uploaded_fingerprint"` // fingerprint на момент последней выгрузки
	Size                int64     `json:"size"`
	RemoteSize          int64     `json:"remote_size"`
}

// MediaResult итог сверки вложений одной записи.
type MediaResult struct {
	Errors  []string `json:"errors,omitempty"`
	Synced  int      `json:"synced"`
	Skipped int      `json:"skipped"`
	Failed  int      `json:"failed"`
}

// Add accumulates other into r.
func (r *MediaResult) Add(other MediaResult) {
	r.Synced += other.Synced
	r.Skipped += other.Skipped
	r.Failed += other.Failed
	r.Errors = append(r.Errors, other.Errors...)
}

// CleanupPlan список осиротевших локальных blob'ов и токен подтверждения.
type CleanupPlan struct {
	Token        string   `json:"token"`
	Fingerprints []string `json:"fingerprints"`
	Bytes        int64    `json:"bytes"`
}
