package api

import "time"

// MediaSyncRequest запрос на сверку вложений
type MediaSyncRequest struct {
	RecordIDs  []string `json:"record_ids" validate:"required,min=1,dive,required"`
	MediaTypes []string `json:"media_types,omitempty"`
}

// MediaResult итог сверки вложений одной записи
type MediaResult struct {
	Errors  []string `json:"errors,omitempty"`
	Synced  int      `json:"synced"`
	Skipped int      `json:"skipped"`
	Failed  int      `json:"failed"`
}

// MediaSyncResponse итоги сверки по id записи
type MediaSyncResponse struct {
	Results map[string]MediaResult `json:"results"`
}

// CleanupRequest подтверждение плана очистки
type CleanupRequest struct {
	Token string `json:"token" validate:"required"`
}

// CleanupPlan список осиротевших blob'ов
type CleanupPlan struct {
	Token        string   `json:"token"`
	Fingerprints []string `json:"fingerprints"`
	Bytes        int64    `json:"bytes"`
}

// MediaAsset локальное вложение
type MediaAsset struct {
	SyncedAt      time.Time `json:"synced_at"`
	ID            string    `json:"id"`
	ListingID     string    `json:"listing_id"`
	Field         string    `json:"field"`
	Filename      string    `json:"filename"`
	MimeType      string    `json:"mime_type"`
	Fingerprint   string    `json:"fingerprint"`
	RemoteAssetID string    `json:"remote_asset_id"`
	Size          int64     `json:"size"`
}
