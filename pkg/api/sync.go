package api

import "time"

// FullSyncRequest запрос на полную синхронизацию
type FullSyncRequest struct {
	Direction string `json:"direction,omitempty" validate:"omitempty,direction"` // по умолчанию both
	ForceFull bool   `json:"force_full"`
}

// DeltaSyncRequest запрос на инкрементальную синхронизацию
type DeltaSyncRequest struct {
	Since *time.Time `json:"since,omitempty"` // если не задан, используются сохраненные курсоры
}

// RecordSyncRequest запрос на синхронизацию одной записи
type RecordSyncRequest struct {
	RecordID  string `json:"record_id" validate:"required"`
	Direction string `json:"direction,omitempty" validate:"omitempty,direction"`
}

// SyncStats счетчики задачи
type SyncStats struct {
	TotalProcessed int `json:"total_processed"`
	Created        int `json:"created"`
	Updated        int `json:"updated"`
	Skipped        int `json:"skipped"`
	Errors         int `json:"errors"`
	MediaSynced    int `json:"media_synced"`
}

// SyncJob задача синхронизации
type SyncJob struct {
	StartedAt        time.Time  `json:"started_at"`
	HeartbeatAt      time.Time  `json:"heartbeat_at"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
	ID               string     `json:"id"`
	Kind             string     `json:"kind"`
	Direction        string     `json:"direction"`
	Status           string     `json:"status"`
	ErrorKind        string     `json:"error_kind,omitempty"`
	ErrorMessage     string     `json:"error_message,omitempty"`
	Stats            SyncStats  `json:"stats"`
	ChangesProcessed int        `json:"changes_processed"`
	ForceFull        bool       `json:"force_full"`
	Degraded         bool       `json:"degraded"`
}

// RecordSyncResponse итог синхронизации одной записи
type RecordSyncResponse struct {
	RecordID      string   `json:"record_id"`
	RemoteID      string   `json:"remote_id,omitempty"`
	Outcome       string   `json:"outcome"` // applied, conflict, error
	Message       string   `json:"message,omitempty"`
	ChangedFields []string `json:"changed_fields"`
	Conflicts     []string `json:"conflicts,omitempty"`
}

// StatusResponse состояние синхронизации
type StatusResponse struct {
	LastSyncAt         *time.Time `json:"last_sync_at,omitempty"`
	CurrentJob         *SyncJob   `json:"current_job,omitempty"`
	LastJob            *SyncJob   `json:"last_job,omitempty"`
	InProgress         bool       `json:"in_progress"`
	PendingChanges     int        `json:"pending_changes"`
	RecentErrors       int        `json:"recent_errors"`
	UnprocessedWebhook int        `json:"unprocessed_webhooks"`
}

// LedgerError запись журнала ошибок
type LedgerError struct {
	CreatedAt time.Time `json:"created_at"`
	JobID     string    `json:"job_id"`
	RecordID  string    `json:"record_id,omitempty"`
	Message   string    `json:"message"`
	ID        int64     `json:"id"`
}

// WebhookResponse итог обработки вебхука
type WebhookResponse struct {
	EventID       string   `json:"event_id"`
	RecordID      string   `json:"record_id"`
	ListingID     string   `json:"listing_id,omitempty"`
	Action        string   `json:"action"`
	ChangedFields []string `json:"changed_fields,omitempty"`
	Conflicts     []string `json:"conflicts,omitempty"`
	Processed     int      `json:"processed"`
	Duplicate     bool     `json:"duplicate"`
}
