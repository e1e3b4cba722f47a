package models

import "time"

// LedgerError запись журнала ошибок. Журнал только дополняется.
type LedgerError struct {
	CreatedAt time.Time `json:"created_at"`
	JobID     string    `json:"job_id"`
	RecordID  string    `json:"record_id,omitempty"`
	Message   string    `json:"message"`
	ID        int64     `json:"id"`
}

// Cursor время последней успешной синхронизации в заданном направлении.
type Cursor struct {
	LastSyncedAt time.Time `json:"last_synced_at"`
	Direction    Direction `json:"direction"`
}

// JobLease durable mutex over running jobs. Version grows on every write so
// concurrent owners detect each other; an expired lease may be taken over.
type JobLease struct {
	AcquiredAt time.Time `json:"acquired_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	JobID      string    `json:"job_id"`
	Version    int64     `json:"version"`
}

// Held reports whether the lease is owned by a job and not yet expired at now.
func (l *JobLease) Held(now time.Time) bool {
	return l != nil && l.JobID != "" && now.Before(l.ExpiresAt)
}

// SyncStatus ответ на запрос статуса синхронизации.
type SyncStatus struct {
	LastSyncAt         *time.Time `json:"last_sync_at,omitempty"`
	CurrentJob         *SyncJob   `json:"current_job,omitempty"`
	LastJob            *SyncJob   `json:"last_job,omitempty"`
	InProgress         bool       `json:"in_progress"`
	PendingChanges     int        `json:"pending_changes"`
	RecentErrors       int        `json:"recent_errors"`
	UnprocessedWebhook int        `json:"unprocessed_webhooks"`
}
