package models

import "time"

// JobKind различает полную и инкрементальную синхронизацию.
type JobKind string

const (
	JobKindFull  JobKind = "full"
	JobKindDelta JobKind = "delta"
)

// JobStatus состояние задачи синхронизации.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether the job can no longer change.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// SyncStats счетчики задачи. Значения только растут в пределах одной задачи.
type SyncStats struct {
	TotalProcessed int `json:"total_processed"`
	Created        int `json:"created"`
	Updated        int `json:"updated"`
	Skipped        int `json:"skipped"`
	Errors         int `json:"errors"`
	MediaSynced    int `json:"media_synced"`
}

// Add accumulates other into s.
func (s *SyncStats) Add(other SyncStats) {
	s.TotalProcessed += other.TotalProcessed
	s.Created += other.Created
	s.Updated += other.Updated
	s.Skipped += other.Skipped
	s.Errors += other.Errors
	s.MediaSynced += other.MediaSynced
}

func (s *SyncStats) RecordCreated() {
	s.TotalProcessed++
	s.Created++
}

func (s *SyncStats) RecordUpdated() {
	s.TotalProcessed++
	s.Updated++
}

func (s *SyncStats) RecordSkipped() {
	s.TotalProcessed++
	s.Skipped++
}

func (s *SyncStats) RecordError() {
	s.TotalProcessed++
	s.Errors++
}

// IsZero reports whether no counter has moved.
func (s SyncStats) IsZero() bool {
	return s == SyncStats{}
}

// SyncJob описывает одну задачу синхронизации. Создается оркестратором в момент
// старта, обновляется только пока задача в статусе running и никогда не удаляется.
type SyncJob struct {
	StartedAt        time.Time  `json:"started_at"`
	HeartbeatAt      time.Time  `json:"heartbeat_at"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
	ID               string     `json:"id"`
	Kind             JobKind    `json:"kind"`
	Direction        Direction  `json:"direction"`
	Status           JobStatus  `json:"status"`
	ErrorKind        ErrorKind  `json:"error_kind,omitempty"`
	ErrorMessage     string     `json:"error_message,omitempty"`
	Stats            SyncStats  `json:"stats"`
	ChangesProcessed int        `json:"changes_processed"`
	ForceFull        bool       `json:"force_full"`
	Degraded         bool       `json:"degraded"`
}

// Duration returns how long the job ran, or has been running so far.
func (j *SyncJob) Duration(now time.Time) time.Duration {
	if j.FinishedAt != nil {
		return j.FinishedAt.Sub(j.StartedAt)
	}
	return now.Sub(j.StartedAt)
}

// RecordOutcome результат синхронизации одной записи вне задачи.
type RecordOutcome string

const (
	OutcomeApplied  RecordOutcome = "applied"
	OutcomeConflict RecordOutcome = "conflict"
	OutcomeError    RecordOutcome = "error"
)
