package models

import (
	"fmt"
	"time"
)

// ChangeRecord одна измененная запись, найденная детектором изменений.
// Живет только в пределах задачи, отдельно не сохраняется.
type ChangeRecord struct {
	ChangedAt     time.Time `json:"changed_at"`
	RecordID      string    `json:"record_id"`
	Source        Side      `json:"source"`
	ChangedFields []string  `json:"changed_fields"`
}

// WebhookEventType тип события, заявленный отправителем.
type WebhookEventType string

const (
	WebhookCreated WebhookEventType = "created"
	WebhookUpdated WebhookEventType = "updated"
	WebhookDeleted WebhookEventType = "deleted"
)

// WebhookEvent принятое push-уведомление от remote store.
// Processed переходит из false в true ровно один раз.
type WebhookEvent struct {
	RemoteModifiedAt time.Time        `json:"remote_modified_at"`
	ReceivedAt       time.Time        `json:"received_at"`
	ProcessedAt      *time.Time       `json:"processed_at,omitempty"`
	ID               string           `json:"id"`
	EventType        WebhookEventType `json:"event_type"`
	RecordID         string           `json:"record_id"` // remote id записи
	Payload          []byte           `json:"payload"`
	Processed        bool             `json:"processed"`
}

// IdempotencyKey returns the key duplicate deliveries share.
func (e *WebhookEvent) IdempotencyKey() string {
	return fmt.Sprintf("%s|%s", e.RecordID, e.RemoteModifiedAt.UTC().Format(time.RFC3339Nano))
}
