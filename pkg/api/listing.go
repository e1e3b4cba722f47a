package api

import "time"

// Listing локальное объявление
type Listing struct {
	ModifiedAt    time.Time            `json:"modified_at"`
	CreatedAt     time.Time            `json:"created_at"`
	Fields        map[string]any       `json:"fields"`
	FieldModified map[string]time.Time `json:"field_modified,omitempty"`
	ID            string               `json:"id"`
	RemoteID      string               `json:"remote_id,omitempty"`
}

// ListingCreateRequest новое объявление
type ListingCreateRequest struct {
	Fields map[string]any `json:"fields" validate:"required,min=1"`
}

// ListingEditRequest локальная правка полей объявления
type ListingEditRequest struct {
	Fields map[string]any `json:"fields" validate:"required,min=1"`
}
