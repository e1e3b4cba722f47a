package webhook

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/iudanet/listingsync/internal/crypto"
	"github.com/iudanet/listingsync/internal/models"
	"github.com/iudanet/listingsync/internal/validation"
)

// SignatureHeader заголовок с подписью тела запроса
const SignatureHeader = "X-Listing-Signature"

// Payload is the body of a push notification.
type Payload struct {
	Record    PayloadRecord `json:"record" validate:"required"`
	EventType string        `json:"event_type" validate:"required,oneof=created updated deleted"`
	BaseID    string        `json:"base_id"`
	Table     string        `json:"table"`
}

// PayloadRecord is the changed record.
type PayloadRecord struct {
	LastModified time.Time      `json:"last_modified" validate:"required"`
	Fields       map[string]any `json:"fields"`
	ID           string         `json:"id" validate:"required"`
}

// ParsePayload decodes and validates raw. Errors wrap models.ErrWebhookInvalid.
func ParsePayload(raw []byte) (*Payload, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty body", models.ErrWebhookInvalid)
	}

	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrWebhookInvalid, err)
	}
	if err := validation.Struct(p); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrWebhookInvalid, err)
	}
	if p.EventType != string(models.WebhookDeleted) && p.Record.Fields == nil {
		return nil, fmt.Errorf("%w: record fields are required for %s events", models.ErrWebhookInvalid, p.EventType)
	}

	return &p, nil
}

// ToRecord converts the payload into a remote-side record.
func (p *Payload) ToRecord() *models.Record {
	return &models.Record{
		RemoteID:   p.Record.ID,
		Fields:     p.Record.Fields,
		ModifiedAt: p.Record.LastModified,
	}
}

// Sign returns the signature header value of body under secret.
func Sign(secret string, body []byte) string {
	return crypto.SignPayload([]byte(secret), body)
}

// VerifySignature checks signature against body in constant time.
func VerifySignature(secret string, body []byte, signature string) error {
	if err := crypto.VerifySignature([]byte(secret), body, signature); err != nil {
		return fmt.Errorf("%w: %w", models.ErrWebhookInvalid, err)
	}
	return nil
}
