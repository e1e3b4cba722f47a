package storage

import (
	"context"

	"github.com/iudanet/listingsync/internal/models"
)

// SettingsStorage defines interface for persisted engine settings
type SettingsStorage interface {
	// LoadConnectionConfig returns the stored connection config
	// Returns ErrSettingNotFound if it was never saved
	LoadConnectionConfig(ctx context.Context) (*models.ConnectionConfig, error)

	// SaveConnectionConfig stores the connection config
	SaveConnectionConfig(ctx context.Context, cfg *models.ConnectionConfig) error

	// LoadFieldSpecs returns the stored field schema
	// Returns ErrSettingNotFound if it was never saved
	LoadFieldSpecs(ctx context.Context) ([]models.FieldSpec, error)

	// SaveFieldSpecs stores the field schema
	SaveFieldSpecs(ctx context.Context, specs []models.FieldSpec) error
}

// Storage aggregates every store the sync engine needs
type Storage interface {
	ListingStorage
	MediaStorage
	LedgerStorage
	WebhookStorage
	SettingsStorage
}
