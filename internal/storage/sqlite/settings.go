package sqlite

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iudanet/listingsync/internal/crypto"
	"github.com/iudanet/listingsync/internal/models"
	"github.com/iudanet/listingsync/internal/storage"
)

const (
	settingConnection = "connection"
	settingFieldSpecs = "field_specs"
	settingSecretSalt = "secret_salt"

	secretKeyPurpose = "connection-secrets"
)

// EnableSecretEncryption turns on at-rest encryption of the remote access
// token and webhook secret. The salt is created on first use and kept in
// the settings table, so the same passphrase opens the values after restart.
func (s *Storage) EnableSecretEncryption(ctx context.Context, passphrase string) error {
	salt, err := s.secretSalt(ctx)
	if err != nil {
		return err
	}

	key, err := crypto.DeriveKey(passphrase, secretKeyPurpose, salt)
	if err != nil {
		return fmt.Errorf("failed to derive settings key: %w", err)
	}

	sealer, err := crypto.NewSealer(key)
	if err != nil {
		return fmt.Errorf("failed to create sealer: %w", err)
	}

	s.sealer = sealer
	return nil
}

func (s *Storage) secretSalt(ctx context.Context) ([]byte, error) {
	var encoded string
	err := s.getSetting(ctx, settingSecretSalt, &encoded)
	switch {
	case err == nil:
		salt, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("failed to decode secret salt: %w", err)
		}
		return salt, nil
	case errors.Is(err, storage.ErrSettingNotFound):
		salt, err := crypto.GenerateSalt()
		if err != nil {
			return nil, err
		}
		if err := s.putSetting(ctx, settingSecretSalt, base64.StdEncoding.EncodeToString(salt)); err != nil {
			return nil, err
		}
		return salt, nil
	default:
		return nil, err
	}
}

// LoadConnectionConfig returns the stored connection config
func (s *Storage) LoadConnectionConfig(ctx context.Context) (*models.ConnectionConfig, error) {
	var cfg models.ConnectionConfig
	if err := s.getSetting(ctx, settingConnection, &cfg); err != nil {
		return nil, err
	}

	var err error
	if cfg.AccessToken, err = s.openSecret(cfg.AccessToken); err != nil {
		return nil, err
	}
	if cfg.WebhookSecret, err = s.openSecret(cfg.WebhookSecret); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SaveConnectionConfig stores the connection config
func (s *Storage) SaveConnectionConfig(ctx context.Context, cfg *models.ConnectionConfig) error {
	if s.sealer == nil {
		return s.putSetting(ctx, settingConnection, cfg)
	}

	// Шифруем копию, вызывающий продолжает работать с открытыми значениями
	sealed := *cfg
	var err error
	if sealed.AccessToken, err = s.sealer.Seal(cfg.AccessToken); err != nil {
		return fmt.Errorf("failed to seal access token: %w", err)
	}
	if sealed.WebhookSecret, err = s.sealer.Seal(cfg.WebhookSecret); err != nil {
		return fmt.Errorf("failed to seal webhook secret: %w", err)
	}

	return s.putSetting(ctx, settingConnection, &sealed)
}

func (s *Storage) openSecret(value string) (string, error) {
	if !crypto.IsSealed(value) {
		return value, nil
	}
	if s.sealer == nil {
		return "", fmt.Errorf("%w: stored secrets are encrypted, secret key is not configured", models.ErrConfigInvalid)
	}

	opened, err := s.sealer.Open(value)
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrConfigInvalid, err)
	}
	return opened, nil
}

// LoadFieldSpecs returns the stored field schema
func (s *Storage) LoadFieldSpecs(ctx context.Context) ([]models.FieldSpec, error) {
	var specs []models.FieldSpec
	if err := s.getSetting(ctx, settingFieldSpecs, &specs); err != nil {
		return nil, err
	}
	return specs, nil
}

// SaveFieldSpecs stores the field schema
func (s *Storage) SaveFieldSpecs(ctx context.Context, specs []models.FieldSpec) error {
	return s.putSetting(ctx, settingFieldSpecs, specs)
}

func (s *Storage) getSetting(ctx context.Context, key string, dest any) error {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrSettingNotFound
		}
		return fmt.Errorf("failed to get setting %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("failed to decode setting %s: %w", key, err)
	}

	return nil
}

func (s *Storage) putSetting(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode setting %s: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(data), timeToMillis(s.now()))
	if err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}

	return nil
}
