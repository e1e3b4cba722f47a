package sqlite

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/listingsync/internal/models"
	"github.com/iudanet/listingsync/internal/storage"
)

func TestSettingsStorage(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.LoadConnectionConfig(ctx)
	assert.ErrorIs(t, err, storage.ErrSettingNotFound)

	cfg := &models.ConnectionConfig{AccessToken: "tok", BaseID: "app1", TableName: "Listings", BatchSize: 10, RateLimitDelay: time.Second}
	require.NoError(t, s.SaveConnectionConfig(ctx, cfg))

	got, err := s.LoadConnectionConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	specs := []models.FieldSpec{{Name: "title", Category: models.CategoryManualSync}}
	require.NoError(t, s.SaveFieldSpecs(ctx, specs))
	gotSpecs, err := s.LoadFieldSpecs(ctx)
	require.NoError(t, err)
	assert.Equal(t, specs, gotSpecs)
}

func rawSetting(t *testing.T, s *Storage, key string) string {
	t.Helper()
	var raw string
	require.NoError(t, s.DB().QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&raw))
	return raw
}

func TestSettingsStorage_SecretEncryption(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	require.NoError(t, s.EnableSecretEncryption(ctx, "operator passphrase"))

	cfg := &models.ConnectionConfig{
		AccessToken:   "patSECRET.token",
		BaseID:        "app1",
		TableName:     "Listings",
		WebhookSecret: "hook-secret",
	}
	require.NoError(t, s.SaveConnectionConfig(ctx, cfg))

	// Вызывающий продолжает видеть открытые значения
	assert.Equal(t, "patSECRET.token", cfg.AccessToken)

	raw := rawSetting(t, s, settingConnection)
	assert.False(t, strings.Contains(raw, "patSECRET"), "token must not be stored in plain text")
	assert.False(t, strings.Contains(raw, "hook-secret"))
	assert.Contains(t, raw, "app1")

	got, err := s.LoadConnectionConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestSettingsStorage_SecretEncryption_Reopen(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/listingsync.db"

	s, err := New(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.EnableSecretEncryption(ctx, "passphrase"))
	require.NoError(t, s.SaveConnectionConfig(ctx, &models.ConnectionConfig{AccessToken: "tok", BaseID: "app1", TableName: "T"}))
	require.NoError(t, s.Close())

	tests := []struct {
		name       string
		passphrase string
		wantErr    bool
	}{
		{name: "same passphrase", passphrase: "passphrase"},
		{name: "wrong passphrase", passphrase: "other", wantErr: true},
		{name: "encryption disabled", passphrase: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reopened, err := New(ctx, path)
			require.NoError(t, err)
			defer reopened.Close()

			if tt.passphrase != "" {
				require.NoError(t, reopened.EnableSecretEncryption(ctx, tt.passphrase))
			}

			got, err := reopened.LoadConnectionConfig(ctx)
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrConfigInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "tok", got.AccessToken)
		})
	}
}

func TestSettingsStorage_PlainValuesReadAfterEnabling(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	require.NoError(t, s.SaveConnectionConfig(ctx, &models.ConnectionConfig{AccessToken: "tok", BaseID: "app1", TableName: "T"}))
	require.NoError(t, s.EnableSecretEncryption(ctx, "passphrase"))

	got, err := s.LoadConnectionConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", got.AccessToken)
}

func TestEnableSecretEncryption_EmptyPassphrase(t *testing.T) {
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	assert.Error(t, s.EnableSecretEncryption(context.Background(), ""))
}
