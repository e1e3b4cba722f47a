package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStorage(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	// Используем in-memory database для тестов
	storage, err := New(ctx, ":memory:")
	require.NoError(t, err)

	cleanup := func() {
		_ = storage.Close()
	}

	return storage, cleanup
}

// testTime время с точностью хранения (миллисекунды)
func testTime(offset time.Duration) time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).Add(offset)
}

func TestNew_RunsMigrations(t *testing.T) {
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	tables := []string{
		"listings", "listing_fields", "media_assets", "sync_jobs",
		"sync_lock", "sync_cursors", "sync_errors", "webhook_events", "settings",
	}

	for _, table := range tables {
		var name string
		err := s.DB().QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}

	var lockRows int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM sync_lock`).Scan(&lockRows))
	assert.Equal(t, 1, lockRows)
}

func TestNew_FileDatabase(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/listingsync.db"

	s, err := New(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Повторное открытие не ломается на уже примененных миграциях
	s, err = New(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?,?,?", placeholders(3))
}
