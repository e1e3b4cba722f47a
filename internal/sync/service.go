// Package sync orchestrates sync jobs between the local listing store and the
// remote table.
package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/iudanet/listingsync/internal/delta"
	"github.com/iudanet/listingsync/internal/fields"
	"github.com/iudanet/listingsync/internal/ledger"
	"github.com/iudanet/listingsync/internal/media"
	"github.com/iudanet/listingsync/internal/models"
	"github.com/iudanet/listingsync/internal/remote"
	"github.com/iudanet/listingsync/internal/storage"
)

//go:generate moq -out service_mock.go . Service

// Service определяет команды движка синхронизации
type Service interface {
	// RunFullSync runs a full job. A job that could not run is returned with
	// status Failed; the error is reserved for jobs that never started.
	RunFullSync(ctx context.Context, direction models.Direction, forceFull bool) (*models.SyncJob, error)

	// RunDeltaSync runs a delta job over changes after since, or after the
	// stored cursors when since is nil.
	RunDeltaSync(ctx context.Context, since *time.Time) (*models.SyncJob, error)

	// SyncSingleRecord syncs one listing, addressed by local or remote id.
	SyncSingleRecord(ctx context.Context, recordID string, direction models.Direction) (*SingleRecordResult, error)

	// TestConnection checks ad hoc credentials without saving them.
	TestConnection(ctx context.Context, req ConnectionTest) (*ConnectionResult, error)

	// GetSchema returns the remote table fields compared with the field mapping.
	GetSchema(ctx context.Context) (*SchemaResult, error)

	// UpdateFieldMapping validates and activates a new field mapping.
	// Returns models.ErrSyncAlreadyInProgress while a job runs.
	UpdateFieldMapping(ctx context.Context, specs []models.FieldSpec) (*MappingResult, error)

	// FieldMapping returns the active field mapping.
	FieldMapping(ctx context.Context) []models.FieldSpec

	// UpdateConnection validates and stores the connection config.
	UpdateConnection(ctx context.Context, cfg models.ConnectionConfig) error

	// Connection returns the stored connection config with secrets redacted.
	Connection(ctx context.Context) (models.ConnectionConfig, error)

	// SyncMedia reconciles attachments of the given listings.
	SyncMedia(ctx context.Context, recordIDs []string, mediaTypes []string) (map[string]models.MediaResult, error)

	// PlanMediaCleanup lists orphaned local media blobs.
	PlanMediaCleanup(ctx context.Context) (*models.CleanupPlan, error)

	// ExecuteMediaCleanup deletes the blobs of a confirmed cleanup plan.
	ExecuteMediaCleanup(ctx context.Context, token string) (*models.CleanupPlan, error)

	// GetStatus returns the sync status.
	GetStatus(ctx context.Context) (*models.SyncStatus, error)

	// Jobs returns the latest jobs first.
	Jobs(ctx context.Context, limit int) ([]*models.SyncJob, error)

	// Errors returns the latest ledger errors first.
	Errors(ctx context.Context, limit int) ([]*models.LedgerError, error)
}

// SingleRecordResult итог синхронизации одной записи
type SingleRecordResult struct {
	RecordID      string               `json:"record_id"`
	RemoteID      string               `json:"remote_id,omitempty"`
	Outcome       models.RecordOutcome `json:"outcome"`
	Message       string               `json:"message,omitempty"`
	ChangedFields []string             `json:"changed_fields"`
	Conflicts     []string             `json:"conflicts,omitempty"`
}

// ConnectionTest ad hoc учетные данные для проверки
type ConnectionTest struct {
	AccessToken string `json:"access_token"`
	BaseID      string `json:"base_id"`
	TableName   string `json:"table_name"`
}

// ConnectionResult итог проверки подключения
type ConnectionResult struct {
	Error      string   `json:"error,omitempty"`
	Tables     []string `json:"tables"`
	StatusCode int      `json:"status_code,omitempty"`
	Success    bool     `json:"success"`
}

// SchemaResult поля remote таблицы и их сопоставление с field mapping
type SchemaResult struct {
	TableID    string         `json:"table_id"`
	TableName  string         `json:"table_name"`
	Fields     []remote.Field `json:"fields"`
	Unmapped   []string       `json:"unmapped"` // есть в remote, нет в mapping
	Missing    []string       `json:"missing"`  // есть в mapping, нет в remote
	FieldCount int            `json:"field_count"`
}

// MappingResult итог обновления field mapping
type MappingResult struct {
	Accepted int `json:"accepted"`
}

// ClientSource returns the remote client of the active connection.
type ClientSource interface {
	Client(ctx context.Context) (remote.API, models.ConnectionConfig, error)
	Config(ctx context.Context) (models.ConnectionConfig, error)
	ForConfig(cfg models.ConnectionConfig) remote.API
}

// recentErrorsWindow окно подсчета недавних ошибок для статуса
const recentErrorsWindow = 24 * time.Hour

// maxConnectivityBatches сколько подряд полностью неудачных пакетов считаются
// потерей связи
const maxConnectivityBatches = 3

type service struct {
	store    storage.Storage
	clients  ClientSource
	registry *fields.Holder
	ledger   *ledger.Ledger
	detector *delta.Detector
	media    *media.Synchronizer
	logger   *slog.Logger
}

// NewService creates a new sync service
func NewService(
	store storage.Storage,
	clients ClientSource,
	registry *fields.Holder,
	ledger *ledger.Ledger,
	media *media.Synchronizer,
	logger *slog.Logger,
) Service {
	return &service{
		store:    store,
		clients:  clients,
		registry: registry,
		ledger:   ledger,
		detector: delta.New(store, logger),
		media:    media,
		logger:   logger,
	}
}
