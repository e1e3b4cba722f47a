package sync

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/iudanet/listingsync/internal/fields"
	"github.com/iudanet/listingsync/internal/models"
	"github.com/iudanet/listingsync/internal/remote"
	"github.com/iudanet/listingsync/internal/validation"
)

// mediaJobID job id в журнале ошибок для ручной сверки вложений
const mediaJobID = "media"

// TestConnection checks credentials without saving them. Fields left empty
// are taken from the stored config.
func (s *service) TestConnection(ctx context.Context, req ConnectionTest) (*ConnectionResult, error) {
	cfg, err := s.clients.Config(ctx)
	if err != nil {
		return nil, err
	}
	if req.AccessToken != "" {
		cfg.AccessToken = req.AccessToken
	}
	if req.BaseID != "" {
		cfg.BaseID = req.BaseID
	}
	if req.TableName != "" {
		cfg.TableName = req.TableName
	}

	if cfg.AccessToken == "" || cfg.BaseID == "" {
		return nil, fmt.Errorf("%w: access token and base id are required", models.ErrConfigInvalid)
	}

	tables, err := s.clients.ForConfig(cfg).ListTables(ctx)
	if err != nil {
		res := remote.ResultOf(err)
		s.logger.Info("Connection test failed",
			"base_id", cfg.BaseID,
			"status", res.StatusCode,
			"error", err)
		return &ConnectionResult{
			Success:    false,
			StatusCode: res.StatusCode,
			Error:      err.Error(),
		}, nil
	}

	result := &ConnectionResult{Success: true, Tables: make([]string, 0, len(tables))}
	for _, t := range tables {
		result.Tables = append(result.Tables, t.Name)
	}

	if cfg.TableName != "" && !slices.Contains(result.Tables, cfg.TableName) {
		result.Success = false
		result.Error = fmt.Sprintf("table %q not found in base %s", cfg.TableName, cfg.BaseID)
	}

	s.logger.Info("Connection tested",
		"base_id", cfg.BaseID,
		"tables", len(result.Tables),
		"success", result.Success)

	return result, nil
}

// GetSchema compares the remote table fields with the active field mapping.
func (s *service) GetSchema(ctx context.Context) (*SchemaResult, error) {
	api, cfg, err := s.clients.Client(ctx)
	if err != nil {
		return nil, err
	}

	table, err := api.GetSchema(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get remote schema: %w", err)
	}

	registry := s.registry.Get()
	result := &SchemaResult{
		TableID:    table.ID,
		TableName:  table.Name,
		Fields:     table.Fields,
		FieldCount: len(table.Fields),
		Unmapped:   []string{},
		Missing:    []string{},
	}

	remoteNames := make(map[string]struct{}, len(table.Fields))
	for _, f := range table.Fields {
		remoteNames[f.Name] = struct{}{}
		if f.Name == cfg.LastModifiedField {
			continue
		}
		if _, ok := registry.Classify(f.Name); !ok {
			result.Unmapped = append(result.Unmapped, f.Name)
		}
	}
	for _, spec := range registry.Specs() {
		if _, ok := remoteNames[spec.Name]; !ok {
			result.Missing = append(result.Missing, spec.Name)
		}
	}

	return result, nil
}

// UpdateFieldMapping activates a new field mapping. Refused while a job holds
// the lease.
func (s *service) UpdateFieldMapping(ctx context.Context, specs []models.FieldSpec) (*MappingResult, error) {
	registry, err := fields.NewRegistry(specs)
	if err != nil {
		return nil, err
	}

	lease, err := s.ledger.ActiveLease(ctx)
	if err != nil {
		return nil, err
	}
	if lease != nil {
		return nil, fmt.Errorf("%w: job %s is running", models.ErrSyncAlreadyInProgress, lease.JobID)
	}

	if err := s.store.SaveFieldSpecs(ctx, registry.Specs()); err != nil {
		return nil, fmt.Errorf("failed to save field mapping: %w", err)
	}
	s.registry.Swap(registry)

	s.logger.Info("Field mapping updated", "fields", registry.Len())

	return &MappingResult{Accepted: registry.Len()}, nil
}

// FieldMapping returns the active field specs.
func (s *service) FieldMapping(ctx context.Context) []models.FieldSpec {
	return s.registry.Get().Specs()
}

// UpdateConnection validates and stores cfg. Secrets left empty keep their
// stored values.
func (s *service) UpdateConnection(ctx context.Context, cfg models.ConnectionConfig) error {
	current, err := s.clients.Config(ctx)
	if err != nil {
		return err
	}
	if cfg.AccessToken == "" {
		cfg.AccessToken = current.AccessToken
	}
	if cfg.WebhookSecret == "" {
		cfg.WebhookSecret = current.WebhookSecret
	}

	if !cfg.Validate() {
		return fmt.Errorf("%w: access token, base id and table name are required", models.ErrConfigInvalid)
	}
	if err := validation.ValidateAccessToken(cfg.AccessToken); err != nil {
		return fmt.Errorf("%w: %w", models.ErrConfigInvalid, err)
	}
	if cfg.BatchSize < 0 || cfg.RateLimitDelay < 0 {
		return fmt.Errorf("%w: batch size and rate limit delay must not be negative", models.ErrConfigInvalid)
	}

	cfg = cfg.WithDefaults()
	if err := s.store.SaveConnectionConfig(ctx, &cfg); err != nil {
		return fmt.Errorf("failed to save connection config: %w", err)
	}

	s.logger.Info("Connection config updated",
		"base_id", cfg.BaseID,
		"table", cfg.TableName,
		"batch_size", cfg.BatchSize)

	return nil
}

// Connection returns the stored config with secrets redacted.
func (s *service) Connection(ctx context.Context) (models.ConnectionConfig, error) {
	cfg, err := s.clients.Config(ctx)
	if err != nil {
		return models.ConnectionConfig{}, err
	}
	return cfg.Redacted(), nil
}

// SyncMedia reconciles attachments outside of a job.
func (s *service) SyncMedia(ctx context.Context, recordIDs []string, mediaTypes []string) (map[string]models.MediaResult, error) {
	if len(recordIDs) == 0 {
		return nil, fmt.Errorf("%w: record ids are required", models.ErrInvalidRequest)
	}
	for _, mt := range mediaTypes {
		if mt != models.MediaTypeImage && mt != models.MediaTypeDocument {
			return nil, fmt.Errorf("%w: unknown media type %q", models.ErrInvalidRequest, mt)
		}
	}

	results, err := s.media.SyncForRecords(ctx, recordIDs, mediaTypes)
	if err != nil {
		return nil, err
	}

	for _, id := range recordIDs {
		for _, msg := range results[id].Errors {
			if err := s.ledger.AppendError(ctx, mediaJobID, id, msg); err != nil {
				s.logger.Error("Failed to append ledger error", "job_id", mediaJobID, "error", err)
			}
		}
	}

	return results, nil
}

func (s *service) PlanMediaCleanup(ctx context.Context) (*models.CleanupPlan, error) {
	return s.media.PlanCleanup(ctx)
}

func (s *service) ExecuteMediaCleanup(ctx context.Context, token string) (*models.CleanupPlan, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: cleanup token is required", models.ErrInvalidRequest)
	}
	return s.media.ExecuteCleanup(ctx, token)
}

// GetStatus собирает статус из журнала задач; ничего не хранится в памяти процесса.
func (s *service) GetStatus(ctx context.Context) (*models.SyncStatus, error) {
	status := &models.SyncStatus{}

	lease, err := s.ledger.ActiveLease(ctx)
	if err != nil {
		return nil, err
	}
	if lease != nil {
		status.InProgress = true
		job, err := s.ledger.Job(ctx, lease.JobID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		status.CurrentJob = job
	}

	jobs, err := s.ledger.Jobs(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(jobs) > 0 {
		status.LastJob = jobs[0]
	}

	completed, err := s.ledger.LastCompletedJob(ctx)
	if err != nil {
		return nil, err
	}
	if completed != nil {
		status.LastSyncAt = completed.FinishedAt
	}

	cursor, err := s.ledger.Cursor(ctx, models.DirectionLocalToRemote)
	if err != nil {
		return nil, err
	}
	if status.PendingChanges, err = s.store.CountListingsModifiedSince(ctx, cursor); err != nil {
		return nil, fmt.Errorf("failed to count pending changes: %w", err)
	}

	if status.RecentErrors, err = s.ledger.CountErrorsSince(ctx, s.ledger.Now().Add(-recentErrorsWindow)); err != nil {
		return nil, err
	}

	if status.UnprocessedWebhook, err = s.store.CountUnprocessedWebhooks(ctx); err != nil {
		return nil, fmt.Errorf("failed to count unprocessed webhooks: %w", err)
	}

	return status, nil
}

func (s *service) Jobs(ctx context.Context, limit int) ([]*models.SyncJob, error) {
	return s.ledger.Jobs(ctx, limit)
}

func (s *service) Errors(ctx context.Context, limit int) ([]*models.LedgerError, error) {
	return s.ledger.RecentErrors(ctx, limit)
}
