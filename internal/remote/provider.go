package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/iudanet/listingsync/internal/models"
	"github.com/iudanet/listingsync/internal/storage"
)

// Factory builds an API for a connection config.
type Factory func(cfg models.ConnectionConfig) API

// HTTPFactory builds real HTTP clients.
func HTTPFactory(logger *slog.Logger, opts ...Option) Factory {
	return func(cfg models.ConnectionConfig) API {
		return New(cfg, append([]Option{WithLogger(logger)}, opts...)...)
	}
}

// Provider отдает один общий клиент для активной конфигурации подключения,
// чтобы оркестратор, вебхуки и медиа делили одну паузу между запросами.
// Клиент пересоздается, когда сохраненная конфигурация меняется.
type Provider struct {
	settings storage.SettingsStorage
	factory  Factory
	logger   *slog.Logger
	client   API
	cfg      models.ConnectionConfig
	mu       sync.Mutex
}

// NewProvider creates a provider over the persisted connection config.
func NewProvider(settings storage.SettingsStorage, factory Factory, logger *slog.Logger) *Provider {
	return &Provider{
		settings: settings,
		factory:  factory,
		logger:   logger,
	}
}

// Config returns the stored connection config with defaults applied.
// A config that was never saved is returned empty.
func (p *Provider) Config(ctx context.Context) (models.ConnectionConfig, error) {
	cfg, err := p.settings.LoadConnectionConfig(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrSettingNotFound) {
			return models.ConnectionConfig{}.WithDefaults(), nil
		}
		return models.ConnectionConfig{}, fmt.Errorf("failed to load connection config: %w", err)
	}
	return cfg.WithDefaults(), nil
}

// Client returns the client for the stored config.
// Returns models.ErrConfigInvalid when the config does not validate.
func (p *Provider) Client(ctx context.Context) (API, models.ConnectionConfig, error) {
	cfg, err := p.Config(ctx)
	if err != nil {
		return nil, cfg, err
	}

	if !cfg.Validate() {
		return nil, cfg, fmt.Errorf("%w: access token, base id and table name are required", models.ErrConfigInvalid)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil || p.cfg != cfg {
		p.logger.Info("Creating remote client",
			"base_id", cfg.BaseID,
			"table", cfg.TableName,
			"batch_size", cfg.BatchSize,
			"rate_limit_delay", cfg.RateLimitDelay)
		p.client = p.factory(cfg)
		p.cfg = cfg
	}

	return p.client, cfg, nil
}

// ForConfig builds an uncached client for an ad hoc config.
func (p *Provider) ForConfig(cfg models.ConnectionConfig) API {
	return p.factory(cfg.WithDefaults())
}
