package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/iudanet/listingsync/internal/config"
	"github.com/iudanet/listingsync/internal/fields"
	"github.com/iudanet/listingsync/internal/ledger"
	"github.com/iudanet/listingsync/internal/logging"
	"github.com/iudanet/listingsync/internal/media"
	"github.com/iudanet/listingsync/internal/remote"
	"github.com/iudanet/listingsync/internal/server"
	"github.com/iudanet/listingsync/internal/server/handlers"
	"github.com/iudanet/listingsync/internal/storage"
	"github.com/iudanet/listingsync/internal/storage/boltdb"
	"github.com/iudanet/listingsync/internal/storage/sqlite"
	syncsvc "github.com/iudanet/listingsync/internal/sync"
	"github.com/iudanet/listingsync/internal/webhook"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	// Show version and exit if requested
	if cfg.ShowVersion {
		printVersion()
		os.Exit(0)
	}

	jwtCfg := handlers.JWTConfig{
		Secret:         []byte(cfg.Auth.JWTSecret),
		AccessTokenTTL: cfg.Auth.TokenTTL,
	}

	if cfg.IssueToken != "" {
		token, _, err := handlers.GenerateAccessToken(jwtCfg, cfg.IssueToken)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(token)
		os.Exit(0)
	}

	logger, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, jwtCfg, logger); err != nil {
		logger.Error("Server stopped with error", "error", err)
		logCloser.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, jwtCfg handlers.JWTConfig, logger *slog.Logger) error {
	logger.Info("Listingsync server starting",
		"version", Version,
		"addr", cfg.Server.Addr,
		"db", cfg.Storage.DBPath,
		"blob_db", cfg.Storage.BlobPath)

	store, err := sqlite.New(ctx, cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open listing store: %w", err)
	}
	defer store.Close()

	blobs, err := boltdb.New(ctx, cfg.Storage.BlobPath)
	if err != nil {
		return fmt.Errorf("failed to open blob store: %w", err)
	}
	defer blobs.Close()

	if cfg.Auth.SecretKey != "" {
		if err := store.EnableSecretEncryption(ctx, cfg.Auth.SecretKey); err != nil {
			return fmt.Errorf("failed to enable secret encryption: %w", err)
		}
		logger.Info("connection secrets are encrypted at rest")
	}

	if err := seedConnection(ctx, store, cfg.Remote, logger); err != nil {
		return err
	}

	registry, err := loadRegistry(ctx, store, cfg.Storage.FieldsFile, logger)
	if err != nil {
		return err
	}
	holder := fields.NewHolder(registry)

	provider := remote.NewProvider(store, remote.HTTPFactory(logger), logger)
	jobs := ledger.New(store, logger, ledger.WithLeaseTTL(cfg.Sync.LeaseTTL))
	mediaSync := media.New(store, store, blobs, provider, holder, logger)
	service := syncsvc.NewService(store, provider, holder, jobs, mediaSync, logger)
	ingestor := webhook.NewIngestor(store, provider, holder, jobs, mediaSync, logger)

	router := server.NewRouter(server.Deps{
		Logger:      logger,
		Service:     service,
		Webhooks:    ingestor,
		Listings:    store,
		Media:       mediaSync,
		DB:          store.DB(),
		JWT:         jwtCfg,
		APIKey:      cfg.Auth.APIKey,
		Version:     Version,
		WebhookRate: cfg.Server.WebhookRate,
		TokenRate:   cfg.Server.TokenRate,
		RateWindow:  cfg.Server.RateWindow,
	})

	var wg sync.WaitGroup
	if cfg.Sync.Interval > 0 {
		scheduler := syncsvc.NewScheduler(service, cfg.Sync.Interval, logger)
		wg.Go(func() { scheduler.Run(ctx) })
	} else {
		logger.Info("Scheduled delta sync disabled")
	}

	err = server.New(cfg.Server.Addr, router, logger).Run(ctx)

	// Планировщик останавливается по тому же ctx
	wg.Wait()
	logger.Info("Listingsync server stopped")

	return err
}

// seedConnection сохраняет подключение из окружения, если в базе его еще нет
func seedConnection(ctx context.Context, store storage.SettingsStorage, remoteCfg config.RemoteConfig, logger *slog.Logger) error {
	conn, ok := remoteCfg.Connection()
	if !ok {
		return nil
	}

	_, err := store.LoadConnectionConfig(ctx)
	switch {
	case err == nil:
		logger.Debug("Stored connection config kept, environment ignored")
		return nil
	case !errors.Is(err, storage.ErrSettingNotFound):
		return fmt.Errorf("failed to load connection config: %w", err)
	}

	if err := store.SaveConnectionConfig(ctx, &conn); err != nil {
		return fmt.Errorf("failed to seed connection config: %w", err)
	}
	logger.Info("Connection config seeded from environment",
		"base_id", conn.BaseID,
		"table", conn.TableName)
	return nil
}

// loadRegistry выбирает схему полей: файл, затем сохраненная схема, затем схема по умолчанию
func loadRegistry(ctx context.Context, store storage.SettingsStorage, path string, logger *slog.Logger) (*fields.Registry, error) {
	if path != "" {
		registry, err := fields.LoadFile(path)
		if err != nil {
			return nil, err
		}
		if err := store.SaveFieldSpecs(ctx, registry.Specs()); err != nil {
			return nil, fmt.Errorf("failed to store field schema: %w", err)
		}
		logger.Info("Field schema loaded from file", "path", path, "fields", len(registry.Specs()))
		return registry, nil
	}

	specs, err := store.LoadFieldSpecs(ctx)
	switch {
	case err == nil:
		logger.Info("Field schema loaded from store", "fields", len(specs))
	case errors.Is(err, storage.ErrSettingNotFound):
		specs = fields.DefaultListingSchema()
		logger.Info("Using default listing field schema", "fields", len(specs))
	default:
		return nil, fmt.Errorf("failed to load field schema: %w", err)
	}

	return fields.NewRegistry(specs)
}

func printVersion() {
	fmt.Printf("Listingsync Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
