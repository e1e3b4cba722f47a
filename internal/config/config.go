// Package config loads server settings from the environment, an optional
// .env file and command line flags, in increasing order of priority.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/iudanet/listingsync/internal/models"
	"github.com/iudanet/listingsync/internal/validation"
)

const envPrefix = "LISTINGSYNC_"

// Config holds all server settings.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Auth    AuthConfig
	Sync    SyncConfig
	Remote  RemoteConfig
	Logging LoggingConfig

	// ShowVersion печатает версию и завершает работу
	ShowVersion bool
	// IssueToken выпускает access token для оператора и завершает работу
	IssueToken string
}

type ServerConfig struct {
	Addr        string        `validate:"required"`
	WebhookRate int           `validate:"gte=0"`
	TokenRate   int           `validate:"gte=0"`
	RateWindow  time.Duration `validate:"gt=0"`
}

type StorageConfig struct {
	DBPath     string `validate:"required"`
	BlobPath   string `validate:"required"`
	FieldsFile string
}

type AuthConfig struct {
	JWTSecret string        `validate:"required,min=16"`
	TokenTTL  time.Duration `validate:"gt=0"`
	// APIKey пустой: выдача токенов по HTTP выключена
	APIKey string
	// SecretKey включает шифрование токена Airtable и webhook secret в базе
	SecretKey string
}

type SyncConfig struct {
	// Interval 0 отключает плановый delta sync
	Interval time.Duration `validate:"gte=0"`
	LeaseTTL time.Duration `validate:"gt=0"`
}

// RemoteConfig seeds the stored connection config on first start.
type RemoteConfig struct {
	AccessToken    string
	BaseID         string
	TableName      string
	APIURL         string `validate:"omitempty,url"`
	WebhookSecret  string
	BatchSize      int           `validate:"gte=0"`
	RateLimitDelay time.Duration `validate:"gte=0"`
}

type LoggingConfig struct {
	Level      string `validate:"oneof=debug info warn error"`
	Format     string `validate:"oneof=text json"`
	File       string
	MaxSizeMB  int `validate:"gte=0"`
	MaxBackups int `validate:"gte=0"`
	MaxAgeDays int `validate:"gte=0"`
}

// Connection returns the connection config described by the environment.
// ok is false when the environment does not identify a table.
func (r RemoteConfig) Connection() (cfg models.ConnectionConfig, ok bool) {
	cfg = models.ConnectionConfig{
		AccessToken:    r.AccessToken,
		BaseID:         r.BaseID,
		TableName:      r.TableName,
		APIURL:         r.APIURL,
		WebhookSecret:  r.WebhookSecret,
		BatchSize:      r.BatchSize,
		RateLimitDelay: r.RateLimitDelay,
	}
	return cfg.WithDefaults(), cfg.Validate()
}

// Load builds the config from the environment and args (without the program
// name). The .env file named by -env-file (default ".env") is optional.
func Load(args []string) (*Config, error) {
	flags := flag.NewFlagSet("listingsync-server", flag.ContinueOnError)

	envFile := flags.String("env-file", ".env", "Path to .env file")
	addr := flags.String("addr", "", "HTTP listen address")
	dbPath := flags.String("db", "", "Path to SQLite database")
	blobPath := flags.String("blob-db", "", "Path to BoltDB media blob store")
	fieldsFile := flags.String("fields", "", "Path to YAML field schema")
	syncInterval := flags.Duration("sync-interval", -1, "Scheduled delta sync interval, 0 disables")
	logLevel := flags.String("log-level", "", "Log level: debug, info, warn, error")
	logFormat := flags.String("log-format", "", "Log format: text, json")
	logFile := flags.String("log-file", "", "Write logs to a rotated file")
	showVersion := flags.Bool("version", false, "Show version information")
	issueToken := flags.String("issue-token", "", "Print an access token for the operator and exit")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	if err := loadEnvFile(*envFile); err != nil {
		return nil, err
	}

	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}

	// Флаги перекрывают окружение
	setString(&cfg.Server.Addr, *addr)
	setString(&cfg.Storage.DBPath, *dbPath)
	setString(&cfg.Storage.BlobPath, *blobPath)
	setString(&cfg.Storage.FieldsFile, *fieldsFile)
	setString(&cfg.Logging.Level, *logLevel)
	setString(&cfg.Logging.Format, *logFormat)
	setString(&cfg.Logging.File, *logFile)
	if *syncInterval >= 0 {
		cfg.Sync.Interval = *syncInterval
	}
	cfg.ShowVersion = *showVersion
	cfg.IssueToken = *issueToken

	if cfg.ShowVersion {
		return cfg, nil
	}

	if err := validation.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	// godotenv не перезаписывает уже выставленные переменные
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func fromEnv() (*Config, error) {
	p := &envParser{}

	cfg := &Config{
		Server: ServerConfig{
			Addr:        getEnv(envPrefix+"ADDR", ":8080"),
			WebhookRate: p.getInt(envPrefix+"WEBHOOK_RATE", 300),
			TokenRate:   p.getInt(envPrefix+"TOKEN_RATE", 5),
			RateWindow:  p.getDuration(envPrefix+"RATE_WINDOW", time.Minute),
		},
		Storage: StorageConfig{
			DBPath:     getEnv(envPrefix+"DB", "listingsync.db"),
			BlobPath:   getEnv(envPrefix+"BLOB_DB", "listingsync-media.db"),
			FieldsFile: getEnv(envPrefix+"FIELDS_FILE", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv(envPrefix+"JWT_SECRET", ""),
			TokenTTL:  p.getDuration(envPrefix+"TOKEN_TTL", 12*time.Hour),
			APIKey:    getEnv(envPrefix+"API_KEY", ""),
			SecretKey: getEnv(envPrefix+"SECRET_KEY", ""),
		},
		Sync: SyncConfig{
			Interval: p.getDuration(envPrefix+"SYNC_INTERVAL", 5*time.Minute),
			LeaseTTL: p.getDuration(envPrefix+"LEASE_TTL", 2*time.Minute),
		},
		Remote: RemoteConfig{
			AccessToken:    getEnv(envPrefix+"AIRTABLE_TOKEN", ""),
			BaseID:         getEnv(envPrefix+"AIRTABLE_BASE_ID", ""),
			TableName:      getEnv(envPrefix+"AIRTABLE_TABLE", ""),
			APIURL:         getEnv(envPrefix+"AIRTABLE_API_URL", ""),
			WebhookSecret:  getEnv(envPrefix+"WEBHOOK_SECRET", ""),
			BatchSize:      p.getInt(envPrefix+"BATCH_SIZE", 0),
			RateLimitDelay: p.getDuration(envPrefix+"RATE_LIMIT_DELAY", 0),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "text"),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  p.getInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: p.getInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: p.getInt("LOG_MAX_AGE_DAYS", 30),
		},
	}

	if p.err != nil {
		return nil, p.err
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

// envParser запоминает первую ошибку разбора, чтобы не проверять каждое поле
type envParser struct {
	err error
}

func (p *envParser) getInt(key string, defaultValue int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, err)
		return defaultValue
	}
	return v
}

func (p *envParser) getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw, err)
		return defaultValue
	}
	return v
}

func (p *envParser) fail(key, raw string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid value %q for %s: %w", raw, key, err)
	}
}
