package models

import (
	"strings"
	"time"
)

const (
	// DefaultBatchSize максимальное количество записей в одном запросе к remote store
	DefaultBatchSize = 50
	// DefaultRateLimitDelay минимальная пауза между исходящими запросами
	DefaultRateLimitDelay = 200 * time.Millisecond
	// DefaultAPIURL базовый адрес REST API табличного хранилища
	DefaultAPIURL = "https://api.airtable.com"
	// DefaultContentURL адрес для загрузки вложений
	DefaultContentURL = "https://content.airtable.com"
	// DefaultLastModifiedField имя поля remote store с временем последнего изменения записи
	DefaultLastModifiedField = "Last Modified"
)

// ConnectionConfig holds the credentials and table identity of the remote store
// together with the batching parameters of the remote client.
type ConnectionConfig struct {
	AccessToken       string        `json:"access_token"`
	BaseID            string        `json:"base_id"`
	TableName         string        `json:"table_name"`
	APIURL            string        `json:"api_url,omitempty"`
	ContentURL        string        `json:"content_url,omitempty"`
	LastModifiedField string        `json:"last_modified_field,omitempty"`
	WebhookSecret     string        `json:"webhook_secret,omitempty"`
	BatchSize         int           `json:"batch_size"`
	RateLimitDelay    time.Duration `json:"rate_limit_delay"`
}

// Validate reports whether all identity fields required to talk to the remote
// store are present. A sync must not start when it returns false.
func (c ConnectionConfig) Validate() bool {
	return strings.TrimSpace(c.AccessToken) != "" &&
		strings.TrimSpace(c.BaseID) != "" &&
		strings.TrimSpace(c.TableName) != ""
}

// WithDefaults returns a copy with zero-valued tuning fields replaced by defaults.
func (c ConnectionConfig) WithDefaults() ConnectionConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.RateLimitDelay <= 0 {
		c.RateLimitDelay = DefaultRateLimitDelay
	}
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.ContentURL == "" {
		c.ContentURL = DefaultContentURL
	}
	if c.LastModifiedField == "" {
		c.LastModifiedField = DefaultLastModifiedField
	}
	return c
}

// Redacted returns a copy safe for logging and status responses.
func (c ConnectionConfig) Redacted() ConnectionConfig {
	if c.AccessToken != "" {
		c.AccessToken = "***"
	}
	if c.WebhookSecret != "" {
		c.WebhookSecret = "***"
	}
	return c
}
