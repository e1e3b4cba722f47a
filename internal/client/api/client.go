// Package api is the HTTP client of the listingsync operator API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/iudanet/listingsync/pkg/api"
)

const apiPrefix = "/api/v1"

// Error is a non-2xx response of the server.
type Error struct {
	Kind       string
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("server error (%d, %s): %s", e.StatusCode, e.Kind, e.Message)
	}
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// IsKind reports whether err is a server error of the given kind.
func IsKind(err error, kind string) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			// Полная синхронизация большой таблицы идет минуты
			Timeout: 30 * time.Minute,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// SetToken sets the bearer token sent with every request.
func (c *Client) SetToken(token string) {
	c.token = token
}

// IssueToken обменивает API key на access token
func (c *Client) IssueToken(ctx context.Context, operator, apiKey string) (*api.TokenResponse, error) {
	req := api.TokenRequest{Operator: operator, APIKey: apiKey}

	var resp api.TokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/auth/token", req, &resp); err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	return &resp, nil
}

// Health проверяет доступность сервера
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var resp api.HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, fmt.Errorf("health request failed: %w", err)
	}
	return &resp, nil
}

// Status возвращает состояние синхронизации
func (c *Client) Status(ctx context.Context) (*api.StatusResponse, error) {
	var resp api.StatusResponse
	if err := c.doRequest(ctx, http.MethodGet, "/status", nil, &resp); err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return &resp, nil
}

// Jobs возвращает последние задачи синхронизации
func (c *Client) Jobs(ctx context.Context, limit int) ([]api.SyncJob, error) {
	var resp []api.SyncJob
	if err := c.doRequest(ctx, http.MethodGet, withLimit("/jobs", limit), nil, &resp); err != nil {
		return nil, fmt.Errorf("jobs request failed: %w", err)
	}
	return resp, nil
}

// Errors возвращает последние записи журнала ошибок
func (c *Client) Errors(ctx context.Context, limit int) ([]api.LedgerError, error) {
	var resp []api.LedgerError
	if err := c.doRequest(ctx, http.MethodGet, withLimit("/errors", limit), nil, &resp); err != nil {
		return nil, fmt.Errorf("errors request failed: %w", err)
	}
	return resp, nil
}

// FullSync запускает полную синхронизацию и ждет ее завершения
func (c *Client) FullSync(ctx context.Context, req api.FullSyncRequest) (*api.SyncJob, error) {
	var resp api.SyncJob
	if err := c.doRequest(ctx, http.MethodPost, "/sync/full", req, &resp); err != nil {
		return nil, fmt.Errorf("full sync request failed: %w", err)
	}
	return &resp, nil
}

// DeltaSync запускает синхронизацию изменений
func (c *Client) DeltaSync(ctx context.Context, req api.DeltaSyncRequest) (*api.SyncJob, error) {
	var resp api.SyncJob
	if err := c.doRequest(ctx, http.MethodPost, "/sync/delta", req, &resp); err != nil {
		return nil, fmt.Errorf("delta sync request failed: %w", err)
	}
	return &resp, nil
}

// SyncRecord синхронизирует одну запись
func (c *Client) SyncRecord(ctx context.Context, req api.RecordSyncRequest) (*api.RecordSyncResponse, error) {
	var resp api.RecordSyncResponse
	if err := c.doRequest(ctx, http.MethodPost, "/sync/record", req, &resp); err != nil {
		return nil, fmt.Errorf("record sync request failed: %w", err)
	}
	return &resp, nil
}

// TestConnection проверяет учетные данные без сохранения
func (c *Client) TestConnection(ctx context.Context, req api.ConnectionTestRequest) (*api.ConnectionTestResponse, error) {
	var resp api.ConnectionTestResponse
	if err := c.doRequest(ctx, http.MethodPost, "/connection/test", req, &resp); err != nil {
		return nil, fmt.Errorf("connection test request failed: %w", err)
	}
	return &resp, nil
}

// Connection возвращает сохраненное подключение без секретов
func (c *Client) Connection(ctx context.Context) (*api.Connection, error) {
	var resp api.Connection
	if err := c.doRequest(ctx, http.MethodGet, "/connection", nil, &resp); err != nil {
		return nil, fmt.Errorf("connection request failed: %w", err)
	}
	return &resp, nil
}

// UpdateConnection сохраняет подключение
func (c *Client) UpdateConnection(ctx context.Context, req api.Connection) (*api.Connection, error) {
	var resp api.Connection
	if err := c.doRequest(ctx, http.MethodPut, "/connection", req, &resp); err != nil {
		return nil, fmt.Errorf("update connection request failed: %w", err)
	}
	return &resp, nil
}

// Schema возвращает схему удаленной таблицы
func (c *Client) Schema(ctx context.Context) (*api.SchemaResponse, error) {
	var resp api.SchemaResponse
	if err := c.doRequest(ctx, http.MethodGet, "/schema", nil, &resp); err != nil {
		return nil, fmt.Errorf("schema request failed: %w", err)
	}
	return &resp, nil
}

// FieldMapping возвращает текущую схему полей
func (c *Client) FieldMapping(ctx context.Context) ([]api.FieldSpec, error) {
	var resp api.FieldMappingRequest
	if err := c.doRequest(ctx, http.MethodGet, "/fields", nil, &resp); err != nil {
		return nil, fmt.Errorf("field mapping request failed: %w", err)
	}
	return resp.Fields, nil
}

// UpdateFieldMapping заменяет схему полей
func (c *Client) UpdateFieldMapping(ctx context.Context, req api.FieldMappingRequest) (*api.FieldMappingResponse, error) {
	var resp api.FieldMappingResponse
	if err := c.doRequest(ctx, http.MethodPut, "/fields", req, &resp); err != nil {
		return nil, fmt.Errorf("update field mapping request failed: %w", err)
	}
	return &resp, nil
}

// SyncMedia сверяет вложения указанных записей
func (c *Client) SyncMedia(ctx context.Context, req api.MediaSyncRequest) (*api.MediaSyncResponse, error) {
	var resp api.MediaSyncResponse
	if err := c.doRequest(ctx, http.MethodPost, "/media/sync", req, &resp); err != nil {
		return nil, fmt.Errorf("media sync request failed: %w", err)
	}
	return &resp, nil
}

// CleanupPlan строит план удаления неиспользуемых blob'ов
func (c *Client) CleanupPlan(ctx context.Context) (*api.CleanupPlan, error) {
	var resp api.CleanupPlan
	if err := c.doRequest(ctx, http.MethodPost, "/media/cleanup/plan", nil, &resp); err != nil {
		return nil, fmt.Errorf("cleanup plan request failed: %w", err)
	}
	return &resp, nil
}

// Cleanup выполняет ранее построенный план
func (c *Client) Cleanup(ctx context.Context, token string) (*api.CleanupPlan, error) {
	var resp api.CleanupPlan
	if err := c.doRequest(ctx, http.MethodPost, "/media/cleanup", api.CleanupRequest{Token: token}, &resp); err != nil {
		return nil, fmt.Errorf("cleanup request failed: %w", err)
	}
	return &resp, nil
}

// Listings возвращает локальные листинги
func (c *Client) Listings(ctx context.Context) ([]api.Listing, error) {
	var resp []api.Listing
	if err := c.doRequest(ctx, http.MethodGet, "/listings", nil, &resp); err != nil {
		return nil, fmt.Errorf("listings request failed: %w", err)
	}
	return resp, nil
}

// Listing возвращает один листинг
func (c *Client) Listing(ctx context.Context, id string) (*api.Listing, error) {
	var resp api.Listing
	if err := c.doRequest(ctx, http.MethodGet, "/listings/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, fmt.Errorf("listing request failed: %w", err)
	}
	return &resp, nil
}

// EditListing изменяет поля листинга
func (c *Client) EditListing(ctx context.Context, id string, fields map[string]any) (*api.Listing, error) {
	var resp api.Listing
	req := api.ListingEditRequest{Fields: fields}
	if err := c.doRequest(ctx, http.MethodPut, "/listings/"+url.PathEscape(id), req, &resp); err != nil {
		return nil, fmt.Errorf("edit listing request failed: %w", err)
	}
	return &resp, nil
}

func withLimit(path string, limit int) string {
	if limit <= 0 {
		return path
	}
	return path + "?limit=" + strconv.Itoa(limit)
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{StatusCode: resp.StatusCode, Message: string(respBody)}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			apiErr.Kind = errResp.Kind
			apiErr.Message = errResp.Error
			if errResp.Message != "" {
				apiErr.Message += ": " + errResp.Message
			}
		}
		return apiErr
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
