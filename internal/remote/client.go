package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/iudanet/listingsync/internal/models"
)

const (
	// maxRetries количество повторов временной ошибки
	maxRetries = 3
	// pageSize максимальный размер страницы Airtable
	pageSize = 100
)

var _ API = (*Client)(nil)

// Client is the paced, batched and retried remote store client.
type Client struct {
	httpClient *http.Client
	pacer      *pacer
	logger     *slog.Logger
	cfg        models.ConnectionConfig
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New создает клиент remote store для заданной конфигурации.
func New(cfg models.ConnectionConfig, opts ...Option) *Client {
	cfg = cfg.WithDefaults()

	c := &Client{
		cfg:    cfg,
		pacer:  newPacer(cfg.RateLimitDelay),
		logger: slog.Default(),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Config returns the effective configuration.
func (c *Client) Config() models.ConnectionConfig {
	return c.cfg
}

func (c *Client) tableURL() string {
	return fmt.Sprintf("%s/v0/%s/%s", c.cfg.APIURL, url.PathEscape(c.cfg.BaseID), url.PathEscape(c.cfg.TableName))
}

// ListRecords enumerates the table, following pagination.
func (c *Client) ListRecords(ctx context.Context, opts ListOptions) ([]*models.Record, error) {
	size := opts.PageSize
	if size <= 0 || size > pageSize {
		size = pageSize
	}

	var (
		records []*models.Record
		offset  string
	)

	for {
		q := url.Values{}
		q.Set("pageSize", strconv.Itoa(size))
		if offset != "" {
			q.Set("offset", offset)
		}
		if opts.ModifiedSince != nil {
			q.Set("filterByFormula", modifiedSinceFormula(*opts.ModifiedSince))
		}

		var page listResponse
		if err := c.do(ctx, http.MethodGet, c.tableURL()+"?"+q.Encode(), nil, &page); err != nil {
			return nil, fmt.Errorf("failed to list records: %w", err)
		}

		for _, w := range page.Records {
			records = append(records, toRecord(w, c.cfg.LastModifiedField))
		}

		if page.Offset == "" {
			return records, nil
		}
		offset = page.Offset
	}
}

// modifiedSinceFormula формула Airtable "изменено после"
func modifiedSinceFormula(since time.Time) string {
	return fmt.Sprintf("IS_AFTER(LAST_MODIFIED_TIME(), DATETIME_PARSE('%s'))", since.UTC().Format(time.RFC3339Nano))
}

// GetRecord returns one record.
func (c *Client) GetRecord(ctx context.Context, remoteID string) (*models.Record, error) {
	var w wireRecord
	if err := c.do(ctx, http.MethodGet, c.tableURL()+"/"+url.PathEscape(remoteID), nil, &w); err != nil {
		return nil, fmt.Errorf("failed to get record %s: %w", remoteID, err)
	}
	return toRecord(w, c.cfg.LastModifiedField), nil
}

// CreateRecords creates records in chunks of at most BatchSize.
func (c *Client) CreateRecords(ctx context.Context, recs []WriteRecord) (*BatchResult, error) {
	return c.writeBatch(ctx, http.MethodPost, recs)
}

// UpdateRecords patches records in chunks of at most BatchSize.
func (c *Client) UpdateRecords(ctx context.Context, recs []WriteRecord) (*BatchResult, error) {
	for i, r := range recs {
		if r.RemoteID == "" {
			return nil, fmt.Errorf("record #%d (%s) has no remote id", i, r.LocalID)
		}
	}
	return c.writeBatch(ctx, http.MethodPatch, recs)
}

func (c *Client) writeBatch(ctx context.Context, method string, recs []WriteRecord) (*BatchResult, error) {
	batch := &BatchResult{Items: make([]ItemResult, len(recs))}

	pending := make([]int, 0, len(recs))
	for i, r := range recs {
		batch.Items[i] = ItemResult{Index: i, LocalID: r.LocalID, RemoteID: r.RemoteID}
		if len(r.Fields) == 0 {
			// Писать нечего: запрос не отправляется
			batch.Items[i].Outcome = OutcomeSkipped
			batch.Items[i].Result = Result{Success: true, Message: "no fields to write"}
			continue
		}
		pending = append(pending, i)
	}

	for start := 0; start < len(pending); start += c.cfg.BatchSize {
		end := min(start+c.cfg.BatchSize, len(pending))
		if err := c.writeChunk(ctx, method, recs, pending[start:end], batch); err != nil {
			return batch, err
		}
	}

	return batch, nil
}

// writeChunk отправляет один запрос. Если запрос из нескольких записей
// отклонен без права повтора, записи отправляются по одной, чтобы ошибку
// получила только проблемная запись.
func (c *Client) writeChunk(ctx context.Context, method string, recs []WriteRecord, idx []int, batch *BatchResult) error {
	req := writeRequest{Records: make([]wireRecord, 0, len(idx)), Typecast: true}
	for _, i := range idx {
		w := wireRecord{Fields: recs[i].Fields}
		if method == http.MethodPatch {
			w.ID = recs[i].RemoteID
		}
		req.Records = append(req.Records, w)
	}

	var resp writeResponse
	batch.Requests++
	err := c.do(ctx, method, c.tableURL(), req, &resp)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		res := ResultOf(err)
		if !res.Retriable && len(idx) > 1 {
			c.logger.Warn("Batch rejected, isolating records",
				"records", len(idx),
				"status", res.StatusCode,
				"error", res.Message)
			for _, i := range idx {
				if err := c.writeChunk(ctx, method, recs, []int{i}, batch); err != nil {
					return err
				}
			}
			return nil
		}

		for _, i := range idx {
			batch.Items[i].Outcome = OutcomeErrored
			batch.Items[i].Result = res
		}
		return nil
	}

	for n, i := range idx {
		if n >= len(resp.Records) {
			batch.Items[i].Outcome = OutcomeErrored
			batch.Items[i].Result = Result{StatusCode: http.StatusOK, Message: "record missing from response"}
			continue
		}
		rec := toRecord(resp.Records[n], c.cfg.LastModifiedField)
		rec.ID = recs[i].LocalID
		batch.Items[i].Outcome = OutcomeApplied
		batch.Items[i].RemoteID = rec.RemoteID
		batch.Items[i].Record = rec
		batch.Items[i].Result = Result{Success: true, StatusCode: http.StatusOK}
	}

	return nil
}

// ListTables returns the tables of the configured base.
func (c *Client) ListTables(ctx context.Context) ([]Table, error) {
	var resp tablesResponse
	u := fmt.Sprintf("%s/v0/meta/bases/%s/tables", c.cfg.APIURL, url.PathEscape(c.cfg.BaseID))
	if err := c.do(ctx, http.MethodGet, u, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return resp.Tables, nil
}

// GetSchema returns the configured table with its fields.
func (c *Client) GetSchema(ctx context.Context) (*Table, error) {
	tables, err := c.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	for i := range tables {
		if tables[i].Name == c.cfg.TableName || tables[i].ID == c.cfg.TableName {
			return &tables[i], nil
		}
	}

	return nil, fmt.Errorf("table %q: %w", c.cfg.TableName, models.ErrNotFound)
}

// UploadAttachment appends a file to an attachment field of a record.
func (c *Client) UploadAttachment(ctx context.Context, remoteID, field string, up Upload) (*Attachment, error) {
	u := fmt.Sprintf("%s/v0/%s/%s/%s/uploadAttachment",
		c.cfg.ContentURL, url.PathEscape(c.cfg.BaseID), url.PathEscape(remoteID), url.PathEscape(field))

	req := uploadRequest{
		ContentType: up.ContentType,
		File:        base64.StdEncoding.EncodeToString(up.Data),
		Filename:    up.Filename,
	}

	var resp wireRecord
	if err := c.do(ctx, http.MethodPost, u, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", up.Filename, err)
	}

	atts := ParseAttachments(resp.Fields[field])
	// Новое вложение добавляется в конец списка
	for i := len(atts) - 1; i >= 0; i-- {
		if atts[i].Filename == up.Filename {
			return &atts[i], nil
		}
	}

	return nil, &Error{Result: Result{StatusCode: http.StatusOK, Message: "uploaded attachment missing from response"}}
}

// DownloadAsset fetches attachment content by URL.
func (c *Client) DownloadAsset(ctx context.Context, assetURL string) ([]byte, error) {
	var data []byte
	err := c.withRetry(ctx, func(ctx context.Context) (Result, error) {
		body, res, err := c.send(ctx, http.MethodGet, assetURL, nil, false)
		if err != nil {
			return res, err
		}
		data = body
		return res, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download asset: %w", err)
	}
	return data, nil
}

// do выполняет JSON-запрос с учетом паузы и повторов
func (c *Client) do(ctx context.Context, method, u string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	return c.withRetry(ctx, func(ctx context.Context) (Result, error) {
		respBody, res, err := c.send(ctx, method, u, payload, true)
		if err != nil {
			return res, err
		}

		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				res = Result{StatusCode: res.StatusCode, Message: "malformed response: " + err.Error()}
				return res, &Error{Result: res}
			}
		}

		return res, nil
	})
}

// withRetry повторяет временные ошибки с экспоненциальной задержкой:
// RateLimitDelay, 2×RateLimitDelay, 4×RateLimitDelay
func (c *Client) withRetry(ctx context.Context, attempt func(ctx context.Context) (Result, error)) error {
	b := retry.WithMaxRetries(maxRetries, retry.NewExponential(c.cfg.RateLimitDelay))

	n := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		n++
		res, err := attempt(ctx)
		if err == nil {
			return nil
		}
		if res.Retriable && ctx.Err() == nil {
			c.logger.Warn("Remote request failed, retrying",
				"attempt", n,
				"status", res.StatusCode,
				"error", res.Message)
			return retry.RetryableError(err)
		}
		return err
	})
}

// send выполняет один HTTP-запрос после паузы
func (c *Client) send(ctx context.Context, method, u string, payload []byte, auth bool) ([]byte, Result, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, Result{Message: err.Error()}, err
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		res := Result{Message: err.Error()}
		return nil, res, &Error{Result: res}
	}

	if auth {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, Result{Message: ctx.Err().Error()}, ctx.Err()
		}
		// Сетевая ошибка или таймаут: повторяем
		res := Result{Message: err.Error(), Retriable: true}
		return nil, res, &Error{Result: res}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		res := Result{StatusCode: resp.StatusCode, Message: "failed to read response body: " + err.Error(), Retriable: true}
		return nil, res, &Error{Result: res}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errType, message := parseErrorBody(respBody)
		res := Result{
			StatusCode: resp.StatusCode,
			Type:       errType,
			Message:    message,
			Retriable:  retriableStatus(resp.StatusCode),
		}
		return nil, res, &Error{Result: res}
	}

	return respBody, Result{Success: true, StatusCode: resp.StatusCode}, nil
}
