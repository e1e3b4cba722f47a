package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/listingsync/internal/models"
	"github.com/iudanet/listingsync/internal/sync"
	"github.com/iudanet/listingsync/pkg/api"
)

// ConnectionHandler обрабатывает настройку подключения и field mapping
type ConnectionHandler struct {
	logger  *slog.Logger
	service sync.Service
}

// NewConnectionHandler создает новый handler для настроек подключения
func NewConnectionHandler(logger *slog.Logger, service sync.Service) *ConnectionHandler {
	return &ConnectionHandler{
		logger:  logger,
		service: service,
	}
}

// TestConnection обрабатывает POST /api/v1/connection/test.
// Неудачная проверка это 200 с success=false, не ошибка запроса
func (h *ConnectionHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	var req api.ConnectionTestRequest
	if err := decodeRequest(r, &req, false); err != nil {
		sendDomainError(w, h.logger, err)
		return
	}

	res, err := h.service.TestConnection(r.Context(), sync.ConnectionTest{
		AccessToken: req.AccessToken,
		BaseID:      req.BaseID,
		TableName:   req.TableName,
	})
	if err != nil {
		sendDomainError(w, h.logger, err)
		return
	}

	sendJSON(w, h.logger, res, http.StatusOK)
}

// Connection обрабатывает GET /api/v1/connection
func (h *ConnectionHandler) Connection(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.service.Connection(r.Context())
	if err != nil {
		sendDomainError(w, h.logger, err)
		return
	}

	sendJSON(w, h.logger, toAPIConnection(cfg), http.StatusOK)
}

// UpdateConnection обрабатывает PUT /api/v1/connection.
// Пустые access_token и webhook_secret оставляют сохраненные значения
func (h *ConnectionHandler) UpdateConnection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.Connection
	if err := decodeRequest(r, &req, false); err != nil {
		sendDomainError(w, h.logger, err)
		return
	}

	if err := h.service.UpdateConnection(ctx, fromAPIConnection(req)); err != nil {
		sendDomainError(w, h.logger, err)
		return
	}

	operator, _ := GetOperator(ctx)
	h.logger.InfoContext(ctx, "connection updated",
		"operator", operator,
		"base_id", req.BaseID,
		"table", req.TableName)

	cfg, err := h.service.Connection(ctx)
	if err != nil {
		sendDomainError(w, h.logger, err)
		return
	}
	sendJSON(w, h.logger, toAPIConnection(cfg), http.StatusOK)
}

// Schema обрабатывает GET /api/v1/schema
func (h *ConnectionHandler) Schema(w http.ResponseWriter, r *http.Request) {
	schema, err := h.service.GetSchema(r.Context())
	if err != nil {
		sendDomainError(w, h.logger, err)
		return
	}

	sendJSON(w, h.logger, schema, http.StatusOK)
}

// FieldMapping обрабатывает GET /api/v1/fields
func (h *ConnectionHandler) FieldMapping(w http.ResponseWriter, r *http.Request) {
	specs := h.service.FieldMapping(r.Context())

	resp := api.FieldMappingRequest{Fields: make([]api.FieldSpec, 0, len(specs))}
	for _, spec := range specs {
		resp.Fields = append(resp.Fields, api.FieldSpec{
			Name:      spec.Name,
			Category:  string(spec.Category),
			MediaType: spec.MediaType,
			Label:     spec.Label,
		})
	}

	sendJSON(w, h.logger, resp, http.StatusOK)
}

// UpdateFieldMapping обрабатывает PUT /api/v1/fields
func (h *ConnectionHandler) UpdateFieldMapping(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.FieldMappingRequest
	if err := decodeRequest(r, &req, false); err != nil {
		sendDomainError(w, h.logger, err)
		return
	}

	specs := make([]models.FieldSpec, 0, len(req.Fields))
	for _, f := range req.Fields {
		specs = append(specs, models.FieldSpec{
			Name:      f.Name,
			Category:  models.Category(f.Category),
			MediaType: f.MediaType,
			Label:     f.Label,
		})
	}

	res, err := h.service.UpdateFieldMapping(ctx, specs)
	if err != nil {
		sendDomainError(w, h.logger, err)
		return
	}

	operator, _ := GetOperator(ctx)
	h.logger.InfoContext(ctx, "field mapping updated", "operator", operator, "fields", res.Accepted)

	sendJSON(w, h.logger, api.FieldMappingResponse{Accepted: res.Accepted}, http.StatusOK)
}

func toAPIConnection(cfg models.ConnectionConfig) api.Connection {
	return api.Connection{
		AccessToken:       cfg.AccessToken,
		BaseID:            cfg.BaseID,
		TableName:         cfg.TableName,
		APIURL:            cfg.APIURL,
		ContentURL:        cfg.ContentURL,
		LastModifiedField: cfg.LastModifiedField,
		WebhookSecret:     cfg.WebhookSecret,
		BatchSize:         cfg.BatchSize,
		RateLimitDelay:    int64(cfg.RateLimitDelay),
	}
}

func fromAPIConnection(c api.Connection) models.ConnectionConfig {
	return models.ConnectionConfig{
		AccessToken:       c.AccessToken,
		BaseID:            c.BaseID,
		TableName:         c.TableName,
		APIURL:            c.APIURL,
		ContentURL:        c.ContentURL,
		LastModifiedField: c.LastModifiedField,
		WebhookSecret:     c.WebhookSecret,
		BatchSize:         c.BatchSize,
		RateLimitDelay:    time.Duration(c.RateLimitDelay),
	}
}
