package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/iudanet/listingsync/internal/models"
	"github.com/iudanet/listingsync/internal/sync"
	"github.com/iudanet/listingsync/pkg/api"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 200
)

// SyncHandler обрабатывает команды синхронизации
type SyncHandler struct {
	logger  *slog.Logger
	service sync.Service
}

// NewSyncHandler создает новый handler для синхронизации
func NewSyncHandler(logger *slog.Logger, service sync.Service) *SyncHandler {
	return &SyncHandler{
		logger:  logger,
		service: service,
	}
}

// FullSync обрабатывает POST /api/v1/sync/full.
// Задача, которая стартовала и упала, возвращается со статусом 200 и status=failed
func (h *SyncHandler) FullSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.FullSyncRequest
	if err := decodeRequest(r, &req, true); err != nil {
		sendDomainError(w, h.logger, err)
		return
	}

	direction := models.Direction(req.Direction)
	if direction == "" {
		direction = models.DirectionBoth
	}

	operator, _ := GetOperator(ctx)
	h.logger.InfoContext(ctx, "full sync requested",
		"operator", operator,
		"direction", direction,
		"force_full", req.ForceFull)

	job, err := h.service.RunFullSync(ctx, direction, req.ForceFull)
	if err != nil {
		sendDomainError(w, h.logger, err)
		return
	}

	sendJSON(w, h.logger, job, http.StatusOK)
}

// DeltaSync обрабатывает POST /api/v1/sync/delta
func (h *SyncHandler) DeltaSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.DeltaSyncRequest
	if err := decodeRequest(r, &req, true); err != nil {
		sendDomainError(w, h.logger, err)
		return
	}

	operator, _ := GetOperator(ctx)
	h.logger.InfoContext(ctx, "delta sync requested", "operator", operator, "since", req.Since)

	job, err := h.service.RunDeltaSync(ctx, req.Since)
	if err != nil {
		sendDomainError(w, h.logger, err)
		return
	}

	sendJSON(w, h.logger, job, http.StatusOK)
}

// SyncRecord обрабатывает POST /api/v1/sync/record
func (h *SyncHandler) SyncRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RecordSyncRequest
	if err := decodeRequest(r, &req, false); err != nil {
		sendDomainError(w, h.logger, err)
		return
	}

	res, err := h.service.SyncSingleRecord(ctx, req.RecordID, models.Direction(req.Direction))
	if err != nil {
		sendDomainError(w, h.logger, err)
		return
	}

	sendJSON(w, h.logger, res, http.StatusOK)
}

// Status обрабатывает GET /api/v1/status
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.GetStatus(r.Context())
	if err != nil {
		sendDomainError(w, h.logger, err)
		return
	}

	sendJSON(w, h.logger, status, http.StatusOK)
}

// Jobs обрабатывает GET /api/v1/jobs?limit=N
func (h *SyncHandler) Jobs(w http.ResponseWriter, r *http.Request) {
	limit, err := pageLimit(r)
	if err != nil {
		sendDomainError(w, h.logger, err)
		return
	}

	jobs, err := h.service.Jobs(r.Context(), limit)
	if err != nil {
		sendDomainError(w, h.logger, err)
		return
	}
	if jobs == nil {
		jobs = []*models.SyncJob{}
	}

	sendJSON(w, h.logger, jobs, http.StatusOK)
}

// Errors обрабатывает GET /api/v1/errors?limit=N
func (h *SyncHandler) Errors(w http.ResponseWriter, r *http.Request) {
	limit, err := pageLimit(r)
	if err != nil {
		sendDomainError(w, h.logger, err)
		return
	}

	errs, err := h.service.Errors(r.Context(), limit)
	if err != nil {
		sendDomainError(w, h.logger, err)
		return
	}
	if errs == nil {
		errs = []*models.LedgerError{}
	}

	sendJSON(w, h.logger, errs, http.StatusOK)
}

// pageLimit разбирает параметр limit
func pageLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultPageLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", models.ErrInvalidRequest)
	}
	return min(limit, maxPageLimit), nil
}
