package handlers

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/listingsync/internal/sync"
	"github.com/iudanet/listingsync/pkg/api"
)

// MediaHandler обрабатывает сверку и очистку вложений
type MediaHandler struct {
	logger  *slog.Logger
	service sync.Service
}

// NewMediaHandler создает новый handler для вложений
func NewMediaHandler(logger *slog.Logger, service sync.Service) *MediaHandler {
	return &MediaHandler{
		logger:  logger,
		service: service,
	}
}

// SyncMedia обрабатывает POST /api/v1/media/sync
func (h *MediaHandler) SyncMedia(w http.ResponseWriter, r *http.Request) {
	var req api.MediaSyncRequest
	if err := decodeRequest(r, &req, false); err != nil {
		sendDomainError(w, h.logger, err)
		return
	}

	results, err := h.service.SyncMedia(r.Context(), req.RecordIDs, req.MediaTypes)
	if err != nil {
		sendDomainError(w, h.logger, err)
		return
	}

	resp := api.MediaSyncResponse{Results: make(map[string]api.MediaResult, len(results))}
	for id, res := range results {
		resp.Results[id] = api.MediaResult{
			Errors:  res.Errors,
			Synced:  res.Synced,
			Skipped: res.Skipped,
			Failed:  res.Failed,
		}
	}

	sendJSON(w, h.logger, resp, http.StatusOK)
}

// CleanupPlan обрабатывает POST /api/v1/media/cleanup/plan
func (h *MediaHandler) CleanupPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.service.PlanMediaCleanup(r.Context())
	if err != nil {
		sendDomainError(w, h.logger, err)
		return
	}

	sendJSON(w, h.logger, plan, http.StatusOK)
}

// Cleanup обрабатывает POST /api/v1/media/cleanup.
// Токен плана устаревает, если набор осиротевших blob'ов изменился
func (h *MediaHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.CleanupRequest
	if err := decodeRequest(r, &req, false); err != nil {
		sendDomainError(w, h.logger, err)
		return
	}

	plan, err := h.service.ExecuteMediaCleanup(ctx, req.Token)
	if err != nil {
		sendDomainError(w, h.logger, err)
		return
	}

	operator, _ := GetOperator(ctx)
	h.logger.InfoContext(ctx, "media cleanup executed",
		"operator", operator,
		"blobs", len(plan.Fingerprints),
		"bytes", plan.Bytes)

	sendJSON(w, h.logger, plan, http.StatusOK)
}
