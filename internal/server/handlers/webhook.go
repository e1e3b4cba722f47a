package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/iudanet/listingsync/internal/webhook"
	"github.com/iudanet/listingsync/pkg/api"
)

// maxWebhookBody ограничение на размер тела вебхука
const maxWebhookBody = 1 << 20

// WebhookProcessor applies one webhook delivery.
type WebhookProcessor interface {
	Process(ctx context.Context, raw []byte, signature string) (*webhook.Result, error)
}

// WebhookHandler принимает вебхуки remote store. Маршрут публичный,
// подлинность проверяется подписью тела
type WebhookHandler struct {
	logger    *slog.Logger
	processor WebhookProcessor
}

// NewWebhookHandler создает новый handler для вебхуков
func NewWebhookHandler(logger *slog.Logger, processor WebhookProcessor) *WebhookHandler {
	return &WebhookHandler{
		logger:    logger,
		processor: processor,
	}
}

// Receive обрабатывает POST /api/v1/webhook.
// Ошибка обработки возвращает 5xx, чтобы remote store повторил доставку
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		sendError(w, h.logger, "webhook body is too large or unreadable", http.StatusRequestEntityTooLarge)
		return
	}

	res, err := h.processor.Process(ctx, raw, r.Header.Get(webhook.SignatureHeader))
	if err != nil {
		h.logger.WarnContext(ctx, "webhook rejected", slog.Any("error", err))
		sendDomainError(w, h.logger, err)
		return
	}

	sendJSON(w, h.logger, api.WebhookResponse{
		EventID:       res.EventID,
		RecordID:      res.RecordID,
		ListingID:     res.ListingID,
		Action:        string(res.Action),
		ChangedFields: res.ChangedFields,
		Conflicts:     res.Conflicts,
		Processed:     res.Processed,
		Duplicate:     res.Duplicate,
	}, http.StatusOK)
}
