package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/iudanet/listingsync/internal/models"
	"github.com/iudanet/listingsync/internal/validation"
	"github.com/iudanet/listingsync/pkg/api"
)

// maxRequestBody ограничение на размер JSON тела запроса
const maxRequestBody = 1 << 20

// StatusFor maps a domain error to its HTTP status.
func StatusFor(err error) int {
	switch models.KindOf(err) {
	case models.ErrorKindNone:
		return http.StatusOK
	case models.ErrorKindConfigInvalid:
		return http.StatusUnprocessableEntity
	case models.ErrorKindSyncAlreadyInProgress:
		return http.StatusConflict
	case models.ErrorKindWebhookInvalid, models.ErrorKindInvalidRequest, models.ErrorKindMappingInvalid:
		return http.StatusBadRequest
	case models.ErrorKindNotFound:
		return http.StatusNotFound
	case models.ErrorKindConnectivity:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// sendJSON пишет data как JSON с заданным статусом
func sendJSON(w http.ResponseWriter, logger *slog.Logger, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", slog.Any("error", err))
	}
}

// sendError пишет ответ с ошибкой с явным статусом
func sendError(w http.ResponseWriter, logger *slog.Logger, message string, statusCode int) {
	sendJSON(w, logger, api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}, statusCode)
}

// sendDomainError пишет ответ с ошибкой, статус и kind выводятся из err.
// Сообщения внутренних ошибок клиенту не отдаются
func sendDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := StatusFor(err)
	kind := models.KindOf(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed", slog.Any("error", err))
		message = ""
	}

	sendJSON(w, logger, api.ErrorResponse{
		Error:   http.StatusText(status),
		Kind:    string(kind),
		Message: message,
	}, status)
}

// decodeRequest читает JSON тело в dst и проверяет его validator'ом.
// Ошибки оборачивают models.ErrInvalidRequest. Пустое тело допустимо,
// если allowEmpty
func decodeRequest(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			return fmt.Errorf("%w: invalid request body: %w", models.ErrInvalidRequest, err)
		}
	}

	if err := validation.Struct(dst); err != nil {
		return fmt.Errorf("%w: %w", models.ErrInvalidRequest, err)
	}
	return nil
}
