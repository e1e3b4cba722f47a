package models

import "errors"

var (
	// ErrConfigInvalid возвращается, если конфигурация подключения неполная
	ErrConfigInvalid = errors.New("connection config is invalid")
	// ErrSyncAlreadyInProgress возвращается при попытке запустить вторую задачу
	ErrSyncAlreadyInProgress = errors.New("sync already in progress")
	// ErrConnectivity remote store недоступен после всех повторов
	ErrConnectivity = errors.New("remote store unreachable")
	// ErrWebhookInvalid payload вебхука не прошел проверку
	ErrWebhookInvalid = errors.New("invalid webhook payload")
	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("not found")
	// ErrLeaseLost задача потеряла lease (его забрала другая задача)
	ErrLeaseLost = errors.New("job lease lost")
	// ErrFieldMappingInvalid набор FieldSpec не прошел проверку
	ErrFieldMappingInvalid = errors.New("invalid field mapping")
	// ErrInvalidRequest аргументы команды не прошли проверку
	ErrInvalidRequest = errors.New("invalid request")
)

// ErrorKind machine-readable error class reported in job rows and API responses.
type ErrorKind string

const (
	ErrorKindNone                  ErrorKind = ""
	ErrorKindConfigInvalid         ErrorKind = "config_invalid"
	ErrorKindSyncAlreadyInProgress ErrorKind = "sync_already_in_progress"
	ErrorKindConnectivity          ErrorKind = "connectivity"
	ErrorKindWebhookInvalid        ErrorKind = "webhook_invalid"
	ErrorKindNotFound              ErrorKind = "not_found"
	ErrorKindMappingInvalid        ErrorKind = "mapping_invalid"
	ErrorKindInvalidRequest        ErrorKind = "invalid_request"
	ErrorKindAbandoned             ErrorKind = "abandoned"
	ErrorKindInternal              ErrorKind = "internal"
)

// KindOf classifies err by the sentinel it wraps.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorKindNone
	case errors.Is(err, ErrConfigInvalid):
		return ErrorKindConfigInvalid
	case errors.Is(err, ErrSyncAlreadyInProgress):
		return ErrorKindSyncAlreadyInProgress
	case errors.Is(err, ErrConnectivity):
		return ErrorKindConnectivity
	case errors.Is(err, ErrWebhookInvalid):
		return ErrorKindWebhookInvalid
	case errors.Is(err, ErrNotFound):
		return ErrorKindNotFound
	case errors.Is(err, ErrFieldMappingInvalid):
		return ErrorKindMappingInvalid
	case errors.Is(err, ErrInvalidRequest):
		return ErrorKindInvalidRequest
	case errors.Is(err, ErrLeaseLost):
		return ErrorKindAbandoned
	default:
		return ErrorKindInternal
	}
}
