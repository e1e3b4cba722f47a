package remote

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/iudanet/listingsync/internal/models"
)

// ErrFilterUnsupported is returned by ListRecords when the remote cannot filter
// the requested modified-since window on the server side.
var ErrFilterUnsupported = errors.New("remote filter unsupported")

// errTypeInvalidFilter тип ошибки Airtable для некорректной формулы фильтра
const errTypeInvalidFilter = "INVALID_FILTER_BY_FORMULA"

// Result is the structured outcome of a remote call.
type Result struct {
	Message    string `json:"message,omitempty"`
	Type       string `json:"type,omitempty"`
	StatusCode int    `json:"status_code"`
	Success    bool   `json:"success"`
	Retriable  bool   `json:"retriable"`
}

// Error wraps a failed Result.
// It matches models.ErrConnectivity when the failure was retriable,
// models.ErrNotFound on 404 and ErrFilterUnsupported on a rejected filter.
type Error struct {
	Result Result
}

func (e *Error) Error() string {
	if e.Result.StatusCode == 0 {
		return fmt.Sprintf("remote request failed: %s", e.Result.Message)
	}
	if e.Result.Type != "" {
		return fmt.Sprintf("remote returned %d %s: %s", e.Result.StatusCode, e.Result.Type, e.Result.Message)
	}
	return fmt.Sprintf("remote returned %d: %s", e.Result.StatusCode, e.Result.Message)
}

// Is supports errors.Is against the sentinels above.
func (e *Error) Is(target error) bool {
	switch target {
	case models.ErrConnectivity:
		return e.Result.Retriable
	case models.ErrNotFound:
		return e.Result.StatusCode == http.StatusNotFound
	case ErrFilterUnsupported:
		return e.Result.Type == errTypeInvalidFilter
	}
	return false
}

// ResultOf extracts the structured result from err.
func ResultOf(err error) Result {
	if err == nil {
		return Result{Success: true}
	}
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Result
	}
	return Result{Message: err.Error(), Retriable: errors.Is(err, models.ErrConnectivity)}
}

// retriableStatus: 429 и 5xx повторяются, остальные 4xx нет
func retriableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
