// Package remote talks to the remote tabular store (Airtable REST API): paced,
// batched and retried reads and writes with a structured result per record.
package remote

import (
	"context"
	"time"

	"github.com/iudanet/listingsync/internal/models"
)

//go:generate moq -out api_mock.go . API

// API is the set of remote store operations the sync engine uses.
type API interface {
	// ListRecords enumerates the table, following pagination.
	// With ModifiedSince set it returns ErrFilterUnsupported when the remote
	// rejects the filter formula.
	ListRecords(ctx context.Context, opts ListOptions) ([]*models.Record, error)

	// GetRecord returns one record; a missing record matches models.ErrNotFound.
	GetRecord(ctx context.Context, remoteID string) (*models.Record, error)

	// CreateRecords creates records in chunks of at most BatchSize.
	// Every input record has exactly one ItemResult in the returned batch.
	CreateRecords(ctx context.Context, recs []WriteRecord) (*BatchResult, error)

	// UpdateRecords patches records in chunks of at most BatchSize.
	UpdateRecords(ctx context.Context, recs []WriteRecord) (*BatchResult, error)

	// ListTables returns the tables of the configured base.
	ListTables(ctx context.Context) ([]Table, error)

	// GetSchema returns the configured table with its fields.
	GetSchema(ctx context.Context) (*Table, error)

	// UploadAttachment appends a file to an attachment field of a record.
	UploadAttachment(ctx context.Context, remoteID, field string, up Upload) (*Attachment, error)

	// DownloadAsset fetches attachment content by URL.
	DownloadAsset(ctx context.Context, url string) ([]byte, error)
}

// ListOptions filters ListRecords.
type ListOptions struct {
	ModifiedSince *time.Time
	PageSize      int
}

// WriteRecord is one record to create or update.
type WriteRecord struct {
	Fields   map[string]any
	LocalID  string
	RemoteID string
}

// Table describes a remote table.
type Table struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// Field describes a remote column.
type Field struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Attachment is one file in an attachment field.
type Attachment struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Type     string `json:"type"`
	Size     int64  `json:"size"`
}

// Upload is a file to attach.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Outcome categorizes one record of a batch.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeSkipped Outcome = "skipped"
	OutcomeErrored Outcome = "errored"
)

// ItemResult is the fate of one input record. Record holds the remote state
// after the write when the outcome is applied.
type ItemResult struct {
	Record   *models.Record
	LocalID  string
	RemoteID string
	Outcome  Outcome
	Result   Result
	Index    int
}

// BatchResult holds one ItemResult per input record, in input order.
type BatchResult struct {
	Items    []ItemResult
	Requests int
}

// Counts returns the number of applied, skipped and errored items.
func (b *BatchResult) Counts() (applied, skipped, errored int) {
	for _, item := range b.Items {
		switch item.Outcome {
		case OutcomeApplied:
			applied++
		case OutcomeSkipped:
			skipped++
		case OutcomeErrored:
			errored++
		}
	}
	return applied, skipped, errored
}

// AllConnectivityErrors reports whether the batch had items to write and every
// one of them failed with an exhausted retriable error.
func (b *BatchResult) AllConnectivityErrors() bool {
	attempted := 0
	for _, item := range b.Items {
		if item.Outcome == OutcomeSkipped {
			continue
		}
		attempted++
		if item.Outcome != OutcomeErrored || !item.Result.Retriable {
			return false
		}
	}
	return attempted > 0
}
