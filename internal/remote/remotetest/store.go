// Package remotetest provides an in-memory remote.API for tests.
package remotetest

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/iudanet/listingsync/internal/models"
	"github.com/iudanet/listingsync/internal/remote"
)

var _ remote.API = (*Store)(nil)

// Store is an in-memory table. Writes stamp ModifiedAt with Now.
type Store struct {
	records map[string]*models.Record
	assets  map[string][]byte

	// Reject maps a local id to a non-retriable failure of its writes.
	Reject map[string]remote.Result
	// Now is the store clock.
	Now func() time.Time

	Tables []remote.Table
	order  []string

	// WriteSizes records the number of records of every write request.
	WriteSizes []int

	mu     sync.Mutex
	nextID int

	// BatchSize splits writes the way the HTTP client does.
	BatchSize int
	// Down makes every call fail with an exhausted retriable error.
	Down bool
	// FilterUnsupported rejects ModifiedSince filters.
	FilterUnsupported bool
}

// New creates an empty store.
func New() *Store {
	return &Store{
		records:   make(map[string]*models.Record),
		assets:    make(map[string][]byte),
		Reject:    make(map[string]remote.Result),
		Now:       time.Now,
		BatchSize: models.DefaultBatchSize,
	}
}

func unavailable() error {
	return &remote.Error{Result: remote.Result{StatusCode: http.StatusServiceUnavailable, Message: "service unavailable", Retriable: true}}
}

func (s *Store) newID(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s%06d", prefix, s.nextID)
}

// Put seeds a record and returns its remote id. ModifiedAt is kept when set.
func (s *Store) Put(rec *models.Record) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := rec.Clone()
	if c.RemoteID == "" {
		c.RemoteID = s.newID("rec")
	}
	if c.ModifiedAt.IsZero() {
		c.ModifiedAt = s.Now()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = c.ModifiedAt
	}
	c.ID = ""
	c.Synced = nil
	c.FieldModified = nil
	if c.Fields == nil {
		c.Fields = map[string]any{}
	}

	if _, exists := s.records[c.RemoteID]; !exists {
		s.order = append(s.order, c.RemoteID)
	}
	s.records[c.RemoteID] = c
	return c.RemoteID
}

// Get returns a copy of a record or nil.
func (s *Store) Get(remoteID string) *models.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[remoteID].Clone()
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// PutAsset registers downloadable content and returns its URL.
func (s *Store) PutAsset(data []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := "mem://" + s.newID("asset")
	s.assets[u] = data
	return u
}

// ListRecords implements remote.API.
func (s *Store) ListRecords(ctx context.Context, opts remote.ListOptions) ([]*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Down {
		return nil, unavailable()
	}
	if opts.ModifiedSince != nil && s.FilterUnsupported {
		return nil, &remote.Error{Result: remote.Result{
			StatusCode: http.StatusUnprocessableEntity,
			Type:       "INVALID_FILTER_BY_FORMULA",
			Message:    "filter not supported",
		}}
	}

	var out []*models.Record
	for _, id := range s.order {
		rec := s.records[id]
		if opts.ModifiedSince != nil && !rec.ModifiedAt.After(*opts.ModifiedSince) {
			continue
		}
		out = append(out, rec.Clone())
	}
	return out, nil
}

// GetRecord implements remote.API.
func (s *Store) GetRecord(ctx context.Context, remoteID string) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Down {
		return nil, unavailable()
	}
	rec, ok := s.records[remoteID]
	if !ok {
		return nil, &remote.Error{Result: remote.Result{StatusCode: http.StatusNotFound, Type: "NOT_FOUND", Message: "NOT_FOUND"}}
	}
	return rec.Clone(), nil
}

// CreateRecords implements remote.API.
func (s *Store) CreateRecords(ctx context.Context, recs []remote.WriteRecord) (*remote.BatchResult, error) {
	return s.write(recs, true)
}

// UpdateRecords implements remote.API.
func (s *Store) UpdateRecords(ctx context.Context, recs []remote.WriteRecord) (*remote.BatchResult, error) {
	return s.write(recs, false)
}

func (s *Store) write(recs []remote.WriteRecord, create bool) (*remote.BatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := &remote.BatchResult{Items: make([]remote.ItemResult, len(recs))}
	pending := 0
	for i, r := range recs {
		item := &batch.Items[i]
		item.Index = i
		item.LocalID = r.LocalID
		item.RemoteID = r.RemoteID

		if len(r.Fields) == 0 {
			item.Outcome = remote.OutcomeSkipped
			item.Result = remote.Result{Success: true, Message: "no fields to write"}
			continue
		}
		pending++

		if s.Down {
			item.Outcome = remote.OutcomeErrored
			item.Result = remote.Result{StatusCode: http.StatusServiceUnavailable, Message: "service unavailable", Retriable: true}
			continue
		}
		if res, ok := s.Reject[r.LocalID]; ok {
			item.Outcome = remote.OutcomeErrored
			item.Result = res
			continue
		}

		var rec *models.Record
		if create {
			rec = &models.Record{RemoteID: s.newID("rec"), Fields: map[string]any{}, CreatedAt: s.Now()}
			s.records[rec.RemoteID] = rec
			s.order = append(s.order, rec.RemoteID)
		} else {
			existing, ok := s.records[r.RemoteID]
			if !ok {
				item.Outcome = remote.OutcomeErrored
				item.Result = remote.Result{StatusCode: http.StatusNotFound, Type: "NOT_FOUND", Message: "NOT_FOUND"}
				continue
			}
			rec = existing
		}

		// Как и Airtable, очищенное поле исчезает из записи
		for name, value := range r.Fields {
			if value == nil {
				delete(rec.Fields, name)
				continue
			}
			rec.Fields[name] = value
		}
		rec.ModifiedAt = s.Now()

		out := rec.Clone()
		out.ID = r.LocalID
		item.Outcome = remote.OutcomeApplied
		item.RemoteID = rec.RemoteID
		item.Record = out
		item.Result = remote.Result{Success: true, StatusCode: http.StatusOK}
	}

	size := s.BatchSize
	if size <= 0 {
		size = models.DefaultBatchSize
	}
	for pending > 0 {
		n := min(pending, size)
		s.WriteSizes = append(s.WriteSizes, n)
		batch.Requests++
		pending -= n
	}

	return batch, nil
}

// ListTables implements remote.API.
func (s *Store) ListTables(ctx context.Context) ([]remote.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Down {
		return nil, unavailable()
	}
	return s.Tables, nil
}

// GetSchema implements remote.API.
func (s *Store) GetSchema(ctx context.Context) (*remote.Table, error) {
	tables, err := s.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("table: %w", models.ErrNotFound)
	}
	return &tables[0], nil
}

// UploadAttachment implements remote.API.
func (s *Store) UploadAttachment(ctx context.Context, remoteID, field string, up remote.Upload) (*remote.Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Down {
		return nil, unavailable()
	}
	rec, ok := s.records[remoteID]
	if !ok {
		return nil, &remote.Error{Result: remote.Result{StatusCode: http.StatusNotFound, Type: "NOT_FOUND", Message: "NOT_FOUND"}}
	}

	att := remote.Attachment{
		ID:       s.newID("att"),
		Filename: up.Filename,
		Type:     up.ContentType,
		Size:     int64(len(up.Data)),
	}
	att.URL = "mem://" + att.ID
	s.assets[att.URL] = append([]byte(nil), up.Data...)

	atts := remote.ParseAttachments(rec.Fields[field])
	atts = append(atts, att)
	rec.Fields[field] = remote.AttachmentValue(atts)
	rec.ModifiedAt = s.Now()

	return &att, nil
}

// DownloadAsset implements remote.API.
func (s *Store) DownloadAsset(ctx context.Context, url string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Down {
		return nil, unavailable()
	}
	data, ok := s.assets[url]
	if !ok {
		return nil, &remote.Error{Result: remote.Result{StatusCode: http.StatusNotFound, Message: "asset not found"}}
	}
	return append([]byte(nil), data...), nil
}
