package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_FieldTime(t *testing.T) {
	recTime := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	fieldTime := recTime.Add(time.Hour)

	r := &Record{
		ModifiedAt:    recTime,
		FieldModified: map[string]time.Time{"price": fieldTime, "title": {}},
	}

	assert.Equal(t, fieldTime, r.FieldTime("price"))
	assert.Equal(t, recTime, r.FieldTime("title"), "zero field time falls back to record time")
	assert.Equal(t, recTime, r.FieldTime("city"))

	var nilRec *Record
	assert.True(t, nilRec.FieldTime("price").IsZero())
}

func TestRecord_Clone(t *testing.T) {
	original := &Record{
		ID:            "id-1",
		RemoteID:      "rec1",
		Fields:        map[string]any{"title": "House"},
		FieldModified: map[string]time.Time{"title": time.Now()},
		Synced:        map[string]any{"title": "Old house"},
		ModifiedAt:    time.Now(),
	}

	clone := original.Clone()
	require.NotNil(t, clone)
	assert.Equal(t, original, clone)

	clone.Fields["title"] = "Flat"
	clone.Synced["title"] = "Flat"
	assert.Equal(t, "House", original.Fields["title"])
	assert.Equal(t, "Old house", original.Synced["title"])

	var nilRec *Record
	assert.Nil(t, nilRec.Clone())
}

func TestRecord_IsNewerThan(t *testing.T) {
	now := time.Now()
	a := &Record{ModifiedAt: now}
	b := &Record{ModifiedAt: now.Add(-time.Minute)}

	assert.True(t, a.IsNewerThan(b))
	assert.False(t, b.IsNewerThan(a))
	assert.False(t, a.IsNewerThan(&Record{ModifiedAt: now}))
	assert.True(t, a.IsNewerThan(nil))
}

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		a, b     any
		name     string
		expected bool
	}{
		{name: "both nil", a: nil, b: nil, expected: true},
		{name: "nil vs value", a: nil, b: "x", expected: false},
		{name: "same string", a: "x", b: "x", expected: true},
		{name: "int vs float", a: 3, b: float64(3), expected: true},
		{name: "maps different order", a: map[string]any{"a": 1, "b": 2}, b: map[string]any{"b": 2, "a": 1}, expected: true},
		{name: "different slices", a: []any{"a"}, b: []any{"b"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValuesEqual(tt.a, tt.b))
		})
	}
}

func TestConnectionConfig_Validate(t *testing.T) {
	valid := ConnectionConfig{AccessToken: "tok", BaseID: "app1", TableName: "Listings"}
	assert.True(t, valid.Validate())

	for name, mutate := range map[string]func(*ConnectionConfig){
		"empty token": func(c *ConnectionConfig) { c.AccessToken = "" },
		"blank base":  func(c *ConnectionConfig) { c.BaseID = "  " },
		"empty table": func(c *ConnectionConfig) { c.TableName = "" },
	} {
		t.Run(name, func(t *testing.T) {
			c := valid
			mutate(&c)
			assert.False(t, c.Validate())
		})
	}
}

func TestConnectionConfig_WithDefaults(t *testing.T) {
	c := ConnectionConfig{}.WithDefaults()
	assert.Equal(t, DefaultBatchSize, c.BatchSize)
	assert.Equal(t, DefaultRateLimitDelay, c.RateLimitDelay)
	assert.Equal(t, DefaultAPIURL, c.APIURL)
	assert.Equal(t, DefaultLastModifiedField, c.LastModifiedField)

	c = ConnectionConfig{BatchSize: 10, RateLimitDelay: time.Second}.WithDefaults()
	assert.Equal(t, 10, c.BatchSize)
	assert.Equal(t, time.Second, c.RateLimitDelay)
}

func TestCategory_Allows(t *testing.T) {
	tests := []struct {
		category Category
		l2r      bool
		r2l      bool
	}{
		{CategoryManualSync, true, true},
		{CategoryMediaSync, true, true},
		{CategoryCalculatedLocal, true, false},
		{CategoryCalculatedRemote, false, true},
		{CategoryReadonly, false, false},
		{Category("bogus"), false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			assert.Equal(t, tt.l2r, tt.category.Allows(DirectionLocalToRemote))
			assert.Equal(t, tt.r2l, tt.category.Allows(DirectionRemoteToLocal))
		})
	}
}

func TestSyncStats_Add(t *testing.T) {
	var s SyncStats
	assert.True(t, s.IsZero())

	s.RecordCreated()
	s.RecordUpdated()
	s.RecordError()
	s.Add(SyncStats{TotalProcessed: 2, Skipped: 2, MediaSynced: 1})

	assert.Equal(t, SyncStats{TotalProcessed: 5, Created: 1, Updated: 1, Skipped: 2, Errors: 1, MediaSynced: 1}, s)
}

func TestWebhookEvent_IdempotencyKey(t *testing.T) {
	ts := time.Date(2025, 3, 4, 5, 6, 7, 8, time.FixedZone("X", 3600))
	e := &WebhookEvent{RecordID: "rec1", RemoteModifiedAt: ts}
	assert.Equal(t, "rec1|2025-03-04T04:06:07.000000008Z", e.IdempotencyKey())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrorKindNone, KindOf(nil))
	assert.Equal(t, ErrorKindConfigInvalid, KindOf(fmt.Errorf("start: %w", ErrConfigInvalid)))
	assert.Equal(t, ErrorKindConnectivity, KindOf(fmt.Errorf("list: %w", ErrConnectivity)))
	assert.Equal(t, ErrorKindSyncAlreadyInProgress, KindOf(ErrSyncAlreadyInProgress))
	assert.Equal(t, ErrorKindInvalidRequest, KindOf(fmt.Errorf("%w: direction", ErrInvalidRequest)))
	assert.Equal(t, ErrorKindAbandoned, KindOf(ErrLeaseLost))
	assert.Equal(t, ErrorKindInternal, KindOf(errors.New("boom")))
}

func TestJobLease_Held(t *testing.T) {
	now := time.Now()
	var nilLease *JobLease
	assert.False(t, nilLease.Held(now))
	assert.False(t, (&JobLease{ExpiresAt: now.Add(time.Minute)}).Held(now))
	assert.True(t, (&JobLease{JobID: "j", ExpiresAt: now.Add(time.Minute)}).Held(now))
	assert.False(t, (&JobLease{JobID: "j", ExpiresAt: now.Add(-time.Second)}).Held(now))
}
