package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/listingsync/internal/media"
	"github.com/iudanet/listingsync/internal/models"
	"github.com/iudanet/listingsync/internal/sync"
	"github.com/iudanet/listingsync/pkg/api"
)

func TestMediaHandler_SyncMedia(t *testing.T) {
	svc := &sync.ServiceMock{
		SyncMediaFunc: func(ctx context.Context, recordIDs []string, mediaTypes []string) (map[string]models.MediaResult, error) {
			return map[string]models.MediaResult{
				"lst-1": {Synced: 2},
				"lst-2": {Failed: 1, Errors: []string{"download failed"}},
			}, nil
		},
	}
	handler := NewMediaHandler(setupTestLogger(), svc)

	t.Run("results per record", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.SyncMedia(w, newJSONRequest(t, http.MethodPost, "/api/v1/media/sync",
			api.MediaSyncRequest{RecordIDs: []string{"lst-1", "lst-2"}, MediaTypes: []string{"image"}}))

		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeBody[api.MediaSyncResponse](t, w)
		assert.Equal(t, 2, resp.Results["lst-1"].Synced)
		assert.Equal(t, []string{"download failed"}, resp.Results["lst-2"].Errors)

		call := svc.SyncMediaCalls()[0]
		assert.Equal(t, []string{"image"}, call.MediaTypes)
	})

	t.Run("record ids are required", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.SyncMedia(w, newJSONRequest(t, http.MethodPost, "/api/v1/media/sync", api.MediaSyncRequest{}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Len(t, svc.SyncMediaCalls(), 1)
	})
}

func TestMediaHandler_Cleanup(t *testing.T) {
	plan := &models.CleanupPlan{Token: "tok-1", Fingerprints: []string{"aa", "bb"}, Bytes: 2048}
	svc := &sync.ServiceMock{
		PlanMediaCleanupFunc: func(ctx context.Context) (*models.CleanupPlan, error) {
			return plan, nil
		},
		ExecuteMediaCleanupFunc: func(ctx context.Context, token string) (*models.CleanupPlan, error) {
			if token != plan.Token {
				return nil, fmt.Errorf("execute: %w", media.ErrCleanupPlanChanged)
			}
			return plan, nil
		},
	}
	handler := NewMediaHandler(setupTestLogger(), svc)

	w := httptest.NewRecorder()
	handler.CleanupPlan(w, newJSONRequest(t, http.MethodPost, "/api/v1/media/cleanup/plan", nil))
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[api.CleanupPlan](t, w)
	assert.Equal(t, "tok-1", got.Token)
	assert.Equal(t, int64(2048), got.Bytes)

	tests := []struct {
		name     string
		body     any
		wantCode int
	}{
		{name: "confirmed plan", body: api.CleanupRequest{Token: "tok-1"}, wantCode: http.StatusOK},
		{name: "stale plan", body: api.CleanupRequest{Token: "tok-0"}, wantCode: http.StatusBadRequest},
		{name: "token required", body: api.CleanupRequest{}, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.Cleanup(w, newJSONRequest(t, http.MethodPost, "/api/v1/media/cleanup", tt.body))
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}
