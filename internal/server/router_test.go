package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/listingsync/internal/models"
	"github.com/iudanet/listingsync/internal/server/handlers"
	"github.com/iudanet/listingsync/internal/storage/sqlite"
	"github.com/iudanet/listingsync/internal/sync"
	"github.com/iudanet/listingsync/internal/webhook"
	"github.com/iudanet/listingsync/pkg/api"
)

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type stubProcessor struct {
	calls int
}

func (s *stubProcessor) Process(ctx context.Context, raw []byte, signature string) (*webhook.Result, error) {
	s.calls++
	return &webhook.Result{EventID: "evt-1", RecordID: "rec1", Action: webhook.ActionSkipped, Duplicate: true}, nil
}

type stubAttacher struct{}

func (stubAttacher) AddLocal(ctx context.Context, listingID, field, filename string, data []byte) (*models.MediaAsset, error) {
	return nil, models.ErrNotFound
}

func (stubAttacher) Assets(ctx context.Context, listingID, field string) ([]*models.MediaAsset, error) {
	return nil, nil
}

type testAPI struct {
	server *httptest.Server
	svc    *sync.ServiceMock
	hooks  *stubProcessor
	jwt    handlers.JWTConfig
}

func setupTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc := &sync.ServiceMock{
		GetStatusFunc: func(ctx context.Context) (*models.SyncStatus, error) {
			return &models.SyncStatus{PendingChanges: 2}, nil
		},
	}
	hooks := &stubProcessor{}
	jwtCfg := handlers.JWTConfig{Secret: []byte("router-test-secret"), AccessTokenTTL: time.Hour}

	router := NewRouter(Deps{
		Logger:      setupTestLogger(),
		Service:     svc,
		Webhooks:    hooks,
		Listings:    store,
		Media:       stubAttacher{},
		DB:          store.DB(),
		JWT:         jwtCfg,
		APIKey:      "admin-key",
		Version:     "test",
		WebhookRate: 2,
		TokenRate:   3,
		RateWindow:  time.Minute,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testAPI{server: srv, svc: svc, hooks: hooks, jwt: jwtCfg}
}

func (a *testAPI) do(t *testing.T, method, path, token, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, a.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestRouter_PublicAndProtectedRoutes(t *testing.T) {
	a := setupTestAPI(t)

	tests := []struct {
		name     string
		method   string
		path     string
		wantCode int
	}{
		{name: "health is public", method: http.MethodGet, path: "/api/v1/health", wantCode: http.StatusOK},
		{name: "status needs token", method: http.MethodGet, path: "/api/v1/status", wantCode: http.StatusUnauthorized},
		{name: "full sync needs token", method: http.MethodPost, path: "/api/v1/sync/full", wantCode: http.StatusUnauthorized},
		{name: "listings need token", method: http.MethodGet, path: "/api/v1/listings", wantCode: http.StatusUnauthorized},
		{name: "unknown route", method: http.MethodGet, path: "/api/v2/status", wantCode: http.StatusNotFound},
		{name: "wrong method on public route", method: http.MethodGet, path: "/api/v1/webhook", wantCode: http.StatusMethodNotAllowed},
		{name: "wrong method on protected route", method: http.MethodDelete, path: "/api/v1/status", wantCode: http.StatusMethodNotAllowed},
		{name: "wrong method on listing", method: http.MethodDelete, path: "/api/v1/listings/abc", wantCode: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := a.do(t, tt.method, tt.path, "", "")
			assert.Equal(t, tt.wantCode, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
			assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
		})
	}

	assert.Empty(t, a.svc.RunFullSyncCalls())
}

func TestRouter_TokenFlow(t *testing.T) {
	a := setupTestAPI(t)

	resp := a.do(t, http.MethodPost, "/api/v1/auth/token", "", `{"operator":"ops","api_key":"admin-key"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tok api.TokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tok))
	require.NotEmpty(t, tok.AccessToken)

	resp = a.do(t, http.MethodGet, "/api/v1/status", tok.AccessToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status api.StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, 2, status.PendingChanges)

	// Метод не совпадает с маршрутом
	resp = a.do(t, http.MethodDelete, "/api/v1/status", tok.AccessToken, "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	// Listing маршруты идут в хранилище
	resp = a.do(t, http.MethodGet, "/api/v1/listings/missing", tok.AccessToken, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_TokenRateLimit(t *testing.T) {
	a := setupTestAPI(t)

	var codes []int
	for i := 0; i < 4; i++ {
		resp := a.do(t, http.MethodPost, "/api/v1/auth/token", "", `{"operator":"ops","api_key":"wrong"}`)
		codes = append(codes, resp.StatusCode)
	}

	assert.Equal(t, []int{
		http.StatusUnauthorized, http.StatusUnauthorized, http.StatusUnauthorized,
		http.StatusTooManyRequests,
	}, codes)
}

func TestRouter_WebhookIsPublicAndLimited(t *testing.T) {
	a := setupTestAPI(t)

	for i := 0; i < 2; i++ {
		resp := a.do(t, http.MethodPost, "/api/v1/webhook", "", `{}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp := a.do(t, http.MethodPost, "/api/v1/webhook", "", `{}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	assert.Equal(t, 2, a.hooks.calls)
}

func TestServer_ServeAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	srv := New(ln.Addr().String(), handler, setupTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusNoContent
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
