package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/listingsync/internal/client/api"
	"github.com/iudanet/listingsync/internal/client/iocli"
	"github.com/iudanet/listingsync/internal/client/storage"
	"github.com/iudanet/listingsync/internal/client/storage/boltdb"
	pkgapi "github.com/iudanet/listingsync/pkg/api"
)

// testEnv сервер-заглушка, хранилище сессии и захваченный вывод
type testEnv struct {
	cli      *Cli
	sessions *boltdb.Storage
	out      *bytes.Buffer
	server   *httptest.Server
}

func newTestEnv(t *testing.T, handler http.Handler, input string) *testEnv {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sessions, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sessions.Close() })

	out := &bytes.Buffer{}
	c := New(api.NewClient(server.URL), sessions, iocli.NewStreams(strings.NewReader(input), out), server.URL, "")

	return &testEnv{cli: c, sessions: sessions, out: out, server: server}
}

func (e *testEnv) login(t *testing.T, token string) {
	t.Helper()
	require.NoError(t, e.sessions.SaveSession(context.Background(), &storage.Session{
		Operator:    "ops",
		Server:      e.server.URL,
		AccessToken: token,
		ExpiresAt:   time.Now().Add(time.Hour).Unix(),
	}))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestRun_UnknownCommand(t *testing.T) {
	env := newTestEnv(t, http.NotFoundHandler(), "")

	err := env.cli.Run(context.Background(), "frobnicate", nil)
	assert.ErrorIs(t, err, ErrUsage)
}

func TestRun_RequiresSession(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	}), "")

	err := env.cli.Run(context.Background(), "status", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not authenticated")
}

func TestRun_ExpiredSession(t *testing.T) {
	env := newTestEnv(t, http.NotFoundHandler(), "")
	require.NoError(t, env.sessions.SaveSession(context.Background(), &storage.Session{
		Operator:    "ops",
		Server:      env.server.URL,
		AccessToken: "old",
		ExpiresAt:   time.Now().Add(-time.Minute).Unix(),
	}))

	err := env.cli.Run(context.Background(), "status", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestRun_SessionOfOtherServer(t *testing.T) {
	env := newTestEnv(t, http.NotFoundHandler(), "")
	require.NoError(t, env.sessions.SaveSession(context.Background(), &storage.Session{
		Operator:    "ops",
		Server:      "http://elsewhere:8080",
		AccessToken: "t",
		ExpiresAt:   time.Now().Add(time.Hour).Unix(),
	}))

	err := env.cli.Run(context.Background(), "status", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "elsewhere")
}

func TestRun_ExplicitTokenWinsOverSession(t *testing.T) {
	var gotAuth string
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, pkgapi.StatusResponse{})
	}), "")
	env.login(t, "stored")
	env.cli.token = "explicit"

	require.NoError(t, env.cli.Run(context.Background(), "status", nil))
	assert.Equal(t, "Bearer explicit", gotAuth)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/auth/token", r.URL.Path)

		var req pkgapi.TokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.APIKey != "secret-key" {
			writeJSON(w, http.StatusUnauthorized, pkgapi.ErrorResponse{Error: "invalid api key"})
			return
		}
		writeJSON(w, http.StatusOK, pkgapi.TokenResponse{AccessToken: "jwt-" + req.Operator, ExpiresIn: 3600})
	}), "ops\nsecret-key\n")

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	env.cli.now = func() time.Time { return now }

	require.NoError(t, env.cli.Run(context.Background(), "login", nil))

	session, err := env.sessions.GetSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ops", session.Operator)
	assert.Equal(t, "jwt-ops", session.AccessToken)
	assert.Equal(t, env.server.URL, session.Server)
	assert.Equal(t, now.Add(time.Hour).Unix(), session.ExpiresAt)
	assert.Contains(t, env.out.String(), "Login successful")
}

func TestLogin_SecretPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, pkgapi.TokenResponse{AccessToken: "jwt", ExpiresIn: 60})
	}))
	defer server.Close()

	sessions, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	defer sessions.Close()

	mockIO := &iocli.IOMock{
		PrintlnFunc: func(a ...any) {},
		PrintfFunc:  func(format string, a ...any) {},
		ReadSecretFunc: func(prompt string) (string, error) {
			return "secret-key", nil
		},
	}

	c := New(api.NewClient(server.URL), sessions, mockIO, server.URL, "")
	require.NoError(t, c.Run(context.Background(), "login", []string{"-operator", "ops"}))

	// Оператор задан флагом, спрашивается только ключ
	require.Len(t, mockIO.ReadSecretCalls(), 1)
	assert.Equal(t, "API key: ", mockIO.ReadSecretCalls()[0].Prompt)
}

func TestLogin_WrongKey(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, pkgapi.ErrorResponse{Error: "invalid api key"})
	}), "")
	t.Setenv(apiKeyEnv, "guess")

	err := env.cli.Run(context.Background(), "login", []string{"-operator", "ops"})
	require.Error(t, err)

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	_, err = env.sessions.GetSession(context.Background())
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, http.NotFoundHandler(), "")

	require.NoError(t, env.cli.Run(context.Background(), "logout", nil))
	assert.Contains(t, env.out.String(), "Not logged in")

	env.login(t, "t")
	require.NoError(t, env.cli.Run(context.Background(), "logout", nil))
	assert.Contains(t, env.out.String(), "Logged out")

	_, err := env.sessions.GetSession(context.Background())
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}

func TestStatus(t *testing.T) {
	last := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer jwt", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, pkgapi.StatusResponse{
			LastSyncAt:     &last,
			PendingChanges: 3,
			RecentErrors:   1,
			LastJob: &pkgapi.SyncJob{
				ID:        "job-1",
				Kind:      "delta",
				Direction: "both",
				Status:    "completed",
				Stats:     pkgapi.SyncStats{TotalProcessed: 5, Updated: 2},
			},
		})
	}), "")
	env.login(t, "jwt")

	require.NoError(t, env.cli.Run(context.Background(), "status", nil))

	out := env.out.String()
	assert.Contains(t, out, "Last sync: 2026-03-01T09:00:00Z")
	assert.Contains(t, out, "job-1")
	assert.Contains(t, out, "processed=5")
	assert.Contains(t, out, "Pending local changes: 3")
	assert.Contains(t, out, "Errors in last 24h: 1")
}

func TestFullSync(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/sync/full", r.URL.Path)

		var req pkgapi.FullSyncRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "remote_to_local", req.Direction)
		assert.True(t, req.ForceFull)

		writeJSON(w, http.StatusOK, pkgapi.SyncJob{
			ID:     "job-2",
			Status: "completed",
			Stats:  pkgapi.SyncStats{TotalProcessed: 10, Created: 4, Errors: 1},
		})
	}), "")
	env.login(t, "jwt")

	err := env.cli.Run(context.Background(), "full-sync", []string{"-direction", "remote_to_local", "-force"})
	require.NoError(t, err)

	out := env.out.String()
	assert.Contains(t, out, "Job job-2: completed")
	assert.Contains(t, out, "Created:   4")
	assert.Contains(t, out, "listingsync errors")
}

func TestFullSync_AlreadyRunning(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, pkgapi.ErrorResponse{Error: "sync job already running", Kind: "sync_already_in_progress"})
	}), "")
	env.login(t, "jwt")

	err := env.cli.Run(context.Background(), "full-sync", nil)
	require.Error(t, err)
	assert.True(t, api.IsKind(err, "sync_already_in_progress"))
}

func TestDeltaSync_Since(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantSince bool
		wantErr   error
	}{
		{name: "stored cursors", args: nil},
		{name: "explicit since", args: []string{"-since", "2026-02-01T00:00:00Z"}, wantSince: true},
		{name: "bad since", args: []string{"-since", "yesterday"}, wantErr: ErrUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req pkgapi.DeltaSyncRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, tt.wantSince, req.Since != nil)
				writeJSON(w, http.StatusOK, pkgapi.SyncJob{ID: "job", Status: "completed"})
			}), "")
			env.login(t, "jwt")

			err := env.cli.Run(context.Background(), "delta-sync", tt.args)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSyncRecord(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req pkgapi.RecordSyncRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "listing-1", req.RecordID)
		assert.Equal(t, "local_to_remote", req.Direction)

		writeJSON(w, http.StatusOK, pkgapi.RecordSyncResponse{
			RecordID:      req.RecordID,
			RemoteID:      "rec1",
			Outcome:       "applied",
			ChangedFields: []string{"price", "title"},
		})
	}), "")
	env.login(t, "jwt")

	require.NoError(t, env.cli.Run(context.Background(), "sync-record", []string{"-direction", "local_to_remote", "listing-1"}))
	assert.Contains(t, env.out.String(), "Changed fields: price, title")

	err := env.cli.Run(context.Background(), "sync-record", nil)
	assert.ErrorIs(t, err, ErrUsage)
}

func TestTestConnection(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req pkgapi.ConnectionTestRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "pat.token", req.AccessToken)
		assert.Equal(t, "app1", req.BaseID)

		if req.TableName == "Missing" {
			writeJSON(w, http.StatusOK, pkgapi.ConnectionTestResponse{StatusCode: 404, Error: "table not found"})
			return
		}
		writeJSON(w, http.StatusOK, pkgapi.ConnectionTestResponse{Success: true, Tables: []string{"Listings", "Agents"}})
	}), "pat.token\npat.token\n")
	env.login(t, "jwt")

	require.NoError(t, env.cli.Run(context.Background(), "test-connection", []string{"-base-id", "app1"}))
	assert.Contains(t, env.out.String(), "Tables: Listings, Agents")

	require.NoError(t, env.cli.Run(context.Background(), "test-connection", []string{"-base-id", "app1", "-table", "Missing"}))
	assert.Contains(t, env.out.String(), "Connection failed (status 404): table not found")

	err := env.cli.Run(context.Background(), "test-connection", nil)
	assert.ErrorIs(t, err, ErrUsage)
}

func TestSetFields(t *testing.T) {
	schema := "fields:\n  - name: price\n    category: manual_sync\n  - name: gallery\n    category: media_sync\n    media_type: image\n"
	path := filepath.Join(t.TempDir(), "fields.yaml")
	require.NoError(t, os.WriteFile(path, []byte(schema), 0o600))

	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/fields", r.URL.Path)

		var req pkgapi.FieldMappingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Fields, 2)
		assert.Equal(t, "image", req.Fields[1].MediaType)

		writeJSON(w, http.StatusOK, pkgapi.FieldMappingResponse{Accepted: len(req.Fields)})
	}), "")
	env.login(t, "jwt")

	require.NoError(t, env.cli.Run(context.Background(), "set-fields", []string{path}))
	assert.Contains(t, env.out.String(), "2 fields accepted")
}

func TestMediaSync(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req pkgapi.MediaSyncRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"l2", "l1"}, req.RecordIDs)
		assert.Equal(t, []string{"image", "document"}, req.MediaTypes)

		writeJSON(w, http.StatusOK, pkgapi.MediaSyncResponse{Results: map[string]pkgapi.MediaResult{
			"l1": {Synced: 2},
			"l2": {Failed: 1, Errors: []string{"gallery: download failed"}},
		}})
	}), "")
	env.login(t, "jwt")

	require.NoError(t, env.cli.Run(context.Background(), "media-sync", []string{"-types", "image, document", "l2", "l1"}))

	out := env.out.String()
	// Результаты печатаются в порядке id
	assert.Less(t, strings.Index(out, "l1:"), strings.Index(out, "l2:"))
	assert.Contains(t, out, "gallery: download failed")
}

func TestCleanupFlow(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/media/cleanup/plan":
			writeJSON(w, http.StatusOK, pkgapi.CleanupPlan{Token: "plan-1", Fingerprints: []string{"aa", "bb"}, Bytes: 42})
		case "/api/v1/media/cleanup":
			var req pkgapi.CleanupRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			if req.Token != "plan-1" {
				writeJSON(w, http.StatusBadRequest, pkgapi.ErrorResponse{Error: "cleanup plan changed", Kind: "invalid_request"})
				return
			}
			writeJSON(w, http.StatusOK, pkgapi.CleanupPlan{Token: req.Token, Fingerprints: []string{"aa", "bb"}, Bytes: 42})
		default:
			http.NotFound(w, r)
		}
	}), "")
	env.login(t, "jwt")

	require.NoError(t, env.cli.Run(context.Background(), "cleanup-plan", nil))
	assert.Contains(t, env.out.String(), "listingsync cleanup plan-1")

	require.NoError(t, env.cli.Run(context.Background(), "cleanup", []string{"plan-1"}))
	assert.Contains(t, env.out.String(), "Deleted 2 blobs, 42 bytes")

	err := env.cli.Run(context.Background(), "cleanup", []string{"stale"})
	assert.True(t, api.IsKind(err, "invalid_request"))
}

func TestListing(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, pkgapi.Listing{
			ID:       "l1",
			RemoteID: "rec1",
			Fields:   map[string]any{"title": "Loft", "price": 450000},
		})
	}), "")
	env.login(t, "jwt")

	require.NoError(t, env.cli.Run(context.Background(), "listing", []string{"l1"}))

	out := env.out.String()
	// Поля печатаются по алфавиту
	assert.Less(t, strings.Index(out, "price"), strings.Index(out, "title"))
	assert.Contains(t, out, "Loft")
}

func TestHealth_Public(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, pkgapi.HealthResponse{Status: "ok", Version: "1.2.3"})
	}), "")

	require.NoError(t, env.cli.Run(context.Background(), "health", nil))
	assert.Contains(t, env.out.String(), "Server: ok (version 1.2.3)")
}

func TestPrintUsage(t *testing.T) {
	var lines []string
	mockIO := &iocli.IOMock{
		PrintlnFunc: func(a ...any) { lines = append(lines, strings.TrimSpace(fmt.Sprintln(a...))) },
	}

	PrintUsage(mockIO)

	usage := strings.Join(lines, "\n")
	for name := range (&Cli{}).commands() {
		assert.Contains(t, usage, name+" ", "command %s is missing in usage", name)
	}
}
