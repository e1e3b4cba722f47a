package middleware

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/listingsync/pkg/api"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("success"))
	})
}

func TestRateLimiter_Allow(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("Requests over limit are denied", func(t *testing.T) {
		limiter := NewRateLimiter(3, time.Minute, logger)
		defer limiter.Stop()

		for i := 0; i < 3; i++ {
			assert.True(t, limiter.Allow("10.0.0.1"), fmt.Sprintf("request %d should be allowed", i+1))
		}
		assert.False(t, limiter.Allow("10.0.0.1"), "request over limit should be denied")
	})

	t.Run("Different keys are tracked separately", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute, logger)
		defer limiter.Stop()

		assert.True(t, limiter.Allow("10.0.0.1"))
		assert.False(t, limiter.Allow("10.0.0.1"))
		assert.True(t, limiter.Allow("10.0.0.2"))
	})

	t.Run("Tokens refill after window expires", func(t *testing.T) {
		limiter := NewRateLimiter(2, 50*time.Millisecond, logger)
		defer limiter.Stop()

		assert.True(t, limiter.Allow("10.0.0.3"))
		assert.True(t, limiter.Allow("10.0.0.3"))
		assert.False(t, limiter.Allow("10.0.0.3"))

		time.Sleep(60 * time.Millisecond)

		assert.True(t, limiter.Allow("10.0.0.3"), "tokens should be refilled")
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	var logBuf strings.Builder
	logger := slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	limiter := NewRateLimiter(2, time.Minute, logger)
	defer limiter.Stop()
	handler := RateLimitMiddleware(limiter)(okHandler())

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send("192.168.1.1:1000").Code)
	assert.Equal(t, http.StatusOK, send("192.168.1.1:1000").Code)

	w := send("192.168.1.1:1000")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	var resp api.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "rate_limited", resp.Kind)
	assert.Contains(t, resp.Message, "rate limit exceeded")

	// Другой клиент не затронут
	assert.Equal(t, http.StatusOK, send("192.168.1.2:1000").Code)

	logOutput := logBuf.String()
	assert.Contains(t, logOutput, "Rate limit exceeded")
	assert.Contains(t, logOutput, "ip=192.168.1.1")
	assert.Contains(t, logOutput, "/api/v1/webhook")
}

func TestRateLimitByPathMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := mux.NewRouter()
	router.Use(RateLimitByPathMiddleware([]PathRateLimit{
		{Path: "/api/v1/auth/token", Rate: 1, Window: time.Minute},
		{Path: "/api/v1/listings/{id}", Rate: 2, Window: time.Minute},
	}, logger))
	router.Handle("/api/v1/auth/token", okHandler())
	router.Handle("/api/v1/listings/{id}", okHandler())
	router.Handle("/api/v1/status", okHandler())

	send := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	tests := []struct {
		name  string
		paths []string
		want  []int
	}{
		{
			name:  "token endpoint has strict limit",
			paths: []string{"/api/v1/auth/token", "/api/v1/auth/token"},
			want:  []int{http.StatusOK, http.StatusTooManyRequests},
		},
		{
			name:  "route template is shared by all ids",
			paths: []string{"/api/v1/listings/a", "/api/v1/listings/b", "/api/v1/listings/c"},
			want:  []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests},
		},
		{
			name:  "unlisted route is not limited",
			paths: []string{"/api/v1/status", "/api/v1/status", "/api/v1/status"},
			want:  []int{http.StatusOK, http.StatusOK, http.StatusOK},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i, path := range tt.paths {
				assert.Equal(t, tt.want[i], send(path), "request %d to %s", i+1, path)
			}
		})
	}
}

func TestRateLimiter_CleanupOldBuckets(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	limiter := NewRateLimiter(10, 100*time.Millisecond, logger)
	defer limiter.Stop()

	limiter.Allow("192.168.1.1")
	limiter.Allow("192.168.1.2")

	limiter.mu.RLock()
	assert.Len(t, limiter.buckets, 2)
	limiter.mu.RUnlock()

	// Ждем больше чем window * 2 для cleanup
	assert.Eventually(t, func() bool {
		limiter.mu.RLock()
		defer limiter.mu.RUnlock()
		return len(limiter.buckets) == 0
	}, time.Second, 20*time.Millisecond)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xRealIP    string
		expectedIP string
	}{
		{name: "X-Forwarded-For with single IP", remoteAddr: "10.0.0.1:12345", xff: "192.168.1.1", expectedIP: "192.168.1.1"},
		{name: "X-Forwarded-For with multiple IPs", remoteAddr: "10.0.0.1:12345", xff: "192.168.1.1, 10.0.0.2", expectedIP: "192.168.1.1"},
		{name: "X-Real-IP", remoteAddr: "10.0.0.1:12345", xRealIP: "192.168.2.1", expectedIP: "192.168.2.1"},
		{name: "RemoteAddr without port", remoteAddr: "192.168.3.2", expectedIP: "192.168.3.2"},
		{name: "RemoteAddr when headers are empty", remoteAddr: "192.168.3.1:54321", expectedIP: "192.168.3.1"},
		{name: "X-Forwarded-For takes precedence", remoteAddr: "10.0.0.1:12345", xff: "192.168.1.1", xRealIP: "192.168.2.1", expectedIP: "192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}

			assert.Equal(t, tt.expectedIP, getClientIP(req))
		})
	}
}
