// Package server wires HTTP handlers and middleware into the listingsync API.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/iudanet/listingsync/internal/server/handlers"
	"github.com/iudanet/listingsync/internal/server/middleware"
	"github.com/iudanet/listingsync/internal/storage"
	"github.com/iudanet/listingsync/internal/sync"
)

// APIPrefix префикс всех маршрутов API
const APIPrefix = "/api/v1"

const (
	// DefaultWebhookRate вебхуков в минуту с одного адреса
	DefaultWebhookRate = 300
	// DefaultTokenRate попыток выпуска токена в минуту с одного адреса
	DefaultTokenRate = 5
)

// Deps зависимости HTTP API
type Deps struct {
	Logger   *slog.Logger
	Service  sync.Service
	Webhooks handlers.WebhookProcessor
	Listings storage.ListingStorage
	Media    handlers.MediaAttacher
	DB       handlers.Pinger
	JWT      handlers.JWTConfig
	APIKey   string
	Version  string

	// Лимиты публичных маршрутов, на клиента за окно
	WebhookRate int
	TokenRate   int
	RateWindow  time.Duration
}

// NewRouter builds the API router. Everything except health, token issuing
// and webhook delivery requires an operator token.
func NewRouter(d Deps) *mux.Router {
	if d.RateWindow <= 0 {
		d.RateWindow = time.Minute
	}
	if d.WebhookRate <= 0 {
		d.WebhookRate = DefaultWebhookRate
	}
	if d.TokenRate <= 0 {
		d.TokenRate = DefaultTokenRate
	}

	health := handlers.NewHealthHandler(d.Logger, d.DB, d.Version)
	auth := handlers.NewAuthHandler(d.Logger, d.JWT, d.APIKey)
	hooks := handlers.NewWebhookHandler(d.Logger, d.Webhooks)
	syncs := handlers.NewSyncHandler(d.Logger, d.Service)
	conn := handlers.NewConnectionHandler(d.Logger, d.Service)
	media := handlers.NewMediaHandler(d.Logger, d.Service)
	listings := handlers.NewListingHandler(d.Logger, d.Listings, d.Media)

	r := mux.NewRouter()
	r.Use(
		middleware.LoggingWithSkip(d.Logger, []string{APIPrefix + "/health"}),
		middleware.RecoveryMiddleware(d.Logger),
	)

	// Несопоставленные запросы не проходят через r.Use
	r.NotFoundHandler = middleware.LoggingMiddleware(d.Logger)(jsonStatus(http.StatusNotFound, "Not Found"))

	// Подроутеры не наследуют обработчик 405, без него mux отвечает 404
	notAllowed := middleware.LoggingMiddleware(d.Logger)(jsonStatus(http.StatusMethodNotAllowed, "Method Not Allowed"))
	r.MethodNotAllowedHandler = notAllowed

	v1 := r.PathPrefix(APIPrefix).Subrouter()
	v1.MethodNotAllowedHandler = notAllowed

	// Публичные маршруты
	public := v1.NewRoute().Subrouter()
	public.MethodNotAllowedHandler = notAllowed
	public.Use(middleware.RateLimitByPathMiddleware([]middleware.PathRateLimit{
		{Path: APIPrefix + "/webhook", Rate: d.WebhookRate, Window: d.RateWindow},
		{Path: APIPrefix + "/auth/token", Rate: d.TokenRate, Window: d.RateWindow},
	}, d.Logger))
	public.HandleFunc("/health", health.Health).Methods(http.MethodGet)
	public.HandleFunc("/auth/token", auth.Token).Methods(http.MethodPost)
	public.HandleFunc("/webhook", hooks.Receive).Methods(http.MethodPost)

	// Маршруты оператора
	protected := v1.NewRoute().Subrouter()
	protected.MethodNotAllowedHandler = notAllowed
	protected.Use(middleware.AuthMiddleware(d.Logger, d.JWT))

	protected.HandleFunc("/sync/full", syncs.FullSync).Methods(http.MethodPost)
	protected.HandleFunc("/sync/delta", syncs.DeltaSync).Methods(http.MethodPost)
	protected.HandleFunc("/sync/record", syncs.SyncRecord).Methods(http.MethodPost)
	protected.HandleFunc("/status", syncs.Status).Methods(http.MethodGet)
	protected.HandleFunc("/jobs", syncs.Jobs).Methods(http.MethodGet)
	protected.HandleFunc("/errors", syncs.Errors).Methods(http.MethodGet)

	protected.HandleFunc("/connection", conn.Connection).Methods(http.MethodGet)
	protected.HandleFunc("/connection", conn.UpdateConnection).Methods(http.MethodPut)
	protected.HandleFunc("/connection/test", conn.TestConnection).Methods(http.MethodPost)
	protected.HandleFunc("/schema", conn.Schema).Methods(http.MethodGet)
	protected.HandleFunc("/fields", conn.FieldMapping).Methods(http.MethodGet)
	protected.HandleFunc("/fields", conn.UpdateFieldMapping).Methods(http.MethodPut)

	protected.HandleFunc("/media/sync", media.SyncMedia).Methods(http.MethodPost)
	protected.HandleFunc("/media/cleanup/plan", media.CleanupPlan).Methods(http.MethodPost)
	protected.HandleFunc("/media/cleanup", media.Cleanup).Methods(http.MethodPost)

	protected.HandleFunc("/listings", listings.List).Methods(http.MethodGet)
	protected.HandleFunc("/listings", listings.Create).Methods(http.MethodPost)
	protected.HandleFunc("/listings/{id}", listings.Get).Methods(http.MethodGet)
	protected.HandleFunc("/listings/{id}", listings.Edit).Methods(http.MethodPut)
	protected.HandleFunc("/listings/{id}/media/{field}", listings.ListMedia).Methods(http.MethodGet)
	protected.HandleFunc("/listings/{id}/media/{field}", listings.UploadMedia).Methods(http.MethodPost)

	return r
}

func jsonStatus(status int, message string) http.Handler {
	body := []byte(`{"error":"` + message + `"}`)
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	})
}
