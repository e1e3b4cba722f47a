package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iudanet/listingsync/internal/models"
	"github.com/iudanet/listingsync/internal/storage"
	"github.com/iudanet/listingsync/internal/validation"
	"github.com/iudanet/listingsync/pkg/api"
)

// maxUploadSize ограничение на размер загружаемого вложения
const maxUploadSize = 32 << 20

// MediaAttacher stores local attachments of listings.
type MediaAttacher interface {
	AddLocal(ctx context.Context, listingID, field, filename string, data []byte) (*models.MediaAsset, error)
	Assets(ctx context.Context, listingID, field string) ([]*models.MediaAsset, error)
}

// ListingHandler обрабатывает локальные правки объявлений.
// Правки попадают в remote store со следующей синхронизацией
type ListingHandler struct {
	logger   *slog.Logger
	listings storage.ListingStorage
	media    MediaAttacher
	now      func() time.Time
}

// NewListingHandler создает новый handler для объявлений
func NewListingHandler(logger *slog.Logger, listings storage.ListingStorage, media MediaAttacher) *ListingHandler {
	return &ListingHandler{
		logger:   logger,
		listings: listings,
		media:    media,
		now:      time.Now,
	}
}

// List обрабатывает GET /api/v1/listings
func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	recs, err := h.listings.ListListings(r.Context())
	if err != nil {
		sendDomainError(w, h.logger, fmt.Errorf("failed to list listings: %w", err))
		return
	}

	out := make([]api.Listing, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toAPIListing(rec))
	}
	sendJSON(w, h.logger, out, http.StatusOK)
}

// Get обрабатывает GET /api/v1/listings/{id}
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.listings.GetListing(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		sendDomainError(w, h.logger, err)
		return
	}

	sendJSON(w, h.logger, toAPIListing(rec), http.StatusOK)
}

// Create обрабатывает POST /api/v1/listings
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.ListingCreateRequest
	if err := decodeRequest(r, &req, false); err != nil {
		sendDomainError(w, h.logger, err)
		return
	}
	if err := validateFieldNames(req.Fields); err != nil {
		sendDomainError(w, h.logger, err)
		return
	}

	now := h.now()
	rec := &models.Record{
		ID:            uuid.New().String(),
		Fields:        req.Fields,
		FieldModified: make(map[string]time.Time, len(req.Fields)),
		CreatedAt:     now,
		ModifiedAt:    now,
	}
	for name := range maps.Keys(req.Fields) {
		rec.FieldModified[name] = now
	}

	if err := h.listings.CreateListing(ctx, rec); err != nil {
		sendDomainError(w, h.logger, fmt.Errorf("failed to create listing: %w", err))
		return
	}

	h.logger.InfoContext(ctx, "listing created", "listing_id", rec.ID, "fields", len(rec.Fields))
	sendJSON(w, h.logger, toAPIListing(rec), http.StatusCreated)
}

// Edit обрабатывает PUT /api/v1/listings/{id}
func (h *ListingHandler) Edit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	var req api.ListingEditRequest
	if err := decodeRequest(r, &req, false); err != nil {
		sendDomainError(w, h.logger, err)
		return
	}
	if err := validateFieldNames(req.Fields); err != nil {
		sendDomainError(w, h.logger, err)
		return
	}

	if err := h.listings.EditFields(ctx, id, req.Fields, h.now()); err != nil {
		sendDomainError(w, h.logger, err)
		return
	}

	rec, err := h.listings.GetListing(ctx, id)
	if err != nil {
		sendDomainError(w, h.logger, err)
		return
	}

	h.logger.InfoContext(ctx, "listing edited", "listing_id", id, "fields", len(req.Fields))
	sendJSON(w, h.logger, toAPIListing(rec), http.StatusOK)
}

// UploadMedia обрабатывает POST /api/v1/listings/{id}/media/{field}?filename=...
// Тело запроса - содержимое файла
func (h *ListingHandler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadSize))
	if err != nil {
		sendError(w, h.logger, "attachment is too large or unreadable", http.StatusRequestEntityTooLarge)
		return
	}
	if len(data) == 0 {
		sendError(w, h.logger, "attachment is empty", http.StatusBadRequest)
		return
	}

	asset, err := h.media.AddLocal(ctx, vars["id"], vars["field"], r.URL.Query().Get("filename"), data)
	if err != nil {
		sendDomainError(w, h.logger, err)
		return
	}

	h.logger.InfoContext(ctx, "attachment added",
		"listing_id", asset.ListingID,
		"field", asset.Field,
		"fingerprint", asset.Fingerprint,
		"size", asset.Size)
	sendJSON(w, h.logger, toAPIAsset(asset), http.StatusCreated)
}

// ListMedia обрабатывает GET /api/v1/listings/{id}/media/{field}
func (h *ListingHandler) ListMedia(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	assets, err := h.media.Assets(r.Context(), vars["id"], vars["field"])
	if err != nil {
		sendDomainError(w, h.logger, err)
		return
	}

	out := make([]api.MediaAsset, 0, len(assets))
	for _, a := range assets {
		out = append(out, toAPIAsset(a))
	}
	sendJSON(w, h.logger, out, http.StatusOK)
}

func validateFieldNames(fields map[string]any) error {
	for name := range fields {
		if err := validation.ValidateFieldName(name); err != nil {
			return fmt.Errorf("%w: %w", models.ErrInvalidRequest, err)
		}
	}
	return nil
}

func toAPIListing(rec *models.Record) api.Listing {
	return api.Listing{
		ModifiedAt:    rec.ModifiedAt,
		CreatedAt:     rec.CreatedAt,
		Fields:        rec.Fields,
		FieldModified: rec.FieldModified,
		ID:            rec.ID,
		RemoteID:      rec.RemoteID,
	}
}

func toAPIAsset(a *models.MediaAsset) api.MediaAsset {
	return api.MediaAsset{
		SyncedAt:      a.SyncedAt,
		ID:            a.ID,
		ListingID:     a.ListingID,
		Field:         a.Field,
		Filename:      a.Filename,
		MimeType:      a.MimeType,
		Fingerprint:   a.Fingerprint,
		RemoteAssetID: a.RemoteAssetID,
		Size:          a.Size,
	}
}
