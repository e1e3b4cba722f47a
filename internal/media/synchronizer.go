// Package media reconciles attachments of media_sync fields between the local
// blob store and the remote table.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/iudanet/listingsync/internal/fields"
	"github.com/iudanet/listingsync/internal/models"
	"github.com/iudanet/listingsync/internal/remote"
	"github.com/iudanet/listingsync/internal/storage"
)

var (
	// ErrNotMediaField поле не объявлено как media_sync
	ErrNotMediaField = fmt.Errorf("%w: field is not a media field", models.ErrInvalidRequest)
	// ErrMediaTypeMismatch содержимое не подходит под media_type поля
	ErrMediaTypeMismatch = fmt.Errorf("%w: content does not match field media type", models.ErrInvalidRequest)
	// ErrCleanupPlanChanged набор осиротевших blob'ов изменился после построения плана
	ErrCleanupPlanChanged = fmt.Errorf("%w: cleanup plan changed, request a new plan", models.ErrInvalidRequest)
)

// ClientSource returns the remote client of the active connection.
type ClientSource interface {
	Client(ctx context.Context) (remote.API, models.ConnectionConfig, error)
}

// Synchronizer moves attachment bytes between sides. It never deletes a local
// or remote attachment while syncing.
type Synchronizer struct {
	listings storage.ListingStorage
	assets   storage.MediaStorage
	blobs    storage.BlobStorage
	clients  ClientSource
	registry *fields.Holder
	logger   *slog.Logger
	now      func() time.Time
	// mu сериализует запись строк вложений и очистку blob'ов
	mu sync.Mutex
}

// New creates a media synchronizer.
func New(
	listings storage.ListingStorage,
	assets storage.MediaStorage,
	blobs storage.BlobStorage,
	clients ClientSource,
	registry *fields.Holder,
	logger *slog.Logger,
) *Synchronizer {
	return &Synchronizer{
		listings: listings,
		assets:   assets,
		blobs:    blobs,
		clients:  clients,
		registry: registry,
		logger:   logger,
		now:      time.Now,
	}
}

// SyncForRecords reconciles media fields of the given listings, optionally
// restricted to media types. Per-asset failures are reported in the result of
// their listing and never abort the run.
func (s *Synchronizer) SyncForRecords(ctx context.Context, listingIDs []string, mediaTypes []string) (map[string]models.MediaResult, error) {
	api, _, err := s.clients.Client(ctx)
	if err != nil {
		return nil, err
	}

	specs := s.registry.Get().MediaFields(mediaTypes...)
	results := make(map[string]models.MediaResult, len(listingIDs))

	for _, id := range listingIDs {
		res, err := s.syncListing(ctx, api, id, specs)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return results, ctxErr
			}
			res.Failed++
			res.Errors = append(res.Errors, err.Error())
			s.logger.Warn("Media sync failed for listing",
				"listing_id", id,
				"error", err)
		}
		results[id] = res
	}

	return results, nil
}

func (s *Synchronizer) syncListing(ctx context.Context, api remote.API, listingID string, specs []models.FieldSpec) (models.MediaResult, error) {
	var res models.MediaResult

	listing, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return res, fmt.Errorf("failed to load listing: %w", err)
	}
	if listing.RemoteID == "" {
		return res, fmt.Errorf("listing %s is not linked to a remote record", listingID)
	}

	rec, err := api.GetRecord(ctx, listing.RemoteID)
	if err != nil {
		return res, fmt.Errorf("failed to fetch remote record: %w", err)
	}

	for _, spec := range specs {
		res.Add(s.syncField(ctx, api, listing, rec, spec.Name))
	}

	return res, nil
}

// syncField сверяет одно поле: сначала входящие вложения, затем исходящие.
func (s *Synchronizer) syncField(ctx context.Context, api remote.API, listing, rec *models.Record, field string) models.MediaResult {
	var res models.MediaResult

	fail := func(what string, err error) {
		res.Failed++
		res.Errors = append(res.Errors, fmt.Sprintf("%s %s: %v", field, what, err))
		s.logger.Warn("Media asset failed",
			"listing_id", listing.ID,
			"field", field,
			"asset", what,
			"error", err)
	}

	assets, err := s.assets.ListMediaAssets(ctx, listing.ID, field)
	if err != nil {
		fail("assets", err)
		return res
	}

	byRemote := make(map[string]*models.MediaAsset, len(assets))
	for _, a := range assets {
		if a.RemoteAssetID != "" {
			byRemote[a.RemoteAssetID] = a
		}
	}

	remoteIDs := make(map[string]struct{})
	for _, att := range remote.ParseAttachments(rec.Fields[field]) {
		remoteIDs[att.ID] = struct{}{}

		asset := byRemote[att.ID]
		if asset != nil && upToDate(asset, att) {
			res.Skipped++
			continue
		}
		if asset != nil && asset.Fingerprint != asset.UploadedFingerprint {
			// Локальная версия изменилась: ее выгрузит исходящий проход
			continue
		}

		if err := s.pull(ctx, api, listing.ID, field, att, asset); err != nil {
			fail(att.Filename, err)
			continue
		}
		res.Synced++
	}

	for _, asset := range assets {
		_, onRemote := remoteIDs[asset.RemoteAssetID]
		switch {
		case asset.RemoteAssetID == "" || asset.Fingerprint != asset.UploadedFingerprint:
			if err := s.push(ctx, api, listing.RemoteID, asset); err != nil {
				fail(asset.Filename, err)
				continue
			}
			res.Synced++
		case !onRemote:
			// Вложение удалено на remote стороне: локальная копия остается
			res.Skipped++
		}
	}

	return res
}

// upToDate вложение считается синхронизированным, если связь уже есть, размер
// на remote стороне не изменился и содержимое совпадает с выгруженным.
func upToDate(asset *models.MediaAsset, att remote.Attachment) bool {
	return asset.Fingerprint != "" &&
		asset.Fingerprint == asset.UploadedFingerprint &&
		asset.RemoteSize == att.Size
}

func (s *Synchronizer) pull(ctx context.Context, api remote.API, listingID, field string, att remote.Attachment, existing *models.MediaAsset) error {
	data, err := api.DownloadAsset(ctx, att.URL)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}

	mimeType := att.Type
	if mimeType == "" {
		mimeType = mimetype.Detect(data).String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	info, created, err := s.blobs.PutBlob(ctx, data, mimeType)
	if err != nil {
		return fmt.Errorf("failed to store blob: %w", err)
	}

	asset := existing
	if asset == nil {
		asset = &models.MediaAsset{
			ID:        uuid.New().String(),
			ListingID: listingID,
			Field:     field,
		}
	}
	asset.Filename = att.Filename
	asset.MimeType = mimeType
	asset.Size = info.Size
	asset.Fingerprint = info.Fingerprint
	asset.UploadedFingerprint = info.Fingerprint
	asset.RemoteAssetID = att.ID
	asset.RemoteURL = att.URL
	asset.RemoteSize = att.Size
	asset.SyncedAt = s.now()

	if err := s.assets.SaveMediaAsset(ctx, asset); err != nil {
		return fmt.Errorf("failed to save asset: %w", err)
	}

	s.logger.Debug("Media asset downloaded",
		"listing_id", listingID,
		"field", field,
		"remote_asset_id", att.ID,
		"fingerprint", info.Fingerprint,
		"new_blob", created)

	return nil
}

func (s *Synchronizer) push(ctx context.Context, api remote.API, remoteID string, asset *models.MediaAsset) error {
	data, _, err := s.blobs.GetBlob(ctx, asset.Fingerprint)
	if err != nil {
		return fmt.Errorf("failed to read blob: %w", err)
	}

	att, err := api.UploadAttachment(ctx, remoteID, asset.Field, remote.Upload{
		Filename:    asset.Filename,
		ContentType: asset.MimeType,
		Data:        data,
	})
	if err != nil {
		return fmt.Errorf("failed to upload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	asset.RemoteAssetID = att.ID
	asset.RemoteURL = att.URL
	asset.RemoteSize = att.Size
	asset.UploadedFingerprint = asset.Fingerprint
	asset.SyncedAt = s.now()

	if err := s.assets.SaveMediaAsset(ctx, asset); err != nil {
		return fmt.Errorf("failed to save asset: %w", err)
	}

	s.logger.Debug("Media asset uploaded",
		"listing_id", asset.ListingID,
		"field", asset.Field,
		"remote_asset_id", att.ID)

	return nil
}

// AddLocal attaches content to a media field of a listing. The file is uploaded
// on the next media sync.
func (s *Synchronizer) AddLocal(ctx context.Context, listingID, field, filename string, data []byte) (*models.MediaAsset, error) {
	spec, ok := s.registry.Get().Classify(field)
	if !ok || spec.Category != models.CategoryMediaSync {
		return nil, fmt.Errorf("%w: %s", ErrNotMediaField, field)
	}

	if _, err := s.listings.GetListing(ctx, listingID); err != nil {
		return nil, err
	}

	mime := mimetype.Detect(data)
	if spec.MediaType == models.MediaTypeImage && !strings.HasPrefix(mime.String(), "image/") {
		return nil, fmt.Errorf("%w: %s is %s", ErrMediaTypeMismatch, filename, mime.String())
	}
	if filename == "" {
		filename = uuid.New().String() + mime.Extension()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	info, _, err := s.blobs.PutBlob(ctx, data, mime.String())
	if err != nil {
		return nil, fmt.Errorf("failed to store blob: %w", err)
	}

	asset := &models.MediaAsset{
		ID:          uuid.New().String(),
		ListingID:   listingID,
		Field:       field,
		Filename:    filename,
		MimeType:    info.MimeType,
		Size:        info.Size,
		Fingerprint: info.Fingerprint,
	}
	if err := s.assets.SaveMediaAsset(ctx, asset); err != nil {
		return nil, fmt.Errorf("failed to save asset: %w", err)
	}

	return asset, nil
}

// Assets returns the local attachments of a listing field.
func (s *Synchronizer) Assets(ctx context.Context, listingID, field string) ([]*models.MediaAsset, error) {
	return s.assets.ListMediaAssets(ctx, listingID, field)
}

// Pending returns the listings among ids that have attachments not uploaded yet.
func (s *Synchronizer) Pending(ctx context.Context, listingIDs []string) ([]string, error) {
	specs := s.registry.Get().MediaFields()
	if len(specs) == 0 {
		return nil, nil
	}

	var out []string
	for _, id := range listingIDs {
		for _, spec := range specs {
			assets, err := s.assets.ListMediaAssets(ctx, id, spec.Name)
			if err != nil {
				return nil, fmt.Errorf("failed to list media assets: %w", err)
			}
			if slices.ContainsFunc(assets, func(a *models.MediaAsset) bool {
				return a.RemoteAssetID == "" || a.Fingerprint != a.UploadedFingerprint
			}) {
				out = append(out, id)
				break
			}
		}
	}
	return out, nil
}
