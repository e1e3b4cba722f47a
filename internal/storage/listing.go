package storage

import (
	"context"
	"time"

	"github.com/iudanet/listingsync/internal/models"
)

// ListingStorage defines interface for the local listing store
type ListingStorage interface {
	// CreateListing inserts a new listing with its fields
	CreateListing(ctx context.Context, rec *models.Record) error

	// GetListing retrieves listing by local ID
	// Returns ErrListingNotFound if listing doesn't exist
	GetListing(ctx context.Context, id string) (*models.Record, error)

	// GetListingByRemoteID retrieves listing linked to the remote record
	// Returns ErrListingNotFound if no listing is linked
	GetListingByRemoteID(ctx context.Context, remoteID string) (*models.Record, error)

	// ListListings returns all listings ordered by creation time
	ListListings(ctx context.Context) ([]*models.Record, error)

	// ListListingsModifiedSince returns listings whose modified time is after since
	ListListingsModifiedSince(ctx context.Context, since time.Time) ([]*models.Record, error)

	// CountListingsModifiedSince returns the number of listings modified after since
	CountListingsModifiedSince(ctx context.Context, since time.Time) (int, error)

	// EditFields records a local edit: values are stored with modifiedAt as
	// their field time and the listing modified time moves to modifiedAt.
	// A nil value clears the field, its merge base stays until MarkSynced
	// Returns ErrListingNotFound if listing doesn't exist
	EditFields(ctx context.Context, id string, fields map[string]any, modifiedAt time.Time) error

	// ApplySyncedFields writes values agreed by both sides: each value is stored
	// together with its field time and becomes the merge base of the field.
	// A nil value removes the field together with its merge base
	// Returns ErrListingNotFound if listing doesn't exist
	ApplySyncedFields(ctx context.Context, id string, fields map[string]any, fieldTimes map[string]time.Time) error

	// MarkSynced stores values as the merge base without changing current values.
	// A nil value drops the merge base of the field and a cleared field
	MarkSynced(ctx context.Context, id string, fields map[string]any) error

	// LinkRemote sets the remote ID of the listing
	LinkRemote(ctx context.Context, id, remoteID string) error

	// UnlinkRemote clears the remote ID of the listing, content stays
	UnlinkRemote(ctx context.Context, id string) error
}
