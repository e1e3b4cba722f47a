package storage

import (
	"errors"
	"fmt"

	"github.com/iudanet/listingsync/internal/models"
)

// Common storage errors
var (
	// ErrListingNotFound indicates that listing was not found in storage
	ErrListingNotFound = fmt.Errorf("listing %w", models.ErrNotFound)

	// ErrJobNotFound indicates that sync job was not found
	ErrJobNotFound = fmt.Errorf("sync job %w", models.ErrNotFound)

	// ErrSettingNotFound indicates that setting key was never stored
	ErrSettingNotFound = errors.New("setting not found")

	// ErrBlobNotFound indicates that media blob was not found
	ErrBlobNotFound = fmt.Errorf("media blob %w", models.ErrNotFound)

	// ErrLockHeld indicates that the job lock is owned by another live job
	ErrLockHeld = errors.New("job lock is held")

	// ErrLockLost indicates that the job lock changed owner or version
	ErrLockLost = errors.New("job lock lost")

	// ErrJobFinished indicates an update of a job that is no longer running
	ErrJobFinished = errors.New("sync job already finished")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
