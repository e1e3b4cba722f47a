package media

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/iudanet/listingsync/internal/crypto"
	"github.com/iudanet/listingsync/internal/models"
)

// PlanCleanup lists local blobs that no asset row references. The returned
// token confirms exactly this set to ExecuteCleanup.
func (s *Synchronizer) PlanCleanup(ctx context.Context) (*models.CleanupPlan, error) {
	refs, err := s.assets.ReferencedFingerprints(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load referenced fingerprints: %w", err)
	}

	blobs, err := s.blobs.ListBlobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list blobs: %w", err)
	}

	plan := &models.CleanupPlan{Fingerprints: []string{}}
	for _, b := range blobs {
		if _, ok := refs[b.Fingerprint]; ok {
			continue
		}
		plan.Fingerprints = append(plan.Fingerprints, b.Fingerprint)
		plan.Bytes += b.Size
	}
	slices.Sort(plan.Fingerprints)
	plan.Token = crypto.Fingerprint([]byte(strings.Join(plan.Fingerprints, "\n")))

	return plan, nil
}

// ExecuteCleanup deletes the orphaned blobs of a plan confirmed by token.
// Returns ErrCleanupPlanChanged when the orphan set differs from the plan.
func (s *Synchronizer) ExecuteCleanup(ctx context.Context, token string) (*models.CleanupPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.PlanCleanup(ctx)
	if err != nil {
		return nil, err
	}
	if plan.Token != token {
		return nil, ErrCleanupPlanChanged
	}

	for _, fp := range plan.Fingerprints {
		if err := s.blobs.DeleteBlob(ctx, fp); err != nil {
			return nil, fmt.Errorf("failed to delete blob %s: %w", fp, err)
		}
	}

	s.logger.Info("Media cleanup executed",
		"blobs", len(plan.Fingerprints),
		"bytes", plan.Bytes)

	return plan, nil
}
