// Package services – KeyResultService
//
// Key results always live under an objective, so every operation here begins
// by resolving ownership of the parent. The policy is uniform: a missing key
// result yields ErrKeyResultNotFound, and a key result whose parent objective
// is not owned by the caller yields ErrAccessDenied; both render as 404 so
// existence is never confirmed to non-owners.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/okrtracker/go-okr-backend/internal/domain"
	"github.com/okrtracker/go-okr-backend/internal/repo"
	"github.com/okrtracker/go-okr-backend/internal/validate"
)

// KeyResultService provides CRUD operations for key results, enforcing parent
// objective ownership on every path.
type KeyResultService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// Create attaches a new key result to objectiveID if it is owned by ownerID.
// Returns ErrObjectiveNotFound when the objective is missing or not owned.
func (s *KeyResultService) Create(ctx context.Context, objectiveID, ownerID uint, in validate.KeyResultValues) (*domain.KeyResult, error) {
	if _, err := repo.GetObjective(ctx, s.DB, objectiveID, ownerID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrObjectiveNotFound
		}
		return nil, err
	}
	return repo.CreateKeyResult(ctx, s.DB, objectiveID, in.Title, in.Metric, in.Target, in.Progress)
}

// List returns the key results under objectiveID if it is owned by ownerID.
func (s *KeyResultService) List(ctx context.Context, objectiveID, ownerID uint) ([]domain.KeyResult, error) {
	if _, err := repo.GetObjective(ctx, s.DB, objectiveID, ownerID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrObjectiveNotFound
		}
		return nil, err
	}
	return repo.ListKeyResults(ctx, s.DB, objectiveID)
}

// resolveOwned fetches a key result and verifies the caller owns its parent
// objective. Missing key result → ErrKeyResultNotFound; parent not owned →
// ErrAccessDenied.
func (s *KeyResultService) resolveOwned(ctx context.Context, id, ownerID uint) (*domain.KeyResult, error) {
	kr, err := repo.GetKeyResult(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrKeyResultNotFound
		}
		return nil, err
	}
	if _, err := repo.GetObjective(ctx, s.DB, kr.ObjectiveID, ownerID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrAccessDenied
		}
		return nil, err
	}
	return kr, nil
}

// Update replaces the mutable fields of an owned key result and returns the
// refreshed row.
func (s *KeyResultService) Update(ctx context.Context, id, ownerID uint, in validate.KeyResultValues) (*domain.KeyResult, error) {
	if _, err := s.resolveOwned(ctx, id, ownerID); err != nil {
		return nil, err
	}
	if err := repo.UpdateKeyResult(ctx, s.DB, id, in.Title, in.Metric, in.Target, in.Progress); err != nil {
		return nil, err
	}
	return repo.GetKeyResult(ctx, s.DB, id)
}

// Delete removes an owned key result.
func (s *KeyResultService) Delete(ctx context.Context, id, ownerID uint) error {
	if _, err := s.resolveOwned(ctx, id, ownerID); err != nil {
		return err
	}
	return repo.DeleteKeyResult(ctx, s.DB, id)
}
