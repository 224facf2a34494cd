// Package services – ObjectiveService
//
// This file implements the ObjectiveService, which manages the lifecycle of
// objectives. Input payloads arrive already normalized and validated by the
// validate package; this service owns ownership checks and the one-objective-
// per-period rule, and coordinates repository operations.
//
// Service-level errors (e.g., ErrObjectiveNotFound) are returned for
// predictable cases so the HTTP layer can map them to problem responses
// consistently.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/okrtracker/go-okr-backend/internal/domain"
	"github.com/okrtracker/go-okr-backend/internal/repo"
	"github.com/okrtracker/go-okr-backend/internal/validate"
)

// ObjectiveRepo defines the repository contract required by ObjectiveService.
// Implementations are responsible for persistence of objective aggregates.
type ObjectiveRepo interface {
	// CreateObjective inserts a new objective row for the given owner.
	CreateObjective(ctx context.Context, db *gorm.DB, ownerID uint, title, periodName string) (*domain.Objective, error)

	// ObjectiveExistsForPeriod reports whether the owner already has an
	// objective in the period.
	ObjectiveExistsForPeriod(ctx context.Context, db *gorm.DB, ownerID uint, periodName string) (bool, error)

	// ListObjectivesPage returns a page of the owner's objectives.
	ListObjectivesPage(ctx context.Context, db *gorm.DB, ownerID uint, offset, limit int) ([]domain.Objective, error)

	// GetObjective fetches an objective by ID ensuring it belongs to the owner.
	GetObjective(ctx context.Context, db *gorm.DB, id, ownerID uint) (*domain.Objective, error)

	// UpdateObjective updates title/period (only if owned by ownerID).
	UpdateObjective(ctx context.Context, db *gorm.DB, id, ownerID uint, title, periodName string) error

	// DeleteObjective removes an objective (only if owned by ownerID).
	DeleteObjective(ctx context.Context, db *gorm.DB, id, ownerID uint) error
}

// ObjectiveService provides objective-level operations such as creating,
// listing, updating, and deleting objectives. It enforces the duplicate-period
// rule and ensures ownership constraints.
type ObjectiveService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the objective repository used by this service.
	Repo ObjectiveRepo
}

// Create inserts a new objective owned by ownerID. Returns
// ErrDuplicateObjective when the owner already has one in the same period.
func (s *ObjectiveService) Create(ctx context.Context, ownerID uint, in validate.ObjectiveValues) (*domain.Objective, error) {
	exists, err := s.Repo.ObjectiveExistsForPeriod(ctx, s.DB, ownerID, in.PeriodName)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateObjective
	}
	return s.Repo.CreateObjective(ctx, s.DB, ownerID, in.Title, in.PeriodName)
}

// List returns a page of the owner's objectives using skip/limit semantics.
// Negative skip and non-positive limit fall back to 0 and 50.
func (s *ObjectiveService) List(ctx context.Context, ownerID uint, skip, limit int) ([]domain.Objective, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = 50
	}
	return s.Repo.ListObjectivesPage(ctx, s.DB, ownerID, skip, limit)
}

// Get fetches one objective owned by ownerID, or ErrObjectiveNotFound.
func (s *ObjectiveService) Get(ctx context.Context, id, ownerID uint) (*domain.Objective, error) {
	o, err := s.Repo.GetObjective(ctx, s.DB, id, ownerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrObjectiveNotFound
		}
		return nil, err
	}
	return o, nil
}

// Update replaces the title and period of an owned objective and returns the
// refreshed row, or ErrObjectiveNotFound.
func (s *ObjectiveService) Update(ctx context.Context, id, ownerID uint, in validate.ObjectiveValues) (*domain.Objective, error) {
	if err := s.Repo.UpdateObjective(ctx, s.DB, id, ownerID, in.Title, in.PeriodName); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrObjectiveNotFound
		}
		return nil, err
	}
	return s.Get(ctx, id, ownerID)
}

// Delete removes an owned objective, or returns ErrObjectiveNotFound.
func (s *ObjectiveService) Delete(ctx context.Context, id, ownerID uint) error {
	if err := s.Repo.DeleteObjective(ctx, s.DB, id, ownerID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrObjectiveNotFound
		}
		return err
	}
	return nil
}
