// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Objective
// model.
//
// Ownership is enforced at the query level: lookups scoped to an owner return
// ErrNotFound whether the row is missing or belongs to someone else, so the
// service layer cannot accidentally leak existence to non-owners.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/okrtracker/go-okr-backend/internal/domain"
)

// CreateObjective inserts a new Objective row owned by ownerID.
func CreateObjective(ctx context.Context, db *gorm.DB, ownerID uint, title, periodName string) (*domain.Objective, error) {
	o := &domain.Objective{
		Title:      title,
		PeriodName: periodName,
		OwnerID:    ownerID,
	}
	if err := db.WithContext(ctx).Create(o).Error; err != nil {
		return nil, err
	}
	return o, nil
}

// ObjectiveExistsForPeriod reports whether ownerID already has an objective in
// periodName. Used for the duplicate-objective business rule; the unique index
// on (owner_id, period_name) remains the hard backstop.
func ObjectiveExistsForPeriod(ctx context.Context, db *gorm.DB, ownerID uint, periodName string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Objective{}).
		Where("owner_id = ? AND period_name = ?", ownerID, periodName).
		Count(&count).Error
	return count > 0, err
}

// ListObjectivesPage returns a slice of ownerID's objectives ordered by id,
// using offset/limit pagination. On DB error, it returns the error.
func ListObjectivesPage(ctx context.Context, db *gorm.DB, ownerID uint, offset, limit int) ([]domain.Objective, error) {
	var out []domain.Objective
	err := db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListObjectives returns all objectives belonging to ownerID, ordered by id.
func ListObjectives(ctx context.Context, db *gorm.DB, ownerID uint) ([]domain.Objective, error) {
	var out []domain.Objective
	err := db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id asc").
		Find(&out).Error
	return out, err
}

// GetObjective fetches a single objective by its ID and owner. If the record
// does not exist or belongs to another user, it returns ErrNotFound. On other
// DB errors, the raw error is returned.
func GetObjective(ctx context.Context, db *gorm.DB, id, ownerID uint) (*domain.Objective, error) {
	var o domain.Objective
	err := db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateObjective updates the title and period of an objective identified by
// id and owned by ownerID. If no rows are affected (objective missing or not
// owned), it returns ErrNotFound. On DB error, the raw error is returned.
func UpdateObjective(ctx context.Context, db *gorm.DB, id, ownerID uint, title, periodName string) error {
	res := db.WithContext(ctx).
		Model(&domain.Objective{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(map[string]any{"title": title, "period_name": periodName})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteObjective removes an objective identified by id and owned by ownerID.
// If no rows are affected, it returns ErrNotFound.
func DeleteObjective(ctx context.Context, db *gorm.DB, id, ownerID uint) error {
	res := db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&domain.Objective{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
