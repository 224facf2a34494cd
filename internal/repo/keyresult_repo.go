// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the KeyResult
// model.
//
// Key results are fetched without an ownership predicate; the service layer
// resolves the parent objective to distinguish "no such key result" from
// "key result under someone else's objective".
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/okrtracker/go-okr-backend/internal/domain"
)

// CreateKeyResult inserts a new KeyResult row under objectiveID.
func CreateKeyResult(ctx context.Context, db *gorm.DB, objectiveID uint, title, metric string, target, progress float64) (*domain.KeyResult, error) {
	kr := &domain.KeyResult{
		Title:       title,
		Metric:      metric,
		Target:      target,
		Progress:    progress,
		ObjectiveID: objectiveID,
	}
	if err := db.WithContext(ctx).Create(kr).Error; err != nil {
		return nil, err
	}
	return kr, nil
}

// ListKeyResults returns all key results attached to objectiveID, ordered by id.
func ListKeyResults(ctx context.Context, db *gorm.DB, objectiveID uint) ([]domain.KeyResult, error) {
	var out []domain.KeyResult
	err := db.WithContext(ctx).
		Where("objective_id = ?", objectiveID).
		Order("id asc").
		Find(&out).Error
	return out, err
}

// GetKeyResult fetches a single key result by id. If the record does not
// exist, it returns ErrNotFound.
func GetKeyResult(ctx context.Context, db *gorm.DB, id uint) (*domain.KeyResult, error) {
	var kr domain.KeyResult
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&kr).Error
	if err != nil {
		return nil, err
	}
	return &kr, nil
}

// UpdateKeyResult replaces the mutable fields of a key result identified by id.
// If no rows are affected, it returns ErrNotFound.
func UpdateKeyResult(ctx context.Context, db *gorm.DB, id uint, title, metric string, target, progress float64) error {
	res := db.WithContext(ctx).
		Model(&domain.KeyResult{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"title":    title,
			"metric":   metric,
			"target":   target,
			"progress": progress,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteKeyResult removes a key result by id. If no rows are affected, it
// returns ErrNotFound.
func DeleteKeyResult(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.KeyResult{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
