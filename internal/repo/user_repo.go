// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a user is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/okrtracker/go-okr-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateUser inserts a new user row with the given username and bcrypt hash.
// On success, it returns the persisted User. On failure (including a unique
// constraint violation on username), it returns a DB error.
func CreateUser(ctx context.Context, db *gorm.DB, username, passwordHash string) (*domain.User, error) {
	u := &domain.User{
		Username:     username,
		PasswordHash: passwordHash,
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserByUsername fetches a single user by username. If the record does not
// exist, it returns ErrNotFound. On other DB errors, the raw error is returned.
func GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("username = ?", username).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}
