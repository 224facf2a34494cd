// Package services – AccountService
//
// This file implements signup and login. Both paths end in the same place: a
// signed bearer token for the authenticated username. Password hashing and
// token signing are delegated to the auth package; this service only owns the
// account-level business rules (unique usernames, credential verification).
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/okrtracker/go-okr-backend/internal/auth"
	"github.com/okrtracker/go-okr-backend/internal/domain"
	"github.com/okrtracker/go-okr-backend/internal/repo"
)

// TokenIssuer abstracts token creation so tests can substitute a fixed signer.
type TokenIssuer interface {
	Issue(username string) (string, error)
}

// AccountService provides user registration and authentication.
type AccountService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Tokens signs access tokens for authenticated users.
	Tokens TokenIssuer
}

// Signup registers a new user and returns a signed access token.
// Returns ErrUsernameTaken when the username is already registered.
func (s *AccountService) Signup(ctx context.Context, username, password string) (string, error) {
	if _, err := repo.GetUserByUsername(ctx, s.DB, username); err == nil {
		return "", ErrUsernameTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return "", err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}
	if _, err := repo.CreateUser(ctx, s.DB, username, hash); err != nil {
		return "", err
	}
	return s.Tokens.Issue(username)
}

// Login verifies the credential pair and returns a signed access token.
// Returns ErrInvalidCredentials for an unknown username or a wrong password.
func (s *AccountService) Login(ctx context.Context, username, password string) (string, error) {
	u, err := repo.GetUserByUsername(ctx, s.DB, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}
	return s.Tokens.Issue(username)
}

// Resolve returns the account for username, or ErrInvalidCredentials if it no
// longer exists. Used by the auth middleware to map a verified token subject
// to an owner id.
func (s *AccountService) Resolve(ctx context.Context, username string) (*domain.User, error) {
	u, err := repo.GetUserByUsername(ctx, s.DB, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return u, nil
}
