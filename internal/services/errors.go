// Package services defines the business logic for accounts, objectives, and
// key results. This file centralizes common service-level error values so that
// they can be consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into problem-detail responses is performed once at the HTTP layer, never
// inside handlers individually.
package services

import "errors"

var (
	// ErrUsernameTaken is returned on signup when the requested username is
	// already registered.
	ErrUsernameTaken = errors.New("username already registered")

	// ErrInvalidCredentials is returned on login when the username/password
	// pair does not match an account. The two cases are deliberately not
	// distinguished.
	ErrInvalidCredentials = errors.New("incorrect username or password")

	// ErrObjectiveNotFound indicates that the requested objective does not
	// exist or is not accessible to the current user.
	ErrObjectiveNotFound = errors.New("objective not found")

	// ErrDuplicateObjective is returned when the user already has an
	// objective in the requested period.
	ErrDuplicateObjective = errors.New("objective in the same period already exists")

	// ErrKeyResultNotFound indicates that the requested key result does not
	// exist.
	ErrKeyResultNotFound = errors.New("key result not found")

	// ErrAccessDenied is returned when a key result exists but its parent
	// objective belongs to another user. Rendered with status 404 so that
	// non-owners cannot confirm resource existence.
	ErrAccessDenied = errors.New("objective not found or access denied")
)
