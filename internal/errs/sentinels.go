// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied indicates the authorization boundary rejected the action.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrUnauthenticated indicates no valid session is present.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrValidation indicates malformed input fields.
	ErrValidation = errors.New("validation failed")

	// ErrConstraint indicates a data conflict (e.g. double-booked slot).
	ErrConstraint = errors.New("constraint violation")

	// ErrTransport indicates a network or connection failure; retryable.
	ErrTransport = errors.New("transport failure")

	// ErrAlreadyExists indicates a unique constraint violation (e.g. email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")
)
