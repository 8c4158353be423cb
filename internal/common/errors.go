// Package common defines shared constants and sentinel errors used across
// client and server layers of peeksync. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors.
	ErrorValidation = errors.New("validation error")

	// Sync errors.
	ErrNotConfigured   = errors.New("sync not configured")
	ErrVersionMismatch = errors.New("version mismatch")
	ErrSyncDisabled    = errors.New("sync disabled due to version mismatch")
)
