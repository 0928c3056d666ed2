// Package common defines shared constants and sentinel errors used across
// PassLock components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Open/read failures.
	ErrFileNotFound  = errors.New("database file not found")
	ErrDataCorrupted = errors.New("database file corrupted")
	ErrInvalidKey    = errors.New("invalid key")

	// Write-side failures.
	ErrPermissionDenied = errors.New("permission denied")
	ErrWrite            = errors.New("write error")

	// Replication failures (remote missing, unwritable, or sync disabled
	// while a sync was explicitly requested).
	ErrSyncUnavailable = errors.New("sync unavailable")

	// Catch-all; always wrapped around the underlying cause.
	ErrUnknown = errors.New("unknown error")

	// Low-level authenticated-decryption failure. The store maps this to
	// ErrInvalidKey when opening a database.
	ErrDecryptionFailed = errors.New("decryption failed")
)
