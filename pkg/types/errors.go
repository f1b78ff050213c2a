package types

import "errors"

// Lifecycle errors. ErrNotInitialized is the only retryable error: the
// caller may retry once the store is attached.
var (
	ErrNotInitialized  = errors.New("store is not initialized")
	ErrAlreadyAttached = errors.New("store is already attached")
	ErrBackendUnknown  = errors.New("unknown record backend")
)

// Record and payload errors.
var (
	ErrInvalidID      = errors.New("invalid id")
	ErrInvalidKey     = errors.New("invalid store key")
	ErrInvalidRecord  = errors.New("invalid record")
	ErrInvalidPayload = errors.New("invalid image payload")
	ErrMixedModes     = errors.New("record payloads disagree with its storage mode")
	ErrSerialization  = errors.New("malformed record data")
	ErrCascadeDelete  = errors.New("cascade delete failed")
)

// Handle and migration errors.
var (
	ErrHandleRevoked       = errors.New("display handle is revoked")
	ErrMigrationInProgress = errors.New("migration is already running")
)
