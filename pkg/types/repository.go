package types

import "context"

// BlobRepository defines the durable store of immutable image objects.
// Callers attach to a backend, store and address blobs by id, and detach when
// done. Every DisplayHandle the repository hands out is released on Detach.
type BlobRepository interface {
	// Attach opens the backend described by config. Creates the DataDir if
	// it does not exist. Returns ErrAlreadyAttached if called while attached.
	Attach(config Config) error

	// Detach revokes every outstanding handle and releases backend
	// resources. Idempotent: multiple calls succeed.
	Detach() error

	// Put stores a new immutable object and returns its fresh id. Put never
	// overwrites an existing id.
	Put(ctx context.Context, data []byte, mediaType, fileName string) (string, error)

	// Get returns a cached or freshly created display handle. An unknown or
	// unreadable id yields ok == false and a nil error.
	Get(ctx context.Context, id string) (DisplayHandle, bool, error)

	// Delete removes the object and revokes any cached handle for it.
	// Deleting an unknown id is a no-op.
	Delete(ctx context.Context, id string) error

	// SizeEstimate reports best-effort total usage in bytes, or 0 when the
	// backend cannot tell. Never used for correctness decisions.
	SizeEstimate(ctx context.Context) int64
}
