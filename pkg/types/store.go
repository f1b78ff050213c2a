package types

import "context"

// RecordStore provides the durable collection of user records keyed by id.
// An unavailable durable medium turns every operation except Import into a
// no-op returning empty or absent results.
type RecordStore interface {
	// List returns all records. Order is not guaranteed.
	List(ctx context.Context) []UserRecord

	// Get returns the record with the given id, or ok == false.
	Get(ctx context.Context, id string) (UserRecord, bool)

	// Save upserts by id: an existing record is replaced wholesale,
	// otherwise the record is appended.
	Save(ctx context.Context, record UserRecord) error

	// Delete removes the record after best-effort deletion of every blob it
	// references. Cascade failures are returned wrapped in ErrCascadeDelete;
	// the record is removed regardless.
	Delete(ctx context.Context, id string) error

	// Export returns an indented JSON array of every record.
	Export(ctx context.Context) (string, error)

	// Import atomically replaces every record from a JSON array. On failure
	// the prior records are left intact.
	Import(ctx context.Context, snapshot string) error
}

// TextStore is a durable text-keyed store holding whole values per key.
type TextStore interface {
	// GetItem returns the value stored under key, or ok == false.
	GetItem(key string) (value string, ok bool, err error)

	// SetItem replaces the value stored under key atomically.
	SetItem(key, value string) error

	// RemoveItem deletes key. Removing a missing key is not an error.
	RemoveItem(key string) error

	// Close releases the store. Later calls return ErrNotInitialized.
	Close() error
}
