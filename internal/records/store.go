// Package records implements the Record Store: the durable collection of
// user records kept as one JSON array under a single text key.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mesh-intelligence/profiles/internal/logging"
	"github.com/mesh-intelligence/profiles/pkg/types"
)

// StorageKey is the text key holding the JSON array of records.
const StorageKey = "matrimonial_users"

// Blobs is the part of the Blob Repository the Record Store calls.
type Blobs interface {
	Put(ctx context.Context, data []byte, mediaType, fileName string) (string, error)
	Get(ctx context.Context, id string) (types.DisplayHandle, bool, error)
	Delete(ctx context.Context, id string) error
	SizeEstimate(ctx context.Context) int64
}

// Store implements types.RecordStore over a types.TextStore. A nil text
// store makes the Record Store unavailable: reads come back empty and
// writes are logged no-ops.
type Store struct {
	mu     sync.Mutex
	text   types.TextStore
	blobs  Blobs
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithNow sets the clock used to stamp createdAt on new records.
func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New returns a Store persisting to text and cascading deletes to blobs.
func New(text types.TextStore, blobs Blobs, opts ...Option) *Store {
	s := &Store{
		text:   text,
		blobs:  blobs,
		logger: logging.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "records"))
	return s
}

// Available reports whether a durable medium is attached.
func (s *Store) Available() bool {
	return s.text != nil
}

// List returns every record. Unreadable storage yields an empty list.
func (s *Store) List(ctx context.Context) []types.UserRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, _ := s.readLocked()
	return recs
}

// Get returns the record with the given id.
func (s *Store) Get(ctx context.Context, id string) (types.UserRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, _ := s.readLocked()
	if i := indexOf(recs, id); i >= 0 {
		return recs[i], true
	}
	return types.UserRecord{}, false
}

// Save replaces the record with the same id wholesale, or appends it.
// Payloads must agree with the record's storage mode.
func (s *Store) Save(ctx context.Context, rec types.UserRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("%w: record id is empty", types.ErrInvalidID)
	}
	if err := rec.CheckConsistent(); err != nil {
		return fmt.Errorf("saving %s: %w", rec.ID, err)
	}
	rec = normalize(rec)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Available() {
		s.logger.Warn("store unavailable, record not saved", "record", rec.ID)
		return nil
	}

	recs, err := s.readLocked()
	if err != nil {
		return fmt.Errorf("saving %s: %w", rec.ID, err)
	}
	if i := indexOf(recs, rec.ID); i >= 0 {
		recs[i] = rec
	} else {
		recs = append(recs, rec)
	}
	if err := s.writeLocked(recs); err != nil {
		return fmt.Errorf("saving %s: %w", rec.ID, err)
	}
	s.logger.Debug("saved", "record", rec.ID, "mode", rec.Mode())
	return nil
}

// Delete removes the record after deleting every blob it references. Blob
// deletion is best effort: the record is removed even when some fail, and
// those failures are returned wrapped in ErrCascadeDelete. Deleting an
// unknown id is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Available() {
		s.logger.Warn("store unavailable, record not deleted", "record", id)
		return nil
	}

	recs, err := s.readLocked()
	if err != nil {
		return fmt.Errorf("deleting %s: %w", id, err)
	}
	i := indexOf(recs, id)
	if i < 0 {
		return nil
	}

	var cascadeErrs []error
	if s.blobs != nil {
		for _, blobID := range recs[i].BlobIDs() {
			if err := s.blobs.Delete(ctx, blobID); err != nil {
				s.logger.Warn("cascade delete failed", "record", id, "blob", blobID, "error", err)
				cascadeErrs = append(cascadeErrs, fmt.Errorf("blob %s: %w", blobID, err))
			}
		}
	}

	recs = append(recs[:i], recs[i+1:]...)
	if err := s.writeLocked(recs); err != nil {
		return fmt.Errorf("deleting %s: %w", id, err)
	}
	s.logger.Debug("deleted", "record", id)

	if len(cascadeErrs) > 0 {
		return fmt.Errorf("%w for record %s: %w", types.ErrCascadeDelete, id, errors.Join(cascadeErrs...))
	}
	return nil
}

// Export returns every record as a JSON array indented by two spaces.
func (s *Store) Export(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, _ := s.readLocked()
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrSerialization, err)
	}
	return string(data), nil
}

// Import replaces every record with those in snapshot, a JSON array. On a
// parse or write failure the prior records are left intact.
func (s *Store) Import(ctx context.Context, snapshot string) error {
	var recs []types.UserRecord
	if err := json.Unmarshal([]byte(snapshot), &recs); err != nil {
		return fmt.Errorf("%w: %w", types.ErrSerialization, err)
	}
	if recs == nil {
		return fmt.Errorf("%w: snapshot is not a JSON array", types.ErrSerialization)
	}
	for i := range recs {
		recs[i] = normalize(recs[i])
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Available() {
		return types.ErrNotInitialized
	}
	if err := s.writeLocked(recs); err != nil {
		return fmt.Errorf("importing: %w", err)
	}
	s.logger.Info("imported", "records", len(recs))
	return nil
}

// readLocked loads the record array. It returns an empty list and an error
// wrapping ErrNotInitialized when the text store cannot be read, so writers
// never replace records they could not see. Corrupt JSON is logged and
// treated as empty.
func (s *Store) readLocked() ([]types.UserRecord, error) {
	recs := []types.UserRecord{}
	if !s.Available() {
		return recs, types.ErrNotInitialized
	}
	raw, found, err := s.text.GetItem(StorageKey)
	if err != nil {
		s.logger.Error("reading records", "error", err)
		return recs, fmt.Errorf("%w: reading records: %w", types.ErrNotInitialized, err)
	}
	if !found {
		return recs, nil
	}
	if err := json.Unmarshal([]byte(raw), &recs); err != nil || recs == nil {
		s.logger.Error("records are unreadable, treating as empty", "error", err)
		return []types.UserRecord{}, nil
	}
	return recs, nil
}

func (s *Store) writeLocked(recs []types.UserRecord) error {
	data, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrSerialization, err)
	}
	return s.text.SetItem(StorageKey, string(data))
}

// rawSize returns the byte length of the persisted record array.
func (s *Store) rawSize() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Available() {
		return 0
	}
	raw, _, err := s.text.GetItem(StorageKey)
	if err != nil {
		return 0
	}
	return int64(len(raw))
}

func indexOf(recs []types.UserRecord, id string) int {
	for i := range recs {
		if recs[i].ID == id {
			return i
		}
	}
	return -1
}

func normalize(rec types.UserRecord) types.UserRecord {
	rec = rec.Clone()
	if rec.Images == nil {
		rec.Images = []string{}
	}
	return rec
}
