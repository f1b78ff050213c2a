package textstore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/mesh-intelligence/profiles/pkg/types"
)

var bucketItems = []byte("items")

// BoltStore keeps every key in one bbolt bucket. Each SetItem is a single
// update transaction.
type BoltStore struct {
	db     *bbolt.DB
	logger *slog.Logger
}

// OpenBolt opens (or creates) the bbolt file at path.
func OpenBolt(path string, opts ...Option) (*BoltStore, error) {
	o := buildOptions(opts)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketItems); err != nil {
			return fmt.Errorf("creating bucket %s: %w", bucketItems, err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	o.logger.Debug("opened bolt store", "path", path)
	return &BoltStore{db: db, logger: o.logger}, nil
}

// GetItem returns the value stored under key.
func (s *BoltStore) GetItem(key string) (string, bool, error) {
	if err := ValidateKey(key); err != nil {
		return "", false, err
	}
	var (
		value string
		found bool
	)
	err := s.view(func(b *bbolt.Bucket) error {
		if v := b.Get([]byte(key)); v != nil {
			value = string(v)
			found = true
		}
		return nil
	})
	return value, found, err
}

// SetItem replaces the value stored under key.
func (s *BoltStore) SetItem(key, value string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	err := s.update(func(b *bbolt.Bucket) error {
		return b.Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	s.logger.Debug("set item", "key", key, "bytes", len(value))
	return nil
}

// RemoveItem deletes key. A missing key is not an error.
func (s *BoltStore) RemoveItem(key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	err := s.update(func(b *bbolt.Bucket) error {
		return b.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

// Close closes the database. Idempotent.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) view(fn func(*bbolt.Bucket) error) error {
	err := s.db.View(func(tx *bbolt.Tx) error {
		return fn(tx.Bucket(bucketItems))
	})
	return mapClosed(err)
}

func (s *BoltStore) update(fn func(*bbolt.Bucket) error) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return fn(tx.Bucket(bucketItems))
	})
	return mapClosed(err)
}

func mapClosed(err error) error {
	if errors.Is(err, bbolt.ErrDatabaseNotOpen) {
		return types.ErrNotInitialized
	}
	return err
}
