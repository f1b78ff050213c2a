// Package textstore provides durable text-keyed stores that hold one whole
// value per key. FileStore keeps one JSON file per key; BoltStore keeps all
// keys in a single bbolt bucket.
package textstore

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"

	"github.com/mesh-intelligence/profiles/internal/logging"
	"github.com/mesh-intelligence/profiles/pkg/types"
)

// Locations inside DataDir.
const (
	RecordsDir = "records"
	BoltFile   = "records.bolt"
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-][A-Za-z0-9_.-]*$`)

// ValidateKey reports ErrInvalidKey for keys that cannot be used as a file
// name component.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", types.ErrInvalidKey, key)
	}
	return nil
}

// Option configures a store.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: logging.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.With(slog.String("component", "textstore"))
	return o
}

// Open returns the store selected by cfg.RecordBackend, rooted at
// cfg.DataDir.
func Open(cfg types.Config, opts ...Option) (types.TextStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	switch cfg.Backend() {
	case types.BackendBolt:
		return OpenBolt(filepath.Join(dataDir, BoltFile), opts...)
	default:
		return OpenFile(filepath.Join(dataDir, RecordsDir), opts...)
	}
}
