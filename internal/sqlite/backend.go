package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/profiles/internal/handles"
	"github.com/mesh-intelligence/profiles/internal/logging"
	"github.com/mesh-intelligence/profiles/pkg/types"
)

// DatabaseFile is the name of the SQLite file inside DataDir.
const DatabaseFile = "images.db"

const (
	busyTimeoutMS = 5000
	// One connection keeps per-connection pragmas in effect and serializes
	// writers the way SQLite would anyway.
	maxOpenConns = 1
	maxIdleConns = 1
)

// Backend implements types.BlobRepository on a single SQLite file. Display
// handles for stored blobs are cached in a handles.Registry.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB

	handles *handles.Registry
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger for the backend.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		b.logger = logger
	}
}

// WithRegistry sets the handle registry. By default the backend owns a
// private registry.
func WithRegistry(r *handles.Registry) Option {
	return func(b *Backend) {
		b.handles = r
	}
}

// WithNow sets the clock used to stamp created_at and blob ids.
func WithNow(now func() time.Time) Option {
	return func(b *Backend) {
		b.now = now
	}
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		logger: logging.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.handles == nil {
		b.handles = handles.New(handles.WithLogger(b.logger))
	}
	b.logger = b.logger.With(slog.String("component", "blobs"))
	return b
}

// Registry returns the registry that resolves this backend's handle URLs.
func (b *Backend) Registry() *handles.Registry {
	return b.handles
}

// Attach opens (or creates) DataDir/images.db and applies the schema.
// Existing blobs are kept. Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return fmt.Errorf("opening %s: %w", dbPath, err)
	}
	if err := configureDB(db); err != nil {
		db.Close()
		return fmt.Errorf("configuring %s: %w", dbPath, err)
	}
	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("applying schema: %w", err)
		}
	}

	b.db = db
	b.config = config
	b.attached = true

	b.logger.Info("attached", "path", dbPath)
	return nil
}

// Detach revokes every outstanding handle and closes the database.
// After Detach, all operations return ErrNotInitialized.
// Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	revoked := b.handles.RevokeAll()
	b.attached = false

	var err error
	if b.db != nil {
		err = b.db.Close()
		b.db = nil
	}
	b.logger.Info("detached", "revoked", revoked)
	return err
}

// ReleaseHandles revokes every cached handle without detaching and returns
// the number revoked.
func (b *Backend) ReleaseHandles() int {
	return b.handles.RevokeAll()
}

func configureDB(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		fmt.Sprintf("PRAGMA busy_timeout = %d;", busyTimeoutMS),
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)

	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func sqliteDSN(path string) string {
	u := url.URL{Scheme: "file", Path: path}
	return u.String()
}
