// Package handles tracks the display handles minted for stored blobs.
//
// A Registry caches at most one live handle per blob id, creates handles
// lazily, and releases each one exactly once: on Revoke for its blob, or on
// RevokeAll at teardown. A revoked handle never resolves again; asking for
// the blob afterwards mints a fresh handle with a new URL.
package handles

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/mesh-intelligence/profiles/internal/logging"
	"github.com/mesh-intelligence/profiles/internal/metrics"
	"github.com/mesh-intelligence/profiles/pkg/types"
)

// URLScheme prefixes every handle URL.
const URLScheme = "blob:profiles/"

// Loader reads a blob from durable storage for Acquire. ok is false when the
// blob does not exist or cannot be read.
type Loader func(ctx context.Context) (obj types.BlobObject, ok bool, err error)

// entry is one live handle and the bytes it addresses.
type entry struct {
	handle types.DisplayHandle
	data   []byte
}

// Registry is the process-wide owner of display handles.
type Registry struct {
	mu     sync.Mutex
	byBlob map[string]*entry // blob id → live entry
	byURL  map[string]*entry // handle URL → live entry
	group  singleflight.Group
	logger *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger for the registry.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New returns an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		byBlob: make(map[string]*entry),
		byURL:  make(map[string]*entry),
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(slog.String("component", "handles"))
	return r
}

// acquired carries the outcome of a collapsed Acquire call.
type acquired struct {
	handle types.DisplayHandle
	ok     bool
}

// Acquire returns the live handle for blobID, loading the blob and minting
// a handle when none is cached. Concurrent calls for the same id share one
// load, so at most one handle is minted.
func (r *Registry) Acquire(ctx context.Context, blobID string, load Loader) (types.DisplayHandle, bool, error) {
	if h, ok := r.Lookup(blobID); ok {
		return h, true, nil
	}
	v, err, _ := r.group.Do(blobID, func() (any, error) {
		if h, ok := r.Lookup(blobID); ok {
			return acquired{handle: h, ok: true}, nil
		}
		obj, ok, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return acquired{}, nil
		}
		return acquired{handle: r.Register(obj), ok: true}, nil
	})
	if err != nil {
		return types.DisplayHandle{}, false, fmt.Errorf("acquiring handle for %s: %w", blobID, err)
	}
	res := v.(acquired)
	return res.handle, res.ok, nil
}

// Register returns the live handle for obj, minting one if none is cached.
// The registry keeps a reference to obj.Data; callers must not modify it.
func (r *Registry) Register(obj types.BlobObject) types.DisplayHandle {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.byBlob[obj.ID]; ok {
		return e.handle
	}
	e := &entry{
		handle: types.DisplayHandle{
			BlobID:    obj.ID,
			URL:       URLScheme + newToken(),
			MediaType: obj.MediaType,
			Size:      int64(len(obj.Data)),
		},
		data: obj.Data,
	}
	r.byBlob[obj.ID] = e
	r.byURL[e.handle.URL] = e

	metrics.HandlesMinted.Inc()
	metrics.HandlesLive.Inc()
	r.logger.Debug("minted handle", "blob", obj.ID, "url", e.handle.URL)
	return e.handle
}

// Lookup returns the live handle for blobID without loading anything.
func (r *Registry) Lookup(blobID string) (types.DisplayHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byBlob[blobID]
	if !ok {
		return types.DisplayHandle{}, false
	}
	return e.handle, true
}

// Resolve returns a reader over the bytes addressed by a handle URL. The
// reader shares the registry's buffer. Returns ErrHandleRevoked for revoked
// or unknown URLs.
func (r *Registry) Resolve(url string) (io.ReadSeeker, types.DisplayHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byURL[url]
	if !ok {
		return nil, types.DisplayHandle{}, fmt.Errorf("%w: %s", types.ErrHandleRevoked, url)
	}
	return bytes.NewReader(e.data), e.handle, nil
}

// Revoke releases the handle cached for blobID. Returns false when no live
// handle exists, so a handle is never revoked twice.
func (r *Registry) Revoke(blobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byBlob[blobID]
	if !ok {
		return false
	}
	r.revokeLocked(e)
	return true
}

// RevokeAll releases every live handle and returns how many were revoked.
func (r *Registry) RevokeAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, e := range r.byBlob {
		r.revokeLocked(e)
		n++
	}
	if n > 0 {
		r.logger.Debug("revoked all handles", "count", n)
	}
	return n
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byBlob)
}

// revokeLocked removes e from both indexes and drops its buffer.
// The caller must hold r.mu.
func (r *Registry) revokeLocked(e *entry) {
	delete(r.byBlob, e.handle.BlobID)
	delete(r.byURL, e.handle.URL)
	e.data = nil

	metrics.HandlesRevoked.Inc()
	metrics.HandlesLive.Dec()
	r.logger.Debug("revoked handle", "blob", e.handle.BlobID, "url", e.handle.URL)
}

// newToken returns a UUID v7 string, falling back to v4 if v7 fails.
func newToken() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
