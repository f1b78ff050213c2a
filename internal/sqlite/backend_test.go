// Tests for the SQLite Blob Repository lifecycle.
package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/profiles/internal/handles"
	"github.com/mesh-intelligence/profiles/pkg/types"
)

// setupBackend creates an attached Backend over a temp DataDir and detaches
// it on cleanup.
func setupBackend(t *testing.T, opts ...Option) *Backend {
	t.Helper()
	b := NewBackend(opts...)
	require.NoError(t, b.Attach(types.Config{DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })
	return b
}

func TestBackend_Attach(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "nested", "data")

	b := NewBackend()
	config := types.Config{DataDir: tmpDir}
	require.NoError(t, b.Attach(config))
	t.Cleanup(func() { b.Detach() })

	_, err := os.Stat(filepath.Join(tmpDir, DatabaseFile))
	assert.NoError(t, err, "images.db should be created")

	assert.ErrorIs(t, b.Attach(config), types.ErrAlreadyAttached)
}

func TestBackend_AttachRejectsUnknownBackend(t *testing.T) {
	b := NewBackend()
	err := b.Attach(types.Config{DataDir: t.TempDir(), RecordBackend: "postgres"})
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
}

func TestBackend_Detach(t *testing.T) {
	ctx := context.Background()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{DataDir: t.TempDir()}))

	id, err := b.Put(ctx, []byte("x"), "image/png", "a.png")
	require.NoError(t, err)
	h, ok, err := b.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, b.Detach())
	assert.NoError(t, b.Detach(), "second Detach should not error")

	_, _, err = b.Registry().Resolve(h.URL)
	assert.ErrorIs(t, err, types.ErrHandleRevoked, "Detach revokes outstanding handles")

	tests := []struct {
		name string
		call func() error
	}{
		{"put", func() error { _, err := b.Put(ctx, []byte("y"), "image/png", "b.png"); return err }},
		{"get", func() error { _, _, err := b.Get(ctx, id); return err }},
		{"open", func() error { _, _, err := b.Open(ctx, id); return err }},
		{"delete", func() error { return b.Delete(ctx, id) }},
		{"list", func() error { _, err := b.List(ctx); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), types.ErrNotInitialized)
		})
	}
	assert.Zero(t, b.SizeEstimate(ctx))
}

func TestBackend_Reattach(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{DataDir: dir}))
	id, err := b.Put(ctx, []byte("persisted"), "image/jpeg", "p.jpg")
	require.NoError(t, err)
	require.NoError(t, b.Detach())

	b2 := NewBackend()
	require.NoError(t, b2.Attach(types.Config{DataDir: dir}))
	t.Cleanup(func() { b2.Detach() })

	obj, ok, err := b2.Open(ctx, id)
	require.NoError(t, err)
	require.True(t, ok, "blobs survive reattach")
	assert.Equal(t, []byte("persisted"), obj.Data)
	assert.Equal(t, "p.jpg", obj.FileName)
	assert.Equal(t, "image/jpeg", obj.MediaType)
}

func TestBackend_SharedRegistry(t *testing.T) {
	ctx := context.Background()
	reg := handles.New()
	b := setupBackend(t, WithRegistry(reg))

	id, err := b.Put(ctx, []byte("shared"), "image/png", "s.png")
	require.NoError(t, err)

	h, ok := reg.Lookup(id)
	require.True(t, ok, "Put registers a handle in the injected registry")
	assert.Same(t, reg, b.Registry())

	r, _, err := reg.Resolve(h.URL)
	require.NoError(t, err)
	buf := make([]byte, 6)
	_, err = r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "shared", string(buf))
}

func TestBackend_WithNow(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	b := setupBackend(t, WithNow(func() time.Time { return fixed }))

	id, err := b.Put(ctx, []byte("t"), "image/png", "t.png")
	require.NoError(t, err)
	assert.Contains(t, id, "_1709296200000_")

	obj, ok, err := b.Open(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, fixed.Equal(obj.CreatedAt))
}

func TestBackend_ImplementsBlobRepository(t *testing.T) {
	var _ types.BlobRepository = NewBackend()
}
