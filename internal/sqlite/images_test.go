// Tests for blob Put, Get, Open, Delete, List and SizeEstimate.
package sqlite

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/profiles/pkg/types"
)

func TestPut(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		mediaType string
		fileName  string
	}{
		{"png payload", []byte{0x89, 'P', 'N', 'G'}, "image/png", "photo.png"},
		{"jpeg payload", []byte("jpegbytes"), "image/jpeg", "photo.jpg"},
		{"empty payload", nil, "image/gif", "empty.gif"},
		{"no media type", []byte("raw"), "", "raw.bin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			b := setupBackend(t)

			id, err := b.Put(ctx, tt.data, tt.mediaType, tt.fileName)
			require.NoError(t, err)
			assert.True(t, types.IsBlobID(id), "id %q should have blob id shape", id)

			obj, ok, err := b.Open(ctx, id)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, id, obj.ID)
			assert.Equal(t, len(tt.data), len(obj.Data))
			if len(tt.data) > 0 {
				assert.Equal(t, tt.data, obj.Data)
			}
			assert.Equal(t, tt.mediaType, obj.MediaType)
			assert.Equal(t, tt.fileName, obj.FileName)
		})
	}
}

func TestPut_FreshIDs(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)

	seen := make(map[string]bool)
	for i := range 20 {
		id, err := b.Put(ctx, []byte("same"), "image/png", fmt.Sprintf("%d.png", i))
		require.NoError(t, err)
		assert.False(t, seen[id], "id %s issued twice", id)
		seen[id] = true
	}
}

func TestPut_CopiesInput(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)

	data := []byte("original")
	id, err := b.Put(ctx, data, "image/png", "c.png")
	require.NoError(t, err)
	copy(data, "mutated!")

	h, ok, err := b.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	r, _, err := b.Registry().Resolve(h.URL)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)

	id, err := b.Put(ctx, []byte("abc"), "image/webp", "a.webp")
	require.NoError(t, err)

	t.Run("returns handle with metadata", func(t *testing.T) {
		h, ok, err := b.Get(ctx, id)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, id, h.BlobID)
		assert.Equal(t, "image/webp", h.MediaType)
		assert.Equal(t, int64(3), h.Size)
		assert.NotEmpty(t, h.URL)
	})

	t.Run("returns the cached handle on repeat", func(t *testing.T) {
		h1, _, err := b.Get(ctx, id)
		require.NoError(t, err)
		h2, _, err := b.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, h1, h2)
	})

	t.Run("unknown id is absent", func(t *testing.T) {
		h, ok, err := b.Get(ctx, "img_1_zzzzzzzzz")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.True(t, h.IsZero())
	})

	t.Run("empty id is absent", func(t *testing.T) {
		_, ok, err := b.Get(ctx, "")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestGet_AfterReleaseMintsNewHandle(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)

	id, err := b.Put(ctx, []byte("abc"), "image/png", "a.png")
	require.NoError(t, err)
	h1, _, err := b.Get(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, 1, b.ReleaseHandles())

	h2, ok, err := b.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, h1.URL, h2.URL)

	_, _, err = b.Registry().Resolve(h1.URL)
	assert.ErrorIs(t, err, types.ErrHandleRevoked)
	_, _, err = b.Registry().Resolve(h2.URL)
	assert.NoError(t, err)
}

func TestGet_CorruptRowIsAbsent(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)

	_, err := b.db.Exec(`INSERT INTO images (id, blob, file_name, mime_type, created_at)
		VALUES ('img_1_corrupted', x'00', 'bad.png', 'image/png', 'not-a-time')`)
	require.NoError(t, err)

	_, ok, err := b.Get(ctx, "img_1_corrupted")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = b.Open(ctx, "img_1_corrupted")
	require.NoError(t, err)
	assert.False(t, ok)

	infos, err := b.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, infos, "List skips unreadable rows")
}

func TestList_SkipsMistypedRows(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)

	good, err := b.Put(ctx, []byte("ok"), "image/png", "good.png")
	require.NoError(t, err)
	_, err = b.db.Exec(`INSERT INTO images (id, blob, file_name, mime_type, created_at) VALUES
		(NULL, x'01', 'nullid.png', 'image/png', '2024-01-02T03:04:05.000Z'),
		('img_2_wrongtype', 42, 'int.png', 'image/png', '2024-01-02T03:04:05.000Z')`)
	require.NoError(t, err)

	infos, err := b.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, good, infos[0].ID)

	_, ok, err := b.Get(ctx, "img_2_wrongtype")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGet_ConcurrentMintsOneHandle(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)

	id, err := b.Put(ctx, []byte("abc"), "image/png", "a.png")
	require.NoError(t, err)
	b.ReleaseHandles()

	const workers = 8
	urls := make([]string, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, ok, err := b.Get(ctx, id)
			if assert.NoError(t, err) && assert.True(t, ok) {
				urls[i] = h.URL
			}
		}()
	}
	wg.Wait()

	for _, u := range urls[1:] {
		assert.Equal(t, urls[0], u)
	}
	assert.Equal(t, 1, b.Registry().Len())
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)

	id, err := b.Put(ctx, []byte("abc"), "image/png", "a.png")
	require.NoError(t, err)
	h, _, err := b.Get(ctx, id)
	require.NoError(t, err)

	require.NoError(t, b.Delete(ctx, id))

	_, ok, err := b.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok, "deleted blob is absent")

	_, _, err = b.Registry().Resolve(h.URL)
	assert.ErrorIs(t, err, types.ErrHandleRevoked, "Delete revokes the cached handle")

	assert.NoError(t, b.Delete(ctx, id), "deleting twice is a no-op")
	assert.NoError(t, b.Delete(ctx, "img_1_unknown00"), "deleting an unknown id is a no-op")
}

func TestList(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := setupBackend(t, WithNow(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}))

	infos, err := b.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, infos)

	var ids []string
	for i, name := range []string{"first.png", "second.png", "third.png"} {
		id, err := b.Put(ctx, make([]byte, i+1), "image/png", name)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	infos, err = b.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 3)
	for i, info := range infos {
		assert.Equal(t, ids[i], info.ID)
		assert.Equal(t, int64(i+1), info.Size)
	}
	assert.Equal(t, "first.png", infos[0].FileName)
}

func TestSizeEstimate(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)

	before := b.SizeEstimate(ctx)
	assert.Positive(t, before)

	_, err := b.Put(ctx, make([]byte, 64*1024), "image/png", "big.png")
	require.NoError(t, err)

	assert.Greater(t, b.SizeEstimate(ctx), before)
}
