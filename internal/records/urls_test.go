package records

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/profiles/pkg/types"
)

func TestImageURLs(t *testing.T) {
	ctx := context.Background()
	blobs := newFakeBlobs()
	s, _ := setupStore(t, blobs)

	id1, err := blobs.Put(ctx, []byte("a"), "image/png", "a.png")
	require.NoError(t, err)
	id2, err := blobs.Put(ctx, []byte("b"), "image/png", "b.png")
	require.NoError(t, err)

	t.Run("inline returns data URLs verbatim", func(t *testing.T) {
		rec := inlineRecord("r", "x", "y")
		urls, err := s.ImageURLs(ctx, rec)
		require.NoError(t, err)
		assert.Equal(t, rec.Images, urls)
	})

	t.Run("blob returns handle URLs in order", func(t *testing.T) {
		urls, err := s.ImageURLs(ctx, blobRecord("r", id2, id1))
		require.NoError(t, err)
		assert.Equal(t, []string{"blob:test/" + id2, "blob:test/" + id1}, urls)
	})

	t.Run("missing blobs are skipped", func(t *testing.T) {
		urls, err := s.ImageURLs(ctx, blobRecord("r", id1, "img_9_missing00", id2))
		require.NoError(t, err)
		assert.Len(t, urls, 2)
	})
}

func TestBiodataImageURL(t *testing.T) {
	ctx := context.Background()
	blobs := newFakeBlobs()
	s, _ := setupStore(t, blobs)
	id, err := blobs.Put(ctx, []byte("bio"), "image/png", "bio.png")
	require.NoError(t, err)
	dataURL := types.EncodeDataURL("image/png", []byte("bio"))

	tests := []struct {
		name    string
		rec     types.UserRecord
		wantURL string
		wantOK  bool
	}{
		{"no biodata", blobRecord("r", id), "", false},
		{
			name: "text biodata",
			rec: func() types.UserRecord {
				r := blobRecord("r", id)
				r.Biodata = &types.Biodata{Type: types.BiodataText, Content: "hello"}
				return r
			}(),
		},
		{
			name: "blob biodata",
			rec: func() types.UserRecord {
				r := blobRecord("r", id)
				r.Biodata = &types.Biodata{Type: types.BiodataImage, Content: id}
				return r
			}(),
			wantURL: "blob:test/" + id,
			wantOK:  true,
		},
		{
			name: "inline biodata",
			rec: func() types.UserRecord {
				r := inlineRecord("r", "x")
				r.Biodata = &types.Biodata{Type: types.BiodataImage, Content: dataURL}
				return r
			}(),
			wantURL: dataURL,
			wantOK:  true,
		},
		{
			name: "missing blob biodata",
			rec: func() types.UserRecord {
				r := blobRecord("r", id)
				r.Biodata = &types.Biodata{Type: types.BiodataImage, Content: "img_9_missing00"}
				return r
			}(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, ok, err := s.BiodataImageURL(ctx, tt.rec)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantURL, url)
		})
	}
}

func TestStorageInfo(t *testing.T) {
	ctx := context.Background()
	blobs := newFakeBlobs()
	blobs.sizeBytes = 4096
	s, text := setupStore(t, blobs)

	require.NoError(t, s.Save(ctx, inlineRecord("a", "x")))
	raw, _, err := text.GetItem(StorageKey)
	require.NoError(t, err)

	info := s.StorageInfo(ctx)
	assert.Equal(t, int64(4096), info.Blobs)
	assert.Equal(t, int64(len(raw)), info.Records)
	assert.Equal(t, info.Blobs+info.Records, info.Total)

	assert.Equal(t, StorageInfo{}, New(nil, nil).StorageInfo(ctx))
}
