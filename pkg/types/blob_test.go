package types

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBlobID(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	id, err := NewBlobID(now)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "img_1700000000123_"), "got %s", id)
	assert.True(t, IsBlobID(id), "generated id %s should be recognized", id)

	seen := make(map[string]bool)
	for range 1000 {
		id, err := NewBlobID(now)
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestRandomBase36RejectsBiasedBytes(t *testing.T) {
	// 252..255 would map onto 0..3 a second time.
	src := bytes.NewReader([]byte{252, 253, 254, 255, 0, 35, 36, 251, 10, 11, 12, 13, 14, 15, 16, 17})

	got, err := randomBase36(src, 4)
	require.NoError(t, err)
	assert.Equal(t, "0z0z", got)

	_, err = randomBase36(bytes.NewReader([]byte{255, 255}), 4)
	assert.Error(t, err, "exhausted source")
}

func TestIsBlobID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"img_1700000000000_abcdefghi", true},
		{"img_1700000000000_abcdefgh", false},
		{"img_17x_abcdefghi", false},
		{"img__abcdefghi", false},
		{"img_1700000000000_ABCDEFGHI", false},
		{"data:image/png;base64,AAAA", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBlobID(tt.in))
		})
	}
}

func TestBlobObjectInfo(t *testing.T) {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	obj := BlobObject{ID: "img_1_aaaaaaaaa", Data: []byte("abcd"), FileName: "a.png", MediaType: "image/png", CreatedAt: created}
	assert.Equal(t, BlobInfo{ID: obj.ID, FileName: "a.png", MediaType: "image/png", Size: 4, CreatedAt: created}, obj.Info())
}
