package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantKind  PayloadKind
		wantData  []byte
		wantMedia string
		wantBlob  string
		wantErr   error
	}{
		{
			name:      "base64 png data URL",
			input:     "data:image/png;base64,aGVsbG8=",
			wantKind:  PayloadInline,
			wantData:  []byte("hello"),
			wantMedia: "image/png",
		},
		{
			name:      "unpadded base64 is accepted",
			input:     "data:image/gif;base64,aGVsbG8",
			wantKind:  PayloadInline,
			wantData:  []byte("hello"),
			wantMedia: "image/gif",
		},
		{
			name:      "missing media type defaults to jpeg",
			input:     "data:;base64,aGk=",
			wantKind:  PayloadInline,
			wantData:  []byte("hi"),
			wantMedia: DefaultMediaType,
		},
		{
			name:      "percent-encoded data URL",
			input:     "data:text/plain,a%20b",
			wantKind:  PayloadInline,
			wantData:  []byte("a b"),
			wantMedia: "text/plain",
		},
		{
			name:     "blob id is a reference",
			input:    "img_1700000000000_abc123xyz",
			wantKind: PayloadReference,
			wantBlob: "img_1700000000000_abc123xyz",
		},
		{
			name:    "empty payload",
			input:   "",
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "data URL without comma",
			input:   "data:image/png;base64",
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "corrupt base64",
			input:   "data:image/png;base64,!!!",
			wantErr: ErrInvalidPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePayload(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantData, got.Data)
			assert.Equal(t, tt.wantMedia, got.MediaType)
			assert.Equal(t, tt.wantBlob, got.BlobID)
		})
	}
}

func TestEncodeDataURLParsesBack(t *testing.T) {
	data := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}
	s := EncodeDataURL("image/png", data)
	assert.Equal(t, "data:image/png;base64,iVBORwD/", s)

	p, err := ParsePayload(s)
	require.NoError(t, err)
	assert.Equal(t, PayloadInline, p.Kind)
	assert.Equal(t, data, p.Data)
	assert.Equal(t, s, p.String())
}

func TestPayloadString(t *testing.T) {
	assert.Equal(t, "img_1_aaaaaaaaa", Reference("img_1_aaaaaaaaa").String())
	assert.Equal(t, "", Payload{}.String())
	assert.Equal(t, "invalid", Payload{}.Kind.String())
}
