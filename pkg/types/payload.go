package types

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// PayloadKind tags a decoded image payload.
type PayloadKind int

// Payload kinds. The zero value is invalid so an unparsed Payload is never
// mistaken for either representation.
const (
	PayloadInline PayloadKind = iota + 1
	PayloadReference
)

// String returns the kind name.
func (k PayloadKind) String() string {
	switch k {
	case PayloadInline:
		return "inline"
	case PayloadReference:
		return "reference"
	default:
		return "invalid"
	}
}

// DefaultMediaType is assumed when an inline payload declares none.
const DefaultMediaType = "image/jpeg"

const dataURLPrefix = "data:"

// Payload is an image payload decoded once at the record boundary. Exactly
// one of (Data, MediaType) or BlobID is meaningful, selected by Kind.
type Payload struct {
	Kind      PayloadKind
	Data      []byte
	MediaType string
	BlobID    string
}

// Inline returns an inline payload for data.
func Inline(data []byte, mediaType string) Payload {
	if mediaType == "" {
		mediaType = DefaultMediaType
	}
	return Payload{Kind: PayloadInline, Data: data, MediaType: mediaType}
}

// Reference returns a payload pointing at a Blob Repository id.
func Reference(blobID string) Payload {
	return Payload{Kind: PayloadReference, BlobID: blobID}
}

// ParsePayload decodes a stored payload string. Strings carrying the data URL
// prefix decode to PayloadInline; anything else is a blob id.
// Returns ErrInvalidPayload for empty input or undecodable data URLs.
func ParsePayload(s string) (Payload, error) {
	if s == "" {
		return Payload{}, fmt.Errorf("%w: empty payload", ErrInvalidPayload)
	}
	rest, ok := strings.CutPrefix(s, dataURLPrefix)
	if !ok {
		return Reference(s), nil
	}
	header, data, ok := strings.Cut(rest, ",")
	if !ok {
		return Payload{}, fmt.Errorf("%w: data URL has no comma", ErrInvalidPayload)
	}

	params := strings.Split(header, ";")
	mediaType := strings.TrimSpace(params[0])
	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}

	var raw []byte
	if isBase64 {
		decoded, err := decodeBase64(data)
		if err != nil {
			return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		raw = decoded
	} else {
		unescaped, err := url.PathUnescape(data)
		if err != nil {
			return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		raw = []byte(unescaped)
	}
	return Inline(raw, mediaType), nil
}

// decodeBase64 accepts padded and unpadded standard encoding.
func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

// EncodeDataURL returns the base64 data URL for data.
func EncodeDataURL(mediaType string, data []byte) string {
	if mediaType == "" {
		mediaType = DefaultMediaType
	}
	return dataURLPrefix + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// String returns the stored form of the payload.
func (p Payload) String() string {
	switch p.Kind {
	case PayloadInline:
		return EncodeDataURL(p.MediaType, p.Data)
	case PayloadReference:
		return p.BlobID
	default:
		return ""
	}
}
