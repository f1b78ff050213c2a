package types

import (
	"crypto/rand"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// BlobObject is an immutable stored image. Replacement means delete+insert.
type BlobObject struct {
	ID        string    // img_<unix-millis>_<random>, unique per repository.
	Data      []byte    // Raw payload bytes.
	FileName  string    // Origin file name.
	MediaType string    // Declared media type, e.g. image/png.
	CreatedAt time.Time // Timestamp of insertion.
}

// Info returns the object's metadata without its payload.
func (b BlobObject) Info() BlobInfo {
	return BlobInfo{
		ID:        b.ID,
		FileName:  b.FileName,
		MediaType: b.MediaType,
		Size:      int64(len(b.Data)),
		CreatedAt: b.CreatedAt,
	}
}

// BlobInfo describes a stored blob for enumeration.
type BlobInfo struct {
	ID        string    `json:"id"`
	FileName  string    `json:"fileName"`
	MediaType string    `json:"mimeType"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// DisplayHandle is a process-local, revocable reference to a blob's bytes.
// It is a plain value: two requests for a cached handle return equal values.
// The URL resolves through the registry that minted it until revoked.
type DisplayHandle struct {
	BlobID    string `json:"blobId"`
	URL       string `json:"url"`
	MediaType string `json:"mimeType"`
	Size      int64  `json:"size"`
}

// IsZero reports whether the handle is unset.
func (h DisplayHandle) IsZero() bool {
	return h.URL == ""
}

const (
	blobIDPrefix    = "img_"
	base36Alphabet  = "0123456789abcdefghijklmnopqrstuvwxyz"
	blobIDRandomLen = 9
)

// NewBlobID returns a fresh blob id of the form img_<unix-millis>_<random>,
// where random is nine lowercase base36 characters.
func NewBlobID(now time.Time) (string, error) {
	suffix, err := randomBase36(rand.Reader, blobIDRandomLen)
	if err != nil {
		return "", fmt.Errorf("generating blob id: %w", err)
	}
	return blobIDPrefix + strconv.FormatInt(now.UnixMilli(), 10) + "_" + suffix, nil
}

// IsBlobID reports whether s has the shape of a generated blob id.
func IsBlobID(s string) bool {
	rest, ok := strings.CutPrefix(s, blobIDPrefix)
	if !ok {
		return false
	}
	millis, random, ok := strings.Cut(rest, "_")
	if !ok || millis == "" || len(random) != blobIDRandomLen {
		return false
	}
	if _, err := strconv.ParseInt(millis, 10, 64); err != nil {
		return false
	}
	for i := 0; i < len(random); i++ {
		if !strings.ContainsRune(base36Alphabet, rune(random[i])) {
			return false
		}
	}
	return true
}

// randomBase36 draws uniformly from base36Alphabet, rejecting bytes at or
// above the largest multiple of 36 below 256.
func randomBase36(r io.Reader, length int) (string, error) {
	const limit = 256 - 256%len(base36Alphabet)
	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
		for _, c := range buf {
			if int(c) >= limit {
				continue
			}
			out = append(out, base36Alphabet[int(c)%len(base36Alphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
