package records

import (
	"context"

	"github.com/mesh-intelligence/profiles/pkg/types"
)

// ImageURLs returns a displayable URL for each image of rec, in order.
// Inline payloads are returned as their data URLs. References resolve to
// display handle URLs; missing or unreadable blobs are skipped.
func (s *Store) ImageURLs(ctx context.Context, rec types.UserRecord) ([]string, error) {
	urls := make([]string, 0, len(rec.Images))
	for _, raw := range rec.Images {
		u, ok, err := s.resolve(ctx, raw)
		if err != nil {
			return nil, err
		}
		if ok {
			urls = append(urls, u)
		}
	}
	return urls, nil
}

// BiodataImageURL returns a displayable URL for an image biodata. ok is
// false for text biodata, no biodata, or a missing blob.
func (s *Store) BiodataImageURL(ctx context.Context, rec types.UserRecord) (string, bool, error) {
	if !rec.HasImageBiodata() {
		return "", false, nil
	}
	return s.resolve(ctx, rec.Biodata.Content)
}

func (s *Store) resolve(ctx context.Context, raw string) (string, bool, error) {
	p, err := types.ParsePayload(raw)
	if err != nil {
		s.logger.Warn("skipping undecodable payload", "error", err)
		return "", false, nil
	}
	if p.Kind == types.PayloadInline {
		return raw, true, nil
	}
	if s.blobs == nil {
		return "", false, types.ErrNotInitialized
	}
	h, ok, err := s.blobs.Get(ctx, p.BlobID)
	if err != nil {
		return "", false, err
	}
	if !ok {
		s.logger.Debug("referenced blob is missing", "blob", p.BlobID)
		return "", false, nil
	}
	return h.URL, true, nil
}

// StorageInfo is a best-effort usage breakdown in bytes.
type StorageInfo struct {
	Blobs   int64 `json:"blobs"`
	Records int64 `json:"records"`
	Total   int64 `json:"total"`
}

// StorageInfo reports blob database size and persisted record size.
func (s *Store) StorageInfo(ctx context.Context) StorageInfo {
	var info StorageInfo
	if s.blobs != nil {
		info.Blobs = s.blobs.SizeEstimate(ctx)
	}
	info.Records = s.rawSize()
	info.Total = info.Blobs + info.Records
	return info
}
