package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/maruel/ksid"

	"github.com/mesh-intelligence/profiles/pkg/types"
)

// ImageFile is an uploaded image before it is stored.
type ImageFile struct {
	Data      []byte
	MediaType string
	FileName  string
}

// NewRecord carries the fields of a profile being created. At most one of
// BiodataText and BiodataImage may be set.
type NewRecord struct {
	FullName     string
	Age          int
	Location     string
	Gender       types.Gender
	Images       []ImageFile
	BiodataText  string
	BiodataImage *ImageFile

	// Inline stores payloads as data URLs in the record instead of in the
	// Blob Repository. Such records are later candidates for migration.
	Inline bool
}

// Create validates in, stores its images and saves a new record. In blob
// mode every image is Put first; if any Put or the final Save fails, the
// blobs stored so far are deleted again.
func (s *Store) Create(ctx context.Context, in NewRecord) (types.UserRecord, error) {
	rec := types.UserRecord{
		ID:        ksid.NewID().String(),
		FullName:  in.FullName,
		Age:       in.Age,
		Location:  in.Location,
		Gender:    in.Gender,
		ImageType: types.ModeBlob,
		CreatedAt: s.now().UTC(),
	}
	if in.Inline {
		rec.ImageType = types.ModeInline
	}
	if in.BiodataText != "" && in.BiodataImage != nil {
		return types.UserRecord{}, fmt.Errorf("%w: biodata must be text or image, not both", types.ErrInvalidRecord)
	}

	draft := rec
	draft.Images = make([]string, len(in.Images))
	if err := draft.Validate(); err != nil {
		return types.UserRecord{}, err
	}
	if !s.Available() || (!in.Inline && s.blobs == nil) {
		return types.UserRecord{}, types.ErrNotInitialized
	}

	var stored []string
	encode := func(f ImageFile) (string, error) {
		if in.Inline {
			return types.Inline(f.Data, f.MediaType).String(), nil
		}
		id, err := s.blobs.Put(ctx, f.Data, f.MediaType, f.FileName)
		if err != nil {
			return "", err
		}
		stored = append(stored, id)
		return types.Reference(id).String(), nil
	}

	rec.Images = make([]string, 0, len(in.Images))
	for i, f := range in.Images {
		p, err := encode(f)
		if err != nil {
			return types.UserRecord{}, s.rollback(ctx, stored, fmt.Errorf("storing image %d: %w", i, err))
		}
		rec.Images = append(rec.Images, p)
	}
	switch {
	case in.BiodataImage != nil:
		p, err := encode(*in.BiodataImage)
		if err != nil {
			return types.UserRecord{}, s.rollback(ctx, stored, fmt.Errorf("storing biodata: %w", err))
		}
		rec.Biodata = &types.Biodata{Type: types.BiodataImage, Content: p}
	case in.BiodataText != "":
		rec.Biodata = &types.Biodata{Type: types.BiodataText, Content: in.BiodataText}
	}

	if err := s.Save(ctx, rec); err != nil {
		return types.UserRecord{}, s.rollback(ctx, stored, err)
	}
	s.logger.Info("created", "record", rec.ID, "images", len(rec.Images), "mode", rec.Mode())
	return rec, nil
}

// rollback deletes blobs stored for a record that was never saved and
// returns cause joined with any deletion failures.
func (s *Store) rollback(ctx context.Context, blobIDs []string, cause error) error {
	errs := []error{cause}
	for _, id := range blobIDs {
		if err := s.blobs.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("rolling back blob %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
