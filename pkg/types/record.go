package types

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// StorageMode is the discriminant telling how a record's image payloads are
// stored. The JSON values match the persisted imageType field.
type StorageMode string

// Storage modes. An absent mode on a legacy record means inline.
const (
	ModeInline StorageMode = "base64"
	ModeBlob   StorageMode = "blob"
)

// Effective returns the mode with the legacy default applied.
func (m StorageMode) Effective() StorageMode {
	if m == "" {
		return ModeInline
	}
	return m
}

// Gender values accepted on a record.
type Gender string

// Genders.
const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// BiodataKind selects the variant held by Biodata.
type BiodataKind string

// Biodata kinds.
const (
	BiodataText  BiodataKind = "text"
	BiodataImage BiodataKind = "image"
)

// Biodata is either free text or an image payload, per Type.
type Biodata struct {
	Type    BiodataKind `json:"type"`
	Content string      `json:"content"`
}

// UserRecord is one profile. Images and an image-kind Biodata hold payloads
// whose representation is fixed by ImageType.
type UserRecord struct {
	ID        string      `json:"id"`
	FullName  string      `json:"fullName"`
	Age       int         `json:"age"`
	Location  string      `json:"location"`
	Gender    Gender      `json:"gender"`
	Images    []string    `json:"images"`
	ImageType StorageMode `json:"imageType,omitempty"`
	Biodata   *Biodata    `json:"biodata,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Mode returns the record's effective storage mode.
func (r *UserRecord) Mode() StorageMode {
	return r.ImageType.Effective()
}

// HasImageBiodata reports whether the biodata entry is of image kind.
func (r *UserRecord) HasImageBiodata() bool {
	return r.Biodata != nil && r.Biodata.Type == BiodataImage
}

// Payloads decodes every entry of Images, preserving order.
func (r *UserRecord) Payloads() ([]Payload, error) {
	out := make([]Payload, 0, len(r.Images))
	for i, s := range r.Images {
		p, err := ParsePayload(s)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// BiodataPayload decodes the biodata content when it is of image kind.
// ok is false for text biodata or no biodata.
func (r *UserRecord) BiodataPayload() (Payload, bool, error) {
	if !r.HasImageBiodata() {
		return Payload{}, false, nil
	}
	p, err := ParsePayload(r.Biodata.Content)
	if err != nil {
		return Payload{}, false, fmt.Errorf("biodata: %w", err)
	}
	return p, true, nil
}

// BlobIDs returns every Blob Repository id the record references. Inline
// records reference none. Undecodable entries are skipped.
func (r *UserRecord) BlobIDs() []string {
	if r.Mode() != ModeBlob {
		return nil
	}
	var ids []string
	for _, s := range r.Images {
		if p, err := ParsePayload(s); err == nil && p.Kind == PayloadReference {
			ids = append(ids, p.BlobID)
		}
	}
	if p, ok, err := r.BiodataPayload(); err == nil && ok && p.Kind == PayloadReference {
		ids = append(ids, p.BlobID)
	}
	return ids
}

// CheckConsistent verifies that every payload agrees with the storage mode:
// all inline for ModeInline, all references for ModeBlob.
// Returns ErrMixedModes or ErrInvalidPayload.
func (r *UserRecord) CheckConsistent() error {
	want := PayloadInline
	if r.Mode() == ModeBlob {
		want = PayloadReference
	}
	payloads, err := r.Payloads()
	if err != nil {
		return err
	}
	for i, p := range payloads {
		if p.Kind != want {
			return fmt.Errorf("%w: image %d is %s in %s record", ErrMixedModes, i, p.Kind, r.Mode())
		}
	}
	bp, ok, err := r.BiodataPayload()
	if err != nil {
		return err
	}
	if ok && bp.Kind != want {
		return fmt.Errorf("%w: biodata is %s in %s record", ErrMixedModes, bp.Kind, r.Mode())
	}
	return nil
}

// Validation bounds for profile fields.
const (
	MinNameLength     = 2
	MinLocationLength = 2
	MinAge            = 18
	MaxAge            = 100
)

// Validate checks the profile fields a new record must satisfy.
// Returns an error wrapping ErrInvalidRecord naming the first bad field.
func (r *UserRecord) Validate() error {
	switch {
	case len([]rune(strings.TrimSpace(r.FullName))) < MinNameLength:
		return fmt.Errorf("%w: full name must be at least %d characters", ErrInvalidRecord, MinNameLength)
	case r.Age < MinAge:
		return fmt.Errorf("%w: age must be at least %d", ErrInvalidRecord, MinAge)
	case r.Age > MaxAge:
		return fmt.Errorf("%w: age must be at most %d", ErrInvalidRecord, MaxAge)
	case len([]rune(strings.TrimSpace(r.Location))) < MinLocationLength:
		return fmt.Errorf("%w: location must be at least %d characters", ErrInvalidRecord, MinLocationLength)
	case r.Gender != GenderMale && r.Gender != GenderFemale:
		return fmt.Errorf("%w: gender must be %q or %q", ErrInvalidRecord, GenderMale, GenderFemale)
	case len(r.Images) == 0:
		return fmt.Errorf("%w: at least one image is required", ErrInvalidRecord)
	}
	if r.Biodata != nil && r.Biodata.Type != BiodataText && r.Biodata.Type != BiodataImage {
		return fmt.Errorf("%w: biodata type must be %q or %q", ErrInvalidRecord, BiodataText, BiodataImage)
	}
	return nil
}

// Clone returns a deep copy of the record.
func (r UserRecord) Clone() UserRecord {
	out := r
	out.Images = slices.Clone(r.Images)
	if r.Biodata != nil {
		b := *r.Biodata
		out.Biodata = &b
	}
	return out
}

// MigrationStatus reports the progress of one migration run. It is rebuilt
// on every run and never persisted.
type MigrationStatus struct {
	Total    int  `json:"total"`
	Migrated int  `json:"migrated"`
	Failed   int  `json:"failed"`
	Complete bool `json:"isComplete"`
}

// Processed returns the number of candidates handled so far.
func (s MigrationStatus) Processed() int {
	return s.Migrated + s.Failed
}
