// Package migrate converts records holding inline data URL payloads into
// records referencing Blob Repository objects.
//
// Engine has no internal lock: two concurrent Run calls over the same
// records are unsafe. Callers serialize runs, typically through Runner.
package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mesh-intelligence/profiles/internal/logging"
	"github.com/mesh-intelligence/profiles/internal/metrics"
	"github.com/mesh-intelligence/profiles/pkg/types"
)

// Records is the part of the Record Store the engine reads and rewrites.
type Records interface {
	List(ctx context.Context) []types.UserRecord
	Save(ctx context.Context, rec types.UserRecord) error
}

// Blobs receives the decoded payloads.
type Blobs interface {
	Put(ctx context.Context, data []byte, mediaType, fileName string) (string, error)
}

// Progress receives the running status after each record and once more
// when the run completes.
type Progress func(types.MigrationStatus)

// Engine migrates inline records one at a time.
type Engine struct {
	records Records
	blobs   Blobs
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New returns an Engine reading and saving through records and storing
// payloads in blobs.
func New(records Records, blobs Blobs, opts ...Option) *Engine {
	e := &Engine{
		records: records,
		blobs:   blobs,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(slog.String("component", "migrate"))
	return e
}

// Pending returns the number of records a Run would select.
func (e *Engine) Pending(ctx context.Context) int {
	return len(e.candidates(ctx))
}

func (e *Engine) candidates(ctx context.Context) []types.UserRecord {
	var out []types.UserRecord
	for _, rec := range e.records.List(ctx) {
		if rec.Mode() == types.ModeInline {
			out = append(out, rec)
		}
	}
	return out
}

// Run migrates every inline record. Records are processed strictly in
// sequence; a failed record is counted and skipped, never aborting the
// batch. Cancellation is checked between records, so the record in flight
// is either saved or left untouched. The returned error is non-nil only
// when ctx ends the run early.
//
// A record that fails after some of its payloads were stored leaves those
// blobs behind; the next run stores them again.
func (e *Engine) Run(ctx context.Context, progress Progress) (types.MigrationStatus, error) {
	cands := e.candidates(ctx)
	status := types.MigrationStatus{Total: len(cands)}
	e.logger.Info("migration started", "candidates", status.Total)

	for _, rec := range cands {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("migration interrupted", "processed", status.Processed(), "total", status.Total)
			return status, err
		}
		if err := e.migrateRecord(ctx, rec); err != nil {
			status.Failed++
			metrics.MigrationRecords.WithLabelValues(metrics.ResultError).Inc()
			e.logger.Warn("record migration failed", "record", rec.ID, "error", err)
		} else {
			status.Migrated++
			metrics.MigrationRecords.WithLabelValues(metrics.ResultOK).Inc()
			e.logger.Debug("record migrated", "record", rec.ID)
		}
		if progress != nil {
			progress(status)
		}
	}

	status.Complete = true
	if progress != nil {
		progress(status)
	}
	e.logger.Info("migration finished", "migrated", status.Migrated, "failed", status.Failed)
	return status, nil
}

// migrateRecord stores every inline payload of rec and saves the rewritten
// record in blob mode.
func (e *Engine) migrateRecord(ctx context.Context, rec types.UserRecord) error {
	out := rec.Clone()

	payloads, err := rec.Payloads()
	if err != nil {
		return err
	}
	for i, p := range payloads {
		ref, err := e.store(ctx, p, fmt.Sprintf("%s_%d", rec.ID, i))
		if err != nil {
			return fmt.Errorf("image %d: %w", i, err)
		}
		out.Images[i] = ref
	}

	bp, ok, err := rec.BiodataPayload()
	if err != nil {
		return err
	}
	if ok {
		ref, err := e.store(ctx, bp, rec.ID+"_biodata")
		if err != nil {
			return fmt.Errorf("biodata: %w", err)
		}
		out.Biodata.Content = ref
	}

	out.ImageType = types.ModeBlob
	return e.records.Save(ctx, out)
}

// store puts an inline payload and returns the blob id. References pass
// through unchanged.
func (e *Engine) store(ctx context.Context, p types.Payload, baseName string) (string, error) {
	if p.Kind != types.PayloadInline {
		return p.BlobID, nil
	}
	return e.blobs.Put(ctx, p.Data, p.MediaType, baseName+extension(p.MediaType))
}

var extensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/jpg":     ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/bmp":     ".bmp",
	"image/svg+xml": ".svg",
	"image/avif":    ".avif",
}

// extension maps a media type to a file extension, defaulting to .jpg.
func extension(mediaType string) string {
	if ext, ok := extensions[strings.ToLower(mediaType)]; ok {
		return ext
	}
	return ".jpg"
}
