package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/profiles/internal/metrics"
	"github.com/mesh-intelligence/profiles/pkg/types"
)

// timeLayout is fixed-width so that created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// maxIDAttempts bounds retries when a generated id is already taken.
const maxIDAttempts = 5

// Blob operation names used as the metrics "operation" label.
const (
	opPut    = "put"
	opGet    = "get"
	opOpen   = "open"
	opDelete = "delete"
	opList   = "list"
)

// errIDExhausted is returned when every generated id collided.
var errIDExhausted = errors.New("no free blob id")

// Put stores data as a new immutable blob and returns its id. The row is
// inserted, never upserted; on an id collision a fresh id is drawn. A handle
// for the new blob is cached so the first Get does not reread it.
func (b *Backend) Put(ctx context.Context, data []byte, mediaType, fileName string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		metrics.ObserveBlob(opPut, metrics.ResultError)
		return "", types.ErrNotInitialized
	}

	obj := types.BlobObject{
		Data:      bytes.Clone(data),
		FileName:  fileName,
		MediaType: mediaType,
		CreatedAt: b.now().UTC().Truncate(time.Millisecond),
	}
	if obj.Data == nil {
		obj.Data = []byte{}
	}

	id, err := b.insertLocked(ctx, obj)
	metrics.ObserveBlob(opPut, metrics.Result(err))
	if err != nil {
		b.logger.Error("put failed", "file", fileName, "error", err)
		return "", err
	}
	obj.ID = id
	b.handles.Register(obj)
	b.logger.Debug("put", "blob", id, "file", fileName, "size", len(obj.Data))
	return id, nil
}

func (b *Backend) insertLocked(ctx context.Context, obj types.BlobObject) (string, error) {
	for range maxIDAttempts {
		id, err := types.NewBlobID(obj.CreatedAt)
		if err != nil {
			return "", err
		}
		res, err := b.db.ExecContext(ctx,
			`INSERT INTO images (id, blob, file_name, mime_type, created_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO NOTHING`,
			id, obj.Data, obj.FileName, obj.MediaType, obj.CreatedAt.Format(timeLayout),
		)
		if err != nil {
			return "", fmt.Errorf("inserting blob: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return "", fmt.Errorf("inserting blob: %w", err)
		}
		if n == 1 {
			return id, nil
		}
		b.logger.Warn("blob id collision", "blob", id)
	}
	return "", errIDExhausted
}

// Get returns a display handle for id, reusing the cached handle when one
// is live. Unknown ids and rows that cannot be decoded yield ok == false.
func (b *Backend) Get(ctx context.Context, id string) (types.DisplayHandle, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		metrics.ObserveBlob(opGet, metrics.ResultError)
		return types.DisplayHandle{}, false, types.ErrNotInitialized
	}
	if id == "" {
		metrics.ObserveBlob(opGet, metrics.ResultNotFound)
		return types.DisplayHandle{}, false, nil
	}

	h, ok, err := b.handles.Acquire(ctx, id, func(ctx context.Context) (types.BlobObject, bool, error) {
		return b.readLocked(ctx, id)
	})
	switch {
	case err != nil:
		metrics.ObserveBlob(opGet, metrics.ResultError)
		return types.DisplayHandle{}, false, err
	case !ok:
		metrics.ObserveBlob(opGet, metrics.ResultNotFound)
		return types.DisplayHandle{}, false, nil
	}
	metrics.ObserveBlob(opGet, metrics.ResultOK)
	return h, true, nil
}

// Open reads the full blob for id, bypassing the handle cache.
func (b *Backend) Open(ctx context.Context, id string) (types.BlobObject, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		metrics.ObserveBlob(opOpen, metrics.ResultError)
		return types.BlobObject{}, false, types.ErrNotInitialized
	}
	obj, ok, err := b.readLocked(ctx, id)
	switch {
	case err != nil:
		metrics.ObserveBlob(opOpen, metrics.ResultError)
	case !ok:
		metrics.ObserveBlob(opOpen, metrics.ResultNotFound)
	default:
		metrics.ObserveBlob(opOpen, metrics.ResultOK)
	}
	return obj, ok, err
}

// readLocked loads one row. A row with a NULL blob or an unparsable
// timestamp is logged and reported as absent. The caller must hold b.mu.
func (b *Backend) readLocked(ctx context.Context, id string) (types.BlobObject, bool, error) {
	row := b.db.QueryRowContext(ctx, "SELECT "+imageColumns+" FROM images WHERE id = ?", id)
	obj, err := scanImage(row.Scan)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return types.BlobObject{}, false, nil
	case errors.Is(err, errCorruptRow):
		b.logger.Warn("unreadable blob row", "blob", id, "error", err)
		return types.BlobObject{}, false, nil
	case err != nil:
		return types.BlobObject{}, false, fmt.Errorf("reading blob %s: %w", id, err)
	}
	return obj, true, nil
}

// Delete revokes any cached handle for id and removes the row. Deleting an
// unknown id is a no-op.
func (b *Backend) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		metrics.ObserveBlob(opDelete, metrics.ResultError)
		return types.ErrNotInitialized
	}

	b.handles.Revoke(id)
	res, err := b.db.ExecContext(ctx, "DELETE FROM images WHERE id = ?", id)
	if err != nil {
		metrics.ObserveBlob(opDelete, metrics.ResultError)
		return fmt.Errorf("deleting blob %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		metrics.ObserveBlob(opDelete, metrics.ResultNotFound)
		return nil
	}
	metrics.ObserveBlob(opDelete, metrics.ResultOK)
	b.logger.Debug("deleted", "blob", id)
	return nil
}

// List returns metadata for every readable blob, oldest first.
func (b *Backend) List(ctx context.Context) ([]types.BlobInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		metrics.ObserveBlob(opList, metrics.ResultError)
		return nil, types.ErrNotInitialized
	}

	rows, err := b.db.QueryContext(ctx,
		"SELECT "+imageColumns+" FROM images ORDER BY created_at, id")
	if err != nil {
		metrics.ObserveBlob(opList, metrics.ResultError)
		return nil, fmt.Errorf("listing blobs: %w", err)
	}
	defer rows.Close()

	infos := []types.BlobInfo{}
	for rows.Next() {
		obj, err := scanImage(rows.Scan)
		if errors.Is(err, errCorruptRow) {
			b.logger.Warn("skipping unreadable blob row", "error", err)
			continue
		}
		if err != nil {
			metrics.ObserveBlob(opList, metrics.ResultError)
			return nil, fmt.Errorf("listing blobs: %w", err)
		}
		infos = append(infos, obj.Info())
	}
	if err := rows.Err(); err != nil {
		metrics.ObserveBlob(opList, metrics.ResultError)
		return nil, fmt.Errorf("listing blobs: %w", err)
	}
	metrics.ObserveBlob(opList, metrics.ResultOK)
	return infos, nil
}

// SizeEstimate returns page_count * page_size for the database, or 0 when
// detached or when either pragma fails.
func (b *Backend) SizeEstimate(ctx context.Context) int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return 0
	}
	var pages, pageSize int64
	if err := b.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pages); err != nil {
		b.logger.Debug("size estimate unavailable", "error", err)
		return 0
	}
	if err := b.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		b.logger.Debug("size estimate unavailable", "error", err)
		return 0
	}
	return pages * pageSize
}

// errCorruptRow marks a row whose columns cannot be decoded into a BlobObject.
var errCorruptRow = errors.New("corrupt image row")

// scanImage decodes one row selected with imageColumns. Columns are
// scanned untyped so that a NULL or mistyped value is reported as
// errCorruptRow; only errors from the scan itself are returned as-is.
func scanImage(scan func(dest ...any) error) (types.BlobObject, error) {
	var (
		rawID, rawData                 any
		isNull                         bool
		fileName, mediaType, createdAt sql.NullString
	)
	if err := scan(&rawID, &rawData, &isNull, &fileName, &mediaType, &createdAt); err != nil {
		return types.BlobObject{}, err
	}
	id, ok := columnText(rawID)
	if !ok || id == "" {
		return types.BlobObject{}, fmt.Errorf("%w: id is %T", errCorruptRow, rawID)
	}
	if isNull {
		return types.BlobObject{}, fmt.Errorf("%w: %s has no payload", errCorruptRow, id)
	}
	var data []byte
	switch v := rawData.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		data = []byte{}
	default:
		return types.BlobObject{}, fmt.Errorf("%w: %s payload is %T", errCorruptRow, id, rawData)
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt.String)
	if err != nil {
		return types.BlobObject{}, fmt.Errorf("%w: %s created_at: %v", errCorruptRow, id, err)
	}
	if data == nil {
		data = []byte{}
	}
	return types.BlobObject{
		ID:        id,
		Data:      data,
		FileName:  fileName.String,
		MediaType: mediaType.String,
		CreatedAt: ts,
	}, nil
}

func columnText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case []byte:
		return string(t), true
	}
	return "", false
}
