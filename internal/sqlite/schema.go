// Package sqlite implements the Blob Repository on SQLite.
// This file holds the schema DDL.
package sqlite

// Schema DDL. Statements are idempotent: the database is durable and is
// opened, not recreated, on every Attach.
const (
	createImages = `CREATE TABLE IF NOT EXISTS images (
    id TEXT PRIMARY KEY,
    blob BLOB NOT NULL,
    file_name TEXT NOT NULL,
    mime_type TEXT NOT NULL,
    created_at TEXT NOT NULL
);`

	idxImagesCreatedAt = `CREATE INDEX IF NOT EXISTS idx_images_created_at ON images(created_at);`
)

// schemaDDL lists all CREATE statements in dependency order.
var schemaDDL = []string{
	createImages,
	idxImagesCreatedAt,
}

// Column list shared by the image queries.
const imageColumns = "id, blob, blob IS NULL, file_name, mime_type, created_at"
