// Package sqlite provides the public API for the SQLite Blob Repository.
// It exposes a factory while keeping the implementation internal.
package sqlite

import (
	"log/slog"

	"github.com/mesh-intelligence/profiles/internal/sqlite"
	"github.com/mesh-intelligence/profiles/pkg/types"
)

// NewBlobRepository creates a Blob Repository backed by DataDir/images.db.
// The repository is not attached; call Attach with a Config to initialize.
// A nil logger discards log output.
//
// Example:
//
//	repo := sqlite.NewBlobRepository(nil)
//	err := repo.Attach(types.Config{DataDir: ".profiles-db"})
//	defer repo.Detach()
func NewBlobRepository(logger *slog.Logger) types.BlobRepository {
	if logger == nil {
		return sqlite.NewBackend()
	}
	return sqlite.NewBackend(sqlite.WithLogger(logger))
}
