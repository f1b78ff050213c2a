package migrate

import (
	"context"
	"sync/atomic"

	"github.com/mesh-intelligence/profiles/pkg/types"
)

// Runner serializes migration runs over one Engine. A run requested while
// another is in flight is refused rather than queued.
type Runner struct {
	engine  *Engine
	running atomic.Bool
}

// NewRunner wraps engine.
func NewRunner(engine *Engine) *Runner {
	return &Runner{engine: engine}
}

// TryRun starts a run unless one is already in flight, in which case it
// returns ErrMigrationInProgress.
func (r *Runner) TryRun(ctx context.Context, progress Progress) (types.MigrationStatus, error) {
	if !r.running.CompareAndSwap(false, true) {
		return types.MigrationStatus{}, types.ErrMigrationInProgress
	}
	defer r.running.Store(false)
	return r.engine.Run(ctx, progress)
}

// Running reports whether a run is in flight.
func (r *Runner) Running() bool {
	return r.running.Load()
}

// Pending returns the engine's current candidate count.
func (r *Runner) Pending(ctx context.Context) int {
	return r.engine.Pending(ctx)
}
