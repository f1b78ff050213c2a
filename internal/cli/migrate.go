package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/profiles/internal/migrate"
	"github.com/mesh-intelligence/profiles/pkg/types"
)

func newRunner(a *app) *migrate.Runner {
	return migrate.NewRunner(migrate.New(a.records, a.blobs, migrate.WithLogger(a.logger)))
}

func newMigrateCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Move inline base64 images into the blob store",
		Long: "Convert every record that still embeds base64 images so that it\n" +
			"references blobs instead. Records are migrated one at a time; a record\n" +
			"that fails keeps its inline images and is retried on the next run.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStores(cmd, func(ctx context.Context) error {
				runner := newRunner(a)
				if dryRun {
					pending := runner.Pending(ctx)
					return a.output(cmd, map[string]int{"pending": pending}, func(w io.Writer) {
						fmt.Fprintf(w, "%d record(s) to migrate\n", pending)
					})
				}

				var progress migrate.Progress
				if !a.flags.jsonMode {
					progress = func(s types.MigrationStatus) {
						if !s.Complete {
							fmt.Fprintf(cmd.ErrOrStderr(), "migrated %d/%d (%d failed)\n", s.Processed(), s.Total, s.Failed)
						}
					}
				}
				status, err := runner.TryRun(ctx, progress)
				if n := a.blobs.ReleaseHandles(); n > 0 {
					a.logger.Debug("released handles after migration", "count", n)
				}
				if err != nil {
					return sysError("migrate: %w", err)
				}
				if err := a.output(cmd, status, func(w io.Writer) {
					switch {
					case status.Total == 0:
						fmt.Fprintln(w, "all records already use blob storage")
					default:
						fmt.Fprintf(w, "migrated %d of %d record(s)", status.Migrated, status.Total)
						if status.Failed > 0 {
							fmt.Fprintf(w, ", %d failed", status.Failed)
						}
						fmt.Fprintln(w)
					}
				}); err != nil {
					return err
				}
				if status.Failed > 0 {
					return sysError("%d record(s) failed to migrate; run migrate again to retry", status.Failed)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only count records that need migration")
	return cmd
}
