package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/profiles/internal/records"
)

// usageReport is the --json output of usage.
type usageReport struct {
	records.StorageInfo
	RecordCount int `json:"recordCount"`
	Pending     int `json:"pendingMigration"`
}

func newUsageCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show best-effort storage usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStores(cmd, func(ctx context.Context) error {
				rep := usageReport{
					StorageInfo: a.records.StorageInfo(ctx),
					RecordCount: len(a.records.List(ctx)),
					Pending:     newRunner(a).Pending(ctx),
				}
				return a.output(cmd, rep, func(w io.Writer) {
					fmt.Fprintf(w, "records: %d (%s)\n", rep.RecordCount, humanize.IBytes(uint64(rep.Records)))
					fmt.Fprintf(w, "blobs:   %s\n", humanize.IBytes(uint64(rep.Blobs)))
					fmt.Fprintf(w, "total:   %s\n", humanize.IBytes(uint64(rep.Total)))
					if rep.Pending > 0 {
						fmt.Fprintf(w, "%d record(s) still store inline images; run 'profiles migrate'\n", rep.Pending)
					}
				})
			})
		},
	}
}
