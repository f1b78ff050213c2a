package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/profiles/pkg/types"
)

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a profile record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStores(cmd, func(ctx context.Context) error {
				rec, ok := a.records.Get(ctx, args[0])
				if !ok {
					return userError("record %q not found", args[0])
				}
				return a.output(cmd, rec, func(w io.Writer) {
					printRecord(w, rec)
				})
			})
		},
	}
}

func printRecord(w io.Writer, rec types.UserRecord) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", rec.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", rec.FullName)
	fmt.Fprintf(tw, "Age:\t%d\n", rec.Age)
	fmt.Fprintf(tw, "Location:\t%s\n", rec.Location)
	fmt.Fprintf(tw, "Gender:\t%s\n", rec.Gender)
	fmt.Fprintf(tw, "Images:\t%d (%s)\n", len(rec.Images), rec.Mode())
	if rec.Biodata != nil {
		fmt.Fprintf(tw, "Biodata:\t%s\n", rec.Biodata.Type)
	}
	fmt.Fprintf(tw, "Created:\t%s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"))
	tw.Flush()
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List profile records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStores(cmd, func(ctx context.Context) error {
				recs := a.records.List(ctx)
				return a.output(cmd, recs, func(w io.Writer) {
					if len(recs) == 0 {
						fmt.Fprintln(w, "no records")
						return
					}
					tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tNAME\tAGE\tLOCATION\tIMAGES\tMODE")
					for _, r := range recs {
						fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\t%s\n", r.ID, r.FullName, r.Age, r.Location, len(r.Images), r.Mode())
					}
					tw.Flush()
				})
			})
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a profile record and its images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return a.withStores(cmd, func(ctx context.Context) error {
				if _, ok := a.records.Get(ctx, id); !ok {
					return userError("record %q not found", id)
				}
				err := a.records.Delete(ctx, id)
				if errors.Is(err, types.ErrCascadeDelete) {
					return sysError("record %s deleted, some images were not removed: %w", id, err)
				}
				if err != nil {
					return sysError("delete record: %w", err)
				}
				return a.output(cmd, map[string]string{"deleted": id}, func(w io.Writer) {
					fmt.Fprintf(w, "deleted %s\n", id)
				})
			})
		},
	}
}

// recordURLs is the --json output of urls.
type recordURLs struct {
	ID      string   `json:"id"`
	Images  []string `json:"images"`
	Biodata string   `json:"biodata,omitempty"`
}

func newURLsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "urls <id>",
		Short: "Resolve displayable URLs for a record's images",
		Long: "Resolve displayable URLs for a record's images. Inline images are shown\n" +
			"as data URLs; blob images as display handle URLs, which are valid only\n" +
			"for the lifetime of this process.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStores(cmd, func(ctx context.Context) error {
				rec, ok := a.records.Get(ctx, args[0])
				if !ok {
					return userError("record %q not found", args[0])
				}
				urls, err := a.records.ImageURLs(ctx, rec)
				if err != nil {
					return sysError("resolve images: %w", err)
				}
				out := recordURLs{ID: rec.ID, Images: urls}
				if u, ok, err := a.records.BiodataImageURL(ctx, rec); err != nil {
					return sysError("resolve biodata: %w", err)
				} else if ok {
					out.Biodata = u
				}
				return a.output(cmd, out, func(w io.Writer) {
					for i, u := range out.Images {
						fmt.Fprintf(w, "image %d: %s\n", i, abbreviate(u))
					}
					if out.Biodata != "" {
						fmt.Fprintf(w, "biodata: %s\n", abbreviate(out.Biodata))
					}
					if missing := len(rec.Images) - len(out.Images); missing > 0 {
						fmt.Fprintf(w, "%d image(s) missing from the blob store\n", missing)
					}
				})
			})
		},
	}
}

// abbreviate shortens data URLs for terminal display.
func abbreviate(u string) string {
	const keep = 48
	if !strings.HasPrefix(u, "data:") || len(u) <= keep {
		return u
	}
	return fmt.Sprintf("%s... (%d chars)", u[:keep], len(u))
}
