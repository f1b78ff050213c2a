package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/profiles/internal/handles"
	"github.com/mesh-intelligence/profiles/pkg/types"
)

func newImagesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "images",
		Short: "List stored image blobs, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStores(cmd, func(ctx context.Context) error {
				infos, err := a.blobs.List(ctx)
				if err != nil {
					return sysError("list images: %w", err)
				}
				return a.output(cmd, infos, func(w io.Writer) {
					if len(infos) == 0 {
						fmt.Fprintln(w, "no images")
						return
					}
					tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tFILE\tTYPE\tSIZE\tCREATED")
					for _, info := range infos {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", info.ID, info.FileName, info.MediaType,
							humanize.IBytes(uint64(info.Size)), info.CreatedAt.Format("2006-01-02 15:04:05"))
					}
					tw.Flush()
				})
			})
		},
	}
}

func newCatCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "cat <blob-id|handle-url>",
		Short: "Write an image's bytes to a file or stdout",
		Long: "Write an image's bytes to a file or stdout. The image is read through\n" +
			"a display handle; handle URLs from another process are never valid.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStores(cmd, func(ctx context.Context) error {
				url := args[0]
				if !strings.HasPrefix(url, handles.URLScheme) {
					h, ok, err := a.blobs.Get(ctx, url)
					if err != nil {
						return sysError("load image: %w", err)
					}
					if !ok {
						return userError("image %q not found", url)
					}
					url = h.URL
				}
				r, h, err := a.blobs.Registry().Resolve(url)
				if errors.Is(err, types.ErrHandleRevoked) {
					return userError("%w: %s", err, url)
				}
				if err != nil {
					return sysError("resolve handle: %w", err)
				}
				n, err := writeOut(cmd, out, r)
				if err != nil {
					return sysError("write image: %w", err)
				}
				if out != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%s, %s)\n", out, h.MediaType, humanize.IBytes(uint64(n)))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	return cmd
}

// writeOut copies r to the file at path, or to stdout when path is empty.
func writeOut(cmd *cobra.Command, path string, r io.Reader) (int64, error) {
	if path == "" {
		return io.Copy(cmd.OutOrStdout(), r)
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}
