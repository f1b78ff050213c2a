package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/profiles/pkg/types"
)

func newExportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every record as a JSON array",
		Long: "Write every record as a JSON array. Blob-mode records export their\n" +
			"blob ids, not image bytes.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStores(cmd, func(ctx context.Context) error {
				snapshot, err := a.records.Export(ctx)
				if err != nil {
					return sysError("export: %w", err)
				}
				if _, err := writeOut(cmd, out, strings.NewReader(snapshot+"\n")); err != nil {
					return sysError("write export: %w", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace every record from a JSON array",
		Long: "Replace every record from a JSON array previously written by export.\n" +
			"On a malformed file the existing records are left untouched.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return userError("read import: %w", err)
			}
			return a.withStores(cmd, func(ctx context.Context) error {
				err := a.records.Import(ctx, string(data))
				if errors.Is(err, types.ErrSerialization) {
					return userError("%w", err)
				}
				if err != nil {
					return sysError("import: %w", err)
				}
				n := len(a.records.List(ctx))
				return a.output(cmd, map[string]int{"imported": n}, func(w io.Writer) {
					fmt.Fprintf(w, "imported %d record(s)\n", n)
				})
			})
		},
	}
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
