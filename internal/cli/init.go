package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// initResult is the --json output of init.
type initResult struct {
	ConfigDir     string `json:"configDir"`
	DataDir       string `json:"dataDir"`
	RecordBackend string `json:"recordBackend"`
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize profiles storage",
		Long: "Write config.yaml with the resolved data directory, then create the\n" +
			"blob database and record store.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.storeConfig()
			if err != nil {
				return err
			}
			err = writeConfig(a.configDir, configFile{
				RecordBackend: cfg.Backend(),
				DataDir:       cfg.DataDir,
				LogLevel:      a.v.GetString(cfgKeyLogLevel),
			})
			if err != nil {
				return sysError("write config: %w", err)
			}
			if err := a.withStores(cmd, func(context.Context) error { return nil }); err != nil {
				return err
			}
			res := initResult{ConfigDir: a.configDir, DataDir: cfg.DataDir, RecordBackend: cfg.Backend()}
			return a.output(cmd, res, func(w io.Writer) {
				fmt.Fprintln(w, "profiles initialized")
				fmt.Fprintf(w, "config: %s\ndata:   %s (%s records)\n", res.ConfigDir, res.DataDir, res.RecordBackend)
			})
		},
	}
}
