package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/profiles/internal/logging"
	"github.com/mesh-intelligence/profiles/internal/metrics"
	"github.com/mesh-intelligence/profiles/internal/paths"
	"github.com/mesh-intelligence/profiles/internal/records"
	"github.com/mesh-intelligence/profiles/internal/sqlite"
	"github.com/mesh-intelligence/profiles/internal/textstore"
	"github.com/mesh-intelligence/profiles/pkg/types"
)

// app holds the state shared by one invocation of the root command.
type app struct {
	flags     rootFlags
	configDir string
	v         *viper.Viper
	logger    *slog.Logger

	blobs   *sqlite.Backend
	text    types.TextStore
	records *records.Store
}

// configure resolves the config directory, loads config.yaml and builds
// the logger. It runs before every subcommand except version.
func (a *app) configure(cmd *cobra.Command) error {
	if cmd.Name() == "version" {
		return nil
	}
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return sysError("load config: %w", err)
	}
	level, err := logging.SelectLevel(a.flags.logLevel, v.GetString(cfgKeyLogLevel))
	if err != nil {
		return userError("%w", err)
	}

	a.configDir = configDir
	a.v = v
	a.logger = logging.New(cmd.ErrOrStderr(), level)
	return nil
}

// storeConfig returns the attach configuration for the resolved data dir.
func (a *app) storeConfig() (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, a.v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, sysError("resolve data dir: %w", err)
	}
	cfg := types.Config{
		DataDir:       dataDir,
		RecordBackend: a.v.GetString(cfgKeyRecordBackend),
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, userError("config %s %q: %w", cfgKeyRecordBackend, cfg.RecordBackend, err)
	}
	return cfg, nil
}

// attach opens the Blob Repository and the Record Store.
func (a *app) attach() error {
	cfg, err := a.storeConfig()
	if err != nil {
		return err
	}

	blobs := sqlite.NewBackend(sqlite.WithLogger(a.logger))
	if err := blobs.Attach(cfg); err != nil {
		return sysError("attach blob store: %w", err)
	}
	text, err := textstore.Open(cfg, textstore.WithLogger(a.logger))
	if err != nil {
		blobs.Detach()
		return sysError("open record store: %w", err)
	}

	a.blobs = blobs
	a.text = text
	a.records = records.New(text, blobs, records.WithLogger(a.logger))
	return nil
}

// detach releases every handle and closes both stores.
func (a *app) detach() error {
	var errs []error
	if a.text != nil {
		errs = append(errs, a.text.Close())
		a.text = nil
	}
	if a.blobs != nil {
		errs = append(errs, a.blobs.Detach())
		a.blobs = nil
	}
	a.records = nil
	return errors.Join(errs...)
}

// withStores runs fn with both stores attached, detaches afterwards and
// then writes the metrics file when one was requested.
func (a *app) withStores(cmd *cobra.Command, fn func(ctx context.Context) error) error {
	if err := a.attach(); err != nil {
		return err
	}
	err := fn(cmd.Context())
	if derr := a.detach(); derr != nil && err == nil {
		err = sysError("close stores: %w", derr)
	}
	if merr := a.writeMetrics(); merr != nil && err == nil {
		err = merr
	}
	return err
}

// writeMetrics dumps the process metrics to --metrics-file.
func (a *app) writeMetrics() error {
	if a.flags.metricsFile == "" {
		return nil
	}
	if err := metrics.WriteTextfile(a.flags.metricsFile); err != nil {
		return sysError("write metrics: %w", err)
	}
	a.logger.Debug("wrote metrics", "path", a.flags.metricsFile)
	return nil
}

// output writes v as indented JSON in --json mode, otherwise calls text.
func (a *app) output(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	if a.flags.jsonMode {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return sysError("encode output: %w", err)
		}
		return nil
	}
	text(w)
	return nil
}
