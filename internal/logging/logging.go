// Package logging builds the slog logger used by the CLI and the stores.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// EnvLogLevel overrides the configured log level.
const EnvLogLevel = "PROFILES_LOG_LEVEL"

// DefaultLevel is used when no level is configured anywhere.
const DefaultLevel = slog.LevelInfo

// New returns a tint-backed logger writing to w. Colour is enabled only when
// w is a terminal.
func New(w io.Writer, level slog.Leveler) *slog.Logger {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
		w = colorable.NewColorable(f)
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:       level,
		TimeFormat:  "15:04:05.000",
		NoColor:     noColor,
		ReplaceAttr: dropZero,
	}))
}

// dropZero removes empty strings, zero times and nil attributes.
func dropZero(groups []string, a slog.Attr) slog.Attr {
	skip := false
	switch t := a.Value.Any().(type) {
	case string:
		skip = t == ""
	case time.Time:
		skip = t.IsZero()
	case time.Duration:
		skip = t == 0
	case nil:
		skip = true
	}
	if skip {
		return slog.Attr{}
	}
	return a
}

// ParseLevel parses a level name or number. An empty string yields
// DefaultLevel; "warning" is accepted as "warn".
func ParseLevel(raw string) (slog.Level, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return DefaultLevel, nil
	}
	if strings.EqualFold(value, "warning") {
		value = "warn"
	}
	if numeric, err := strconv.Atoi(value); err == nil {
		return slog.Level(numeric), nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return DefaultLevel, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}

// SelectLevel picks the raw level following flag > PROFILES_LOG_LEVEL >
// config precedence and parses it.
func SelectLevel(flagLevel, configLevel string) (slog.Level, error) {
	for _, raw := range []string{flagLevel, os.Getenv(EnvLogLevel), configLevel} {
		if strings.TrimSpace(raw) != "" {
			return ParseLevel(raw)
		}
	}
	return DefaultLevel, nil
}

// Discard returns a logger that drops everything. Used as the default for
// components constructed without WithLogger in tests.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
