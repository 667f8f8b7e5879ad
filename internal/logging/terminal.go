package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// NewTerminalHandler creates a colored slog handler for interactive use.
// Colors are disabled when the output is not a terminal (CI logs, redirected builds).
func NewTerminalHandler(out *os.File, level slog.Leveler) slog.Handler {
	noColor := !isatty.IsTerminal(out.Fd()) && !isatty.IsCygwinTerminal(out.Fd())

	return tint.NewHandler(out, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	})
}

// ParseLevel converts a LOG_LEVEL value into a slog level.
// An empty value selects info.
func ParseLevel(s string) (slog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}
