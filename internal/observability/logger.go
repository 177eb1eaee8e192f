package observability

import (
	"io"
	"log/slog"
)

// NewCLILogger builds a text logger on w for command-line tools, which keep
// stdout for their own output. Levels use slog's names (debug, info, warn,
// error); anything else falls back to info. The service logger comes from
// storm-data-shared/observability.
func NewCLILogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
