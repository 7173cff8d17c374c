package cmtxcli

import (
	"io"
	"log/slog"
)

// newLogger writes text records to w: warnings and errors by default, every
// file with verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
