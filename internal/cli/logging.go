package cli

import (
	"io"
	"log/slog"
)

// newLogger returns the diagnostics logger. Progress lines are written by the
// console reporter; the logger only carries --debug detail and warnings.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
