package telemetry

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// NewSlogHandler returns the console handler used by every command, output
// is only colored when `w` is a terminal.
func NewSlogHandler(w io.Writer, verbose bool) slog.Handler {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd())
	}
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    !color,
	})
}

// InitSlog sets the default logger to write to stderr.
func InitSlog(verbose bool) {
	slog.SetDefault(slog.New(NewSlogHandler(os.Stderr, verbose)))
}
