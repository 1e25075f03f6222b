package main

import (
	"fmt"
	"io"
	"log/slog"
)

// logLevel maps the verbosity flags to a level. Routine invocation
// records are debug output for a CLI; failures still show at warn.
func logLevel(verbose, quiet bool) slog.Level {
	switch {
	case verbose:
		return slog.LevelDebug
	case quiet:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// newLogger creates a text or JSON logger writing to w.
func newLogger(w io.Writer, format string, level slog.Level) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: level}
	switch format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("%w: unknown --log-format %q (want text or json)", ErrInvalidFlags, format)
	}
}
