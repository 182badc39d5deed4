package cvm

import (
	"io"
	"log/slog"
)

// NopLogger returns a logger that discards all output.
// This is the default when no logger is configured.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
