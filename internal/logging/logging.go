// Package logging constructs the service-wide structured logger.
package logging

import (
	"log/slog"
	"os"
)

// New returns a JSON logger writing to stdout. Components derive their own
// loggers from it with With("component", ...).
func New() *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(h)
}
