package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New returns the structured logger for a service. Every log line carries
// the service name so the shared sync stream can be debugged across domains
// from one log aggregate.
func New(service string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("WATTGRID_LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("service", service)
}
