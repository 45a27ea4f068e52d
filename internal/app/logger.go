package app

import (
	"log/slog"
	"os"
)

// NewLogger returns the service logger. JSON output in production
// deployments, text locally; every record carries the service name so the
// api and worker processes are distinguishable in shared log streams.
func NewLogger(cfg *Config) *slog.Logger {
	var handler slog.Handler
	if cfg != nil && cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{AddSource: true})
	}
	return slog.New(handler).With(slog.String("service", "oneview"))
}
