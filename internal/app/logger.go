package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide logger. LOG_FORMAT=json switches to
// machine-readable output for aggregation; anything else stays human
// readable for the workshop console.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}

	var handler slog.Handler
	if cfg != nil && cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler).With(slog.String("app", "sunbike"))
}
