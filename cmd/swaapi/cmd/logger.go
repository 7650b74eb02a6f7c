package cmd

import (
	"io"
	"log/slog"

	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/cmd/swaapi/internal/config"
)

// newLogger builds the process logger from configuration.
func newLogger(w io.Writer, c *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if c.LogFormat == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler).With("service", c.Observability.ServiceName)
}
