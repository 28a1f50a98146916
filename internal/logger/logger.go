// Package logger provides structured logging for sandboxctl.
package logger

import (
	"log/slog"
	"os"

	"sandboxctl/internal/constants"
)

// Initialize sets up the global slog logger based on the environment.
// Interactive sessions get colored output, everything else gets JSON.
func Initialize(env constants.Environment, level slog.Level) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{Level: level}

	if env == constants.CLI {
		handler = NewColorHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("logger initialized", "env", env, "level", level)

	return logger
}
