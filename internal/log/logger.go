// Package log sets up the application's structured logging.
package log

import (
	"log/slog"
	"os"
	"strings"
)

// Setup builds a text slog logger at the level named by the BUDGET_LOG_LEVEL
// environment variable (default info) and installs it as the default.
func Setup() *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: levelFromEnv(),
	}))
	slog.SetDefault(logger)
	return logger
}

// ForComponent returns a logger tagged with a component name, so subsystem
// output can be told apart in a shared stream.
func ForComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With("component", component)
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("BUDGET_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
