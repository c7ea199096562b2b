package slogx

import (
	"log/slog"
	"os"
	"strings"
)

// Config controls how the process logger is built.
type Config struct {
	Service string
	Version string
	Env     string // "dev" enables source annotations
	Level   string // "debug", "info", "warn", "error"
	Format  string // "text" or "json" (default)
}

// New builds the process-wide logger and installs it as slog's default.
// Output goes to stderr so response streams stay clean on stdout when the
// binary is run by hand.
func New(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: cfg.Env == "dev",
	}

	var handler slog.Handler = slog.NewJSONHandler(os.Stderr, opts)
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler).With(
		slog.String("service", cfg.Service),
		slog.String("version", cfg.Version),
		slog.String("env", cfg.Env),
	)

	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a config string onto a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
