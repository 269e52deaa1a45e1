package slogx

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

type Config struct {
	Service string
	Version string
	Env     string // "dev" or "prod"
	Level   string // "debug", "info", "warn", "error"
	Format  string // "json", "text" or "pretty"

	// Output defaults to os.Stdout.
	Output io.Writer
}

// New builds a logger from cfg and installs it as the slog default.
func New(cfg Config) *slog.Logger {
	logger := slog.New(NewHandler(cfg)).With(
		"service", cfg.Service,
		"version", cfg.Version,
		"env", cfg.Env,
	)

	slog.SetDefault(logger)
	return logger
}

// NewHandler returns the handler New would use, without any attributes.
func NewHandler(cfg Config) slog.Handler {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	level := ParseLevel(cfg.Level)

	switch strings.ToLower(cfg.Format) {
	case "pretty", "tint":
		return tint.NewHandler(out, &tint.Options{
			AddSource:  cfg.Env == "dev",
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	case "text":
		return slog.NewTextHandler(out, &slog.HandlerOptions{AddSource: cfg.Env == "dev", Level: level})
	default:
		return slog.NewJSONHandler(out, &slog.HandlerOptions{AddSource: cfg.Env == "dev", Level: level})
	}
}

// Discard returns a logger that drops everything. Handy in tests and CLIs.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(lvl string) slog.Level {
	switch strings.ToLower(lvl) {
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
