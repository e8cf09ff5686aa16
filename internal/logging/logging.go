package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/anatolykoptev/go-imagebot/internal/config"
)

// Setup installs the process-wide slog logger described by cfg. The
// standard "log" package is bridged through slog.SetDefault.
func Setup(cfg config.LogConfig) {
	slog.SetDefault(New(os.Stderr, cfg))
}

// New builds a logger writing to w. Every record carries service=imagebot
// so webhook lines can be told apart from other tenants of a shared sink.
// At debug level records also carry their source position.
func New(w io.Writer, cfg config.LogConfig) *slog.Logger {
	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("service", "imagebot")
}

func parseLevel(s string) slog.Level {
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
