// Package logging defines the structured-logging interface shared by the
// engz packages and its slog and zap backed implementations.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "sync finished", "pushed", stats.Pushed, "pulled", stats.Pulled)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs unusual but non-fatal conditions, e.g. a dropped refresh.
	Warn(ctx context.Context, msg string, args ...any)

	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// Supported values of the log_format setting.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatZap  = "zap"
)

// New builds a Logger writing to w in the requested format and level.
// Level is one of debug, info, warn, error.
func New(format, level string, w io.Writer) (Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(format) {
	case "", FormatText:
		return NewSlogLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))), nil
	case FormatJSON:
		return NewSlogLogger(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))), nil
	case FormatZap:
		return NewZapLogger(w, lvl), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// NewNop returns a logger that discards everything.
func NewNop() Logger {
	return NewSlogLogger(slog.New(slog.DiscardHandler))
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return lvl, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lvl, nil
}
