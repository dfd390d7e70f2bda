package logging

import (
	"context"
	"log/slog"
)

type ctxAttrsKey struct{}

// ContextWith returns a copy of ctx carrying key-value pairs that every
// Logger appends to records logged with that context. A sync run uses it to
// tag the push, pull and HTTP records it produces.
func ContextWith(ctx context.Context, args ...any) context.Context {
	prev := contextAttrs(ctx)
	merged := make([]any, 0, len(prev)+len(args))
	merged = append(merged, prev...)
	merged = append(merged, args...)
	return context.WithValue(ctx, ctxAttrsKey{}, merged)
}

func contextAttrs(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	attrs, _ := ctx.Value(ctxAttrsKey{}).([]any)
	return attrs
}

func withContextAttrs(ctx context.Context, args []any) []any {
	attrs := contextAttrs(ctx)
	if len(attrs) == 0 {
		return args
	}
	return append(append(make([]any, 0, len(attrs)+len(args)), attrs...), args...)
}

// SlogLogger is the default Logger on top of log/slog.
type SlogLogger struct {
	l *slog.Logger
}

func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l}
}

func (s *SlogLogger) log(ctx context.Context, level slog.Level, msg string, args []any) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !s.l.Enabled(ctx, level) {
		return
	}
	s.l.Log(ctx, level, msg, withContextAttrs(ctx, args)...)
}

func (s *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelDebug, msg, args)
}

func (s *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelInfo, msg, args)
}

func (s *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelWarn, msg, args)
}

func (s *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelError, msg, args)
}

func (s *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{l: s.l.With(args...)}
}
