package logging

import (
	"context"
	"io"
	"log/slog"
)

const redactedPlaceholder = "[redacted]"

// Attribute keys shared by every KEM log record.
const (
	SchemeKey = "scheme"
	OpKey     = "op"
)

// Logger is the slice of slog the KEM packages write through. Applications
// may supply their own implementation to capture or filter records.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}

// New returns a Logger backed by the provided slog.Logger. Passing nil binds to
// slog.Default().
func New(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &slogLogger{logger: logger}
}

// Discard returns a Logger that drops every record.
func Discard() Logger {
	return New(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1})))
}

// ForScheme scopes l to the named KEM scheme. A nil l binds to slog.Default().
func ForScheme(l Logger, scheme string) Logger {
	if l == nil {
		l = New(nil)
	}
	return l.With(SchemeKey, scheme)
}

// LengthMismatch records a caller buffer of the wrong size. Only sizes are
// logged, never contents.
func LengthMismatch(ctx context.Context, l Logger, op, buffer string, want, got int) {
	l.Warn(ctx, "buffer length mismatch", OpKey, op, "buffer", buffer, "want", want, "got", got)
}

// SeedMismatch records a derivation seed of the wrong size.
func SeedMismatch(ctx context.Context, l Logger, op, seed string, want, got int) {
	l.Warn(ctx, "seed length mismatch", OpKey, op, "seed", seed, "want", want, "got", got)
}

type slogLogger struct {
	logger *slog.Logger
}

func (l *slogLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.logger.DebugContext(ctx, msg, args...)
}

func (l *slogLogger) Info(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, msg, args...)
}

func (l *slogLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.logger.WarnContext(ctx, msg, args...)
}

func (l *slogLogger) Error(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, msg, args...)
}

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{logger: l.logger.With(args...)}
}

// Redacted stands in for an attribute whose value is secret: seeds, keys,
// shared secrets and decrypted messages are never logged.
func Redacted(key string) slog.Attr {
	return slog.String(key, redactedPlaceholder)
}

// Placeholder returns the canonical string that represents a redacted value.
func Placeholder() string {
	return redactedPlaceholder
}
