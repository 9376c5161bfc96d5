// Package log provides the structured logger threaded through version
// inference.
//
// Inference never reaches for a global logger: callers hand a Logger to
// flowver.Options and every strategy logs through it. The CLI writes
// diagnostics to stderr so stdout carries only the version string.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// LevelTrace sits below slog's DEBUG and is used for per-commit walk output.
const LevelTrace = slog.LevelDebug - 4

// Logger is the interface for structured logging.
// Methods match slog's signature.
type Logger interface {
	// Trace logs per-commit detail from the ancestry walk.
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// With returns a Logger that adds the given key-value pairs to every entry.
	With(args ...any) Logger
}

type slogLogger struct {
	l *slog.Logger
}

// New creates a Logger backed by slog with the given handler.
func New(h slog.Handler) Logger {
	return &slogLogger{l: slog.New(h)}
}

// NewText returns a Logger writing slog text records at or above level to w.
func NewText(w io.Writer, level slog.Level) Logger {
	return New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}))
}

func (s *slogLogger) Trace(msg string, args ...any) {
	s.l.Log(context.Background(), LevelTrace, msg, args...)
}

func (s *slogLogger) Debug(msg string, args ...any) {
	s.l.Debug(msg, args...)
}

func (s *slogLogger) Info(msg string, args ...any) {
	s.l.Info(msg, args...)
}

func (s *slogLogger) Warn(msg string, args ...any) {
	s.l.Warn(msg, args...)
}

func (s *slogLogger) Error(msg string, args ...any) {
	s.l.Error(msg, args...)
}

func (s *slogLogger) With(args ...any) Logger {
	return &slogLogger{l: s.l.With(args...)}
}

type noopLogger struct{}

// NewNoop returns a logger that discards all output.
func NewNoop() Logger {
	return noopLogger{}
}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) With(...any) Logger   { return noopLogger{} }

// ParseLevel maps the CLI level names (TRACE|DEBUG|INFO|WARN|ERROR, any case)
// to slog levels.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error", "":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", name)
	}
}
