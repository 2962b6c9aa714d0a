package observe

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Field represents a structured log field.
type Field struct {
	Key   string
	Value any
}

// F is a shorthand constructor for a Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Logger is a minimal structured logging interface.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: logging must be best-effort and must not panic.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)

	// With returns a logger with the given fields attached to every event.
	With(fields ...Field) Logger
}

// zerologLogger implements Logger on top of zerolog.
type zerologLogger struct {
	zl zerolog.Logger
}

// NewLogger creates a JSON structured logger writing to stderr at the given
// level. Unknown levels fall back to info.
func NewLogger(level string) Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter creates a structured logger with a custom writer.
func NewLoggerWithWriter(level string, w io.Writer) Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zl := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return &zerologLogger{zl: zl}
}

func (l *zerologLogger) Debug(_ context.Context, msg string, fields ...Field) {
	emit(l.zl.Debug(), msg, fields)
}

func (l *zerologLogger) Info(_ context.Context, msg string, fields ...Field) {
	emit(l.zl.Info(), msg, fields)
}

func (l *zerologLogger) Warn(_ context.Context, msg string, fields ...Field) {
	emit(l.zl.Warn(), msg, fields)
}

func (l *zerologLogger) Error(_ context.Context, msg string, fields ...Field) {
	emit(l.zl.Error(), msg, fields)
}

func (l *zerologLogger) With(fields ...Field) Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		ctx = ctx.Interface(f.Key, f.Value)
	}
	return &zerologLogger{zl: ctx.Logger()}
}

func emit(ev *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			ev = ev.Str(f.Key, v)
		case error:
			ev = ev.AnErr(f.Key, v)
		default:
			ev = ev.Interface(f.Key, v)
		}
	}
	ev.Msg(msg)
}

// noopLogger discards all log events.
type noopLogger struct{}

func (noopLogger) Debug(context.Context, string, ...Field) {}
func (noopLogger) Info(context.Context, string, ...Field)  {}
func (noopLogger) Warn(context.Context, string, ...Field)  {}
func (noopLogger) Error(context.Context, string, ...Field) {}
func (n noopLogger) With(...Field) Logger                  { return n }

// NopLogger returns a logger that discards everything.
func NopLogger() Logger {
	return noopLogger{}
}

// Ensure implementations satisfy Logger.
var (
	_ Logger = (*zerologLogger)(nil)
	_ Logger = noopLogger{}
)
