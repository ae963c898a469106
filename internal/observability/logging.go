package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// NewLogger builds a slog.Logger from cfg. The returned closer releases the
// log file when Output is a path; it is a no-op for stdout and stderr.
func NewLogger(cfg LoggingConfig) (*slog.Logger, io.Closer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, WrapObservabilityError(ErrLoggerSetup, "invalid logging configuration", err)
	}

	var (
		w      io.Writer
		closer io.Closer = nopCloser{}
	)
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, WrapObservabilityError(ErrLoggerSetup, "failed to open log file", err)
		}
		w, closer = f, f
	}

	level := ParseLevel(cfg.Level)
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = NewJSONHandler(w, level)
	} else {
		handler = NewTextHandler(w, level)
	}

	return slog.New(handler), closer, nil
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// NewJSONHandler creates a JSON log handler at level.
func NewJSONHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}

// NewTextHandler creates a human-readable log handler at level.
func NewTextHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
}

// WithTraceContext returns logger annotated with the trace and span ids of
// the span in ctx, if there is a valid one.
func WithTraceContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	spanCtx := trace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return logger
	}
	return logger.With(
		slog.String("trace_id", spanCtx.TraceID().String()),
		slog.String("span_id", spanCtx.SpanID().String()),
	)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
