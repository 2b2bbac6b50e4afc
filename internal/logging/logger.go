package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

var logger = zerolog.Nop()

// Init configures the process-wide logger. Development gets a human readable
// console writer on stderr, everything else gets JSON lines.
func Init(environment string) {
	zerolog.TimeFieldFormat = time.RFC3339

	if environment == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			Level(zerolog.InfoLevel).
			With().
			Timestamp().
			Logger()
		return
	}

	logger = New(os.Stderr)
}

// New returns a JSON logger writing to w. Tests use it to capture output.
func New(w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		With().
		Timestamp().
		Logger()
}

// SetLogger replaces the process logger and returns a func restoring the
// previous one.
func SetLogger(l zerolog.Logger) func() {
	prev := logger
	logger = l
	return func() {
		logger = prev
	}
}

func Logger() *zerolog.Logger {
	return &logger
}

func WithContext(ctx context.Context) zerolog.Logger {
	return Enrich(ctx, logger)
}

// Enrich attaches the trace and span ids found in ctx to l.
func Enrich(ctx context.Context, l zerolog.Logger) zerolog.Logger {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return l
	}

	return l.With().
		Str("traceId", span.SpanContext().TraceID().String()).
		Str("spanId", span.SpanContext().SpanID().String()).
		Logger()
}
