package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ContextKey is the type for context keys used by the logger
type ContextKey string

const (
	// LoggerKey is the context key for the request-scoped logger
	LoggerKey ContextKey = "logger"
)

// Config holds logger configuration
type Config struct {
	Level  zerolog.Level
	Format string // "text" or "json"
	Output io.Writer
}

// DefaultConfig returns sensible defaults for logging
func DefaultConfig() Config {
	return Config{
		Level:  zerolog.InfoLevel,
		Format: "text",
		Output: os.Stdout,
	}
}

// New creates a structured logger. Text output goes through a console writer,
// json output is plain zerolog.
func New(config Config) zerolog.Logger {
	out := config.Output
	if out == nil {
		out = os.Stdout
	}
	if !strings.EqualFold(config.Format, "json") {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}
	return zerolog.New(out).Level(config.Level).With().Timestamp().Logger()
}

// NewWithWriter creates a JSON logger that writes every level to w
func NewWithWriter(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

// Discard returns a logger that drops everything
func Discard() zerolog.Logger {
	return zerolog.Nop()
}

// ParseLevel maps LOG_LEVEL values to zerolog levels
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	}
	return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", s)
}

// WithComponent tags every record of the returned logger with a component name
func WithComponent(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str(FieldComponent, component).Logger()
}

// WithContext adds the logger to the context
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from the context or returns fallback
func FromContext(ctx context.Context, fallback zerolog.Logger) zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return fallback
}

// WithFields adds structured fields to a logger
func WithFields(logger zerolog.Logger, fields map[string]any) zerolog.Logger {
	ctx := logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return ctx.Logger()
}
