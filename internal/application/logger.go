package application

import (
	"io"
	"log/slog"

	"linear-mcp-server/internal/domain"
)

// StructuredLogger provides structured logging with context fields.
// It always writes to a diagnostic stream, never to the protocol stream.
type StructuredLogger struct {
	logger *slog.Logger
}

// NewStructuredLogger wraps an slog.Logger. A nil logger means slog.Default().
func NewStructuredLogger(logger *slog.Logger) *StructuredLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &StructuredLogger{logger: logger}
}

// NewSlogLogger builds the process logger from the logging configuration.
func NewSlogLogger(w io.Writer, config domain.LoggingConfig) (*slog.Logger, error) {
	level, err := config.SlogLevel()
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	if config.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// Slog returns the underlying logger.
func (l *StructuredLogger) Slog() *slog.Logger {
	return l.logger
}

// LogDebug logs a debug message with context.
func (l *StructuredLogger) LogDebug(message string, fields map[string]any) {
	l.logger.Debug(message, attrs(fields)...)
}

// LogInfo logs an informational message with context.
func (l *StructuredLogger) LogInfo(message string, fields map[string]any) {
	l.logger.Info(message, attrs(fields)...)
}

// LogError logs an error message with context.
func (l *StructuredLogger) LogError(message string, err error, fields map[string]any) {
	args := attrs(fields)
	if err != nil {
		args = append(args, slog.String("error", err.Error()))
	}
	l.logger.Error(message, args...)
}

func attrs(fields map[string]any) []any {
	args := make([]any, 0, len(fields))
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	return args
}
