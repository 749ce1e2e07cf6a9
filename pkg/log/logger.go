package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// SetupLogger configures the process-default slog logger with a JSON handler
// and stacktrace extraction for cockroachdb/errors values.
func SetupLogger(loglevel string) {
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     ToLogLevel(loglevel),
	}
	handler := slog.NewJSONHandler(os.Stdout, &ops)
	errFmtHandler := WrapByErrFmtHandler(handler)
	slog.SetDefault(slog.New(errFmtHandler))
}

// ToLogLevel converts a level name to a slog.Level.
func ToLogLevel(level string) slog.Level {
	switch level {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		panic(fmt.Sprintf("invalid log level :%s", level))
	}
}

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

// SlogLogger adapts a *slog.Logger to the Logger interface.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger returns a Logger backed by the process-default slog logger.
func NewSlogLogger() *SlogLogger {
	return &SlogLogger{logger: slog.Default()}
}

// NewSlogLoggerWith returns a Logger backed by the given slog logger.
func NewSlogLoggerWith(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: logger}
}

// Debug implements Logger.Debug.
func (s *SlogLogger) Debug(msg string, fields ...any) {
	s.logger.Debug(msg, fields...)
}

// Info implements Logger.Info.
func (s *SlogLogger) Info(msg string, fields ...any) {
	s.logger.Info(msg, fields...)
}

// Warn implements Logger.Warn.
func (s *SlogLogger) Warn(msg string, fields ...any) {
	s.logger.Warn(msg, fields...)
}

// Error implements Logger.Error.
func (s *SlogLogger) Error(msg string, fields ...any) {
	s.logger.Error(msg, fields...)
}

// With implements Logger.With.
func (s *SlogLogger) With(fields ...any) Logger {
	return &SlogLogger{logger: s.logger.With(fields...)}
}

// Enabled implements Logger.Enabled.
func (s *SlogLogger) Enabled(ctx context.Context, level Level) bool {
	return s.logger.Enabled(ctx, slog.Level(level))
}
