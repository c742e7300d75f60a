// logger.go
package logger

// Ref: https://betterstack.com/community/guides/logging/go/zap/#logging-errors-with-zap
import (
	"errors"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger interface with structured logging capabilities at various levels.
type Logger interface {
	SetLevel(level LogLevel)
	GetLogLevel() LogLevel
	Debug(msg string, fields ...zapcore.Field)
	Info(msg string, fields ...zapcore.Field)
	Warn(msg string, fields ...zapcore.Field)
	Error(msg string, fields ...zapcore.Field) error
	With(fields ...zapcore.Field) Logger
	Sync() error

	// Structured event helpers
	LogRequestEnd(event string, method string, url string, statusCode int, duration time.Duration)
	LogError(event string, method string, url string, statusCode int, serverStatusMessage string, err error, rawResponse string)
	LogAuthTokenError(event string, url string, statusCode int, err error)
	LogRateLimiting(event string, retryAfter string, waitDuration time.Duration)
}

// defaultLogger is an implementation of the Logger interface using Uber's zap logging library.
// The logLevel field filters entries before they reach zap so that the level can be
// changed at runtime without rebuilding the core.
type defaultLogger struct {
	logger   *zap.Logger
	logLevel LogLevel
}

// NewLogger wraps an existing zap.Logger.
func NewLogger(zl *zap.Logger, level LogLevel) Logger {
	return &defaultLogger{logger: zl, logLevel: level}
}

// NewNop returns a Logger that discards everything. Handy in tests.
func NewNop() Logger {
	return &defaultLogger{logger: zap.NewNop(), logLevel: LogLevelNone}
}

// SetLevel updates the logging level of the logger.
func (d *defaultLogger) SetLevel(level LogLevel) {
	d.logLevel = level
}

// GetLogLevel returns the current logging level of the logger.
func (d *defaultLogger) GetLogLevel() LogLevel {
	return d.logLevel
}

// Debug logs a message at the Debug level.
func (d *defaultLogger) Debug(msg string, fields ...zapcore.Field) {
	if d.logLevel <= LogLevelDebug {
		d.logger.Debug(msg, fields...)
	}
}

// Info logs a message at the Info level.
func (d *defaultLogger) Info(msg string, fields ...zapcore.Field) {
	if d.logLevel <= LogLevelInfo {
		d.logger.Info(msg, fields...)
	}
}

// Warn logs a message at the Warn level.
func (d *defaultLogger) Warn(msg string, fields ...zapcore.Field) {
	if d.logLevel <= LogLevelWarn {
		d.logger.Warn(msg, fields...)
	}
}

// Error logs a message at the Error level and returns it as an error, so call sites can
// write `return log.Error(...)`.
func (d *defaultLogger) Error(msg string, fields ...zapcore.Field) error {
	if d.logLevel <= LogLevelError {
		d.logger.Error(msg, fields...)
	}
	return errors.New(msg)
}

// With adds contextual fields to the logger, returning a new logger instance with the context.
func (d *defaultLogger) With(fields ...zapcore.Field) Logger {
	return &defaultLogger{
		logger:   d.logger.With(fields...),
		logLevel: d.logLevel,
	}
}

// Sync flushes any buffered log entries.
func (d *defaultLogger) Sync() error {
	return d.logger.Sync()
}
