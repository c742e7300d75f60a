// zaplogger_log_levels.go
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the level of logging. Higher values denote more severe log messages.
type LogLevel int

const (
	// LogLevelDebug is for messages that are useful during software debugging.
	LogLevelDebug LogLevel = -1
	// LogLevelInfo is for informational messages, indicating normal operation.
	LogLevelInfo LogLevel = 0
	// LogLevelWarn is for messages that highlight potential issues in the system.
	LogLevelWarn LogLevel = 1
	// LogLevelError is for messages that highlight errors in the application's execution.
	LogLevelError LogLevel = 2
	// LogLevelDPanic is for severe error conditions that are actionable in development.
	LogLevelDPanic LogLevel = 3
	// LogLevelPanic is for severe error conditions that should cause the program to panic.
	LogLevelPanic LogLevel = 4
	// LogLevelFatal is for errors that require immediate program termination.
	LogLevelFatal LogLevel = 5
	// LogLevelNone silences the logger.
	LogLevelNone LogLevel = 6
)

// ParseLogLevelFromString takes a string representation of the log level and returns the corresponding LogLevel.
// Used to convert a string log level from a configuration file to a strongly-typed LogLevel.
func ParseLogLevelFromString(levelStr string) LogLevel {
	switch levelStr {
	case "LogLevelDebug":
		return LogLevelDebug
	case "LogLevelInfo":
		return LogLevelInfo
	case "LogLevelWarn":
		return LogLevelWarn
	case "LogLevelError":
		return LogLevelError
	case "LogLevelDPanic":
		return LogLevelDPanic
	case "LogLevelPanic":
		return LogLevelPanic
	case "LogLevelFatal":
		return LogLevelFatal
	default:
		return LogLevelNone
	}
}

// ValidLogLevels lists the accepted configuration strings.
var ValidLogLevels = []string{
	"LogLevelDebug",
	"LogLevelInfo",
	"LogLevelWarn",
	"LogLevelError",
	"LogLevelDPanic",
	"LogLevelPanic",
	"LogLevelFatal",
	"LogLevelNone",
}

// convertToZapLevel converts the custom LogLevel to a zapcore.Level
func convertToZapLevel(level LogLevel) zapcore.Level {
	switch level {
	case LogLevelDebug:
		return zap.DebugLevel
	case LogLevelInfo:
		return zap.InfoLevel
	case LogLevelWarn:
		return zap.WarnLevel
	case LogLevelError:
		return zap.ErrorLevel
	case LogLevelDPanic:
		return zap.DPanicLevel
	case LogLevelPanic:
		return zap.PanicLevel
	case LogLevelFatal, LogLevelNone:
		return zap.FatalLevel
	default:
		return zap.InfoLevel
	}
}
