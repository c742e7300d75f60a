// zaplogger_config.go
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/deploymenttheory/go-jamfpro-fleetops/version"
)

const (
	LogOutputJSON    = "json"
	LogOutputConsole = "console"
)

// BuildLogger creates and returns a new zap backed Logger writing to stderr, so that
// command output on stdout stays machine readable. The application and version fields are
// attached to every entry and moved to the end of the line by customCore.
func BuildLogger(logLevel LogLevel, encoding string, logConsoleSeparator string) Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.RFC3339TimeEncoder
	encoderCfg.EncodeDuration = zapcore.StringDurationEncoder
	encoderCfg.MessageKey = "msg"
	encoderCfg.LevelKey = "level"

	if encoding == LogOutputConsole {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderCfg.ConsoleSeparator = logConsoleSeparator
	} else {
		encoding = LogOutputJSON
	}

	config := zap.Config{
		Level:             zap.NewAtomicLevelAt(convertToZapLevel(logLevel)),
		Development:       false,
		Encoding:          encoding,
		DisableCaller:     true,
		DisableStacktrace: true,
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
		InitialFields: map[string]interface{}{
			"application": version.GetAppName(),
			"version":     version.GetVersion(),
		},
	}

	zl := zap.Must(config.Build())
	wrapped := zap.New(&customCore{zl.Core()})

	return &defaultLogger{
		logger:   wrapped,
		logLevel: logLevel,
	}
}
