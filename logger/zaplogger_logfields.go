// zaplogger_logfields.go
package logger

import (
	"time"

	"go.uber.org/zap"
)

// LogRequestEnd logs the completion of an HTTP request, including the HTTP method, URL, status code, and duration.
func (d *defaultLogger) LogRequestEnd(event string, method string, url string, statusCode int, duration time.Duration) {
	if d.logLevel <= LogLevelDebug {
		d.logger.Debug("HTTP request completed",
			zap.String("event", event),
			zap.String("method", method),
			zap.String("url", url),
			zap.Int("status_code", statusCode),
			zap.Duration("duration", duration),
		)
	}
}

// LogError logs an error that occurred while processing an HTTP request.
func (d *defaultLogger) LogError(event string, method string, url string, statusCode int, serverStatusMessage string, err error, rawResponse string) {
	if d.logLevel <= LogLevelError {
		errorMessage := ""
		if err != nil {
			errorMessage = err.Error()
		}
		d.logger.Error("Error during HTTP request",
			zap.String("event", event),
			zap.String("method", method),
			zap.String("url", url),
			zap.Int("status_code", statusCode),
			zap.String("status_message", serverStatusMessage),
			zap.String("error_message", errorMessage),
			zap.String("raw_response", rawResponse),
		)
	}
}

// LogAuthTokenError logs a failed token acquisition.
func (d *defaultLogger) LogAuthTokenError(event string, url string, statusCode int, err error) {
	if d.logLevel <= LogLevelError {
		d.logger.Error("Error acquiring authentication token",
			zap.String("event", event),
			zap.String("url", url),
			zap.Int("status_code", statusCode),
			zap.Error(err),
		)
	}
}

// LogRateLimiting logs when the server asked the client to slow down.
func (d *defaultLogger) LogRateLimiting(event string, retryAfter string, waitDuration time.Duration) {
	if d.logLevel <= LogLevelWarn {
		d.logger.Warn("Rate limit encountered, waiting before next request",
			zap.String("event", event),
			zap.String("retry_after", retryAfter),
			zap.Duration("wait_duration", waitDuration),
		)
	}
}
