// mocklogger/mocklogger.go
package mocklogger

import (
	"errors"
	"time"

	"github.com/deploymenttheory/go-jamfpro-fleetops/logger"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockLogger is a mock type for the Logger interface.
type MockLogger struct {
	mock.Mock
	logLevel logger.LogLevel
}

// NewMockLogger creates a new instance of MockLogger at debug level.
func NewMockLogger() *MockLogger {
	return &MockLogger{logLevel: logger.LogLevelDebug}
}

// Ensure MockLogger implements the logger.Logger interface from the logger package
var _ logger.Logger = (*MockLogger)(nil)

// SetLevel sets the logging level of the MockLogger. Not recorded as a call.
func (m *MockLogger) SetLevel(level logger.LogLevel) {
	m.logLevel = level
}

// GetLogLevel returns the level set with SetLevel. Not recorded as a call.
func (m *MockLogger) GetLogLevel() logger.LogLevel {
	return m.logLevel
}

// With records the call and returns the receiver so expectations keep applying.
func (m *MockLogger) With(fields ...zap.Field) logger.Logger {
	m.Called(fields)
	return m
}

// Debug logs a message at the Debug level.
func (m *MockLogger) Debug(msg string, fields ...zap.Field) {
	m.Called(msg, fields)
}

// Info logs a message at the Info level.
func (m *MockLogger) Info(msg string, fields ...zap.Field) {
	m.Called(msg, fields)
}

// Warn logs a message at the Warn level.
func (m *MockLogger) Warn(msg string, fields ...zap.Field) {
	m.Called(msg, fields)
}

// Error records the call and returns the configured error, or one built from msg when
// the expectation has no return values.
func (m *MockLogger) Error(msg string, fields ...zap.Field) error {
	args := m.Called(msg, fields)
	if len(args) > 0 {
		return args.Error(0)
	}
	return errors.New(msg)
}

// Sync is a no-op.
func (m *MockLogger) Sync() error {
	return nil
}

// LogRequestEnd logs the end of an HTTP request.
func (m *MockLogger) LogRequestEnd(event string, method string, url string, statusCode int, duration time.Duration) {
	m.Called(event, method, url, statusCode, duration)
}

// LogError logs an error event.
func (m *MockLogger) LogError(event string, method string, url string, statusCode int, serverStatusMessage string, err error, rawResponse string) {
	m.Called(event, method, url, statusCode, serverStatusMessage, err, rawResponse)
}

// LogAuthTokenError logs a failed token acquisition.
func (m *MockLogger) LogAuthTokenError(event string, url string, statusCode int, err error) {
	m.Called(event, url, statusCode, err)
}

// LogRateLimiting logs rate limiting events.
func (m *MockLogger) LogRateLimiting(event string, retryAfter string, waitDuration time.Duration) {
	m.Called(event, retryAfter, waitDuration)
}
