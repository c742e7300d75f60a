// jamfpro/errors.go
package jamfpro

import (
	"fmt"

	"github.com/deploymenttheory/go-jamfpro-fleetops/status"
)

// TransportError reports a request that produced no HTTP response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s failed (status 0): %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Title is the short heading shown to the user.
func (e *TransportError) Title() string { return "Connection failed" }

// NotFoundError reports a serial number with no matching computer.
type NotFoundError struct {
	SerialNumber string
	StatusCode   int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("computer with serial %q not found (status %d)", e.SerialNumber, e.StatusCode)
}

// Title is the short heading shown to the user.
func (e *NotFoundError) Title() string { return "Computer not found" }

// StatusError reports a non-success response from Jamf Pro.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	message := e.Message
	if message == "" {
		message = status.TranslateStatusCode(e.StatusCode)
	}
	return fmt.Sprintf("%s failed (status %d): %s", e.Op, e.StatusCode, message)
}

// Title is the short heading shown to the user.
func (e *StatusError) Title() string {
	if status.IsAuthenticationFailure(e.StatusCode) {
		return "Not authorized"
	}
	return "Request failed"
}

// InvalidPINError reports a lock passcode that is not six digits.
type InvalidPINError struct{}

func (e *InvalidPINError) Error() string {
	return fmt.Sprintf("lock PIN must be exactly %d digits", PINLength)
}

// Title is the short heading shown to the user.
func (e *InvalidPINError) Title() string { return "Invalid PIN" }
