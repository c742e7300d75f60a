// authenticationhandler/errors.go
package authenticationhandler

import (
	"fmt"
	"strings"

	"github.com/deploymenttheory/go-jamfpro-fleetops/status"
)

// ValidationError reports input that was rejected before any network call.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "incomplete credentials: missing " + strings.Join(e.Missing, ", ")
}

// Title is the short heading shown to the user.
func (e *ValidationError) Title() string {
	return "Settings incomplete"
}

// AuthenticationError reports a failed token exchange. StatusCode is 0 when no HTTP
// response was received.
type AuthenticationError struct {
	StatusCode int
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed (status %d): %s", e.StatusCode, status.TranslateStatusCode(e.StatusCode))
}

// Title is the short heading shown to the user.
func (e *AuthenticationError) Title() string {
	return "Authentication failed"
}
