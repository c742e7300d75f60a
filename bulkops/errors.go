// bulkops/errors.go
package bulkops

import (
	"fmt"

	"github.com/deploymenttheory/go-jamfpro-fleetops/authenticationhandler"
)

// ErrAlreadyUnmanaged is the precondition failure for lock and unmanage on a device that is
// not managed. A lock command needs a managed target.
var ErrAlreadyUnmanaged = &PreconditionError{Message: "already unmanaged, cannot lock"}

// ValidationError reports an item rejected before any network call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Title is the short heading shown to the user.
func (e *ValidationError) Title() string { return "Invalid item" }

// PreconditionError reports an item skipped before its remote call because the device state
// makes the call pointless.
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string { return e.Message }

// Title is the short heading shown to the user.
func (e *PreconditionError) Title() string { return "Precondition not met" }

// AuthFailedError marks an item that could not run because no valid token was available.
type AuthFailedError struct {
	Cause error
}

func (e *AuthFailedError) Error() string {
	if e.Cause == nil {
		return "authentication failed: token expired"
	}
	return "authentication failed: token expired (" + e.Cause.Error() + ")"
}

func (e *AuthFailedError) Unwrap() error { return e.Cause }

// Title is the short heading shown to the user.
func (e *AuthFailedError) Title() string { return "Authentication failed" }

// statusCode extracts the HTTP status of the underlying authentication failure.
func (e *AuthFailedError) statusCode() int {
	if authErr, ok := e.Cause.(*authenticationhandler.AuthenticationError); ok {
		return authErr.StatusCode
	}
	return 0
}

// LockFailedError reports a failed lock command; the managed state was left unchanged.
type LockFailedError struct {
	StatusCode int
	Cause      error
}

func (e *LockFailedError) Error() string {
	return fmt.Sprintf("lock failed (status %d), managed state unchanged: %v", e.StatusCode, e.Cause)
}

func (e *LockFailedError) Unwrap() error { return e.Cause }

// Title is the short heading shown to the user.
func (e *LockFailedError) Title() string { return "Lock failed" }
