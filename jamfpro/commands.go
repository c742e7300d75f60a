// jamfpro/commands.go
package jamfpro

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/deploymenttheory/go-jamfpro-fleetops/headers"
	"github.com/deploymenttheory/go-jamfpro-fleetops/headers/redact"
)

// RedeployAgent queues a reinstall of the Jamf management framework. 200, 201 and 202 all
// mean the command was accepted.
func (c *Client) RedeployAgent(ctx context.Context, serverURL, token string, computerID int) OperationResult {
	result := c.execute(ctx, serverURL, token, request{
		op:       "redeploy",
		method:   http.MethodPost,
		endpoint: fmt.Sprintf(RedeployManagementFrameworkPath, computerID),
		accept:   headers.ContentTypeJSON,
	}, http.StatusOK, http.StatusCreated, http.StatusAccepted)

	if result.Success {
		result.ComputerID = &computerID
	}
	return result
}

// LockWithPIN sends a DeviceLock command with a six digit passcode. An invalid PIN fails
// without a network call.
func (c *Client) LockWithPIN(ctx context.Context, serverURL, token string, computerID int, pin string) OperationResult {
	if err := ValidatePIN(pin); err != nil {
		return failure(0, err)
	}

	result := c.execute(ctx, serverURL, token, request{
		op:          "device lock",
		method:      http.MethodPost,
		endpoint:    fmt.Sprintf(DeviceLockCommandEndpoint, url.PathEscape(pin), computerID),
		accept:      headers.ContentTypeXML,
		contentType: headers.ContentTypeXML,
		logEndpoint: fmt.Sprintf(DeviceLockCommandEndpoint,
			redact.RedactSensitiveHeaderData(c.hideSensitiveData, "Passcode", pin), computerID),
	}, http.StatusOK, http.StatusCreated)

	if result.Success {
		result.ComputerID = &computerID
	}
	return result
}

// ValidatePIN checks that pin is exactly six ASCII digits.
func ValidatePIN(pin string) error {
	if len(pin) != PINLength {
		return &InvalidPINError{}
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return &InvalidPINError{}
		}
	}
	return nil
}
