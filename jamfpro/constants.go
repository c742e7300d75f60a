package jamfpro

import "time"

// Endpoint constants for the Jamf Pro classic API (/JSSResource) and Jamf Pro API (/api).
const (
	APIName = "jamf pro"

	ComputersEndpoint               = "/JSSResource/computers"
	ComputerBySerialEndpoint        = "/JSSResource/computers/serialnumber/%s"
	ComputerByIDEndpoint            = "/JSSResource/computers/id/%d"
	DeviceLockCommandEndpoint       = "/JSSResource/computercommands/command/DeviceLock/passcode/%s/id/%d"
	AdvancedComputerSearchEndpoint  = "/JSSResource/advancedcomputersearches/id/%d"
	RedeployManagementFrameworkPath = "/api/v1/jamf-management-framework/redeploy/%d"

	DefaultRequestTimeout = 30 * time.Second
	MinRequestTimeout     = 15 * time.Second
	MaxRequestTimeout     = 30 * time.Second

	// PINLength is the number of digits in a DeviceLock passcode.
	PINLength = 6
)
