// version.go
package version

import "fmt"

// AppName holds the name of the application
var AppName = "jamf-fleetops"

// Version holds the current version of the application. Overridden at build time with
// -ldflags "-X github.com/deploymenttheory/go-jamfpro-fleetops/version.Version=x.y.z".
var Version = "0.3.1"

// GetAppName returns the name of the application
func GetAppName() string {
	return AppName
}

// GetVersion returns the current version of the application
func GetVersion() string {
	return Version
}

// GetUserAgentHeader returns the User-Agent sent with every Jamf Pro request.
func GetUserAgentHeader() string {
	return fmt.Sprintf("%s/%s", AppName, Version)
}
