// Package cli contains the jamf-fleetops commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-jamfpro-fleetops/credentialstore"
	"github.com/deploymenttheory/go-jamfpro-fleetops/version"
)

// rootOptions holds the persistent flags and the injectable dependencies of a command tree.
type rootOptions struct {
	configPath      string
	serverURL       string
	clientID        string
	logLevel        string
	preferencesPath string
	dotEnvFile      string

	// secrets defaults to the OS keyring.
	secrets credentialstore.SecretStore
}

// NewRootCommand builds the jamf-fleetops command tree backed by the OS keyring.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&rootOptions{})
}

func newRootCommand(opts *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   version.GetAppName(),
		Short: "Bulk device operations against Jamf Pro",
		Long: `jamf-fleetops runs device operations against a Jamf Pro server.

Devices are read from a CSV file with a SerialNumber column and processed one at a
time. A failing device never stops the batch.

Example usage:
  jamf-fleetops login --server-url https://example.jamfcloud.com --client-id abc --persist
  jamf-fleetops redeploy --csv devices.csv
  jamf-fleetops manage --csv devices.csv --state unmanaged --lock-pin 123456
  jamf-fleetops search "MacBook Air"
  jamf-fleetops dashboard 42`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.GetVersion(),
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "JSON configuration file")
	flags.StringVar(&opts.serverURL, "server-url", "", "Jamf Pro server URL")
	flags.StringVar(&opts.clientID, "client-id", "", "Jamf Pro API client ID")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError)")
	flags.StringVar(&opts.preferencesPath, "preferences", "", "preferences file (default is the user config directory)")
	flags.StringVar(&opts.dotEnvFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	_ = flags.MarkHidden("preferences")

	rootCmd.AddCommand(
		newLoginCommand(opts),
		newLogoutCommand(opts),
		newRedeployCommand(opts),
		newManageCommand(opts),
		newSearchCommand(opts),
		newDashboardCommand(opts),
	)

	return rootCmd
}
