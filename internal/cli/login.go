package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newLoginCommand(opts *rootOptions) *cobra.Command {
	var (
		persist     bool
		secretStdin bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the Jamf Pro API client credentials",
		Long: `Exchange the API client credentials for a token to check they work.

The client secret is read from JAMF_CLIENT_SECRET, the config file, the OS keychain or,
with --client-secret-stdin, the first line of standard input. With --persist the server
URL and client ID are saved to the preferences file and the secret to the keychain.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.sync()

			creds := a.coordinator.Credentials()
			if secretStdin {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("reading client secret: %w", err)
				}
				creds.ClientSecret = strings.TrimSpace(line)
			}
			if persist {
				creds.Persist = true
			}
			a.coordinator.UpdateCredentials(creds)

			out := cmd.OutOrStdout()
			if !a.coordinator.Authenticate(cmd.Context()) {
				err := a.coordinator.LastError()
				if err == nil {
					err = errNotAuthenticated
				}
				fmt.Fprintln(out, describeError(err))
				return err
			}

			fmt.Fprintf(out, "Authenticated to %s as %s\n", creds.ServerURL, creds.ClientID)
			if creds.Persist {
				fmt.Fprintln(out, "Credentials saved")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&persist, "persist", false, "save the credentials for later runs")
	cmd.Flags().BoolVar(&secretStdin, "client-secret-stdin", false, "read the client secret from standard input")
	return cmd
}

func newLogoutCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored client secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.sync()

			clientID := a.coordinator.Credentials().ClientID
			if clientID == "" {
				return errors.New("no client ID configured")
			}
			if err := a.coordinator.Logout(); err != nil {
				return fmt.Errorf("removing stored credentials: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged out, stored secret for %s removed\n", clientID)
			return nil
		},
	}
}
