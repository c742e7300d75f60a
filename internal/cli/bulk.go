package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-jamfpro-fleetops/bulkops"
	"github.com/deploymenttheory/go-jamfpro-fleetops/csvbatch"
)

const (
	stateManaged   = "managed"
	stateUnmanaged = "unmanaged"
)

func newRedeployCommand(opts *rootOptions) *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:   "redeploy",
		Short: "Redeploy the Jamf management framework to every device in a CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBulk(cmd, opts, csvPath, bulkops.Redeploy())
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV file with a SerialNumber column")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}

func newManageCommand(opts *rootOptions) *cobra.Command {
	var (
		csvPath string
		state   string
		lockPIN string
	)

	cmd := &cobra.Command{
		Use:   "manage",
		Short: "Set the managed state of every device in a CSV",
		Long: `Set the managed state of every device in a CSV.

With --state unmanaged and --lock-pin, each device is locked with the six digit PIN
before it is unmanaged. A device whose lock fails keeps its managed state.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var target bool
			switch state {
			case stateManaged:
				target = true
			case stateUnmanaged:
				target = false
			default:
				return fmt.Errorf("--state must be %q or %q, got %q", stateManaged, stateUnmanaged, state)
			}
			if target && lockPIN != "" {
				return errors.New("--lock-pin only applies to --state unmanaged")
			}

			op := bulkops.SetManagedState(target, lockPIN != "", lockPIN)
			if err := op.Validate(); err != nil {
				return err
			}
			return runBulk(cmd, opts, csvPath, op)
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV file with a SerialNumber column")
	cmd.Flags().StringVar(&state, "state", "", "target state: managed or unmanaged")
	cmd.Flags().StringVar(&lockPIN, "lock-pin", "", "six digit PIN to lock devices before unmanaging")
	_ = cmd.MarkFlagRequired("csv")
	_ = cmd.MarkFlagRequired("state")
	return cmd
}

// runBulk loads the CSV and runs op over it, printing each device as it finishes.
func runBulk(cmd *cobra.Command, opts *rootOptions, csvPath string, op bulkops.Operation) error {
	items, err := csvbatch.LoadFile(csvPath)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("no devices with a serial number in %s", csvPath)
	}

	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer a.sync()

	runner := bulkops.NewRunner(a.coordinator, a.jamf, a.log,
		bulkops.WithInterItemDelay(a.cfg.MandatoryRequestDelayDuration()),
		bulkops.WithThrottleBackoff(!a.cfg.DisableThrottleBackoff),
	)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Running %s on %d devices\n", op, len(items))

	printed := 0
	summary := runner.Run(cmd.Context(), items, op, func(processed, total int) {
		for ; printed < processed; printed++ {
			printItem(out, items[printed], total)
		}
	})
	printSummary(out, summary, len(items))

	if summary.Cancelled {
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		return context.Canceled
	}
	if summary.ErrorCount > 0 {
		return errItemsFailed
	}
	return nil
}
