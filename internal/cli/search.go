package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/deploymenttheory/go-jamfpro-fleetops/concurrency"
	"github.com/deploymenttheory/go-jamfpro-fleetops/internal/output"
	"github.com/deploymenttheory/go-jamfpro-fleetops/inventory"
)

func newSearchCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY",
		Short: "Search the computer inventory",
		Long: `Search computers by name, serial number, username, model, OS version or IP
address. Matching ignores case.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.sync()

			handler := concurrency.NewHandler(a.cfg.SearchConcurrency, a.log, nil)
			searcher := inventory.NewSearcher(a.coordinator, a.jamf, handler, a.log,
				inventory.WithBatchSize(a.cfg.SearchBatchSize),
			)

			stderr := cmd.ErrOrStderr()
			matches, searchErr := searcher.Search(cmd.Context(), strings.Join(args, " "), func(fraction float64) {
				fmt.Fprintf(stderr, "\rSearching... %3.0f%%", fraction*100)
			})
			fmt.Fprintln(stderr)

			metrics := handler.Metrics.Snapshot()
			a.log.Debug("Inventory search metrics",
				zap.Int64("requests", metrics.TotalRequests),
				zap.Int64("errors", metrics.TotalErrors),
				zap.Duration("permit_wait", metrics.PermitWaitTime),
				zap.Duration("average_response_time", metrics.AverageResponseTime),
				zap.Duration("max_response_time", metrics.MaxResponseTime),
			)

			if err := printMatches(cmd.OutOrStdout(), matches); err != nil {
				return err
			}
			if searchErr != nil {
				fmt.Fprintln(cmd.OutOrStdout(), describeError(searchErr))
			}
			return searchErr
		},
	}
}

func printMatches(out io.Writer, matches []inventory.ComputerMatch) error {
	if len(matches) == 0 {
		fmt.Fprintln(out, "No matching computers")
		return nil
	}

	table := output.NewTable(out, "ID", "NAME", "SERIAL", "USER", "MODEL", "OS", "IP", "MANAGED")
	for _, m := range matches {
		table.AddRow(strconv.Itoa(m.ID), m.Name, m.SerialNumber, m.Username, m.Model, m.OSVersion, m.IPAddress, strconv.FormatBool(m.Managed))
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d computers\n", len(matches))
	return nil
}
