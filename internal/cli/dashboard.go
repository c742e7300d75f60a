package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-jamfpro-fleetops/dashboard"
	"github.com/deploymenttheory/go-jamfpro-fleetops/internal/output"
)

// maxValuesShown limits each field to its most common values.
const maxValuesShown = 10

func newDashboardCommand(opts *rootOptions) *cobra.Command {
	var watch time.Duration

	cmd := &cobra.Command{
		Use:   "dashboard SEARCH_ID",
		Short: "Summarise an advanced computer search",
		Long: `Summarise an advanced computer search: the number of computers it returns and
the most common values of each display field.

With --watch the summary is printed again every interval until interrupted. Summaries
are cached for dashboard_cache_ttl_seconds, so a short interval does not refetch.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			searchID, err := strconv.Atoi(args[0])
			if err != nil || searchID < 1 {
				return fmt.Errorf("invalid search ID %q", args[0])
			}

			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.sync()

			service := dashboard.NewService(a.coordinator, a.jamf, a.log,
				dashboard.WithCacheTTL(a.cfg.DashboardCacheTTLDuration()),
				dashboard.WithCacheSize(a.cfg.DashboardCacheSize),
			)
			service.Select(searchID)

			out := cmd.OutOrStdout()
			ctx := cmd.Context()
			for {
				summary, err := service.Summary(ctx, searchID)
				if err != nil {
					fmt.Fprintln(out, describeError(err))
					return err
				}
				if err := printDashboard(out, summary); err != nil {
					return err
				}

				if watch <= 0 {
					return nil
				}
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(watch):
				}
			}
		},
	}

	cmd.Flags().DurationVar(&watch, "watch", 0, "refresh interval, 0 prints once")
	return cmd
}

func printDashboard(out io.Writer, summary *dashboard.Summary) error {
	fmt.Fprintf(out, "%s (search %d), %d computers, as of %s\n",
		summary.Name, summary.SearchID, summary.TotalComputers, summary.GeneratedAt.Format(time.RFC3339))

	for _, field := range summary.Fields {
		fmt.Fprintf(out, "\n%s\n", field.Name)
		table := output.NewTable(out, "VALUE", "COUNT")
		for i, v := range field.Values {
			if i == maxValuesShown {
				table.AddRow("...", fmt.Sprintf("%d more", len(field.Values)-maxValuesShown))
				break
			}
			table.AddRow(v.Value, strconv.Itoa(v.Count))
		}
		if err := table.Render(); err != nil {
			return err
		}
	}
	return nil
}
