package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/deploymenttheory/go-jamfpro-fleetops/bulkops"
)

var (
	errNotAuthenticated = errors.New("not authenticated")
	errItemsFailed      = errors.New("one or more devices failed")
)

// titled errors carry a short heading for display.
type titled interface {
	Title() string
}

// describeError renders err as "Title: message" when it carries a title.
func describeError(err error) string {
	var t titled
	if errors.As(err, &t) {
		return fmt.Sprintf("%s: %s", t.Title(), err.Error())
	}
	return err.Error()
}

func printItem(out io.Writer, item *bulkops.DeviceBatchItem, total int) {
	label := item.SerialNumber
	if item.DisplayName != "" {
		label = fmt.Sprintf("%s (%s)", item.SerialNumber, item.DisplayName)
	}

	switch item.Status {
	case bulkops.StatusCompleted:
		fmt.Fprintf(out, "[%d/%d] %s completed, computer %d\n", item.ID, total, label, *item.JamfComputerID)
	case bulkops.StatusFailed:
		message := item.ErrorMessage
		if item.Err != nil {
			message = describeError(item.Err)
		}
		if item.StatusCode != 0 {
			message = fmt.Sprintf("%s [status %d]", message, item.StatusCode)
		}
		fmt.Fprintf(out, "[%d/%d] %s failed: %s\n", item.ID, total, label, message)
	default:
		fmt.Fprintf(out, "[%d/%d] %s %s\n", item.ID, total, label, item.Status)
	}
}

func printSummary(out io.Writer, summary bulkops.BatchRunSummary, total int) {
	fmt.Fprintf(out, "\nProcessed %d of %d: %d succeeded, %d failed\n",
		summary.TotalProcessed, total, summary.SuccessCount, summary.ErrorCount)
	if summary.Cancelled {
		fmt.Fprintf(out, "Cancelled, %d devices were not processed\n", total-summary.TotalProcessed)
	}
}
