// Command jamf-fleetops runs bulk device operations against a Jamf Pro server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/deploymenttheory/go-jamfpro-fleetops/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}
