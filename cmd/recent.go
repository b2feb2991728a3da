package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var recentCmd = &cobra.Command{
	Use:     "recent",
	Short:   "List the most recently processed packages",
	Example: `  apiref recent`,
	Args:    cobra.NoArgs,
	Run:     runRecent,
}

func runRecent(cmd *cobra.Command, args []string) {
	client, err := connectDaemon()
	if err != nil {
		fatal("failed to connect to daemon", err)
	}

	resp, err := client.Recent(context.Background())
	if err != nil {
		fatal("listing recent packages failed", err)
	}

	if len(resp.Packages) == 0 {
		fmt.Println("no packages processed")
		return
	}
	for _, p := range resp.Packages {
		fmt.Printf("  %s  %s\n", p.ProcessedAt.Local().Format("2006-01-02 15:04"), p.ID)
	}
}
