package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jcdickinson/apiref/internal/config"
	"github.com/jcdickinson/apiref/internal/daemon"
)

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Drop loaded packages, cached doc models and the package catalogue",
	Run:   runClearCache,
}

func runClearCache(cmd *cobra.Command, args []string) {
	client := daemon.NewClient(config.SocketPath())
	if !client.IsAvailable() {
		fmt.Println("daemon is not running")
		return
	}

	if err := client.ClearCache(context.Background()); err != nil {
		fatal("failed to clear cache", err)
	}
	fmt.Println("cache cleared")
}
