package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jcdickinson/apiref/internal/config"
	"github.com/jcdickinson/apiref/internal/daemon"
	"github.com/jcdickinson/apiref/internal/docmodel"
	"github.com/jcdickinson/apiref/internal/rpc"
)

var addCmd = &cobra.Command{
	Use:   "add [package[@version] ...]",
	Short: "Load package documentation from the registry",
	Long:  `Fetch a package's package.json, follow its docModel field, and build the page tree.`,
	Example: `  apiref add @rushstack/node-core-library
  apiref add left-pad@1.3.0 fixtures:calculator`,
	Args: cobra.MinimumNArgs(1),
	Run:  runAdd,
}

func runAdd(cmd *cobra.Command, args []string) {
	client, err := connectDaemon()
	if err != nil {
		fatal("failed to connect to daemon", err)
	}

	resp, err := client.AddPackages(context.Background(), args, func(msg string) {
		fmt.Printf("  %s\n", msg)
	})
	if err != nil {
		fatal("failed to add packages", err)
	}

	for _, r := range resp.Results {
		if r.Error != "" {
			fmt.Printf("  %s: error: %s\n", r.ID, r.Error)
		} else {
			fmt.Printf("  %s (%s@%s): %d pages, %d symbols\n", r.ID, r.Name, r.Version, r.Pages, r.Symbols)
		}
	}
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search symbol names of loaded packages",
	Example: `  apiref search Calculator
  apiref search --package fixtures:calculator add
  apiref search --limit 5 parse`,
	Args: cobra.ExactArgs(1),
	Run:  runSearch,
}

var (
	searchPackages []string
	searchLimit    int
)

func init() {
	searchCmd.Flags().StringSliceVar(&searchPackages, "package", nil, "filter to specific packages (repeatable)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "max results")
}

func runSearch(cmd *cobra.Command, args []string) {
	client, err := connectDaemon()
	if err != nil {
		fatal("failed to connect to daemon", err)
	}

	resp, err := client.Search(context.Background(), rpc.SearchRequest{
		Query:    args[0],
		Packages: searchPackages,
		Limit:    searchLimit,
	})
	if err != nil {
		fatal("search failed", err)
	}

	if len(resp.Results) == 0 {
		fmt.Println("no results")
		return
	}

	for i, r := range resp.Results {
		fmt.Printf("%d. %s (%s) in %s\n", i+1, r.Title, r.Kind, r.Package)
		fmt.Printf("   %s\n", r.Route)
	}
}

var navCmd = &cobra.Command{
	Use:     "nav <package>",
	Short:   "Print the page tree of a package",
	Example: `  apiref nav fixtures:calculator`,
	Args:    cobra.ExactArgs(1),
	Run:     runNav,
}

func runNav(cmd *cobra.Command, args []string) {
	client, err := connectDaemon()
	if err != nil {
		fatal("failed to connect to daemon", err)
	}

	resp, err := client.Navigation(context.Background(), args[0])
	if err != nil {
		fatal("navigation failed", err)
	}
	printNavigation(resp.Navigation, 0)
}

func printNavigation(items []*docmodel.NavigationItem, depth int) {
	for _, it := range items {
		var flags []string
		if it.Deprecated {
			flags = append(flags, "deprecated")
		}
		if it.Beta {
			flags = append(flags, "beta")
		}
		if it.Static {
			flags = append(flags, "static")
		}
		suffix := ""
		if len(flags) > 0 {
			suffix = " [" + strings.Join(flags, ", ") + "]"
		}
		fmt.Printf("%s%s (%s) /%s%s\n", strings.Repeat("  ", depth), it.Title, it.Kind, it.Slug, suffix)
		printNavigation(it.Children, depth+1)
	}
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <package> <reference>",
	Short: "Resolve a canonical or declaration reference to a route",
	Example: `  apiref resolve fixtures:calculator Calculator.add
  apiref resolve fixtures:calculator "@example/calculator!Color:enum"`,
	Args: cobra.ExactArgs(2),
	Run:  runResolve,
}

func runResolve(cmd *cobra.Command, args []string) {
	client, err := connectDaemon()
	if err != nil {
		fatal("failed to connect to daemon", err)
	}

	resp, err := client.Resolve(context.Background(), rpc.ResolveRequest{Package: args[0], Reference: args[1]})
	if err != nil {
		fatal("resolve failed", err)
	}
	if !resp.Found {
		fmt.Println("not found")
		return
	}
	fmt.Println(resp.Route)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show processed packages and daemon state",
	Run:   runStatus,
}

var statusJSON bool

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
}

func runStatus(cmd *cobra.Command, args []string) {
	client, err := connectDaemon()
	if err != nil {
		fatal("failed to connect to daemon", err)
	}

	resp, err := client.Status(context.Background())
	if err != nil {
		fatal("status failed", err)
	}

	if statusJSON {
		out, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(out))
		return
	}

	if len(resp.Packages) == 0 {
		fmt.Println("no packages processed")
		return
	}
	printPackages(resp.Packages)
}

func printPackages(pkgs []rpc.PackageStatus) {
	for _, p := range pkgs {
		state := "cached"
		if p.Loaded {
			state = "loaded"
		}
		fmt.Printf("  %s (%s@%s) %d pages [%s]\n", p.ID, p.Name, p.Version, p.Pages, state)
	}
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background daemon",
	Run:   runStop,
}

func runStop(cmd *cobra.Command, args []string) {
	client := daemon.NewClient(config.SocketPath())
	if !client.IsAvailable() {
		fmt.Println("daemon is not running")
		return
	}

	// The daemon exits right after responding, so a reset connection is fine.
	client.Shutdown(context.Background())
	fmt.Println("daemon stopped")
}
