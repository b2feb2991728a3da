package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jcdickinson/apiref/internal/markdown"
	"github.com/jcdickinson/apiref/internal/rpc"
)

var getCmd = &cobra.Command{
	Use:   "get <package>[/<path>]",
	Short: "Read a documentation page",
	Example: `  apiref get fixtures:calculator
  apiref get fixtures:calculator/Calculator.add
  apiref get apiref://@rushstack/node-core-library/FileSystem --raw`,
	Args: cobra.ExactArgs(1),
	Run:  runGet,
}

var (
	getRaw   bool
	getHTML  bool
	getJSON  bool
	getWidth int
)

func init() {
	getCmd.Flags().BoolVar(&getRaw, "raw", false, "print markdown without terminal styling")
	getCmd.Flags().BoolVar(&getHTML, "html", false, "print the page as an HTML document")
	getCmd.Flags().BoolVar(&getJSON, "json", false, "print the page data as JSON")
	getCmd.Flags().IntVar(&getWidth, "width", 100, "wrap width for styled output")
	getCmd.MarkFlagsMutuallyExclusive("raw", "html", "json")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) {
	target := strings.TrimPrefix(args[0], "apiref://")
	target, _, _ = strings.Cut(target, "#")
	pkg, path, err := rpc.ParsePackagePath(target)
	if err != nil {
		fatal("invalid page", err)
	}

	format := rpc.FormatMarkdown
	switch {
	case getHTML:
		format = rpc.FormatHTML
	case getJSON:
		format = rpc.FormatJSON
	}

	client, err := connectDaemon()
	if err != nil {
		fatal("failed to connect to daemon", err)
	}

	resp, err := client.GetPage(context.Background(), rpc.GetPageRequest{Package: pkg, Path: path, Format: format})
	if err != nil {
		fatal("get page failed", err)
	}

	switch {
	case getHTML:
		fmt.Print(resp.HTML)
	case getJSON:
		out, _ := json.MarshalIndent(resp.Page, "", "  ")
		fmt.Println(string(out))
	case getRaw:
		fmt.Print(resp.Markdown)
	default:
		out, err := markdown.Terminal(resp.Markdown, getWidth)
		if err != nil {
			fatal("rendering page", err)
		}
		fmt.Print(out)
	}
}
