package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jcdickinson/apiref/internal/markdown"
	"github.com/jcdickinson/apiref/internal/rpc"
)

//go:embed instructions.md
var instructions string

const resourceScheme = "apiref://"

// Backend is the daemon API the MCP tools call. *daemon.Client implements it.
type Backend interface {
	AddPackages(ctx context.Context, ids []string, onProgress func(string)) (*rpc.AddPackagesResponse, error)
	GetPage(ctx context.Context, req rpc.GetPageRequest) (*rpc.GetPageResponse, error)
	Navigation(ctx context.Context, pkg string) (*rpc.NavigationResponse, error)
	Resolve(ctx context.Context, req rpc.ResolveRequest) (*rpc.ResolveResponse, error)
	Search(ctx context.Context, req rpc.SearchRequest) (*rpc.SearchResponse, error)
}

type Server struct {
	mcpServer *server.MCPServer
	backend   Backend
}

func NewServer(backend Backend, version string) *Server {
	s := &Server{backend: backend}

	mcpServer := server.NewMCPServer(
		"apiref",
		version,
		server.WithInstructions(instructions),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("add_packages",
			mcp.WithDescription("Load the API documentation of npm packages that publish a docModel. Returns page and symbol counts per package."),
			mcp.WithArray("packages",
				mcp.Description("Package identifiers, e.g. \"@rushstack/node-core-library\" or \"left-pad@1.3.0\""),
				mcp.Items(map[string]any{"type": "string"}),
				mcp.Required(),
			),
		),
		s.handleAddPackages,
	)

	mcpServer.AddTool(
		mcp.NewTool("get_page",
			mcp.WithDescription("Read one documentation page as markdown. An empty path reads the package's root page."),
			mcp.WithString("package",
				mcp.Description("Package identifier"),
				mcp.Required(),
			),
			mcp.WithString("path",
				mcp.Description("Page slug, e.g. \"Calculator.add\""),
			),
		),
		s.handleGetPage,
	)

	mcpServer.AddTool(
		mcp.NewTool("get_navigation",
			mcp.WithDescription("List the page tree of a package."),
			mcp.WithString("package",
				mcp.Description("Package identifier"),
				mcp.Required(),
			),
		),
		s.handleNavigation,
	)

	mcpServer.AddTool(
		mcp.NewTool("resolve_reference",
			mcp.WithDescription("Resolve a canonical reference or declaration reference (\"Calculator.add\") to a resource URI."),
			mcp.WithString("package",
				mcp.Description("Package identifier"),
				mcp.Required(),
			),
			mcp.WithString("reference",
				mcp.Description("Reference to resolve"),
				mcp.Required(),
			),
		),
		s.handleResolve,
	)

	mcpServer.AddTool(
		mcp.NewTool("search_symbols",
			mcp.WithDescription("Search symbol names across loaded packages. Results carry resource URIs."),
			mcp.WithString("query",
				mcp.Description("Symbol name or fragment"),
				mcp.Required(),
			),
			mcp.WithArray("packages",
				mcp.Description("Optional list of package identifiers to search within"),
				mcp.Items(map[string]any{"type": "string"}),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of results (default 20)"),
			),
		),
		s.handleSearch,
	)
}

func (s *Server) registerResources(mcpServer *server.MCPServer) {
	mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			resourceScheme+"{package}/{path}",
			"API reference page",
			mcp.WithTemplateDescription("Read an API reference page as markdown. Search and resolve results return these URIs."),
			mcp.WithTemplateMIMEType("text/markdown"),
		),
		s.handleReadResource,
	)
}

// toURI rewrites a /package/ route into a resource URI.
var toURI = markdown.PrefixRewriter("/package/", resourceScheme)

func routeURI(route string) string {
	if uri, ok := toURI(route); ok {
		return uri
	}
	return route
}

func stringList(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, v := range raw {
		if str, ok := v.(string); ok && strings.TrimSpace(str) != "" {
			out = append(out, strings.TrimSpace(str))
		}
	}
	return out
}

func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

func (s *Server) handleAddPackages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := stringList(req.GetArguments(), "packages")
	if len(ids) == 0 {
		return mcp.NewToolResultError("missing required parameter: packages"), nil
	}

	resp, err := s.backend.AddPackages(ctx, ids, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add packages: %v", err)), nil
	}
	return jsonResult(resp.Results), nil
}

// pageMarkdown fetches a page and points its links at resource URIs.
func (s *Server) pageMarkdown(ctx context.Context, pkg, path string) (string, error) {
	resp, err := s.backend.GetPage(ctx, rpc.GetPageRequest{Package: pkg, Path: path, Format: rpc.FormatMarkdown})
	if err != nil {
		return "", err
	}
	return markdown.RewriteLinks(resp.Markdown, toURI), nil
}

func (s *Server) handleGetPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pkg, err := req.RequireString("package")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	md, err := s.pageMarkdown(ctx, pkg, req.GetString("path", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("getting page: %v", err)), nil
	}
	return mcp.NewToolResultText(md), nil
}

func (s *Server) handleNavigation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pkg, err := req.RequireString("package")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp, err := s.backend.Navigation(ctx, pkg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("getting navigation: %v", err)), nil
	}
	return jsonResult(resp.Navigation), nil
}

func (s *Server) handleResolve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pkg, err := req.RequireString("package")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ref, err := req.RequireString("reference")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp, err := s.backend.Resolve(ctx, rpc.ResolveRequest{Package: pkg, Reference: ref})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("resolving reference: %v", err)), nil
	}
	if !resp.Found {
		return mcp.NewToolResultError(fmt.Sprintf("%q does not resolve to a documented item", ref)), nil
	}
	return mcp.NewToolResultText(routeURI(resp.Route)), nil
}

type searchHit struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
	Kind  string `json:"kind"`
}

func (s *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	searchReq := rpc.SearchRequest{
		Query:    query,
		Packages: stringList(req.GetArguments(), "packages"),
		Limit:    req.GetInt("limit", 0),
	}

	resp, err := s.backend.Search(ctx, searchReq)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	hits := make([]searchHit, 0, len(resp.Results))
	for _, r := range resp.Results {
		hits = append(hits, searchHit{URI: routeURI(r.Route), Title: r.Title, Kind: r.Kind})
	}
	return jsonResult(hits), nil
}

// parseURI splits an apiref:// URI into package and page path. The
// fragment is dropped: anchors address a section of the page.
func parseURI(uri string) (pkg, path string, err error) {
	if !strings.HasPrefix(uri, resourceScheme) {
		return "", "", fmt.Errorf("invalid resource URI: %s", uri)
	}
	rest, _, _ := strings.Cut(strings.TrimPrefix(uri, resourceScheme), "#")
	return rpc.ParsePackagePath(rest)
}

func (s *Server) handleReadResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	pkg, path, err := parseURI(uri)
	if err != nil {
		return nil, err
	}

	md, err := s.pageMarkdown(ctx, pkg, path)
	if err != nil {
		return nil, fmt.Errorf("getting page: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/markdown",
			Text:     md,
		},
	}, nil
}

func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}
