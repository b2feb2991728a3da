package rpc

import (
	"time"

	"github.com/jcdickinson/apiref/internal/docmodel"
	"github.com/jcdickinson/apiref/internal/render"
)

// Page body formats.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// AddPackagesRequest is the request body for POST /add-packages.
type AddPackagesRequest struct {
	Packages []string `json:"packages"`
}

// AddPackagesResponse collects the result lines of POST /add-packages.
type AddPackagesResponse struct {
	Results []PackageResult `json:"results"`
}

type PackageResult struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
	Pages   int    `json:"pages"`
	Symbols int    `json:"symbols"`
	Error   string `json:"error,omitempty"`
}

// ProgressLine is a single line of NDJSON streamed from the add-packages endpoint.
type ProgressLine struct {
	Type    string         `json:"type"` // "progress" or "result"
	Message string         `json:"message,omitempty"`
	Result  *PackageResult `json:"result,omitempty"`
}

// GetPageRequest is the request body for POST /get-page.
type GetPageRequest struct {
	Package string `json:"package"`
	Path    string `json:"path"`
	Format  string `json:"format,omitempty"`
}

// GetPageResponse carries the page data plus the requested serialisation.
type GetPageResponse struct {
	Page     *render.PageData `json:"page"`
	Markdown string           `json:"markdown,omitempty"`
	HTML     string           `json:"html,omitempty"`
}

// NavigationRequest is the request body for POST /navigation.
type NavigationRequest struct {
	Package string `json:"package"`
}

type NavigationResponse struct {
	Navigation []*docmodel.NavigationItem `json:"navigation"`
}

// ResolveRequest is the request body for POST /resolve. Reference is a
// canonical reference or a declaration reference.
type ResolveRequest struct {
	Package   string `json:"package"`
	Reference string `json:"reference"`
}

type ResolveResponse struct {
	Route string `json:"route,omitempty"`
	Found bool   `json:"found"`
}

// SearchRequest is the request body for POST /search.
type SearchRequest struct {
	Query    string   `json:"query"`
	Packages []string `json:"packages,omitempty"`
	Limit    int      `json:"limit,omitempty"`
}

type SearchResponse struct {
	Results []SymbolResult `json:"results"`
}

type SymbolResult struct {
	Package            string `json:"package"`
	CanonicalReference string `json:"canonical_reference"`
	Route              string `json:"route"`
	Title              string `json:"title"`
	Kind               string `json:"kind"`
}

type PackageStatus struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	Homepage    string    `json:"homepage,omitempty"`
	Pages       int       `json:"pages"`
	ProcessedAt time.Time `json:"processed_at"`
	Loaded      bool      `json:"loaded"`
}

// RecentResponse is the response body for GET /recent.
type RecentResponse struct {
	Packages []PackageStatus `json:"packages"`
}

// StatusResponse is the response body for GET /status.
type StatusResponse struct {
	Packages []PackageStatus `json:"packages"`
	Loaded   []string        `json:"loaded"`
}

// ErrorResponse is the body of every non-2xx daemon response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
