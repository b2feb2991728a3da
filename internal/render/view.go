package render

import (
	"github.com/jcdickinson/apiref/internal/apimodel"
	"github.com/jcdickinson/apiref/internal/docmodel"
	"github.com/jcdickinson/apiref/internal/highlight"
)

// DocView is the rendered content of one page.
type DocView struct {
	Title       string        `json:"title"`
	Kind        apimodel.Kind `json:"kind"`
	Static      bool          `json:"static,omitempty"`
	Breadcrumbs []Breadcrumb  `json:"breadcrumbs,omitempty"`
	Deprecated  *Node         `json:"deprecated,omitempty"`
	Summary     *Node         `json:"summary,omitempty"`
	Signature   *Signature    `json:"signature,omitempty"`
	Remarks     *Node         `json:"remarks,omitempty"`
	Examples    []*Node       `json:"examples,omitempty"`
	Tables      []Table       `json:"tables"`
}

// Signature is the declaration excerpt of a page's item.
type Signature struct {
	Text   string              `json:"text"`
	Tokens [][]highlight.Token `json:"tokens,omitempty"`
}

// Breadcrumb links to an ancestor page.
type Breadcrumb struct {
	Title string `json:"title"`
	Route string `json:"route"`
}

// Table is a titled grid such as a parameter list or member listing.
type Table struct {
	SectionTitle string   `json:"sectionTitle"`
	HeaderTitles []string `json:"headerTitles"`
	Rows         []Row    `json:"rows"`
}

// Row is one table row. A nil cell is empty.
type Row struct {
	Cells []*Node `json:"cells"`
}

// PageData is everything a front-end needs to show one page.
type PageData struct {
	BaseURL      string                     `json:"baseUrl"`
	Slug         string                     `json:"slug"`
	Title        string                     `json:"title"`
	Navigation   []*docmodel.NavigationItem `json:"navigation"`
	DocViewProps *DocView                   `json:"docViewProps"`
	PackageInfo  *apimodel.PackageInfo      `json:"packageInfo,omitempty"`
}
