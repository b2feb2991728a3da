// Package render turns doc-model pages into markup-independent views with
// every cross-reference resolved to a route.
package render

import (
	"fmt"
	"strings"

	"github.com/jcdickinson/apiref/internal/apimodel"
	"github.com/jcdickinson/apiref/internal/docmodel"
	"github.com/jcdickinson/apiref/internal/highlight"
	"github.com/jcdickinson/apiref/internal/tsdoc"
)

// Renderer renders pages of a single site. It holds no per-page state and
// may be shared between goroutines.
type Renderer struct {
	site        *docmodel.Site
	highlighter highlight.Highlighter
	language    string
	diag        Diagnostics
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithHighlighter annotates code with tokens from h. language is used for
// signatures, initialisers and fences without an info string.
func WithHighlighter(h highlight.Highlighter, language string) Option {
	return func(r *Renderer) {
		r.highlighter = h
		if language != "" {
			r.language = language
		}
	}
}

// WithDiagnostics sends render diagnostics to d.
func WithDiagnostics(d Diagnostics) Option {
	return func(r *Renderer) {
		if d != nil {
			r.diag = d
		}
	}
}

func New(site *docmodel.Site, opts ...Option) *Renderer {
	r := &Renderer{site: site, language: "typescript", diag: discard{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// pageContext carries what a single page render needs.
type pageContext struct {
	*Renderer
	page *docmodel.Page
}

// PageData renders a page together with the package-level data around it.
func (r *Renderer) PageData(page *docmodel.Page) *PageData {
	info := r.site.Info
	data := &PageData{
		BaseURL:      r.site.Links.Prefix(),
		Slug:         page.Slug,
		Title:        page.PageTitle,
		Navigation:   r.site.Navigation(),
		DocViewProps: r.RenderPage(page),
	}
	if info.Name != "" {
		data.PackageInfo = &info
	}
	return data
}

// RenderPage renders the content of one page.
func (r *Renderer) RenderPage(page *docmodel.Page) *DocView {
	c := &pageContext{Renderer: r, page: page}
	item := page.Item

	view := &DocView{
		Title:  page.PageTitle,
		Kind:   item.Kind,
		Static: item.Static(),
		Tables: []Table{},
	}
	for _, anc := range r.site.Pages.Breadcrumbs(page) {
		view.Breadcrumbs = append(view.Breadcrumbs, Breadcrumb{
			Title: anc.NavigationTitle,
			Route: r.site.Links.PageRoute(anc),
		})
	}

	owner := item
	if item.Kind == apimodel.KindEntryPoint && item.Parent != nil {
		owner = item.Parent
	}
	if owner.Has(apimodel.CapDocumented) && owner.Comment != nil {
		comment := owner.Comment
		view.Summary = c.renderComment(comment.Summary)
		if comment.Deprecated != nil {
			view.Deprecated = c.renderComment(comment.Deprecated)
		}
		if comment.Remarks != nil {
			view.Remarks = c.renderComment(comment.Remarks)
		}
		for _, ex := range comment.Examples() {
			if rendered := c.renderComment(ex); rendered != nil {
				view.Examples = append(view.Examples, rendered)
			}
		}
	}

	if item.Has(apimodel.CapDeclared) {
		if code := item.ExcerptWithModifiers(); strings.TrimSpace(code) != "" {
			view.Signature = &Signature{Text: code, Tokens: c.highlight(code, r.language)}
		}
	}

	view.Tables = append(view.Tables, c.tables(item)...)
	return view
}

// renderComment renders one comment AST node. Unrecognised node kinds are
// reported and skipped.
func (c *pageContext) renderComment(n *tsdoc.Node) *Node {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case tsdoc.KindSection:
		return &Node{Kind: KindSection, Nodes: c.renderChildren(n)}
	case tsdoc.KindParagraph:
		return &Node{Kind: KindParagraph, Nodes: c.renderChildren(n)}
	case tsdoc.KindPlainText:
		return plainText(n.Text)
	case tsdoc.KindSoftBreak:
		return &Node{Kind: KindSoftBreak}
	case tsdoc.KindLinkTag:
		return c.renderLinkTag(n)
	case tsdoc.KindCodeSpan:
		return &Node{Kind: KindCodeSpan, Text: n.Text}
	case tsdoc.KindFencedCode:
		lang := n.Language
		if lang == "" {
			lang = c.language
		}
		return &Node{Kind: KindFencedCode, Language: n.Language, Code: c.renderCode(n.Text, lang)}
	}
	c.report(DiagUnknownNode, fmt.Sprintf("unhandled comment node kind %s", n.Kind))
	return nil
}

func (c *pageContext) renderChildren(n *tsdoc.Node) []*Node {
	var out []*Node
	for _, child := range n.Children {
		if rendered := c.renderComment(child); rendered != nil {
			out = append(out, rendered)
		}
	}
	return out
}

func (c *pageContext) renderLinkTag(n *tsdoc.Node) *Node {
	switch {
	case n.CodeDestination != "":
		target := c.site.Model.Resolve(n.CodeDestination, c.page.Item)
		if target == nil {
			c.report(DiagUnresolvedReference, fmt.Sprintf("cannot resolve %q", n.CodeDestination))
			return plainText(firstNonEmpty(n.LinkText, n.CodeDestination))
		}
		text := firstNonEmpty(n.LinkText, target.ScopedName(), n.CodeDestination)
		if to, ok := c.site.Links.LinkTo(target); ok {
			return &Node{Kind: KindRouteLink, To: to, Text: text}
		}
		return plainText(text)
	case n.URLDestination != "":
		return &Node{Kind: KindLinkTag, URL: n.URLDestination, Text: firstNonEmpty(n.LinkText, n.URLDestination)}
	case n.LinkText != "":
		return plainText(n.LinkText)
	}
	return nil
}

// renderExcerpt links every reference token that has a route.
func (c *pageContext) renderExcerpt(e apimodel.Excerpt) *Node {
	nodes := make([]*Node, 0, len(e.Tokens))
	for _, tok := range e.Tokens {
		nodes = append(nodes, c.linkOrText(tok.CanonicalReference, tok.Text))
	}
	return span(nodes...)
}

func (c *pageContext) linkOrText(ref, text string) *Node {
	if to, ok := c.site.Links.LinkToReference(ref); ok {
		return &Node{Kind: KindRouteLink, To: to, Text: text}
	}
	return plainText(text)
}

func (c *pageContext) renderCode(code, language string) *Node {
	return &Node{Kind: KindCodeSpan, Text: code, Tokens: c.highlight(code, language)}
}

func (c *pageContext) highlight(code, language string) [][]highlight.Token {
	if c.highlighter == nil {
		return nil
	}
	lines, err := c.highlighter.Highlight(code, language)
	if err != nil {
		c.report(DiagHighlightFailed, err.Error())
		return nil
	}
	return lines
}

func (c *pageContext) report(kind, msg string) {
	c.diag.Report(Diagnostic{Kind: kind, Package: c.site.ID, Page: c.page.Slug, Message: msg})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
