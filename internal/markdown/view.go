// Package markdown serialises rendered pages to Markdown and converts
// Markdown to sanitised HTML or styled terminal output.
package markdown

import (
	"strings"

	"github.com/jcdickinson/apiref/internal/render"
)

var escaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"`", "\\`",
	"<", `\<`,
)

// View serialises a rendered page as GitHub-flavoured Markdown.
func View(v *render.DocView) string {
	var parts []string

	if len(v.Breadcrumbs) > 0 {
		crumbs := make([]string, len(v.Breadcrumbs))
		for i, c := range v.Breadcrumbs {
			crumbs[i] = link(escaper.Replace(c.Title), c.Route)
		}
		parts = append(parts, strings.Join(crumbs, " / "))
	}

	title := "# " + escaper.Replace(v.Title)
	if v.Kind.String() != "" {
		title += " (" + v.Kind.String() + ")"
	}
	parts = append(parts, title)

	if v.Deprecated != nil {
		if text := block(v.Deprecated); text != "" {
			parts = append(parts, quote("**Deprecated:** "+text))
		}
	}
	if text := block(v.Summary); text != "" {
		parts = append(parts, text)
	}
	if v.Signature != nil {
		parts = append(parts, fence(v.Signature.Text, "ts"))
	}
	if text := block(v.Remarks); text != "" {
		parts = append(parts, "## Remarks", text)
	}
	if len(v.Examples) > 0 {
		parts = append(parts, "## Examples")
		for _, ex := range v.Examples {
			if text := block(ex); text != "" {
				parts = append(parts, text)
			}
		}
	}
	for _, t := range v.Tables {
		parts = append(parts, "## "+t.SectionTitle, table(t))
	}
	return strings.Join(parts, "\n\n") + "\n"
}

// block renders block-level content, one paragraph or fence per chunk.
func block(n *render.Node) string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case render.KindSection:
		var chunks []string
		for _, c := range n.Nodes {
			if text := block(c); text != "" {
				chunks = append(chunks, text)
			}
		}
		return strings.Join(chunks, "\n\n")
	case render.KindFencedCode:
		return fence(n.Code.Text, n.Language)
	}
	return strings.TrimSpace(inline(n, false))
}

// inline renders inline content. Inside tables soft breaks become spaces
// and pipes are escaped.
func inline(n *render.Node, inTable bool) string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case render.KindPlainText:
		return escapeText(n.Text, inTable)
	case render.KindSoftBreak:
		if inTable {
			return " "
		}
		return "\n"
	case render.KindCodeSpan:
		return codeSpan(n.Text, inTable)
	case render.KindFencedCode:
		if inTable {
			return codeSpan(n.Code.Text, true)
		}
		return "\n" + fence(n.Code.Text, n.Language) + "\n"
	case render.KindLinkTag:
		return link(escapeText(n.Text, inTable), n.URL)
	case render.KindRouteLink:
		return link(escapeText(n.Text, inTable), n.To)
	case render.KindEmphasisSpan:
		inner := children(n, inTable)
		if inner == "" {
			return ""
		}
		if n.Bold {
			inner = "**" + inner + "**"
		}
		if n.Italic {
			inner = "_" + inner + "_"
		}
		return inner
	case render.KindParagraph:
		if inTable {
			return children(n, true) + " "
		}
		return children(n, false) + "\n\n"
	}
	return children(n, inTable)
}

func children(n *render.Node, inTable bool) string {
	var b strings.Builder
	for _, c := range n.Nodes {
		b.WriteString(inline(c, inTable))
	}
	return b.String()
}

func table(t render.Table) string {
	var b strings.Builder
	row := func(cells []string) {
		b.WriteString("|")
		for _, c := range cells {
			b.WriteString(" ")
			b.WriteString(c)
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}

	headers := make([]string, len(t.HeaderTitles))
	rule := make([]string, len(t.HeaderTitles))
	for i, h := range t.HeaderTitles {
		headers[i] = escapeText(h, true)
		rule[i] = "---"
	}
	row(headers)
	row(rule)
	for _, r := range t.Rows {
		cells := make([]string, len(t.HeaderTitles))
		for i := range cells {
			if i < len(r.Cells) {
				cells[i] = strings.TrimSpace(inline(r.Cells[i], true))
			}
		}
		row(cells)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func escapeText(s string, inTable bool) string {
	s = escaper.Replace(s)
	if inTable {
		s = strings.ReplaceAll(s, "|", `\|`)
	}
	return s
}

func link(text, dest string) string {
	if text == "" {
		text = dest
	}
	return "[" + text + "](" + strings.ReplaceAll(dest, " ", "%20") + ")"
}

func codeSpan(code string, inTable bool) string {
	if code == "" {
		return ""
	}
	if inTable {
		code = strings.ReplaceAll(strings.ReplaceAll(code, "\n", " "), "|", `\|`)
	}
	ticks := "`"
	for strings.Contains(code, ticks) {
		ticks += "`"
	}
	if strings.HasPrefix(code, "`") || strings.HasSuffix(code, "`") {
		return ticks + " " + code + " " + ticks
	}
	return ticks + code + ticks
}

func fence(code, language string) string {
	marker := "```"
	for strings.Contains(code, marker) {
		marker += "`"
	}
	return marker + language + "\n" + strings.TrimSuffix(code, "\n") + "\n" + marker
}

func quote(s string) string {
	return "> " + strings.ReplaceAll(s, "\n", "\n> ")
}
