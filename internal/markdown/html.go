package markdown

import (
	"bytes"
	"html"

	gm "github.com/gomarkdown/markdown"
	gmhtml "github.com/gomarkdown/markdown/html"
	gmparser "github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

var htmlPolicy = newHTMLPolicy()

func newHTMLPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "pre", "span")
	policy.RequireNoFollowOnLinks(false)
	return policy
}

// ToHTML converts Markdown to sanitised HTML.
func ToHTML(md string) []byte {
	parser := gmparser.NewWithExtensions(gmparser.CommonExtensions)
	renderer := gmhtml.NewRenderer(gmhtml.RendererOptions{Flags: gmhtml.CommonFlags})
	return htmlPolicy.SanitizeBytes(gm.ToHTML([]byte(md), parser, renderer))
}

// Document wraps sanitised HTML in a minimal standalone page.
func Document(title string, body []byte) []byte {
	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</title>\n</head>\n<body>\n")
	b.Write(body)
	b.WriteString("</body>\n</html>\n")
	return b.Bytes()
}
