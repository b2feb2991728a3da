package render

import (
	"strings"

	"github.com/jcdickinson/apiref/internal/highlight"
)

// NodeKind tags a rendered node.
type NodeKind string

const (
	KindPlainText    NodeKind = "PlainText"
	KindParagraph    NodeKind = "Paragraph"
	KindSection      NodeKind = "Section"
	KindSpan         NodeKind = "Span"
	KindNowrap       NodeKind = "Nowrap"
	KindCodeSpan     NodeKind = "CodeSpan"
	KindFencedCode   NodeKind = "FencedCode"
	KindSoftBreak    NodeKind = "SoftBreak"
	KindLinkTag      NodeKind = "LinkTag"
	KindRouteLink    NodeKind = "RouteLink"
	KindEmphasisSpan NodeKind = "EmphasisSpan"
)

// Node is rendered rich content, independent of any output markup.
//
// PlainText, CodeSpan, LinkTag and RouteLink carry Text. Paragraph, Section,
// Span, Nowrap and EmphasisSpan carry Nodes. LinkTag carries URL, RouteLink
// carries To. CodeSpan may carry highlighted Tokens. FencedCode wraps a
// CodeSpan in Code.
type Node struct {
	Kind     NodeKind            `json:"kind"`
	Text     string              `json:"text,omitempty"`
	Nodes    []*Node             `json:"nodes,omitempty"`
	URL      string              `json:"url,omitempty"`
	To       string              `json:"to,omitempty"`
	Bold     bool                `json:"bold,omitempty"`
	Italic   bool                `json:"italic,omitempty"`
	Language string              `json:"language,omitempty"`
	Tokens   [][]highlight.Token `json:"tokens,omitempty"`
	Code     *Node               `json:"code,omitempty"`
}

func plainText(s string) *Node {
	return &Node{Kind: KindPlainText, Text: s}
}

func span(nodes ...*Node) *Node {
	return &Node{Kind: KindSpan, Nodes: nodes}
}

// PlainString flattens the node to its visible text.
func (n *Node) PlainString() string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case KindSoftBreak:
		return " "
	case KindFencedCode:
		return n.Code.PlainString()
	}
	if len(n.Nodes) == 0 {
		return n.Text
	}
	var b strings.Builder
	for _, c := range n.Nodes {
		b.WriteString(c.PlainString())
	}
	return b.String()
}
