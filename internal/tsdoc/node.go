package tsdoc

// NodeKind tags a comment AST node.
type NodeKind string

const (
	KindSection    NodeKind = "Section"
	KindParagraph  NodeKind = "Paragraph"
	KindPlainText  NodeKind = "PlainText"
	KindSoftBreak  NodeKind = "SoftBreak"
	KindLinkTag    NodeKind = "LinkTag"
	KindCodeSpan   NodeKind = "CodeSpan"
	KindFencedCode NodeKind = "FencedCode"

	// The reader also emits these for content it keeps but that has no
	// rendering of its own.
	KindInlineTag    NodeKind = "InlineTag"
	KindHTMLStartTag NodeKind = "HtmlStartTag"
	KindHTMLEndTag   NodeKind = "HtmlEndTag"
)

// Node is a single comment AST node. Which fields are meaningful depends on Kind:
// Text holds plain text, code span code, fenced code, or the raw source of an
// unrecognized construct; Language is set on FencedCode; the destination and
// LinkText fields are set on LinkTag.
type Node struct {
	Kind     NodeKind
	Children []*Node

	Text     string
	Language string

	CodeDestination string
	URLDestination  string
	LinkText        string

	TagName string
}

// FirstParagraph returns the first Paragraph child of a Section, or nil.
func (n *Node) FirstParagraph() *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Kind == KindParagraph {
			return c
		}
	}
	return nil
}

// IsEmpty reports whether the node has no content worth rendering.
func (n *Node) IsEmpty() bool {
	if n == nil {
		return true
	}
	switch n.Kind {
	case KindSection, KindParagraph:
		for _, c := range n.Children {
			if !c.IsEmpty() {
				return false
			}
		}
		return true
	case KindSoftBreak:
		return true
	case KindPlainText:
		return n.Text == ""
	}
	return false
}

// Block is a tagged block such as @example or @throws.
type Block struct {
	Tag     string
	Content *Node
}

// ParamBlock documents a single parameter or type parameter.
type ParamBlock struct {
	Name    string
	Content *Node
}

// Comment is a parsed doc comment.
type Comment struct {
	Summary      *Node
	Remarks      *Node
	Returns      *Node
	Deprecated   *Node
	Params       []ParamBlock
	TypeParams   []ParamBlock
	CustomBlocks []Block
	Modifiers    map[string]bool
}

// Param returns the content of the @param block for name, or nil.
func (c *Comment) Param(name string) *Node {
	if c == nil {
		return nil
	}
	for _, p := range c.Params {
		if p.Name == name {
			return p.Content
		}
	}
	return nil
}

// HasModifier reports whether a modifier tag such as @beta was present.
func (c *Comment) HasModifier(tag string) bool {
	return c != nil && c.Modifiers[tag]
}

// Examples returns the content of every @example block in source order.
func (c *Comment) Examples() []*Node {
	if c == nil {
		return nil
	}
	var out []*Node
	for _, b := range c.CustomBlocks {
		if b.Tag == TagExample {
			out = append(out, b.Content)
		}
	}
	return out
}
