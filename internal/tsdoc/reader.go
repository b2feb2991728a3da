package tsdoc

import (
	"regexp"
	"strconv"
	"strings"

	gm "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	gmparser "github.com/gomarkdown/markdown/parser"
)

const (
	TagRemarks    = "@remarks"
	TagExample    = "@example"
	TagReturns    = "@returns"
	TagParam      = "@param"
	TagTypeParam  = "@typeParam"
	TagDeprecated = "@deprecated"

	TagBeta          = "@beta"
	TagAlpha         = "@alpha"
	TagPublic        = "@public"
	TagInternal      = "@internal"
	TagEventProperty = "@eventProperty"
)

var modifierTags = map[string]bool{
	TagBeta:                 true,
	TagAlpha:                true,
	TagPublic:               true,
	TagInternal:             true,
	TagEventProperty:        true,
	"@experimental":         true,
	"@override":             true,
	"@packageDocumentation": true,
	"@readonly":             true,
	"@sealed":               true,
	"@virtual":              true,
}

var (
	blockTagRe  = regexp.MustCompile(`^@[A-Za-z][A-Za-z0-9]*$`)
	inlineTagRe = regexp.MustCompile(`^\{@([A-Za-z][A-Za-z0-9]*)(?:\s+([^}]*))?\}`)
	ruleLineRe  = regexp.MustCompile(`^[ \t]*([-=_*][ \t]*)+$`)
	markRe      = regexp.MustCompile("\uE000([0-9]+)\uE001")
	urlSchemeRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)
)

type rawBlock struct {
	tag   string
	name  string
	lines []string
}

// Parse reads a raw /** ... */ doc comment. An empty input yields a comment
// with an empty summary.
func Parse(raw string) *Comment {
	c := &Comment{Modifiers: map[string]bool{}}

	blocks := []*rawBlock{{}}
	cur := blocks[0]
	inFence := false

	for _, line := range commentLines(raw) {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			cur.lines = append(cur.lines, trimmed)
			continue
		}
		if inFence {
			cur.lines = append(cur.lines, line)
			continue
		}

		fields := strings.Fields(trimmed)
		for len(fields) > 0 && modifierTags[fields[0]] {
			c.Modifiers[fields[0]] = true
			trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, fields[0]))
			fields = fields[1:]
		}
		if len(fields) == 0 {
			if trimmed == "" && len(strings.TrimSpace(line)) == 0 {
				cur.lines = append(cur.lines, "")
			}
			continue
		}

		if blockTagRe.MatchString(fields[0]) {
			cur = &rawBlock{tag: fields[0]}
			rest := strings.TrimSpace(strings.TrimPrefix(trimmed, fields[0]))
			if cur.tag == TagParam || cur.tag == TagTypeParam {
				cur.name, rest = splitParamName(rest)
			}
			if rest != "" {
				cur.lines = append(cur.lines, rest)
			}
			blocks = append(blocks, cur)
			continue
		}
		cur.lines = append(cur.lines, trimmed)
	}

	for _, b := range blocks {
		content := parseContent(strings.Join(b.lines, "\n"))
		switch b.tag {
		case "":
			c.Summary = content
		case TagRemarks:
			c.Remarks = content
		case TagReturns:
			c.Returns = content
		case TagDeprecated:
			c.Deprecated = content
		case TagParam:
			c.Params = append(c.Params, ParamBlock{Name: b.name, Content: content})
		case TagTypeParam:
			c.TypeParams = append(c.TypeParams, ParamBlock{Name: b.name, Content: content})
		default:
			c.CustomBlocks = append(c.CustomBlocks, Block{Tag: b.tag, Content: content})
		}
	}
	return c
}

// commentLines strips the comment delimiters and the leading "* " of each line.
func commentLines(raw string) []string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "/**")
	s = strings.TrimSuffix(s, "*/")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		line = strings.TrimLeft(line, " \t")
		if strings.HasPrefix(line, "*") {
			line = strings.TrimPrefix(line, "*")
			line = strings.TrimPrefix(line, " ")
		}
		lines[i] = line
	}
	return lines
}

// splitParamName splits "name - description" (or "{type} name description").
func splitParamName(s string) (string, string) {
	if strings.HasPrefix(s, "{") {
		if end := strings.Index(s, "}"); end >= 0 {
			s = strings.TrimSpace(s[end+1:])
		}
	}
	name, rest, _ := strings.Cut(s, " ")
	name = strings.TrimSuffix(name, "-")
	rest = strings.TrimSpace(rest)
	rest = strings.TrimSpace(strings.TrimPrefix(rest, "-"))
	return name, rest
}

// escapable is the punctuation a backslash makes literal.
const escapable = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// contentReader turns block text into nodes. Inline tags, backslash
// escapes and line-start markdown markers are swapped for private-use
// placeholders before the markdown parse, so the parser never interprets
// them, and swapped back while converting text runs.
type contentReader struct {
	marks []mark
}

// mark is a protected span: either a node (an inline tag) or literal text.
type mark struct {
	node *Node
	text string
	raw  string
}

func (r *contentReader) placeholder(m mark) string {
	r.marks = append(r.marks, m)
	return "\uE000" + strconv.Itoa(len(r.marks)-1) + "\uE001"
}

func (r *contentReader) literal(s string) string {
	return r.placeholder(mark{text: s, raw: s})
}

func parseContent(src string) *Node {
	section := &Node{Kind: KindSection}
	if strings.TrimSpace(src) == "" {
		return section
	}
	r := &contentReader{}
	doc := gm.Parse([]byte(r.protect(src)), gmparser.NewWithExtensions(
		gmparser.NoIntraEmphasis|gmparser.FencedCode|gmparser.Strikethrough|gmparser.SpaceHeadings,
	))
	for _, child := range doc.GetChildren() {
		section.Children = append(section.Children, r.convertBlock(child)...)
	}
	return section
}

func (r *contentReader) protect(src string) string {
	lines := strings.Split(src, "\n")
	inFence := false
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		lines[i] = r.protectLine(line)
	}
	return strings.Join(lines, "\n")
}

func (r *contentReader) protectLine(line string) string {
	var b strings.Builder
	indent := len(line) - len(strings.TrimLeft(line, " \t"))
	b.WriteString(line[:indent])
	rest := line[indent:]

	// Comments have no headings or rules: keep the marker as text.
	if strings.HasPrefix(rest, "#") || ruleLineRe.MatchString(rest) {
		b.WriteString(r.literal(rest[:1]))
		rest = rest[1:]
	}

	for i := 0; i < len(rest); {
		c := rest[i]
		switch {
		case c == '`':
			n := len(rest[i:]) - len(strings.TrimLeft(rest[i:], "`"))
			ticks := rest[i : i+n]
			if end := strings.Index(rest[i+n:], ticks); end >= 0 {
				stop := i + n + end + n
				b.WriteString(rest[i:stop])
				i = stop
				continue
			}
			b.WriteString(ticks)
			i += n
		case c == '\\' && i+1 < len(rest) && strings.IndexByte(escapable, rest[i+1]) >= 0:
			b.WriteString(r.literal(rest[i+1 : i+2]))
			i += 2
		case c == '{':
			m := inlineTagRe.FindStringSubmatch(rest[i:])
			if m == nil {
				b.WriteByte(c)
				i++
				continue
			}
			b.WriteString(r.placeholder(mark{node: inlineTag(m[0], m[1], m[2]), raw: m[0]}))
			i += len(m[0])
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// restore puts the source text of every placeholder back.
func (r *contentReader) restore(s string) string {
	if !strings.ContainsRune(s, '\uE000') {
		return s
	}
	return markRe.ReplaceAllStringFunc(s, func(m string) string {
		if mk, ok := r.lookup(m); ok {
			if mk.node != nil {
				return mk.raw
			}
			return mk.text
		}
		return m
	})
}

func (r *contentReader) lookup(placeholder string) (mark, bool) {
	sub := markRe.FindStringSubmatch(placeholder)
	if sub == nil {
		return mark{}, false
	}
	i, err := strconv.Atoi(sub[1])
	if err != nil || i >= len(r.marks) {
		return mark{}, false
	}
	return r.marks[i], true
}

func (r *contentReader) convertBlock(n ast.Node) []*Node {
	switch v := n.(type) {
	case *ast.Paragraph:
		return []*Node{{Kind: KindParagraph, Children: r.convertInlines(v.Children)}}
	case *ast.Heading:
		return []*Node{{Kind: KindParagraph, Children: r.convertInlines(v.Children)}}
	case *ast.CodeBlock:
		return []*Node{{
			Kind:     KindFencedCode,
			Text:     strings.TrimSuffix(r.restore(string(v.Literal)), "\n"),
			Language: strings.TrimSpace(string(v.Info)),
		}}
	case *ast.HTMLBlock:
		return []*Node{htmlNode(r.restore(string(v.Literal)))}
	}

	if c := n.AsContainer(); c != nil {
		var out []*Node
		for _, child := range c.Children {
			out = append(out, r.convertBlock(child)...)
		}
		return out
	}
	if l := n.AsLeaf(); l != nil && len(l.Literal) > 0 {
		return []*Node{{Kind: KindParagraph, Children: r.splitText(string(l.Literal))}}
	}
	return nil
}

func (r *contentReader) convertInlines(children []ast.Node) []*Node {
	var out []*Node
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			out = append(out, r.splitText(text.String())...)
			text.Reset()
		}
	}

	for _, child := range children {
		switch v := child.(type) {
		case *ast.Text:
			text.Write(v.Literal)
			continue
		}
		flush()
		switch v := child.(type) {
		case *ast.Code:
			out = append(out, &Node{Kind: KindCodeSpan, Text: r.restore(string(v.Literal))})
		case *ast.Softbreak, *ast.Hardbreak:
			out = append(out, &Node{Kind: KindSoftBreak})
		case *ast.Emph:
			out = append(out, r.convertInlines(v.Children)...)
		case *ast.Strong:
			out = append(out, r.convertInlines(v.Children)...)
		case *ast.Del:
			out = append(out, r.convertInlines(v.Children)...)
		case *ast.Link:
			out = append(out, &Node{
				Kind:           KindLinkTag,
				URLDestination: r.restore(string(v.Destination)),
				LinkText:       r.restore(literalText(v)),
			})
		case *ast.Image:
			if alt := r.restore(literalText(v)); alt != "" {
				out = append(out, &Node{Kind: KindPlainText, Text: alt})
			}
		case *ast.HTMLSpan:
			out = append(out, htmlNode(r.restore(string(v.Literal))))
		default:
			if c := child.AsContainer(); c != nil {
				out = append(out, r.convertInlines(c.Children)...)
			} else if l := child.AsLeaf(); l != nil && len(l.Literal) > 0 {
				text.Write(l.Literal)
			}
		}
	}
	flush()
	return out
}

func htmlNode(raw string) *Node {
	kind := KindHTMLStartTag
	if strings.HasPrefix(strings.TrimSpace(raw), "</") {
		kind = KindHTMLEndTag
	}
	return &Node{Kind: kind, Text: raw}
}

// literalText concatenates the text leaves below n.
func literalText(n ast.Node) string {
	var b strings.Builder
	ast.WalkFunc(n, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Literal)
		case *ast.Code:
			b.Write(v.Literal)
		}
		return ast.GoToNext
	})
	return b.String()
}

// splitText turns a run of text into PlainText and SoftBreak nodes, with
// the protected inline tags in place.
func (r *contentReader) splitText(s string) []*Node {
	var out []*Node
	var text strings.Builder
	last := 0
	for _, loc := range markRe.FindAllStringIndex(s, -1) {
		text.WriteString(s[last:loc[0]])
		last = loc[1]
		mk, ok := r.lookup(s[loc[0]:loc[1]])
		switch {
		case !ok:
			text.WriteString(s[loc[0]:loc[1]])
		case mk.node == nil:
			text.WriteString(mk.text)
		default:
			out = append(out, textRuns(text.String())...)
			text.Reset()
			out = append(out, mk.node)
		}
	}
	text.WriteString(s[last:])
	return append(out, textRuns(text.String())...)
}

func textRuns(s string) []*Node {
	var out []*Node
	parts := strings.Split(s, "\n")
	for i, part := range parts {
		if i > 0 {
			part = strings.TrimLeft(part, " \t")
		}
		if i < len(parts)-1 {
			part = strings.TrimRight(part, " \t")
		}
		if part != "" {
			out = append(out, &Node{Kind: KindPlainText, Text: part})
		}
		if i < len(parts)-1 {
			out = append(out, &Node{Kind: KindSoftBreak})
		}
	}
	return out
}

func inlineTag(raw, tag, body string) *Node {
	if tag == "link" {
		return linkTag(body)
	}
	return &Node{Kind: KindInlineTag, TagName: "@" + tag, Text: raw}
}

func linkTag(body string) *Node {
	dest, text, _ := strings.Cut(body, "|")
	dest = strings.TrimSpace(dest)
	n := &Node{Kind: KindLinkTag, LinkText: strings.TrimSpace(text)}
	if urlSchemeRe.MatchString(dest) {
		n.URLDestination = dest
	} else {
		n.CodeDestination = dest
	}
	return n
}
