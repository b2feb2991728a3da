package markdown

import (
	"strings"

	gm "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	gmparser "github.com/gomarkdown/markdown/parser"
)

// RewriteLinks rewrites link destinations through rewrite. It parses the
// markdown to find the real link destinations, then performs targeted
// string replacements so the rest of the text keeps its formatting.
func RewriteLinks(src string, rewrite func(dest string) (string, bool)) string {
	if rewrite == nil {
		return src
	}

	doc := gm.Parse([]byte(src), gmparser.NewWithExtensions(gmparser.CommonExtensions))

	replaced := make(map[string]string)
	var order []string
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		if link, ok := node.(*ast.Link); ok {
			dest := string(link.Destination)
			if _, done := replaced[dest]; done {
				return ast.GoToNext
			}
			if next, ok := rewrite(dest); ok && next != dest {
				replaced[dest] = next
				order = append(order, dest)
			}
		}
		return ast.GoToNext
	})
	if len(order) == 0 {
		return src
	}

	pairs := make([]string, 0, len(order)*4)
	for _, dest := range order {
		pairs = append(pairs,
			"]("+dest+")", "]("+replaced[dest]+")",
			"]: "+dest+"\n", "]: "+replaced[dest]+"\n",
		)
	}
	out := strings.NewReplacer(pairs...).Replace(src + "\n")
	return strings.TrimSuffix(out, "\n")
}

// PrefixRewriter maps destinations starting with from onto to.
func PrefixRewriter(from, to string) func(string) (string, bool) {
	return func(dest string) (string, bool) {
		if !strings.HasPrefix(dest, from) {
			return "", false
		}
		return to + strings.TrimPrefix(dest, from), true
	}
}

// Field is one front-matter entry.
type Field struct {
	Key   string
	Value string
}

// AddFrontMatter prepends a YAML front-matter block. Fields with empty
// values are left out.
func AddFrontMatter(src string, fields ...Field) string {
	var b strings.Builder
	for _, f := range fields {
		if f.Value == "" {
			continue
		}
		b.WriteString(f.Key)
		b.WriteString(": ")
		b.WriteString(yamlScalar(f.Value))
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return src
	}
	return "---\n" + b.String() + "---\n\n" + src
}

func yamlScalar(s string) string {
	if strings.ContainsAny(s, ":#{}[],&*!|>'\"%@`") || strings.TrimSpace(s) != s {
		return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
	}
	return s
}
