package apimodel

import (
	"strconv"
	"strings"
)

type memberRef struct {
	name     string
	selector string
	overload int
}

// Resolve looks up a declaration reference such as "Foo.bar",
// "Foo#bar:static" or "pkg!Foo.(constructor)". Names are resolved from the
// package entry point first and then outward from ctx through its
// ancestors. References into a different package resolve to nil.
func (m *Model) Resolve(ref string, ctx *Item) *Item {
	ref = strings.TrimSpace(ref)
	entry := m.EntryPoint()
	if ref == "" || entry == nil {
		return nil
	}

	if pkg, rest, ok := splitPackage(ref); ok {
		if pkg != "" && pkg != m.Package.Name {
			return nil
		}
		ref = rest
		ctx = nil
	}

	parts := splitMemberRef(ref)
	if len(parts) == 0 {
		return nil
	}
	if found := resolvePath(entry, parts); found != nil {
		return found
	}
	for scope := ctx; scope != nil && scope != entry && scope.Kind != KindPackage; scope = scope.Parent {
		if found := resolvePath(scope, parts); found != nil {
			return found
		}
	}
	return nil
}

func resolvePath(scope *Item, parts []memberRef) *Item {
	cur := scope
	for _, p := range parts {
		cur = findMember(cur, p)
		if cur == nil {
			return nil
		}
	}
	return cur
}

func findMember(parent *Item, ref memberRef) *Item {
	var first *Item
	for _, m := range parent.Members {
		if !matchesName(m, ref) || !matchesSelector(m, ref.selector) {
			continue
		}
		if ref.overload > 0 && m.OverloadIndex != ref.overload {
			continue
		}
		if first == nil || m.OverloadIndex < first.OverloadIndex {
			first = m
		}
	}
	return first
}

func matchesName(it *Item, ref memberRef) bool {
	switch ref.name {
	case "(constructor)", "constructor":
		if it.Kind == KindConstructor || it.Kind == KindConstructSignature {
			return true
		}
	case "(new)":
		return it.Kind == KindConstructSignature
	case "(call)":
		return it.Kind == KindCallSignature
	case "(indexer)":
		return it.Kind == KindIndexSignature
	}
	return it.Name == ref.name
}

var selectorKinds = map[string][]Kind{
	"class":       {KindClass},
	"interface":   {KindInterface},
	"enum":        {KindEnum},
	"function":    {KindFunction},
	"namespace":   {KindNamespace},
	"type":        {KindTypeAlias},
	"variable":    {KindVariable},
	"constructor": {KindConstructor, KindConstructSignature},
	"call":        {KindCallSignature},
	"index":       {KindIndexSignature},
	"new":         {KindConstructSignature},
}

func matchesSelector(it *Item, selector string) bool {
	switch selector {
	case "":
		return true
	case "member":
		return true
	case "static":
		return it.IsStatic
	case "instance":
		return !it.IsStatic
	}
	if n, err := strconv.Atoi(selector); err == nil {
		return it.OverloadIndex == n
	}
	if kinds, ok := selectorKinds[selector]; ok {
		for _, k := range kinds {
			if it.Kind == k {
				return true
			}
		}
		return false
	}
	return true
}

// splitPackage separates the "pkg!" prefix of a reference. A leading
// "pkg#" is also accepted when the part before '#' looks like an npm name.
func splitPackage(ref string) (string, string, bool) {
	if i := strings.Index(ref, "!"); i >= 0 {
		return ref[:i], ref[i+1:], true
	}
	if i := strings.Index(ref, "#"); i > 0 {
		pkg := ref[:i]
		if strings.HasPrefix(pkg, "@") || strings.ContainsAny(pkg, "/-") {
			return pkg, ref[i+1:], true
		}
	}
	return "", ref, false
}

// splitMemberRef breaks "A.B#c:static" into components, ignoring
// separators that appear inside parentheses or quotes.
func splitMemberRef(ref string) []memberRef {
	var (
		out    []memberRef
		depth  int
		quoted bool
		start  int
	)
	flush := func(end int) {
		if part := parseComponent(ref[start:end]); part.name != "" {
			out = append(out, part)
		}
	}
	for i := 0; i < len(ref); i++ {
		switch c := ref[i]; {
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0 && (c == '.' || c == '#' || c == '~'):
			flush(i)
			start = i + 1
		}
	}
	flush(len(ref))
	return out
}

func parseComponent(s string) memberRef {
	s = strings.TrimSpace(s)
	switch s {
	case "(constructor)", "(new)", "(call)", "(indexer)":
		return memberRef{name: s}
	}
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	var (
		selector string
		overload int
	)
	if i := strings.LastIndex(s, ":"); i >= 0 && !strings.HasSuffix(s, "\"") {
		selector = strings.TrimSpace(s[i+1:])
		s = strings.TrimSpace(s[:i])
		// "member(2)" style selectors carry an overload index.
		if j := strings.Index(selector, "("); j >= 0 && strings.HasSuffix(selector, ")") {
			overload, _ = strconv.Atoi(selector[j+1 : len(selector)-1])
			selector = selector[:j]
		}
	}
	if i := strings.Index(s, "("); i > 0 {
		s = strings.TrimSpace(s[:i])
	}
	s = strings.Trim(s, "\"")
	return memberRef{name: s, selector: selector, overload: overload}
}
