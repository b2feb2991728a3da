package apimodel

import (
	"strconv"
	"strings"

	"github.com/jcdickinson/apiref/internal/tsdoc"
)

// Item is a single node of the API item tree.
type Item struct {
	Kind               Kind
	Name               string
	CanonicalReference string
	Comment            *tsdoc.Comment
	ReleaseTag         ReleaseTag
	FileURLPath        string

	IsOptional    bool
	IsStatic      bool
	IsProtected   bool
	IsReadonly    bool
	IsAbstract    bool
	OverloadIndex int

	Tokens       []ExcerptToken
	Parameters   []Parameter
	ReturnType   Excerpt
	PropertyType Excerpt
	Initializer  Excerpt

	Members []*Item
	Parent  *Item
}

// PackageInfo describes the npm package a doc model was published with.
type PackageInfo struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Homepage string `json:"homepage,omitempty"`
}

// Model is a loaded doc model rooted at a single package.
type Model struct {
	Package *Item
}

// EntryPoint returns the first entry point of the package, or nil.
func (m *Model) EntryPoint() *Item {
	if m == nil || m.Package == nil {
		return nil
	}
	for _, member := range m.Package.Members {
		if member.Kind == KindEntryPoint {
			return member
		}
	}
	return nil
}

// Has reports whether the item's kind carries capability c.
func (it *Item) Has(c Capability) bool {
	return it.Kind.Capabilities()&c == c
}

// DisplayName is the short human label of the item.
func (it *Item) DisplayName() string {
	switch it.Kind {
	case KindConstructor:
		return "(constructor)"
	case KindConstructSignature:
		return "(new)"
	case KindCallSignature:
		return "(call)"
	case KindIndexSignature:
		return "(indexer)"
	}
	return it.Name
}

// ScopedName joins the display names below the entry point with dots.
func (it *Item) ScopedName() string {
	var parts []string
	for cur := it; cur != nil; cur = cur.Parent {
		if cur.Kind == KindPackage || cur.Kind == KindEntryPoint {
			break
		}
		parts = append(parts, cur.DisplayName())
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

// SortKey orders siblings within their container. Unlike the canonical
// reference it groups overloads and static members next to each other.
func (it *Item) SortKey() string {
	kind := it.Kind.String()
	overload := strconv.Itoa(it.OverloadIndex)
	switch it.Kind {
	case KindConstructor, KindConstructSignature, KindCallSignature, KindIndexSignature:
		return "|" + kind + "|" + overload
	case KindMethod:
		return it.Name + "|" + staticOrInstance(it.IsStatic) + "|" + kind + "|" + overload
	case KindProperty:
		return it.Name + "|" + staticOrInstance(it.IsStatic) + "|" + kind
	case KindFunction, KindMethodSignature:
		return it.Name + "|" + kind + "|" + overload
	}
	return it.Name + "|" + kind
}

func staticOrInstance(static bool) string {
	if static {
		return "static"
	}
	return "instance"
}

// Optional reports whether the item is an optional member.
func (it *Item) Optional() bool {
	return it.Has(CapOptional) && it.IsOptional
}

// Static reports whether the item is a static class member.
func (it *Item) Static() bool {
	return it.Has(CapStatic) && it.IsStatic
}

// Beta reports whether the item is tagged @beta.
func (it *Item) Beta() bool {
	return it.Has(CapReleaseTag) && it.ReleaseTag == ReleaseBeta
}

// Deprecated reports whether the item's comment has a @deprecated block.
func (it *Item) Deprecated() bool {
	return it.Has(CapDocumented) && it.Comment != nil && it.Comment.Deprecated != nil
}

// EventProperty reports whether the property is tagged @eventProperty.
func (it *Item) EventProperty() bool {
	return (it.Kind == KindProperty || it.Kind == KindPropertySignature) &&
		it.Comment != nil && it.Comment.HasModifier(tsdoc.TagEventProperty)
}

// Excerpt returns the full declaration excerpt.
func (it *Item) Excerpt() Excerpt {
	return Excerpt{Tokens: it.Tokens}
}

// ExcerptWithModifiers prefixes the declaration with the protected,
// readonly and static modifiers the excerpt itself omits.
func (it *Item) ExcerptWithModifiers() string {
	text := it.Excerpt().Text()
	if text == "" {
		return ""
	}
	var mods []string
	if it.Has(CapProtected) && it.IsProtected {
		mods = append(mods, "protected")
	}
	if it.Has(CapReadonly) && it.IsReadonly {
		mods = append(mods, "readonly")
	}
	if it.Static() {
		mods = append(mods, "static")
	}
	if len(mods) == 0 {
		return text
	}
	return strings.Join(mods, " ") + " " + text
}

// MembersOfKind returns the direct members of the given kinds in declaration order.
func (it *Item) MembersOfKind(kinds ...Kind) []*Item {
	var out []*Item
	for _, m := range it.Members {
		for _, k := range kinds {
			if m.Kind == k {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

// Walk visits the item and all of its descendants depth first. Returning
// false from fn skips the item's members.
func (it *Item) Walk(fn func(*Item) bool) {
	if !fn(it) {
		return
	}
	for _, m := range it.Members {
		m.Walk(fn)
	}
}
