package docmodel

import (
	"maps"
	"slices"
	"strings"

	"github.com/jcdickinson/apiref/internal/apimodel"
)

// LinkResolver maps every addressable canonical reference to a route:
// "{prefix}/{slug}" for pages and "{prefix}/{slug}#{anchor}" for items
// rendered inline on a page.
type LinkResolver struct {
	prefix string
	routes map[string]string
}

// NewLinkResolver builds the route map for pages under prefix.
func NewLinkResolver(pages *Pages, prefix string) *LinkResolver {
	l := &LinkResolver{prefix: prefix, routes: make(map[string]string)}
	for _, page := range pages.All() {
		l.routes[page.Item.CanonicalReference] = l.PageRoute(page)
	}

	for _, page := range pages.All() {
		var candidates []*apimodel.Item
		for _, member := range page.Item.Members {
			member.Walk(func(it *apimodel.Item) bool {
				if _, mapped := l.routes[it.CanonicalReference]; mapped {
					return false
				}
				candidates = append(candidates, it)
				return true
			})
		}

		slices.SortStableFunc(candidates, func(a, b *apimodel.Item) int {
			return strings.Compare(a.SortKey(), b.SortKey())
		})
		base := l.PageRoute(page)
		anchors := NewAnchorSlugAllocator()
		for _, it := range candidates {
			anchor := anchors.Allocate(it.DisplayName())
			if _, mapped := l.routes[it.CanonicalReference]; mapped {
				continue
			}
			l.routes[it.CanonicalReference] = base + "#" + anchor
		}
	}
	return l
}

// PageRoute returns the route of a page.
func (l *LinkResolver) PageRoute(page *Page) string {
	return l.prefix + "/" + page.Slug
}

// Prefix is the route prefix shared by every page of the package.
func (l *LinkResolver) Prefix() string {
	return l.prefix
}

// LinkTo returns the route of an item.
func (l *LinkResolver) LinkTo(it *apimodel.Item) (string, bool) {
	if it == nil {
		return "", false
	}
	return l.LinkToReference(it.CanonicalReference)
}

// LinkToReference returns the route registered for a canonical reference.
func (l *LinkResolver) LinkToReference(ref string) (string, bool) {
	if ref == "" {
		return "", false
	}
	route, ok := l.routes[ref]
	return route, ok
}

// Routes returns a copy of the full route map.
func (l *LinkResolver) Routes() map[string]string {
	return maps.Clone(l.routes)
}
