package docmodel

import (
	"fmt"

	"github.com/jcdickinson/apiref/internal/apimodel"
)

// RoutePrefix returns the route prefix for a package identifier.
func RoutePrefix(packageID string) string {
	return "/package/" + packageID
}

// Site bundles everything derived from one package's doc model. It is
// built once per package and is read-only afterwards.
type Site struct {
	ID    string
	Info  apimodel.PackageInfo
	Model *apimodel.Model
	Pages *Pages
	Links *LinkResolver

	navigation []*NavigationItem
}

// Symbol is one addressable item and the route it resolves to.
type Symbol struct {
	CanonicalReference string
	Route              string
	Title              string
	Kind               apimodel.Kind
}

// NewSite derives pages, routes and navigation for a loaded model.
func NewSite(id string, m *apimodel.Model, info apimodel.PackageInfo) (*Site, error) {
	pages, err := BuildPages(m)
	if err != nil {
		return nil, fmt.Errorf("building pages for %s: %w", id, err)
	}
	return &Site{
		ID:         id,
		Info:       info,
		Model:      m,
		Pages:      pages,
		Links:      NewLinkResolver(pages, RoutePrefix(id)),
		navigation: pages.Navigation(),
	}, nil
}

// Page looks up a page by its path (slug).
func (s *Site) Page(path string) (*Page, error) {
	page, ok := s.Pages.Get(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrPageNotFound, s.ID, path)
	}
	return page, nil
}

// Navigation returns the navigation forest. Callers must not modify it.
func (s *Site) Navigation() []*NavigationItem {
	return s.navigation
}

// Resolve returns the route for a canonical reference or, failing that, a
// declaration reference resolved from the package entry point.
func (s *Site) Resolve(ref string) (string, bool) {
	if route, ok := s.Links.LinkToReference(ref); ok {
		return route, true
	}
	return s.Links.LinkTo(s.Model.Resolve(ref, nil))
}

// Symbols lists every routed item under the entry point in tree order.
func (s *Site) Symbols() []Symbol {
	var out []Symbol
	s.Model.EntryPoint().Walk(func(it *apimodel.Item) bool {
		route, ok := s.Links.LinkTo(it)
		if !ok {
			return true
		}
		title := it.ScopedName()
		if page, isPage := s.Pages.ForItem(it); isPage {
			title = page.PageTitle
		}
		out = append(out, Symbol{
			CanonicalReference: it.CanonicalReference,
			Route:              route,
			Title:              title,
			Kind:               it.Kind,
		})
		return true
	})
	return out
}
