package docmodel

import "github.com/jcdickinson/apiref/internal/apimodel"

// NavigationItem is a presentation-ready node of the navigation forest.
type NavigationItem struct {
	Title      string            `json:"title"`
	Slug       string            `json:"slug"`
	Kind       apimodel.Kind     `json:"kind"`
	Children   []*NavigationItem `json:"children"`
	Deprecated bool              `json:"deprecated,omitempty"`
	Beta       bool              `json:"beta,omitempty"`
	Static     bool              `json:"static,omitempty"`
	Optional   bool              `json:"optional,omitempty"`
}

// Navigation groups pages under their parent page, preserving page order
// within each sibling group. Pages without a parent page become roots.
func (p *Pages) Navigation() []*NavigationItem {
	items := make(map[*Page]*NavigationItem, len(p.pages))
	for _, page := range p.pages {
		it := page.Item
		items[page] = &NavigationItem{
			Title:      page.NavigationTitle,
			Slug:       page.Slug,
			Kind:       it.Kind,
			Children:   []*NavigationItem{},
			Deprecated: it.Deprecated(),
			Beta:       it.Beta(),
			Static:     it.Static(),
			Optional:   it.Optional(),
		}
	}

	roots := []*NavigationItem{}
	for _, page := range p.pages {
		nav := items[page]
		if parent := p.Parent(page); parent != nil {
			items[parent].Children = append(items[parent].Children, nav)
			continue
		}
		roots = append(roots, nav)
	}
	return roots
}
