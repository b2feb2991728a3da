package docmodel

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jcdickinson/apiref/internal/apimodel"
)

// pageKinds maps a parent kind to the child kinds that get their own page.
// KindNone stands for "no parent".
var pageKinds = map[apimodel.Kind][]apimodel.Kind{
	apimodel.KindNone: {apimodel.KindPackage, apimodel.KindEntryPoint},
	apimodel.KindEntryPoint: {
		apimodel.KindClass, apimodel.KindEnum, apimodel.KindInterface, apimodel.KindFunction,
		apimodel.KindNamespace, apimodel.KindTypeAlias, apimodel.KindVariable,
	},
	apimodel.KindPackage: {
		apimodel.KindClass, apimodel.KindEnum, apimodel.KindInterface, apimodel.KindFunction,
		apimodel.KindNamespace, apimodel.KindTypeAlias, apimodel.KindVariable,
	},
	apimodel.KindNamespace: {
		apimodel.KindClass, apimodel.KindEnum, apimodel.KindInterface, apimodel.KindFunction,
		apimodel.KindNamespace, apimodel.KindTypeAlias, apimodel.KindVariable,
	},
	apimodel.KindClass:     {apimodel.KindConstructor, apimodel.KindMethod, apimodel.KindProperty},
	apimodel.KindInterface: {apimodel.KindConstructSignature, apimodel.KindMethodSignature, apimodel.KindPropertySignature},
}

// IsPageWorthy reports whether a child of kind child nested directly under
// a parent of kind parent gets its own page.
func IsPageWorthy(parent, child apimodel.Kind) bool {
	return slices.Contains(pageKinds[parent], child)
}

// PageInfo is the page-tree projection of a page-worthy item.
type PageInfo struct {
	NavigationTitle string
	PageTitle       string
	Item            *apimodel.Item
	SortKey         string
	ParentPath      []*apimodel.Item
}

// Page is a PageInfo with its allocated slug.
type Page struct {
	PageInfo
	Slug string
}

// Pages is the ordered, immutable page set of one package.
type Pages struct {
	pages  []*Page
	bySlug map[string]*Page
	byItem map[*apimodel.Item]*Page
}

// BuildPages walks the first entry point of the model and returns every
// page-worthy item ordered by canonical reference, with slugs allocated in
// that order.
func BuildPages(m *apimodel.Model) (*Pages, error) {
	entry := m.EntryPoint()
	if entry == nil {
		return nil, fmt.Errorf("%w: no package entry point", ErrMalformedModel)
	}
	if err := checkReferences(entry); err != nil {
		return nil, err
	}

	var infos []PageInfo
	var visit func(it *apimodel.Item, parent apimodel.Kind, path []*apimodel.Item)
	visit = func(it *apimodel.Item, parent apimodel.Kind, path []*apimodel.Item) {
		if !IsPageWorthy(parent, it.Kind) {
			return
		}
		infos = append(infos, newPageInfo(it, path))
		next := append(slices.Clip(path), it)
		for _, member := range it.Members {
			visit(member, it.Kind, next)
		}
	}
	visit(entry, apimodel.KindNone, nil)

	slices.SortStableFunc(infos, func(a, b PageInfo) int {
		return strings.Compare(a.SortKey, b.SortKey)
	})

	p := &Pages{
		pages:  make([]*Page, 0, len(infos)),
		bySlug: make(map[string]*Page, len(infos)),
		byItem: make(map[*apimodel.Item]*Page, len(infos)),
	}
	slugs := NewPageSlugAllocator()
	for _, info := range infos {
		page := &Page{PageInfo: info, Slug: slugs.Allocate(info.Item.ScopedName())}
		p.pages = append(p.pages, page)
		p.bySlug[page.Slug] = page
		p.byItem[page.Item] = page
	}
	return p, nil
}

func newPageInfo(it *apimodel.Item, path []*apimodel.Item) PageInfo {
	nav := it.DisplayName()
	title := it.ScopedName()
	if it.Kind == apimodel.KindEntryPoint {
		var parts []string
		if it.Parent != nil && it.Parent.DisplayName() != "" {
			parts = append(parts, it.Parent.DisplayName())
		}
		if it.DisplayName() != "" {
			parts = append(parts, it.DisplayName())
		}
		nav = strings.Join(parts, "/")
		title = nav
	}
	if it.Optional() {
		nav += "?"
	}
	return PageInfo{
		NavigationTitle: nav,
		PageTitle:       title,
		Item:            it,
		SortKey:         it.CanonicalReference,
		ParentPath:      path,
	}
}

// checkReferences enforces that every item under the entry point carries a
// canonical reference and that no two share one.
func checkReferences(entry *apimodel.Item) error {
	seen := make(map[string]*apimodel.Item)
	var err error
	entry.Walk(func(it *apimodel.Item) bool {
		if err != nil {
			return false
		}
		if it.CanonicalReference == "" {
			err = fmt.Errorf("%w: %s %q has no canonical reference", ErrMalformedModel, it.Kind, it.ScopedName())
			return false
		}
		if prev, dup := seen[it.CanonicalReference]; dup {
			err = fmt.Errorf("%w: canonical reference %q used by both %s %q and %s %q",
				ErrMalformedModel, it.CanonicalReference, prev.Kind, prev.ScopedName(), it.Kind, it.ScopedName())
			return false
		}
		seen[it.CanonicalReference] = it
		return true
	})
	return err
}

// All returns the pages in slug-allocation order.
func (p *Pages) All() []*Page {
	return p.pages
}

// Len returns the number of pages.
func (p *Pages) Len() int {
	return len(p.pages)
}

func (p *Pages) Get(slug string) (*Page, bool) {
	page, ok := p.bySlug[slug]
	return page, ok
}

func (p *Pages) ForItem(it *apimodel.Item) (*Page, bool) {
	page, ok := p.byItem[it]
	return page, ok
}

// Parent returns the page of the nearest page-worthy ancestor, or nil.
func (p *Pages) Parent(page *Page) *Page {
	if len(page.ParentPath) == 0 {
		return nil
	}
	return p.byItem[page.ParentPath[len(page.ParentPath)-1]]
}

// Breadcrumbs returns the ancestor pages of page, outermost first.
func (p *Pages) Breadcrumbs(page *Page) []*Page {
	var crumbs []*Page
	for _, it := range page.ParentPath {
		if anc, ok := p.byItem[it]; ok {
			crumbs = append(crumbs, anc)
		}
	}
	return crumbs
}
