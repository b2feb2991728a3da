package docmodel

import (
	"strconv"
	"strings"
)

// SlugAllocator hands out collision-free slugs in first-come order.
type SlugAllocator struct {
	allowDot bool
	used     map[string]struct{}
}

// NewPageSlugAllocator keeps dots so scoped names like Foo.Bar stay readable.
func NewPageSlugAllocator() *SlugAllocator {
	return &SlugAllocator{allowDot: true, used: make(map[string]struct{})}
}

// NewAnchorSlugAllocator allocates in-page anchors. Anchors are unique only
// within one allocator, i.e. within one page.
func NewAnchorSlugAllocator() *SlugAllocator {
	return &SlugAllocator{used: make(map[string]struct{})}
}

// Allocate strips the candidate down to the allowed alphabet and returns
// the first unused of base, base_2, base_3, ...
func (a *SlugAllocator) Allocate(candidate string) string {
	base := a.sanitize(candidate)
	slug := base
	for i := 2; ; i++ {
		if _, taken := a.used[slug]; !taken {
			break
		}
		slug = base + "_" + strconv.Itoa(i)
	}
	a.used[slug] = struct{}{}
	return slug
}

func (a *SlugAllocator) sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		case r == '.' && a.allowDot:
			return r
		}
		return -1
	}, s)
}
