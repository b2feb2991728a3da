package docmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcdickinson/apiref/internal/apimodel"
)

func TestLinkResolver_Calculator(t *testing.T) {
	t.Parallel()

	m := loadCalculator(t)
	pages, err := BuildPages(m)
	require.NoError(t, err)
	links := NewLinkResolver(pages, "/package/fixtures:calculator")

	tests := map[string]string{
		"@example/calculator!":                          "/package/fixtures:calculator/",
		"@example/calculator!Calculator:class":          "/package/fixtures:calculator/Calculator",
		"@example/calculator!Calculator#add:member(1)":  "/package/fixtures:calculator/Calculator.add",
		"@example/calculator!Calculator:constructor(1)": "/package/fixtures:calculator/Calculator.constructor",
		"@example/calculator!Color:enum":                "/package/fixtures:calculator/Color",
		"@example/calculator!Color.Red:member":          "/package/fixtures:calculator/Color#Red",
		"@example/calculator!Color.Green:member":        "/package/fixtures:calculator/Color#Green",
		"@example/calculator!Options:call(1)":           "/package/fixtures:calculator/Options#call",
		"@example/calculator!add:function(1)":           "/package/fixtures:calculator/add",
	}
	for ref, want := range tests {
		got, ok := links.LinkToReference(ref)
		assert.True(t, ok, ref)
		assert.Equal(t, want, got, ref)
	}

	_, ok := links.LinkToReference("@example/calculator!Nope:class")
	assert.False(t, ok)
	_, ok = links.LinkToReference("")
	assert.False(t, ok)
	_, ok = links.LinkTo(nil)
	assert.False(t, ok)
}

func TestLinkResolver_Totality(t *testing.T) {
	t.Parallel()

	for name, m := range map[string]*apimodel.Model{
		"calculator": loadCalculator(t),
		"shapes":     shapes(),
		"hidden": model(
			item(apimodel.KindNamespace, "NS", "pkg!NS:namespace",
				item(apimodel.KindProperty, "loose", "pkg!NS.loose:member"),
			),
			item(apimodel.KindFunction, "f", "pkg!f:function(1)",
				item(apimodel.KindClass, "Hidden", "pkg!f.Hidden:class",
					item(apimodel.KindMethod, "deep", "pkg!f.Hidden#deep:member(1)"),
				),
			),
		),
	} {
		t.Run(name, func(t *testing.T) {
			pages, err := BuildPages(m)
			require.NoError(t, err)
			links := NewLinkResolver(pages, "/package/x")
			m.Package.Walk(func(it *apimodel.Item) bool {
				_, ok := links.LinkTo(it)
				assert.True(t, ok, "no route for %s", it.CanonicalReference)
				return true
			})
		})
	}
}

func TestLinkResolver_HiddenSubtreeAnchoredOnOwningPage(t *testing.T) {
	t.Parallel()

	m := model(
		item(apimodel.KindFunction, "f", "pkg!f:function(1)",
			item(apimodel.KindClass, "Hidden", "pkg!f.Hidden:class",
				item(apimodel.KindMethod, "deep", "pkg!f.Hidden#deep:member(1)"),
			),
		),
	)
	pages, err := BuildPages(m)
	require.NoError(t, err)
	links := NewLinkResolver(pages, "/p")

	got, _ := links.LinkToReference("pkg!f.Hidden:class")
	assert.Equal(t, "/p/f#Hidden", got)
	got, _ = links.LinkToReference("pkg!f.Hidden#deep:member(1)")
	assert.Equal(t, "/p/f#deep", got)
}

func TestLinkResolver_AnchorOrderAndCollisions(t *testing.T) {
	t.Parallel()

	sig := func(kind apimodel.Kind, ref string, overload int) *apimodel.Item {
		it := item(kind, "", ref)
		it.OverloadIndex = overload
		return it
	}
	m := model(
		item(apimodel.KindInterface, "I", "pkg!I:interface",
			sig(apimodel.KindIndexSignature, "pkg!I:index(1)", 1),
			sig(apimodel.KindCallSignature, "pkg!I:call(2)", 2),
			sig(apimodel.KindCallSignature, "pkg!I:call(1)", 1),
		),
		item(apimodel.KindNamespace, "NS", "pkg!NS:namespace",
			item(apimodel.KindProperty, "value", "pkg!NS.value:member"),
			item(apimodel.KindEnumMember, "value", "pkg!NS.value:enum"),
		),
	)
	pages, err := BuildPages(m)
	require.NoError(t, err)
	links := NewLinkResolver(pages, "/p")
	routes := links.Routes()

	assert.Equal(t, "/p/I#call", routes["pkg!I:call(1)"])
	assert.Equal(t, "/p/I#call_2", routes["pkg!I:call(2)"])
	assert.Equal(t, "/p/I#indexer", routes["pkg!I:index(1)"])

	// Anchors are local to one page, so the same name starts over.
	assert.Equal(t, "/p/NS#value", routes["pkg!NS.value:enum"])
	assert.Equal(t, "/p/NS#value_2", routes["pkg!NS.value:member"])
}

func TestLinkResolver_Deterministic(t *testing.T) {
	t.Parallel()

	build := func() (*Pages, map[string]string) {
		pages, err := BuildPages(loadCalculator(t))
		require.NoError(t, err)
		return pages, NewLinkResolver(pages, "/p").Routes()
	}
	p1, r1 := build()
	p2, r2 := build()
	assert.Equal(t, slugs(p1), slugs(p2))
	assert.Equal(t, r1, r2)
	assert.Equal(t, p1.Navigation(), p2.Navigation())
}

func TestLinkResolver_RoutesIsCopy(t *testing.T) {
	t.Parallel()

	pages, err := BuildPages(shapes())
	require.NoError(t, err)
	links := NewLinkResolver(pages, "/p")

	routes := links.Routes()
	routes["pkg!Shapes:namespace"] = "/elsewhere"
	got, _ := links.LinkToReference("pkg!Shapes:namespace")
	assert.Equal(t, "/p/Shapes", got)
	assert.Equal(t, "/p", links.Prefix())
}
