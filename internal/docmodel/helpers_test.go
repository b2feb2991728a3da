package docmodel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jcdickinson/apiref/internal/apimodel"
	"github.com/jcdickinson/apiref/internal/tsdoc"
)

func item(kind apimodel.Kind, name, ref string, members ...*apimodel.Item) *apimodel.Item {
	it := &apimodel.Item{Kind: kind, Name: name, CanonicalReference: ref, Members: members}
	for _, m := range members {
		m.Parent = it
	}
	return it
}

func model(members ...*apimodel.Item) *apimodel.Model {
	entry := item(apimodel.KindEntryPoint, "", "pkg!", members...)
	return &apimodel.Model{Package: item(apimodel.KindPackage, "pkg", "pkg!", entry)}
}

func deprecated(it *apimodel.Item) *apimodel.Item {
	it.Comment = &tsdoc.Comment{Deprecated: &tsdoc.Node{Kind: tsdoc.KindSection}}
	return it
}

// shapes is a namespace holding two classes with one method each.
func shapes() *apimodel.Model {
	return model(
		item(apimodel.KindNamespace, "Shapes", "pkg!Shapes:namespace",
			item(apimodel.KindClass, "Alpha", "pkg!Shapes.Alpha:class",
				item(apimodel.KindMethod, "run", "pkg!Shapes.Alpha#run:member(1)"),
			),
			item(apimodel.KindClass, "Beta", "pkg!Shapes.Beta:class",
				item(apimodel.KindMethod, "run", "pkg!Shapes.Beta#run:member(1)"),
			),
		),
	)
}

func loadCalculator(t *testing.T) *apimodel.Model {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "fixtures", "calculator.api.json"))
	require.NoError(t, err)
	m, err := apimodel.Parse(data)
	require.NoError(t, err)
	return m
}

func slugs(p *Pages) []string {
	var out []string
	for _, page := range p.All() {
		out = append(out, page.Slug)
	}
	return out
}
