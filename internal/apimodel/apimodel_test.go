package apimodel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadCalculator(t *testing.T) *Model {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "fixtures", "calculator.api.json"))
	require.NoError(t, err)
	m, err := Parse(data)
	require.NoError(t, err)
	return m
}

func find(t *testing.T, m *Model, ref string) *Item {
	t.Helper()
	var found *Item
	m.Package.Walk(func(it *Item) bool {
		if found == nil && it.CanonicalReference == ref && it.Kind != KindPackage {
			found = it
		}
		return found == nil
	})
	require.NotNil(t, found, "no item %s", ref)
	return found
}

func TestParse_Tree(t *testing.T) {
	t.Parallel()
	m := loadCalculator(t)

	assert.Equal(t, "@example/calculator", m.Package.Name)
	ep := m.EntryPoint()
	require.NotNil(t, ep)
	assert.Equal(t, KindEntryPoint, ep.Kind)
	assert.Equal(t, "", ep.ScopedName())
	assert.Len(t, ep.Members, 7)

	run := find(t, m, "@example/calculator!Shapes.Alpha#run:member(1)")
	assert.Equal(t, KindMethod, run.Kind)
	assert.Equal(t, "Shapes.Alpha.run", run.ScopedName())
	assert.Equal(t, "Alpha", run.Parent.Name)
}

func TestParse_Excerpts(t *testing.T) {
	t.Parallel()
	m := loadCalculator(t)

	add := find(t, m, "@example/calculator!add:function(1)")
	require.Len(t, add.Parameters, 2)
	assert.Equal(t, "a", add.Parameters[0].Name)
	assert.Equal(t, "number", add.Parameters[0].Type.Text())
	assert.Equal(t, "number", add.ReturnType.Text())
	assert.Equal(t, "export declare function add(a: number, b: number): number;", add.ExcerptWithModifiers())

	require.NotNil(t, add.Comment)
	assert.NotNil(t, add.Comment.Returns)
	assert.NotNil(t, add.Comment.Param("b"))
	assert.Len(t, add.Comment.Examples(), 1)

	red := find(t, m, "@example/calculator!Color.Red:member")
	assert.Equal(t, `"red"`, red.Initializer.Text())

	method := find(t, m, "@example/calculator!Calculator#add:member(1)")
	require.Len(t, method.ReturnType.Tokens, 1)
	assert.Equal(t, TokenReference, method.ReturnType.Tokens[0].Kind)
	assert.Equal(t, "@example/calculator!Calculator:class", method.ReturnType.Tokens[0].CanonicalReference)
}

func TestParse_Flags(t *testing.T) {
	t.Parallel()
	m := loadCalculator(t)

	version := find(t, m, "@example/calculator!Calculator.version:member")
	assert.True(t, version.Static())
	assert.True(t, version.Deprecated())
	assert.Equal(t, "static version: string;", version.ExcerptWithModifiers())

	changed := find(t, m, "@example/calculator!Calculator#changed:member")
	assert.True(t, changed.EventProperty())
	assert.Equal(t, "readonly changed: () => void;", changed.ExcerptWithModifiers())

	options := find(t, m, "@example/calculator!Options:interface")
	assert.True(t, options.Beta())
	assert.False(t, options.Static())

	precision := find(t, m, "@example/calculator!Options#precision:member")
	assert.True(t, precision.Optional())
	assert.False(t, precision.Static(), "signatures never report static")
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`{"kind":"Package","name":"x","members":[{"kind":"Mystery","canonicalReference":"x!"}]}`))
	require.ErrorIs(t, err, ErrUnknownKind)

	_, err = Parse([]byte(`{"kind":"Class"}`))
	require.Error(t, err)

	_, err = Parse([]byte(`not json`))
	require.Error(t, err)
}

func TestDisplayNameAndSortKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		item    Item
		display string
		sortKey string
	}{
		{Item{Kind: KindConstructor, OverloadIndex: 1}, "(constructor)", "|Constructor|1"},
		{Item{Kind: KindConstructSignature, OverloadIndex: 2}, "(new)", "|ConstructSignature|2"},
		{Item{Kind: KindCallSignature, OverloadIndex: 1}, "(call)", "|CallSignature|1"},
		{Item{Kind: KindIndexSignature, OverloadIndex: 1}, "(indexer)", "|IndexSignature|1"},
		{Item{Kind: KindMethod, Name: "run", IsStatic: true, OverloadIndex: 1}, "run", "run|static|Method|1"},
		{Item{Kind: KindProperty, Name: "x"}, "x", "x|instance|Property"},
		{Item{Kind: KindFunction, Name: "f", OverloadIndex: 3}, "f", "f|Function|3"},
		{Item{Kind: KindMethodSignature, Name: "g", OverloadIndex: 1}, "g", "g|MethodSignature|1"},
		{Item{Kind: KindEnumMember, Name: "Red"}, "Red", "Red|EnumMember"},
	}
	for _, tt := range tests {
		t.Run(tt.sortKey, func(t *testing.T) {
			assert.Equal(t, tt.display, tt.item.DisplayName())
			assert.Equal(t, tt.sortKey, tt.item.SortKey())
		})
	}
}

func TestCapabilities(t *testing.T) {
	t.Parallel()

	assert.True(t, (&Item{Kind: KindMethod}).Has(CapReturnType))
	assert.False(t, (&Item{Kind: KindConstructor}).Has(CapReturnType))
	assert.True(t, (&Item{Kind: KindConstructor}).Has(CapParameters))
	assert.False(t, (&Item{Kind: KindEntryPoint}).Has(CapDocumented))
	assert.True(t, (&Item{Kind: KindPackage}).Has(CapDocumented))
	assert.False(t, (&Item{Kind: KindPackage}).Has(CapDeclared))

	opt := &Item{Kind: KindVariable, IsOptional: true}
	assert.False(t, opt.Optional(), "variables cannot be optional")
}

func TestKindJSON(t *testing.T) {
	t.Parallel()

	k, err := ParseKind("PropertySignature")
	require.NoError(t, err)
	assert.Equal(t, KindPropertySignature, k)

	b, err := k.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"PropertySignature"`, string(b))

	var back Kind
	require.NoError(t, back.UnmarshalJSON(b))
	assert.Equal(t, k, back)

	_, err = ParseKind("")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestResolve(t *testing.T) {
	t.Parallel()
	m := loadCalculator(t)
	calc := find(t, m, "@example/calculator!Calculator:class")
	color := find(t, m, "@example/calculator!Color:enum")
	alphaRun := find(t, m, "@example/calculator!Shapes.Alpha#run:member(1)")

	tests := []struct {
		name string
		ref  string
		ctx  *Item
		want string
	}{
		{"entry point first", "add", calc, "@example/calculator!add:function(1)"},
		{"top level", "add", color, "@example/calculator!add:function(1)"},
		{"enclosing scope", "total", calc, "@example/calculator!Calculator#total:member"},
		{"member", "Calculator.total", nil, "@example/calculator!Calculator#total:member"},
		{"hash member", "Calculator#add", calc, "@example/calculator!Calculator#add:member(1)"},
		{"relative to ancestor", "Beta.run", alphaRun, "@example/calculator!Shapes.Beta#run:member(1)"},
		{"sibling in scope", "run", alphaRun, "@example/calculator!Shapes.Alpha#run:member(1)"},
		{"package qualified", "@example/calculator!Shapes.Alpha", calc, "@example/calculator!Shapes.Alpha:class"},
		{"package hash", "@example/calculator#Color.Red", nil, "@example/calculator!Color.Red:member"},
		{"constructor", "Calculator.(constructor)", nil, "@example/calculator!Calculator:constructor(1)"},
		{"selector", "Calculator#add:member(1)", nil, "@example/calculator!Calculator#add:member(1)"},
		{"kind selector", "(Color:enum)", nil, "@example/calculator!Color:enum"},
		{"static selector", "Calculator.version:static", nil, "@example/calculator!Calculator.version:member"},
		{"package context", "Color", m.Package, "@example/calculator!Color:enum"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Resolve(tt.ref, tt.ctx)
			require.NotNil(t, got, tt.ref)
			assert.Equal(t, tt.want, got.CanonicalReference)
		})
	}

	assert.Nil(t, m.Resolve("Nope", calc))
	assert.Nil(t, m.Resolve("Calculator.nope", calc))
	assert.Nil(t, m.Resolve("other-pkg!Calculator", calc))
	assert.Nil(t, m.Resolve("Calculator.total:instance.more", calc))
	assert.Nil(t, m.Resolve("", calc))
	assert.Nil(t, m.Resolve("Calculator.version:instance", calc))
}
