package render

import (
	"strings"

	"github.com/jcdickinson/apiref/internal/apimodel"
)

type column struct {
	header string
	render func(*apimodel.Item) *Node
}

// tables builds the per-kind tables of a page item. Rows follow
// declaration order.
func (c *pageContext) tables(it *apimodel.Item) []Table {
	var out []Table
	add := func(t *Table) {
		if t != nil {
			out = append(out, *t)
		}
	}

	switch it.Kind {
	case apimodel.KindConstructor, apimodel.KindConstructSignature, apimodel.KindMethod,
		apimodel.KindMethodSignature, apimodel.KindFunction:
		add(c.parameterTable(it))

	case apimodel.KindEnum:
		value := column{header: "Value", render: func(m *apimodel.Item) *Node {
			return c.renderCode(m.Initializer.Text(), c.language)
		}}
		add(c.memberTable(it.MembersOfKind(apimodel.KindEnumMember), "Enumeration Members", "Member", value))

	case apimodel.KindEntryPoint, apimodel.KindPackage, apimodel.KindNamespace:
		add(c.memberTable(it.MembersOfKind(apimodel.KindClass), "Classes", "Class"))
		add(c.memberTable(it.MembersOfKind(apimodel.KindEnum), "Enumerations", "Enumeration"))
		add(c.memberTable(it.MembersOfKind(apimodel.KindFunction), "Functions", "Function"))
		add(c.memberTable(it.MembersOfKind(apimodel.KindInterface), "Interfaces", "Interface"))
		add(c.memberTable(it.MembersOfKind(apimodel.KindNamespace), "Namespaces", "Namespace"))
		add(c.memberTable(it.MembersOfKind(apimodel.KindVariable), "Variables", "Variable"))
		add(c.memberTable(it.MembersOfKind(apimodel.KindTypeAlias), "Type Aliases", "Type Alias"))

	case apimodel.KindClass:
		out = append(out, c.classTables(it, apimodel.KindConstructor, apimodel.KindProperty, apimodel.KindMethod)...)

	case apimodel.KindInterface:
		out = append(out, c.classTables(it, apimodel.KindConstructSignature, apimodel.KindPropertySignature, apimodel.KindMethodSignature)...)
	}
	return out
}

func (c *pageContext) classTables(it *apimodel.Item, ctor, prop, method apimodel.Kind) []Table {
	var events, properties []*apimodel.Item
	for _, m := range it.MembersOfKind(prop) {
		if m.EventProperty() {
			events = append(events, m)
		} else {
			properties = append(properties, m)
		}
	}
	typ := column{header: "Type", render: func(m *apimodel.Item) *Node {
		return c.renderExcerpt(m.PropertyType)
	}}

	var out []Table
	for _, t := range []*Table{
		c.memberTable(it.MembersOfKind(ctor), "Constructors", "Constructor"),
		c.memberTable(properties, "Properties", "Property", typ),
		c.memberTable(events, "Events", "event", typ),
		c.memberTable(it.MembersOfKind(method), "Methods", "Method"),
	} {
		if t != nil {
			out = append(out, *t)
		}
	}
	return out
}

// parameterTable lists parameters followed by a synthetic "(Returns)" row
// for kinds with a return type. A callable with neither still gets the
// table, header only.
func (c *pageContext) parameterTable(it *apimodel.Item) *Table {
	var rows []Row
	for _, p := range it.Parameters {
		rows = append(rows, Row{Cells: []*Node{
			plainText(p.Name),
			c.renderExcerpt(p.Type),
			c.renderComment(it.Comment.Param(p.Name)),
		}})
	}
	if it.Has(apimodel.CapReturnType) {
		var returns *Node
		if it.Comment != nil && it.Comment.Returns != nil {
			returns = c.renderComment(it.Comment.Returns)
		}
		rows = append(rows, Row{Cells: []*Node{
			{Kind: KindEmphasisSpan, Bold: true, Nodes: []*Node{plainText("(Returns)")}},
			c.renderExcerpt(it.ReturnType),
			returns,
		}})
	}
	return &Table{
		SectionTitle: "Parameters",
		HeaderTitles: []string{"Parameter", "Type", "Description"},
		Rows:         rows,
	}
}

// memberTable lists members with a linked name cell, any extra columns and
// a short description. Empty member lists produce no table.
func (c *pageContext) memberTable(members []*apimodel.Item, title, header string, extra ...column) *Table {
	if len(members) == 0 {
		return nil
	}
	headers := []string{header}
	for _, col := range extra {
		headers = append(headers, col.header)
	}
	headers = append(headers, "Description")

	rows := make([]Row, 0, len(members))
	for _, m := range members {
		cells := []*Node{c.nameCell(m)}
		for _, col := range extra {
			cells = append(cells, col.render(m))
		}
		cells = append(cells, c.description(m))
		rows = append(rows, Row{Cells: cells})
	}
	return &Table{SectionTitle: title, HeaderTitles: headers, Rows: rows}
}

func (c *pageContext) nameCell(m *apimodel.Item) *Node {
	var before, after string
	if m.Static() {
		before = "static "
	}
	if m.Optional() {
		after += "?"
	}
	if m.Has(apimodel.CapParameters) {
		names := make([]string, len(m.Parameters))
		for i, p := range m.Parameters {
			names[i] = p.Name
		}
		after += "(" + strings.Join(names, ", ") + ")"
	}
	return &Node{Kind: KindNowrap, Nodes: []*Node{
		plainText(before),
		c.linkOrText(m.CanonicalReference, m.DisplayName()),
		plainText(after),
	}}
}

// description is the first paragraph of the member's summary.
func (c *pageContext) description(m *apimodel.Item) *Node {
	var parts []*Node
	if m.Has(apimodel.CapDocumented) && m.Comment != nil {
		if p := m.Comment.Summary.FirstParagraph(); p != nil {
			parts = c.renderChildren(p)
		}
	}
	return span(parts...)
}
