package apimodel

import (
	"encoding/json"
	"fmt"

	"github.com/jcdickinson/apiref/internal/tsdoc"
)

type rawItem struct {
	Kind                   string         `json:"kind"`
	CanonicalReference     string         `json:"canonicalReference"`
	DocComment             string         `json:"docComment"`
	ExcerptTokens          []ExcerptToken `json:"excerptTokens"`
	ReleaseTag             string         `json:"releaseTag"`
	Name                   string         `json:"name"`
	IsOptional             bool           `json:"isOptional"`
	IsStatic               bool           `json:"isStatic"`
	IsProtected            bool           `json:"isProtected"`
	IsReadonly             bool           `json:"isReadonly"`
	IsAbstract             bool           `json:"isAbstract"`
	OverloadIndex          int            `json:"overloadIndex"`
	Parameters             []rawParameter `json:"parameters"`
	ReturnTypeTokenRange   *TokenRange    `json:"returnTypeTokenRange"`
	PropertyTypeTokenRange *TokenRange    `json:"propertyTypeTokenRange"`
	InitializerTokenRange  *TokenRange    `json:"initializerTokenRange"`
	FileURLPath            string         `json:"fileUrlPath"`
	Members                []rawItem      `json:"members"`
}

type rawParameter struct {
	ParameterName           string     `json:"parameterName"`
	ParameterTypeTokenRange TokenRange `json:"parameterTypeTokenRange"`
	IsOptional              bool       `json:"isOptional"`
}

// Parse decodes an api-extractor .api.json document.
func Parse(data []byte) (*Model, error) {
	var root rawItem
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("unmarshaling doc model JSON: %w", err)
	}
	if root.Kind != KindPackage.String() {
		return nil, fmt.Errorf("doc model root is %q, want Package", root.Kind)
	}
	pkg, err := buildItem(&root, nil)
	if err != nil {
		return nil, err
	}
	return &Model{Package: pkg}, nil
}

func buildItem(raw *rawItem, parent *Item) (*Item, error) {
	kind, err := ParseKind(raw.Kind)
	if err != nil {
		return nil, fmt.Errorf("item %q: %w", raw.CanonicalReference, err)
	}

	it := &Item{
		Kind:               kind,
		Name:               raw.Name,
		CanonicalReference: raw.CanonicalReference,
		ReleaseTag:         ReleaseTag(raw.ReleaseTag),
		FileURLPath:        raw.FileURLPath,
		IsOptional:         raw.IsOptional,
		IsStatic:           raw.IsStatic,
		IsProtected:        raw.IsProtected,
		IsReadonly:         raw.IsReadonly,
		IsAbstract:         raw.IsAbstract,
		OverloadIndex:      raw.OverloadIndex,
		Tokens:             raw.ExcerptTokens,
		Parent:             parent,
	}
	if it.Has(CapDocumented) && raw.DocComment != "" {
		it.Comment = tsdoc.Parse(raw.DocComment)
	}
	if it.Has(CapParameters) {
		for _, p := range raw.Parameters {
			r := p.ParameterTypeTokenRange
			it.Parameters = append(it.Parameters, Parameter{
				Name:       p.ParameterName,
				Type:       newExcerpt(it.Tokens, &r),
				IsOptional: p.IsOptional,
			})
		}
	}
	if it.Has(CapReturnType) {
		it.ReturnType = newExcerpt(it.Tokens, raw.ReturnTypeTokenRange)
	}
	if it.Has(CapPropertyType) {
		it.PropertyType = newExcerpt(it.Tokens, raw.PropertyTypeTokenRange)
	}
	if it.Has(CapInitializer) {
		it.Initializer = newExcerpt(it.Tokens, raw.InitializerTokenRange)
	}

	for i := range raw.Members {
		child, err := buildItem(&raw.Members[i], it)
		if err != nil {
			return nil, err
		}
		it.Members = append(it.Members, child)
	}
	return it, nil
}
