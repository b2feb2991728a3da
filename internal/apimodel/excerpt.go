package apimodel

import "strings"

// TokenKind distinguishes plain source text from symbol references.
type TokenKind string

const (
	TokenContent   TokenKind = "Content"
	TokenReference TokenKind = "Reference"
)

// ExcerptToken is one token of a declaration's source signature.
type ExcerptToken struct {
	Kind               TokenKind `json:"kind"`
	Text               string    `json:"text"`
	CanonicalReference string    `json:"canonicalReference,omitempty"`
}

// TokenRange is a half-open [StartIndex, EndIndex) range into an item's tokens.
type TokenRange struct {
	StartIndex int `json:"startIndex"`
	EndIndex   int `json:"endIndex"`
}

// Excerpt is a slice of a declaration's tokens.
type Excerpt struct {
	Tokens []ExcerptToken
}

func newExcerpt(tokens []ExcerptToken, r *TokenRange) Excerpt {
	if r == nil {
		return Excerpt{}
	}
	start, end := r.StartIndex, r.EndIndex
	if start < 0 {
		start = 0
	}
	if end > len(tokens) {
		end = len(tokens)
	}
	if start >= end {
		return Excerpt{}
	}
	return Excerpt{Tokens: tokens[start:end]}
}

// Text joins the excerpt's token texts.
func (e Excerpt) Text() string {
	var b strings.Builder
	for _, t := range e.Tokens {
		b.WriteString(t.Text)
	}
	return b.String()
}

// IsEmpty reports whether the excerpt has no non-blank text.
func (e Excerpt) IsEmpty() bool {
	return strings.TrimSpace(e.Text()) == ""
}

// Parameter is a single entry in a parameter list.
type Parameter struct {
	Name       string
	Type       Excerpt
	IsOptional bool
}
