// Package highlight turns source text into coloured token lines.
package highlight

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Token is a run of source text sharing one style.
type Token struct {
	Content string `json:"content"`
	Color   string `json:"color,omitempty"`
	Bold    bool   `json:"bold,omitempty"`
	Italic  bool   `json:"italic,omitempty"`
}

// Highlighter tokenises code. Implementations must be safe for concurrent use.
type Highlighter interface {
	Highlight(code, language string) ([][]Token, error)
}

// Chroma highlights with a chroma lexer and style.
type Chroma struct {
	style *chroma.Style
}

// NewChroma returns a highlighter using the named chroma style. Unknown
// styles fall back to chroma's default.
func NewChroma(style string) *Chroma {
	return &Chroma{style: styles.Get(style)}
}

// Highlight splits code into lines of styled tokens. Unknown languages are
// tokenised as plain text.
func (c *Chroma) Highlight(code, language string) ([][]Token, error) {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return nil, fmt.Errorf("tokenising %s: %w", language, err)
	}

	var lines [][]Token
	for _, line := range chroma.SplitTokensIntoLines(it.Tokens()) {
		out := []Token{}
		for _, tok := range line {
			text := strings.TrimSuffix(tok.Value, "\n")
			if text == "" {
				continue
			}
			entry := c.style.Get(tok.Type)
			t := Token{
				Content: text,
				Bold:    entry.Bold == chroma.Yes,
				Italic:  entry.Italic == chroma.Yes,
			}
			if entry.Colour.IsSet() {
				t.Color = entry.Colour.String()
			}
			out = append(out, t)
		}
		lines = append(lines, out)
	}
	return lines, nil
}

// Plain joins token lines back into source text.
func Plain(lines [][]Token) string {
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, t := range line {
			b.WriteString(t.Content)
		}
	}
	return b.String()
}
