package highlight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChroma_Lines(t *testing.T) {
	t.Parallel()

	h := NewChroma("onedark")
	code := "export declare function add(a: number): number;\nconst x = 1"
	lines, err := h.Highlight(code, "typescript")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, code, Plain(lines))

	var colored bool
	for _, tok := range lines[0] {
		if tok.Color != "" {
			colored = true
		}
	}
	assert.True(t, colored, "expected at least one coloured token")
}

func TestChroma_UnknownLanguage(t *testing.T) {
	t.Parallel()

	lines, err := NewChroma("no-such-style").Highlight("plain words", "no-such-language")
	require.NoError(t, err)
	assert.Equal(t, "plain words", Plain(lines))
}
