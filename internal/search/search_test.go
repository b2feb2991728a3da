package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcdickinson/apiref/internal/db"
	"github.com/jcdickinson/apiref/internal/rpc"
)

type fakeIndex struct {
	query    string
	packages []string
	limit    int
	matches  []db.SymbolMatch
	err      error
}

func (f *fakeIndex) SearchSymbols(_ context.Context, query string, packageIDs []string, limit int) ([]db.SymbolMatch, error) {
	f.query, f.packages, f.limit = query, packageIDs, limit
	return f.matches, f.err
}

func TestSearch_MapsMatches(t *testing.T) {
	t.Parallel()

	idx := &fakeIndex{matches: []db.SymbolMatch{{
		PackageID: "fixtures:calculator",
		Symbol: db.Symbol{
			CanonicalReference: "@example/calculator!add:function(1)",
			Route:              "/package/fixtures:calculator/add",
			Title:              "add",
			Kind:               "Function",
		},
	}}}

	got, err := NewSearcher(idx, nil).Search(context.Background(), rpc.SearchRequest{
		Query:    "  add ",
		Packages: []string{"fixtures:calculator"},
	})
	require.NoError(t, err)
	assert.Equal(t, "add", idx.query)
	assert.Equal(t, []string{"fixtures:calculator"}, idx.packages)
	assert.Equal(t, defaultLimit, idx.limit)
	assert.Equal(t, []rpc.SymbolResult{{
		Package:            "fixtures:calculator",
		CanonicalReference: "@example/calculator!add:function(1)",
		Route:              "/package/fixtures:calculator/add",
		Title:              "add",
		Kind:               "Function",
	}}, got)
}

func TestSearch_ClampsLimit(t *testing.T) {
	t.Parallel()

	idx := &fakeIndex{}
	_, err := NewSearcher(idx, nil).Search(context.Background(), rpc.SearchRequest{Query: "x", Limit: 10_000})
	require.NoError(t, err)
	assert.Equal(t, maxLimit, idx.limit)
}

func TestSearch_EmptyQuery(t *testing.T) {
	t.Parallel()

	_, err := NewSearcher(&fakeIndex{}, nil).Search(context.Background(), rpc.SearchRequest{Query: "   "})
	assert.ErrorIs(t, err, rpc.ErrBadRequest)
}

func TestSearch_IndexError(t *testing.T) {
	t.Parallel()

	boom := errors.New("db closed")
	_, err := NewSearcher(&fakeIndex{err: boom}, nil).Search(context.Background(), rpc.SearchRequest{Query: "x"})
	assert.ErrorIs(t, err, boom)
}
