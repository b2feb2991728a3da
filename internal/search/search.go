package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jcdickinson/apiref/internal/db"
	"github.com/jcdickinson/apiref/internal/rpc"
)

const (
	defaultLimit = 20
	maxLimit     = 200
)

// Index is the symbol catalogue the Searcher queries. *db.DB implements it.
type Index interface {
	SearchSymbols(ctx context.Context, query string, packageIDs []string, limit int) ([]db.SymbolMatch, error)
}

type Searcher struct {
	index  Index
	logger *zap.Logger
}

func NewSearcher(index Index, logger *zap.Logger) *Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{index: index, logger: logger}
}

// Search finds symbols across indexed packages. Exact title matches come
// first, then prefix and final-segment matches, then substrings; ties go
// to the shorter title.
func (s *Searcher) Search(ctx context.Context, req rpc.SearchRequest) ([]rpc.SymbolResult, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", rpc.ErrBadRequest)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	s.logger.Debug("search", zap.String("query", query), zap.Strings("packages", req.Packages), zap.Int("limit", limit))

	matches, err := s.index.SearchSymbols(ctx, query, req.Packages, limit)
	if err != nil {
		return nil, fmt.Errorf("searching symbols: %w", err)
	}

	results := make([]rpc.SymbolResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, rpc.SymbolResult{
			Package:            m.PackageID,
			CanonicalReference: m.CanonicalReference,
			Route:              m.Route,
			Title:              m.Title,
			Kind:               m.Kind,
		})
	}
	return results, nil
}
