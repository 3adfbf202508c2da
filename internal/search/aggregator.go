// Package search implements the multi-kind search fan-out and rank merge.
//
// One ranked query is issued per requested kind, concurrently, against the
// store's per-kind namespaces. The per-kind result sets are flattened and
// re-ranked as a single sequence so scores compete across kind boundaries,
// then truncated to the requested limit.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/fyrsmithlabs/entityd/internal/entity"
	"github.com/fyrsmithlabs/entityd/internal/store"
	"go.uber.org/zap"
)

const defaultLimit = 10

// ErrEmptyQuery is returned when a search request carries no query text.
var ErrEmptyQuery = errors.New("query is required")

// Request parameterizes one aggregate search.
type Request struct {
	// Query is the free-text query. Required.
	Query string

	// Kinds restricts the search to the named kinds. Unknown tokens are
	// dropped; an empty list means every known kind.
	Kinds []string

	// Filters are equality constraints applied to every per-kind query.
	Filters map[string]any

	// Limit caps the merged result count. Zero means 10.
	Limit int

	// Mode selects the store's ranking mode. Empty means hybrid.
	Mode string
}

// Response is the merged, globally ranked result of one aggregate search.
type Response struct {
	Query string `json:"query"`

	// Types is the effective kind list actually searched, after unknown
	// tokens were dropped.
	Types []string `json:"types"`

	// Total counts the merged results before truncation.
	Total int `json:"total"`

	Results []entity.Record `json:"results"`

	// Failed names kinds whose queries errored. Their contribution is
	// empty; the rest of the response is still valid.
	Failed []string `json:"failed_types,omitempty"`
}

// Aggregator fans a query out across entity kinds and merges the rankings.
type Aggregator struct {
	store  store.Store
	logger *zap.Logger
}

// NewAggregator creates a search aggregator backed by st.
func NewAggregator(st store.Store, logger *zap.Logger) (*Aggregator, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{store: st, logger: logger}, nil
}

// Search runs one aggregate search. A kind whose query fails contributes
// nothing and is reported in Response.Failed; the request as a whole only
// fails on empty query text.
func (a *Aggregator) Search(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyQuery
	}

	kinds := resolveKinds(req.Kinds)
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		merged []entity.Record
		failed []string
	)

	for _, kind := range kinds {
		wg.Add(1)
		go func(kind entity.Kind) {
			defer wg.Done()

			res, err := a.store.Search(ctx, kind, store.SearchOptions{
				Query:   req.Query,
				Filters: req.Filters,
				Limit:   limit,
				Mode:    req.Mode,
			})

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				a.logger.Warn("per-kind search failed",
					zap.String("kind", kind.String()),
					zap.Error(err))
				failed = append(failed, kind.String())
				return
			}
			merged = append(merged, res.Results...)
		}(kind)
	}
	wg.Wait()

	rankMerge(merged)

	total := len(merged)
	if len(merged) > limit {
		merged = merged[:limit]
	}
	sort.Strings(failed)

	types := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		types = append(types, kind.String())
	}

	return &Response{
		Query:   req.Query,
		Types:   types,
		Total:   total,
		Results: merged,
		Failed:  failed,
	}, nil
}

// resolveKinds maps caller tokens to the effective kind list. Unknown tokens
// are silently dropped; an empty result of that filtering, or no tokens at
// all, means every search kind.
func resolveKinds(tokens []string) []entity.Kind {
	kinds := make([]entity.Kind, 0, len(tokens))
	for _, t := range tokens {
		if k, ok := entity.ParseKind(t); ok {
			kinds = append(kinds, k)
		}
	}
	if len(kinds) == 0 {
		return entity.SearchKinds()
	}
	return kinds
}

// rankMerge orders the whole merged sequence: score descending when both
// items are scored, otherwise updated_at descending. A record with no
// parseable updated_at carries the zero time and sorts after every
// timestamped one.
func rankMerge(recs []entity.Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		si, iok := recs[i].Score()
		sj, jok := recs[j].Score()
		if iok && jok && si != sj {
			return si > sj
		}
		return recs[i].UpdatedAt().After(recs[j].UpdatedAt())
	})
}
