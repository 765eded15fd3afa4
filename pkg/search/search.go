// Package search implements the hybrid search engine spec §4.9
// describes on top of pkg/storage's keyword/semantic primitives and
// pkg/embedding's query embedding.
package search

import (
	"context"
	"sort"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/apierr"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/embedding"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/storage"
)

// Mode selects which underlying index(es) a Search call consults.
type Mode string

const (
	ModeSemantic Mode = "semantic"
	ModeKeyword  Mode = "keyword"
	ModeHybrid   Mode = "hybrid"
)

// rrfK is Reciprocal Rank Fusion's rank-damping constant (spec §4.9:
// "Reciprocal Rank Fusion with k=60").
const rrfK = 60

// Options configures one Search call. MinScore is a pointer so an
// explicit 0 (a legitimate "don't filter by score" value) is
// distinguishable from an omitted field, which leaves the semantic
// path at its default threshold and the keyword path unfiltered.
type Options struct {
	Mode      Mode
	Limit     int
	Framework string
	MinScore  *float64
}

// Hit is one ranked, fused search result.
type Hit struct {
	ComponentID string  `json:"componentId"`
	Slug        string  `json:"slug"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Framework   string  `json:"framework"`
	Score       float64 `json:"score"`
}

// Metadata reports which underlying indexes contributed to a result
// set (spec §4.9: "{searchMode, semanticCount?, keywordCount?}").
type Metadata struct {
	SearchMode    Mode `json:"searchMode"`
	SemanticCount *int `json:"semanticCount,omitempty"`
	KeywordCount  *int `json:"keywordCount,omitempty"`
}

// Engine runs semantic, keyword, or fused hybrid search for one org.
type Engine struct {
	store     storage.Store
	embedder  embedding.Provider
}

// New binds an Engine to a Store and an embedding provider used only
// to embed the query text for semantic/hybrid modes.
func New(store storage.Store, embedder embedding.Provider) *Engine {
	return &Engine{store: store, embedder: embedder}
}

// Search runs query against orgId's index per opts.Mode (default
// hybrid), returning results truncated to opts.Limit (default 10).
func (e *Engine) Search(ctx context.Context, orgID, query string, opts Options) ([]Hit, Metadata, error) {
	if opts.Mode == "" {
		opts.Mode = ModeHybrid
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	// An absent embedding provider only rules out modes that need a
	// query vector; keyword search is unaffected (spec §8 boundary:
	// "only valid if mode=keyword").
	if e.embedder == nil && opts.Mode != ModeKeyword {
		return nil, Metadata{}, apierr.ServiceUnavailable("embedding service unavailable for mode " + string(opts.Mode))
	}

	switch opts.Mode {
	case ModeKeyword:
		hits, err := e.searchKeyword(ctx, orgID, query, opts, limit)
		if err != nil {
			return nil, Metadata{}, err
		}
		count := len(hits)
		return hits, Metadata{SearchMode: ModeKeyword, KeywordCount: &count}, nil

	case ModeSemantic:
		hits, err := e.searchSemantic(ctx, orgID, query, opts, limit)
		if err != nil {
			return nil, Metadata{}, err
		}
		count := len(hits)
		return hits, Metadata{SearchMode: ModeSemantic, SemanticCount: &count}, nil

	default:
		return e.searchHybrid(ctx, orgID, query, opts, limit)
	}
}

func (e *Engine) searchKeyword(ctx context.Context, orgID, query string, opts Options, limit int) ([]Hit, error) {
	rows, err := e.store.SearchKeyword(ctx, orgID, query, storage.KeywordSearchOptions{
		Limit: limit, MinScore: opts.MinScore, Framework: opts.Framework,
	})
	if err != nil {
		return nil, err
	}
	return toHits(rows), nil
}

func (e *Engine) searchSemantic(ctx context.Context, orgID, query string, opts Options, limit int) ([]Hit, error) {
	vec, err := e.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	rows, err := e.store.SearchSemantic(ctx, orgID, vec, storage.SemanticSearchOptions{
		Limit: limit, MinScore: opts.MinScore, Framework: opts.Framework,
	})
	if err != nil {
		return nil, err
	}
	return toHits(rows), nil
}

// searchHybrid fetches each ranked list with the same limit a
// single-mode search uses (the semantic store query itself over-fetches
// chunks before aggregating per component) and fuses them by
// Reciprocal Rank Fusion, k=60 (spec §4.9).
func (e *Engine) searchHybrid(ctx context.Context, orgID, query string, opts Options, limit int) ([]Hit, Metadata, error) {
	semanticHits, err := e.searchSemantic(ctx, orgID, query, opts, limit)
	if err != nil {
		return nil, Metadata{}, err
	}
	keywordHits, err := e.searchKeyword(ctx, orgID, query, opts, limit)
	if err != nil {
		return nil, Metadata{}, err
	}

	fused := fuse(semanticHits, keywordHits)
	if len(fused) > limit {
		fused = fused[:limit]
	}

	semanticCount, keywordCount := len(semanticHits), len(keywordHits)
	return fused, Metadata{SearchMode: ModeHybrid, SemanticCount: &semanticCount, KeywordCount: &keywordCount}, nil
}

// fuse ranks each list 1-indexed, adds 1/(rrfK+rank) per appearance,
// and sorts by the fused score descending (spec §4.9).
func fuse(lists ...[]Hit) []Hit {
	type accum struct {
		hit   Hit
		score float64
	}
	byID := map[string]*accum{}
	var order []string

	for _, list := range lists {
		for rank, h := range list {
			a, ok := byID[h.ComponentID]
			if !ok {
				a = &accum{hit: h}
				byID[h.ComponentID] = a
				order = append(order, h.ComponentID)
			}
			a.score += 1.0 / float64(rrfK+rank+1)
		}
	}

	out := make([]Hit, 0, len(order))
	for _, id := range order {
		a := byID[id]
		a.hit.Score = a.score
		out = append(out, a.hit)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func toHits(rows []storage.SearchHit) []Hit {
	out := make([]Hit, len(rows))
	for i, r := range rows {
		out[i] = Hit{
			ComponentID: r.ComponentID, Slug: r.Slug, Name: r.Name,
			Description: r.Description, Framework: r.Framework, Score: r.Score,
		}
	}
	return out
}
