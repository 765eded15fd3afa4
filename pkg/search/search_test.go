package search_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/apierr"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/embedding"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/search"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/storage"
)

type fakeStore struct {
	storage.Store
	keyword  []storage.SearchHit
	semantic []storage.SearchHit
}

func (f *fakeStore) SearchKeyword(context.Context, string, string, storage.KeywordSearchOptions) ([]storage.SearchHit, error) {
	return f.keyword, nil
}

func (f *fakeStore) SearchSemantic(context.Context, string, []float32, storage.SemanticSearchOptions) ([]storage.SearchHit, error) {
	return f.semantic, nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Info() embedding.ModelInfo { return embedding.ModelInfo{Provider: "fake"} }
func (fakeEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}
func (fakeEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) { return nil, nil }

func TestEngine_KeywordMode(t *testing.T) {
	store := &fakeStore{keyword: []storage.SearchHit{{ComponentID: "a", Score: 0.9}}}
	engine := search.New(store, fakeEmbedder{})

	hits, meta, err := engine.Search(context.Background(), "org-1", "button", search.Options{Mode: search.ModeKeyword})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, search.ModeKeyword, meta.SearchMode)
	require.NotNil(t, meta.KeywordCount)
	assert.Equal(t, 1, *meta.KeywordCount)
	assert.Nil(t, meta.SemanticCount)
}

func TestEngine_HybridMode_FusesByReciprocalRank(t *testing.T) {
	store := &fakeStore{
		semantic: []storage.SearchHit{{ComponentID: "a"}, {ComponentID: "b"}},
		keyword:  []storage.SearchHit{{ComponentID: "b"}, {ComponentID: "a"}},
	}
	engine := search.New(store, fakeEmbedder{})

	hits, meta, err := engine.Search(context.Background(), "org-1", "button", search.Options{Mode: search.ModeHybrid})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, search.ModeHybrid, meta.SearchMode)

	// "a" ranks 1st semantic + 2nd keyword, "b" ranks 2nd semantic +
	// 1st keyword -- symmetric, so both must tie exactly.
	assert.InDelta(t, hits[0].Score, hits[1].Score, 1e-9)
}

func TestEngine_HybridMode_PrefersComponentRankedFirstInBothLists(t *testing.T) {
	store := &fakeStore{
		semantic: []storage.SearchHit{{ComponentID: "a"}, {ComponentID: "c"}},
		keyword:  []storage.SearchHit{{ComponentID: "a"}, {ComponentID: "b"}},
	}
	engine := search.New(store, fakeEmbedder{})

	hits, _, err := engine.Search(context.Background(), "org-1", "button", search.Options{Mode: search.ModeHybrid})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "a", hits[0].ComponentID)
}

func TestEngine_NoEmbedder_KeywordModeStillWorks(t *testing.T) {
	store := &fakeStore{keyword: []storage.SearchHit{{ComponentID: "a"}}}
	engine := search.New(store, nil)

	hits, meta, err := engine.Search(context.Background(), "org-1", "button", search.Options{Mode: search.ModeKeyword})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, search.ModeKeyword, meta.SearchMode)
}

func TestEngine_NoEmbedder_SemanticModeUnavailable(t *testing.T) {
	store := &fakeStore{}
	engine := search.New(store, nil)

	_, _, err := engine.Search(context.Background(), "org-1", "button", search.Options{Mode: search.ModeSemantic})
	assert.True(t, apierr.Is(err, apierr.KindServiceUnavailable))
}

func TestEngine_NoEmbedder_HybridModeUnavailable(t *testing.T) {
	store := &fakeStore{}
	engine := search.New(store, nil)

	_, _, err := engine.Search(context.Background(), "org-1", "button", search.Options{Mode: search.ModeHybrid})
	assert.True(t, apierr.Is(err, apierr.KindServiceUnavailable))
}

func TestEngine_DefaultModeIsHybrid(t *testing.T) {
	store := &fakeStore{semantic: []storage.SearchHit{{ComponentID: "a"}}, keyword: []storage.SearchHit{{ComponentID: "a"}}}
	engine := search.New(store, fakeEmbedder{})

	_, meta, err := engine.Search(context.Background(), "org-1", "button", search.Options{})
	require.NoError(t, err)
	assert.Equal(t, search.ModeHybrid, meta.SearchMode)
}
