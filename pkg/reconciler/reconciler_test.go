package reconciler_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/embedding"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/manifest"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/reconciler"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/storage"
)

type memStore struct {
	mu      sync.Mutex
	rows    map[string]*storage.Component
	pending []storage.Component
	chunks  map[string][]storage.EmbeddingChunk
}

func newMemStore(pending []storage.Component) *memStore {
	s := &memStore{rows: map[string]*storage.Component{}, chunks: map[string][]storage.EmbeddingChunk{}}
	for _, row := range pending {
		cp := row
		s.rows[row.ID] = &cp
	}
	s.pending = pending
	return s
}

func (s *memStore) UpsertComponent(_ context.Context, orgID string, data *storage.Component) (*storage.Component, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data.OrgID = orgID
	cp := *data
	s.rows[data.ID] = &cp
	out := cp
	return &out, nil
}

func (s *memStore) FindComponentByID(_ context.Context, _ string, id string) (*storage.Component, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.rows[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *c
	return &out, nil
}

func (s *memStore) FindAllPendingFair(context.Context, int, int) ([]storage.Component, error) {
	return s.pending, nil
}

func (s *memStore) DeleteChunks(_ context.Context, _, componentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, componentID)
	return nil
}

func (s *memStore) InsertChunks(_ context.Context, rows []storage.EmbeddingChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		s.chunks[r.ComponentID] = append(s.chunks[r.ComponentID], r)
	}
	return nil
}

func (s *memStore) ResetFailedToPending(_ context.Context, _ string) (int, error) { return 0, nil }
func (s *memStore) ResetStaleProcessing(context.Context, time.Duration) (int, error) {
	return 0, nil
}
func (s *memStore) FindByOutdatedModel(context.Context, string, string, int) ([]storage.Component, error) {
	return nil, nil
}

// Unused Store methods, stubbed.
func (s *memStore) CreateOrg(context.Context, *storage.Organization) error { return nil }
func (s *memStore) FindOrgByID(context.Context, string) (*storage.Organization, error) {
	return nil, storage.ErrNotFound
}
func (s *memStore) ListOrgs(context.Context, int, int) ([]storage.Organization, int, error) {
	return nil, 0, nil
}
func (s *memStore) UpdateOrg(context.Context, *storage.Organization) error { return nil }
func (s *memStore) DeleteOrg(context.Context, string) error                { return nil }
func (s *memStore) FindComponentBySlug(context.Context, string, string) (*storage.Component, error) {
	return nil, storage.ErrNotFound
}
func (s *memStore) FindComponentByName(context.Context, string, string) (*storage.Component, error) {
	return nil, storage.ErrNotFound
}
func (s *memStore) DeleteComponent(context.Context, string, string) error { return nil }
func (s *memStore) FindMany(context.Context, string, storage.ComponentFilters, int, int, string, string) ([]storage.Component, int, error) {
	return nil, 0, nil
}
func (s *memStore) FindAllManifests(context.Context, string, storage.ManifestFilters) ([]storage.Component, error) {
	return nil, nil
}
func (s *memStore) FindAllNames(context.Context, string) ([]string, error) { return nil, nil }
func (s *memStore) CountByEmbeddingStatus(context.Context, string) (storage.EmbeddingStatusCounts, error) {
	return storage.EmbeddingStatusCounts{}, nil
}
func (s *memStore) FindPending(context.Context, string, int) ([]storage.Component, error) {
	return nil, nil
}
func (s *memStore) CountChunks(context.Context, string) (int, error) { return 0, nil }
func (s *memStore) CountChunksByType(context.Context, string) (map[storage.ChunkType]int, error) {
	return nil, nil
}
func (s *memStore) SearchKeyword(context.Context, string, string, storage.KeywordSearchOptions) ([]storage.SearchHit, error) {
	return nil, nil
}
func (s *memStore) SearchSemantic(context.Context, string, []float32, storage.SemanticSearchOptions) ([]storage.SearchHit, error) {
	return nil, nil
}
func (s *memStore) CreateAPIKey(context.Context, *storage.APIKey) error { return nil }
func (s *memStore) FindAPIKeyByDigest(context.Context, string) (*storage.APIKey, error) {
	return nil, storage.ErrNotFound
}

var _ storage.Store = (*memStore)(nil)

type fakeEmbedder struct{ fail bool }

func (f *fakeEmbedder) Info() embedding.ModelInfo {
	return embedding.ModelInfo{Provider: "fake", Model: "fake-1", Dimensions: 2}
}
func (f *fakeEmbedder) EmbedQuery(context.Context, string) ([]float32, error) { return []float32{0, 0}, nil }
func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if f.fail {
		return nil, assert.AnError
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func componentWithManifest(t *testing.T, id string) storage.Component {
	t.Helper()
	m := manifest.AIManifest{
		Name:            "Button",
		Slug:            "button-react-aaaaaaaa",
		Description:     "A clickable button.",
		ImportStatement: manifest.ImportStatement{Primary: "import { Button } from '@acme/ui'"},
	}
	raw, err := json.Marshal(m)
	require.NoError(t, err)
	return storage.Component{ID: id, OrgID: "org-1", Name: "Button", Manifest: raw, EmbeddingStatus: storage.EmbeddingPending}
}

func TestReconciler_ProcessPending_IndexesSuccessfully(t *testing.T) {
	row := componentWithManifest(t, "c1")
	store := newMemStore([]storage.Component{row})
	r := reconciler.New(store, &fakeEmbedder{}, reconciler.Config{Concurrency: 2})

	result, err := r.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 0, result.Failed)

	saved, err := store.FindComponentByID(context.Background(), "org-1", "c1")
	require.NoError(t, err)
	assert.Equal(t, storage.EmbeddingIndexed, saved.EmbeddingStatus)
	require.NotNil(t, saved.EmbeddingModel)
	assert.Equal(t, "fake", saved.EmbeddingModel.Provider)
	assert.NotEmpty(t, store.chunks["c1"])
}

func TestReconciler_ProcessPending_MarksFailedOnEmbedError(t *testing.T) {
	row := componentWithManifest(t, "c1")
	store := newMemStore([]storage.Component{row})
	r := reconciler.New(store, &fakeEmbedder{fail: true}, reconciler.Config{Concurrency: 2})

	result, err := r.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Succeeded)
	assert.Equal(t, 1, result.Failed)

	saved, err := store.FindComponentByID(context.Background(), "org-1", "c1")
	require.NoError(t, err)
	assert.Equal(t, storage.EmbeddingFailed, saved.EmbeddingStatus)
	assert.NotEmpty(t, saved.EmbeddingError)
}

func TestReconciler_ForceReindex(t *testing.T) {
	row := componentWithManifest(t, "c1")
	row.EmbeddingStatus = storage.EmbeddingIndexed
	store := newMemStore(nil)
	_, err := store.UpsertComponent(context.Background(), "org-1", &row)
	require.NoError(t, err)

	r := reconciler.New(store, &fakeEmbedder{}, reconciler.Config{})
	chunksCreated, err := r.ForceReindex(context.Background(), "org-1", "c1")
	require.NoError(t, err)
	assert.Positive(t, chunksCreated)

	saved, err := store.FindComponentByID(context.Background(), "org-1", "c1")
	require.NoError(t, err)
	assert.Equal(t, storage.EmbeddingIndexed, saved.EmbeddingStatus)
}
