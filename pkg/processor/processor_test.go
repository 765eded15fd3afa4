package processor_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/apierr"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/extractor"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/generator"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/manifest"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/processor"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/storage"
)

// memStore is a minimal in-process storage.Store double, modeled on
// the teacher's own InMemorySessionStore: a mutex-guarded map, no
// query planning, just enough behavior to exercise the processor.
type memStore struct {
	byID map[string]*storage.Component
}

func newMemStore() *memStore { return &memStore{byID: map[string]*storage.Component{}} }

func (m *memStore) UpsertComponent(_ context.Context, orgID string, data *storage.Component) (*storage.Component, error) {
	data.OrgID = orgID
	cp := *data
	m.byID[data.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memStore) FindComponentByID(_ context.Context, _ string, id string) (*storage.Component, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *c
	return &out, nil
}

func (m *memStore) FindComponentBySlug(_ context.Context, _ string, slug string) (*storage.Component, error) {
	for _, c := range m.byID {
		if c.Slug == slug {
			out := *c
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) DeleteChunks(context.Context, string, string) error { return nil }

// The remaining Store methods are unused by the processor and are
// stubbed to satisfy the interface.
func (m *memStore) CreateOrg(context.Context, *storage.Organization) error { return nil }
func (m *memStore) FindOrgByID(context.Context, string) (*storage.Organization, error) {
	return nil, storage.ErrNotFound
}
func (m *memStore) ListOrgs(context.Context, int, int) ([]storage.Organization, int, error) {
	return nil, 0, nil
}
func (m *memStore) UpdateOrg(context.Context, *storage.Organization) error { return nil }
func (m *memStore) DeleteOrg(context.Context, string) error                { return nil }
func (m *memStore) FindComponentByName(context.Context, string, string) (*storage.Component, error) {
	return nil, storage.ErrNotFound
}
func (m *memStore) DeleteComponent(context.Context, string, string) error { return nil }
func (m *memStore) FindMany(context.Context, string, storage.ComponentFilters, int, int, string, string) ([]storage.Component, int, error) {
	return nil, 0, nil
}
func (m *memStore) FindAllManifests(context.Context, string, storage.ManifestFilters) ([]storage.Component, error) {
	return nil, nil
}
func (m *memStore) FindAllNames(context.Context, string) ([]string, error) { return nil, nil }
func (m *memStore) CountByEmbeddingStatus(context.Context, string) (storage.EmbeddingStatusCounts, error) {
	return storage.EmbeddingStatusCounts{}, nil
}
func (m *memStore) FindPending(context.Context, string, int) ([]storage.Component, error) {
	return nil, nil
}
func (m *memStore) FindAllPendingFair(context.Context, int, int) ([]storage.Component, error) {
	return nil, nil
}
func (m *memStore) ResetFailedToPending(context.Context, string) (int, error) { return 0, nil }
func (m *memStore) ResetStaleProcessing(context.Context, time.Duration) (int, error) {
	return 0, nil
}
func (m *memStore) FindByOutdatedModel(context.Context, string, string, int) ([]storage.Component, error) {
	return nil, nil
}
func (m *memStore) InsertChunks(context.Context, []storage.EmbeddingChunk) error { return nil }
func (m *memStore) CountChunks(context.Context, string) (int, error)             { return 0, nil }
func (m *memStore) CountChunksByType(context.Context, string) (map[storage.ChunkType]int, error) {
	return nil, nil
}
func (m *memStore) SearchKeyword(context.Context, string, string, storage.KeywordSearchOptions) ([]storage.SearchHit, error) {
	return nil, nil
}
func (m *memStore) SearchSemantic(context.Context, string, []float32, storage.SemanticSearchOptions) ([]storage.SearchHit, error) {
	return nil, nil
}
func (m *memStore) CreateAPIKey(context.Context, *storage.APIKey) error { return nil }
func (m *memStore) FindAPIKeyByDigest(context.Context, string) (*storage.APIKey, error) {
	return nil, storage.ErrNotFound
}

var _ storage.Store = (*memStore)(nil)

func TestProcessor_ExtractUpsertsBySlug(t *testing.T) {
	store := newMemStore()
	p := processor.New(store, nil, manifest.Config{DefaultPackage: "@acme/ui"})

	saved, diag, err := p.Extract(context.Background(), processor.ExtractRequest{
		OrgID:      "org-1",
		Name:       "Button",
		Framework:  extractor.FrameworkReact,
		SourceCode: "export interface ButtonProps { label: string; }\nexport function Button(props: ButtonProps) { return null; }",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.Slug)
	assert.Contains(t, saved.Slug, "button-react-")
	assert.NotEmpty(t, saved.Extraction)
	assert.Equal(t, storage.EmbeddingPending, saved.EmbeddingStatus)
	assert.NotEmpty(t, diag.Method)

	// re-extracting the same source should upsert the same row, not
	// create a duplicate.
	saved2, _, err := p.Extract(context.Background(), processor.ExtractRequest{
		OrgID:      "org-1",
		Name:       "Button",
		Framework:  extractor.FrameworkReact,
		SourceCode: "export interface ButtonProps { label: string; }\nexport function Button(props: ButtonProps) { return null; }",
	})
	require.NoError(t, err)
	assert.Equal(t, saved.ID, saved2.ID)
}

func TestProcessor_GenerateWithoutGeneratorIsServiceUnavailable(t *testing.T) {
	store := newMemStore()
	p := processor.New(store, nil, manifest.Config{})

	c := &storage.Component{ID: "c1", Name: "Button", Slug: "button-react-aaaaaaaa"}
	_, err := store.UpsertComponent(context.Background(), "org-1", c)
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "org-1", "c1", generator.Hints{})
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.KindServiceUnavailable))
}

func TestProcessor_BuildResetsEmbeddingStatusOnManifestChange(t *testing.T) {
	store := newMemStore()
	p := processor.New(store, nil, manifest.Config{DefaultPackage: "@acme/ui"})

	data := extractor.ExtractedData{Props: []extractor.Prop{{Name: "label", Type: "string", Required: true}}}
	extractionJSON, err := json.Marshal(data)
	require.NoError(t, err)

	c := &storage.Component{
		ID: "c1", Name: "Button", Slug: "button-react-aaaaaaaa", Framework: "react",
		Extraction: extractionJSON, EmbeddingStatus: storage.EmbeddingIndexed,
	}
	_, err = store.UpsertComponent(context.Background(), "org-1", c)
	require.NoError(t, err)

	saved, err := p.Build(context.Background(), "org-1", "c1", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.Manifest)
	assert.Equal(t, storage.EmbeddingPending, saved.EmbeddingStatus)
}

func TestProcessor_BuildWithoutExtractionIsValidationError(t *testing.T) {
	store := newMemStore()
	p := processor.New(store, nil, manifest.Config{})

	c := &storage.Component{ID: "c1", Name: "Button", Slug: "button-react-aaaaaaaa"}
	_, err := store.UpsertComponent(context.Background(), "org-1", c)
	require.NoError(t, err)

	_, err = p.Build(context.Background(), "org-1", "c1", nil)
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.KindValidation))
}
