package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/auth"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/embedding"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/httpapi"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/manifest"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/processor"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/reconciler"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/search"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/storage"
)

type fakeStore struct {
	components map[string]*storage.Component
	apiKeys    map[string]*storage.APIKey
}

func newFakeStore() *fakeStore {
	return &fakeStore{components: map[string]*storage.Component{}, apiKeys: map[string]*storage.APIKey{}}
}

func (f *fakeStore) CreateOrg(context.Context, *storage.Organization) error { return nil }
func (f *fakeStore) FindOrgByID(context.Context, string) (*storage.Organization, error) {
	return nil, storage.ErrNotFound
}
func (f *fakeStore) ListOrgs(context.Context, int, int) ([]storage.Organization, int, error) {
	return nil, 0, nil
}
func (f *fakeStore) UpdateOrg(context.Context, *storage.Organization) error { return nil }
func (f *fakeStore) DeleteOrg(context.Context, string) error                { return nil }

func (f *fakeStore) UpsertComponent(_ context.Context, orgID string, data *storage.Component) (*storage.Component, error) {
	data.OrgID = orgID
	cp := *data
	f.components[data.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeStore) FindComponentByID(_ context.Context, orgID, id string) (*storage.Component, error) {
	c, ok := f.components[id]
	if !ok || c.OrgID != orgID {
		return nil, storage.ErrNotFound
	}
	out := *c
	return &out, nil
}

func (f *fakeStore) FindComponentBySlug(_ context.Context, orgID, slug string) (*storage.Component, error) {
	for _, c := range f.components {
		if c.OrgID == orgID && c.Slug == slug {
			out := *c
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) FindComponentByName(context.Context, string, string) (*storage.Component, error) {
	return nil, storage.ErrNotFound
}

func (f *fakeStore) DeleteComponent(_ context.Context, orgID, id string) error {
	c, ok := f.components[id]
	if !ok || c.OrgID != orgID {
		return storage.ErrNotFound
	}
	delete(f.components, id)
	return nil
}

func (f *fakeStore) FindMany(_ context.Context, orgID string, _ storage.ComponentFilters, _, _ int, _, _ string) ([]storage.Component, int, error) {
	var out []storage.Component
	for _, c := range f.components {
		if c.OrgID == orgID {
			out = append(out, *c)
		}
	}
	return out, len(out), nil
}

func (f *fakeStore) FindAllManifests(context.Context, string, storage.ManifestFilters) ([]storage.Component, error) {
	return nil, nil
}
func (f *fakeStore) FindAllNames(_ context.Context, orgID string) ([]string, error) {
	var out []string
	for _, c := range f.components {
		if c.OrgID == orgID {
			out = append(out, c.Name)
		}
	}
	return out, nil
}

func (f *fakeStore) CountByEmbeddingStatus(context.Context, string) (storage.EmbeddingStatusCounts, error) {
	return storage.EmbeddingStatusCounts{}, nil
}
func (f *fakeStore) FindPending(context.Context, string, int) ([]storage.Component, error) {
	return nil, nil
}
func (f *fakeStore) FindAllPendingFair(context.Context, int, int) ([]storage.Component, error) {
	return nil, nil
}
func (f *fakeStore) ResetFailedToPending(context.Context, string) (int, error) { return 0, nil }
func (f *fakeStore) ResetStaleProcessing(context.Context, time.Duration) (int, error) {
	return 0, nil
}
func (f *fakeStore) FindByOutdatedModel(context.Context, string, string, int) ([]storage.Component, error) {
	return nil, nil
}

func (f *fakeStore) DeleteChunks(context.Context, string, string) error   { return nil }
func (f *fakeStore) InsertChunks(context.Context, []storage.EmbeddingChunk) error { return nil }
func (f *fakeStore) CountChunks(context.Context, string) (int, error)     { return 0, nil }
func (f *fakeStore) CountChunksByType(context.Context, string) (map[storage.ChunkType]int, error) {
	return nil, nil
}

func (f *fakeStore) SearchKeyword(context.Context, string, string, storage.KeywordSearchOptions) ([]storage.SearchHit, error) {
	return nil, nil
}
func (f *fakeStore) SearchSemantic(context.Context, string, []float32, storage.SemanticSearchOptions) ([]storage.SearchHit, error) {
	return nil, nil
}

func (f *fakeStore) CreateAPIKey(_ context.Context, key *storage.APIKey) error {
	f.apiKeys[key.KeyDigest] = key
	return nil
}
func (f *fakeStore) FindAPIKeyByDigest(_ context.Context, digest string) (*storage.APIKey, error) {
	k, ok := f.apiKeys[digest]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return k, nil
}

var _ storage.Store = (*fakeStore)(nil)

type fakeEmbedder struct{}

func (fakeEmbedder) Info() embedding.ModelInfo { return embedding.ModelInfo{Provider: "fake", Model: "fake-1"} }
func (fakeEmbedder) EmbedQuery(context.Context, string) ([]float32, error) { return []float32{0.1}, nil }
func (fakeEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) { return nil, nil }

func newTestServer(t *testing.T) (*httpapi.Server, *fakeStore, string) {
	t.Helper()
	store := newFakeStore()
	validator := auth.NewValidator(store, "test-secret", "")

	raw := "ce_testkey"
	digest := validator.Digest(raw)
	require.NoError(t, store.CreateAPIKey(context.Background(), &storage.APIKey{
		ID: "key-1", OrgID: "org-1", KeyDigest: digest, Active: true,
		Scopes: []storage.APIKeyScope{storage.ScopeComponentRead, storage.ScopeComponentWrite, storage.ScopeComponentDelete, storage.ScopeEmbeddingManage},
	}))

	proc := processor.New(store, nil, manifest.Config{DefaultPackage: "@acme/ui"})
	recon := reconciler.New(store, fakeEmbedder{}, reconciler.Config{})
	engine := search.New(store, fakeEmbedder{})

	srv := httpapi.New(store, proc, recon, engine, validator, httpapi.Config{})
	return srv, store, raw
}

func doRequest(srv *httpapi.Server, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth_MissingToken_Returns401(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/v1/organizations/org-1/components", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_InvalidToken_Returns401(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/v1/organizations/org-1/components", "ce_wrong", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireScope_OrgMismatch_Returns403(t *testing.T) {
	srv, _, token := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/v1/organizations/org-2/components", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpsertComponent_CreatesWith201(t *testing.T) {
	srv, _, token := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/api/v1/organizations/org-1/components", token, map[string]any{
		"name": "Button", "framework": "react",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp["success"].(bool))
}

func TestGetComponent_NotFound_Returns404(t *testing.T) {
	srv, _, token := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/v1/organizations/org-1/components/does-not-exist", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListComponents_ReturnsCreatedRows(t *testing.T) {
	srv, store, token := newTestServer(t)
	require.NoError(t, func() error {
		_, err := store.UpsertComponent(context.Background(), "org-1", &storage.Component{ID: "c1", Name: "Button", Slug: "button-react-aaaaaaaa"})
		return err
	}())

	rec := doRequest(srv, http.MethodGet, "/api/v1/organizations/org-1/components", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Total int `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Data.Total)
}

func TestGenerate_NoGeneratorConfigured_Returns503(t *testing.T) {
	srv, store, token := newTestServer(t)
	_, err := store.UpsertComponent(context.Background(), "org-1", &storage.Component{
		ID: "c1", Name: "Button", Slug: "button-react-aaaaaaaa", Extraction: []byte(`{}`),
	})
	require.NoError(t, err)

	rec := doRequest(srv, http.MethodPost, "/api/v1/organizations/org-1/processing/generate", token, map[string]any{
		"componentId": "c1",
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSearch_QueryTooLong_Returns400(t *testing.T) {
	srv, _, token := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/api/v1/organizations/org-1/search", token, map[string]any{
		"query": string(make([]byte, 501)),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
