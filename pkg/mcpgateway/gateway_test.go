package mcpgateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/apierr"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/auth"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/storage"
)

// fakeStore implements only the storage.Store methods this package's
// handlers exercise; every other call panics via the embedded nil
// interface, the same partial-fake idiom pkg/auth and pkg/httpapi use.
type fakeStore struct {
	storage.Store
	components map[string]*storage.Component
	keys       map[string]*storage.APIKey
}

func newFakeStore() *fakeStore {
	return &fakeStore{components: map[string]*storage.Component{}, keys: map[string]*storage.APIKey{}}
}

func (f *fakeStore) FindComponentByID(_ context.Context, orgID, id string) (*storage.Component, error) {
	c, ok := f.components[id]
	if !ok || c.OrgID != orgID {
		return nil, storage.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) FindComponentBySlug(_ context.Context, orgID, slug string) (*storage.Component, error) {
	for _, c := range f.components {
		if c.OrgID == orgID && c.Slug == slug {
			return c, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) FindAPIKeyByDigest(_ context.Context, digest string) (*storage.APIKey, error) {
	k, ok := f.keys[digest]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return k, nil
}

func newTestGateway(t *testing.T) (*Gateway, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	validator := auth.NewValidator(store, "test-secret", "")
	g := New(store, nil, validator, Config{})
	return g, store
}

func TestAuthenticate_MissingBearerPrefix_ReturnsUnauthorized(t *testing.T) {
	g, _ := newTestGateway(t)
	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "token-without-bearer-prefix")

	_, err := g.authenticate(req)

	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.KindUnauthorized))
}

func TestAuthenticate_InvalidToken_ReturnsUnauthorized(t *testing.T) {
	g, _ := newTestGateway(t)
	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer ce_bogus")

	_, err := g.authenticate(req)

	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.KindUnauthorized))
}

func TestAuthenticate_PlatformToken_Forbidden(t *testing.T) {
	store := newFakeStore()
	validator := auth.NewValidator(store, "test-secret", "cep_platform")
	g := New(store, nil, validator, Config{})

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer cep_platform")

	_, err := g.authenticate(req)

	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.KindForbidden))
}

func TestApplyCORS_StrictMode_RejectsUnlistedOrigin(t *testing.T) {
	g, _ := newTestGateway(t)
	g.cfg.CORSMode = "strict"
	g.cfg.AllowedOrigins = []string{"https://allowed.example"}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/mcp", nil)
	req.Header.Set("Origin", "https://evil.example")

	g.applyCORS(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestApplyCORS_StrictMode_AllowsListedOrigin(t *testing.T) {
	g, _ := newTestGateway(t)
	g.cfg.CORSMode = "strict"
	g.cfg.AllowedOrigins = []string{"https://allowed.example"}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/mcp", nil)
	req.Header.Set("Origin", "https://allowed.example")

	g.applyCORS(rec, req)

	assert.Equal(t, "https://allowed.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestApplyCORS_OpenMode_ReflectsAnyOrigin(t *testing.T) {
	g, _ := newTestGateway(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/mcp", nil)
	req.Header.Set("Origin", "https://anything.example")

	g.applyCORS(rec, req)

	assert.Equal(t, "https://anything.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestResolveComponent_ByIDThenSlugFallback(t *testing.T) {
	g, store := newTestGateway(t)
	store.components["comp-1"] = &storage.Component{ID: "comp-1", OrgID: "org-1", Slug: "my-button"}

	byID, err := g.resolveComponent(context.Background(), "org-1", "comp-1")
	require.NoError(t, err)
	assert.Equal(t, "comp-1", byID.ID)

	bySlug, err := g.resolveComponent(context.Background(), "org-1", "my-button")
	require.NoError(t, err)
	assert.Equal(t, "comp-1", bySlug.ID)
}

func TestResolveComponent_NotFound(t *testing.T) {
	g, _ := newTestGateway(t)

	_, err := g.resolveComponent(context.Background(), "org-1", "missing")

	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.KindNotFound))
}

func TestResolveComponent_WrongOrgIsNotFound(t *testing.T) {
	g, store := newTestGateway(t)
	store.components["comp-1"] = &storage.Component{ID: "comp-1", OrgID: "org-2", Slug: "my-button"}

	_, err := g.resolveComponent(context.Background(), "org-1", "comp-1")

	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.KindNotFound))
}

func TestRPCCode_MapsKindsPerSpec(t *testing.T) {
	assert.Equal(t, -32001, rpcCode(apierr.Unauthorized("x")))
	assert.Equal(t, -32001, rpcCode(apierr.Forbidden("x")))
	assert.Equal(t, -32602, rpcCode(apierr.Validation("x", nil)))
	assert.Equal(t, -32000, rpcCode(apierr.NotFound("x")))
	assert.Equal(t, -32603, rpcCode(apierr.Internal("x", nil)))
}

func TestWriteJSONRPCError_SetsStatusAndBody(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSONRPCError(rec, apierr.Forbidden("nope"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":-32001`)
	assert.Contains(t, rec.Body.String(), "nope")
}
