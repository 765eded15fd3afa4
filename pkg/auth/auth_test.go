package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/auth"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/storage"
)

type fakeStore struct {
	storage.Store
	keys map[string]*storage.APIKey
}

func newFakeStore() *fakeStore { return &fakeStore{keys: map[string]*storage.APIKey{}} }

func (f *fakeStore) FindAPIKeyByDigest(_ context.Context, digest string) (*storage.APIKey, error) {
	k, ok := f.keys[digest]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return k, nil
}

func TestValidator_PlatformToken(t *testing.T) {
	v := auth.NewValidator(newFakeStore(), "s3cret", "cep_platform-admin")

	ctx, err := v.Validate(context.Background(), "cep_platform-admin")
	require.NoError(t, err)
	assert.Equal(t, auth.KindPlatform, ctx.Kind)
	assert.False(t, ctx.HasScope(storage.ScopeAdmin))
}

func TestValidator_PlatformToken_WrongValueRejected(t *testing.T) {
	v := auth.NewValidator(newFakeStore(), "s3cret", "cep_platform-admin")

	_, err := v.Validate(context.Background(), "cep_not-the-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestValidator_PlatformToken_NotConfigured(t *testing.T) {
	v := auth.NewValidator(newFakeStore(), "s3cret", "")

	_, err := v.Validate(context.Background(), "cep_anything")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestValidator_TenantToken_Valid(t *testing.T) {
	store := newFakeStore()
	v := auth.NewValidator(store, "s3cret", "")

	raw := "ce_abc123"
	digest := v.Digest(raw)
	store.keys[digest] = &storage.APIKey{
		ID: "key-1", OrgID: "org-1", KeyDigest: digest, Active: true,
		Scopes: []storage.APIKeyScope{storage.ScopeComponentRead, storage.ScopeComponentWrite},
	}

	ctx, err := v.Validate(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, auth.KindTenant, ctx.Kind)
	assert.Equal(t, "org-1", ctx.OrgID)
	assert.Equal(t, "key-1", ctx.APIKeyID)
	assert.True(t, ctx.HasScope(storage.ScopeComponentRead))
	assert.False(t, ctx.HasScope(storage.ScopeEmbeddingManage))
}

func TestValidator_TenantToken_UnknownDigestRejected(t *testing.T) {
	store := newFakeStore()
	v := auth.NewValidator(store, "s3cret", "")

	_, err := v.Validate(context.Background(), "ce_never-issued")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestValidator_TenantToken_InactiveRejected(t *testing.T) {
	store := newFakeStore()
	v := auth.NewValidator(store, "s3cret", "")

	raw := "ce_abc123"
	digest := v.Digest(raw)
	store.keys[digest] = &storage.APIKey{ID: "key-1", OrgID: "org-1", KeyDigest: digest, Active: false}

	_, err := v.Validate(context.Background(), raw)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestValidator_TenantToken_ExpiredRejected(t *testing.T) {
	store := newFakeStore()
	v := auth.NewValidator(store, "s3cret", "")

	raw := "ce_abc123"
	digest := v.Digest(raw)
	past := time.Now().Add(-time.Hour)
	store.keys[digest] = &storage.APIKey{ID: "key-1", OrgID: "org-1", KeyDigest: digest, Active: true, ExpiresAt: &past}

	_, err := v.Validate(context.Background(), raw)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestValidator_TenantToken_FutureExpiryAccepted(t *testing.T) {
	store := newFakeStore()
	v := auth.NewValidator(store, "s3cret", "")

	raw := "ce_abc123"
	digest := v.Digest(raw)
	future := time.Now().Add(time.Hour)
	store.keys[digest] = &storage.APIKey{ID: "key-1", OrgID: "org-1", KeyDigest: digest, Active: true, ExpiresAt: &future}

	_, err := v.Validate(context.Background(), raw)
	require.NoError(t, err)
}

func TestValidator_UnrecognizedPrefixRejected(t *testing.T) {
	v := auth.NewValidator(newFakeStore(), "s3cret", "")

	_, err := v.Validate(context.Background(), "sk-something-else")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestValidator_AdminScopeSatisfiesAnyScope(t *testing.T) {
	store := newFakeStore()
	v := auth.NewValidator(store, "s3cret", "")

	raw := "ce_abc123"
	digest := v.Digest(raw)
	store.keys[digest] = &storage.APIKey{
		ID: "key-1", OrgID: "org-1", KeyDigest: digest, Active: true,
		Scopes: []storage.APIKeyScope{storage.ScopeAdmin},
	}

	ctx, err := v.Validate(context.Background(), raw)
	require.NoError(t, err)
	assert.True(t, ctx.HasScope(storage.ScopeComponentDelete))
	assert.True(t, ctx.HasAllScopes([]storage.APIKeyScope{storage.ScopeComponentRead, storage.ScopeEmbeddingManage}))
}

func TestContext_HasAllScopes_EmptySetIsVacuouslyTrueForTenant(t *testing.T) {
	ctx := auth.Context{Kind: auth.KindTenant, Scopes: []string{}}
	assert.True(t, ctx.HasAllScopes(nil))
}

func TestContext_HasAllScopes_PlatformNeverSatisfies(t *testing.T) {
	ctx := auth.Context{Kind: auth.KindPlatform, Scopes: []string{auth.PlatformAdminScope}}
	assert.False(t, ctx.HasAllScopes(nil))
	assert.False(t, ctx.HasScope(storage.ScopeComponentRead))
}

func TestContext_HasScope_MissingScopeRejected(t *testing.T) {
	ctx := auth.Context{Kind: auth.KindTenant, Scopes: []string{string(storage.ScopeComponentRead)}}
	assert.False(t, ctx.HasScope(storage.ScopeComponentWrite))
}
