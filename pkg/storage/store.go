package storage

import (
	"context"
	"time"
)

// Store is the full relational contract the rest of the pipeline
// persists through (spec §4.8). All operations are synchronous from
// the caller's perspective and scoped by orgId wherever a row carries
// one; concurrency discipline lives in the callers (processor,
// reconciler), not here.
type Store interface {
	CreateOrg(ctx context.Context, org *Organization) error
	FindOrgByID(ctx context.Context, id string) (*Organization, error)
	ListOrgs(ctx context.Context, limit, offset int) ([]Organization, int, error)
	UpdateOrg(ctx context.Context, org *Organization) error
	DeleteOrg(ctx context.Context, id string) error

	UpsertComponent(ctx context.Context, orgID string, data *Component) (*Component, error)
	FindComponentByID(ctx context.Context, orgID, id string) (*Component, error)
	FindComponentBySlug(ctx context.Context, orgID, slug string) (*Component, error)
	FindComponentByName(ctx context.Context, orgID, name string) (*Component, error)
	DeleteComponent(ctx context.Context, orgID, id string) error
	FindMany(ctx context.Context, orgID string, filters ComponentFilters, limit, offset int, orderBy, orderDir string) ([]Component, int, error)
	FindAllManifests(ctx context.Context, orgID string, filters ManifestFilters) ([]Component, error)
	FindAllNames(ctx context.Context, orgID string) ([]string, error)

	CountByEmbeddingStatus(ctx context.Context, orgID string) (EmbeddingStatusCounts, error)
	FindPending(ctx context.Context, orgID string, limit int) ([]Component, error)
	FindAllPendingFair(ctx context.Context, limit, maxPerOrg int) ([]Component, error)
	ResetFailedToPending(ctx context.Context, orgID string) (int, error)
	ResetStaleProcessing(ctx context.Context, staleThreshold time.Duration) (int, error)
	FindByOutdatedModel(ctx context.Context, orgID, currentModel string, limit int) ([]Component, error)

	DeleteChunks(ctx context.Context, orgID, componentID string) error
	InsertChunks(ctx context.Context, rows []EmbeddingChunk) error
	CountChunks(ctx context.Context, orgID string) (int, error)
	CountChunksByType(ctx context.Context, orgID string) (map[ChunkType]int, error)

	SearchKeyword(ctx context.Context, orgID, query string, opts KeywordSearchOptions) ([]SearchHit, error)
	SearchSemantic(ctx context.Context, orgID string, queryVec []float32, opts SemanticSearchOptions) ([]SearchHit, error)

	CreateAPIKey(ctx context.Context, key *APIKey) error
	FindAPIKeyByDigest(ctx context.Context, digest string) (*APIKey, error)
}
