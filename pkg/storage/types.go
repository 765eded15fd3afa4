// Package storage defines the relational domain model and the Store
// contract the rest of the pipeline persists through (spec §4.8).
// Multi-tenancy is row-level: every Component and EmbeddingChunk
// carries an OrgID, and every Store operation is scoped by it.
package storage

import (
	"encoding/json"
	"errors"
	"time"
)

// Sentinel errors every Store implementation returns for the
// conditions the caller needs to branch on.
var (
	ErrNotFound       = errors.New("storage: not found")
	ErrOrgHasChildren = errors.New("storage: organization still referenced by components")
)

// Visibility is a Component's sharing scope.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityOrg     Visibility = "org"
	VisibilityPublic  Visibility = "public"
)

// EmbeddingStatus tracks a Component's position in the
// extract/generate/build → chunk → embed pipeline (spec §3, §4.10).
type EmbeddingStatus string

const (
	EmbeddingPending    EmbeddingStatus = "pending"
	EmbeddingProcessing EmbeddingStatus = "processing"
	EmbeddingIndexed    EmbeddingStatus = "indexed"
	EmbeddingFailed     EmbeddingStatus = "failed"
)

// Organization is the root of every tenant-scoped query.
type Organization struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// APIKeyScope is one of the closed tenant scopes an ApiKey can carry.
type APIKeyScope string

const (
	ScopeComponentRead    APIKeyScope = "component:read"
	ScopeComponentWrite   APIKeyScope = "component:write"
	ScopeComponentDelete  APIKeyScope = "component:delete"
	ScopeEmbeddingManage  APIKeyScope = "embedding:manage"
	ScopeAdmin            APIKeyScope = "admin"
)

// AllScopes enumerates every known tenant scope (spec §4.11); used to
// filter whatever scopes get stored or presented back to a caller.
var AllScopes = map[APIKeyScope]bool{
	ScopeComponentRead:   true,
	ScopeComponentWrite:  true,
	ScopeComponentDelete: true,
	ScopeEmbeddingManage: true,
	ScopeAdmin:           true,
}

// APIKey belongs to an Organization. The raw key is never stored; only
// its HMAC-SHA256 digest and an 8-character identification prefix are.
type APIKey struct {
	ID        string        `json:"id"`
	OrgID     string        `json:"orgId"`
	KeyDigest string        `json:"-"`
	KeyPrefix string        `json:"keyPrefix"`
	Scopes    []APIKeyScope `json:"scopes"`
	Active    bool          `json:"active"`
	ExpiresAt *time.Time    `json:"expiresAt,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

// EmbeddingModel describes the provider/model/dimensionality that
// produced a Component's (or EmbeddingChunk's) current embeddings.
type EmbeddingModel struct {
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions"`
}

// Component is the pipeline's central row: one UI component's
// structural extraction, generated metadata, and built manifest, plus
// its embedding-indexing state (spec §3 "Component").
type Component struct {
	ID                string          `json:"id"`
	OrgID             string          `json:"orgId"`
	Name              string          `json:"name"`
	Slug              string          `json:"slug"`
	Framework         string          `json:"framework"`
	Version           string          `json:"version"`
	Visibility        Visibility      `json:"visibility"`
	SourceHash        string          `json:"sourceHash"`
	Extraction        json.RawMessage `json:"extraction,omitempty"`
	Generation        json.RawMessage `json:"generation,omitempty"`
	Manifest          json.RawMessage `json:"manifest,omitempty"`
	GenerationProvider string         `json:"generationProvider,omitempty"`
	GenerationModel    string         `json:"generationModel,omitempty"`
	EmbeddingStatus   EmbeddingStatus `json:"embeddingStatus"`
	EmbeddingError    string          `json:"embeddingError,omitempty"`
	EmbeddingModel    *EmbeddingModel `json:"embeddingModel,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// ChunkType is one of the closed chunk categories the chunker emits
// (spec §4.6).
type ChunkType string

const (
	ChunkDescription ChunkType = "description"
	ChunkImport      ChunkType = "import"
	ChunkProps       ChunkType = "props"
	ChunkComposition ChunkType = "composition"
	ChunkExamples    ChunkType = "examples"
	ChunkPatterns    ChunkType = "patterns"
	ChunkGuidance    ChunkType = "guidance"
)

// EmbeddingChunk is one embedded slice of a Component's manifest
// (spec §3 "EmbeddingChunk"). Cascades on Component delete.
type EmbeddingChunk struct {
	ID          string    `json:"id"`
	OrgID       string    `json:"orgId"`
	ComponentID string    `json:"componentId"`
	ChunkType   ChunkType `json:"chunkType"`
	Content     string    `json:"content"`
	ChunkIndex  int       `json:"chunkIndex"`
	Embedding   []float32 `json:"-"`
}

// ComponentFilters narrows FindMany's result set (spec §4.8).
type ComponentFilters struct {
	Framework       string
	Visibility      Visibility
	EmbeddingStatus EmbeddingStatus
}

// ManifestFilters narrows FindAllManifests (spec §4.8).
type ManifestFilters struct {
	Slugs     []string
	Framework string
	Limit     int // capped at 100 by the store
}

// EmbeddingStatusCounts is CountByEmbeddingStatus's return shape;
// statuses with no rows default to 0 rather than being omitted.
type EmbeddingStatusCounts struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Indexed    int `json:"indexed"`
	Failed     int `json:"failed"`
}

// KeywordSearchOptions configures SearchKeyword. MinScore is a pointer
// so an explicit 0 is distinguishable from "not set" (the latter
// applies no score filter).
type KeywordSearchOptions struct {
	Limit     int
	MinScore  *float64
	Framework string
}

// SemanticSearchOptions configures SearchSemantic. See
// KeywordSearchOptions.MinScore for why this is a pointer.
type SemanticSearchOptions struct {
	Limit     int
	MinScore  *float64
	Framework string
}

// SearchHit is one ranked result from either search path, keyed by
// component for later fusion (spec §4.9).
type SearchHit struct {
	ComponentID string
	Slug        string
	Name        string
	Description string
	Framework   string
	Score       float64
}
