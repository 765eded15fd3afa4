package mcpgateway

import (
	"context"
	"encoding/json"
	"errors"

	gosdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/apierr"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/manifest"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/search"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/storage"
)

// SearchComponentsInput is search_components' parameter schema (spec
// §4.13: "search_components(query, mode?, limit?<=50, framework?)").
type SearchComponentsInput struct {
	Query     string `json:"query" jsonschema:"the search query, e.g. a component name or usage description"`
	Mode      string `json:"mode,omitempty" jsonschema:"semantic, keyword, or hybrid (default hybrid)"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 10, max 50"`
	Framework string `json:"framework,omitempty" jsonschema:"filter by framework: react, vue, svelte, or angular"`
}

// SearchComponentsOutput mirrors search.Hit plus the fused search
// metadata.
type SearchComponentsOutput struct {
	Results []search.Hit  `json:"results"`
	Total   int           `json:"total"`
	Meta    search.Metadata `json:"meta"`
}

// FindSimilarInput is find_similar_components' parameter schema (spec
// §4.13: "find_similar_components(identifier, limit?<=20, minScore?,
// framework?)").
type FindSimilarInput struct {
	Identifier string   `json:"identifier" jsonschema:"component id, slug, or name to find similar components to"`
	Limit      int      `json:"limit,omitempty" jsonschema:"maximum number of results, default 5, max 20"`
	MinScore   *float64 `json:"minScore,omitempty" jsonschema:"minimum fused relevance score, 0 to 1"`
	Framework  string   `json:"framework,omitempty" jsonschema:"filter by framework"`
}

// GetComponentInput is get_component's parameter schema.
type GetComponentInput struct {
	Identifier string `json:"identifier" jsonschema:"component id or slug"`
}

// GetComponentOutput is the manifest plus identifying fields a client
// needs to act on the component.
type GetComponentOutput struct {
	ComponentID string                `json:"componentId"`
	Slug        string                `json:"slug"`
	Name        string                `json:"name"`
	Framework   string                `json:"framework"`
	Manifest    *manifest.AIManifest  `json:"manifest,omitempty"`
}

// GetIndexStatsInput is get_index_stats' (empty) parameter schema.
type GetIndexStatsInput struct{}

// GetIndexStatsOutput reports the org's indexing pipeline health.
type GetIndexStatsOutput struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Indexed    int `json:"indexed"`
	Failed     int `json:"failed"`
	TotalChunks int `json:"totalChunks"`
}

// registerTools binds the four read-only tools spec §4.13 names to
// server, scoped to orgID for the lifetime of this MCP session (spec
// §4.13: tools are per-session, the session itself is per-org).
func (g *Gateway) registerTools(server *gosdk.Server, orgID string) {
	gosdk.AddTool(server, &gosdk.Tool{
		Name:        "search_components",
		Description: "Search the component knowledge base by keyword, semantic similarity, or both fused together. Use this to find components matching a usage description or name.",
	}, g.searchComponentsHandler(orgID))

	gosdk.AddTool(server, &gosdk.Tool{
		Name:        "find_similar_components",
		Description: "Find components semantically similar to a given component, identified by id, slug, or name. Use this to discover alternatives or related components.",
	}, g.findSimilarHandler(orgID))

	gosdk.AddTool(server, &gosdk.Tool{
		Name:        "get_component",
		Description: "Fetch a single component's full manifest (props, examples, guidance) by id or slug.",
	}, g.getComponentHandler(orgID))

	gosdk.AddTool(server, &gosdk.Tool{
		Name:        "get_index_stats",
		Description: "Report how many components are pending, processing, indexed, or failed, and the total embedded chunk count, for this organization.",
	}, g.getIndexStatsHandler(orgID))
}

func (g *Gateway) searchComponentsHandler(orgID string) func(context.Context, *gosdk.CallToolRequest, SearchComponentsInput) (*gosdk.CallToolResult, SearchComponentsOutput, error) {
	return func(ctx context.Context, _ *gosdk.CallToolRequest, in SearchComponentsInput) (*gosdk.CallToolResult, SearchComponentsOutput, error) {
		if in.Query == "" {
			return nil, SearchComponentsOutput{}, apierr.Validation("query is required", nil)
		}
		limit := in.Limit
		if limit <= 0 || limit > 50 {
			limit = 10
		}

		hits, meta, err := g.search.Search(ctx, orgID, in.Query, search.Options{
			Mode: search.Mode(in.Mode), Limit: limit, Framework: in.Framework,
		})
		if err != nil {
			return nil, SearchComponentsOutput{}, err
		}
		return nil, SearchComponentsOutput{Results: hits, Total: len(hits), Meta: meta}, nil
	}
}

func (g *Gateway) findSimilarHandler(orgID string) func(context.Context, *gosdk.CallToolRequest, FindSimilarInput) (*gosdk.CallToolResult, SearchComponentsOutput, error) {
	return func(ctx context.Context, _ *gosdk.CallToolRequest, in FindSimilarInput) (*gosdk.CallToolResult, SearchComponentsOutput, error) {
		if in.Identifier == "" {
			return nil, SearchComponentsOutput{}, apierr.Validation("identifier is required", nil)
		}
		limit := in.Limit
		if limit <= 0 || limit > 20 {
			limit = 5
		}

		row, err := g.resolveComponent(ctx, orgID, in.Identifier)
		if err != nil {
			return nil, SearchComponentsOutput{}, err
		}

		query := row.Name
		var m manifest.AIManifest
		if len(row.Manifest) > 0 && json.Unmarshal(row.Manifest, &m) == nil && m.Description != "" {
			query = row.Name + " " + m.Description
		}

		hits, meta, err := g.search.Search(ctx, orgID, query, search.Options{
			Mode: search.ModeSemantic, Limit: limit + 1, MinScore: in.MinScore, Framework: in.Framework,
		})
		if err != nil {
			return nil, SearchComponentsOutput{}, err
		}

		filtered := make([]search.Hit, 0, len(hits))
		for _, h := range hits {
			if h.ComponentID == row.ID {
				continue
			}
			filtered = append(filtered, h)
			if len(filtered) == limit {
				break
			}
		}
		return nil, SearchComponentsOutput{Results: filtered, Total: len(filtered), Meta: meta}, nil
	}
}

func (g *Gateway) getComponentHandler(orgID string) func(context.Context, *gosdk.CallToolRequest, GetComponentInput) (*gosdk.CallToolResult, GetComponentOutput, error) {
	return func(ctx context.Context, _ *gosdk.CallToolRequest, in GetComponentInput) (*gosdk.CallToolResult, GetComponentOutput, error) {
		if in.Identifier == "" {
			return nil, GetComponentOutput{}, apierr.Validation("identifier is required", nil)
		}

		row, err := g.resolveComponent(ctx, orgID, in.Identifier)
		if err != nil {
			return nil, GetComponentOutput{}, err
		}

		out := GetComponentOutput{ComponentID: row.ID, Slug: row.Slug, Name: row.Name, Framework: row.Framework}
		if len(row.Manifest) > 0 {
			var m manifest.AIManifest
			if err := json.Unmarshal(row.Manifest, &m); err == nil {
				out.Manifest = &m
			}
		}
		return nil, out, nil
	}
}

func (g *Gateway) getIndexStatsHandler(orgID string) func(context.Context, *gosdk.CallToolRequest, GetIndexStatsInput) (*gosdk.CallToolResult, GetIndexStatsOutput, error) {
	return func(ctx context.Context, _ *gosdk.CallToolRequest, _ GetIndexStatsInput) (*gosdk.CallToolResult, GetIndexStatsOutput, error) {
		counts, err := g.store.CountByEmbeddingStatus(ctx, orgID)
		if err != nil {
			return nil, GetIndexStatsOutput{}, apierr.Internal("count by embedding status", err)
		}
		chunks, err := g.store.CountChunks(ctx, orgID)
		if err != nil {
			return nil, GetIndexStatsOutput{}, apierr.Internal("count chunks", err)
		}
		return nil, GetIndexStatsOutput{
			Pending: counts.Pending, Processing: counts.Processing,
			Indexed: counts.Indexed, Failed: counts.Failed, TotalChunks: chunks,
		}, nil
	}
}

// resolveComponent looks identifier up first as an id, then as a
// slug, since tool callers may pass either (spec §4.13 tool schemas
// only ever say "identifier").
func (g *Gateway) resolveComponent(ctx context.Context, orgID, identifier string) (*storage.Component, error) {
	row, err := g.store.FindComponentByID(ctx, orgID, identifier)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, apierr.Internal("look up component by id", err)
	}

	row, err = g.store.FindComponentBySlug(ctx, orgID, identifier)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apierr.NotFound("component not found: " + identifier)
		}
		return nil, apierr.Internal("look up component by slug", err)
	}
	return row, nil
}
