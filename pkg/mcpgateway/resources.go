package mcpgateway

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	gosdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/apierr"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/manifest"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/storage"
)

const (
	detailPrefix   = "component://detail/"
	propsPrefix    = "component://props/"
	examplesPrefix = "component://examples/"
	guidancePrefix = "component://guidance/"
)

// registerResources binds the six resource URIs spec §4.13 names to
// server, scoped to orgID.
func (g *Gateway) registerResources(server *gosdk.Server, orgID string) {
	server.AddResource(&gosdk.Resource{
		URI:         "context://components",
		Name:        "components",
		Description: "Every component's id, slug, name, and framework in this organization's knowledge base.",
		MIMEType:    "application/json",
	}, g.componentsResourceHandler(orgID))

	server.AddResource(&gosdk.Resource{
		URI:         "context://stats",
		Name:        "stats",
		Description: "Indexing pipeline health: counts by embedding status and total embedded chunks.",
		MIMEType:    "application/json",
	}, g.statsResourceHandler(orgID))

	server.AddResourceTemplate(&gosdk.ResourceTemplate{
		URITemplate: detailPrefix + "{slug}",
		Name:        "component-detail",
		Description: "A single component's full manifest by slug.",
		MIMEType:    "application/json",
	}, g.componentDetailHandler(orgID))

	server.AddResourceTemplate(&gosdk.ResourceTemplate{
		URITemplate: propsPrefix + "{slug}",
		Name:        "component-props",
		Description: "A single component's categorized props (variants, behaviors, events, slots) by slug.",
		MIMEType:    "application/json",
	}, g.componentPropsHandler(orgID))

	server.AddResourceTemplate(&gosdk.ResourceTemplate{
		URITemplate: examplesPrefix + "{slug}",
		Name:        "component-examples",
		Description: "A single component's minimal/common/advanced usage examples by slug.",
		MIMEType:    "application/json",
	}, g.componentExamplesHandler(orgID))

	server.AddResourceTemplate(&gosdk.ResourceTemplate{
		URITemplate: guidancePrefix + "{slug}",
		Name:        "component-guidance",
		Description: "A single component's usage guidance (whenToUse, accessibility, patterns) by slug.",
		MIMEType:    "application/json",
	}, g.componentGuidanceHandler(orgID))
}

func (g *Gateway) componentsResourceHandler(orgID string) gosdk.ResourceHandler {
	return func(ctx context.Context, req *gosdk.ReadResourceRequest) (*gosdk.ReadResourceResult, error) {
		rows, _, err := g.store.FindMany(ctx, orgID, storage.ComponentFilters{}, 1000, 0, "name", "asc")
		if err != nil {
			return nil, apierr.Internal("list components", err)
		}

		type summary struct {
			ID        string `json:"id"`
			Slug      string `json:"slug"`
			Name      string `json:"name"`
			Framework string `json:"framework"`
		}
		out := make([]summary, len(rows))
		for i, r := range rows {
			out[i] = summary{ID: r.ID, Slug: r.Slug, Name: r.Name, Framework: r.Framework}
		}
		return jsonResourceResult(req.Params.URI, out)
	}
}

func (g *Gateway) statsResourceHandler(orgID string) gosdk.ResourceHandler {
	return func(ctx context.Context, req *gosdk.ReadResourceRequest) (*gosdk.ReadResourceResult, error) {
		counts, err := g.store.CountByEmbeddingStatus(ctx, orgID)
		if err != nil {
			return nil, apierr.Internal("count by embedding status", err)
		}
		chunks, err := g.store.CountChunks(ctx, orgID)
		if err != nil {
			return nil, apierr.Internal("count chunks", err)
		}
		return jsonResourceResult(req.Params.URI, map[string]any{
			"pending": counts.Pending, "processing": counts.Processing,
			"indexed": counts.Indexed, "failed": counts.Failed, "totalChunks": chunks,
		})
	}
}

func (g *Gateway) componentDetailHandler(orgID string) gosdk.ResourceHandler {
	return func(ctx context.Context, req *gosdk.ReadResourceRequest) (*gosdk.ReadResourceResult, error) {
		row, err := g.lookupBySlugURI(ctx, orgID, req.Params.URI, detailPrefix)
		if err != nil {
			return nil, err
		}
		m, err := decodeManifest(row)
		if err != nil {
			return nil, err
		}
		return jsonResourceResult(req.Params.URI, m)
	}
}

func (g *Gateway) componentPropsHandler(orgID string) gosdk.ResourceHandler {
	return func(ctx context.Context, req *gosdk.ReadResourceRequest) (*gosdk.ReadResourceResult, error) {
		row, err := g.lookupBySlugURI(ctx, orgID, req.Params.URI, propsPrefix)
		if err != nil {
			return nil, err
		}
		m, err := decodeManifest(row)
		if err != nil {
			return nil, err
		}
		return jsonResourceResult(req.Params.URI, map[string]any{
			"props":         m.Props,
			"subComponents": m.SubComponents,
		})
	}
}

func (g *Gateway) componentExamplesHandler(orgID string) gosdk.ResourceHandler {
	return func(ctx context.Context, req *gosdk.ReadResourceRequest) (*gosdk.ReadResourceResult, error) {
		row, err := g.lookupBySlugURI(ctx, orgID, req.Params.URI, examplesPrefix)
		if err != nil {
			return nil, err
		}
		m, err := decodeManifest(row)
		if err != nil {
			return nil, err
		}
		return jsonResourceResult(req.Params.URI, m.Examples)
	}
}

func (g *Gateway) componentGuidanceHandler(orgID string) gosdk.ResourceHandler {
	return func(ctx context.Context, req *gosdk.ReadResourceRequest) (*gosdk.ReadResourceResult, error) {
		row, err := g.lookupBySlugURI(ctx, orgID, req.Params.URI, guidancePrefix)
		if err != nil {
			return nil, err
		}
		m, err := decodeManifest(row)
		if err != nil {
			return nil, err
		}
		return jsonResourceResult(req.Params.URI, m.Guidance)
	}
}

func (g *Gateway) lookupBySlugURI(ctx context.Context, orgID, uri, prefix string) (*storage.Component, error) {
	slug := strings.TrimPrefix(uri, prefix)
	if slug == "" || slug == uri {
		return nil, apierr.Validation("malformed resource uri: "+uri, nil)
	}
	row, err := g.store.FindComponentBySlug(ctx, orgID, slug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apierr.NotFound("component not found: " + slug)
		}
		return nil, apierr.Internal("look up component by slug", err)
	}
	return row, nil
}

func decodeManifest(row *storage.Component) (*manifest.AIManifest, error) {
	if len(row.Manifest) == 0 {
		return nil, apierr.NotFound("component has no manifest: " + row.Slug)
	}
	var m manifest.AIManifest
	if err := json.Unmarshal(row.Manifest, &m); err != nil {
		return nil, apierr.Internal("unmarshal manifest", err)
	}
	return &m, nil
}

func jsonResourceResult(uri string, v any) (*gosdk.ReadResourceResult, error) {
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, apierr.Internal("marshal resource", err)
	}
	return &gosdk.ReadResourceResult{
		Contents: []*gosdk.ResourceContents{
			{URI: uri, MIMEType: "application/json", Text: string(content)},
		},
	}, nil
}
