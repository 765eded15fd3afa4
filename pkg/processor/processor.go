// Package processor is the thin orchestrator exposing the three
// atomic pipeline operations -- Extract, Generate, Build -- each of
// which loads a Component row, runs the matching stage, and writes the
// result back (spec §4.5). It never runs these stages concurrently
// itself; the reconciler and HTTP handlers own that decision.
package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/apierr"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/extractor"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/generator"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/identity"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/manifest"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/storage"
)

// Processor binds the pure extractor/generator/manifest packages to a
// Store, translating storage sentinels into the apierr taxonomy at
// this boundary (storage itself stays transport- and error-taxonomy
// agnostic, per pkg/storage's own doc comment).
type Processor struct {
	store         storage.Store
	generator     *generator.Generator
	manifestCfg   manifest.Config
}

// New builds a Processor. generator may be nil in deployments that
// only ever run Extract (e.g. a CI job computing structural diffs);
// Generate returns apierr.ServiceUnavailable in that case.
func New(store storage.Store, gen *generator.Generator, manifestCfg manifest.Config) *Processor {
	return &Processor{store: store, generator: gen, manifestCfg: manifestCfg}
}

// ExtractRequest identifies the component and supplies its source.
type ExtractRequest struct {
	OrgID       string
	ComponentID string // if empty, upsert keyed by slug derived from Name+Framework
	Name        string
	Framework   extractor.Framework
	SourceCode  string
	StoriesCode string
	FilePath    string
	PathAliases map[string]string
	KnownPackages map[string]bool
}

// Extract runs extraction and upserts the component row by slug (or
// by id when ComponentID is supplied), per spec §4.5.
func (p *Processor) Extract(ctx context.Context, req ExtractRequest) (*storage.Component, extractor.Diagnostic, error) {
	result := extractor.Extract(extractor.Input{
		Name:          req.Name,
		SourceCode:    req.SourceCode,
		StoriesCode:   req.StoriesCode,
		Framework:     req.Framework,
		FilePath:      req.FilePath,
		PathAliases:   req.PathAliases,
		KnownPackages: req.KnownPackages,
	})

	extractionJSON, err := json.Marshal(result.Data)
	if err != nil {
		return nil, result.Diagnostic, apierr.Internal("marshal extracted data", err)
	}

	id := req.ComponentID
	if id == "" {
		id = identity.NewComponentID()
	}
	slug := identity.SlugFor(req.Name, string(req.Framework), id)
	sourceHash := identity.SourceHash(req.SourceCode)

	existing, lookupErr := p.store.FindComponentBySlug(ctx, req.OrgID, slug)
	if lookupErr != nil && !errors.Is(lookupErr, storage.ErrNotFound) {
		return nil, result.Diagnostic, apierr.Internal("look up component by slug", lookupErr)
	}

	row := &storage.Component{
		ID:         id,
		Name:       req.Name,
		Slug:       slug,
		Framework:  string(req.Framework),
		Visibility: storage.VisibilityPrivate,
		SourceHash: sourceHash,
		Extraction: extractionJSON,
	}
	if existing != nil {
		row.ID = existing.ID
		row.Version = existing.Version
		row.Visibility = existing.Visibility
		row.Generation = existing.Generation
		row.GenerationProvider = existing.GenerationProvider
		row.GenerationModel = existing.GenerationModel
		row.EmbeddingStatus = existing.EmbeddingStatus
		row.EmbeddingModel = existing.EmbeddingModel

		if existing.SourceHash != sourceHash {
			// Source changed underneath a previously generated/built
			// component: stale generation/manifest no longer describe
			// this code, so they are dropped and re-earned by running
			// Generate/Build again.
			row.Generation = nil
			row.GenerationProvider = ""
			row.GenerationModel = ""
			row.EmbeddingStatus = storage.EmbeddingPending
			row.EmbeddingModel = nil
			if delErr := p.store.DeleteChunks(ctx, req.OrgID, existing.ID); delErr != nil {
				return nil, result.Diagnostic, apierr.Internal("delete stale chunks", delErr)
			}
		}
	} else {
		row.EmbeddingStatus = storage.EmbeddingPending
	}

	saved, err := p.store.UpsertComponent(ctx, req.OrgID, row)
	if err != nil {
		return nil, result.Diagnostic, apierr.Internal("upsert component", err)
	}
	return saved, result.Diagnostic, nil
}

// Generate reads the stored extraction and writes generation, provider,
// and model back onto the component row (spec §4.5).
func (p *Processor) Generate(ctx context.Context, orgID, componentID string, hints generator.Hints) (*storage.Component, error) {
	if p.generator == nil {
		return nil, apierr.ServiceUnavailable("no generation provider configured")
	}

	c, err := p.store.FindComponentByID(ctx, orgID, componentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apierr.NotFound("component not found")
		}
		return nil, apierr.Internal("load component", err)
	}
	if len(c.Extraction) == 0 {
		return nil, apierr.Validation("component has not been extracted", nil)
	}

	var data extractor.ExtractedData
	if err := json.Unmarshal(c.Extraction, &data); err != nil {
		return nil, apierr.Internal("unmarshal extraction", err)
	}

	meta, _, model, err := p.generator.Generate(ctx, c.Name, data, hints)
	if err != nil {
		var genErr *apierr.GenerationError
		if errors.As(err, &genErr) {
			return nil, apierr.Internal(fmt.Sprintf("generation failed (%s)", genErr.SubKind), genErr)
		}
		return nil, apierr.Internal("generation failed", err)
	}

	generationJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, apierr.Internal("marshal generated metadata", err)
	}

	c.Generation = generationJSON
	c.GenerationProvider = p.generator.ProviderName()
	c.GenerationModel = model

	saved, err := p.store.UpsertComponent(ctx, orgID, c)
	if err != nil {
		return nil, apierr.Internal("upsert component", err)
	}
	return saved, nil
}

// Build reads both extraction and generation and writes the merged
// manifest back. Whenever the manifest content actually changes, it
// resets embeddingStatus to pending and clears embeddingError (spec
// §4.5), so the reconciler picks the component back up for
// re-chunking and re-embedding.
func (p *Processor) Build(ctx context.Context, orgID, componentID string, availableComponents []string) (*storage.Component, error) {
	c, err := p.store.FindComponentByID(ctx, orgID, componentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apierr.NotFound("component not found")
		}
		return nil, apierr.Internal("load component", err)
	}
	if len(c.Extraction) == 0 {
		return nil, apierr.Validation("component has not been extracted", nil)
	}

	var data extractor.ExtractedData
	if err := json.Unmarshal(c.Extraction, &data); err != nil {
		return nil, apierr.Internal("unmarshal extraction", err)
	}

	var meta *generator.ComponentMeta
	if len(c.Generation) > 0 {
		meta = &generator.ComponentMeta{}
		if err := json.Unmarshal(c.Generation, meta); err != nil {
			return nil, apierr.Internal("unmarshal generation", err)
		}
	}

	id := manifest.Identity{Name: c.Name, Framework: c.Framework, ID: c.ID}
	built := manifest.Build(id, data, meta, availableComponents, p.manifestCfg)

	manifestJSON, err := json.Marshal(built)
	if err != nil {
		return nil, apierr.Internal("marshal manifest", err)
	}

	changed := !jsonEqual(c.Manifest, manifestJSON)
	c.Manifest = manifestJSON
	if changed {
		c.EmbeddingStatus = storage.EmbeddingPending
		c.EmbeddingError = ""
	}

	saved, err := p.store.UpsertComponent(ctx, orgID, c)
	if err != nil {
		return nil, apierr.Internal("upsert component", err)
	}
	return saved, nil
}

// jsonEqual compares two JSON documents by their canonical
// re-marshaling rather than byte-for-byte, so key order or whitespace
// differences in a freshly-unmarshal-remarshaled payload don't trigger
// a spurious embeddingStatus reset.
func jsonEqual(a, b json.RawMessage) bool {
	if len(a) == 0 || len(b) == 0 {
		return len(a) == len(b)
	}
	var av, bv any
	if err := json.Unmarshal(a, &av); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return false
	}
	aCanon, _ := json.Marshal(av)
	bCanon, _ := json.Marshal(bv)
	return string(aCanon) == string(bCanon)
}
