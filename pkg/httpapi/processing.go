package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/apierr"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/extractor"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/generator"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/processor"
)

type extractRequest struct {
	SourceCode      string            `json:"sourceCode"`
	Name            string            `json:"name"`
	Framework       string            `json:"framework,omitempty"`
	FilePath        string            `json:"filePath,omitempty"`
	Version         string            `json:"version,omitempty"`
	ExistingID      string            `json:"existingId,omitempty"`
	StoriesCode     string            `json:"storiesCode,omitempty"`
	StoriesFilePath string            `json:"storiesFilePath,omitempty"`
	PathAliases     map[string]string `json:"pathAliases,omitempty"`
}

// extract implements `POST /organizations/{orgId}/processing/extract`.
func (s *Server) extract(c echo.Context) error {
	orgID := c.Param("orgId")

	var req extractRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, apierr.Validation("invalid request body", nil))
	}
	if req.SourceCode == "" {
		return fail(c, apierr.Validation("sourceCode is required", nil))
	}
	if req.Name == "" {
		return fail(c, apierr.Validation("name is required", nil))
	}

	framework := extractor.Framework(req.Framework)
	if framework == "" {
		framework = extractor.FrameworkReact
	}

	row, diag, err := s.processor.Extract(c.Request().Context(), processor.ExtractRequest{
		OrgID:       orgID,
		ComponentID: req.ExistingID,
		Name:        req.Name,
		Framework:   framework,
		SourceCode:  req.SourceCode,
		StoriesCode: req.StoriesCode,
		FilePath:    req.FilePath,
		PathAliases: req.PathAliases,
	})
	if err != nil {
		return fail(c, err)
	}

	metadata := map[string]any{
		"extractionMethod":  diag.Method,
		"fallbackTriggered": diag.FallbackTriggered,
	}
	if diag.FallbackReason != "" {
		metadata["fallbackReason"] = diag.FallbackReason
	}

	return ok(c, http.StatusOK, map[string]any{
		"componentId": row.ID,
		"slug":        row.Slug,
		"name":        row.Name,
		"framework":   row.Framework,
		"sourceHash":  row.SourceHash,
		"extraction":  row.Extraction,
		"metadata":    metadata,
	})
}

type generateRequest struct {
	ComponentID string          `json:"componentId"`
	Hints       *generator.Hints `json:"hints,omitempty"`
}

// generate implements `POST /organizations/{orgId}/processing/generate`.
func (s *Server) generate(c echo.Context) error {
	orgID := c.Param("orgId")

	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, apierr.Validation("invalid request body", nil))
	}
	if req.ComponentID == "" {
		return fail(c, apierr.Validation("componentId is required", nil))
	}

	hints := generator.Hints{}
	if req.Hints != nil {
		hints = *req.Hints
	}

	row, err := s.processor.Generate(c.Request().Context(), orgID, req.ComponentID, hints)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, map[string]any{
		"componentId": row.ID,
		"generation":  row.Generation,
		"provider":    row.GenerationProvider,
		"model":       row.GenerationModel,
	})
}

type buildRequest struct {
	ComponentID string `json:"componentId"`
}

// build implements `POST /organizations/{orgId}/processing/build`.
func (s *Server) build(c echo.Context) error {
	orgID := c.Param("orgId")

	var req buildRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, apierr.Validation("invalid request body", nil))
	}
	if req.ComponentID == "" {
		return fail(c, apierr.Validation("componentId is required", nil))
	}

	names, err := s.store.FindAllNames(c.Request().Context(), orgID)
	if err != nil {
		return fail(c, apierr.Internal("list component names", err))
	}

	row, err := s.processor.Build(c.Request().Context(), orgID, req.ComponentID, names)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, map[string]any{
		"componentId": row.ID,
		"name":        row.Name,
		"manifest":    row.Manifest,
		"sourceHash":  row.SourceHash,
		"builtAt":     row.UpdatedAt,
	})
}
