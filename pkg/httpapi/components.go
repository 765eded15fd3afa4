package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/apierr"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/identity"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/storage"
)

var allowedOrderBy = map[string]bool{"name": true, "createdAt": true, "updatedAt": true}

// listComponents implements `GET /organizations/{orgId}/components`
// (spec §6).
func (s *Server) listComponents(c echo.Context) error {
	orgID := c.Param("orgId")

	limit := queryInt(c, "limit", 50)
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	orderBy := c.QueryParam("orderBy")
	if !allowedOrderBy[orderBy] {
		orderBy = "name"
	}
	order := c.QueryParam("order")
	if order != "asc" && order != "desc" {
		order = "asc"
	}

	filters := storage.ComponentFilters{
		Framework:       c.QueryParam("framework"),
		Visibility:      storage.Visibility(c.QueryParam("visibility")),
		EmbeddingStatus: storage.EmbeddingStatus(c.QueryParam("embeddingStatus")),
	}

	rows, total, err := s.store.FindMany(c.Request().Context(), orgID, filters, limit, offset, orderBy, order)
	if err != nil {
		return fail(c, apierr.Internal("list components", err))
	}

	return ok(c, http.StatusOK, map[string]any{
		"components": rows,
		"total":      total,
		"limit":      limit,
		"offset":     offset,
	})
}

// getComponent implements `GET /organizations/{orgId}/components/{id}`.
func (s *Server) getComponent(c echo.Context) error {
	orgID, id := c.Param("orgId"), c.Param("id")

	row, err := s.store.FindComponentByID(c.Request().Context(), orgID, id)
	if err != nil {
		return fail(c, storeErr(err, "component not found"))
	}
	return ok(c, http.StatusOK, row)
}

// getComponentBySlug implements `GET /organizations/{orgId}/components/slug/{slug}`.
func (s *Server) getComponentBySlug(c echo.Context) error {
	orgID, slug := c.Param("orgId"), c.Param("slug")

	row, err := s.store.FindComponentBySlug(c.Request().Context(), orgID, slug)
	if err != nil {
		return fail(c, storeErr(err, "component not found"))
	}
	return ok(c, http.StatusOK, row)
}

// upsertComponentRequest is the body for `POST /components`. Supplying
// id makes this an update of that row (slug is recomputed from the
// possibly-changed name/framework); omitting it always creates a new
// row.
type upsertComponentRequest struct {
	ID         string          `json:"id,omitempty"`
	Name       string          `json:"name"`
	Framework  string          `json:"framework"`
	Visibility string          `json:"visibility,omitempty"`
	SourceHash string          `json:"sourceHash,omitempty"`
	Extraction json.RawMessage `json:"extraction,omitempty"`
	Generation json.RawMessage `json:"generation,omitempty"`
	Manifest   json.RawMessage `json:"manifest,omitempty"`
}

// upsertComponent implements `POST /organizations/{orgId}/components`.
func (s *Server) upsertComponent(c echo.Context) error {
	orgID := c.Param("orgId")

	var req upsertComponentRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, apierr.Validation("invalid request body", nil))
	}
	if req.Name == "" {
		return fail(c, apierr.Validation("name is required", nil))
	}
	if req.Framework == "" {
		return fail(c, apierr.Validation("framework is required", nil))
	}

	ctx := c.Request().Context()

	var existing *storage.Component
	created := true
	id := req.ID
	if id != "" {
		var err error
		existing, err = s.store.FindComponentByID(ctx, orgID, id)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fail(c, apierr.Internal("look up component", err))
		}
		created = existing == nil
	} else {
		id = identity.NewComponentID()
	}

	row := &storage.Component{
		ID:         id,
		Name:       req.Name,
		Framework:  req.Framework,
		Slug:       identity.SlugFor(req.Name, req.Framework, id),
		Visibility: storage.VisibilityPrivate,
		SourceHash: req.SourceHash,
		Extraction: req.Extraction,
		Generation: req.Generation,
		Manifest:   req.Manifest,
	}
	if req.Visibility != "" {
		row.Visibility = storage.Visibility(req.Visibility)
	}
	if existing != nil {
		row.Version = existing.Version
		row.EmbeddingStatus = existing.EmbeddingStatus
		row.EmbeddingModel = existing.EmbeddingModel
		if len(row.Extraction) == 0 {
			row.Extraction = existing.Extraction
		}
		if len(row.Generation) == 0 {
			row.Generation = existing.Generation
		}
		if len(row.Manifest) == 0 {
			row.Manifest = existing.Manifest
		}
	} else {
		row.EmbeddingStatus = storage.EmbeddingPending
	}

	saved, err := s.store.UpsertComponent(ctx, orgID, row)
	if err != nil {
		return fail(c, apierr.Internal("upsert component", err))
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return ok(c, status, saved)
}

// patchComponentRequest carries only the fields this route allows a
// caller to change directly (name/framework/manifest mutate through
// extract/build instead).
type patchComponentRequest struct {
	Visibility *string `json:"visibility,omitempty"`
}

// patchComponent implements `PATCH /organizations/{orgId}/components/{id}`.
func (s *Server) patchComponent(c echo.Context) error {
	orgID, id := c.Param("orgId"), c.Param("id")

	var req patchComponentRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, apierr.Validation("invalid request body", nil))
	}

	ctx := c.Request().Context()
	row, err := s.store.FindComponentByID(ctx, orgID, id)
	if err != nil {
		return fail(c, storeErr(err, "component not found"))
	}

	if req.Visibility != nil {
		row.Visibility = storage.Visibility(*req.Visibility)
	}

	saved, err := s.store.UpsertComponent(ctx, orgID, row)
	if err != nil {
		return fail(c, apierr.Internal("patch component", err))
	}
	return ok(c, http.StatusOK, saved)
}

// deleteComponent implements `DELETE /organizations/{orgId}/components/{id}`.
func (s *Server) deleteComponent(c echo.Context) error {
	orgID, id := c.Param("orgId"), c.Param("id")

	if err := s.store.DeleteComponent(c.Request().Context(), orgID, id); err != nil {
		return fail(c, storeErr(err, "component not found"))
	}
	return ok(c, http.StatusOK, map[string]string{"id": id})
}

// indexComponent implements `POST /organizations/{orgId}/components/{id}/index`:
// a synchronous, single-component reindex.
func (s *Server) indexComponent(c echo.Context) error {
	orgID, id := c.Param("orgId"), c.Param("id")

	row, err := s.store.FindComponentByID(c.Request().Context(), orgID, id)
	if err != nil {
		return fail(c, storeErr(err, "component not found"))
	}
	if len(row.Manifest) == 0 {
		return fail(c, apierr.Validation("component has no manifest", nil))
	}

	chunksCreated, err := s.reconciler.ForceReindex(c.Request().Context(), orgID, id)
	if err != nil {
		return fail(c, apierr.ServiceUnavailable("indexing failed: "+err.Error()))
	}

	return ok(c, http.StatusOK, map[string]any{
		"componentId":     id,
		"chunksCreated":   chunksCreated,
		"embeddingStatus": storage.EmbeddingIndexed,
	})
}

func storeErr(err error, notFoundMsg string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apierr.NotFound(notFoundMsg)
	}
	return apierr.Internal("storage operation failed", err)
}

func queryInt(c echo.Context, name string, def int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
