package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/apierr"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/search"
)

type searchRequest struct {
	Query     string   `json:"query"`
	Limit     int      `json:"limit,omitempty"`
	MinScore  *float64 `json:"minScore,omitempty"`
	Framework string   `json:"framework,omitempty"`
	Mode      string   `json:"mode,omitempty"`
}

// search implements `POST /organizations/{orgId}/search` (spec §6).
func (s *Server) search(c echo.Context) error {
	orgID := c.Param("orgId")

	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, apierr.Validation("invalid request body", nil))
	}
	if len(req.Query) > 500 {
		return fail(c, apierr.Validation("query must be at most 500 characters", nil))
	}

	limit := req.Limit
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	mode := search.Mode(req.Mode)

	hits, meta, err := s.search.Search(c.Request().Context(), orgID, req.Query, search.Options{
		Mode:      mode,
		Limit:     limit,
		Framework: req.Framework,
		MinScore:  req.MinScore,
	})
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, map[string]any{
		"results": hits,
		"total":   len(hits),
		"query":   req.Query,
		"meta":    meta,
	})
}
