package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/apierr"
)

// reconciliationStatus implements `GET /organizations/{orgId}/reconciliation/status`.
func (s *Server) reconciliationStatus(c echo.Context) error {
	orgID := c.Param("orgId")

	counts, err := s.store.CountByEmbeddingStatus(c.Request().Context(), orgID)
	if err != nil {
		return fail(c, apierr.Internal("count by embedding status", err))
	}

	total := counts.Pending + counts.Processing + counts.Indexed + counts.Failed
	return ok(c, http.StatusOK, map[string]any{
		"pending":    counts.Pending,
		"processing": counts.Processing,
		"indexed":    counts.Indexed,
		"failed":     counts.Failed,
		"total":      total,
	})
}

type processPendingRequest struct {
	BatchSize int `json:"batchSize,omitempty"`
}

// processPending implements `POST /organizations/{orgId}/reconciliation/process-pending`.
func (s *Server) processPending(c echo.Context) error {
	var req processPendingRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, apierr.Validation("invalid request body", nil))
	}
	if req.BatchSize <= 0 || req.BatchSize > 100 {
		req.BatchSize = 10
	}

	result, err := s.reconciler.ProcessPendingBatch(c.Request().Context(), req.BatchSize)
	if err != nil {
		return fail(c, apierr.Internal("process pending", err))
	}

	return ok(c, http.StatusOK, map[string]any{
		"processed": result.Succeeded + result.Failed,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	})
}

// retryFailed implements `POST /organizations/{orgId}/reconciliation/retry-failed`.
func (s *Server) retryFailed(c echo.Context) error {
	orgID := c.Param("orgId")

	reset, err := s.reconciler.RetryFailed(c.Request().Context(), orgID)
	if err != nil {
		return fail(c, apierr.Internal("retry failed", err))
	}
	return ok(c, http.StatusOK, map[string]any{"reset": reset})
}

// forceReindex implements `POST /organizations/{orgId}/reconciliation/force-reindex/{componentId}`.
func (s *Server) forceReindex(c echo.Context) error {
	orgID, componentID := c.Param("orgId"), c.Param("componentId")

	row, err := s.store.FindComponentByID(c.Request().Context(), orgID, componentID)
	if err != nil {
		return fail(c, storeErr(err, "component not found"))
	}
	if len(row.Manifest) == 0 {
		return fail(c, apierr.Validation("component has no manifest", nil))
	}

	chunksCreated, err := s.reconciler.ForceReindex(c.Request().Context(), orgID, componentID)
	if err != nil {
		return fail(c, apierr.ServiceUnavailable("force-reindex failed: "+err.Error()))
	}

	return ok(c, http.StatusOK, map[string]any{
		"componentId":     componentID,
		"chunksCreated":   chunksCreated,
		"embeddingStatus": "indexed",
	})
}

type migrateEmbeddingsRequest struct {
	BatchSize int `json:"batchSize,omitempty"`
}

// migrateEmbeddings implements `POST /organizations/{orgId}/reconciliation/migrate-embeddings`.
func (s *Server) migrateEmbeddings(c echo.Context) error {
	orgID := c.Param("orgId")

	var req migrateEmbeddingsRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, apierr.Validation("invalid request body", nil))
	}
	if req.BatchSize <= 0 || req.BatchSize > 100 {
		req.BatchSize = 50
	}

	queued, err := s.reconciler.MigrateEmbeddingsBatch(c.Request().Context(), orgID, req.BatchSize)
	if err != nil {
		return fail(c, apierr.Internal("migrate embeddings", err))
	}

	return ok(c, http.StatusOK, map[string]any{
		"queued":             queued,
		"currentModel":       s.reconciler.CurrentModel().Model,
		"outdatedComponents": queued,
	})
}
