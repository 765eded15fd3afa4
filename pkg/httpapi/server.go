// Package httpapi serves the component knowledge base's REST surface
// (spec §4.12, §6): component CRUD, the three pipeline stages, the
// reconciliation controls, and search. Built on echo/v4, mirroring
// cagent's pkg/server.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/auth"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/processor"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/reconciler"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/search"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/storage"
)

const shutdownTimeout = 10 * time.Second

// Server owns the echo instance and every dependency the route
// handlers need.
type Server struct {
	e          *echo.Echo
	store      storage.Store
	processor  *processor.Processor
	reconciler *reconciler.Reconciler
	search     *search.Engine
	validator  *auth.Validator
}

// Config configures CORS for the HTTP surface (spec §6:
// CORS_ALLOWED_ORIGINS).
type Config struct {
	AllowedOrigins []string
}

// New wires up every route group named in spec §6 under /api/v1.
func New(store storage.Store, proc *processor.Processor, recon *reconciler.Reconciler, searchEngine *search.Engine, validator *auth.Validator, cfg Config) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	allowOrigins := cfg.AllowedOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type"},
	}))

	s := &Server{e: e, store: store, processor: proc, reconciler: recon, search: searchEngine, validator: validator}

	api := e.Group("/api/v1")
	authMW := requireAuth(validator)

	org := api.Group("/organizations/:orgId", authMW)

	components := org.Group("/components")
	components.GET("", s.listComponents, requireScope(storage.ScopeComponentRead))
	components.GET("/:id", s.getComponent, requireScope(storage.ScopeComponentRead))
	components.GET("/slug/:slug", s.getComponentBySlug, requireScope(storage.ScopeComponentRead))
	components.POST("", s.upsertComponent, requireScope(storage.ScopeComponentWrite))
	components.PATCH("/:id", s.patchComponent, requireScope(storage.ScopeComponentWrite))
	components.DELETE("/:id", s.deleteComponent, requireScope(storage.ScopeComponentDelete))
	components.POST("/:id/index", s.indexComponent, requireScope(storage.ScopeEmbeddingManage))

	processing := org.Group("/processing", requireScope(storage.ScopeComponentWrite))
	processing.POST("/extract", s.extract)
	processing.POST("/generate", s.generate)
	processing.POST("/build", s.build)

	recGroup := org.Group("/reconciliation", requireScope(storage.ScopeEmbeddingManage))
	recGroup.GET("/status", s.reconciliationStatus)
	recGroup.POST("/process-pending", s.processPending)
	recGroup.POST("/retry-failed", s.retryFailed)
	recGroup.POST("/force-reindex/:componentId", s.forceReindex)
	recGroup.POST("/migrate-embeddings", s.migrateEmbeddings)

	org.POST("/search", s.search, requireScope(storage.ScopeComponentRead))

	return s
}

// Echo exposes the underlying instance, for mounting additional
// handlers (e.g. pkg/mcpgateway) on the same listener.
func (s *Server) Echo() *echo.Echo { return s.e }

// Serve blocks, accepting connections on ln until the context the
// caller cancels shuts the HTTP server down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.e}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("httpapi: graceful shutdown failed", "error", err)
		}
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("httpapi: server stopped", "error", err)
		return err
	}
	return nil
}
