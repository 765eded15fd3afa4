package root

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/auth"
	cfgpkg "github.com/nexuslabs-ai/context-engine-sub000/pkg/config"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/generator"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/httpapi"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/manifest"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/mcpgateway"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/processor"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/reconciler"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/search"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/storage/postgres"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/telemetry"
)

type serveFlags struct {
	root       *rootFlags
	listenAddr string
}

// newServeCmd wires every package into one listening process: the
// HTTP API at /api/v1 and the MCP gateway at /mcp, grounded on
// cagent's own "api" subcommand (server.Listen + graceful shutdown
// tied to the command's context) generalized from one agent-file
// argument to this module's env-driven configuration (spec §6).
func newServeCmd(root *rootFlags) *cobra.Command {
	flags := serveFlags{root: root}

	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Start the component knowledge base server",
		GroupID: "server",
		RunE:    flags.run,
	}

	cmd.Flags().StringVarP(&flags.listenAddr, "listen", "l", ":8080", "Address to listen on")

	return cmd
}

func (f *serveFlags) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := cfgpkg.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	if f.root.enableOtel {
		shutdown, err := telemetry.Setup(ctx, "componentkb")
		if err != nil {
			slog.Warn("failed to set up telemetry", "error", err)
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdown(shutdownCtx)
			}()
		}
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	store := postgres.New(db)

	embedder, err := buildEmbeddingProvider(ctx, cfg)
	if err != nil {
		return fmt.Errorf("building embedding provider: %w", err)
	}

	genProvider, err := buildGenerationProvider(ctx, cfg)
	if err != nil {
		return fmt.Errorf("building generation provider: %w", err)
	}

	var gen *generator.Generator
	if genProvider != nil {
		gen, err = generator.New(genProvider, generator.Config{
			MinDescriptionLen: cfg.SemanticDescriptionMinLen,
			MaxDescriptionLen: cfg.SemanticDescriptionMaxLen,
			MaxTokens:         cfg.GenerationMaxTokens,
		})
		if err != nil {
			return fmt.Errorf("building generator: %w", err)
		}
	} else {
		slog.Warn("no LLM_API_KEY configured, generate endpoints will return service_unavailable")
	}

	proc := processor.New(store, gen, manifest.Config{DefaultPackage: cfg.DefaultPackageName})

	maxPerOrg := cfg.ReconcilerMaxPerOrg
	if maxPerOrg <= 0 {
		maxPerOrg = (cfg.ReconcilerBatchSize + 9) / 10
	}
	recon := reconciler.New(store, embedder, reconciler.Config{
		BatchSize:      cfg.ReconcilerBatchSize,
		MaxPerOrg:      maxPerOrg,
		Concurrency:    cfg.ReconcilerConcurrency,
		Interval:       cfg.ReconcilerInterval,
		StaleThreshold: cfg.ReconcilerStaleTimeout,
	})
	recon.Start(ctx)
	defer recon.Stop()

	searchEngine := search.New(store, embedder)

	validator := auth.NewValidator(store, cfg.APIKeyHashSecret, cfg.PlatformToken)

	apiServer := httpapi.New(store, proc, recon, searchEngine, validator, httpapi.Config{
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	gateway := mcpgateway.New(store, searchEngine, validator, mcpgateway.Config{
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		CORSMode:           cfg.MCPCorsMode,
		SessionIdleTimeout: cfg.MCPSessionIdleTimeout,
	})
	gateway.Start(ctx)
	defer gateway.Stop()

	mux := http.NewServeMux()
	mux.Handle("/mcp", gateway.Handler())
	mux.Handle("/", apiServer.Echo())

	ln, err := net.Listen("tcp", f.listenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", f.listenAddr, err)
	}

	srv := &http.Server{Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
		}
	}()

	slog.Info("componentkb listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
