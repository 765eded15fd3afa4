// Package reconciler drives the background chunk/embed/index pipeline
// spec §4.10 describes: periodically pulling pending components from
// storage, fairly across orgs, and indexing them with bounded
// concurrency. It also exposes the same primitives as manual
// operations for the HTTP API's reconciliation routes.
package reconciler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/chunker"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/embedding"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/manifest"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/storage"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/sweeper"
)

// Config bounds one reconciliation pass.
type Config struct {
	BatchSize      int // FindAllPendingFair's limit
	MaxPerOrg      int // FindAllPendingFair's maxPerOrg; defaults to ceil(BatchSize/10)
	Concurrency    int // how many rows reconcile in parallel
	Interval       time.Duration
	StaleThreshold time.Duration // processing rows older than this with no lease are reset to pending
}

// Reconciler owns the store, the embedding provider, and the periodic
// sweep that drains pending work (spec §4.10 step 1).
type Reconciler struct {
	store    storage.Store
	embedder embedding.Provider
	cfg      Config
	sweep    *sweeper.Sweeper
}

// New builds a Reconciler. Call Start to begin the periodic sweep;
// the manual operations (ProcessPending, RetryFailed, ForceReindex,
// MigrateEmbeddings) work without ever calling Start.
func New(store storage.Store, embedder embedding.Provider, cfg Config) *Reconciler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxPerOrg <= 0 {
		cfg.MaxPerOrg = (cfg.BatchSize + 9) / 10
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.StaleThreshold <= 0 {
		cfg.StaleThreshold = 10 * time.Minute
	}

	r := &Reconciler{store: store, embedder: embedder, cfg: cfg}
	r.sweep = sweeper.New("reconciler", cfg.Interval, func(ctx context.Context) {
		r.resetStaleProcessing(ctx)

		result, err := r.ProcessPending(ctx)
		if err != nil {
			slog.Error("reconciler: sweep failed", "error", err)
			return
		}
		if result.Succeeded+result.Failed > 0 {
			slog.Info("reconciler: sweep completed", "succeeded", result.Succeeded, "failed", result.Failed)
		}
	})
	return r
}

// resetStaleProcessing resets every row stuck in "processing" past
// cfg.StaleThreshold back to "pending" (spec §4.10 step 1a), run from
// the same sweep tick as ProcessPending so a crashed worker's rows
// rejoin the very next pending batch instead of waiting for a
// separate schedule.
func (r *Reconciler) resetStaleProcessing(ctx context.Context) {
	n, err := r.store.ResetStaleProcessing(ctx, r.cfg.StaleThreshold)
	if err != nil {
		slog.Error("reconciler: stale-processing sweep failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("reconciler: reset stale processing rows to pending", "count", n)
	}
}

// CurrentModel reports the embedding model the reconciler indexes
// with, for callers surfacing it alongside a migrate-embeddings count.
func (r *Reconciler) CurrentModel() embedding.ModelInfo { return r.embedder.Info() }

// Start begins the periodic sweep.
func (r *Reconciler) Start(ctx context.Context) { r.sweep.Start(ctx) }

// Stop cancels the periodic sweep and waits for any in-flight tick.
func (r *Reconciler) Stop() { r.sweep.Stop() }

// RowResult reports one component's reconciliation outcome.
type RowResult struct {
	OrgID       string
	ComponentID string
	Err         error
}

// ProcessResult summarizes one ProcessPending batch.
type ProcessResult struct {
	Succeeded int
	Failed    int
	Results   []RowResult
}

// ProcessPending pulls up to cfg.BatchSize pending rows fairly across
// orgs (at most cfg.MaxPerOrg from any one org) and reconciles each
// with up to cfg.Concurrency workers running in parallel. Every row's
// outcome is recorded regardless of whether others failed (spec §4.10
// step 5: "Promise.allSettled-style semantics"). It is
// ProcessPendingBatch with a batchSize of 0; the periodic sweep calls it.
func (r *Reconciler) ProcessPending(ctx context.Context) (ProcessResult, error) {
	return r.ProcessPendingBatch(ctx, 0)
}

// ProcessPendingBatch is ProcessPending with a caller-supplied batch
// size override (spec §6: `POST /process-pending {batchSize}`).
// batchSize <= 0 uses cfg.BatchSize and cfg.MaxPerOrg; any other batch
// size caps each org at ceil(batchSize/10) rows.
func (r *Reconciler) ProcessPendingBatch(ctx context.Context, batchSize int) (ProcessResult, error) {
	maxPerOrg := r.cfg.MaxPerOrg
	if batchSize <= 0 {
		batchSize = r.cfg.BatchSize
	} else {
		maxPerOrg = (batchSize + 9) / 10
	}

	rows, err := r.store.FindAllPendingFair(ctx, batchSize, maxPerOrg)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("reconciler: find pending: %w", err)
	}
	return r.reconcileRows(ctx, rows), nil
}

func (r *Reconciler) reconcileRows(ctx context.Context, rows []storage.Component) ProcessResult {
	sem := semaphore.NewWeighted(int64(r.cfg.Concurrency))
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []RowResult
	)

	for _, row := range rows {
		row := row
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			results = append(results, RowResult{OrgID: row.OrgID, ComponentID: row.ID, Err: err})
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			_, rowErr := r.reconcileOne(ctx, row)

			mu.Lock()
			results = append(results, RowResult{OrgID: row.OrgID, ComponentID: row.ID, Err: rowErr})
			mu.Unlock()
		}()
	}
	wg.Wait()

	out := ProcessResult{Results: results}
	for _, res := range results {
		if res.Err != nil {
			out.Failed++
		} else {
			out.Succeeded++
		}
	}
	return out
}

// reconcileOne performs steps 2-3 of spec §4.10 for a single row:
// transition to processing, clear chunks, chunk, embed, insert, then
// mark indexed or failed. Returns the number of chunks written.
func (r *Reconciler) reconcileOne(ctx context.Context, row storage.Component) (int, error) {
	row.EmbeddingStatus = storage.EmbeddingProcessing
	row.EmbeddingError = ""
	if _, err := r.store.UpsertComponent(ctx, row.OrgID, &row); err != nil {
		return 0, fmt.Errorf("transition to processing: %w", err)
	}
	if err := r.store.DeleteChunks(ctx, row.OrgID, row.ID); err != nil {
		return 0, r.fail(ctx, row, fmt.Errorf("delete existing chunks: %w", err))
	}

	if len(row.Manifest) == 0 {
		return 0, r.fail(ctx, row, fmt.Errorf("component has no manifest"))
	}

	var m manifest.AIManifest
	if err := json.Unmarshal(row.Manifest, &m); err != nil {
		return 0, r.fail(ctx, row, fmt.Errorf("unmarshal manifest: %w", err))
	}

	chunks := chunker.Build(m)
	if len(chunks) == 0 {
		return 0, r.fail(ctx, row, fmt.Errorf("manifest produced no chunks"))
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, r.fail(ctx, row, fmt.Errorf("embed chunks: %w", err))
	}
	if len(vectors) != len(chunks) {
		return 0, r.fail(ctx, row, fmt.Errorf("expected %d vectors, got %d", len(chunks), len(vectors)))
	}

	info := r.embedder.Info()
	rows := make([]storage.EmbeddingChunk, len(chunks))
	for i, c := range chunks {
		rows[i] = storage.EmbeddingChunk{
			OrgID: row.OrgID, ComponentID: row.ID,
			ChunkType: c.Type, Content: c.Content, ChunkIndex: c.Index,
			Embedding: vectors[i],
		}
	}
	if err := r.store.InsertChunks(ctx, rows); err != nil {
		return 0, r.fail(ctx, row, fmt.Errorf("insert chunks: %w", err))
	}

	row.EmbeddingStatus = storage.EmbeddingIndexed
	row.EmbeddingError = ""
	row.EmbeddingModel = &storage.EmbeddingModel{Provider: info.Provider, Model: info.Model, Dimensions: info.Dimensions}
	if _, err := r.store.UpsertComponent(ctx, row.OrgID, &row); err != nil {
		return len(rows), fmt.Errorf("mark indexed: %w", err)
	}
	return len(rows), nil
}

func (r *Reconciler) fail(ctx context.Context, row storage.Component, cause error) error {
	row.EmbeddingStatus = storage.EmbeddingFailed
	row.EmbeddingError = cause.Error()
	if _, err := r.store.UpsertComponent(ctx, row.OrgID, &row); err != nil {
		slog.Error("reconciler: failed to persist failure state", "componentId", row.ID, "error", err)
	}
	return cause
}

// RetryFailed resets every failed row in orgId back to pending, for
// the next sweep (or a subsequent ProcessPending call) to pick up
// (spec §4.10 step 5: "retry-failed (batch reset)").
func (r *Reconciler) RetryFailed(ctx context.Context, orgID string) (int, error) {
	return r.store.ResetFailedToPending(ctx, orgID)
}

// ForceReindex deletes a component's chunks and reconciles it
// immediately, regardless of its current embeddingStatus (spec §4.10
// step 5: "force-reindex by id"). Returns the number of chunks written.
func (r *Reconciler) ForceReindex(ctx context.Context, orgID, componentID string) (int, error) {
	row, err := r.store.FindComponentByID(ctx, orgID, componentID)
	if err != nil {
		return 0, fmt.Errorf("reconciler: find component: %w", err)
	}
	return r.reconcileOne(ctx, *row)
}

// MigrateEmbeddings marks up to cfg.BatchSize indexed rows in orgId
// whose stored embedding model no longer matches the reconciler's
// current one back to pending (spec §4.10 step 5: "migrate-embeddings").
func (r *Reconciler) MigrateEmbeddings(ctx context.Context, orgID string) (int, error) {
	return r.MigrateEmbeddingsBatch(ctx, orgID, 0)
}

// MigrateEmbeddingsBatch is MigrateEmbeddings with a caller-supplied
// batch size override (spec §6: `POST /migrate-embeddings {batchSize}`).
// batchSize <= 0 uses cfg.BatchSize.
func (r *Reconciler) MigrateEmbeddingsBatch(ctx context.Context, orgID string, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = r.cfg.BatchSize
	}
	current := r.embedder.Info()
	rows, err := r.store.FindByOutdatedModel(ctx, orgID, current.Model, batchSize)
	if err != nil {
		return 0, fmt.Errorf("reconciler: find outdated: %w", err)
	}

	n := 0
	for _, row := range rows {
		row.EmbeddingStatus = storage.EmbeddingPending
		row.EmbeddingError = ""
		if _, err := r.store.UpsertComponent(ctx, orgID, &row); err != nil {
			return n, fmt.Errorf("reconciler: mark pending: %w", err)
		}
		n++
	}
	return n, nil
}
