// Package postgres implements pkg/storage.Store against PostgreSQL +
// pgvector, grounded on the repository-per-aggregate pattern the
// knowledge-engine example's internal/storage package uses
// (parameterized $N queries over a plain database/sql.DB, sentinel
// errors translated from sql.ErrNoRows) and driven through
// github.com/lib/pq, the teacher's own SQL driver of choice.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/storage"
)

// Store wraps a *sql.DB configured with a postgres/lib/pq driver.
type Store struct {
	db *sql.DB
}

// New wraps an already-opened connection pool. Callers own the pool's
// lifecycle (Open/Close, connection limits); New never calls sql.Open.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

var _ storage.Store = (*Store)(nil)

// --- Organizations ---------------------------------------------------

func (s *Store) CreateOrg(ctx context.Context, org *storage.Organization) error {
	if org.ID == "" {
		org.ID = uuid.NewString()
	}
	now := time.Now()
	org.CreatedAt, org.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO organizations (id, display_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)`,
		org.ID, org.DisplayName, org.CreatedAt, org.UpdatedAt)
	return err
}

func (s *Store) FindOrgByID(ctx context.Context, id string) (*storage.Organization, error) {
	org := &storage.Organization{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, created_at, updated_at FROM organizations WHERE id = $1`, id,
	).Scan(&org.ID, &org.DisplayName, &org.CreatedAt, &org.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return org, nil
}

func (s *Store) ListOrgs(ctx context.Context, limit, offset int) ([]storage.Organization, int, error) {
	if limit <= 0 {
		limit = 20
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM organizations`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, display_name, created_at, updated_at
		FROM organizations ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []storage.Organization
	for rows.Next() {
		var o storage.Organization
		if err := rows.Scan(&o.ID, &o.DisplayName, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

func (s *Store) UpdateOrg(ctx context.Context, org *storage.Organization) error {
	org.UpdatedAt = time.Now()
	result, err := s.db.ExecContext(ctx, `
		UPDATE organizations SET display_name = $1, updated_at = $2 WHERE id = $3`,
		org.DisplayName, org.UpdatedAt, org.ID)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteOrg(ctx context.Context, id string) error {
	var componentCount int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM components WHERE org_id = $1`, id).Scan(&componentCount); err != nil {
		return err
	}
	if componentCount > 0 {
		return storage.ErrOrgHasChildren
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- Components --------------------------------------------------------

const componentColumns = `
	id, org_id, name, slug, framework, version, visibility, source_hash,
	extraction, generation, manifest, generation_provider, generation_model,
	embedding_status, embedding_error, embedding_model_provider,
	embedding_model_model, embedding_model_dimensions, created_at, updated_at`

func scanComponent(row interface{ Scan(...any) error }) (*storage.Component, error) {
	c := &storage.Component{}
	var (
		generationProvider, generationModel                sql.NullString
		embeddingError                                      sql.NullString
		embeddingModelProvider, embeddingModelModel          sql.NullString
		embeddingModelDimensions                             sql.NullInt64
		extraction, generation, manifest                    []byte
	)
	err := row.Scan(
		&c.ID, &c.OrgID, &c.Name, &c.Slug, &c.Framework, &c.Version, &c.Visibility, &c.SourceHash,
		&extraction, &generation, &manifest, &generationProvider, &generationModel,
		&c.EmbeddingStatus, &embeddingError, &embeddingModelProvider,
		&embeddingModelModel, &embeddingModelDimensions, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Extraction = json.RawMessage(extraction)
	c.Generation = json.RawMessage(generation)
	c.Manifest = json.RawMessage(manifest)
	c.GenerationProvider = generationProvider.String
	c.GenerationModel = generationModel.String
	c.EmbeddingError = embeddingError.String
	if embeddingModelProvider.Valid {
		c.EmbeddingModel = &storage.EmbeddingModel{
			Provider:   embeddingModelProvider.String,
			Model:      embeddingModelModel.String,
			Dimensions: int(embeddingModelDimensions.Int64),
		}
	}
	return c, nil
}

// UpsertComponent is keyed by (orgId, slug): on conflict it updates the
// caller-provided fields and updatedAt (spec §4.8).
func (s *Store) UpsertComponent(ctx context.Context, orgID string, data *storage.Component) (*storage.Component, error) {
	if data.ID == "" {
		data.ID = uuid.NewString()
	}
	data.OrgID = orgID
	now := time.Now()
	if data.CreatedAt.IsZero() {
		data.CreatedAt = now
	}
	data.UpdatedAt = now

	var embProvider, embModel any
	var embDims any
	if data.EmbeddingModel != nil {
		embProvider, embModel, embDims = data.EmbeddingModel.Provider, data.EmbeddingModel.Model, data.EmbeddingModel.Dimensions
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO components (
			id, org_id, name, slug, framework, version, visibility, source_hash,
			extraction, generation, manifest, generation_provider, generation_model,
			embedding_status, embedding_error, embedding_model_provider,
			embedding_model_model, embedding_model_dimensions, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
		ON CONFLICT (org_id, slug) DO UPDATE SET
			name = EXCLUDED.name,
			framework = EXCLUDED.framework,
			version = EXCLUDED.version,
			visibility = EXCLUDED.visibility,
			source_hash = EXCLUDED.source_hash,
			extraction = COALESCE(EXCLUDED.extraction, components.extraction),
			generation = COALESCE(EXCLUDED.generation, components.generation),
			manifest = COALESCE(EXCLUDED.manifest, components.manifest),
			generation_provider = COALESCE(EXCLUDED.generation_provider, components.generation_provider),
			generation_model = COALESCE(EXCLUDED.generation_model, components.generation_model),
			embedding_status = EXCLUDED.embedding_status,
			embedding_error = EXCLUDED.embedding_error,
			embedding_model_provider = EXCLUDED.embedding_model_provider,
			embedding_model_model = EXCLUDED.embedding_model_model,
			embedding_model_dimensions = EXCLUDED.embedding_model_dimensions,
			updated_at = EXCLUDED.updated_at
		RETURNING `+componentColumns,
		data.ID, data.OrgID, data.Name, data.Slug, data.Framework, data.Version, data.Visibility, data.SourceHash,
		nullableJSON(data.Extraction), nullableJSON(data.Generation), nullableJSON(data.Manifest),
		nullString(data.GenerationProvider), nullString(data.GenerationModel),
		data.EmbeddingStatus, nullString(data.EmbeddingError), embProvider, embModel, embDims,
		data.CreatedAt, data.UpdatedAt,
	)
	return scanComponent(row)
}

func (s *Store) FindComponentByID(ctx context.Context, orgID, id string) (*storage.Component, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+componentColumns+` FROM components WHERE org_id = $1 AND id = $2`, orgID, id)
	c, err := scanComponent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return c, err
}

func (s *Store) FindComponentBySlug(ctx context.Context, orgID, slug string) (*storage.Component, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+componentColumns+` FROM components WHERE org_id = $1 AND slug = $2`, orgID, slug)
	c, err := scanComponent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return c, err
}

func (s *Store) FindComponentByName(ctx context.Context, orgID, name string) (*storage.Component, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+componentColumns+` FROM components WHERE org_id = $1 AND lower(name) = lower($2) LIMIT 1`, orgID, name)
	c, err := scanComponent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return c, err
}

func (s *Store) DeleteComponent(ctx context.Context, orgID, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM components WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

var allowedOrderColumns = map[string]bool{
	"name": true, "created_at": true, "updated_at": true, "embedding_status": true,
}

func (s *Store) FindMany(ctx context.Context, orgID string, filters storage.ComponentFilters, limit, offset int, orderBy, orderDir string) ([]storage.Component, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if !allowedOrderColumns[orderBy] {
		orderBy = "updated_at"
	}
	if orderDir != "asc" {
		orderDir = "desc"
	}

	where := []string{"org_id = $1"}
	args := []any{orgID}
	if filters.Framework != "" {
		args = append(args, filters.Framework)
		where = append(where, fmt.Sprintf("framework = $%d", len(args)))
	}
	if filters.Visibility != "" {
		args = append(args, filters.Visibility)
		where = append(where, fmt.Sprintf("visibility = $%d", len(args)))
	}
	if filters.EmbeddingStatus != "" {
		args = append(args, filters.EmbeddingStatus)
		where = append(where, fmt.Sprintf("embedding_status = $%d", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT count(*) FROM components WHERE ` + whereClause
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM components WHERE %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		componentColumns, whereClause, orderBy, strings.ToUpper(orderDir), len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []storage.Component
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

func (s *Store) FindAllManifests(ctx context.Context, orgID string, filters storage.ManifestFilters) ([]storage.Component, error) {
	limit := filters.Limit
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	where := []string{"org_id = $1", "manifest IS NOT NULL"}
	args := []any{orgID}
	if filters.Framework != "" {
		args = append(args, filters.Framework)
		where = append(where, fmt.Sprintf("framework = $%d", len(args)))
	}
	if len(filters.Slugs) > 0 {
		args = append(args, pq.Array(filters.Slugs))
		where = append(where, fmt.Sprintf("slug = ANY($%d)", len(args)))
	}
	args = append(args, limit)

	query := fmt.Sprintf(`SELECT %s FROM components WHERE %s LIMIT $%d`, componentColumns, strings.Join(where, " AND "), len(args))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []storage.Component
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *Store) FindAllNames(ctx context.Context, orgID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM components WHERE org_id = $1 ORDER BY name`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// --- Embedding pipeline bookkeeping -------------------------------------

func (s *Store) CountByEmbeddingStatus(ctx context.Context, orgID string) (storage.EmbeddingStatusCounts, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT embedding_status, count(*) FROM components WHERE org_id = $1 GROUP BY embedding_status`, orgID)
	if err != nil {
		return storage.EmbeddingStatusCounts{}, err
	}
	defer rows.Close()

	var counts storage.EmbeddingStatusCounts
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return storage.EmbeddingStatusCounts{}, err
		}
		switch storage.EmbeddingStatus(status) {
		case storage.EmbeddingPending:
			counts.Pending = n
		case storage.EmbeddingProcessing:
			counts.Processing = n
		case storage.EmbeddingIndexed:
			counts.Indexed = n
		case storage.EmbeddingFailed:
			counts.Failed = n
		}
	}
	return counts, rows.Err()
}

func (s *Store) FindPending(ctx context.Context, orgID string, limit int) ([]storage.Component, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+componentColumns+` FROM components
		WHERE org_id = $1 AND embedding_status = $2 AND manifest IS NOT NULL
		ORDER BY updated_at ASC LIMIT $3`, orgID, storage.EmbeddingPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComponents(rows)
}

// FindAllPendingFair returns a round-robin interleaving of pending rows
// across every org that has at least one, capping any single org's
// contribution at maxPerOrg (spec §4.8, §4.10 step 1).
func (s *Store) FindAllPendingFair(ctx context.Context, limit, maxPerOrg int) ([]storage.Component, error) {
	if limit <= 0 {
		limit = 50
	}
	if maxPerOrg <= 0 {
		maxPerOrg = (limit + 9) / 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+componentColumns+` FROM (
			SELECT *, row_number() OVER (PARTITION BY org_id ORDER BY updated_at ASC) AS rn
			FROM components
			WHERE embedding_status = $1 AND manifest IS NOT NULL
		) ranked
		WHERE rn <= $2
		ORDER BY rn ASC, updated_at ASC
		LIMIT $3`, storage.EmbeddingPending, maxPerOrg, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComponents(rows)
}

func (s *Store) ResetFailedToPending(ctx context.Context, orgID string) (int, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE components SET embedding_status = $1, embedding_error = NULL, updated_at = now()
		WHERE org_id = $2 AND embedding_status = $3`,
		storage.EmbeddingPending, orgID, storage.EmbeddingFailed)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	return int(affected), err
}

// ResetStaleProcessing resets every component stuck in "processing"
// whose updated_at predates staleThreshold back to "pending", across
// every org (spec §4.10: the periodic stale-processing sweep -- a row
// left processing with no corresponding in-memory lease, e.g. because
// its reconciler worker crashed mid-row, is otherwise stuck forever).
func (s *Store) ResetStaleProcessing(ctx context.Context, staleThreshold time.Duration) (int, error) {
	cutoff := time.Now().Add(-staleThreshold)
	result, err := s.db.ExecContext(ctx, `
		UPDATE components SET embedding_status = $1, updated_at = now()
		WHERE embedding_status = $2 AND updated_at < $3`,
		storage.EmbeddingPending, storage.EmbeddingProcessing, cutoff)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	return int(affected), err
}

func (s *Store) FindByOutdatedModel(ctx context.Context, orgID, currentModel string, limit int) ([]storage.Component, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+componentColumns+` FROM components
		WHERE org_id = $1 AND embedding_status = $2 AND embedding_model_model IS DISTINCT FROM $3
		ORDER BY updated_at ASC LIMIT $4`, orgID, storage.EmbeddingIndexed, currentModel, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComponents(rows)
}

func scanComponents(rows *sql.Rows) ([]storage.Component, error) {
	var out []storage.Component
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// --- Chunks --------------------------------------------------------------

func (s *Store) DeleteChunks(ctx context.Context, orgID, componentID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM embedding_chunks WHERE org_id = $1 AND component_id = $2`, orgID, componentID)
	return err
}

func (s *Store) InsertChunks(ctx context.Context, chunks []storage.EmbeddingChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embedding_chunks (id, org_id, component_id, chunk_type, content, chunk_index, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range chunks {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.OrgID, c.ComponentID, c.ChunkType, c.Content, c.ChunkIndex, pq.Array(c.Embedding)); err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

func (s *Store) CountChunks(ctx context.Context, orgID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM embedding_chunks WHERE org_id = $1`, orgID).Scan(&n)
	return n, err
}

func (s *Store) CountChunksByType(ctx context.Context, orgID string) (map[storage.ChunkType]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_type, count(*) FROM embedding_chunks WHERE org_id = $1 GROUP BY chunk_type`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[storage.ChunkType]int{}
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		out[storage.ChunkType(t)] = n
	}
	return out, rows.Err()
}

// --- Search ----------------------------------------------------------------

// SearchKeyword requires the generated tsvector column described in
// spec §4.8: name weighted 'A', manifest.description weighted 'B',
// ranked with ts_rank(..., normalize=32) (divides by 1 + document
// length). Only indexed rows participate.
func (s *Store) SearchKeyword(ctx context.Context, orgID, query string, opts storage.KeywordSearchOptions) ([]storage.SearchHit, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	args := []any{orgID, query, storage.EmbeddingIndexed}
	where := "c.org_id = $1 AND c.embedding_status = $3 AND c.search_vector @@ websearch_to_tsquery('english', $2)"
	if opts.Framework != "" {
		args = append(args, opts.Framework)
		where += fmt.Sprintf(" AND c.framework = $%d", len(args))
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT c.id, c.slug, c.name, COALESCE(c.manifest->>'description', ''), c.framework,
			ts_rank(c.search_vector, websearch_to_tsquery('english', $2), 32) AS score
		FROM components c
		WHERE %s
		ORDER BY score DESC
		LIMIT $%d`, where, len(args)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []storage.SearchHit
	for rows.Next() {
		var h storage.SearchHit
		if err := rows.Scan(&h.ComponentID, &h.Slug, &h.Name, &h.Description, &h.Framework, &h.Score); err != nil {
			return nil, err
		}
		if opts.MinScore != nil && h.Score < *opts.MinScore {
			continue
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// SearchSemantic over-fetches 3×limit chunks ordered directly by
// cosine distance (so an ANN index on embedding_chunks.embedding can
// be used without a re-rank step), aggregates per component by maximum
// similarity, applies minScore, and truncates to limit (spec §4.8).
func (s *Store) SearchSemantic(ctx context.Context, orgID string, queryVec []float32, opts storage.SemanticSearchOptions) ([]storage.SearchHit, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	minScore := 0.5
	if opts.MinScore != nil {
		minScore = *opts.MinScore
	}
	fetch := limit * 3

	args := []any{orgID, pq.Array(queryVec)}
	where := "e.org_id = $1"
	if opts.Framework != "" {
		args = append(args, opts.Framework)
		where += fmt.Sprintf(" AND c.framework = $%d", len(args))
	}
	args = append(args, fetch)

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT c.id, c.slug, c.name, COALESCE(c.manifest->>'description', ''), c.framework,
			1 - (e.embedding <=> $2) AS similarity
		FROM embedding_chunks e
		JOIN components c ON c.id = e.component_id
		WHERE %s
		ORDER BY e.embedding <=> $2
		LIMIT $%d`, where, len(args)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	best := map[string]storage.SearchHit{}
	order := []string{}
	for rows.Next() {
		var h storage.SearchHit
		if err := rows.Scan(&h.ComponentID, &h.Slug, &h.Name, &h.Description, &h.Framework, &h.Score); err != nil {
			return nil, err
		}
		if existing, ok := best[h.ComponentID]; !ok {
			best[h.ComponentID] = h
			order = append(order, h.ComponentID)
		} else if h.Score > existing.Score {
			best[h.ComponentID] = h
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []storage.SearchHit
	for _, id := range order {
		h := best[id]
		if h.Score < minScore {
			continue
		}
		out = append(out, h)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- API keys ----------------------------------------------------------

func (s *Store) CreateAPIKey(ctx context.Context, key *storage.APIKey) error {
	if key.ID == "" {
		key.ID = uuid.NewString()
	}
	key.CreatedAt = time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO api_keys (id, org_id, key_digest, key_prefix, scopes, active, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		key.ID, key.OrgID, key.KeyDigest, key.KeyPrefix, scopesToText(key.Scopes), key.Active, key.ExpiresAt, key.CreatedAt)
	return err
}

func (s *Store) FindAPIKeyByDigest(ctx context.Context, digest string) (*storage.APIKey, error) {
	k := &storage.APIKey{}
	var scopes []string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, org_id, key_digest, key_prefix, scopes, active, expires_at, created_at
		FROM api_keys WHERE key_digest = $1`, digest,
	).Scan(&k.ID, &k.OrgID, &k.KeyDigest, &k.KeyPrefix, pq.Array(&scopes), &k.Active, &k.ExpiresAt, &k.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	for _, sc := range scopes {
		scope := storage.APIKeyScope(sc)
		if storage.AllScopes[scope] {
			k.Scopes = append(k.Scopes, scope)
		}
	}
	return k, nil
}

func scopesToText(scopes []storage.APIKeyScope) []string {
	out := make([]string, len(scopes))
	for i, s := range scopes {
		out[i] = string(s)
	}
	return out
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
