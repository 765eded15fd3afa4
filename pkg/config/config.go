// Package config loads componentkb's process configuration from
// environment variables. The surface is intentionally flat: every
// variable in spec §6 maps to exactly one field here. Unlike the
// teacher's own pkg/config (a layered YAML + secret-broker system for
// agent definitions), this module's configuration is not user-authored
// documents — dotfile loading and CLI scripting are explicitly out of
// scope (spec.md §1) — so a single Load() is enough.
package config

import (
	"cmp"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the fully resolved process configuration.
type Config struct {
	// LLM / generation
	LLMAPIKey                  string
	Provider                   string // anthropic | gemini | bedrock
	Model                      string
	MaxTokens                  int
	TimeoutMS                  int
	GenerationMaxTokens        int
	SemanticDescriptionMinLen  int
	SemanticDescriptionMaxLen  int

	// Embeddings
	VoyageAPIKey string

	// Storage
	DatabaseURL string

	// Auth
	APIKeyHashSecret string
	PlatformToken    string

	// HTTP / MCP
	CORSAllowedOrigins []string
	MCPCorsMode        string // "strict" | "permissive"
	Environment        string // "development" | "production"

	// Reconciler (not directly named by spec §6 env list but required
	// by §4.10/§5 to make batch size, concurrency and fair-share
	// configurable without redeploying)
	ReconcilerBatchSize     int
	ReconcilerMaxPerOrg     int
	ReconcilerConcurrency   int
	ReconcilerInterval      time.Duration
	ReconcilerStaleTimeout  time.Duration

	// MCP session idle expiry (spec §9 open question 2: no TTL is
	// defined by the source; we pick a documented default).
	MCPSessionIdleTimeout time.Duration

	EmbeddingDimensions int

	// DefaultPackageName backs manifest.Config.DefaultPackage, the
	// import-statement fallback when a component's own package can't
	// be inferred from its source (spec §4.4).
	DefaultPackageName string
}

// Load reads Config from the process environment, applying the
// documented defaults for anything unset.
func Load() (*Config, error) {
	cfg := &Config{
		LLMAPIKey:                 os.Getenv("LLM_API_KEY"),
		Provider:                  cmp.Or(os.Getenv("CONTEXT_ENGINE_PROVIDER"), "anthropic"),
		Model:                     os.Getenv("CONTEXT_ENGINE_MODEL"),
		MaxTokens:                 envInt("CONTEXT_ENGINE_MAX_TOKENS", 4096),
		TimeoutMS:                 envInt("CONTEXT_ENGINE_TIMEOUT_MS", 30_000),
		GenerationMaxTokens:       envInt("CONTEXT_ENGINE_GENERATION_MAX_TOKENS", 2048),
		SemanticDescriptionMinLen: envInt("CONTEXT_ENGINE_DESCRIPTION_MIN_LEN", 50),
		SemanticDescriptionMaxLen: envInt("CONTEXT_ENGINE_DESCRIPTION_MAX_LEN", 2000),

		VoyageAPIKey: os.Getenv("VOYAGE_API_KEY"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		APIKeyHashSecret: os.Getenv("API_KEY_HASH_SECRET"),
		PlatformToken:    os.Getenv("PLATFORM_TOKEN"),

		CORSAllowedOrigins: splitCSV(os.Getenv("CORS_ALLOWED_ORIGINS")),
		MCPCorsMode:        cmp.Or(os.Getenv("MCP_CORS_MODE"), "strict"),
		Environment:        cmp.Or(os.Getenv("ENVIRONMENT"), "development"),

		ReconcilerBatchSize:    envInt("RECONCILER_BATCH_SIZE", 10),
		ReconcilerMaxPerOrg:    envInt("RECONCILER_MAX_PER_ORG", 0), // 0 => derive as ceil(batch/10)
		ReconcilerConcurrency:  envInt("RECONCILER_CONCURRENCY", 4),
		ReconcilerInterval:     envDuration("RECONCILER_INTERVAL", 5*time.Second),
		ReconcilerStaleTimeout: envDuration("RECONCILER_STALE_TIMEOUT", 10*time.Minute),

		MCPSessionIdleTimeout: envDuration("MCP_SESSION_IDLE_TIMEOUT", 30*time.Minute),

		EmbeddingDimensions: envInt("EMBEDDING_DIMENSIONS", 1024),

		DefaultPackageName: os.Getenv("DEFAULT_PACKAGE_NAME"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("config: DATABASE_URL is required")
	}
	if cfg.APIKeyHashSecret == "" {
		return nil, fmt.Errorf("config: API_KEY_HASH_SECRET is required")
	}

	return cfg, nil
}

func envInt(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDuration(name string, def time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
