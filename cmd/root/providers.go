package root

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/embedding"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/embedding/providers/geminiembed"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/embedding/providers/openaiembed"
	cfgpkg "github.com/nexuslabs-ai/context-engine-sub000/pkg/config"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/generator/providers"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/generator/providers/anthropic"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/generator/providers/bedrock"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/generator/providers/gemini"
)

// buildGenerationProvider selects the LLM backend CONTEXT_ENGINE_PROVIDER
// names (spec §4.3: "selectable by configuration"). For anthropic and
// gemini, an empty API key means generation is simply unavailable --
// callers treat a nil provider as "generate not wired", the same
// degraded mode pkg/httpapi's generate handler already returns
// service_unavailable for. bedrock does not use the API key and always
// builds a client from the default AWS configuration.
func buildGenerationProvider(ctx context.Context, cfg *cfgpkg.Config) (providers.Provider, error) {
	switch cfg.Provider {
	case "anthropic":
		if cfg.LLMAPIKey == "" {
			return nil, nil
		}
		model := cfg.Model
		if model == "" {
			model = "claude-sonnet-4-20250514"
		}
		return anthropic.NewClient(cfg.LLMAPIKey, model), nil
	case "gemini":
		if cfg.LLMAPIKey == "" {
			return nil, nil
		}
		model := cfg.Model
		if model == "" {
			model = "gemini-2.0-flash"
		}
		return gemini.NewClient(ctx, cfg.LLMAPIKey, model)
	case "bedrock":
		model := cfg.Model
		if model == "" {
			model = "anthropic.claude-3-5-sonnet-20241022-v2:0"
		}
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config for bedrock: %w", err)
		}
		return bedrock.NewClient(bedrockruntime.NewFromConfig(awsCfg), model), nil
	default:
		return nil, fmt.Errorf("unknown generation provider: %q", cfg.Provider)
	}
}

// buildEmbeddingProvider wires the Voyage-compatible (OpenAI API
// shape) or Gemini embedding backend, wrapped in embedding.Service for
// the reconciler's batching discipline (spec §4.7).
func buildEmbeddingProvider(ctx context.Context, cfg *cfgpkg.Config) (embedding.Provider, error) {
	if cfg.VoyageAPIKey != "" {
		client, err := openaiembed.New(openaiembed.Config{
			APIKey:     cfg.VoyageAPIKey,
			BaseURL:    "https://api.voyageai.com/v1",
			Model:      "voyage-3",
			Dimensions: cfg.EmbeddingDimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("building voyage embedding client: %w", err)
		}
		return embedding.New(client), nil
	}

	if cfg.LLMAPIKey != "" && cfg.Provider == "gemini" {
		client, err := geminiembed.New(ctx, cfg.LLMAPIKey, "text-embedding-004", cfg.EmbeddingDimensions)
		if err != nil {
			return nil, fmt.Errorf("building gemini embedding client: %w", err)
		}
		return embedding.New(client), nil
	}

	return nil, fmt.Errorf("no embedding provider configured: set VOYAGE_API_KEY, or LLM_API_KEY with CONTEXT_ENGINE_PROVIDER=gemini")
}
