// Package openaiembed implements embedding.Provider against the
// OpenAI (or OpenAI-compatible) embeddings endpoint, grounded on the
// teacher's own pkg/model/provider/openai client -- same SDK, same
// client-construction options, narrowed to the one Embeddings.New call
// that client's CreateBatchEmbedding also makes.
package openaiembed

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/embedding"
)

// maxBatchSize mirrors the documented OpenAI embeddings request limit.
const maxBatchSize = 2048

// Client embeds text via the OpenAI embeddings API.
type Client struct {
	client     openai.Client
	model      string
	dimensions int
}

// Config configures a Client.
type Config struct {
	APIKey     string
	BaseURL    string // optional, for OpenAI-compatible gateways
	Model      string
	Dimensions int
}

// New constructs a Client. Dimensions defaults to 1024, the
// reference deployment's fixed dimensionality (spec §4.7).
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openaiembed: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = 1024
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		client:     openai.NewClient(opts...),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

// Info reports this client's model identity.
func (c *Client) Info() embedding.ModelInfo {
	return embedding.ModelInfo{Provider: "openai", Model: c.model, Dimensions: c.dimensions}
}

// EmbedQuery embeds a single text via EmbedBatch, matching the
// teacher's own CreateEmbedding-delegates-to-batch pattern.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("openaiembed: no embedding returned")
	}
	return vectors[0], nil
}

// EmbedBatch embeds up to maxBatchSize texts in a single request.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if len(texts) > maxBatchSize {
		return nil, fmt.Errorf("openaiembed: batch size %d exceeds limit of %d", len(texts), maxBatchSize)
	}

	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: c.model,
		Dimensions: openai.Int(int64(c.dimensions)),
	}

	resp, err := c.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openaiembed: create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openaiembed: expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	out := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		out[d.Index] = vec
	}
	return out, nil
}

var _ embedding.Provider = (*Client)(nil)
