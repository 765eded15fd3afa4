// Package geminiembed implements embedding.Provider against the
// Gemini embeddings API, using the same google.golang.org/genai
// client pkg/generator/providers/gemini wraps for generation.
package geminiembed

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/embedding"
)

// Client embeds text via Gemini's embedding model.
type Client struct {
	client     *genai.Client
	model      string
	dimensions int
}

// New builds a Client from a plain API key, mirroring
// pkg/generator/providers/gemini.NewClient's GOOGLE_API_KEY flow.
func New(ctx context.Context, apiKey, model string, dimensions int) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("geminiembed: new client: %w", err)
	}
	if model == "" {
		model = "text-embedding-004"
	}
	if dimensions <= 0 {
		dimensions = 1024
	}
	return &Client{client: client, model: model, dimensions: dimensions}, nil
}

// Info reports this client's model identity.
func (c *Client) Info() embedding.ModelInfo {
	return embedding.ModelInfo{Provider: "gemini", Model: c.model, Dimensions: c.dimensions}
}

// EmbedQuery embeds a single query text with RETRIEVAL_QUERY task
// type, which Gemini's embedding model uses to bias the vector toward
// matching documents rather than being symmetric with them.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.embed(ctx, []string{text}, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds document texts with RETRIEVAL_DOCUMENT task type.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return c.embed(ctx, texts, "RETRIEVAL_DOCUMENT")
}

func (c *Client) embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}

	dims := int32(c.dimensions)
	config := &genai.EmbedContentConfig{
		TaskType:             taskType,
		OutputDimensionality: &dims,
	}

	resp, err := c.client.Models.EmbedContent(ctx, c.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("geminiembed: embed content: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("geminiembed: expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		out[i] = e.Values
	}
	return out, nil
}

var _ embedding.Provider = (*Client)(nil)
