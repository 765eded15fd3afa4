// Package embedding defines the vector-embedding contract the
// reconciler drives: EmbedBatch/EmbedQuery plus the fixed model
// dimensionality a deployment commits to (spec §4.7).
package embedding

import "context"

// ModelInfo identifies the provider/model/dimensionality producing a
// deployment's embeddings. Dimensions is fixed per deployment (1024 in
// the reference configuration) -- changing it requires a full
// re-index, which is why pkg/reconciler's migrate-embeddings operation
// exists.
type ModelInfo struct {
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions"`
}

// Provider is implemented by each embedding backend.
type Provider interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Info() ModelInfo
}
