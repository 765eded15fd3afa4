package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Service wraps a Provider with the batching/concurrency discipline
// the reconciler needs, grounded on cagent's own pkg/rag/embed.Embedder
// (batch-size + max-concurrency functional options, an errgroup
// bounded by SetLimit, mutex-protected result slice writes).
type Service struct {
	provider       Provider
	batchSize      int
	maxConcurrency int
}

// Option configures a Service.
type Option func(*Service)

// WithBatchSize overrides the default per-request batch size (50).
func WithBatchSize(n int) Option {
	return func(s *Service) { s.batchSize = n }
}

// WithMaxConcurrency overrides the default concurrent batch count (5).
func WithMaxConcurrency(n int) Option {
	return func(s *Service) { s.maxConcurrency = n }
}

// New binds a Service to one embedding Provider.
func New(provider Provider, opts ...Option) *Service {
	s := &Service{provider: provider, batchSize: 50, maxConcurrency: 5}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Info reports the bound provider's model identity.
func (s *Service) Info() ModelInfo { return s.provider.Info() }

// EmbedQuery embeds a single piece of query text.
func (s *Service) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return s.provider.EmbedQuery(ctx, text)
}

// EmbedBatch embeds many texts, splitting into batchSize-sized
// requests issued up to maxConcurrency at a time. Order of the
// returned slice matches the order of texts.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if len(texts) <= s.batchSize {
		return s.provider.EmbedBatch(ctx, texts)
	}

	total := len(texts)
	out := make([][]float32, total)
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)

	for start := 0; start < total; start += s.batchSize {
		end := min(start+s.batchSize, total)
		g.Go(func() error {
			batch := texts[start:end]
			vectors, err := s.provider.EmbedBatch(ctx, batch)
			if err != nil {
				return fmt.Errorf("embed batch [%d:%d): %w", start, end, err)
			}
			if len(vectors) != len(batch) {
				return fmt.Errorf("embed batch [%d:%d): expected %d vectors, got %d", start, end, len(batch), len(vectors))
			}

			mu.Lock()
			copy(out[start:end], vectors)
			mu.Unlock()

			slog.Debug("embedding batch completed", "provider", s.provider.Info().Provider, "start", start, "end", end)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
