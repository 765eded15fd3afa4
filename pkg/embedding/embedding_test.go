package embedding_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/embedding"
)

// fakeProvider returns a deterministic vector per text (its length)
// and counts how many EmbedBatch calls it received, so tests can
// assert batching/concurrency behavior without a real API.
type fakeProvider struct {
	calls int32
}

func (f *fakeProvider) Info() embedding.ModelInfo {
	return embedding.ModelInfo{Provider: "fake", Model: "fake-1", Dimensions: 1}
}

func (f *fakeProvider) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text))}, nil
}

func (f *fakeProvider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	atomic.AddInt32(&f.calls, 1)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

func TestService_EmbedBatch_SplitsAcrossBatchSize(t *testing.T) {
	provider := &fakeProvider{}
	svc := embedding.New(provider, embedding.WithBatchSize(2), embedding.WithMaxConcurrency(4))

	texts := []string{"a", "bb", "ccc", "dddd", "e"}
	vectors, err := svc.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))

	for i, text := range texts {
		assert.Equal(t, float32(len(text)), vectors[i][0])
	}
	assert.GreaterOrEqual(t, atomic.LoadInt32(&provider.calls), int32(3))
}

func TestService_EmbedBatch_SingleRequestWhenUnderBatchSize(t *testing.T) {
	provider := &fakeProvider{}
	svc := embedding.New(provider, embedding.WithBatchSize(10))

	vectors, err := svc.EmbedBatch(context.Background(), []string{"a", "bb"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&provider.calls))
}

func TestService_EmbedBatch_Empty(t *testing.T) {
	svc := embedding.New(&fakeProvider{})
	vectors, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestService_EmbedQuery(t *testing.T) {
	svc := embedding.New(&fakeProvider{})
	vec, err := svc.EmbedQuery(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{5}, vec)
}

type failingProvider struct{ fakeProvider }

func (f *failingProvider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	return nil, fmt.Errorf("boom")
}

func TestService_EmbedBatch_PropagatesProviderError(t *testing.T) {
	svc := embedding.New(&failingProvider{}, embedding.WithBatchSize(1))
	_, err := svc.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.Error(t, err)
}
