package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockEmbeddingProvider for testing (generates deterministic embeddings)
type MockEmbeddingProvider struct {
	dimension int
}

func NewMockEmbeddingProvider(dimension int) *MockEmbeddingProvider {
	return &MockEmbeddingProvider{dimension: dimension}
}

func (p *MockEmbeddingProvider) Dimension() int {
	return p.dimension
}

func (p *MockEmbeddingProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	// Generate deterministic embedding based on text hash
	embedding := make([]float32, p.dimension)
	hash := 0
	for _, c := range text {
		hash = hash*31 + int(c)
	}

	for i := 0; i < p.dimension; i++ {
		embedding[i] = float32((hash+i)%100) / 100.0
	}

	return embedding, nil
}

func (p *MockEmbeddingProvider) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := p.GenerateEmbedding(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

func TestMockEmbeddingProviderDeterministic(t *testing.T) {
	provider := NewMockEmbeddingProvider(8)

	emb1, err := provider.GenerateEmbedding(context.Background(), "hello world")
	require.NoError(t, err)
	emb2, err := provider.GenerateEmbedding(context.Background(), "hello world")
	require.NoError(t, err)

	assert.Equal(t, emb1, emb2)
	assert.Len(t, emb1, 8)
}

func TestMockEmbeddingProviderBatch(t *testing.T) {
	provider := NewMockEmbeddingProvider(4)

	embeddings, err := provider.GenerateEmbeddings(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, embeddings, 2)

	single, err := provider.GenerateEmbedding(context.Background(), "one")
	require.NoError(t, err)
	assert.Equal(t, single, embeddings[0])
}

func TestValidateDimension(t *testing.T) {
	assert.NoError(t, validateDimension([]float32{1, 2, 3}, 3))

	err := validateDimension([]float32{1, 2}, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
