package vector

import (
	"context"
	"fmt"
)

// EmbeddingProvider generates vector embeddings from text.
//
// The store never talks to a model provider itself; callers plug in whatever
// implementation they use for the rest of their application. Dimension must
// report the length of every embedding the provider returns.
type EmbeddingProvider interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// validateDimension checks an embedding against the expected length.
func validateDimension(embedding []float32, dims int) error {
	if len(embedding) != dims {
		return fmt.Errorf("embedding has %d dimensions, store expects %d: %w",
			len(embedding), dims, ErrDimensionMismatch)
	}
	return nil
}
