package vector

import "errors"

var (
	// ErrDimensionMismatch is returned when an embedding's length differs
	// from the store's configured dimensions.
	ErrDimensionMismatch = errors.New("vector: embedding dimension mismatch")

	// ErrCapacityExceeded is returned when inserting into a store that
	// already holds its configured maximum number of entries.
	ErrCapacityExceeded = errors.New("vector: store capacity exceeded")

	// ErrNoEmbeddingProvider is returned by text operations when the store
	// was configured without an embedding provider.
	ErrNoEmbeddingProvider = errors.New("vector: no embedding provider configured")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("vector: store is closed")
)
