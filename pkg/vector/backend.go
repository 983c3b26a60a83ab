package vector

import "context"

// Backend is the persistence contract for the vector store. The in-memory
// backend defines the reference semantics; every implementation must score
// and order results the same way for the same data. Implementations must be
// safe for concurrent use.
type Backend interface {
	// Name identifies the backend in logs and metrics.
	Name() string

	// Initialize prepares the backend for use. Called before any other
	// method; must be idempotent.
	Initialize(ctx context.Context) error

	// Store inserts or replaces an entry by ID.
	Store(ctx context.Context, entry Entry) error

	// Search returns up to limit entries scoring >= threshold under the
	// given metric, ordered by descending score.
	Search(ctx context.Context, embedding []float32, limit int, threshold float64, metric Metric) ([]SearchResult, error)

	// Delete removes an entry by ID, reporting whether it existed.
	Delete(ctx context.Context, id string) (bool, error)

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Close flushes pending state and releases resources.
	Close() error
}
