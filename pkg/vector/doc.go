// Package vector provides embedding-based similarity search over stored
// entries with pluggable persistence backends.
//
// Invariants:
// - Every stored embedding matches the configured dimensionality.
// - All backends score and order results identically for the same data.
// - Search results are filtered by score threshold and sorted descending.
// - Store/search operations emit tracing spans and metrics.
//
// Usage:
//
//	store, _ := vector.New(vector.Config{Dimensions: 384, Provider: provider})
//	defer store.Close()
//	id, _ := store.Insert(ctx, "the deploy failed on friday", nil)
//	results, _ := store.Search(ctx, "deployment failures", nil)
//	_, _ = id, results
package vector
