package vector

import (
	"context"
	"sort"
	"sync"
)

// MemoryBackend keeps entries in process memory and scores them with a
// linear scan. It is the reference backend: others must match its results.
type MemoryBackend struct {
	mu          sync.RWMutex
	entries     map[string]Entry
	maxDistance float64
}

// NewMemoryBackend creates an empty in-memory backend. A positive
// maxDistance normalizes euclidean scores.
func NewMemoryBackend(maxDistance float64) *MemoryBackend {
	return &MemoryBackend{
		entries:     make(map[string]Entry),
		maxDistance: maxDistance,
	}
}

func (b *MemoryBackend) Name() string {
	return "memory"
}

func (b *MemoryBackend) Initialize(ctx context.Context) error {
	return nil
}

func (b *MemoryBackend) Store(ctx context.Context, entry Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[entry.ID] = entry
	return nil
}

func (b *MemoryBackend) Search(ctx context.Context, embedding []float32, limit int, threshold float64, metric Metric) ([]SearchResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return scanEntries(b.entries, embedding, limit, threshold, metric, b.maxDistance), nil
}

func (b *MemoryBackend) Delete(ctx context.Context, id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.entries[id]; !ok {
		return false, nil
	}
	delete(b.entries, id)
	return true, nil
}

func (b *MemoryBackend) Clear(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = make(map[string]Entry)
	return nil
}

func (b *MemoryBackend) Count(ctx context.Context) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries), nil
}

func (b *MemoryBackend) Close() error {
	return nil
}

// scanEntries is the scoring path shared by the scan-based backends.
// Entries stored with a different dimensionality than the query are skipped.
func scanEntries(entries map[string]Entry, embedding []float32, limit int, threshold float64, metric Metric, maxDistance float64) []SearchResult {
	results := make([]SearchResult, 0, len(entries))
	for _, entry := range entries {
		if len(entry.Embedding) != len(embedding) {
			continue
		}
		score := similarity(metric, embedding, entry.Embedding, maxDistance)
		if score < threshold {
			continue
		}
		results = append(results, SearchResult{Entry: entry, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Entry.CreatedAt.Before(results[j].Entry.CreatedAt)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
