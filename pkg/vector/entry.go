package vector

import "time"

// Entry is a stored item together with its embedding.
type Entry struct {
	ID        string                 `json:"id"`
	Content   string                 `json:"content"`
	Embedding []float32              `json:"embedding"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// SearchResult pairs an entry with its similarity score for a query.
type SearchResult struct {
	Entry Entry   `json:"entry"`
	Score float64 `json:"score"`
}

// SearchOptions tunes a single search call. A nil *SearchOptions or a zero
// field falls back to the store defaults.
type SearchOptions struct {
	// Limit caps the number of results. Defaults to 10.
	Limit int
	// MinScore overrides the store's default score threshold when non-nil.
	MinScore *float64
	// Metric overrides the store's default similarity metric when non-empty.
	Metric Metric
}
