package vector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mnemolab/mnemo/internal/observability"
	"github.com/mnemolab/mnemo/internal/tracing"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "mnemo.vector"

// Config configures a Store.
type Config struct {
	// Dimensions is the required embedding length. Required.
	Dimensions int
	// MaxEntries caps the stored entry count. Zero means unbounded.
	MaxEntries int
	// DefaultMetric scores searches that do not override it. Defaults to cosine.
	DefaultMetric Metric
	// DefaultThreshold drops results scoring below it unless a search
	// overrides it.
	DefaultThreshold float64
	// MaxDistance normalizes euclidean similarity when positive. Used only
	// when Backend is nil; custom backends carry their own.
	MaxDistance float64
	// Provider embeds text for Insert and Search. Optional; the *Vector
	// variants work without one.
	Provider EmbeddingProvider
	// Backend persists entries. Defaults to an in-memory backend.
	Backend Backend
	// Logger receives store logs.
	Logger zerolog.Logger
}

// Stats reports store usage.
type Stats struct {
	Entries          int           `json:"entries"`
	Searches         int64         `json:"searches"`
	AvgSearchLatency time.Duration `json:"avg_search_latency"`
}

// Store coordinates an embedding provider and a persistence backend.
type Store struct {
	backend          Backend
	provider         EmbeddingProvider
	dims             int
	maxEntries       int
	defaultMetric    Metric
	defaultThreshold float64
	logger           zerolog.Logger

	mu               sync.Mutex
	initialized      bool
	closed           bool
	searches         int64
	avgSearchLatency time.Duration
}

// New creates a Store from cfg.
func New(cfg Config) (*Store, error) {
	if cfg.Dimensions <= 0 {
		return nil, errors.New("dimensions must be positive")
	}
	if cfg.DefaultMetric == "" {
		cfg.DefaultMetric = MetricCosine
	}
	if err := cfg.DefaultMetric.Validate(); err != nil {
		return nil, err
	}
	if cfg.Provider != nil && cfg.Provider.Dimension() != cfg.Dimensions {
		return nil, fmt.Errorf("embedding provider dimension %d does not match store dimensions %d",
			cfg.Provider.Dimension(), cfg.Dimensions)
	}

	backend := cfg.Backend
	if backend == nil {
		backend = NewMemoryBackend(cfg.MaxDistance)
	}

	observability.EnsureRegistered()

	return &Store{
		backend:          backend,
		provider:         cfg.Provider,
		dims:             cfg.Dimensions,
		maxEntries:       cfg.MaxEntries,
		defaultMetric:    cfg.DefaultMetric,
		defaultThreshold: cfg.DefaultThreshold,
		logger:           cfg.Logger,
	}, nil
}

// Initialize prepares the backend. Operations call it implicitly on first
// use; calling it explicitly surfaces setup errors early.
func (s *Store) Initialize(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, tracerName, "vector.initialize",
		attribute.String("backend", s.backend.Name()))
	defer span.End()

	if err := s.ensureInitialized(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "initialize failed")
		return err
	}
	return nil
}

func (s *Store) ensureInitialized(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.initialized {
		return nil
	}
	if err := s.backend.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize %s backend: %w", s.backend.Name(), err)
	}
	s.initialized = true
	s.logger.Info().
		Str("backend", s.backend.Name()).
		Int("dimensions", s.dims).
		Msg("Vector store initialized")
	return nil
}

// Insert embeds content and stores it, returning the new entry ID.
func (s *Store) Insert(ctx context.Context, content string, metadata map[string]interface{}) (string, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "vector.insert",
		attribute.String("backend", s.backend.Name()))
	defer span.End()

	if err := s.ensureInitialized(ctx); err != nil {
		return "", err
	}
	if s.provider == nil {
		observability.RecordVectorInsert(s.backend.Name(), false)
		return "", ErrNoEmbeddingProvider
	}

	embedding, err := s.provider.GenerateEmbedding(ctx, content)
	if err != nil {
		observability.RecordVectorInsert(s.backend.Name(), false)
		span.RecordError(err)
		span.SetStatus(codes.Error, "embedding failed")
		return "", fmt.Errorf("failed to generate embedding: %w", err)
	}
	if err := validateDimension(embedding, s.dims); err != nil {
		observability.RecordVectorInsert(s.backend.Name(), false)
		return "", err
	}

	return s.insertEntry(ctx, span, content, metadata, embedding)
}

// InsertVector stores content with a caller-supplied embedding.
func (s *Store) InsertVector(ctx context.Context, content string, metadata map[string]interface{}, embedding []float32) (string, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "vector.insert_vector",
		attribute.String("backend", s.backend.Name()))
	defer span.End()

	if err := s.ensureInitialized(ctx); err != nil {
		return "", err
	}
	if err := validateDimension(embedding, s.dims); err != nil {
		observability.RecordVectorInsert(s.backend.Name(), false)
		return "", err
	}

	return s.insertEntry(ctx, span, content, metadata, embedding)
}

func (s *Store) insertEntry(ctx context.Context, span trace.Span, content string, metadata map[string]interface{}, embedding []float32) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}

	if s.maxEntries > 0 {
		count, err := s.backend.Count(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to count entries: %w", err)
		}
		if count >= s.maxEntries {
			observability.RecordVectorInsert(s.backend.Name(), false)
			return "", fmt.Errorf("store holds %d of %d entries: %w", count, s.maxEntries, ErrCapacityExceeded)
		}
	}

	entry := Entry{
		ID:        uuid.New().String(),
		Content:   content,
		Embedding: embedding,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.backend.Store(ctx, entry); err != nil {
		observability.RecordVectorInsert(s.backend.Name(), false)
		span.RecordError(err)
		span.SetStatus(codes.Error, "store failed")
		return "", fmt.Errorf("failed to store entry: %w", err)
	}

	observability.RecordVectorInsert(s.backend.Name(), true)
	if count, err := s.backend.Count(ctx); err == nil {
		observability.SetVectorEntries(s.backend.Name(), count)
	}
	span.SetAttributes(attribute.String("entry_id", entry.ID))

	ctxLogger := tracing.LoggerFromContext(ctx, s.logger)
	ctxLogger.Debug().
		Str("entry_id", entry.ID).
		Int("content_length", len(content)).
		Msg("Entry stored")

	return entry.ID, nil
}

// Search embeds the query text and searches by similarity.
func (s *Store) Search(ctx context.Context, query string, opts *SearchOptions) ([]SearchResult, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "vector.search",
		attribute.String("backend", s.backend.Name()),
		attribute.Int("query_length", len(query)))
	defer span.End()

	if err := s.ensureInitialized(ctx); err != nil {
		return nil, err
	}
	if s.provider == nil {
		return nil, ErrNoEmbeddingProvider
	}

	embedding, err := s.provider.GenerateEmbedding(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "embedding failed")
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}

	return s.SearchVector(ctx, embedding, opts)
}

// SearchVector searches by a raw embedding.
func (s *Store) SearchVector(ctx context.Context, embedding []float32, opts *SearchOptions) ([]SearchResult, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "vector.search_vector",
		attribute.String("backend", s.backend.Name()))
	defer span.End()

	if err := s.ensureInitialized(ctx); err != nil {
		return nil, err
	}
	if err := validateDimension(embedding, s.dims); err != nil {
		return nil, err
	}

	limit := 10
	threshold := s.defaultThreshold
	metric := s.defaultMetric
	if opts != nil {
		if opts.Limit > 0 {
			limit = opts.Limit
		}
		if opts.MinScore != nil {
			threshold = *opts.MinScore
		}
		if opts.Metric != "" {
			metric = opts.Metric
		}
	}
	if err := metric.Validate(); err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("metric", metric.String()),
		attribute.Int("limit", limit),
	)

	start := time.Now()
	results, err := s.backend.Search(ctx, embedding, limit, threshold, metric)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return nil, fmt.Errorf("failed to search %s backend: %w", s.backend.Name(), err)
	}
	elapsed := time.Since(start)

	s.recordSearch(elapsed)
	observability.RecordVectorSearch(s.backend.Name(), elapsed)
	span.SetAttributes(attribute.Int("results", len(results)))

	ctxLogger := tracing.LoggerFromContext(ctx, s.logger)
	ctxLogger.Debug().
		Str("metric", metric.String()).
		Int("results", len(results)).
		Dur("elapsed", elapsed).
		Msg("Vector search completed")

	return results, nil
}

// recordSearch folds a latency sample into the running average.
func (s *Store) recordSearch(elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searches++
	n := s.searches
	s.avgSearchLatency = time.Duration((int64(s.avgSearchLatency)*(n-1) + int64(elapsed)) / n)
}

// Delete removes an entry by ID, reporting whether it existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "vector.delete",
		attribute.String("backend", s.backend.Name()))
	defer span.End()

	if err := s.ensureInitialized(ctx); err != nil {
		return false, err
	}

	existed, err := s.backend.Delete(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return false, fmt.Errorf("failed to delete entry: %w", err)
	}
	if existed {
		if count, err := s.backend.Count(ctx); err == nil {
			observability.SetVectorEntries(s.backend.Name(), count)
		}
		ctxLogger := tracing.LoggerFromContext(ctx, s.logger)
		ctxLogger.Debug().
			Str("entry_id", id).
			Msg("Entry deleted")
	}
	return existed, nil
}

// Clear removes every entry.
func (s *Store) Clear(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, tracerName, "vector.clear",
		attribute.String("backend", s.backend.Name()))
	defer span.End()

	if err := s.ensureInitialized(ctx); err != nil {
		return err
	}
	if err := s.backend.Clear(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "clear failed")
		return fmt.Errorf("failed to clear entries: %w", err)
	}

	observability.SetVectorEntries(s.backend.Name(), 0)
	s.logger.Info().Str("backend", s.backend.Name()).Msg("Vector store cleared")
	return nil
}

// Count returns the stored entry count.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := s.ensureInitialized(ctx); err != nil {
		return 0, err
	}
	count, err := s.backend.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

// Stats returns usage counters for the store.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	if err := s.ensureInitialized(ctx); err != nil {
		return Stats{}, err
	}
	count, err := s.backend.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count entries: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Entries:          count,
		Searches:         s.searches,
		AvgSearchLatency: s.avgSearchLatency,
	}, nil
}

// Close flushes the backend and releases its resources. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if err := s.backend.Close(); err != nil {
		return fmt.Errorf("failed to close %s backend: %w", s.backend.Name(), err)
	}
	s.logger.Info().Str("backend", s.backend.Name()).Msg("Vector store closed")
	return nil
}
