package vector

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

func init() {
	sqlite_vec.Auto()
}

// SQLiteBackendOptions configure a SQLite-backed vector store.
type SQLiteBackendOptions struct {
	// Path is the database file. Required.
	Path string
	// Dimensions is the embedding length for the vector table. Required.
	Dimensions int
	// MaxDistance normalizes euclidean scores when positive.
	MaxDistance float64
	// Logger receives backend logs.
	Logger zerolog.Logger
}

// SQLiteBackend persists entries in SQLite with a sqlite-vec virtual table.
// Cosine searches run inside the database; euclidean and dot searches score
// in Go over the stored embeddings so results match the reference backend.
type SQLiteBackend struct {
	opts SQLiteBackendOptions

	mu          sync.Mutex
	db          *sql.DB
	initialized bool
	closed      bool
}

// NewSQLiteBackend creates a SQLite-backed vector store backend.
func NewSQLiteBackend(opts SQLiteBackendOptions) (*SQLiteBackend, error) {
	if opts.Path == "" {
		return nil, errors.New("database path is required")
	}
	if opts.Dimensions <= 0 {
		return nil, errors.New("dimensions must be positive")
	}
	return &SQLiteBackend{opts: opts}, nil
}

func (b *SQLiteBackend) Name() string {
	return "sqlite"
}

func (b *SQLiteBackend) Initialize(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if b.initialized {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(b.opts.Path), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", b.opts.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS entries (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			metadata TEXT,
			embedding TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return fmt.Errorf("failed to create entries table: %w", err)
	}

	vectorSchema := fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS entry_vectors USING vec0(
			id TEXT PRIMARY KEY,
			embedding float[%d] distance_metric=cosine
		);
	`, b.opts.Dimensions)
	if _, err := db.Exec(vectorSchema); err != nil {
		db.Close()
		return fmt.Errorf("failed to create vector table: %w", err)
	}

	b.db = db
	b.initialized = true
	b.opts.Logger.Debug().Str("path", b.opts.Path).Int("dimensions", b.opts.Dimensions).Msg("SQLite backend initialized")
	return nil
}

func (b *SQLiteBackend) Store(ctx context.Context, entry Entry) error {
	db, err := b.handle()
	if err != nil {
		return err
	}

	embeddingJSON, err := json.Marshal(entry.Embedding)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}

	var metadataJSON interface{}
	if entry.Metadata != nil {
		data, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadataJSON = string(data)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO entries (id, content, metadata, embedding, created_at) VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.Content, metadataJSON, string(embeddingJSON), entry.CreatedAt.UnixNano(),
	); err != nil {
		return fmt.Errorf("failed to store entry: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM entry_vectors WHERE id = ?`, entry.ID); err != nil {
		return fmt.Errorf("failed to replace vector row: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO entry_vectors (id, embedding) VALUES (?, ?)`,
		entry.ID, string(embeddingJSON),
	); err != nil {
		return fmt.Errorf("failed to store vector row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entry: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Search(ctx context.Context, embedding []float32, limit int, threshold float64, metric Metric) ([]SearchResult, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}

	if metric == MetricCosine {
		return b.cosineSearch(ctx, db, embedding, limit, threshold)
	}
	return b.scanSearch(ctx, db, embedding, limit, threshold, metric)
}

// cosineSearch runs inside SQLite using vec_distance_cosine.
func (b *SQLiteBackend) cosineSearch(ctx context.Context, db *sql.DB, embedding []float32, limit int, threshold float64) ([]SearchResult, error) {
	embeddingJSON, err := json.Marshal(embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query embedding: %w", err)
	}

	query := `
		SELECT
			e.id, e.content, e.metadata, e.embedding, e.created_at,
			vec_distance_cosine(v.embedding, ?) as distance
		FROM entry_vectors v
		JOIN entries e ON e.id = v.id
		ORDER BY distance ASC
		LIMIT ?
	`

	rows, err := db.QueryContext(ctx, query, string(embeddingJSON), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to run vector search: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var distance float64
		entry, err := scanEntryRow(rows, &distance)
		if err != nil {
			return nil, err
		}

		// Convert cosine distance to similarity
		score := 1.0 - distance
		if score < threshold {
			continue
		}
		results = append(results, SearchResult{Entry: entry, Score: score})
	}
	return results, rows.Err()
}

// scanSearch loads all embeddings and scores them in Go, matching the
// in-memory backend exactly for non-cosine metrics.
func (b *SQLiteBackend) scanSearch(ctx context.Context, db *sql.DB, embedding []float32, limit int, threshold float64, metric Metric) ([]SearchResult, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, content, metadata, embedding, created_at FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]Entry)
	for rows.Next() {
		entry, err := scanEntryRow(rows)
		if err != nil {
			return nil, err
		}
		entries[entry.ID] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return scanEntries(entries, embedding, limit, threshold, metric, b.opts.MaxDistance), nil
}

func (b *SQLiteBackend) Delete(ctx context.Context, id string) (bool, error) {
	db, err := b.handle()
	if err != nil {
		return false, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM entry_vectors WHERE id = ?`, id); err != nil {
		return false, fmt.Errorf("failed to delete vector row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit delete: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (b *SQLiteBackend) Clear(ctx context.Context) error {
	db, err := b.handle()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM entry_vectors`); err != nil {
		return fmt.Errorf("failed to clear vector rows: %w", err)
	}
	return tx.Commit()
}

func (b *SQLiteBackend) Count(ctx context.Context) (int, error) {
	db, err := b.handle()
	if err != nil {
		return 0, err
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

func (b *SQLiteBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func (b *SQLiteBackend) handle() (*sql.DB, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	if !b.initialized {
		return nil, errors.New("sqlite backend not initialized")
	}
	return b.db, nil
}

// scanEntryRow reads an entry from a row of (id, content, metadata,
// embedding, created_at), plus any trailing columns passed in extra.
func scanEntryRow(rows *sql.Rows, extra ...interface{}) (Entry, error) {
	var (
		entry         Entry
		metadataJSON  sql.NullString
		embeddingJSON string
		createdAt     int64
	)

	dest := []interface{}{&entry.ID, &entry.Content, &metadataJSON, &embeddingJSON, &createdAt}
	dest = append(dest, extra...)
	if err := rows.Scan(dest...); err != nil {
		return Entry{}, fmt.Errorf("failed to scan entry row: %w", err)
	}

	if err := json.Unmarshal([]byte(embeddingJSON), &entry.Embedding); err != nil {
		return Entry{}, fmt.Errorf("failed to parse stored embedding: %w", err)
	}
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &entry.Metadata); err != nil {
			return Entry{}, fmt.Errorf("failed to parse stored metadata: %w", err)
		}
	}
	entry.CreatedAt = time.Unix(0, createdAt).UTC()
	return entry, nil
}
