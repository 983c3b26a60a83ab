package vector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const defaultSaveDebounce = time.Second

// FileBackendOptions configure a file-backed vector store.
type FileBackendOptions struct {
	// Path is the JSON persistence file. Required.
	Path string
	// SaveDebounce delays persistence after a mutation so write bursts
	// coalesce into one save. Defaults to one second.
	SaveDebounce time.Duration
	// WatchExternal reloads the file when another process rewrites it and
	// no local changes are pending.
	WatchExternal bool
	// MaxDistance normalizes euclidean scores when positive.
	MaxDistance float64
	// Logger receives backend logs.
	Logger zerolog.Logger
}

// FileBackend keeps entries in memory and persists them to a JSON file.
// Mutations schedule a debounced save; Close flushes whatever is pending.
type FileBackend struct {
	opts FileBackendOptions

	mu          sync.Mutex
	entries     map[string]Entry
	dirty       bool
	stale       bool
	saveTimer   *time.Timer
	lastSave    time.Time
	watcher     *fileWatcher
	initialized bool
	closed      bool
}

type fileSnapshot struct {
	Version int       `json:"version"`
	SavedAt time.Time `json:"saved_at"`
	Entries []Entry   `json:"entries"`
}

// NewFileBackend creates a file-backed vector store backend.
func NewFileBackend(opts FileBackendOptions) (*FileBackend, error) {
	if opts.Path == "" {
		return nil, errors.New("persistence path is required")
	}
	if opts.SaveDebounce <= 0 {
		opts.SaveDebounce = defaultSaveDebounce
	}
	return &FileBackend{
		opts:    opts,
		entries: make(map[string]Entry),
	}, nil
}

func (b *FileBackend) Name() string {
	return "file"
}

func (b *FileBackend) Initialize(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if b.initialized {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(b.opts.Path), 0755); err != nil {
		return fmt.Errorf("failed to create persistence directory: %w", err)
	}
	if err := b.loadLocked(); err != nil {
		return err
	}

	if b.opts.WatchExternal {
		watcher, err := newFileWatcher(b.opts.Path, b.opts.Logger, b.markStale)
		if err != nil {
			return fmt.Errorf("failed to create file watcher: %w", err)
		}
		b.watcher = watcher
	}

	b.initialized = true
	return nil
}

func (b *FileBackend) Store(ctx context.Context, entry Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.reloadIfStaleLocked()
	b.entries[entry.ID] = entry
	b.scheduleSaveLocked()
	return nil
}

func (b *FileBackend) Search(ctx context.Context, embedding []float32, limit int, threshold float64, metric Metric) ([]SearchResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	b.reloadIfStaleLocked()
	return scanEntries(b.entries, embedding, limit, threshold, metric, b.opts.MaxDistance), nil
}

func (b *FileBackend) Delete(ctx context.Context, id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false, ErrClosed
	}
	b.reloadIfStaleLocked()
	if _, ok := b.entries[id]; !ok {
		return false, nil
	}
	delete(b.entries, id)
	b.scheduleSaveLocked()
	return true, nil
}

func (b *FileBackend) Clear(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.entries = make(map[string]Entry)
	b.stale = false
	b.scheduleSaveLocked()
	return nil
}

func (b *FileBackend) Count(ctx context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, ErrClosed
	}
	b.reloadIfStaleLocked()
	return len(b.entries), nil
}

// Close stops the save timer and watcher, then flushes pending state.
func (b *FileBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	if b.saveTimer != nil {
		b.saveTimer.Stop()
	}
	if b.watcher != nil {
		if err := b.watcher.Stop(); err != nil {
			b.opts.Logger.Warn().Err(err).Msg("Failed to stop file watcher")
		}
		b.watcher = nil
	}

	return b.flushLocked()
}

// Flush writes pending state to disk immediately.
func (b *FileBackend) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushLocked()
}

func (b *FileBackend) loadLocked() error {
	data, err := os.ReadFile(b.opts.Path)
	if errors.Is(err, os.ErrNotExist) {
		b.entries = make(map[string]Entry)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read persistence file: %w", err)
	}

	var snapshot fileSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("failed to parse persistence file: %w", err)
	}

	entries := make(map[string]Entry, len(snapshot.Entries))
	for _, entry := range snapshot.Entries {
		entries[entry.ID] = entry
	}
	b.entries = entries
	return nil
}

// markStale is invoked by the watcher after external file changes settle.
func (b *FileBackend) markStale() {
	b.mu.Lock()
	defer b.mu.Unlock()
	// Our own atomic save raises watch events too; anything arriving this
	// close to a flush is ours.
	if time.Since(b.lastSave) < b.opts.SaveDebounce {
		return
	}
	b.stale = true
}

func (b *FileBackend) reloadIfStaleLocked() {
	if !b.stale {
		return
	}
	b.stale = false

	if b.dirty {
		b.opts.Logger.Warn().Msg("Skipping external reload, local changes pending")
		return
	}
	if err := b.loadLocked(); err != nil {
		b.opts.Logger.Error().Err(err).Msg("Failed to reload persistence file")
		return
	}
	b.opts.Logger.Info().
		Int("entries", len(b.entries)).
		Msg("Reloaded persistence file after external change")
}

func (b *FileBackend) scheduleSaveLocked() {
	b.dirty = true
	if b.saveTimer != nil {
		b.saveTimer.Stop()
	}
	b.saveTimer = time.AfterFunc(b.opts.SaveDebounce, func() {
		if err := b.Flush(); err != nil {
			b.opts.Logger.Error().Err(err).Msg("Failed to persist entries")
		}
	})
}

func (b *FileBackend) flushLocked() error {
	if !b.dirty {
		return nil
	}

	snapshot := fileSnapshot{
		Version: 1,
		SavedAt: time.Now().UTC(),
		Entries: make([]Entry, 0, len(b.entries)),
	}
	for _, entry := range b.entries {
		snapshot.Entries = append(snapshot.Entries, entry)
	}
	sort.Slice(snapshot.Entries, func(i, j int) bool {
		return snapshot.Entries[i].ID < snapshot.Entries[j].ID
	})

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entries: %w", err)
	}

	tmpPath := b.opts.Path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write persistence file: %w", err)
	}
	if err := os.Rename(tmpPath, b.opts.Path); err != nil {
		return fmt.Errorf("failed to replace persistence file: %w", err)
	}

	b.dirty = false
	b.lastSave = time.Now()
	b.opts.Logger.Debug().Int("entries", len(b.entries)).Msg("Entries persisted")
	return nil
}
