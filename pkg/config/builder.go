package config

import (
	"fmt"
	"time"

	"github.com/mnemolab/mnemo/pkg/shared"
	"github.com/mnemolab/mnemo/pkg/vector"
	"github.com/mnemolab/mnemo/pkg/window"
	"github.com/rs/zerolog"
)

// BuildWindow assembles a window manager from its config section. The
// summarizer is code, not configuration, so the host passes it in; nil is
// fine for strategies that never summarize.
func BuildWindow(cfg WindowConfig, logger zerolog.Logger, summarizer window.Summarizer) (*window.Manager, error) {
	wc := window.Config{
		MaxTokens:      cfg.MaxTokens,
		PreserveRecent: cfg.PreserveRecent,
		PreserveSystem: cfg.PreserveSystem,
		Strategy:       window.Strategy(cfg.Strategy),
		Summarizer:     summarizer,
		Logger:         logger,
	}
	if cfg.MinImportance != "" {
		min, err := window.ParseImportance(cfg.MinImportance)
		if err != nil {
			return nil, err
		}
		wc.MinImportance = &min
	}
	if cfg.SummarizerTimeout > 0 {
		wc.SummarizerTimeout = time.Duration(cfg.SummarizerTimeout) * time.Second
	}
	return window.New(wc)
}

// BuildVector assembles a vector store from its config section, choosing
// the backend by name. The embedding provider is host-supplied; nil limits
// the store to its *Vector operations.
func BuildVector(cfg VectorConfig, logger zerolog.Logger, provider vector.EmbeddingProvider) (*vector.Store, error) {
	vc := vector.Config{
		Dimensions:       cfg.Dimensions,
		MaxEntries:       cfg.MaxEntries,
		DefaultMetric:    vector.Metric(cfg.Metric),
		DefaultThreshold: cfg.Threshold,
		MaxDistance:      cfg.MaxDistance,
		Provider:         provider,
		Logger:           logger,
	}

	switch cfg.Backend {
	case "", "memory":
		// Store defaults to an in-memory backend.
	case "file":
		backend, err := vector.NewFileBackend(vector.FileBackendOptions{
			Path:          cfg.Path,
			SaveDebounce:  time.Duration(cfg.SaveDebounce) * time.Millisecond,
			WatchExternal: cfg.WatchExternal,
			MaxDistance:   cfg.MaxDistance,
			Logger:        logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build file backend: %w", err)
		}
		vc.Backend = backend
	case "sqlite":
		backend, err := vector.NewSQLiteBackend(vector.SQLiteBackendOptions{
			Path:        cfg.Path,
			Dimensions:  cfg.Dimensions,
			MaxDistance: cfg.MaxDistance,
			Logger:      logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build sqlite backend: %w", err)
		}
		vc.Backend = backend
	default:
		return nil, fmt.Errorf("unknown vector backend: %q", cfg.Backend)
	}

	return vector.New(vc)
}

// BuildShared assembles a coordinator from its config section and creates
// any declared namespaces.
func BuildShared(cfg SharedConfig, logger zerolog.Logger) (*shared.Coordinator, error) {
	sc := shared.Config{
		Logger:          logger,
		CleanupSchedule: cfg.CleanupSchedule,
		AccessLogSize:   cfg.AccessLogSize,
		EventBuffer:     cfg.EventBuffer,
	}
	if cfg.CleanupInterval != 0 {
		sc.CleanupInterval = time.Duration(cfg.CleanupInterval) * time.Second
	}

	coordinator, err := shared.New(sc)
	if err != nil {
		return nil, err
	}

	for _, decl := range cfg.Namespaces {
		nc, err := namespaceConfig(decl)
		if err != nil {
			coordinator.Destroy()
			return nil, err
		}
		if err := coordinator.CreateNamespace(nc); err != nil {
			coordinator.Destroy()
			return nil, fmt.Errorf("failed to create namespace %s: %w", decl.Name, err)
		}
	}

	return coordinator, nil
}

func namespaceConfig(decl NamespaceDeclaration) (shared.NamespaceConfig, error) {
	nc := shared.NamespaceConfig{
		Name:             decl.Name,
		ConflictStrategy: shared.ConflictStrategy(decl.ConflictStrategy),
		MaxEntries:       decl.MaxEntries,
		TTL:              time.Duration(decl.TTLMs) * time.Millisecond,
		ValueSchema:      decl.ValueSchema,
	}

	if decl.DefaultPermission != "" {
		perm, err := shared.ParsePermission(decl.DefaultPermission)
		if err != nil {
			return shared.NamespaceConfig{}, fmt.Errorf("namespace %s: %w", decl.Name, err)
		}
		nc.DefaultPermission = perm
	}
	if len(decl.AgentPermissions) > 0 {
		nc.AgentPermissions = make(map[string]shared.Permission, len(decl.AgentPermissions))
		for agent, raw := range decl.AgentPermissions {
			perm, err := shared.ParsePermission(raw)
			if err != nil {
				return shared.NamespaceConfig{}, fmt.Errorf("namespace %s, agent %s: %w", decl.Name, agent, err)
			}
			nc.AgentPermissions[agent] = perm
		}
	}

	return nc, nil
}
