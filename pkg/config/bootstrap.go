package config

import (
	"context"
	"fmt"
	"io"

	"github.com/mnemolab/mnemo/internal/observability"
	"github.com/mnemolab/mnemo/internal/tracing"
	"github.com/mnemolab/mnemo/pkg/shared"
	"github.com/mnemolab/mnemo/pkg/vector"
	"github.com/mnemolab/mnemo/pkg/window"
	"github.com/rs/zerolog"
)

// Collaborators carries the code-level dependencies configuration cannot
// express: the summarizer behind the window manager and the embedding
// provider behind the vector store. Either may be nil.
type Collaborators struct {
	Summarizer window.Summarizer
	Provider   vector.EmbeddingProvider
}

// Layer is the assembled memory layer: all three components plus the
// infrastructure wired around them.
type Layer struct {
	Window *window.Manager
	Vector *vector.Store
	Shared *shared.Coordinator

	Logger zerolog.Logger

	logCloser      io.Closer
	tracingEnabled bool
}

// Bootstrap assembles the memory layer from a full configuration the way a
// host process embeds it: logger first, then tracing and the audit mirror
// (both optional, warn-and-continue), then the components in order.
func Bootstrap(cfg *Config, deps Collaborators) (*Layer, error) {
	if err := NewValidator().Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, logCloser, err := NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	layer := &Layer{Logger: logger, logCloser: logCloser}

	observability.EnsureRegistered()
	if cfg.Tracing.Enabled {
		serviceName := cfg.Tracing.ServiceName
		if serviceName == "" {
			serviceName = "mnemo"
		}
		if err := tracing.InitOpenTelemetry(serviceName); err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize tracing, continuing without distributed tracing")
		} else {
			layer.tracingEnabled = true
			logger.Info().Msg("Tracing initialized successfully")
		}
	}

	if cfg.Audit.Enabled && cfg.Audit.File != "" {
		if err := observability.InitAuditLogger(cfg.Audit.File); err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize audit logger, continuing without audit mirror")
		}
	}

	layer.Window, err = BuildWindow(cfg.Window, logger.With().Str("component", "window").Logger(), deps.Summarizer)
	if err != nil {
		layer.Close()
		return nil, fmt.Errorf("failed to build window manager: %w", err)
	}
	logger.Info().Int("max_tokens", cfg.Window.MaxTokens).Str("strategy", cfg.Window.Strategy).Msg("Window manager initialized")

	layer.Vector, err = BuildVector(cfg.Vector, logger.With().Str("component", "vector").Logger(), deps.Provider)
	if err != nil {
		layer.Close()
		return nil, fmt.Errorf("failed to build vector store: %w", err)
	}
	logger.Info().Int("dimensions", cfg.Vector.Dimensions).Str("backend", cfg.Vector.Backend).Msg("Vector store initialized")

	layer.Shared, err = BuildShared(cfg.Shared, logger.With().Str("component", "shared").Logger())
	if err != nil {
		layer.Close()
		return nil, fmt.Errorf("failed to build shared memory coordinator: %w", err)
	}
	logger.Info().Int("namespaces", len(cfg.Shared.Namespaces)).Msg("Shared memory coordinator initialized")

	return layer, nil
}

// Close tears the layer down in reverse build order. Idempotent.
func (l *Layer) Close() error {
	var firstErr error

	if l.Shared != nil {
		l.Shared.Destroy()
		l.Shared = nil
	}
	if l.Vector != nil {
		if err := l.Vector.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		l.Vector = nil
	}
	l.Window = nil

	if l.tracingEnabled {
		if err := tracing.ShutdownOpenTelemetry(context.Background()); err != nil && firstErr == nil {
			firstErr = err
		}
		l.tracingEnabled = false
	}
	if l.logCloser != nil {
		if err := l.logCloser.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		l.logCloser = nil
	}

	return firstErr
}
