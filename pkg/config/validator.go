package config

import (
	"fmt"

	"github.com/mnemolab/mnemo/pkg/shared"
	"github.com/mnemolab/mnemo/pkg/vector"
	"github.com/mnemolab/mnemo/pkg/window"
	"github.com/rs/zerolog"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks the whole configuration, reporting the first problem.
func (v *Validator) Validate(cfg *Config) error {
	if err := v.ValidateLogging(cfg.Logging); err != nil {
		return err
	}
	if err := v.ValidateWindow(cfg.Window); err != nil {
		return err
	}
	if err := v.ValidateVector(cfg.Vector); err != nil {
		return err
	}
	return v.ValidateShared(cfg.Shared)
}

// ValidateLogging checks the logging section.
func (v *Validator) ValidateLogging(cfg LoggingConfig) error {
	if cfg.Level == "" {
		return nil
	}
	if _, err := zerolog.ParseLevel(cfg.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	return nil
}

// ValidateWindow checks the window section.
func (v *Validator) ValidateWindow(cfg WindowConfig) error {
	if cfg.MaxTokens <= 0 {
		return fmt.Errorf("window max_tokens must be positive, got %d", cfg.MaxTokens)
	}
	if cfg.PreserveRecent < 0 {
		return fmt.Errorf("window preserve_recent cannot be negative, got %d", cfg.PreserveRecent)
	}
	if cfg.Strategy != "" {
		if err := window.Strategy(cfg.Strategy).Validate(); err != nil {
			return err
		}
	}
	if cfg.MinImportance != "" {
		if _, err := window.ParseImportance(cfg.MinImportance); err != nil {
			return err
		}
	}
	return nil
}

// ValidateVector checks the vector section.
func (v *Validator) ValidateVector(cfg VectorConfig) error {
	if cfg.Dimensions <= 0 {
		return fmt.Errorf("vector dimensions must be positive, got %d", cfg.Dimensions)
	}
	if cfg.Metric != "" {
		if err := vector.Metric(cfg.Metric).Validate(); err != nil {
			return err
		}
	}
	switch cfg.Backend {
	case "", "memory":
	case "file", "sqlite":
		if cfg.Path == "" {
			return fmt.Errorf("vector backend %q requires a path", cfg.Backend)
		}
	default:
		return fmt.Errorf("unknown vector backend: %q", cfg.Backend)
	}
	return nil
}

// ValidateShared checks the shared section, including declared namespaces.
func (v *Validator) ValidateShared(cfg SharedConfig) error {
	for _, ns := range cfg.Namespaces {
		if ns.Name == "" {
			return fmt.Errorf("namespace declarations require a name")
		}
		if ns.DefaultPermission != "" {
			if _, err := shared.ParsePermission(ns.DefaultPermission); err != nil {
				return fmt.Errorf("namespace %s: %w", ns.Name, err)
			}
		}
		for agent, perm := range ns.AgentPermissions {
			if _, err := shared.ParsePermission(perm); err != nil {
				return fmt.Errorf("namespace %s, agent %s: %w", ns.Name, agent, err)
			}
		}
		if ns.ConflictStrategy != "" {
			if err := shared.ConflictStrategy(ns.ConflictStrategy).Validate(); err != nil {
				return fmt.Errorf("namespace %s: %w", ns.Name, err)
			}
		}
		if ns.TTLMs < 0 {
			return fmt.Errorf("namespace %s: ttl_ms cannot be negative", ns.Name)
		}
	}
	return nil
}
