// Package config loads and validates the memory layer's configuration and
// assembles the components from it: a viper-backed loader with MNEMO_
// environment overrides, per-section validators, builders for each
// component, and a Bootstrap that wires logging, tracing, and the audit
// mirror the way a host process embeds the layer.
//
// Usage:
//
//	cfg, _ := config.NewLoader("").Load()
//	layer, err := config.Bootstrap(cfg, config.Collaborators{Provider: provider})
//	if err != nil {
//		return err
//	}
//	defer layer.Close()
package config
