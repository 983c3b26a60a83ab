package config

// Config is the top-level configuration for embedding the memory layer.
type Config struct {
	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Tracing
	Tracing TracingConfig `json:"tracing" mapstructure:"tracing"`

	// Audit
	Audit AuditConfig `json:"audit" mapstructure:"audit"`

	// Context window manager
	Window WindowConfig `json:"window" mapstructure:"window"`

	// Vector store
	Vector VectorConfig `json:"vector" mapstructure:"vector"`

	// Shared memory coordinator
	Shared SharedConfig `json:"shared" mapstructure:"shared"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `json:"level" mapstructure:"level"`
	File    string `json:"file" mapstructure:"file"`
	Console bool   `json:"console" mapstructure:"console"`
	Pretty  bool   `json:"pretty" mapstructure:"pretty"`
}

// TracingConfig holds OpenTelemetry configuration
type TracingConfig struct {
	Enabled     bool   `json:"enabled" mapstructure:"enabled"`
	ServiceName string `json:"service_name" mapstructure:"service_name"`
}

// AuditConfig holds the JSON audit log configuration
type AuditConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	File    string `json:"file" mapstructure:"file"`
}

// WindowConfig holds context window manager configuration
type WindowConfig struct {
	MaxTokens         int    `json:"max_tokens" mapstructure:"max_tokens"`
	PreserveRecent    int    `json:"preserve_recent" mapstructure:"preserve_recent"`
	PreserveSystem    bool   `json:"preserve_system" mapstructure:"preserve_system"`
	Strategy          string `json:"strategy" mapstructure:"strategy"`
	MinImportance     string `json:"min_importance" mapstructure:"min_importance"`
	SummarizerTimeout int    `json:"summarizer_timeout" mapstructure:"summarizer_timeout"` // seconds
}

// VectorConfig holds vector store configuration
type VectorConfig struct {
	Dimensions    int     `json:"dimensions" mapstructure:"dimensions"`
	MaxEntries    int     `json:"max_entries" mapstructure:"max_entries"`
	Metric        string  `json:"metric" mapstructure:"metric"`
	Threshold     float64 `json:"threshold" mapstructure:"threshold"`
	MaxDistance   float64 `json:"max_distance" mapstructure:"max_distance"`
	Backend       string  `json:"backend" mapstructure:"backend"` // memory, file, sqlite
	Path          string  `json:"path" mapstructure:"path"`
	SaveDebounce  int     `json:"save_debounce" mapstructure:"save_debounce"` // milliseconds
	WatchExternal bool    `json:"watch_external" mapstructure:"watch_external"`
}

// SharedConfig holds shared memory coordinator configuration
type SharedConfig struct {
	CleanupInterval int                    `json:"cleanup_interval" mapstructure:"cleanup_interval"` // seconds, -1 disables
	CleanupSchedule string                 `json:"cleanup_schedule" mapstructure:"cleanup_schedule"`
	AccessLogSize   int                    `json:"access_log_size" mapstructure:"access_log_size"`
	EventBuffer     int                    `json:"event_buffer" mapstructure:"event_buffer"`
	Namespaces      []NamespaceDeclaration `json:"namespaces" mapstructure:"namespaces"`
}

// NamespaceDeclaration describes a namespace created at bootstrap.
type NamespaceDeclaration struct {
	Name              string            `json:"name" mapstructure:"name"`
	DefaultPermission string            `json:"default_permission" mapstructure:"default_permission"`
	AgentPermissions  map[string]string `json:"agent_permissions" mapstructure:"agent_permissions"`
	ConflictStrategy  string            `json:"conflict_strategy" mapstructure:"conflict_strategy"`
	MaxEntries        int               `json:"max_entries" mapstructure:"max_entries"`
	TTLMs             int64             `json:"ttl_ms" mapstructure:"ttl_ms"`
	ValueSchema       string            `json:"value_schema" mapstructure:"value_schema"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
		Tracing: TracingConfig{
			ServiceName: "mnemo",
		},
		Window: WindowConfig{
			MaxTokens:         4000,
			PreserveRecent:    2,
			PreserveSystem:    true,
			Strategy:          "hybrid",
			MinImportance:     "high",
			SummarizerTimeout: 30,
		},
		Vector: VectorConfig{
			Dimensions: 1536,
			Metric:     "cosine",
			Backend:    "memory",
		},
		Shared: SharedConfig{
			CleanupInterval: 60,
			AccessLogSize:   1000,
			EventBuffer:     256,
		},
	}
}
