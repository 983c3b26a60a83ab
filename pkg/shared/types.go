package shared

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultCleanupInterval = time.Minute
	defaultAccessLogSize   = 1000
	defaultEventBuffer     = 256
)

// Permission ranks what an agent may do in a namespace. Higher values
// compare greater, so checks are plain threshold comparisons. The zero
// value none is the implicit default for agents with no grant.
type Permission int

const (
	PermissionNone Permission = iota
	PermissionRead
	PermissionWrite
	PermissionAdmin
)

var permissionNames = map[Permission]string{
	PermissionNone:  "none",
	PermissionRead:  "read",
	PermissionWrite: "write",
	PermissionAdmin: "admin",
}

func (p Permission) String() string {
	if name, ok := permissionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("permission(%d)", int(p))
}

// Validate rejects permissions outside the known set.
func (p Permission) Validate() error {
	if _, ok := permissionNames[p]; !ok {
		return fmt.Errorf("unknown permission: %d", int(p))
	}
	return nil
}

// ParsePermission converts a string form back to a Permission. Unknown
// forms are rejected.
func ParsePermission(s string) (Permission, error) {
	for perm, name := range permissionNames {
		if name == s {
			return perm, nil
		}
	}
	return PermissionNone, fmt.Errorf("unknown permission: %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p Permission) MarshalText() ([]byte, error) {
	name, ok := permissionNames[p]
	if !ok {
		return nil, fmt.Errorf("unknown permission: %d", int(p))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Permission) UnmarshalText(text []byte) error {
	parsed, err := ParsePermission(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Action identifies a data-plane operation in the access log.
type Action string

const (
	ActionRead      Action = "read"
	ActionWrite     Action = "write"
	ActionDelete    Action = "delete"
	ActionSubscribe Action = "subscribe"
	ActionBroadcast Action = "broadcast"
)

// ConflictStrategy selects how a write to an occupied key resolves.
type ConflictStrategy string

const (
	// ConflictLatestWins replaces the existing value.
	ConflictLatestWins ConflictStrategy = "latest-wins"
	// ConflictFirstWins rejects writes to occupied keys.
	ConflictFirstWins ConflictStrategy = "first-wins"
	// ConflictMerge shallow-merges the incoming value onto the existing one.
	ConflictMerge ConflictStrategy = "merge"
	// ConflictVersion requires WriteVersioned for occupied keys.
	ConflictVersion ConflictStrategy = "version"
	// ConflictCustom delegates to the namespace resolver.
	ConflictCustom ConflictStrategy = "custom"
)

// Validate rejects strategies outside the known set.
func (s ConflictStrategy) Validate() error {
	switch s {
	case ConflictLatestWins, ConflictFirstWins, ConflictMerge, ConflictVersion, ConflictCustom:
		return nil
	default:
		return fmt.Errorf("unknown conflict strategy: %q", string(s))
	}
}

// Resolver decides the stored entry for the custom strategy. An error
// rejects the write like a conflict.
type Resolver func(existing, incoming Entry, key string) (Entry, error)

// Entry is one stored value with its ownership and version bookkeeping.
type Entry struct {
	Value     interface{}            `json:"value"`
	OwnerID   string                 `json:"owner_id"`
	Timestamp time.Time              `json:"timestamp"`
	Version   int64                  `json:"version"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NamespaceConfig describes one namespace at creation time.
type NamespaceConfig struct {
	// Name identifies the namespace. Required.
	Name string `json:"name"`
	// DefaultPermission applies to agents without an override.
	DefaultPermission Permission `json:"default_permission"`
	// AgentPermissions overrides the default per agent id.
	AgentPermissions map[string]Permission `json:"agent_permissions,omitempty"`
	// ConflictStrategy resolves writes to occupied keys. Defaults to
	// latest-wins.
	ConflictStrategy ConflictStrategy `json:"conflict_strategy,omitempty"`
	// Resolver backs the custom strategy. Nil falls back to latest-wins.
	Resolver Resolver `json:"-"`
	// MaxEntries caps the key count. Zero means unbounded.
	MaxEntries int `json:"max_entries,omitempty"`
	// TTL expires entries after this age. Zero means no expiry.
	TTL time.Duration `json:"ttl,omitempty"`
	// ValueSchema is an optional JSON Schema source validating written
	// values. Compiled once at creation.
	ValueSchema string `json:"value_schema,omitempty"`
}

// PermissionUpdate adjusts namespace permissions. Nil/empty fields leave
// their part untouched.
type PermissionUpdate struct {
	// Default replaces the namespace default permission when set.
	Default *Permission `json:"default,omitempty"`
	// Set adds or replaces per-agent grants.
	Set map[string]Permission `json:"set,omitempty"`
	// Unset removes per-agent grants.
	Unset []string `json:"unset,omitempty"`
}

// Config configures a Coordinator.
type Config struct {
	// Logger receives coordinator logs.
	Logger zerolog.Logger
	// CleanupInterval paces the background TTL sweep. Defaults to one
	// minute; a negative value disables the janitor.
	CleanupInterval time.Duration
	// CleanupSchedule is an optional cron expression that replaces the
	// interval pacing.
	CleanupSchedule string
	// AccessLogSize bounds the access log ring. Defaults to 1000.
	AccessLogSize int
	// EventBuffer sizes the event dispatch channel. Defaults to 256.
	EventBuffer int
}

func (c *Config) applyDefaults() {
	if c.CleanupInterval == 0 {
		c.CleanupInterval = defaultCleanupInterval
	}
	if c.AccessLogSize == 0 {
		c.AccessLogSize = defaultAccessLogSize
	}
	if c.AccessLogSize < 0 {
		c.AccessLogSize = 0
	}
	if c.EventBuffer == 0 {
		c.EventBuffer = defaultEventBuffer
	}
	if c.EventBuffer < 0 {
		c.EventBuffer = 0
	}
}

// Stats reports coordinator usage. The counters never decrease.
type Stats struct {
	Namespaces        int   `json:"namespaces"`
	Entries           int   `json:"entries"`
	Subscriptions     int   `json:"subscriptions"`
	WritesAccepted    int64 `json:"writes_accepted"`
	ConflictsRejected int64 `json:"conflicts_rejected"`
	EntriesExpired    int64 `json:"entries_expired"`
	EventsDropped     int64 `json:"events_dropped"`
}
