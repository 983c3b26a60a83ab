package shared

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/mnemolab/mnemo/internal/observability"
	"github.com/mnemolab/mnemo/internal/tracing"
	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "mnemo.shared"

type subscription struct {
	id      string
	agentID string
	fn      EventHandler
}

type namespaceState struct {
	cfg         NamespaceConfig
	schema      *gojsonschema.Schema
	entries     map[string]*Entry
	subscribers []subscription
}

// permissionFor returns the agent's effective permission: its override if
// present, else the namespace default.
func (ns *namespaceState) permissionFor(agentID string) Permission {
	if perm, ok := ns.cfg.AgentPermissions[agentID]; ok {
		return perm
	}
	return ns.cfg.DefaultPermission
}

func (ns *namespaceState) expiredAt(entry *Entry, now time.Time) bool {
	return ns.cfg.TTL > 0 && now.Sub(entry.Timestamp) > ns.cfg.TTL
}

// Coordinator mediates namespaced memory between agents. A single mutex
// serializes all state access so read-modify-write sequences stay atomic;
// subscriber callbacks run on the event dispatcher, never under the lock.
type Coordinator struct {
	logger zerolog.Logger
	cfg    Config
	bus    *eventBus

	mu         sync.Mutex
	namespaces map[string]*namespaceState
	handlers   map[EventType][]EventHandler
	accessLog  *accessLog
	janitor    *janitor
	destroyed  bool

	writes    int64
	conflicts int64
	expired   int64
	dropped   int64
}

// New creates a Coordinator from cfg and starts its background workers.
func New(cfg Config) (*Coordinator, error) {
	cfg.applyDefaults()

	observability.EnsureRegistered()

	c := &Coordinator{
		logger:     cfg.Logger,
		cfg:        cfg,
		namespaces: make(map[string]*namespaceState),
		handlers:   make(map[EventType][]EventHandler),
		accessLog:  newAccessLog(cfg.AccessLogSize),
	}
	c.bus = newEventBus(cfg.EventBuffer, cfg.Logger)

	if cfg.CleanupSchedule != "" || cfg.CleanupInterval > 0 {
		janitor, err := newJanitor(c, cfg)
		if err != nil {
			c.bus.close()
			return nil, err
		}
		c.janitor = janitor
		janitor.start()
	}

	c.logger.Info().
		Dur("cleanup_interval", cfg.CleanupInterval).
		Str("cleanup_schedule", cfg.CleanupSchedule).
		Msg("Shared memory coordinator initialized")

	return c, nil
}

// CreateNamespace registers a new namespace. Writes never auto-create, so
// this is the only way a namespace comes into being.
func (c *Coordinator) CreateNamespace(cfg NamespaceConfig) error {
	if cfg.Name == "" {
		return errors.New("namespace name is required")
	}
	if cfg.ConflictStrategy == "" {
		cfg.ConflictStrategy = ConflictLatestWins
	}
	if err := cfg.ConflictStrategy.Validate(); err != nil {
		return err
	}
	if err := cfg.DefaultPermission.Validate(); err != nil {
		return err
	}
	for agent, perm := range cfg.AgentPermissions {
		if err := perm.Validate(); err != nil {
			return fmt.Errorf("invalid permission for agent %s: %w", agent, err)
		}
	}

	var schema *gojsonschema.Schema
	if cfg.ValueSchema != "" {
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(cfg.ValueSchema))
		if err != nil {
			return fmt.Errorf("failed to compile value schema: %w", err)
		}
		schema = compiled
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return ErrDestroyed
	}
	if _, exists := c.namespaces[cfg.Name]; exists {
		return ErrNamespaceExists
	}

	ns := &namespaceState{
		cfg:     cfg,
		schema:  schema,
		entries: make(map[string]*Entry),
	}
	c.namespaces[cfg.Name] = ns

	c.emitLocked(ns, Event{Type: EventNamespaceCreated, Namespace: cfg.Name})
	c.updateUsageLocked()
	c.logger.Info().
		Str("namespace", cfg.Name).
		Str("strategy", string(cfg.ConflictStrategy)).
		Str("default_permission", cfg.DefaultPermission.String()).
		Msg("Namespace created")

	return nil
}

// DeleteNamespace removes a namespace with its entries and subscriptions.
// Requires admin.
func (c *Coordinator) DeleteNamespace(name, agentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return ErrDestroyed
	}
	ns, ok := c.namespaces[name]
	if !ok {
		return ErrNamespaceNotFound
	}
	if ns.permissionFor(agentID) < PermissionAdmin {
		observability.RecordAdminAudit(context.Background(), "namespace_delete", agentID, name, false)
		return ErrPermissionDenied
	}

	// Emit before removal so current subscribers get the final event.
	c.emitLocked(ns, Event{Type: EventNamespaceDeleted, Namespace: name, AgentID: agentID})
	delete(c.namespaces, name)

	c.updateUsageLocked()
	observability.RecordAdminAudit(context.Background(), "namespace_delete", agentID, name, true)
	c.logger.Info().
		Str("namespace", name).
		Str("agent_id", agentID).
		Msg("Namespace deleted")

	return nil
}

// ClearNamespace removes all entries but keeps the namespace and its
// subscriptions. Requires admin.
func (c *Coordinator) ClearNamespace(name, agentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return ErrDestroyed
	}
	ns, ok := c.namespaces[name]
	if !ok {
		return ErrNamespaceNotFound
	}
	if ns.permissionFor(agentID) < PermissionAdmin {
		observability.RecordAdminAudit(context.Background(), "namespace_clear", agentID, name, false)
		return ErrPermissionDenied
	}

	removed := len(ns.entries)
	ns.entries = make(map[string]*Entry)

	c.updateUsageLocked()
	observability.RecordAdminAudit(context.Background(), "namespace_clear", agentID, name, true)
	c.logger.Info().
		Str("namespace", name).
		Str("agent_id", agentID).
		Int("removed", removed).
		Msg("Namespace cleared")

	return nil
}

// UpdatePermissions adjusts the namespace default and per-agent grants.
// Requires admin.
func (c *Coordinator) UpdatePermissions(name, agentID string, update PermissionUpdate) error {
	if update.Default != nil {
		if err := update.Default.Validate(); err != nil {
			return err
		}
	}
	for agent, perm := range update.Set {
		if err := perm.Validate(); err != nil {
			return fmt.Errorf("invalid permission for agent %s: %w", agent, err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return ErrDestroyed
	}
	ns, ok := c.namespaces[name]
	if !ok {
		return ErrNamespaceNotFound
	}
	if ns.permissionFor(agentID) < PermissionAdmin {
		observability.RecordAdminAudit(context.Background(), "permissions_update", agentID, name, false)
		return ErrPermissionDenied
	}

	if update.Default != nil {
		ns.cfg.DefaultPermission = *update.Default
	}
	if len(update.Set) > 0 && ns.cfg.AgentPermissions == nil {
		ns.cfg.AgentPermissions = make(map[string]Permission, len(update.Set))
	}
	for agent, perm := range update.Set {
		ns.cfg.AgentPermissions[agent] = perm
	}
	for _, agent := range update.Unset {
		delete(ns.cfg.AgentPermissions, agent)
	}

	observability.RecordAdminAudit(context.Background(), "permissions_update", agentID, name, true)
	c.logger.Info().
		Str("namespace", name).
		Str("agent_id", agentID).
		Msg("Namespace permissions updated")

	return nil
}

// Namespaces returns the known namespace names, sorted.
func (c *Coordinator) Namespaces() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.namespaces))
	for name := range c.namespaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Write stores value under namespace/key for agentID. Requires write.
// Conflicts on occupied keys resolve by the namespace strategy.
func (c *Coordinator) Write(ctx context.Context, namespace, key string, value interface{}, agentID string, metadata map[string]interface{}) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "shared.write",
		attribute.String("namespace", namespace),
		attribute.String("key", key))
	defer span.End()

	return c.write(ctx, span, namespace, key, value, agentID, nil, metadata)
}

// WriteVersioned is Write with optimistic concurrency: the write is
// rejected unless expectedVersion matches the stored version, or the key
// is absent and expectedVersion is zero.
func (c *Coordinator) WriteVersioned(ctx context.Context, namespace, key string, value interface{}, agentID string, expectedVersion int64, metadata map[string]interface{}) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "shared.write_versioned",
		attribute.String("namespace", namespace),
		attribute.String("key", key),
		attribute.Int64("expected_version", expectedVersion))
	defer span.End()

	return c.write(ctx, span, namespace, key, value, agentID, &expectedVersion, metadata)
}

func (c *Coordinator) write(ctx context.Context, span trace.Span, namespace, key string, value interface{}, agentID string, expectedVersion *int64, metadata map[string]interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return false, ErrDestroyed
	}
	ns, ok := c.namespaces[namespace]
	if !ok {
		return false, c.denyLocked(ctx, span, agentID, ActionWrite, namespace, key, ErrNamespaceNotFound)
	}
	if ns.permissionFor(agentID) < PermissionWrite {
		return false, c.denyLocked(ctx, span, agentID, ActionWrite, namespace, key, ErrPermissionDenied)
	}

	now := time.Now().UTC()
	existing := ns.entries[key]
	if existing != nil && ns.expiredAt(existing, now) {
		// An expired entry never blocks a write; the key restarts fresh.
		delete(ns.entries, key)
		c.expired++
		observability.RecordSharedExpired(1)
		existing = nil
	}

	if expectedVersion != nil {
		matches := (existing == nil && *expectedVersion == 0) ||
			(existing != nil && existing.Version == *expectedVersion)
		if !matches {
			return false, c.rejectConflictLocked(ctx, span, ns, agentID, namespace, key,
				"version", "stale_version", ErrVersionConflict)
		}
	}

	if existing == nil && ns.cfg.MaxEntries > 0 && len(ns.entries) >= ns.cfg.MaxEntries {
		return false, c.denyLocked(ctx, span, agentID, ActionWrite, namespace, key, ErrNamespaceFull)
	}

	if ns.schema != nil {
		if err := validateValue(ns.schema, value); err != nil {
			return false, c.denyLocked(ctx, span, agentID, ActionWrite, namespace, key, err)
		}
	}

	entry := Entry{
		Value:     value,
		OwnerID:   agentID,
		Timestamp: now,
		Version:   1,
		Metadata:  metadata,
	}

	if existing != nil {
		switch ns.cfg.ConflictStrategy {
		case ConflictLatestWins:
			// Incoming replaces.
		case ConflictFirstWins:
			return false, c.rejectConflictLocked(ctx, span, ns, agentID, namespace, key,
				"first-wins", "conflict_rejected", ErrConflict)
		case ConflictMerge:
			entry.Value = mergeValues(existing.Value, value)
		case ConflictVersion:
			if expectedVersion == nil {
				return false, c.rejectConflictLocked(ctx, span, ns, agentID, namespace, key,
					"version", "version_required", ErrVersionConflict)
			}
		case ConflictCustom:
			if ns.cfg.Resolver != nil {
				resolved, err := ns.cfg.Resolver(*existing, entry, key)
				if err != nil {
					return false, c.rejectConflictLocked(ctx, span, ns, agentID, namespace, key,
						"custom", "resolver_rejected", fmt.Errorf("%w: %v", ErrConflict, err))
				}
				entry.Value = resolved.Value
				entry.Metadata = resolved.Metadata
			}
		}
		entry.Version = existing.Version + 1
	}

	ns.entries[key] = &entry
	c.writes++

	c.recordAccessLocked(ctx, agentID, ActionWrite, namespace, key, true, "")
	c.emitLocked(ns, Event{
		Type:      EventWrite,
		Namespace: namespace,
		Key:       key,
		AgentID:   agentID,
		Value:     entry.Value,
	})
	c.updateUsageLocked()
	span.SetAttributes(attribute.Int64("version", entry.Version))

	ctxLogger := tracing.LoggerFromContext(ctx, c.logger)
	ctxLogger.Debug().
		Str("namespace", namespace).
		Str("key", key).
		Str("agent_id", agentID).
		Int64("version", entry.Version).
		Msg("Entry written")

	return true, nil
}

// Read returns the value under namespace/key. Requires read. Entries past
// the namespace TTL are removed on read and reported absent.
func (c *Coordinator) Read(ctx context.Context, namespace, key, agentID string) (interface{}, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "shared.read",
		attribute.String("namespace", namespace),
		attribute.String("key", key))
	defer span.End()

	entry, err := c.readEntry(ctx, span, namespace, key, agentID)
	if err != nil {
		return nil, err
	}
	return entry.Value, nil
}

// ReadEntry returns a copy of the full entry under namespace/key, so
// callers can feed its version into WriteVersioned. Requires read.
func (c *Coordinator) ReadEntry(ctx context.Context, namespace, key, agentID string) (*Entry, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "shared.read_entry",
		attribute.String("namespace", namespace),
		attribute.String("key", key))
	defer span.End()

	return c.readEntry(ctx, span, namespace, key, agentID)
}

func (c *Coordinator) readEntry(ctx context.Context, span trace.Span, namespace, key, agentID string) (*Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return nil, ErrDestroyed
	}
	ns, ok := c.namespaces[namespace]
	if !ok {
		return nil, c.denyLocked(ctx, span, agentID, ActionRead, namespace, key, ErrNamespaceNotFound)
	}
	if ns.permissionFor(agentID) < PermissionRead {
		return nil, c.denyLocked(ctx, span, agentID, ActionRead, namespace, key, ErrPermissionDenied)
	}

	entry, ok := ns.entries[key]
	if !ok {
		c.recordAccessLocked(ctx, agentID, ActionRead, namespace, key, false, ErrKeyNotFound.Error())
		return nil, ErrKeyNotFound
	}
	if ns.expiredAt(entry, time.Now().UTC()) {
		delete(ns.entries, key)
		c.expired++
		observability.RecordSharedExpired(1)
		c.updateUsageLocked()
		c.recordAccessLocked(ctx, agentID, ActionRead, namespace, key, false, "Entry expired")
		return nil, ErrKeyNotFound
	}

	c.recordAccessLocked(ctx, agentID, ActionRead, namespace, key, true, "")
	copied := *entry
	return &copied, nil
}

// Delete removes namespace/key, reporting whether it existed. Requires
// write.
func (c *Coordinator) Delete(ctx context.Context, namespace, key, agentID string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "shared.delete",
		attribute.String("namespace", namespace),
		attribute.String("key", key))
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return false, ErrDestroyed
	}
	ns, ok := c.namespaces[namespace]
	if !ok {
		return false, c.denyLocked(ctx, span, agentID, ActionDelete, namespace, key, ErrNamespaceNotFound)
	}
	if ns.permissionFor(agentID) < PermissionWrite {
		return false, c.denyLocked(ctx, span, agentID, ActionDelete, namespace, key, ErrPermissionDenied)
	}

	entry, ok := ns.entries[key]
	if ok && ns.expiredAt(entry, time.Now().UTC()) {
		delete(ns.entries, key)
		c.expired++
		observability.RecordSharedExpired(1)
		ok = false
	}
	if !ok {
		c.recordAccessLocked(ctx, agentID, ActionDelete, namespace, key, true, "")
		return false, nil
	}

	delete(ns.entries, key)
	c.recordAccessLocked(ctx, agentID, ActionDelete, namespace, key, true, "")
	c.emitLocked(ns, Event{
		Type:      EventDelete,
		Namespace: namespace,
		Key:       key,
		AgentID:   agentID,
	})
	c.updateUsageLocked()

	ctxLogger := tracing.LoggerFromContext(ctx, c.logger)
	ctxLogger.Debug().
		Str("namespace", namespace).
		Str("key", key).
		Str("agent_id", agentID).
		Msg("Entry deleted")

	return true, nil
}

// Broadcast sends a message event to the namespace's subscribers without
// touching stored state. Requires read: broadcasting is communication,
// not mutation.
func (c *Coordinator) Broadcast(ctx context.Context, namespace string, message interface{}, agentID string) error {
	ctx, span := tracing.StartSpan(ctx, tracerName, "shared.broadcast",
		attribute.String("namespace", namespace))
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return ErrDestroyed
	}
	ns, ok := c.namespaces[namespace]
	if !ok {
		return c.denyLocked(ctx, span, agentID, ActionBroadcast, namespace, "", ErrNamespaceNotFound)
	}
	if ns.permissionFor(agentID) < PermissionRead {
		return c.denyLocked(ctx, span, agentID, ActionBroadcast, namespace, "", ErrPermissionDenied)
	}

	c.recordAccessLocked(ctx, agentID, ActionBroadcast, namespace, "", true, "")
	c.emitLocked(ns, Event{
		Type:      EventBroadcast,
		Namespace: namespace,
		AgentID:   agentID,
		Value:     message,
	})

	ctxLogger := tracing.LoggerFromContext(ctx, c.logger)
	ctxLogger.Debug().
		Str("namespace", namespace).
		Str("agent_id", agentID).
		Msg("Broadcast published")

	return nil
}

// Subscribe registers fn for every event in the namespace and returns an
// idempotent unsubscribe closure. Requires read.
func (c *Coordinator) Subscribe(namespace, agentID string, fn func(Event)) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return nil, ErrDestroyed
	}
	ns, ok := c.namespaces[namespace]
	if !ok {
		c.recordAccessLocked(context.Background(), agentID, ActionSubscribe, namespace, "", false, ErrNamespaceNotFound.Error())
		return nil, ErrNamespaceNotFound
	}
	if ns.permissionFor(agentID) < PermissionRead {
		c.recordAccessLocked(context.Background(), agentID, ActionSubscribe, namespace, "", false, ErrPermissionDenied.Error())
		return nil, ErrPermissionDenied
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate subscription id: %w", err)
	}

	ns.subscribers = append(ns.subscribers, subscription{id: id, agentID: agentID, fn: fn})
	c.recordAccessLocked(context.Background(), agentID, ActionSubscribe, namespace, "", true, "")
	c.updateUsageLocked()
	c.logger.Debug().
		Str("namespace", namespace).
		Str("agent_id", agentID).
		Str("subscription_id", id).
		Msg("Subscription added")

	var once sync.Once
	return func() {
		once.Do(func() {
			c.removeSubscription(namespace, id)
		})
	}, nil
}

func (c *Coordinator) removeSubscription(namespace, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ns, ok := c.namespaces[namespace]
	if !ok {
		return
	}
	for i, sub := range ns.subscribers {
		if sub.id == id {
			ns.subscribers = append(ns.subscribers[:i], ns.subscribers[i+1:]...)
			break
		}
	}
	c.updateUsageLocked()
}

// On registers a coordinator-wide handler for one event type.
func (c *Coordinator) On(eventType EventType, handler EventHandler) error {
	if err := eventType.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return ErrDestroyed
	}
	c.handlers[eventType] = append(c.handlers[eventType], handler)
	return nil
}

// Off removes all coordinator-wide handlers for an event type.
func (c *Coordinator) Off(eventType EventType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, eventType)
}

// AccessLog returns access entries matching filter, chronological; with a
// limit, the most recent matches newest first.
func (c *Coordinator) AccessLog(filter AccessLogFilter) []AccessLogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessLog.query(filter)
}

// Stats returns usage counts and cumulative counters.
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{
		Namespaces:        len(c.namespaces),
		WritesAccepted:    c.writes,
		ConflictsRejected: c.conflicts,
		EntriesExpired:    c.expired,
		EventsDropped:     c.dropped,
	}
	for _, ns := range c.namespaces {
		stats.Entries += len(ns.entries)
		stats.Subscriptions += len(ns.subscribers)
	}
	return stats
}

// Cleanup sweeps expired entries from every namespace and returns the
// total removed. One cleanup event per affected namespace.
func (c *Coordinator) Cleanup() int {
	_, span := tracing.StartSpan(context.Background(), tracerName, "shared.cleanup")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return 0
	}

	now := time.Now().UTC()
	total := 0
	for name, ns := range c.namespaces {
		removed := 0
		for key, entry := range ns.entries {
			if ns.expiredAt(entry, now) {
				delete(ns.entries, key)
				removed++
			}
		}
		if removed > 0 {
			total += removed
			c.emitLocked(ns, Event{Type: EventCleanup, Namespace: name, Removed: removed})
		}
	}

	if total > 0 {
		c.expired += int64(total)
		observability.RecordSharedExpired(total)
		c.updateUsageLocked()
		c.logger.Info().Int("removed", total).Msg("Expired entries removed")
	}
	span.SetAttributes(attribute.Int("removed", total))
	return total
}

// Destroy stops the janitor, drains the event bus, and clears all state.
// Idempotent.
func (c *Coordinator) Destroy() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.destroyed = true
	janitor := c.janitor
	c.janitor = nil
	c.namespaces = make(map[string]*namespaceState)
	c.handlers = make(map[EventType][]EventHandler)
	c.accessLog.reset()
	c.mu.Unlock()

	// Both the janitor loop and in-flight handlers may need the lock, so
	// wait for them without holding it.
	if janitor != nil {
		janitor.stop()
	}
	c.bus.close()

	observability.SetSharedUsage(0, 0, 0)
	c.logger.Info().Msg("Shared memory coordinator destroyed")
}

// emitLocked snapshots the interested handlers (namespace subscribers in
// registration order, then type handlers) and hands the event to the bus.
func (c *Coordinator) emitLocked(ns *namespaceState, event Event) {
	event.Timestamp = time.Now().UTC()

	var handlers []EventHandler
	if ns != nil {
		for _, sub := range ns.subscribers {
			handlers = append(handlers, sub.fn)
		}
	}
	handlers = append(handlers, c.handlers[event.Type]...)

	if !c.bus.publish(event, handlers) {
		c.dropped++
		observability.RecordEventDropped()
	}
}

func (c *Coordinator) denyLocked(ctx context.Context, span trace.Span, agentID string, action Action, namespace, key string, err error) error {
	c.recordAccessLocked(ctx, agentID, action, namespace, key, false, err.Error())
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (c *Coordinator) rejectConflictLocked(ctx context.Context, span trace.Span, ns *namespaceState, agentID, namespace, key, strategy, reason string, err error) error {
	c.conflicts++
	observability.RecordSharedConflict(strategy)
	c.emitLocked(ns, Event{
		Type:      EventConflict,
		Namespace: namespace,
		Key:       key,
		AgentID:   agentID,
		Reason:    reason,
	})
	return c.denyLocked(ctx, span, agentID, ActionWrite, namespace, key, err)
}

func (c *Coordinator) recordAccessLocked(ctx context.Context, agentID string, action Action, namespace, key string, success bool, errMsg string) {
	c.accessLog.add(AccessLogEntry{
		AgentID:   agentID,
		Action:    action,
		Namespace: namespace,
		Key:       key,
		Timestamp: time.Now().UTC(),
		Success:   success,
		Error:     errMsg,
	})
	observability.RecordSharedAccess(string(action), success)
	observability.RecordAccessAudit(ctx, string(action), agentID, namespace, key, success, errMsg)

	if !success {
		ctxLogger := tracing.LoggerFromContext(ctx, c.logger)
		ctxLogger.Warn().
			Str("namespace", namespace).
			Str("key", key).
			Str("agent_id", agentID).
			Str("action", string(action)).
			Str("error", errMsg).
			Msg("Access failed")
	}
}

func (c *Coordinator) updateUsageLocked() {
	entries, subs := 0, 0
	for _, ns := range c.namespaces {
		entries += len(ns.entries)
		subs += len(ns.subscribers)
	}
	observability.SetSharedUsage(len(c.namespaces), entries, subs)
}

// validateValue checks value against a compiled namespace schema.
func validateValue(schema *gojsonschema.Schema, value interface{}) error {
	result, err := schema.Validate(gojsonschema.NewGoLoader(value))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	if result.Valid() {
		return nil
	}

	var errMsg string
	for i, verr := range result.Errors() {
		if i > 0 {
			errMsg += "; "
		}
		errMsg += verr.String()
	}
	return fmt.Errorf("%w: %s", ErrSchemaViolation, errMsg)
}
