// Package shared coordinates namespaced key-value memory between agents,
// with per-agent permissions, conflict resolution, TTL expiry, and event
// subscriptions.
//
// Invariants:
// - Namespaces exist only through CreateNamespace; writes never auto-create.
// - Effective permission is the agent override, else the namespace default;
//   checks are threshold comparisons on the ordered Permission enum.
// - Every accepted write increments the entry version by exactly one.
// - Admin operations fail loud; data-plane failures come back as soft
//   (false/nil, error) results and land in the access log either way.
// - Event delivery is asynchronous, at-most-once, best-effort: a full buffer
//   drops the event, and a panicking subscriber never affects the others.
//
// Usage:
//
//	coord, _ := shared.New(shared.Config{})
//	defer coord.Destroy()
//	_ = coord.CreateNamespace(shared.NamespaceConfig{
//		Name:              "plans",
//		DefaultPermission: shared.PermissionWrite,
//	})
//	_, _ = coord.Write(ctx, "plans", "step", "gather requirements", "agent-1", nil)
//	value, _ := coord.Read(ctx, "plans", "step", "agent-2")
//	_ = value
package shared
