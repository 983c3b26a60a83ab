package shared

import "errors"

var (
	// ErrNamespaceExists is returned when creating a namespace that exists.
	ErrNamespaceExists = errors.New("shared: namespace already exists")
	// ErrNamespaceNotFound is returned for operations on unknown namespaces.
	ErrNamespaceNotFound = errors.New("shared: namespace not found")
	// ErrPermissionDenied is returned when the agent's effective permission
	// is below the operation's requirement.
	ErrPermissionDenied = errors.New("shared: permission denied")
	// ErrNamespaceFull is returned for new keys in a namespace at capacity.
	ErrNamespaceFull = errors.New("shared: namespace is full")
	// ErrSchemaViolation is returned when a value fails the namespace schema.
	ErrSchemaViolation = errors.New("shared: value violates namespace schema")
	// ErrConflict is returned when conflict resolution rejects a write.
	ErrConflict = errors.New("shared: write conflict")
	// ErrVersionConflict is returned when an optimistic write carries a
	// stale version, or a plain write hits an occupied key under the
	// version strategy.
	ErrVersionConflict = errors.New("shared: version conflict")
	// ErrKeyNotFound is returned when reading an absent or expired key.
	ErrKeyNotFound = errors.New("shared: key not found")
	// ErrDestroyed is returned for operations on a destroyed coordinator.
	ErrDestroyed = errors.New("shared: coordinator destroyed")
)
