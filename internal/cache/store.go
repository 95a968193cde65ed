// Package cache provides the persistent key-value stores that back
// theme-song reference resolution. A key being present, even with an empty
// value, means resolution was already attempted for that key, and the
// pipeline must not query the external service again.
package cache

// Store is a persistent mapping from a theme-song identifier to a resolved
// external reference. An empty string value records "searched, not found".
type Store interface {
	// Get returns the cached value for key and whether resolution was ever
	// attempted for it.
	Get(key string) (string, bool)

	// Put records the value for key, persisting it immediately. An empty
	// value is stored like any other: it marks the key as attempted.
	Put(key, value string) error

	// GetOrResolve returns the cached value for key if present; otherwise it
	// invokes resolver exactly once, stores the result (even when empty) and
	// returns it. A resolver error is returned as-is and nothing is cached.
	// A non-nil error alongside a value means the value is valid in memory
	// but could not be persisted.
	GetOrResolve(key string, resolver func() (string, error)) (string, error)

	Close() error
}
