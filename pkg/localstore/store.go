// Package localstore provides the persistent key-value store backing the
// offline cache. Values are opaque strings; callers own serialization.
package localstore

// Store is the minimal persistence contract shared by all backends. Get
// reports absence through the boolean rather than an error so read paths can
// treat "missing" and "never written" identically.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

// Closer is implemented by backends holding external connections.
type Closer interface {
	Close() error
}
