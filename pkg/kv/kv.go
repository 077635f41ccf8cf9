// Package kv defines the flat key-value boundary the board is built on.
// The backing store only has to offer exact-key lookup and lexicographic
// prefix scans; everything tree-shaped is encoded into the keys by the
// callers (see pkg/keys).
package kv

import "errors"

// ErrNotFound is returned when a key has no value in the store.
var ErrNotFound = errors.New("kv: key not found")

// Entry is a single key/value pair returned by prefix scans.
type Entry struct {
	Key   string
	Value string
}

// Store is the storage contract shared by the Pebble backend and the
// in-memory fake used in tests. Keys iterate in lexicographic byte order.
type Store interface {
	// Get returns the value for key or ErrNotFound.
	Get(key string) (string, error)
	// Put stores value under key, overwriting any previous value.
	Put(key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
	// ListByPrefix returns up to limit entries whose key starts with
	// prefix, in key order. limit <= 0 means no cap.
	ListByPrefix(prefix string, limit int) ([]Entry, error)
	// ListAfter is ListByPrefix resuming strictly after the key after,
	// so callers can page through a prefix range without rescanning its
	// head. An empty after starts at the beginning of the range.
	ListAfter(prefix, after string, limit int) ([]Entry, error)
}

// IsNotFound reports whether err is the store's missing-key error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
