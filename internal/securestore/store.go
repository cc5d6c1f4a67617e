// Package securestore provides the key-value storage used for auth tokens:
// a capability interface over platform stores, a chunking wrapper for
// backends with a per-value size ceiling, and a migration wrapper that
// drains a legacy unencrypted store into the secure one.
package securestore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("securestore: key not found")

// ErrValueTooLarge is returned by Set when a backend rejects a value that
// exceeds its per-value ceiling.
var ErrValueTooLarge = errors.New("securestore: value exceeds store limit")

// KeyValue is the capability interface all backends implement. Concrete
// stores are selected at startup by dependency injection, never by build
// tags.
type KeyValue interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// IsNotFound reports whether err indicates a missing key.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
