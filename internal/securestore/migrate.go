package securestore

import (
	"context"
	"sync"

	"github.com/stillwaterhq/stillwater/internal/logging"
)

// Migrating layers a secure store over a legacy unencrypted store that is
// used only as a migration source. Reads that miss the secure store fall
// back to the legacy store and, on a hit, move the value into the secure
// store. The legacy copy is deleted only after the secure write succeeded,
// so an interrupted migration can always be retried.
type Migrating struct {
	secure KeyValue
	legacy KeyValue
	logger *logging.Logger

	// mu serializes migrations so concurrent reads of the same key migrate
	// it exactly once.
	mu sync.Mutex
}

// NewMigrating creates a migrating store over the given secure and legacy
// backends.
func NewMigrating(secure, legacy KeyValue, logger *logging.Logger) *Migrating {
	return &Migrating{secure: secure, legacy: legacy, logger: logger}
}

// Get returns the value for key, migrating it from the legacy store on a
// secure-store miss. A failed secure write during migration still returns
// the legacy value and leaves the legacy copy in place.
func (m *Migrating) Get(ctx context.Context, key string) (string, error) {
	value, err := m.secure.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if !IsNotFound(err) {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another reader may have finished the migration while we waited.
	value, err = m.secure.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if !IsNotFound(err) {
		return "", err
	}

	value, err = m.legacy.Get(ctx, key)
	if err != nil {
		return "", err
	}

	if err := m.secure.Set(ctx, key, value); err != nil {
		m.logger.WithContext(ctx).WithError(err).Warnf("migration write failed for %s; legacy copy kept", key)
		return value, nil
	}
	if err := m.legacy.Delete(ctx, key); err != nil {
		m.logger.WithContext(ctx).WithError(err).Warnf("legacy cleanup failed for %s", key)
	}
	return value, nil
}

// Set writes to the secure store only.
func (m *Migrating) Set(ctx context.Context, key, value string) error {
	return m.secure.Set(ctx, key, value)
}

// Delete removes key from both stores independently. Each removal is best
// effort: a failure in one store never prevents the other removal and is
// never surfaced to the caller.
func (m *Migrating) Delete(ctx context.Context, key string) error {
	if err := m.secure.Delete(ctx, key); err != nil {
		m.logger.WithContext(ctx).WithError(err).Warnf("secure delete failed for %s", key)
	}
	if err := m.legacy.Delete(ctx, key); err != nil {
		m.logger.WithContext(ctx).WithError(err).Warnf("legacy delete failed for %s", key)
	}
	return nil
}
