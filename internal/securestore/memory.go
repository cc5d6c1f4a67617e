package securestore

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-memory KeyValue store. A non-zero ValueLimit enforces a
// per-value byte ceiling, mirroring the size-constrained platform keychains
// the chunking wrapper exists for.
type Memory struct {
	mu         sync.RWMutex
	values     map[string]string
	valueLimit int
}

// NewMemory creates an in-memory store. valueLimit caps the byte length of a
// single value; zero means unlimited.
func NewMemory(valueLimit int) *Memory {
	return &Memory{
		values:     make(map[string]string),
		valueLimit: valueLimit,
	}
}

func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return v, nil
}

func (m *Memory) Set(ctx context.Context, key, value string) error {
	if m.valueLimit > 0 && len(value) > m.valueLimit {
		return fmt.Errorf("%w: %d bytes over limit %d", ErrValueTooLarge, len(value), m.valueLimit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
