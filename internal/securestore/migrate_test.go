package securestore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stillwaterhq/stillwater/internal/logging"
)

// countingStore wraps a KeyValue and counts calls, with optional injected
// failures per operation.
type countingStore struct {
	KeyValue
	mu        sync.Mutex
	gets      int
	sets      int
	deletes   int
	setErr    error
	deleteErr error
}

func (c *countingStore) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	c.gets++
	c.mu.Unlock()
	return c.KeyValue.Get(ctx, key)
}

func (c *countingStore) Set(ctx context.Context, key, value string) error {
	c.mu.Lock()
	c.sets++
	err := c.setErr
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return c.KeyValue.Set(ctx, key, value)
}

func (c *countingStore) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	c.deletes++
	err := c.deleteErr
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return c.KeyValue.Delete(ctx, key)
}

func newMigratingTest() (*Migrating, *countingStore, *countingStore) {
	secure := &countingStore{KeyValue: NewMemory(0)}
	legacy := &countingStore{KeyValue: NewMemory(0)}
	return NewMigrating(secure, legacy, logging.New("securestore-test")), secure, legacy
}

func TestMigrating_MigratesOnFirstRead(t *testing.T) {
	m, secure, legacy := newMigratingTest()
	ctx := context.Background()

	if err := legacy.KeyValue.Set(ctx, "token", "legacy-value"); err != nil {
		t.Fatalf("seed legacy: %v", err)
	}

	got, err := m.Get(ctx, "token")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "legacy-value" {
		t.Fatalf("got %q, want %q", got, "legacy-value")
	}

	// Value moved: secure has it, legacy no longer does.
	if v, err := secure.KeyValue.Get(ctx, "token"); err != nil || v != "legacy-value" {
		t.Fatalf("secure copy = %q, %v", v, err)
	}
	if _, err := legacy.KeyValue.Get(ctx, "token"); !IsNotFound(err) {
		t.Fatal("legacy copy should be deleted after migration")
	}

	// Second read is served by the secure store alone.
	legacyGets := legacy.gets
	if _, err := m.Get(ctx, "token"); err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if legacy.gets != legacyGets {
		t.Fatal("second read touched the legacy store")
	}
}

func TestMigrating_WriteFailureKeepsLegacyCopy(t *testing.T) {
	m, secure, legacy := newMigratingTest()
	ctx := context.Background()

	if err := legacy.KeyValue.Set(ctx, "token", "legacy-value"); err != nil {
		t.Fatalf("seed legacy: %v", err)
	}
	secure.setErr = errors.New("keychain unavailable")

	got, err := m.Get(ctx, "token")
	if err != nil {
		t.Fatalf("Get should not surface the migration failure: %v", err)
	}
	if got != "legacy-value" {
		t.Fatalf("got %q, want legacy value", got)
	}

	// Legacy copy intact so migration retries later.
	if v, err := legacy.KeyValue.Get(ctx, "token"); err != nil || v != "legacy-value" {
		t.Fatalf("legacy copy = %q, %v; want intact", v, err)
	}

	// Retry succeeds once the secure store recovers.
	secure.setErr = nil
	if _, err := m.Get(ctx, "token"); err != nil {
		t.Fatalf("retry Get: %v", err)
	}
	if _, err := legacy.KeyValue.Get(ctx, "token"); !IsNotFound(err) {
		t.Fatal("legacy copy should be deleted after the retried migration")
	}
}

func TestMigrating_ConcurrentReadsMigrateOnce(t *testing.T) {
	m, secure, legacy := newMigratingTest()
	ctx := context.Background()

	if err := legacy.KeyValue.Set(ctx, "token", "legacy-value"); err != nil {
		t.Fatalf("seed legacy: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, err := m.Get(ctx, "token"); err != nil || v != "legacy-value" {
				t.Errorf("Get = %q, %v", v, err)
			}
		}()
	}
	wg.Wait()

	if secure.sets != 1 {
		t.Fatalf("secure writes = %d, want exactly 1", secure.sets)
	}
	if legacy.gets != 1 {
		t.Fatalf("legacy reads = %d, want exactly 1", legacy.gets)
	}
}

func TestMigrating_GetMissingEverywhere(t *testing.T) {
	m, _, _ := newMigratingTest()
	if _, err := m.Get(context.Background(), "absent"); !IsNotFound(err) {
		t.Fatalf("err = %v, want not-found", err)
	}
}

func TestMigrating_DeletePartialFailure(t *testing.T) {
	m, secure, legacy := newMigratingTest()
	ctx := context.Background()

	if err := legacy.KeyValue.Set(ctx, "token", "legacy-value"); err != nil {
		t.Fatalf("seed legacy: %v", err)
	}
	secure.deleteErr = errors.New("keychain unavailable")

	if err := m.Delete(ctx, "token"); err != nil {
		t.Fatalf("Delete must not surface partial failure: %v", err)
	}
	// The legacy removal still happened, so the key is gone.
	if _, err := m.Get(ctx, "token"); !IsNotFound(err) {
		t.Fatalf("Get after delete = %v, want not-found", err)
	}
}

func TestMigrating_SetWritesSecureOnly(t *testing.T) {
	m, secure, legacy := newMigratingTest()
	ctx := context.Background()

	if err := m.Set(ctx, "token", "fresh"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, err := secure.KeyValue.Get(ctx, "token"); err != nil || v != "fresh" {
		t.Fatalf("secure copy = %q, %v", v, err)
	}
	if legacy.sets != 0 {
		t.Fatal("Set must never write to the legacy store")
	}
}
