package securestore

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func testValue(n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(alphabet[i%len(alphabet)])
	}
	return b.String()
}

func TestChunked_RoundTrip(t *testing.T) {
	for _, size := range []int{0, 1, 1999, 2000, 2001, 4000, 6001} {
		t.Run(fmt.Sprintf("%d_bytes", size), func(t *testing.T) {
			store, err := NewChunked(NewMemory(DefaultValueLimit), DefaultChunkSize)
			if err != nil {
				t.Fatalf("NewChunked: %v", err)
			}
			ctx := context.Background()
			want := testValue(size)

			if err := store.Set(ctx, "session", want); err != nil {
				t.Fatalf("Set: %v", err)
			}
			got, err := store.Get(ctx, "session")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got != want {
				t.Fatalf("round-trip mismatch: got %d bytes, want %d", len(got), len(want))
			}
		})
	}
}

func TestChunked_OversizedValueNeverHitsBackendLimit(t *testing.T) {
	backend := NewMemory(DefaultValueLimit)
	store, err := NewChunked(backend, DefaultChunkSize)
	if err != nil {
		t.Fatalf("NewChunked: %v", err)
	}
	ctx := context.Background()

	// Direct writes over the ceiling fail; chunked writes do not.
	if err := backend.Set(ctx, "big", testValue(6001)); err == nil {
		t.Fatal("expected backend to reject oversized value")
	}
	if err := store.Set(ctx, "big", testValue(6001)); err != nil {
		t.Fatalf("chunked Set: %v", err)
	}
}

func TestChunked_ShrinkCleansStaleChunks(t *testing.T) {
	backend := NewMemory(DefaultValueLimit)
	store, err := NewChunked(backend, DefaultChunkSize)
	if err != nil {
		t.Fatalf("NewChunked: %v", err)
	}
	ctx := context.Background()

	if err := store.Set(ctx, "session", testValue(6001)); err != nil { // 4 chunks
		t.Fatalf("Set large: %v", err)
	}
	if err := store.Set(ctx, "session", testValue(2001)); err != nil { // 2 chunks
		t.Fatalf("Set smaller: %v", err)
	}

	for i := 2; i < 4; i++ {
		if _, err := backend.Get(ctx, fmt.Sprintf("session_chunk_%d", i)); !IsNotFound(err) {
			t.Fatalf("stale chunk %d still present", i)
		}
	}
	got, err := store.Get(ctx, "session")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != testValue(2001) {
		t.Fatal("value corrupted after shrink")
	}
}

func TestChunked_ShrinkToDirectCleansEverything(t *testing.T) {
	backend := NewMemory(DefaultValueLimit)
	store, err := NewChunked(backend, DefaultChunkSize)
	if err != nil {
		t.Fatalf("NewChunked: %v", err)
	}
	ctx := context.Background()

	if err := store.Set(ctx, "session", testValue(6001)); err != nil {
		t.Fatalf("Set large: %v", err)
	}
	if err := store.Set(ctx, "session", "short"); err != nil {
		t.Fatalf("Set short: %v", err)
	}

	// Only the direct entry remains.
	if backend.Len() != 1 {
		t.Fatalf("backend holds %d entries, want 1", backend.Len())
	}
	got, err := store.Get(ctx, "session")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "short" {
		t.Fatalf("got %q, want %q", got, "short")
	}
}

func TestChunked_DeleteRemovesAllEntries(t *testing.T) {
	backend := NewMemory(DefaultValueLimit)
	store, err := NewChunked(backend, DefaultChunkSize)
	if err != nil {
		t.Fatalf("NewChunked: %v", err)
	}
	ctx := context.Background()

	if err := store.Set(ctx, "session", testValue(6001)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Delete(ctx, "session"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if backend.Len() != 0 {
		t.Fatalf("backend holds %d entries after delete, want 0", backend.Len())
	}
	if _, err := store.Get(ctx, "session"); !IsNotFound(err) {
		t.Fatalf("Get after delete: %v, want not-found", err)
	}
}

func TestChunked_GetMissingKey(t *testing.T) {
	store, err := NewChunked(NewMemory(0), 0)
	if err != nil {
		t.Fatalf("NewChunked: %v", err)
	}
	if _, err := store.Get(context.Background(), "absent"); !IsNotFound(err) {
		t.Fatalf("err = %v, want not-found", err)
	}
}

func TestChunked_CorruptChunkCount(t *testing.T) {
	backend := NewMemory(0)
	store, err := NewChunked(backend, DefaultChunkSize)
	if err != nil {
		t.Fatalf("NewChunked: %v", err)
	}
	ctx := context.Background()

	if err := backend.Set(ctx, "session_chunk_count", "banana"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := store.Get(ctx, "session"); err == nil {
		t.Fatal("expected error for corrupt chunk count")
	}
}

func TestNewChunked_RejectsNegativeChunkSize(t *testing.T) {
	if _, err := NewChunked(NewMemory(0), -1); err == nil {
		t.Fatal("expected error for negative chunk size")
	}
}
