package securestore

import (
	"context"
	"fmt"
	"strconv"
)

// Chunked size defaults, matching the observed ~2048-byte keychain ceiling
// with encoding headroom. Both are constructor parameters, not fixed limits.
const (
	DefaultChunkSize  = 2000
	DefaultValueLimit = 2048
)

// Chunked wraps a size-constrained KeyValue store and splits oversized
// values across sequentially-keyed entries: the pieces live under
// "{key}_chunk_{i}" and the piece count under "{key}_chunk_count". Values
// that fit in one chunk are stored directly under the key.
type Chunked struct {
	store     KeyValue
	chunkSize int
}

// NewChunked wraps store with chunking at the given chunk size. chunkSize
// must be positive; zero selects DefaultChunkSize.
func NewChunked(store KeyValue, chunkSize int) (*Chunked, error) {
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkSize < 0 {
		return nil, fmt.Errorf("securestore: chunk size must be positive, got %d", chunkSize)
	}
	return &Chunked{store: store, chunkSize: chunkSize}, nil
}

func countKey(key string) string {
	return key + "_chunk_count"
}

func chunkKey(key string, i int) string {
	return key + "_chunk_" + strconv.Itoa(i)
}

// Get reassembles the value for key. A chunk-count entry means the value was
// split; otherwise the key holds the whole value.
func (c *Chunked) Get(ctx context.Context, key string) (string, error) {
	raw, err := c.store.Get(ctx, countKey(key))
	if err != nil {
		if IsNotFound(err) {
			return c.store.Get(ctx, key)
		}
		return "", err
	}

	count, err := strconv.Atoi(raw)
	if err != nil || count < 0 {
		return "", fmt.Errorf("securestore: corrupt chunk count for %s: %q", key, raw)
	}

	var value []byte
	for i := 0; i < count; i++ {
		chunk, err := c.store.Get(ctx, chunkKey(key, i))
		if err != nil {
			return "", fmt.Errorf("securestore: missing chunk %d of %d for %s: %w", i, count, key, err)
		}
		value = append(value, chunk...)
	}
	return string(value), nil
}

// Set stores value under key, chunking when it exceeds the chunk size.
// After a successful Set no chunk beyond the new count, and no stale
// direct/count entry, remains retrievable as part of key.
func (c *Chunked) Set(ctx context.Context, key, value string) error {
	oldCount := c.chunkCount(ctx, key)

	if len(value) <= c.chunkSize {
		if err := c.store.Set(ctx, key, value); err != nil {
			return err
		}
		if err := c.store.Delete(ctx, countKey(key)); err != nil {
			return err
		}
		return c.deleteChunks(ctx, key, 0, oldCount)
	}

	count := (len(value) + c.chunkSize - 1) / c.chunkSize
	// Chunk writes are sequential so a failure never leaves a chunk beyond
	// an already-published count.
	for i := 0; i < count; i++ {
		start := i * c.chunkSize
		end := start + c.chunkSize
		if end > len(value) {
			end = len(value)
		}
		if err := c.store.Set(ctx, chunkKey(key, i), value[start:end]); err != nil {
			return err
		}
	}
	if err := c.store.Set(ctx, countKey(key), strconv.Itoa(count)); err != nil {
		return err
	}
	if err := c.store.Delete(ctx, key); err != nil {
		return err
	}
	return c.deleteChunks(ctx, key, count, oldCount)
}

// Delete removes the key, its chunk count, and every stored chunk.
func (c *Chunked) Delete(ctx context.Context, key string) error {
	oldCount := c.chunkCount(ctx, key)
	var firstErr error
	if err := c.store.Delete(ctx, key); err != nil {
		firstErr = err
	}
	if err := c.store.Delete(ctx, countKey(key)); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := c.deleteChunks(ctx, key, 0, oldCount); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// chunkCount returns the stored chunk count for key, or 0 when the value is
// unchunked or absent.
func (c *Chunked) chunkCount(ctx context.Context, key string) int {
	raw, err := c.store.Get(ctx, countKey(key))
	if err != nil {
		return 0
	}
	count, err := strconv.Atoi(raw)
	if err != nil || count < 0 {
		return 0
	}
	return count
}

func (c *Chunked) deleteChunks(ctx context.Context, key string, from, to int) error {
	var firstErr error
	for i := from; i < to; i++ {
		if err := c.store.Delete(ctx, chunkKey(key, i)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
