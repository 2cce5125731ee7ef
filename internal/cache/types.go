package cache

import "context"

// Kind separates the key spaces of the block store.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindIndex        // index node blocks
	KindData         // data blocks
)

// Key identifies a cached block.
type Key struct {
	Kind  Kind
	Block int64
}

// BlockCache caches immutable block payloads. Returned slices are read-only.
type BlockCache interface {
	Get(ctx context.Context, key Key) ([]byte, bool)
	// Set caches b; the cache retains b, callers must not modify it afterwards.
	Set(ctx context.Context, key Key, b []byte)
	Delete(key Key)
	// Invalidate removes every entry matching predicate.
	Invalidate(predicate func(Key) bool)
	Stats() (hits, misses int64)
	Size() int64
}
