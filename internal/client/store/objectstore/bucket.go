package objectstore

import (
	"context"
	"maps"
	"sync"
)

// Bucket is a flat object namespace split into named collections.
type Bucket interface {
	Get(ctx context.Context, collection, key string) ([]byte, bool, error)
	Put(ctx context.Context, collection, key string, value []byte) error
	Delete(ctx context.Context, collection, key string) (bool, error)
	All(ctx context.Context, collection string) (map[string][]byte, error)
	Close() error
}

// MemoryBucket keeps objects in process memory.
type MemoryBucket struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

var _ Bucket = (*MemoryBucket)(nil)

func NewMemoryBucket() *MemoryBucket {
	return &MemoryBucket{data: map[string]map[string][]byte{}}
}

func (b *MemoryBucket) Get(_ context.Context, collection, key string) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[collection][key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (b *MemoryBucket) Put(_ context.Context, collection, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.data[collection]
	if !ok {
		c = map[string][]byte{}
		b.data[collection] = c
	}
	c[key] = append([]byte(nil), value...)
	return nil
}

func (b *MemoryBucket) Delete(_ context.Context, collection, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.data[collection][key]; !ok {
		return false, nil
	}
	delete(b.data[collection], key)
	return true, nil
}

func (b *MemoryBucket) All(_ context.Context, collection string) (map[string][]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return maps.Clone(b.data[collection]), nil
}

func (b *MemoryBucket) Close() error { return nil }
