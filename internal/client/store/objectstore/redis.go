package objectstore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisBucket stores each collection as one hash named "<prefix>:<collection>".
type RedisBucket struct {
	rdb    redis.UniversalClient
	prefix string
}

var _ Bucket = (*RedisBucket)(nil)

// NewRedisBucket connects to addr and verifies the connection.
func NewRedisBucket(ctx context.Context, addr, prefix string) (*RedisBucket, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return NewRedisBucketFromClient(rdb, prefix), nil
}

func NewRedisBucketFromClient(rdb redis.UniversalClient, prefix string) *RedisBucket {
	return &RedisBucket{rdb: rdb, prefix: prefix}
}

func (b *RedisBucket) key(collection string) string {
	return b.prefix + ":" + collection
}

func (b *RedisBucket) Get(ctx context.Context, collection, key string) ([]byte, bool, error) {
	v, err := b.rdb.HGet(ctx, b.key(collection), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (b *RedisBucket) Put(ctx context.Context, collection, key string, value []byte) error {
	return b.rdb.HSet(ctx, b.key(collection), key, value).Err()
}

func (b *RedisBucket) Delete(ctx context.Context, collection, key string) (bool, error) {
	n, err := b.rdb.HDel(ctx, b.key(collection), key).Result()
	return n > 0, err
}

func (b *RedisBucket) All(ctx context.Context, collection string) (map[string][]byte, error) {
	m, err := b.rdb.HGetAll(ctx, b.key(collection)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(m))
	for k, v := range m {
		out[k] = []byte(v)
	}
	return out, nil
}

// Drop removes every collection under the prefix.
func (b *RedisBucket) Drop(ctx context.Context, collections ...string) error {
	keys := make([]string, 0, len(collections))
	for _, c := range collections {
		keys = append(keys, b.key(c))
	}
	return b.rdb.Del(ctx, keys...).Err()
}

func (b *RedisBucket) Close() error {
	return b.rdb.Close()
}
