package myredis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"edgegateway/helpers"
	"edgegateway/service"

	"github.com/go-redis/redis/v8"
)

const scanCount = 100

// globEscaper escapes the SCAN MATCH metacharacters.
var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

type redisCache[T any] struct {
	client    redis.UniversalClient
	prefix    string
	marshal   func(T) ([]byte, error)
	unmarshal func([]byte) (T, error)
	zero      T
}

// NewCache creates the redis implementation of interfaces.Cache. Keys are stored as "{prefix}:{key}".
// Panics on nil client or codec and on an empty prefix.
func NewCache[T any](client redis.UniversalClient, prefix string, marshal func(T) ([]byte, error), unmarshal func([]byte) (T, error)) *redisCache[T] {
	var zero T
	return &redisCache[T]{
		client:    helpers.NilPanic(client, "myredis.cache.go: redis client is required"),
		prefix:    helpers.StrPanic(prefix, "myredis.cache.go: prefix is required"),
		zero:      zero,
		marshal:   helpers.NilPanic(marshal, "myredis.cache.go: marshal is required"),
		unmarshal: helpers.NilPanic(unmarshal, "myredis.cache.go: unmarshal is required"),
	}
}

func (r *redisCache[T]) WriteValue(ctx context.Context, key string, item T, ttlMs int) error {
	bytes, err := r.marshal(item)
	if err != nil {
		return service.NewInternalServerError("Redis marshal item error", fmt.Errorf("can't marshal item of type %T, err: %w", item, err))
	}

	err = r.client.Set(ctx, r.generateKey(key), bytes, time.Duration(ttlMs)*time.Millisecond).Err()
	if err != nil {
		return service.NewInternalServerError("Redis write key error", fmt.Errorf("can't write item of type %T to redis (key='%s'), err: %w", item, key, err))
	}

	return nil
}

func (r *redisCache[T]) DeleteValue(ctx context.Context, key string) error {
	err := r.client.Del(ctx, r.generateKey(key)).Err()
	if err != nil {
		return service.NewInternalServerError("Redis delete key error", fmt.Errorf("can't delete item of type %T from redis (key='%s'), err: %w", r.zero, key, err))
	}
	return nil
}

// ListKeys scans the keys under "{prefix}:{keyPrefix}" and returns them without the cache prefix.
// keyPrefix is matched literally: glob characters in it are escaped.
func (r *redisCache[T]) ListKeys(ctx context.Context, keyPrefix string) ([]string, error) {
	prefixWithColon := r.prefix + ":"
	keys := make([]string, 0)
	iter := r.client.Scan(ctx, 0, globEscaper.Replace(prefixWithColon+keyPrefix)+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		if k := iter.Val(); strings.HasPrefix(k, prefixWithColon) {
			keys = append(keys, strings.TrimPrefix(k, prefixWithColon))
		}
	}
	if err := iter.Err(); err != nil {
		return nil, service.NewInternalServerError("Redis scan keys error", fmt.Errorf("redis scan keys error, err: %w", err))
	}
	return keys, nil
}

// ListValues fetches every value whose key starts with keyPrefix. Keys that expire between the scan and the read
// and values that cannot be unmarshalled are skipped.
func (r *redisCache[T]) ListValues(ctx context.Context, keyPrefix string) ([]T, error) {
	keys, err := r.ListKeys(ctx, keyPrefix)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, service.NewEntityNotFoundError("Entity not found", nil)
	}

	fullKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		fullKeys = append(fullKeys, r.generateKey(key))
	}
	values, err := r.client.MGet(ctx, fullKeys...).Result()
	if err != nil {
		return nil, service.NewInternalServerError("Redis get values error", fmt.Errorf("redis mget error, err: %w", err))
	}

	items := make([]T, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}

		item, err := r.unmarshal([]byte(s))
		if err != nil {
			continue
		}

		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, service.NewEntityNotFoundError("Entity not found", nil)
	}

	return items, nil
}

func (r *redisCache[T]) generateKey(key string) string {
	return r.prefix + ":" + key
}
