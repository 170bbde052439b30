package myredis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"edgegateway/domain"
	"edgegateway/helpers"
	"edgegateway/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrefix = "instance"

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()
	mini := miniredis.RunT(t)
	client, err := NewRedisUniversalClient("redis://" + mini.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mini, client
}

func marshalRegistration(r domain.Registration) ([]byte, error) { return json.Marshal(r) }
func unmarshalRegistration(b []byte) (domain.Registration, error) {
	var r domain.Registration
	err := json.Unmarshal(b, &r)
	return r, err
}

func newTestCache(client redis.UniversalClient) *redisCache[domain.Registration] {
	return NewCache[domain.Registration](client, testPrefix, marshalRegistration, unmarshalRegistration)
}

func testRegistration(svc, id string) domain.Registration {
	return domain.Registration{
		InstanceID:   id,
		ServiceName:  svc,
		Host:         "127.0.0.1",
		Port:         9000,
		RegisteredAt: helpers.TestNow(),
		TTLMs:        30000,
	}
}

func TestNewCache_Panics(t *testing.T) {
	_, client := setupTestRedis(t)
	assert.PanicsWithValue(t, "myredis.cache.go: redis client is required", func() {
		NewCache[domain.Registration](nil, testPrefix, marshalRegistration, unmarshalRegistration)
	})
	assert.PanicsWithValue(t, "myredis.cache.go: prefix is required", func() {
		NewCache[domain.Registration](client, "", marshalRegistration, unmarshalRegistration)
	})
	assert.PanicsWithValue(t, "myredis.cache.go: marshal is required", func() {
		NewCache[domain.Registration](client, testPrefix, nil, unmarshalRegistration)
	})
	assert.PanicsWithValue(t, "myredis.cache.go: unmarshal is required", func() {
		NewCache[domain.Registration](client, testPrefix, marshalRegistration, nil)
	})
}

func TestCache_WriteValue(t *testing.T) {
	ctx := context.Background()
	mini, client := setupTestRedis(t)
	cache := newTestCache(client)
	reg := testRegistration("order-svc", "inst-1")

	t.Run("success", func(t *testing.T) {
		require.NoError(t, cache.WriteValue(ctx, "order-svc:inst-1", reg, 60000))

		assert.True(t, mini.Exists(testPrefix+":order-svc:inst-1"))
		assert.Equal(t, 60*time.Second, mini.TTL(testPrefix+":order-svc:inst-1"))

		items, err := cache.ListValues(ctx, "")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, reg.InstanceID, items[0].InstanceID)
		assert.Equal(t, reg.ServiceName, items[0].ServiceName)
		assert.Equal(t, reg.Port, items[0].Port)
		assert.True(t, reg.RegisteredAt.Equal(items[0].RegisteredAt))
	})

	t.Run("expires_after_ttl", func(t *testing.T) {
		require.NoError(t, cache.WriteValue(ctx, "order-svc:inst-2", testRegistration("order-svc", "inst-2"), 1000))
		mini.FastForward(2 * time.Second)
		assert.False(t, mini.Exists(testPrefix+":order-svc:inst-2"))
	})

	t.Run("marshal_error_returns_internal_server_error", func(t *testing.T) {
		failing := NewCache[domain.Registration](client, testPrefix, func(domain.Registration) ([]byte, error) {
			return nil, assert.AnError
		}, unmarshalRegistration)
		err := failing.WriteValue(ctx, "x", reg, 60000)
		require.Error(t, err)
		assert.True(t, service.IsInternalServerError(err))
	})

	t.Run("redis_down_returns_internal_server_error", func(t *testing.T) {
		downMini, downClient := setupTestRedis(t)
		downMini.Close()
		err := newTestCache(downClient).WriteValue(ctx, "x", reg, 60000)
		require.Error(t, err)
		assert.True(t, service.IsInternalServerError(err))
	})
}

func TestCache_DeleteValue(t *testing.T) {
	ctx := context.Background()
	_, client := setupTestRedis(t)
	cache := newTestCache(client)
	require.NoError(t, cache.WriteValue(ctx, "order-svc:inst-del", testRegistration("order-svc", "inst-del"), 60000))

	require.NoError(t, cache.DeleteValue(ctx, "order-svc:inst-del"))

	items, err := cache.ListValues(ctx, "")
	require.Error(t, err)
	assert.True(t, service.IsEntityNotFoundError(err))
	assert.Nil(t, items)

	t.Run("missing_key_is_not_an_error", func(t *testing.T) {
		assert.NoError(t, cache.DeleteValue(ctx, "order-svc:absent"))
	})
}

func TestCache_ListValues(t *testing.T) {
	ctx := context.Background()
	mini, client := setupTestRedis(t)
	cache := newTestCache(client)

	t.Run("empty_cache_returns_entity_not_found", func(t *testing.T) {
		items, err := cache.ListValues(ctx, "")
		require.Error(t, err)
		assert.True(t, service.IsEntityNotFoundError(err))
		assert.Nil(t, items)
	})

	t.Run("filters_by_key_prefix", func(t *testing.T) {
		require.NoError(t, cache.WriteValue(ctx, "order-svc:a", testRegistration("order-svc", "a"), 60000))
		require.NoError(t, cache.WriteValue(ctx, "order-svc:b", testRegistration("order-svc", "b"), 60000))
		require.NoError(t, cache.WriteValue(ctx, "billing:c", testRegistration("billing", "c"), 60000))

		items, err := cache.ListValues(ctx, "order-svc:")
		require.NoError(t, err)
		ids := []string{}
		for _, item := range items {
			ids = append(ids, item.InstanceID)
		}
		assert.ElementsMatch(t, []string{"a", "b"}, ids)

		all, err := cache.ListValues(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("wildcard_service_matches_nothing", func(t *testing.T) {
		items, err := cache.ListValues(ctx, "*:")
		assert.True(t, service.IsEntityNotFoundError(err))
		assert.Nil(t, items)
	})

	t.Run("invalid_json_is_skipped", func(t *testing.T) {
		mini.FlushAll()
		require.NoError(t, mini.Set(testPrefix+":order-svc:bad", "invalid json"))

		items, err := cache.ListValues(ctx, "order-svc:")
		require.Error(t, err)
		assert.True(t, service.IsEntityNotFoundError(err))
		assert.Nil(t, items)
	})

	t.Run("other_prefixes_are_ignored", func(t *testing.T) {
		mini.FlushAll()
		require.NoError(t, mini.Set("session:order-svc:x", "{}"))

		_, err := cache.ListValues(ctx, "")
		assert.True(t, service.IsEntityNotFoundError(err))
	})
}

func TestCache_ListKeys(t *testing.T) {
	ctx := context.Background()
	mini, client := setupTestRedis(t)
	cache := newTestCache(client)

	keys, err := cache.ListKeys(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, cache.WriteValue(ctx, "order-svc:a", testRegistration("order-svc", "a"), 60000))
	require.NoError(t, cache.WriteValue(ctx, "billing:c", testRegistration("billing", "c"), 60000))

	keys, err = cache.ListKeys(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"order-svc:a", "billing:c"}, keys)

	t.Run("glob_characters_match_literally", func(t *testing.T) {
		for _, pattern := range []string{"*", "*:", "?illing:", "[ob]*:", `order-svc\`} {
			keys, err := cache.ListKeys(ctx, pattern)
			require.NoError(t, err)
			assert.Empty(t, keys, pattern)
		}

		require.NoError(t, cache.WriteValue(ctx, "odd*svc:z", testRegistration("odd*svc", "z"), 60000))
		keys, err := cache.ListKeys(ctx, "odd*svc:")
		require.NoError(t, err)
		assert.Equal(t, []string{"odd*svc:z"}, keys)
	})

	t.Run("redis_down_returns_internal_server_error", func(t *testing.T) {
		mini.Close()
		_, err := cache.ListKeys(ctx, "")
		require.Error(t, err)
		assert.True(t, service.IsInternalServerError(err))
	})
}
