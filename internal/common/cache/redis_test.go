// Package cache Redis 缓存模块单元测试
package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/helpcenter-backend/internal/common/config"
)

// setupStore 基于 miniredis 创建测试存储
func setupStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client), s
}

func TestInit_Success(t *testing.T) {
	s := miniredis.RunT(t)

	client, err := Init(&config.RedisConfig{
		Host:        s.Host(),
		Port:        s.Server().Addr().Port,
		PoolSize:    4,
		DialTimeout: 5,
		ReadTimeout: 3,
	})
	require.NoError(t, err)
	assert.NotNil(t, client)
	_ = client.Close()
}

func TestInit_Unreachable(t *testing.T) {
	_, err := Init(&config.RedisConfig{Host: "127.0.0.1", Port: 1, DialTimeout: 1})
	assert.Error(t, err)
}

func TestStore_SetGet(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	type payload struct {
		Slug  string `json:"slug"`
		Count int    `json:"count"`
	}

	require.NoError(t, store.Set(ctx, "kb:test", payload{Slug: "returns-refunds", Count: 3}, time.Minute))

	var got payload
	require.NoError(t, store.Get(ctx, "kb:test", &got))
	assert.Equal(t, "returns-refunds", got.Slug)
	assert.Equal(t, 3, got.Count)

	assert.ErrorIs(t, store.Get(ctx, "kb:missing", &got), ErrMiss)

	require.NoError(t, store.Delete(ctx, "kb:test"))
	assert.ErrorIs(t, store.Get(ctx, "kb:test", &got), ErrMiss)
}

func TestStore_Expiration(t *testing.T) {
	store, s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "kb:ttl", "value", time.Second))
	s.FastForward(2 * time.Second)

	var got string
	assert.ErrorIs(t, store.Get(ctx, "kb:ttl", &got), ErrMiss)
}

func TestStore_Version(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	assert.Equal(t, int64(0), store.Version(ctx, "catalog"))
	require.NoError(t, store.BumpVersion(ctx, "catalog"))
	require.NoError(t, store.BumpVersion(ctx, "catalog"))
	assert.Equal(t, int64(2), store.Version(ctx, "catalog"))
}

func TestStore_NilClientIsPassThrough(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	assert.False(t, store.Enabled())
	assert.NoError(t, store.Set(ctx, "k", 1, time.Minute))
	var v int
	assert.ErrorIs(t, store.Get(ctx, "k", &v), ErrMiss)
	assert.NoError(t, store.BumpVersion(ctx, "catalog"))
	assert.Equal(t, int64(0), store.Version(ctx, "catalog"))

	var nilStore *Store
	assert.False(t, nilStore.Enabled())
}

func TestBuildKey(t *testing.T) {
	assert.Equal(t, "kb:3:category:technical:fr", BuildKey(KeyPrefixCatalog, "3", "category", "technical", "fr"))
}
