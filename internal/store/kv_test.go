package store_test

import (
	"context"
	"testing"
	"time"

	"plantd-admin/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKV_SetGetTTL(t *testing.T) {
	kv := store.NewMemoryKV()
	ctx := context.Background()

	_, err := kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrMiss)

	require.NoError(t, kv.Set(ctx, "k", "v", 0))
	val, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)

	// 过期后按未命中处理
	require.NoError(t, kv.Set(ctx, "short", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	_, err = kv.Get(ctx, "short")
	assert.ErrorIs(t, err, store.ErrMiss)

	require.NoError(t, kv.Delete(ctx, "k"))
	_, err = kv.Get(ctx, "k")
	assert.ErrorIs(t, err, store.ErrMiss)
}

func TestRedisKV_SetGetDelete(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	kv := store.NewRedisKV(client)
	ctx := context.Background()

	_, err := kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrMiss)

	require.NoError(t, kv.Set(ctx, "k", "v", time.Minute))
	val, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)

	// TTL 到期
	mr.FastForward(2 * time.Minute)
	_, err = kv.Get(ctx, "k")
	assert.ErrorIs(t, err, store.ErrMiss)

	require.NoError(t, kv.Set(ctx, "k2", "v2", 0))
	require.NoError(t, kv.Delete(ctx, "k2"))
	_, err = kv.Get(ctx, "k2")
	assert.ErrorIs(t, err, store.ErrMiss)
}
