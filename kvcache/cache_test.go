package kvcache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/previewhq/storyhost"
	"github.com/previewhq/storyhost/kvcache"
)

func TestConnectMemory(t *testing.T) {
	cache, cleanup, err := kvcache.Connect(context.Background(), kvcache.Config{Type: "memory"})
	require.NoError(t, err)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, cache.Put(ctx, "k", []byte("v"), time.Hour))

	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestConnectSQLite(t *testing.T) {
	cache, cleanup, err := kvcache.Connect(context.Background(), kvcache.Config{
		Type:  "sqlite",
		DSN:   ":memory:",
		Table: "kv_cache",
	})
	require.NoError(t, err)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, cache.Put(ctx, "k", []byte("v"), time.Hour))

	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	_, err = cache.Get(ctx, "missing")
	assert.ErrorIs(t, err, storyhost.ErrNotFound)
}

func TestConnectUnsupportedType(t *testing.T) {
	_, _, err := kvcache.Connect(context.Background(), kvcache.Config{Type: "redis"})
	assert.ErrorContains(t, err, "unsupported cache type")
}

func TestConnectSQLiteBadTable(t *testing.T) {
	_, _, err := kvcache.Connect(context.Background(), kvcache.Config{
		Type:  "sqlite",
		DSN:   ":memory:",
		Table: "Bad-Table",
	})
	assert.Error(t, err)
}
