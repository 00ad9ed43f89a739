package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCache(client, zerolog.Nop()), mr
}

type page struct {
	Titles []string `json:"titles"`
}

func TestCache_SetGet(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	found, err := c.Get(ctx, "k", &page{})
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "k", page{Titles: []string{"Widget"}}, time.Minute))
	var got page
	found, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"Widget"}, got.Titles)

	mr.FastForward(2 * time.Minute)
	found, _ = c.Get(ctx, "k", &got)
	assert.False(t, found)
}

func TestCache_Version(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	assert.Equal(t, int64(0), c.GetVersion(ctx, "docs:invoice:version"))
	assert.Equal(t, int64(1), c.IncrementVersion(ctx, "docs:invoice:version"))
	assert.Equal(t, int64(1), c.GetVersion(ctx, "docs:invoice:version"))
}

func TestCache_NilClientIsNoop(t *testing.T) {
	c := NewCache(nil, zerolog.Nop())
	ctx := context.Background()

	assert.False(t, c.Enabled())
	require.NoError(t, c.Set(ctx, "k", 1, time.Minute))
	found, err := c.Get(ctx, "k", new(int))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, c.IncrementVersion(ctx, "v"))
}
