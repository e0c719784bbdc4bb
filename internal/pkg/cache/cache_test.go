package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Name  string `json:"name"`
	Total int    `json:"total"`
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	var got []entry
	found, err := c.Get(ctx, "board", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "board", []entry{{Name: "North", Total: 10}}, time.Minute))
	found, err = c.Get(ctx, "board", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []entry{{Name: "North", Total: 10}}, got)

	require.NoError(t, c.Delete(ctx, "board"))
	found, err = c.Get(ctx, "board", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCacheExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", 1, time.Second))
	now = now.Add(2 * time.Second)

	var v int
	found, err := c.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNopNeverHits(t *testing.T) {
	var c Cache = Nop{}
	require.NoError(t, c.Set(context.Background(), "k", 1, 0))
	var v int
	found, err := c.Get(context.Background(), "k", &v)
	require.NoError(t, err)
	assert.False(t, found)
}
