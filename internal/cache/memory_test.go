package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKnownKeys(t *testing.T) {
	c := NewMemoryKnownKeys(10 * time.Millisecond)
	defer c.Close()

	ctx := context.Background()
	key := "cache/width=10,height=10,quality=80/a.jpg"

	known, err := c.Known(ctx, key)
	require.NoError(t, err)
	assert.False(t, known)

	require.NoError(t, c.Remember(ctx, key, time.Minute))

	known, err = c.Known(ctx, key)
	require.NoError(t, err)
	assert.True(t, known)
}

func TestMemoryKnownKeysTTLExpiry(t *testing.T) {
	c := NewMemoryKnownKeys(10 * time.Millisecond)
	defer c.Close()

	ctx := context.Background()
	key := "cache/width=10,height=10,quality=80/a.jpg"

	require.NoError(t, c.Remember(ctx, key, 20*time.Millisecond))

	known, err := c.Known(ctx, key)
	require.NoError(t, err)
	require.True(t, known)

	time.Sleep(30 * time.Millisecond)

	known, err = c.Known(ctx, key)
	require.NoError(t, err)
	assert.False(t, known)
}

func TestMemoryKnownKeysForget(t *testing.T) {
	c := NewMemoryKnownKeys(time.Minute)
	defer c.Close()

	ctx := context.Background()
	key := "cache/width=10,height=10,quality=80/a.jpg"

	require.NoError(t, c.Remember(ctx, key, time.Minute))
	require.NoError(t, c.Remember(ctx, key, 0))

	known, err := c.Known(ctx, key)
	require.NoError(t, err)
	assert.False(t, known)
	assert.Equal(t, 0, c.Len())
}
