package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, ok, err := m.Get(ctx, "token")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "token", "abc", time.Minute))

	value, ok, err := m.Get(ctx, "token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", value)
}

func TestMemoryExpiry(t *testing.T) {
	now := time.Now()
	m := NewMemory()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "token", "abc", time.Minute))

	now = now.Add(30 * time.Second)
	_, ok, err := m.Get(ctx, "token")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(31 * time.Second)
	_, ok, err = m.Get(ctx, "token")
	require.NoError(t, err)
	assert.False(t, ok, "entry past its ttl")
}

func TestMemoryZeroTTLIsNotStored(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "token", "abc", 0))

	_, ok, err := m.Get(ctx, "token")
	require.NoError(t, err)
	assert.False(t, ok)
}
