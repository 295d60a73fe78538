package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, ok, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	v, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))

	now = now.Add(59 * time.Second)
	_, ok, _ := m.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)
	assert.Empty(t, m.items)
}

func TestMemory_NoTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", []byte("v"), 0))
	now = now.Add(24 * 365 * time.Hour)

	_, ok, _ := m.Get(ctx, "k")
	assert.True(t, ok)
}

func TestMemory_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	in := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", in, time.Minute))
	in[0] = 'x'

	out, _, _ := m.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), out)
	out[0] = 'y'

	again, _, _ := m.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), again)
}

func TestMemory_Concurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = m.Set(ctx, "k", []byte{byte(j)}, time.Minute)
				_, _, _ = m.Get(ctx, "k")
			}
		}()
	}
	wg.Wait()

	_, ok, _ := m.Get(ctx, "k")
	assert.True(t, ok)
}
