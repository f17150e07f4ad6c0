package cache

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[int](2, clockwork.NewFakeClock())
	c.Put("a", 1, 0)
	c.Put("b", 2, 0)

	_, ok := c.Get("a") // a is now most recent
	require.True(t, ok)

	c.Put("c", 3, 0)
	_, ok = c.Get("b")
	assert.False(t, ok, "b should have been evicted")

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Len())
}

func TestLRU_UpdateExisting(t *testing.T) {
	c := NewLRU[string](2, nil)
	c.Put("k", "old", 0)
	c.Put("k", "new", 0)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new", v)
	assert.Equal(t, 1, c.Len())
}

func TestLRU_TTLExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewLRU[int](10, clock)
	c.Put("short", 1, time.Minute)
	c.Put("forever", 2, 0)

	clock.Advance(59 * time.Second)
	_, ok := c.Get("short")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = c.Get("short")
	assert.False(t, ok, "entry expires at exactly its TTL")
	assert.Equal(t, 1, c.Len(), "expired entry is evicted on access")

	clock.Advance(24 * time.Hour)
	_, ok = c.Get("forever")
	assert.True(t, ok)
}

func TestLRU_SingleEntry(t *testing.T) {
	c := NewLRU[int](0, nil)
	c.Put("a", 1, 0)
	c.Put("b", 2, 0)
	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
}

func TestMemory_Store(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var s Store = NewMemory(4, clock)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	buf := []byte("payload")
	require.NoError(t, s.Put(ctx, "k", buf, time.Hour))
	buf[0] = 'X' // the store keeps its own copy

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "payload", string(got))

	clock.Advance(time.Hour)
	_, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompress(t *testing.T) {
	data := []byte(`{"years":[1981,1982,1983],"parameters":{}}`)
	back, err := Decompress(Compress(data))
	require.NoError(t, err)
	assert.Equal(t, data, back)

	_, err = Decompress([]byte("not snappy"))
	require.Error(t, err)
}
