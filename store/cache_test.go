package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCacheDisabledWithZeroBudget(t *testing.T) {
	c := newReadCache(4096, 0)
	require.Nil(t, c)

	_, ok := c.get([]byte("a"))
	assert.False(t, ok)
	c.put([]byte("a"), [][]byte{{1}})
	c.invalidate([]byte("a"))
}

func TestReadCacheGetPutRoundTrip(t *testing.T) {
	c := newReadCache(64, 1024)
	require.NotNil(t, c)

	c.put([]byte("a"), [][]byte{{1, 2, 3}})
	vals, ok := c.get([]byte("a"))
	require.True(t, ok)
	assert.Equal(t, [][]byte{{1, 2, 3}}, vals)

	_, ok = c.get([]byte("missing"))
	assert.False(t, ok)
}

func TestReadCacheEvictsByByteBudget(t *testing.T) {
	// pageSize=1 puts the entry-count cap well above what the byte
	// budget alone will allow, isolating the byte-eviction path.
	c := newReadCache(1, 10)
	require.NotNil(t, c)

	c.put([]byte("a"), [][]byte{{1, 2, 3, 4, 5}})
	c.put([]byte("b"), [][]byte{{6, 7, 8, 9, 10, 11}})

	_, ok := c.get([]byte("a"))
	assert.False(t, ok, "a should have been evicted once the byte budget was exceeded")
	vals, ok := c.get([]byte("b"))
	require.True(t, ok)
	assert.Equal(t, [][]byte{{6, 7, 8, 9, 10, 11}}, vals)
}

func TestReadCacheEvictsByEntryCount(t *testing.T) {
	// pageSize=100, cacheSize=250 -> maxEntries=2, while the 250-byte
	// budget is well above what three one-byte entries need, isolating
	// the entry-count eviction path.
	c := newReadCache(100, 250)
	require.NotNil(t, c)

	c.put([]byte("a"), [][]byte{{1}})
	c.put([]byte("b"), [][]byte{{2}})
	c.put([]byte("c"), [][]byte{{3}})

	_, ok := c.get([]byte("a"))
	assert.False(t, ok, "a should have been evicted once the entry-count cap was exceeded")
	_, ok = c.get([]byte("b"))
	assert.True(t, ok)
	_, ok = c.get([]byte("c"))
	assert.True(t, ok)
}

func TestReadCacheInvalidateRemovesEntry(t *testing.T) {
	c := newReadCache(64, 1024)
	require.NotNil(t, c)

	c.put([]byte("x"), [][]byte{{9, 9}})
	c.invalidate([]byte("x"))

	_, ok := c.get([]byte("x"))
	assert.False(t, ok)
}

func TestReadCacheGetPromotesToFront(t *testing.T) {
	c := newReadCache(1, 10)
	require.NotNil(t, c)

	c.put([]byte("a"), [][]byte{{1, 2, 3}})
	c.put([]byte("b"), [][]byte{{4, 5, 6}})
	// Touch a so b becomes the least-recently-used entry.
	_, _ = c.get([]byte("a"))
	c.put([]byte("c"), [][]byte{{7, 8, 9, 10, 11}})

	_, ok := c.get([]byte("b"))
	assert.False(t, ok, "b should be evicted since a was refreshed by the intervening get")
	_, ok = c.get([]byte("a"))
	assert.True(t, ok)
	_, ok = c.get([]byte("c"))
	assert.True(t, ok)
}
