package texture

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func tex(url string) *Texture {
	return &Texture{URL: url}
}

func TestCacheGetMissing(t *testing.T) {
	c := NewCache(4)
	_, ok := c.Get("nope")
	require.False(t, ok)
}

func TestCachePutGet(t *testing.T) {
	c := NewCache(4)
	a := tex("a")
	c.Put("a", a)

	got, ok := c.Get("a")
	require.True(t, ok)
	require.Same(t, a, got)
}

func TestCacheCapacityBound(t *testing.T) {
	c := NewCache(3)
	for i := 0; i < 10; i++ {
		c.Put(fmt.Sprintf("tile-%d", i), tex(fmt.Sprintf("tile-%d", i)))
		require.LessOrEqual(t, c.Len(), 3, "cache exceeded capacity after put %d", i)
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(2)
	a, b, d := tex("a"), tex("b"), tex("d")

	c.Put("a", a)
	c.Put("b", b)

	// Touch a so b becomes the eviction candidate.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("d", d)

	_, ok = c.Get("b")
	require.False(t, ok, "b should have been evicted")
	require.True(t, b.Released(), "evicted texture must be released")

	_, ok = c.Get("a")
	require.True(t, ok)
	require.False(t, a.Released())
}

func TestCacheEvictionTiesByInsertionOrder(t *testing.T) {
	c := NewCache(2)
	first, second := tex("first"), tex("second")

	// No gets in between: pure insertion order decides.
	c.Put("first", first)
	c.Put("second", second)
	c.Put("third", tex("third"))

	require.True(t, first.Released())
	require.False(t, second.Released())
}

func TestCachePutOverwrites(t *testing.T) {
	c := NewCache(2)
	old := tex("a")
	c.Put("a", old)

	replacement := tex("a")
	c.Put("a", replacement)

	require.True(t, old.Released(), "overwritten texture must be released")
	got, ok := c.Get("a")
	require.True(t, ok)
	require.Same(t, replacement, got)
	require.Equal(t, 1, c.Len())
}

func TestCacheClearReleasesEverything(t *testing.T) {
	c := NewCache(4)
	a, b := tex("a"), tex("b")
	c.Put("a", a)
	c.Put("b", b)

	c.Clear()

	require.Equal(t, 0, c.Len())
	require.True(t, a.Released())
	require.True(t, b.Released())

	_, ok := c.Get("a")
	require.False(t, ok)
}

func TestCacheDefaultCapacity(t *testing.T) {
	c := NewCache(0)
	for i := 0; i < DefaultCacheCapacity+10; i++ {
		c.Put(fmt.Sprintf("tile-%d", i), tex("x"))
	}
	require.Equal(t, DefaultCacheCapacity, c.Len())
}

func TestTextureReleaseIdempotent(t *testing.T) {
	calls := 0
	tx := tex("a")
	tx.SetDisposer(func() { calls++ })

	tx.Release()
	tx.Release()

	require.Equal(t, 1, calls)
	require.True(t, tx.Released())
}
