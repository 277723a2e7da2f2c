package scene

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGroupAddRemove(t *testing.T) {
	g := NewGroup()
	m := &Mesh{}

	g.Add(m)
	require.True(t, g.Contains(m))
	require.Equal(t, 1, g.Len())

	// Re-adding is idempotent.
	g.Add(m)
	require.Equal(t, 1, g.Len())

	g.Remove(m)
	require.False(t, g.Contains(m))
	require.Equal(t, 0, g.Len())

	// Removing again is harmless.
	g.Remove(m)
	require.Equal(t, 0, g.Len())
}

func TestGroupEach(t *testing.T) {
	g := NewGroup()
	a, b := &Mesh{}, &Mesh{}
	g.Add(a)
	g.Add(b)

	seen := map[*Mesh]bool{}
	g.Each(func(m *Mesh) { seen[m] = true })
	require.True(t, seen[a])
	require.True(t, seen[b])
}

func TestDetailForLevel(t *testing.T) {
	tests := []struct {
		level, maxLevel int
		want            Detail
	}{
		{0, 6, DetailMinimal},
		{3, 6, DetailMedium},
		{6, 6, DetailUltra},
		{9, 6, DetailUltra},
		{-1, 6, DetailMinimal},
		{2, 0, DetailUltra},
	}
	for _, tt := range tests {
		got := DetailForLevel(tt.level, tt.maxLevel)
		require.Equal(t, tt.want, got, "level %d of %d", tt.level, tt.maxLevel)
	}
}

func TestDetailAnisotropyMonotonic(t *testing.T) {
	prev := 0.0
	for d := DetailMinimal; d <= DetailUltra; d++ {
		a := d.MaxAnisotropy()
		require.Greater(t, a, prev, "tier %s", d)
		prev = a
	}
}
