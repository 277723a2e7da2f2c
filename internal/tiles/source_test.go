package tiles

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/helioforge/planetview/internal/geo"
)

func TestTileURLRowBeforeCol(t *testing.T) {
	s := NewSource("https://tiles.example.org/mars", "jpg")
	got := s.TileURL(geo.TileID{Level: 3, Col: 5, Row: 2})
	require.Equal(t, "https://tiles.example.org/mars/3/2/5.jpg", got)
}

func TestNewSourceNormalizes(t *testing.T) {
	s := NewSource("https://tiles.example.org/mars/", ".png")
	got := s.TileURL(geo.TileID{Level: 0, Col: 1, Row: 0})
	require.Equal(t, "https://tiles.example.org/mars/0/0/1.png", got)
}
