// Package geo implements the WMTS-style tiling scheme and the spherical
// patch geometry for one quadtree cell. Everything here is pure math with
// no shared state, safe to call concurrently.
package geo

import (
	"math"

	"github.com/helioforge/planetview/pkg/vecmath"
)

// TileID identifies one quadtree cell. At level z the full sphere is
// covered by a 2^(z+1) x 2^z grid: column 0 at longitude -pi, row 0 at
// the north pole.
type TileID struct {
	Level int
	Col   int
	Row   int
}

// GridSize returns the (cols, rows) tile matrix dimensions at a level.
func GridSize(level int) (cols, rows int) {
	return 1 << (level + 1), 1 << level
}

// Children returns the four IDs one level down, by the doubling rule.
// Order: NW, NE, SW, SE.
func (id TileID) Children() [4]TileID {
	l, c, r := id.Level+1, id.Col*2, id.Row*2
	return [4]TileID{
		{l, c, r},
		{l, c + 1, r},
		{l, c, r + 1},
		{l, c + 1, r + 1},
	}
}

// Parent returns the ID one level up, or ok=false at level 0.
func (id TileID) Parent() (TileID, bool) {
	if id.Level == 0 {
		return TileID{}, false
	}
	return TileID{id.Level - 1, id.Col / 2, id.Row / 2}, true
}

// Bounds is a tile's geographic extent in radians. Longitude grows east,
// latitude grows north; LatTop > LatBottom.
type Bounds struct {
	LonLeft   float64
	LonRight  float64
	LatTop    float64
	LatBottom float64
}

// Bounds derives the tile's geographic extent from its ID.
func (id TileID) Bounds() Bounds {
	cols, rows := GridSize(id.Level)
	lonSpan := 2 * math.Pi / float64(cols)
	latSpan := math.Pi / float64(rows)

	return Bounds{
		LonLeft:   -math.Pi + float64(id.Col)*lonSpan,
		LonRight:  -math.Pi + float64(id.Col+1)*lonSpan,
		LatTop:    math.Pi/2 - float64(id.Row)*latSpan,
		LatBottom: math.Pi/2 - float64(id.Row+1)*latSpan,
	}
}

// LonSpan returns the longitude extent.
func (b Bounds) LonSpan() float64 { return b.LonRight - b.LonLeft }

// LatSpan returns the latitude extent.
func (b Bounds) LatSpan() float64 { return b.LatTop - b.LatBottom }

// Center returns the midpoint (lon, lat).
func (b Bounds) Center() (lon, lat float64) {
	return (b.LonLeft + b.LonRight) / 2, (b.LatTop + b.LatBottom) / 2
}

// LatLonToCartesian maps geographic coordinates to a point on a Y-up
// sphere of the given radius.
func LatLonToCartesian(lat, lon, radius float64) vecmath.Vec3 {
	cosLat := math.Cos(lat)
	return vecmath.Vec3{
		X: radius * cosLat * math.Sin(lon),
		Y: radius * math.Sin(lat),
		Z: radius * cosLat * math.Cos(lon),
	}
}
