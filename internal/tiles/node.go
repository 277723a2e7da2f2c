// Package tiles implements the streaming quadtree over a planetary
// surface: per-frame LOD selection, a priority-ordered bounded load
// scheduler, and the tile lifecycle around the texture cache.
package tiles

import (
	"github.com/helioforge/planetview/internal/geo"
	"github.com/helioforge/planetview/internal/scene"
	"github.com/helioforge/planetview/pkg/vecmath"
)

// State is a tile's texture loading state.
type State int

const (
	StateIdle State = iota
	StateRequested
	StateLoaded
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequested:
		return "requested"
	case StateLoaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// Tile is one quadtree cell. The tree owns children as values in a
// 4-slot and nodes are tracked in the manager's map keyed by ID; the
// parent link is a key, never an owning pointer.
type Tile struct {
	ID     geo.TileID
	Center vecmath.Vec3
	// LatSpan and LonSpan are equal under the 2^(z+1) x 2^z scheme, but
	// both are kept so alternate tilings stay expressible.
	LatSpan float64
	LonSpan float64

	Mesh  *scene.Mesh
	State State

	parent    geo.TileID
	hasParent bool
	children  *[4]*Tile // nil or exactly four, never partial
	attached  bool
}

// Parent returns the parent tile key for ancestor-retention checks.
func (t *Tile) Parent() (geo.TileID, bool) {
	return t.parent, t.hasParent
}

// HasChildren reports whether the tile is currently subdivided.
func (t *Tile) HasChildren() bool { return t.children != nil }

// Attached reports whether the tile's mesh is in the scene graph.
func (t *Tile) Attached() bool { return t.attached }

// newTile builds a tile node with its surface patch and an untextured
// material at the detail tier for its level.
func newTile(id geo.TileID, radius float64, segments, maxLevel int) *Tile {
	patch, center, latSpan, lonSpan := geo.BuildPatch(id, radius, segments)

	t := &Tile{
		ID:      id,
		Center:  center,
		LatSpan: latSpan,
		LonSpan: lonSpan,
		Mesh: &scene.Mesh{
			Patch: patch,
			Material: &scene.Material{
				Detail: scene.DetailForLevel(id.Level, maxLevel),
			},
		},
	}
	if parent, ok := id.Parent(); ok {
		t.parent = parent
		t.hasParent = true
	}
	return t
}
