// Package scene defines the small surface the tile streamer shares with a
// renderer: renderable meshes, the scene graph they attach to, and the
// camera/viewport views it reads each frame.
package scene

import (
	"github.com/helioforge/planetview/internal/geo"
	"github.com/helioforge/planetview/internal/texture"
	"github.com/helioforge/planetview/pkg/vecmath"
)

// Camera exposes the view state the LOD selector needs.
type Camera interface {
	// Position is the camera's world-space position.
	Position() vecmath.Vec3
	// Forward is the camera's look direction (need not be normalized).
	Forward() vecmath.Vec3
	// VerticalFOV is the vertical field of view in radians.
	VerticalFOV() float64
}

// Viewport exposes the render target dimension used to convert angular
// size to pixels.
type Viewport interface {
	ViewportHeight() int
}

// Material is a renderable surface description. Texture is nil until the
// tile's image has been fetched and bound.
type Material struct {
	Texture    *texture.Texture
	Detail     Detail
	Anisotropy float64
}

// Mesh is one renderable node: a surface patch plus its material.
type Mesh struct {
	Patch    *geo.Patch
	Material *Material
}

// Graph is the attach point for renderable nodes. Add and Remove are
// idempotent; the tile manager may re-add a mesh it already attached.
type Graph interface {
	Add(*Mesh)
	Remove(*Mesh)
}

// Group is the provided Graph implementation: an inspectable set of
// attached meshes that a renderer iterates each frame.
type Group struct {
	meshes map[*Mesh]struct{}
}

// NewGroup creates an empty group.
func NewGroup() *Group {
	return &Group{meshes: make(map[*Mesh]struct{})}
}

// Add attaches a mesh.
func (g *Group) Add(m *Mesh) {
	g.meshes[m] = struct{}{}
}

// Remove detaches a mesh.
func (g *Group) Remove(m *Mesh) {
	delete(g.meshes, m)
}

// Contains reports whether the mesh is attached.
func (g *Group) Contains(m *Mesh) bool {
	_, ok := g.meshes[m]
	return ok
}

// Len returns the number of attached meshes.
func (g *Group) Len() int { return len(g.meshes) }

// Each calls fn for every attached mesh.
func (g *Group) Each(fn func(*Mesh)) {
	for m := range g.meshes {
		fn(m)
	}
}
