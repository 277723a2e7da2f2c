package geo

import (
	"math"

	"github.com/helioforge/planetview/pkg/vecmath"
)

// surfaceEpsilon lifts tile patches slightly off the nominal radius so
// they never z-fight with the fallback whole-sphere mesh underneath.
const surfaceEpsilon = 1e-3

// Patch is the generated surface geometry for one tile: a vertex grid
// draped over the sphere. Slices are laid out for direct GPU upload:
// positions and normals xyz-interleaved, UVs uv-interleaved.
type Patch struct {
	Positions []float32
	Normals   []float32
	UVs       []float32
	Indices   []uint32
}

// VertexCount returns the number of vertices in the patch.
func (p *Patch) VertexCount() int { return len(p.Positions) / 3 }

// BuildPatch generates the curved surface patch for a tile: a
// (segments+1) x (segments+1) vertex grid bilinearly interpolated across
// the tile bounds and projected onto the sphere. It also returns the
// tile's center point on the sphere (at the nominal radius) and the
// latitude/longitude spans, which drive LOD and priority decisions.
func BuildPatch(id TileID, radius float64, segments int) (patch *Patch, center vecmath.Vec3, latSpan, lonSpan float64) {
	if segments < 1 {
		segments = 1
	}

	b := id.Bounds()
	lonSpan = b.LonSpan()
	latSpan = b.LatSpan()

	lonC, latC := b.Center()
	center = LatLonToCartesian(latC, lonC, radius)

	lifted := radius * (1 + surfaceEpsilon)
	grid := segments + 1

	patch = &Patch{
		Positions: make([]float32, 0, grid*grid*3),
		Normals:   make([]float32, 0, grid*grid*3),
		UVs:       make([]float32, 0, grid*grid*2),
		Indices:   make([]uint32, 0, segments*segments*6),
	}

	for i := 0; i <= segments; i++ {
		fy := float64(i) / float64(segments)
		lat := b.LatTop - fy*latSpan
		for j := 0; j <= segments; j++ {
			fx := float64(j) / float64(segments)
			lon := b.LonLeft + fx*lonSpan

			n := LatLonToCartesian(lat, lon, 1)
			p := n.Scale(lifted)

			patch.Positions = append(patch.Positions, float32(p.X), float32(p.Y), float32(p.Z))
			patch.Normals = append(patch.Normals, float32(n.X), float32(n.Y), float32(n.Z))
			// Image rows run top-down, so V is inverted relative to fy.
			patch.UVs = append(patch.UVs, float32(fx), float32(1-fy))
		}
	}

	// Two CCW outward-facing triangles per grid cell.
	for i := 0; i < segments; i++ {
		for j := 0; j < segments; j++ {
			a := uint32(i*grid + j)
			bIdx := uint32((i+1)*grid + j)
			c := uint32(i*grid + j + 1)
			d := uint32((i+1)*grid + j + 1)
			patch.Indices = append(patch.Indices, a, bIdx, c, c, bIdx, d)
		}
	}

	return patch, center, latSpan, lonSpan
}

// BuildSphere generates a whole-sphere mesh at the nominal radius, used
// as the fallback placeholder before any tile texture has loaded.
func BuildSphere(radius float64, segments int) *Patch {
	if segments < 3 {
		segments = 3
	}

	rings := segments
	slices := segments * 2
	patch := &Patch{}

	for i := 0; i <= rings; i++ {
		fy := float64(i) / float64(rings)
		lat := math.Pi/2 - fy*math.Pi
		for j := 0; j <= slices; j++ {
			fx := float64(j) / float64(slices)
			lon := -math.Pi + fx*2*math.Pi

			n := LatLonToCartesian(lat, lon, 1)
			p := n.Scale(radius)

			patch.Positions = append(patch.Positions, float32(p.X), float32(p.Y), float32(p.Z))
			patch.Normals = append(patch.Normals, float32(n.X), float32(n.Y), float32(n.Z))
			patch.UVs = append(patch.UVs, float32(fx), float32(1-fy))
		}
	}

	grid := slices + 1
	for i := 0; i < rings; i++ {
		for j := 0; j < slices; j++ {
			a := uint32(i*grid + j)
			b := uint32((i+1)*grid + j)
			c := uint32(i*grid + j + 1)
			d := uint32((i+1)*grid + j + 1)
			patch.Indices = append(patch.Indices, a, b, c, c, b, d)
		}
	}

	return patch
}
