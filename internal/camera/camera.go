// Package camera provides the orbital camera used to view the planet.
package camera

import (
	gomath "math"

	"github.com/helioforge/planetview/pkg/vecmath"
)

// OrbitCamera orbits the planet center on spherical coordinates and
// always looks at the origin. It satisfies the scene camera interface
// consumed by the tile manager.
type OrbitCamera struct {
	// Planet radius, used to scale zoom limits and drag speed.
	Radius float64

	// Spherical coordinates
	Distance float64 // Distance from the planet center
	Pitch    float64 // Latitude of the camera (radians)
	Yaw      float64 // Longitude of the camera (radians)

	// Constraints
	MinDistance float64
	MaxDistance float64
	MinPitch    float64
	MaxPitch    float64

	// Sensitivity
	DragSensitivity float64
	ZoomSensitivity float64

	// Vertical field of view in radians.
	FOV float64
}

// NewOrbitCamera creates an orbit camera with limits scaled to the
// planet radius.
func NewOrbitCamera(radius, fov float64) *OrbitCamera {
	return &OrbitCamera{
		Radius:          radius,
		Distance:        radius * 3,
		Pitch:           0.3,
		Yaw:             0.0,
		MinDistance:     radius * 1.02,
		MaxDistance:     radius * 10,
		MinPitch:        -gomath.Pi/2 + 0.05,
		MaxPitch:        gomath.Pi/2 - 0.05,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		FOV:             fov,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() vecmath.Vec3 {
	return vecmath.Vec3{
		X: c.Distance * gomath.Cos(c.Pitch) * gomath.Sin(c.Yaw),
		Y: c.Distance * gomath.Sin(c.Pitch),
		Z: c.Distance * gomath.Cos(c.Pitch) * gomath.Cos(c.Yaw),
	}
}

// Forward returns the unit view direction, toward the planet center.
func (c *OrbitCamera) Forward() vecmath.Vec3 {
	return c.Position().Scale(-1).Normalize()
}

// VerticalFOV returns the vertical field of view in radians.
func (c *OrbitCamera) VerticalFOV() float64 { return c.FOV }

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() vecmath.Mat4 {
	up := vecmath.Vec3{Y: 1}
	return vecmath.LookAt(c.Position(), vecmath.Vec3{}, up)
}

// ProjectionMatrix returns a perspective projection whose clip planes
// track the orbit altitude, keeping depth precision usable both from
// orbit and near the surface.
func (c *OrbitCamera) ProjectionMatrix(aspect float64) vecmath.Mat4 {
	near := (c.Distance - c.Radius) * 0.05
	if floor := c.Radius * 0.0005; near < floor {
		near = floor
	}
	far := c.Distance + c.Radius*4
	return vecmath.Perspective(c.FOV, aspect, near, far)
}

// HandleDrag updates the orbit angles from a mouse drag delta. Drag
// speed shrinks as the camera approaches the surface so close-up
// panning stays controllable.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float64) {
	altitude := (c.Distance - c.Radius) / c.Radius
	if altitude < 0.05 {
		altitude = 0.05
	}
	scale := c.DragSensitivity * altitude

	c.Yaw -= deltaX * scale
	c.Pitch += deltaY * scale

	if c.Pitch < c.MinPitch {
		c.Pitch = c.MinPitch
	}
	if c.Pitch > c.MaxPitch {
		c.Pitch = c.MaxPitch
	}
}

// HandleZoom updates the orbit distance from a scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float64) {
	c.Distance -= delta * (c.Distance - c.Radius) * c.ZoomSensitivity
	if c.Distance < c.MinDistance {
		c.Distance = c.MinDistance
	}
	if c.Distance > c.MaxDistance {
		c.Distance = c.MaxDistance
	}
}
