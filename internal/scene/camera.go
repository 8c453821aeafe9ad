package scene

import (
	"math"

	"github.com/litescript/ls-orbits/internal/astro"
)

// Default camera placement in world units.
var (
	DefaultCameraPosition = astro.Vec3{X: 0, Y: 2.2, Z: 3.8}
	DefaultCameraTarget   = astro.Vec3{}
	DefaultCameraUp       = astro.Vec3{Y: 1}
)

const (
	DefaultFOV  = 45.0 // degrees, vertical
	DefaultNear = 0.1
	DefaultFar  = 20000.0
)

// Viewport is the render surface rectangle in device pixels. Pointer
// coordinates are interpreted relative to it, not to the whole window.
type Viewport struct {
	Left, Top     float64
	Width, Height float64
}

// NDC converts device pixel coordinates to normalized device coordinates,
// x and y in -1..1 with y up. ok is false for an empty viewport.
func (v Viewport) NDC(px, py float64) (x, y float64, ok bool) {
	if v.Width <= 0 || v.Height <= 0 {
		return 0, 0, false
	}
	x = ((px-v.Left)/v.Width)*2 - 1
	y = -((py-v.Top)/v.Height)*2 + 1
	return x, y, true
}

// Pixel is the inverse of NDC.
func (v Viewport) Pixel(x, y float64) (px, py float64) {
	px = v.Left + (x+1)/2*v.Width
	py = v.Top + (1-y)/2*v.Height
	return px, py
}

// Camera is a perspective camera looking from Position toward Target.
type Camera struct {
	Position astro.Vec3
	Target   astro.Vec3
	Up       astro.Vec3
	FOV      float64 // vertical, degrees
	Aspect   float64 // width / height
	Near     float64
	Far      float64
}

// DefaultCamera returns the initial camera.
func DefaultCamera() Camera {
	return Camera{
		Position: DefaultCameraPosition,
		Target:   DefaultCameraTarget,
		Up:       DefaultCameraUp,
		FOV:      DefaultFOV,
		Aspect:   1,
		Near:     DefaultNear,
		Far:      DefaultFar,
	}
}

// basis returns the camera's forward, right and up unit vectors.
func (c Camera) basis() (fwd, right, up astro.Vec3) {
	fwd = c.Target.Sub(c.Position).Normalized()
	right = fwd.Cross(c.Up).Normalized()
	if right == (astro.Vec3{}) {
		// Looking straight along Up: pick any perpendicular.
		right = fwd.Cross(astro.Vec3{Z: 1}).Normalized()
	}
	up = right.Cross(fwd)
	return fwd, right, up
}

func (c Camera) tanHalfFOV() float64 {
	return math.Tan(c.FOV * math.Pi / 360)
}

// Ray returns the world-space ray through the given NDC point.
func (c Camera) Ray(x, y float64) astro.Ray {
	fwd, right, up := c.basis()
	th := c.tanHalfFOV()
	dir := fwd.
		Add(right.Scale(x * th * c.Aspect)).
		Add(up.Scale(y * th))
	return astro.NewRay(c.Position, dir)
}

// Project maps a world point to NDC. depth is the distance along the view
// axis; ok is false when the point is outside the near/far range.
func (c Camera) Project(p astro.Vec3) (x, y, depth float64, ok bool) {
	fwd, right, up := c.basis()
	d := p.Sub(c.Position)
	depth = d.Dot(fwd)
	if depth < c.Near || depth > c.Far {
		return 0, 0, depth, false
	}
	th := c.tanHalfFOV()
	x = d.Dot(right) / (depth * th * c.Aspect)
	y = d.Dot(up) / (depth * th)
	return x, y, depth, true
}

// SetAspect updates the aspect ratio from surface dimensions.
func (c *Camera) SetAspect(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Aspect = width / height
}
