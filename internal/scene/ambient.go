package scene

import (
	"math"
	"math/rand"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/litescript/ls-orbits/internal/astro"
)

// Scenery dimensions in world units.
const (
	BodyRadius       = astro.EarthRadiusUnits
	AtmosphereRadius = 1.08
	StarRadius       = 200.0
	MarkerRadius     = 0.02

	DebrisMinAltKm = 400.0
	DebrisMaxAltKm = 1500.0
)

// Per-tick cosmetic rotations, radians.
const (
	bodySpinY   = 0.0005
	starSpinY   = 0.00005
	debrisSpinY = 0.0002
	debrisSpinX = 0.00005
)

// Fixed colour tags.
const (
	BodyColor       = "#1f4e8c"
	AtmosphereColor = "#4abcf7"
	StarColor       = "#ffffff"
	DebrisColor     = "#ffe9a3"
	MarkerColor     = "#ff3b30"
)

func newScenery(rng *rand.Rand, starCount, debrisCount int) []*Object {
	return []*Object{
		{
			Kind:    KindBody,
			Name:    "Earth",
			Color:   BodyColor,
			Radius:  BodyRadius,
			Payload: ShellPayload{Radius: BodyRadius, Opacity: 1},
		},
		{
			Kind:    KindAtmosphere,
			Name:    "Atmosphere",
			Color:   AtmosphereColor,
			Radius:  AtmosphereRadius,
			Payload: ShellPayload{Radius: AtmosphereRadius, Opacity: 0.15},
		},
		{
			Kind:    KindStars,
			Name:    "Stars",
			Color:   StarColor,
			Radius:  StarRadius,
			Payload: PointsPayload{Points: starField(rng, starCount), Size: 0.5},
		},
		{
			Kind:    KindDebrisCloud,
			Name:    "Debris field",
			Color:   DebrisColor,
			Radius:  (astro.EarthRadiusKm + DebrisMaxAltKm) * astro.KmToUnits,
			Payload: PointsPayload{Points: debrisCloud(rng, debrisCount), Size: 0.018},
		},
	}
}

// starField places the bright-star catalog first, then fills up to n with
// uniformly distributed points on the star sphere.
func starField(rng *rand.Rand, n int) []astro.Vec3 {
	if n <= 0 {
		return nil
	}
	pts := make([]astro.Vec3, 0, n)
	for _, s := range astro.BrightStars() {
		if len(pts) == n {
			return pts
		}
		pts = append(pts, astro.ECIToScene(s.Dir()).Scale(StarRadius))
	}
	for len(pts) < n {
		pts = append(pts, randomSpherePoint(rng, StarRadius))
	}
	return pts
}

// debrisCloud scatters n points between the debris altitude bounds.
func debrisCloud(rng *rand.Rand, n int) []astro.Vec3 {
	if n <= 0 {
		return nil
	}
	pts := make([]astro.Vec3, n)
	for i := range pts {
		alt := DebrisMinAltKm + rng.Float64()*(DebrisMaxAltKm-DebrisMinAltKm)
		pts[i] = randomSpherePoint(rng, (astro.EarthRadiusKm+alt)*astro.KmToUnits)
	}
	return pts
}

func randomSpherePoint(rng *rand.Rand, r float64) astro.Vec3 {
	theta := 2 * math.Pi * rng.Float64()
	phi := math.Acos(2*rng.Float64() - 1)
	return astro.SphericalPoint(r, theta, phi)
}

// colorTag picks a saturated random hue.
func colorTag(rng *rand.Rand) string {
	return colorful.Hsl(rng.Float64()*360, 1, 0.6).Hex()
}

// spin advances the cosmetic rotation of scenery. Tracked objects are never
// touched.
func spin(o *Object) {
	switch o.Kind {
	case KindBody, KindAtmosphere:
		o.Transform.Rotation.Y += bodySpinY
	case KindStars:
		o.Transform.Rotation.Y += starSpinY
	case KindDebrisCloud:
		o.Transform.Rotation.Y += debrisSpinY
		o.Transform.Rotation.X += debrisSpinX
	}
}

// WorldPoint applies the object's rotation to a local point.
func (o *Object) WorldPoint(local astro.Vec3) astro.Vec3 {
	r := o.Transform.Rotation
	return local.RotateX(r.X).RotateY(r.Y).Add(o.Transform.Position)
}
