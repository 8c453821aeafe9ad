package astro

import (
	"math"
	"time"
)

// SunDirection returns the unit vector from the Earth toward the Sun in the
// equatorial inertial frame. It drives the day/night shading of the
// reference body.
func SunDirection(t time.Time) Vec3 {
	lon, eps := solarLongitude(t)
	return Vec3{
		X: math.Cos(lon),
		Y: math.Cos(eps) * math.Sin(lon),
		Z: math.Sin(eps) * math.Sin(lon),
	}
}

// solarLongitude returns the Sun's apparent ecliptic longitude and the true
// obliquity of the ecliptic, both in radians. Simplified Astronomical
// Almanac series, good to ~0.01°.
func solarLongitude(t time.Time) (lon, eps float64) {
	T := (julianDate(t) - 2451545.0) / 36525.0

	L0 := normalizeAngle360(280.46646 + 36000.76983*T + 0.0003032*T*T)
	M := degToRad(normalizeAngle360(357.52911 + 35999.05029*T - 0.0001537*T*T))

	// Equation of center
	C := (1.914602-0.004817*T-0.000014*T*T)*math.Sin(M) +
		(0.019993-0.000101*T)*math.Sin(2*M) +
		0.000289*math.Sin(3*M)

	omega := degToRad(125.04 - 1934.136*T)
	apparent := L0 + C - 0.00569 - 0.00478*math.Sin(omega)

	eps0 := 23.439291 - 0.0130042*T - 0.00000016*T*T + 0.000000504*T*T*T
	return degToRad(apparent), degToRad(eps0 + 0.00256*math.Cos(omega))
}

// Illumination returns the cosine between the surface normal at p and the
// sun direction, clamped to [0,1].
func Illumination(p, sun Vec3) float64 {
	c := p.Normalized().Dot(sun)
	if c < 0 {
		return 0
	}
	return c
}

func normalizeAngle360(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}
