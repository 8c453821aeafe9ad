package astro

import (
	"math"
	"time"
)

// SubPoint is the geocentric point directly beneath an orbiting object.
type SubPoint struct {
	LatDeg float64 // Latitude in degrees (north positive)
	LonDeg float64 // Longitude in degrees (east positive, -180..180)
	AltKm  float64 // Height above the mean Earth radius
}

// SubPointAt converts an Earth-centered inertial position in kilometres to
// a spherical-Earth sub-point at time t.
func SubPointAt(posKm Vec3, t time.Time) SubPoint {
	r := posKm.Norm()
	if r == 0 {
		return SubPoint{AltKm: -EarthRadiusKm}
	}

	lat := radToDeg(math.Asin(posKm.Z / r))
	lon := radToDeg(math.Atan2(posKm.Y, posKm.X)) - greenwichMeanSiderealTime(t)

	// Normalize to -180..180
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	lon -= 180

	return SubPoint{
		LatDeg: lat,
		LonDeg: lon,
		AltKm:  r - EarthRadiusKm,
	}
}

// greenwichMeanSiderealTime calculates GMST in degrees for a given UTC time.
// Uses the IAU formula based on Julian Date.
func greenwichMeanSiderealTime(t time.Time) float64 {
	jd := julianDate(t)

	// Julian centuries since J2000.0
	T := (jd - 2451545.0) / 36525.0

	// GMST in degrees (IAU 1982 formula)
	gmst := 280.46061837 +
		360.98564736629*(jd-2451545.0) +
		0.000387933*T*T -
		T*T*T/38710000.0

	gmst = math.Mod(gmst, 360)
	if gmst < 0 {
		gmst += 360
	}

	return gmst
}

// julianDate calculates the Julian Date for a given time.
func julianDate(t time.Time) float64 {
	t = t.UTC()

	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day())

	h := float64(t.Hour())
	min := float64(t.Minute())
	sec := float64(t.Second())
	ns := float64(t.Nanosecond())

	dayFrac := (h + min/60 + sec/3600 + ns/3600e9) / 24.0

	// January/February count as months 13/14 of the previous year
	if m <= 2 {
		y--
		m += 12
	}

	// Gregorian calendar correction
	A := math.Floor(y / 100)
	B := 2 - A + math.Floor(A/4)

	return math.Floor(365.25*(y+4716)) +
		math.Floor(30.6001*(m+1)) +
		d + dayFrac + B - 1524.5
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func radToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
