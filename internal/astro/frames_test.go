package astro

import (
	"math"
	"testing"
)

func TestVec3Norm(t *testing.T) {
	tests := []struct {
		name string
		v    Vec3
		want float64
	}{
		{"zero", Vec3{}, 0},
		{"unit x", Vec3{X: 1}, 1},
		{"3-4-5", Vec3{X: 3, Y: 4}, 5},
		{"negative", Vec3{X: -2, Y: -3, Z: -6}, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Norm(); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Norm() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVec3Normalized(t *testing.T) {
	v := Vec3{X: 3, Y: 4}.Normalized()
	if math.Abs(v.Norm()-1) > 1e-12 {
		t.Errorf("Normalized norm = %v, want 1", v.Norm())
	}

	// Zero vector stays zero instead of producing NaN
	z := Vec3{}.Normalized()
	if z != (Vec3{}) {
		t.Errorf("zero.Normalized() = %v, want zero", z)
	}
}

func TestVec3DotCross(t *testing.T) {
	x := Vec3{X: 1}
	y := Vec3{Y: 1}

	if d := x.Dot(y); d != 0 {
		t.Errorf("x·y = %v, want 0", d)
	}
	if c := x.Cross(y); c != (Vec3{Z: 1}) {
		t.Errorf("x×y = %v, want +Z", c)
	}
}

func TestVec3Lerp(t *testing.T) {
	a := Vec3{X: 0, Y: 0, Z: 0}
	b := Vec3{X: 10, Y: -4, Z: 2}

	if got := a.Lerp(b, 0); got != a {
		t.Errorf("Lerp(0) = %v, want %v", got, a)
	}
	if got := a.Lerp(b, 1); got != b {
		t.Errorf("Lerp(1) = %v, want %v", got, b)
	}
	if got := a.Lerp(b, 0.5); got != (Vec3{X: 5, Y: -2, Z: 1}) {
		t.Errorf("Lerp(0.5) = %v", got)
	}
}

func TestVec3IsFinite(t *testing.T) {
	if !(Vec3{X: 1, Y: 2, Z: 3}).IsFinite() {
		t.Error("finite vector reported as non-finite")
	}
	if (Vec3{X: math.NaN()}).IsFinite() {
		t.Error("NaN vector reported as finite")
	}
	if (Vec3{Z: math.Inf(-1)}).IsFinite() {
		t.Error("Inf vector reported as finite")
	}
}

func TestVec3Rotate(t *testing.T) {
	v := Vec3{X: 1}.RotateY(math.Pi / 2)
	if math.Abs(v.X) > 1e-12 || math.Abs(v.Z+1) > 1e-12 {
		t.Errorf("RotateY(90°) of +X = %v, want -Z", v)
	}

	w := Vec3{Y: 1}.RotateX(math.Pi / 2)
	if math.Abs(w.Y) > 1e-12 || math.Abs(w.Z-1) > 1e-12 {
		t.Errorf("RotateX(90°) of +Y = %v, want +Z", w)
	}
}

func TestKmToWorld(t *testing.T) {
	w := KmToWorld(Vec3{X: EarthRadiusKm})
	if math.Abs(w.X-1) > 1e-12 {
		t.Errorf("Earth radius in world units = %v, want 1", w.X)
	}
}

func TestSphericalPoint(t *testing.T) {
	p := SphericalPoint(200, 0.3, 1.1)
	if math.Abs(p.Norm()-200) > 1e-9 {
		t.Errorf("SphericalPoint radius = %v, want 200", p.Norm())
	}

	north := SphericalPoint(1, 0, 0)
	if math.Abs(north.Z-1) > 1e-12 {
		t.Errorf("phi=0 should be +Z, got %v", north)
	}
}

func TestECIToScene(t *testing.T) {
	north := ECIToScene(Vec3{Z: 7000})
	if north != (Vec3{Y: 7000}) {
		t.Errorf("ECI +Z should map to scene +Y, got %v", north)
	}

	if got := ECIToScene(Vec3{X: 1, Y: 2, Z: 3}); got != (Vec3{X: 2, Y: 3, Z: 1}) {
		t.Errorf("ECIToScene = %v, want {2 3 1}", got)
	}

	// The mapping is a rotation: handedness is preserved.
	x, y := ECIToScene(Vec3{X: 1}), ECIToScene(Vec3{Y: 1})
	if got, want := x.Cross(y), ECIToScene(Vec3{Z: 1}); got != want {
		t.Errorf("cross product = %v, want %v", got, want)
	}
}
