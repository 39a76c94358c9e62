package math

import (
	gomath "math"
	"testing"
)

func almostEqual(a, b Vec3, tol float64) bool {
	return gomath.Abs(a.X-b.X) < tol && gomath.Abs(a.Y-b.Y) < tol && gomath.Abs(a.Z-b.Z) < tol
}

func TestIdentityTransform(t *testing.T) {
	p := Vec3{1, 2, 3}
	got := Identity().TransformPoint(p)
	if got != p {
		t.Errorf("Identity().TransformPoint() = %v, want %v", got, p)
	}
}

func TestTranslate(t *testing.T) {
	m := Translate(10, 0, -5)
	got := m.TransformPoint(Vec3{1, 1, 1})
	want := Vec3{11, 1, -4}
	if got != want {
		t.Errorf("Translate().TransformPoint() = %v, want %v", got, want)
	}
}

func TestMulOrder(t *testing.T) {
	// Translate then scale: point scales first under column-major composition.
	m := Translate(1, 0, 0).Mul(Scale(2, 2, 2))
	got := m.TransformPoint(Vec3{1, 0, 0})
	want := Vec3{3, 0, 0}
	if !almostEqual(got, want, 1e-12) {
		t.Errorf("Mul composition = %v, want %v", got, want)
	}
}

func TestInverseRoundTrip(t *testing.T) {
	m := Translate(3, -2, 7).Mul(Scale(2, 3, 4))
	inv := m.Inverse()
	p := Vec3{1, 2, 3}
	got := inv.TransformPoint(m.TransformPoint(p))
	if !almostEqual(got, p, 1e-9) {
		t.Errorf("Inverse round trip = %v, want %v", got, p)
	}
}

func TestAimBasisPointsAtTarget(t *testing.T) {
	origin := Vec3{0, 0, 0}
	target := Vec3{0, 5, 0}
	m := AimBasis(origin, target, Vec3{Z: 1})

	x := m.AxisX()
	want := Vec3{0, 1, 0}
	if !almostEqual(x, want, 1e-12) {
		t.Errorf("AimBasis X axis = %v, want %v", x, want)
	}
}

func TestAimBasisOrthonormal(t *testing.T) {
	m := AimBasis(Vec3{1, 2, 3}, Vec3{4, -1, 2}, Vec3{Y: 1})
	x, y, z := m.AxisX(), m.AxisY(), m.AxisZ()

	for name, v := range map[string]Vec3{"x": x, "y": y, "z": z} {
		if l := v.Length(); gomath.Abs(l-1) > 1e-12 {
			t.Errorf("axis %s length = %v, want 1", name, l)
		}
	}
	if d := gomath.Abs(x.Dot(y)) + gomath.Abs(y.Dot(z)) + gomath.Abs(x.Dot(z)); d > 1e-12 {
		t.Errorf("axes not orthogonal, dot sum = %v", d)
	}
}

func TestAimBasisDegenerateUp(t *testing.T) {
	// Up parallel to aim direction must still yield an orthonormal frame.
	m := AimBasis(Vec3{}, Vec3{0, 3, 0}, Vec3{Y: 1})
	y := m.AxisY()
	if l := y.Length(); gomath.Abs(l-1) > 1e-12 {
		t.Errorf("degenerate up: Y axis length = %v, want 1", l)
	}
}
