package math

import (
	gomath "math"
	"testing"
)

func TestQuatIdentityRotation(t *testing.T) {
	m := QuatIdentity().ToMat4()
	got := m.TransformPoint(Vec3{1, 2, 3})
	want := Vec3{1, 2, 3}
	if !almostEqual(got, want, 1e-12) {
		t.Errorf("identity rotation moved point: %v, want %v", got, want)
	}
}

func TestQuatFromAxisAngle(t *testing.T) {
	// 90 degrees around Z maps +X to +Y.
	q := QuatFromAxisAngle(Vec3{Z: 1}, gomath.Pi/2)
	got := q.ToMat4().TransformPoint(Vec3{1, 0, 0})
	want := Vec3{0, 1, 0}
	if !almostEqual(got, want, 1e-12) {
		t.Errorf("rotated point = %v, want %v", got, want)
	}
}

func TestQuatSlerpEndpoints(t *testing.T) {
	a := QuatIdentity()
	b := QuatFromAxisAngle(Vec3{Y: 1}, gomath.Pi/2)

	if got := a.Slerp(b, 0); gomath.Abs(got.Dot(a))-1 > 1e-12 {
		t.Errorf("Slerp(0) = %v, want %v", got, a)
	}
	if got := a.Slerp(b, 1); gomath.Abs(got.Dot(b))-1 > 1e-12 {
		t.Errorf("Slerp(1) = %v, want %v", got, b)
	}
}

func TestQuatSlerpHalfway(t *testing.T) {
	a := QuatIdentity()
	b := QuatFromAxisAngle(Vec3{Z: 1}, gomath.Pi/2)
	mid := a.Slerp(b, 0.5)

	// Halfway should be a 45 degree rotation around Z.
	want := QuatFromAxisAngle(Vec3{Z: 1}, gomath.Pi/4)
	if gomath.Abs(mid.Dot(want)) < 1-1e-9 {
		t.Errorf("Slerp(0.5) = %v, want %v", mid, want)
	}
}

func TestQuatMat4RoundTrip(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{1, 1, 0}.Normalize(), 0.7)
	back := QuatFromMat4(q.ToMat4())
	if gomath.Abs(back.Dot(q)) < 1-1e-9 {
		t.Errorf("QuatFromMat4(ToMat4()) = %v, want %v", back, q)
	}
}
