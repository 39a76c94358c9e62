package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/splinerig/pkg/math"
)

func linePoints() []math.Vec3 {
	return []math.Vec3{{X: 0}, {X: 2.5}, {X: 5}, {X: 7.5}, {X: 10}}
}

func TestCreateJointParenting(t *testing.T) {
	g := NewGraph()

	root, err := g.CreateJoint("root", InvalidNode)
	require.NoError(t, err)
	child, err := g.CreateJoint("child", root)
	require.NoError(t, err)

	assert.Equal(t, root, g.Parent(child))
	assert.Equal(t, []NodeID{child}, g.Children(root))
	assert.Equal(t, KindJoint, g.KindOf(child))
}

func TestCreateJointBadParent(t *testing.T) {
	g := NewGraph()
	_, err := g.CreateJoint("orphan", NodeID(99))
	require.ErrorIs(t, err, ErrNodeNotFound)
}

func TestSetAttrClampsRange(t *testing.T) {
	g := NewGraph()
	ctl := g.CreateTransform("ctl")

	lo, hi := 0.0, 1.0
	h, err := g.AddAttr(ctl, "ikFkSwitch", 1.0, &lo, &hi)
	require.NoError(t, err)

	require.NoError(t, g.SetAttrHandle(h, 3.0))
	v, err := g.GetFloat(ctl, "ikFkSwitch")
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestSetAttrTypeMismatch(t *testing.T) {
	g := NewGraph()
	ctl := g.CreateTransform("ctl")
	err := g.SetAttr(ctl, "translate", 1.0)
	require.ErrorIs(t, err, ErrBadValue)
}

func TestMultiplyDivideChain(t *testing.T) {
	g := NewGraph()

	div := g.CreateMultiplyDivide("ratio", "divide")
	require.NoError(t, g.SetAttr(div, "input1", 15.0))
	require.NoError(t, g.SetAttr(div, "input2", 10.0))

	clamp := g.CreateClamp("clampRatio", 1.0, 2.0)
	out, err := g.Attr(div, "output")
	require.NoError(t, err)
	in, err := g.Attr(clamp, "input")
	require.NoError(t, err)
	require.NoError(t, g.Connect(out, in))

	v, err := g.GetFloat(clamp, "output")
	require.NoError(t, err)
	assert.InDelta(t, 1.5, v, 1e-12)
}

func TestReverseComplement(t *testing.T) {
	g := NewGraph()
	ctl := g.CreateTransform("ctl")
	sw, err := g.AddAttr(ctl, "switch", 0.0, nil, nil)
	require.NoError(t, err)

	rev := g.CreateReverse("invSwitch")
	in, err := g.Attr(rev, "input")
	require.NoError(t, err)
	require.NoError(t, g.Connect(sw, in))

	for _, s := range []float64{0, 0.25, 0.5, 1} {
		require.NoError(t, g.SetAttrHandle(sw, s))
		direct, err := g.GetFloat(ctl, "switch")
		require.NoError(t, err)
		inverse, err := g.GetFloat(rev, "output")
		require.NoError(t, err)
		assert.InDelta(t, 1.0, direct+inverse, 1e-12)
	}
}

func TestCannotSetComputedOutput(t *testing.T) {
	g := NewGraph()
	rev := g.CreateReverse("inv")
	err := g.SetAttr(rev, "output", 0.5)
	require.ErrorIs(t, err, ErrBadValue)
}

func TestCurveArcLengthStraightLine(t *testing.T) {
	g := NewGraph()
	c, err := g.CreateCurveFromPoints("spine", linePoints(), 3, false)
	require.NoError(t, err)

	l, err := g.CurveArcLength(c)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, l, 1e-6)
}

func TestCurveRejectsDegenerate(t *testing.T) {
	g := NewGraph()
	before := g.NumLive()
	_, err := g.CreateCurveFromPoints("bad", []math.Vec3{{X: 1}}, 3, false)
	require.Error(t, err)
	assert.Equal(t, before, g.NumLive(), "failed creation must not leave a node")
}

func TestCurveParamFromLength(t *testing.T) {
	g := NewGraph()
	c, err := g.CreateCurveFromPoints("spine", linePoints(), 3, false)
	require.NoError(t, err)

	u, err := g.CurveParamFromLength(c, 5.0)
	require.NoError(t, err)
	p, err := g.CurvePointAtParam(c, u)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, p.X, 1e-3)
}

func TestCurveCVConnectionDrivesLength(t *testing.T) {
	g := NewGraph()
	c, err := g.CreateCurveFromPoints("spine", linePoints(), 1, false)
	require.NoError(t, err)

	driver := g.CreateTransform("anchor")
	require.NoError(t, g.SetAttr(driver, "translate", math.Vec3{X: 20}))

	src, err := g.Attr(driver, "worldPosition")
	require.NoError(t, err)
	cv, err := g.CurveCV(c, 4)
	require.NoError(t, err)
	require.NoError(t, g.Connect(src, cv))

	l, err := g.CurveArcLength(c)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, l, 1e-6)
}

func TestWorldTransformHierarchy(t *testing.T) {
	g := NewGraph()
	root := g.CreateTransform("root")
	child := g.CreateTransform("child")
	require.NoError(t, g.SetParent(child, root))

	require.NoError(t, g.SetAttr(root, "translate", math.Vec3{X: 5}))
	require.NoError(t, g.SetAttr(child, "translate", math.Vec3{Y: 3}))

	p, err := g.WorldPosition(child)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, p.X, 1e-12)
	assert.InDelta(t, 3.0, p.Y, 1e-12)
}

func TestParentConstraintBlendsPositions(t *testing.T) {
	g := NewGraph()
	a := g.CreateTransform("a")
	b := g.CreateTransform("b")
	target := g.CreateTransform("target")

	require.NoError(t, g.SetAttr(a, "translate", math.Vec3{X: 0}))
	require.NoError(t, g.SetAttr(b, "translate", math.Vec3{X: 10}))

	cid, err := g.CreateConstraint(ConstraintParent, target, []NodeID{a, b}, []string{"wA", "wB"})
	require.NoError(t, err)

	require.NoError(t, g.SetAttr(cid.Node(), "wA", 0.25))
	require.NoError(t, g.SetAttr(cid.Node(), "wB", 0.75))

	p, err := g.WorldPosition(target)
	require.NoError(t, err)
	assert.InDelta(t, 7.5, p.X, 1e-9)
}

func TestConstraintAliasMismatch(t *testing.T) {
	g := NewGraph()
	a := g.CreateTransform("a")
	target := g.CreateTransform("target")

	_, err := g.CreateConstraint(ConstraintParent, target, []NodeID{a}, []string{"w0", "w1"})
	require.ErrorIs(t, err, ErrWeightAliasMismatch)
}

func TestPointConstraintKeepsRotation(t *testing.T) {
	g := NewGraph()
	src := g.CreateTransform("src")
	target := g.CreateTransform("target")

	require.NoError(t, g.SetAttr(src, "translate", math.Vec3{X: 4, Y: 2}))
	require.NoError(t, g.SetAttr(target, "rotate", math.QuatFromAxisAngle(math.Vec3{Z: 1}, 1.0)))

	_, err := g.CreateConstraint(ConstraintPoint, target, []NodeID{src}, []string{"w0"})
	require.NoError(t, err)

	w, err := g.WorldTransform(target)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, w.Translation().X, 1e-9)

	// Rotation must be the target's own, untouched by the point constraint.
	want := math.QuatFromAxisAngle(math.Vec3{Z: 1}, 1.0)
	got := math.QuatFromMat4(w)
	assert.InDelta(t, 1.0, absf(got.Dot(want)), 1e-9)
}

func TestAimConstraintPointsAtSource(t *testing.T) {
	g := NewGraph()
	aimAt := g.CreateTransform("aimAt")
	target := g.CreateTransform("target")

	require.NoError(t, g.SetAttr(aimAt, "translate", math.Vec3{Y: 6}))

	_, err := g.CreateConstraint(ConstraintAim, target, []NodeID{aimAt}, []string{"w0"})
	require.NoError(t, err)

	w, err := g.WorldTransform(target)
	require.NoError(t, err)
	x := w.AxisX()
	assert.InDelta(t, 1.0, x.Y, 1e-9)
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
