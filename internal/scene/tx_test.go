package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/splinerig/pkg/math"
)

func TestRollbackDeletesCreatedNodes(t *testing.T) {
	g := NewGraph()
	pre := g.CreateTransform("preExisting")
	before := g.NumLive()

	tx, err := g.Begin()
	require.NoError(t, err)

	j, err := g.CreateJoint("tempJoint", InvalidNode)
	require.NoError(t, err)
	g.CreateTransform("tempCtl")
	_, err = g.CreateCurveFromPoints("tempCurve", linePoints(), 3, false)
	require.NoError(t, err)

	tx.Rollback()

	assert.Equal(t, before, g.NumLive())
	assert.False(t, g.Exists(j))
	assert.True(t, g.Exists(pre))
}

func TestRollbackRestoresAttrs(t *testing.T) {
	g := NewGraph()
	ctl := g.CreateTransform("ctl")
	require.NoError(t, g.SetAttr(ctl, "translate", math.Vec3{X: 1}))

	tx, err := g.Begin()
	require.NoError(t, err)
	require.NoError(t, g.SetAttr(ctl, "translate", math.Vec3{X: 99}))
	require.NoError(t, g.SetAttr(ctl, "translate", math.Vec3{X: 100}))
	tx.Rollback()

	v, err := g.GetVec3(ctl, "translate")
	require.NoError(t, err)
	assert.Equal(t, math.Vec3{X: 1}, v)
}

func TestRollbackRestoresConnections(t *testing.T) {
	g := NewGraph()
	a := g.CreateTransform("a")
	b := g.CreateTransform("b")
	sw, err := g.AddAttr(a, "out", 2.0, nil, nil)
	require.NoError(t, err)
	dst, err := g.AddAttr(b, "in", 0.0, nil, nil)
	require.NoError(t, err)

	tx, err := g.Begin()
	require.NoError(t, err)
	require.NoError(t, g.Connect(sw, dst))
	tx.Rollback()

	assert.Nil(t, g.Incoming(dst))
	v, err := g.GetFloat(b, "in")
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

func TestRollbackRestoresParenting(t *testing.T) {
	g := NewGraph()
	oldParent := g.CreateTransform("oldParent")
	child := g.CreateTransform("child")
	require.NoError(t, g.SetParent(child, oldParent))

	tx, err := g.Begin()
	require.NoError(t, err)
	newParent := g.CreateTransform("newParent")
	require.NoError(t, g.SetParent(child, newParent))
	tx.Rollback()

	assert.Equal(t, oldParent, g.Parent(child))
	assert.Equal(t, []NodeID{child}, g.Children(oldParent))
}

func TestRollbackDropsConstraintsOnSurvivors(t *testing.T) {
	g := NewGraph()
	target := g.CreateTransform("target")
	require.NoError(t, g.SetAttr(target, "translate", math.Vec3{X: 7}))

	tx, err := g.Begin()
	require.NoError(t, err)
	driver := g.CreateTransform("driver")
	require.NoError(t, g.SetAttr(driver, "translate", math.Vec3{X: 100}))
	_, err = g.CreateConstraint(ConstraintPoint, target, []NodeID{driver}, []string{"w0"})
	require.NoError(t, err)
	tx.Rollback()

	p, err := g.WorldPosition(target)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, p.X, 1e-12)
}

func TestCommitKeepsChanges(t *testing.T) {
	g := NewGraph()
	tx, err := g.Begin()
	require.NoError(t, err)
	j, err := g.CreateJoint("kept", InvalidNode)
	require.NoError(t, err)
	tx.Commit()

	assert.True(t, g.Exists(j))
	assert.False(t, g.InTransaction())
}

func TestSecondBeginFails(t *testing.T) {
	g := NewGraph()
	tx, err := g.Begin()
	require.NoError(t, err)
	_, err = g.Begin()
	require.ErrorIs(t, err, ErrTransactionOpen)
	tx.Rollback()
}
