package rig

import (
	"fmt"

	"github.com/Faultbox/splinerig/internal/scene"
	"github.com/Faultbox/splinerig/pkg/math"
)

// buildJointChain creates one joint per sample, parented strictly root to
// tip, and bakes orientation from the samples and reference curve.
func (b *Builder) buildJointChain(samples []CurveSample, refCurve scene.CurveID, prefix string, parent scene.NodeID) ([]scene.NodeID, error) {
	if len(samples) < 2 {
		return nil, fmt.Errorf("%d samples: %w", len(samples), ErrInvalidChain)
	}

	joints := make([]scene.NodeID, len(samples))
	for i := range samples {
		p := parent
		if i > 0 {
			p = joints[i-1]
		}
		j, err := b.g.CreateJoint(fmt.Sprintf("%s_joint%d", prefix, i), p)
		if err != nil {
			return nil, fmt.Errorf("joint %d: %w", i, referenceErr(err))
		}
		joints[i] = j
	}

	if err := b.orientChain(joints, samples, refCurve); err != nil {
		return nil, err
	}
	return joints, nil
}

// orientChain bakes rest transforms: each joint's X axis aims at the next
// sample with the up-vector taken from the nearest point on the reference
// curve; the tip inherits its parent's orientation since it has no
// look-ahead target. Orientation is frozen into the rest pose rather than
// left as a live constraint, so skin binding sees stable rest transforms.
func (b *Builder) orientChain(joints []scene.NodeID, samples []CurveSample, refCurve scene.CurveID) error {
	if len(joints) != len(samples) {
		return fmt.Errorf("%d joints for %d samples: %w", len(joints), len(samples), ErrInvalidChain)
	}
	if !b.g.Exists(refCurve.Node()) {
		return fmt.Errorf("reference curve: %w", ErrReferenceMissing)
	}

	worlds := make([]math.Mat4, len(joints))
	for i := range joints {
		pos := samples[i].Position
		if i == len(joints)-1 {
			prev := worlds[i-1]
			worlds[i] = math.FromBasis(prev.AxisX(), prev.AxisY(), prev.AxisZ(), pos)
			continue
		}
		up, err := b.referenceUp(refCurve, pos)
		if err != nil {
			return err
		}
		worlds[i] = math.AimBasis(pos, samples[i+1].Position, up)
	}

	for i, j := range joints {
		parentWorld := math.Identity()
		if p := b.g.Parent(j); p != scene.InvalidNode {
			w, err := b.g.WorldTransform(p)
			if err != nil {
				return referenceErr(err)
			}
			parentWorld = w
		}
		local := parentWorld.Inverse().Mul(worlds[i])
		if err := b.g.SetAttr(j, "translate", local.Translation()); err != nil {
			return referenceErr(err)
		}
		if err := b.g.SetAttr(j, "rotate", math.QuatFromMat4(math.FromBasis(
			local.AxisX().Normalize(),
			local.AxisY().Normalize(),
			local.AxisZ().Normalize(),
			math.Vec3{},
		))); err != nil {
			return referenceErr(err)
		}
	}
	return nil
}

// referenceUp returns the up direction at pos: toward the nearest point on
// the reference curve.
func (b *Builder) referenceUp(refCurve scene.CurveID, pos math.Vec3) (math.Vec3, error) {
	u, err := b.g.CurveClosestParam(refCurve, pos)
	if err != nil {
		return math.Vec3{}, referenceErr(err)
	}
	refPoint, err := b.g.CurvePointAtParam(refCurve, u)
	if err != nil {
		return math.Vec3{}, referenceErr(err)
	}
	return refPoint.Sub(pos).Normalize(), nil
}

// duplicateChain copies a joint chain's rest pose into a new chain with the
// given prefix, parented under parent.
func (b *Builder) duplicateChain(joints []scene.NodeID, prefix string, parent scene.NodeID) ([]scene.NodeID, error) {
	if len(joints) < 2 {
		return nil, fmt.Errorf("%d joints: %w", len(joints), ErrInvalidChain)
	}

	out := make([]scene.NodeID, len(joints))
	for i, src := range joints {
		p := parent
		if i > 0 {
			p = out[i-1]
		}
		j, err := b.g.CreateJoint(fmt.Sprintf("%s_joint%d", prefix, i), p)
		if err != nil {
			return nil, fmt.Errorf("duplicate joint %d: %w", i, referenceErr(err))
		}
		t, err := b.g.GetVec3(src, "translate")
		if err != nil {
			return nil, referenceErr(err)
		}
		r, err := b.g.GetQuat(src, "rotate")
		if err != nil {
			return nil, referenceErr(err)
		}
		if err := b.g.SetAttr(j, "translate", t); err != nil {
			return nil, referenceErr(err)
		}
		if err := b.g.SetAttr(j, "rotate", r); err != nil {
			return nil, referenceErr(err)
		}
		out[i] = j
	}
	return out, nil
}
