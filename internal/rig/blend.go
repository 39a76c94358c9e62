package rig

import (
	"errors"
	"fmt"

	"github.com/Faultbox/splinerig/internal/scene"
)

// Weight alias names used on every IK/FK blend constraint.
const (
	ikWeightAlias = "ikW"
	fkWeightAlias = "fkW"
)

// blendNetwork is the wiring of one IK/FK blend.
type blendNetwork struct {
	// Reverse derives the FK weight as 1 - switch. Every complementary
	// weight in the rig reads this node, never an independently authored
	// value, so the pair cannot drift out of sync.
	Reverse     scene.NodeID
	FKControls  []scene.NodeID
	Constraints []scene.ConstraintID
}

// fkWeightSource returns the handle carrying 1 - switch.
func (n *blendNetwork) fkWeightSource(g *scene.Graph) (scene.AttrHandle, error) {
	return g.Attr(n.Reverse, "output")
}

// buildBlendNetwork duplicates the blend wiring over three parallel chains:
// the bind chain is constrained joint-by-joint to its IK and FK counterparts
// with weights switch and 1-switch. FK controls are created one per FK
// joint, each parented under the previous control (not under the joint) so
// hand-posed rotations compound correctly, and FK joints follow them.
func (b *Builder) buildBlendNetwork(bind, ik, fk []scene.NodeID, switchAttr scene.AttrHandle, prefix string, controlParent scene.NodeID) (*blendNetwork, error) {
	g := b.g
	if len(bind) < 2 || len(ik) != len(bind) || len(fk) != len(bind) {
		return nil, fmt.Errorf("blend chains %d/%d/%d: %w", len(bind), len(ik), len(fk), ErrInvalidChain)
	}

	rev := g.CreateReverse(prefix + "_fkWeight")
	revIn, err := g.Attr(rev, "input")
	if err != nil {
		return nil, referenceErr(err)
	}
	if err := g.Connect(switchAttr, revIn); err != nil {
		return nil, referenceErr(err)
	}
	revOut, err := g.Attr(rev, "output")
	if err != nil {
		return nil, referenceErr(err)
	}

	net := &blendNetwork{Reverse: rev}

	// FK control chain, control under control.
	for i, j := range fk {
		parent := controlParent
		if i > 0 {
			parent = net.FKControls[i-1]
		}
		ctl := g.CreateTransform(fmt.Sprintf("%s_fkCtl%d", prefix, i))
		if err := g.SetParent(ctl, parent); err != nil {
			return nil, referenceErr(err)
		}
		if err := b.copyLocalPose(j, ctl); err != nil {
			return nil, err
		}
		cid, err := g.CreateConstraint(scene.ConstraintParent, j, []scene.NodeID{ctl}, []string{"w0"})
		if err != nil {
			return nil, wiringErr(err)
		}
		net.FKControls = append(net.FKControls, ctl)
		net.Constraints = append(net.Constraints, cid)

		// FK controls are selectable only while FK drives the chain.
		vis, err := g.Attr(ctl, "visibility")
		if err != nil {
			return nil, referenceErr(err)
		}
		if err := g.Connect(revOut, vis); err != nil {
			return nil, referenceErr(err)
		}
	}

	// Bind joints follow both counterparts with complementary weights.
	for i, j := range bind {
		cid, err := g.CreateConstraint(scene.ConstraintParent, j,
			[]scene.NodeID{ik[i], fk[i]}, []string{ikWeightAlias, fkWeightAlias})
		if err != nil {
			return nil, wiringErr(err)
		}
		ikW, err := g.ConstraintWeight(cid, ikWeightAlias)
		if err != nil {
			return nil, referenceErr(err)
		}
		if err := g.Connect(switchAttr, ikW); err != nil {
			return nil, referenceErr(err)
		}
		fkW, err := g.ConstraintWeight(cid, fkWeightAlias)
		if err != nil {
			return nil, referenceErr(err)
		}
		if err := g.Connect(revOut, fkW); err != nil {
			return nil, referenceErr(err)
		}
		net.Constraints = append(net.Constraints, cid)
	}

	return net, nil
}

// copyLocalPose copies the local translate/rotate of src onto dst.
func (b *Builder) copyLocalPose(src, dst scene.NodeID) error {
	t, err := b.g.GetVec3(src, "translate")
	if err != nil {
		return referenceErr(err)
	}
	r, err := b.g.GetQuat(src, "rotate")
	if err != nil {
		return referenceErr(err)
	}
	if err := b.g.SetAttr(dst, "translate", t); err != nil {
		return referenceErr(err)
	}
	if err := b.g.SetAttr(dst, "rotate", r); err != nil {
		return referenceErr(err)
	}
	return nil
}

// wiringErr maps scene constraint errors onto the builder taxonomy.
func wiringErr(err error) error {
	if errors.Is(err, scene.ErrWeightAliasMismatch) {
		return fmt.Errorf("%w: %v", ErrConstraintWiringMismatch, err)
	}
	return referenceErr(err)
}
