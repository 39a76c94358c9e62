package rig

import (
	"fmt"

	"github.com/Faultbox/splinerig/internal/scene"
	"github.com/Faultbox/splinerig/pkg/math"
)

// anchorNetwork is the wiring of the per-CV anchor controls.
type anchorNetwork struct {
	IKAnchors []scene.NodeID
	FKAnchors []scene.NodeID
	// Blended holds the constraint-blended outputs; these, never the
	// drivers, own the curve control vertices they feed.
	Blended []scene.NodeID
}

// buildAnchors creates one anchor pair per interior control vertex of the
// chain's curve and feeds each blended result back into its CV. The first
// and last CV of an open curve bypass the blend and follow the chain's end
// joints directly; a closed curve has no end CVs, so every CV gets the full
// anchor treatment.
//
// The IK and FK anchors of every CV blend through the same switch attribute
// as the joint chain; a second switch would let the anchors and joints
// desynchronize.
func (b *Builder) buildAnchors(chain *ChainHandle, net *blendNetwork, switchAttr scene.AttrHandle, ctlParent, sysParent scene.NodeID, prefix string) (*anchorNetwork, error) {
	g := b.g
	cvCount, err := g.CurveCVCount(chain.Curve)
	if err != nil {
		return nil, referenceErr(err)
	}
	closed, err := g.CurveClosed(chain.Curve)
	if err != nil {
		return nil, referenceErr(err)
	}
	fkWeight, err := net.fkWeightSource(g)
	if err != nil {
		return nil, referenceErr(err)
	}

	first, last := 1, cvCount-2
	if closed {
		first, last = 0, cvCount-1
	}

	anchors := &anchorNetwork{}
	for i := first; i <= last; i++ {
		cvHandle, err := g.CurveCV(chain.Curve, i)
		if err != nil {
			return nil, referenceErr(err)
		}
		cvPos, err := g.GetVec3(cvHandle.Node, cvHandle.Name)
		if err != nil {
			return nil, referenceErr(err)
		}

		ikAnchor, err := b.buildIKAnchor(chain, cvPos, ctlParent, fmt.Sprintf("%s_ikAnchor%d", prefix, i))
		if err != nil {
			return nil, err
		}
		// IK anchors are selectable only while IK drives the chain.
		vis, err := g.Attr(ikAnchor, "visibility")
		if err != nil {
			return nil, referenceErr(err)
		}
		if err := g.Connect(switchAttr, vis); err != nil {
			return nil, referenceErr(err)
		}

		fkAnchor, err := b.buildFKAnchor(net.FKControls, cvPos, i, cvCount, fmt.Sprintf("%s_fkAnchor%d", prefix, i))
		if err != nil {
			return nil, err
		}

		blended := g.CreateTransform(fmt.Sprintf("%s_anchor%d", prefix, i))
		if err := g.SetParent(blended, sysParent); err != nil {
			return nil, referenceErr(err)
		}
		cid, err := g.CreateConstraint(scene.ConstraintPoint, blended,
			[]scene.NodeID{ikAnchor, fkAnchor}, []string{ikWeightAlias, fkWeightAlias})
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
		if err := g.Connect(fkWeight, fkW); err != nil {
			return nil, referenceErr(err)
		}

		// Close the loop: the blended output, not either driver, owns the CV.
		src, err := g.Attr(blended, "worldPosition")
		if err != nil {
			return nil, referenceErr(err)
		}
		if err := g.Connect(src, cvHandle); err != nil {
			return nil, referenceErr(err)
		}

		anchors.IKAnchors = append(anchors.IKAnchors, ikAnchor)
		anchors.FKAnchors = append(anchors.FKAnchors, fkAnchor)
		anchors.Blended = append(anchors.Blended, blended)
	}

	if !closed {
		if err := b.wireEndCVs(chain); err != nil {
			return nil, err
		}
	}
	return anchors, nil
}

// buildIKAnchor creates a user-editable anchor at the CV position whose
// baked orientation samples the primary curve tangent and the offset-curve
// up reference, the same frame method the joint chain uses.
func (b *Builder) buildIKAnchor(chain *ChainHandle, cvPos math.Vec3, parent scene.NodeID, name string) (scene.NodeID, error) {
	g := b.g
	anchor := g.CreateTransform(name)
	if err := g.SetParent(anchor, parent); err != nil {
		return scene.InvalidNode, referenceErr(err)
	}

	u, err := g.CurveClosestParam(chain.Curve, cvPos)
	if err != nil {
		return scene.InvalidNode, referenceErr(err)
	}
	tangent, err := g.CurveTangentAtParam(chain.Curve, u)
	if err != nil {
		return scene.InvalidNode, referenceErr(err)
	}
	up, err := b.referenceUp(chain.Reference, cvPos)
	if err != nil {
		return scene.InvalidNode, err
	}
	frame := math.AimBasis(cvPos, cvPos.Add(tangent), up)

	if err := g.SetAttr(anchor, "translate", cvPos); err != nil {
		return scene.InvalidNode, referenceErr(err)
	}
	if err := g.SetAttr(anchor, "rotate", math.QuatFromMat4(frame)); err != nil {
		return scene.InvalidNode, referenceErr(err)
	}
	return anchor, nil
}

// buildFKAnchor creates an anchor parented into the FK control chain, at
// the control whose span covers the CV index.
func (b *Builder) buildFKAnchor(fkControls []scene.NodeID, cvPos math.Vec3, cvIndex, cvCount int, name string) (scene.NodeID, error) {
	g := b.g
	if len(fkControls) == 0 {
		return scene.InvalidNode, fmt.Errorf("fk anchor %s: no fk controls: %w", name, ErrReferenceMissing)
	}

	idx := cvIndex * (len(fkControls) - 1) / (cvCount - 1)
	host := fkControls[idx]

	anchor := g.CreateTransform(name)
	if err := g.SetParent(anchor, host); err != nil {
		return scene.InvalidNode, referenceErr(err)
	}
	hostWorld, err := g.WorldTransform(host)
	if err != nil {
		return scene.InvalidNode, referenceErr(err)
	}
	local := hostWorld.Inverse().TransformPoint(cvPos)
	if err := g.SetAttr(anchor, "translate", local); err != nil {
		return scene.InvalidNode, referenceErr(err)
	}
	return anchor, nil
}

// wireEndCVs drives the first and last control vertices of an open curve
// directly from the chain's end bind joints; they have no neighboring
// anchor pair to interpolate between.
func (b *Builder) wireEndCVs(chain *ChainHandle) error {
	g := b.g
	if len(chain.BindJoints) < 2 {
		return fmt.Errorf("end CVs: bind chain absent: %w", ErrReferenceMissing)
	}
	cvCount, err := g.CurveCVCount(chain.Curve)
	if err != nil {
		return referenceErr(err)
	}

	ends := map[int]scene.NodeID{
		0:           chain.BindJoints[0],
		cvCount - 1: chain.BindJoints[len(chain.BindJoints)-1],
	}
	for cv, joint := range ends {
		src, err := g.Attr(joint, "worldPosition")
		if err != nil {
			return referenceErr(err)
		}
		dst, err := g.CurveCV(chain.Curve, cv)
		if err != nil {
			return referenceErr(err)
		}
		if err := g.Connect(src, dst); err != nil {
			return referenceErr(err)
		}
	}
	return nil
}
