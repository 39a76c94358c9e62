package rig

import (
	"fmt"

	"github.com/Faultbox/splinerig/internal/scene"
)

// Large stand-in ceiling used before the stretch attribute is taken into
// account; the real ceiling is connected over it.
const unclampedCeiling = 1e9

// attachStretch wires the arc-length stretch network:
//
//	ratio   = liveArcLength / restArcLength
//	floored = clamp(ratio, 1, 1 + stretch*k)   // floor skipped with AllowCompress
//	scale   = 1 + (floored - 1) * blendWeight
//
// The blend-weight gate makes stretching a no-op while FK drives the chain:
// FK poses are authored by hand and must not be rescaled behind the
// animator's back. The resulting scalar drives every joint's X scale except
// the tip, which has no following segment to stretch into.
func (b *Builder) attachStretch(chain *ChainHandle, stretchAttr, blendWeight scene.AttrHandle, prefix string) (StretchWiring, error) {
	g := b.g
	if chain == nil || len(chain.Joints) < 2 {
		return StretchWiring{}, fmt.Errorf("stretch: %w", ErrInvalidChain)
	}
	if chain.RestLength <= 0 {
		return StretchWiring{}, fmt.Errorf("stretch: rest length %v: %w", chain.RestLength, ErrInvalidCurve)
	}

	ratio := g.CreateMultiplyDivide(prefix+"_stretchRatio", "divide")
	if err := g.SetAttr(ratio, "input2", chain.RestLength); err != nil {
		return StretchWiring{}, referenceErr(err)
	}
	liveIn, err := g.Attr(ratio, "input1")
	if err != nil {
		return StretchWiring{}, referenceErr(err)
	}
	arcLen, err := g.Attr(chain.Curve.Node(), "arcLength")
	if err != nil {
		return StretchWiring{}, referenceErr(err)
	}
	if err := g.Connect(arcLen, liveIn); err != nil {
		return StretchWiring{}, referenceErr(err)
	}

	// Ceiling: 1 + stretch * k.
	ceilScale := g.CreateMultiplyDivide(prefix+"_stretchCeilScale", "multiply")
	if err := g.SetAttr(ceilScale, "input2", b.opts.StretchMax); err != nil {
		return StretchWiring{}, referenceErr(err)
	}
	ceilIn, err := g.Attr(ceilScale, "input1")
	if err != nil {
		return StretchWiring{}, referenceErr(err)
	}
	if err := g.Connect(stretchAttr, ceilIn); err != nil {
		return StretchWiring{}, referenceErr(err)
	}
	ceil := g.CreateAdd(prefix + "_stretchCeil")
	if err := g.SetAttr(ceil, "input2", 1.0); err != nil {
		return StretchWiring{}, referenceErr(err)
	}
	if err := b.connect(ceilScale, "output", ceil, "input1"); err != nil {
		return StretchWiring{}, err
	}

	floor := 1.0
	if b.opts.AllowCompress {
		floor = 0.0
	}
	clamp := g.CreateClamp(prefix+"_stretchClamp", floor, unclampedCeiling)
	if err := b.connect(ratio, "output", clamp, "input"); err != nil {
		return StretchWiring{}, err
	}
	if err := b.connect(ceil, "output", clamp, "max"); err != nil {
		return StretchWiring{}, err
	}

	// Gate by the IK blend weight: scale = 1 + (clamped - 1)*w.
	excess := g.CreateAdd(prefix + "_stretchExcess")
	if err := g.SetAttr(excess, "input2", -1.0); err != nil {
		return StretchWiring{}, referenceErr(err)
	}
	if err := b.connect(clamp, "output", excess, "input1"); err != nil {
		return StretchWiring{}, err
	}
	gated := g.CreateMultiplyDivide(prefix+"_stretchGate", "multiply")
	if err := b.connect(excess, "output", gated, "input1"); err != nil {
		return StretchWiring{}, err
	}
	gateIn, err := g.Attr(gated, "input2")
	if err != nil {
		return StretchWiring{}, referenceErr(err)
	}
	if err := g.Connect(blendWeight, gateIn); err != nil {
		return StretchWiring{}, referenceErr(err)
	}
	final := g.CreateAdd(prefix + "_stretchScale")
	if err := g.SetAttr(final, "input2", 1.0); err != nil {
		return StretchWiring{}, referenceErr(err)
	}
	if err := b.connect(gated, "output", final, "input1"); err != nil {
		return StretchWiring{}, err
	}

	scaleOut, err := g.Attr(final, "output")
	if err != nil {
		return StretchWiring{}, referenceErr(err)
	}
	// Tip joint excluded.
	for _, j := range chain.Joints[:len(chain.Joints)-1] {
		dst, err := g.Attr(j, "scaleX")
		if err != nil {
			return StretchWiring{}, referenceErr(err)
		}
		if err := g.Connect(scaleOut, dst); err != nil {
			return StretchWiring{}, referenceErr(err)
		}
	}

	return StretchWiring{
		Ratio:           ratio,
		LiveLengthInput: liveIn,
		StretchAttr:     stretchAttr,
		ScaleOutput:     scaleOut,
	}, nil
}

// connect wires srcNode.srcAttr into dstNode.dstAttr.
func (b *Builder) connect(srcNode scene.NodeID, srcAttr string, dstNode scene.NodeID, dstAttr string) error {
	src, err := b.g.Attr(srcNode, srcAttr)
	if err != nil {
		return referenceErr(err)
	}
	dst, err := b.g.Attr(dstNode, dstAttr)
	if err != nil {
		return referenceErr(err)
	}
	if err := b.g.Connect(src, dst); err != nil {
		return referenceErr(err)
	}
	return nil
}
