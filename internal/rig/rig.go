package rig

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/splinerig/internal/scene"
)

// Builder constructs rigs into one scene graph. Node identity is carried in
// typed handles scoped to the graph; there is no cross-invocation naming
// state.
type Builder struct {
	g    *scene.Graph
	opts Options
	log  *zap.Logger

	// injectFault, when set, is called between build stages; a non-nil
	// return aborts the build. Used by rollback tests.
	injectFault func(stage string) error
}

// NewBuilder returns a builder over g. A nil logger disables logging.
func NewBuilder(g *scene.Graph, opts Options, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{g: g, opts: opts, log: log}
}

// withTx runs fn inside the open transaction, or wraps it in its own:
// commit on success, roll back everything on failure. The caller always
// sees either a fully built result or an untouched graph.
func (b *Builder) withTx(fn func() error) error {
	if b.g.InTransaction() {
		return fn()
	}
	tx, err := b.g.Begin()
	if err != nil {
		return err
	}
	if err := fn(); err != nil {
		tx.Rollback()
		return err
	}
	tx.Commit()
	return nil
}

// SampleAndBuildChain samples the source curve over spanCount spans and
// builds the IK joint chain: a rig-owned copy of the curve, a fixed-normal
// reference curve, and arc-length-spaced joints oriented against that
// reference. An open curve with n spans yields n+1 joints; a periodic curve
// yields n.
func (b *Builder) SampleAndBuildChain(curve scene.CurveID, spanCount int, prefix string) (*ChainHandle, error) {
	var chain *ChainHandle
	err := b.withTx(func() error {
		if spanCount < 1 {
			return fmt.Errorf("span count %d: %w", spanCount, ErrInvalidChain)
		}
		closed, err := b.g.CurveClosed(curve)
		if err != nil {
			return fmt.Errorf("source curve: %w", referenceErr(err))
		}
		count := spanCount + 1
		if closed {
			count = spanCount
		}

		samples, err := SampleCurve(b.g, curve, count)
		if err != nil {
			return err
		}

		points, err := curveCVPositions(b.g, curve)
		if err != nil {
			return err
		}
		degree, err := b.g.CurveDegree(curve)
		if err != nil {
			return referenceErr(err)
		}
		ikCurve, err := b.g.CreateCurveFromPoints(prefix+"_ikCurve", points, degree, closed)
		if err != nil {
			return fmt.Errorf("ik curve: %w", ErrInvalidCurve)
		}

		ref, err := b.buildFallbackReference(ikCurve, b.opts.OffsetDistance, prefix)
		if err != nil {
			return err
		}

		joints, err := b.buildJointChain(samples, ref, prefix+"_ik", scene.InvalidNode)
		if err != nil {
			return err
		}

		rest, err := b.g.CurveArcLength(ikCurve)
		if err != nil {
			return referenceErr(err)
		}

		chain = &ChainHandle{
			Curve:      ikCurve,
			Reference:  ref,
			Joints:     joints,
			RestLength: rest,
			Samples:    samples,
			Prefix:     prefix,
		}
		b.log.Debug("chain built",
			zap.String("prefix", prefix),
			zap.Int("joints", len(joints)),
			zap.Float64("restLength", rest))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chain, nil
}

// BindSkinJoints duplicates the IK chain as the bind (deformation) chain,
// optionally parented under parent, and records it on the handle.
func (b *Builder) BindSkinJoints(chain *ChainHandle, parent scene.NodeID) ([]scene.NodeID, error) {
	var bound []scene.NodeID
	err := b.withTx(func() error {
		if chain == nil || len(chain.Joints) < 2 {
			return fmt.Errorf("bind joints: %w", ErrInvalidChain)
		}
		var err error
		bound, err = b.duplicateChain(chain.Joints, chain.Prefix+"_bind", parent)
		if err != nil {
			return err
		}
		chain.BindJoints = bound
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bound, nil
}

// BuildRig assembles the full rig over a sampled chain: groups, the main
// control with the switch and stretch attributes, the FK chain and
// controls, the IK/FK blend, the stretch network and the anchor network.
// The entire assembly is one transaction; any failure rolls back every node
// created by this invocation, including the chain stages run inside it.
func (b *Builder) BuildRig(chain *ChainHandle) (*Rig, error) {
	var rig *Rig
	err := b.withTx(func() error {
		if chain == nil || len(chain.Joints) < 2 {
			return fmt.Errorf("build rig: %w", ErrInvalidChain)
		}
		for _, j := range chain.Joints {
			if !b.g.Exists(j) {
				return fmt.Errorf("build rig: chain joint gone: %w", ErrReferenceMissing)
			}
		}
		g := b.g
		prefix := chain.Prefix

		systemGroup := g.CreateTransform(prefix + "_system")
		controlGroup := g.CreateTransform(prefix + "_controls")
		if err := g.SetParent(chain.Joints[0], systemGroup); err != nil {
			return referenceErr(err)
		}

		mainControl := g.CreateTransform(prefix + "_mainCtl")
		if err := g.SetParent(mainControl, controlGroup); err != nil {
			return referenceErr(err)
		}
		lo, hi := 0.0, 1.0
		switchAttr, err := g.AddAttr(mainControl, "ikFkSwitch", 1.0, &lo, &hi)
		if err != nil {
			return referenceErr(err)
		}
		stretchAttr, err := g.AddAttr(mainControl, "stretch", b.opts.StretchDefault, &lo, &hi)
		if err != nil {
			return referenceErr(err)
		}

		if err := b.stage("groups"); err != nil {
			return err
		}

		if len(chain.BindJoints) == 0 {
			if _, err := b.BindSkinJoints(chain, systemGroup); err != nil {
				return err
			}
		}

		fkJoints, err := b.duplicateChain(chain.Joints, prefix+"_fk", systemGroup)
		if err != nil {
			return err
		}
		if err := b.stage("chains"); err != nil {
			return err
		}

		blendNet, err := b.buildBlendNetwork(chain.BindJoints, chain.Joints, fkJoints, switchAttr, prefix, mainControl)
		if err != nil {
			return err
		}
		if err := b.stage("blend"); err != nil {
			return err
		}

		stretch, err := b.attachStretch(chain, stretchAttr, switchAttr, prefix)
		if err != nil {
			return err
		}
		// Bind joints carry the same scale so the deformation chain matches
		// its IK counterpart while stretched; the tip stays excluded.
		scaleOut := stretch.ScaleOutput
		for _, j := range chain.BindJoints[:len(chain.BindJoints)-1] {
			dst, err := g.Attr(j, "scaleX")
			if err != nil {
				return referenceErr(err)
			}
			if err := g.Connect(scaleOut, dst); err != nil {
				return referenceErr(err)
			}
		}
		if err := b.stage("stretch"); err != nil {
			return err
		}

		anchors, err := b.buildAnchors(chain, blendNet, switchAttr, controlGroup, systemGroup, prefix)
		if err != nil {
			return err
		}
		if err := b.stage("anchors"); err != nil {
			return err
		}

		rig = &Rig{
			SystemGroup:   systemGroup,
			ControlGroup:  controlGroup,
			IKJoints:      chain.Joints,
			BindJoints:    chain.BindJoints,
			MainControl:   mainControl,
			ExtraControls: anchors.Blended,
			FKControls:    blendNet.FKControls,
			IKAnchors:     anchors.IKAnchors,
			Switch:        switchAttr,
			Stretch:       stretchAttr,
			Chain:         chain,
			Stretching:    stretch,
		}
		b.log.Info("rig built",
			zap.String("prefix", prefix),
			zap.Int("ikJoints", len(rig.IKJoints)),
			zap.Int("bindJoints", len(rig.BindJoints)),
			zap.Int("fkControls", len(rig.FKControls)),
			zap.Int("ikAnchors", len(rig.IKAnchors)),
			zap.Int("nodes", g.NumLive()))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rig, nil
}

// stage runs the fault-injection hook between build stages.
func (b *Builder) stage(name string) error {
	if b.injectFault == nil {
		return nil
	}
	if err := b.injectFault(name); err != nil {
		return fmt.Errorf("stage %s: %w", name, err)
	}
	return nil
}
