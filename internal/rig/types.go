package rig

import (
	"github.com/Faultbox/splinerig/internal/scene"
	"github.com/Faultbox/splinerig/pkg/math"
)

// CurveSample is one arc-length-spaced point on a curve. Samples are
// transient: they feed joint construction and are not persisted.
type CurveSample struct {
	Param    float64
	Position math.Vec3
	Tangent  math.Vec3
}

// Options are the tunables of one builder invocation.
type Options struct {
	// Prefix is prepended to every node name the builder creates.
	Prefix string
	// SpanCount is the number of curve spans to sample joints over.
	SpanCount int
	// OffsetDistance is the lateral distance of the reference curve.
	OffsetDistance float64
	// OffsetTolerance is the sampling tolerance for offset construction;
	// distances at or below it degenerate to the fallback path.
	OffsetTolerance float64
	// StretchDefault is the initial value of the stretch attribute (0..1).
	StretchDefault float64
	// StretchMax is the multiplier k in the stretch ceiling 1 + stretch*k.
	StretchMax float64
	// AllowCompress removes the floor clamp at rest length when true.
	AllowCompress bool
}

// DefaultOptions returns the builder defaults.
func DefaultOptions() Options {
	return Options{
		Prefix:          "rig",
		SpanCount:       5,
		OffsetDistance:  1.0,
		OffsetTolerance: 1e-4,
		StretchDefault:  1.0,
		StretchMax:      1.0,
	}
}

// ChainHandle carries the typed results of SampleAndBuildChain between
// build stages, so later stages take handles instead of re-deriving nodes
// from names.
type ChainHandle struct {
	// Curve is the rig-owned IK curve the chain was sampled from.
	Curve scene.CurveID
	// Reference is the offset curve stabilizing joint orientation. It is the
	// fixed-normal fallback until BuildOffsetCurve replaces it.
	Reference scene.CurveID
	// Joints is the IK-driven joint chain, root first.
	Joints []scene.NodeID
	// BindJoints is the deformation chain, populated by BindSkinJoints.
	BindJoints []scene.NodeID
	// RestLength is the curve arc length at build time.
	RestLength float64
	// Samples are the arc-length samples the joints were placed at.
	Samples []CurveSample
	// Prefix is the name prefix of every node in this chain.
	Prefix string
}

// StretchWiring exposes the handles of the stretch network.
type StretchWiring struct {
	// Ratio is the live/rest length division node.
	Ratio scene.NodeID
	// LiveLengthInput is the attribute a host dynamics system may drive in
	// place of the curve's own arc length output.
	LiveLengthInput scene.AttrHandle
	// StretchAttr is the user-facing stretch factor (0..1).
	StretchAttr scene.AttrHandle
	// ScaleOutput is the final per-joint scale source.
	ScaleOutput scene.AttrHandle
}

// Rig is the handle set returned by BuildRig.
type Rig struct {
	SystemGroup   scene.NodeID
	ControlGroup  scene.NodeID
	IKJoints      []scene.NodeID
	BindJoints    []scene.NodeID
	MainControl   scene.NodeID
	ExtraControls []scene.NodeID
	FKControls    []scene.NodeID
	IKAnchors     []scene.NodeID

	// Switch is the single IK/FK blend scalar (0 = FK, 1 = IK).
	Switch scene.AttrHandle
	// Stretch is the user stretch factor (0..1).
	Stretch scene.AttrHandle

	Chain      *ChainHandle
	Stretching StretchWiring
}
