// Package rig builds spline-driven articulated deformation rigs: sampled
// joint chains, a twist-stabilizing offset curve, an arc-length stretch
// network, an IK/FK blend network and per-CV anchor controls, all constructed
// into a scene graph as one atomic transaction.
package rig

import "errors"

var (
	// ErrInvalidCurve marks a degenerate input curve (zero arc length or
	// too few control vertices).
	ErrInvalidCurve = errors.New("rig: invalid curve")
	// ErrInvalidChain marks a chain request with fewer than 2 joints/samples.
	ErrInvalidChain = errors.New("rig: invalid chain")
	// ErrOffsetDegenerate marks a failed offset-curve construction. It is
	// recovered locally by substituting the fixed-normal fallback curve and
	// never aborts a build.
	ErrOffsetDegenerate = errors.New("rig: offset curve construction degenerate")
	// ErrReferenceMissing marks an absent upstream node, which indicates a
	// construction-ordering violation. Always fatal to the transaction.
	ErrReferenceMissing = errors.New("rig: expected upstream node missing")
	// ErrConstraintWiringMismatch marks a weight-alias list that does not
	// match the expected driver count.
	ErrConstraintWiringMismatch = errors.New("rig: constraint weight aliases do not match drivers")
)
