package rig

import (
	"fmt"

	"github.com/Faultbox/splinerig/internal/scene"
)

// Minimum control vertex count for a sampleable curve.
const minCurveCVs = 2

// SampleCurve places count samples along the curve at equal arc-length
// spacing. Open curves include both endpoints (step = length/(count-1));
// periodic curves distribute count samples without duplicating the seam
// (step = length/count).
//
// Positions come from converting arc-length distances back to parameters,
// not from uniform parameter spacing: parameter spacing is not proportional
// to physical distance on non-uniform curves and would bunch the joints.
func SampleCurve(g *scene.Graph, curve scene.CurveID, count int) ([]CurveSample, error) {
	if count < 2 {
		return nil, fmt.Errorf("sample count %d: %w", count, ErrInvalidChain)
	}

	cvs, err := g.CurveCVCount(curve)
	if err != nil {
		return nil, fmt.Errorf("sampling: %w", referenceErr(err))
	}
	if cvs < minCurveCVs {
		return nil, fmt.Errorf("curve has %d control vertices: %w", cvs, ErrInvalidCurve)
	}

	length, err := g.CurveArcLength(curve)
	if err != nil {
		return nil, fmt.Errorf("sampling: %w", referenceErr(err))
	}
	if length <= 0 {
		return nil, fmt.Errorf("curve arc length %v: %w", length, ErrInvalidCurve)
	}

	closed, err := g.CurveClosed(curve)
	if err != nil {
		return nil, fmt.Errorf("sampling: %w", referenceErr(err))
	}

	step := length / float64(count-1)
	if closed {
		step = length / float64(count)
	}

	samples := make([]CurveSample, count)
	for i := range samples {
		dist := float64(i) * step
		u, err := g.CurveParamFromLength(curve, dist)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, referenceErr(err))
		}
		pos, err := g.CurvePointAtParam(curve, u)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, referenceErr(err))
		}
		tan, err := g.CurveTangentAtParam(curve, u)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, referenceErr(err))
		}
		samples[i] = CurveSample{Param: u, Position: pos, Tangent: tan}
	}
	return samples, nil
}

// referenceErr maps scene lookup failures onto the builder's taxonomy: a
// missing node mid-build is an ordering violation.
func referenceErr(err error) error {
	return fmt.Errorf("%w: %v", ErrReferenceMissing, err)
}
