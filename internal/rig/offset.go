package rig

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/splinerig/internal/scene"
	"github.com/Faultbox/splinerig/pkg/math"
)

// Sample density used when projecting the offset tube.
const offsetSamplesPerSpan = 4

// BuildOffsetCurve replaces the chain's fallback reference curve with a
// tube-projected offset curve at the given lateral distance, then re-bakes
// joint orientation against it. It returns the span count of the offset
// curve.
//
// A curve's tangent frame leaves the roll degree of freedom unresolved;
// the offset curve supplies, for every parameter on the primary curve, a
// stable lateral reference point so joint orientation does not flip at
// inflections. When the tube construction degenerates (distance within
// tolerance of zero, or unusable tangents) the fixed-normal fallback curve
// is kept instead; that case is logged and never aborts the build.
func (b *Builder) BuildOffsetCurve(chain *ChainHandle, distance, tolerance float64) (int, error) {
	spans := 0
	err := b.withTx(func() error {
		if chain == nil || len(chain.Joints) == 0 {
			return fmt.Errorf("offset curve: %w", ErrInvalidChain)
		}
		if !b.g.Exists(chain.Curve.Node()) {
			return fmt.Errorf("offset curve: primary curve gone: %w", ErrReferenceMissing)
		}

		ref, err := b.projectOffsetCurve(chain, distance, tolerance)
		if err != nil {
			// Recoverable by contract: keep the fixed-normal fallback reference
			// built by SampleAndBuildChain.
			b.log.Warn("offset curve degenerate, keeping fallback reference",
				zap.String("chain", chain.Prefix), zap.Error(err))
			ref = chain.Reference
		} else {
			chain.Reference = ref
		}

		if err := b.orientChain(chain.Joints, chain.Samples, chain.Reference); err != nil {
			return err
		}

		cvs, err := b.g.CurveCVCount(ref)
		if err != nil {
			return fmt.Errorf("offset curve: %w", referenceErr(err))
		}
		degree, err := b.g.CurveDegree(ref)
		if err != nil {
			return fmt.Errorf("offset curve: %w", referenceErr(err))
		}
		spans = cvs - degree
		return nil
	})
	if err != nil {
		return 0, err
	}
	return spans, nil
}

// projectOffsetCurve builds a tube of the given radius around the primary
// curve with rotation-minimizing frames, takes the surface point nearest to
// each sample and re-fits a curve of the same degree through those points.
func (b *Builder) projectOffsetCurve(chain *ChainHandle, distance, tolerance float64) (scene.CurveID, error) {
	if distance <= tolerance {
		return scene.CurveID(scene.InvalidNode), fmt.Errorf("offset distance %v within tolerance %v: %w", distance, tolerance, ErrOffsetDegenerate)
	}

	g := b.g
	count := offsetSamplesPerSpan*len(chain.Samples) + 1
	length, err := g.CurveArcLength(chain.Curve)
	if err != nil {
		return scene.CurveID(scene.InvalidNode), referenceErr(err)
	}
	if length <= 0 {
		return scene.CurveID(scene.InvalidNode), fmt.Errorf("zero-length primary curve: %w", ErrOffsetDegenerate)
	}

	positions := make([]math.Vec3, count)
	tangents := make([]math.Vec3, count)
	for i := 0; i < count; i++ {
		u, err := g.CurveParamFromLength(chain.Curve, length*float64(i)/float64(count-1))
		if err != nil {
			return scene.CurveID(scene.InvalidNode), referenceErr(err)
		}
		if positions[i], err = g.CurvePointAtParam(chain.Curve, u); err != nil {
			return scene.CurveID(scene.InvalidNode), referenceErr(err)
		}
		if tangents[i], err = g.CurveTangentAtParam(chain.Curve, u); err != nil {
			return scene.CurveID(scene.InvalidNode), referenceErr(err)
		}
		if tangents[i].Length() == 0 {
			return scene.CurveID(scene.InvalidNode), fmt.Errorf("zero tangent at sample %d: %w", i, ErrOffsetDegenerate)
		}
	}

	normals := rotationMinimizingNormals(positions, tangents)

	// Nearest point on a radius-r tube around the curve is the axis point
	// pushed out along its frame normal.
	offsetPts := make([]math.Vec3, count)
	for i := range offsetPts {
		offsetPts[i] = positions[i].Add(normals[i].Scale(distance))
	}

	// Re-fit through the projected points at the chain's sample density.
	fitted := make([]math.Vec3, 0, len(chain.Samples))
	for i := 0; i < len(chain.Samples); i++ {
		idx := i * (count - 1) / (len(chain.Samples) - 1)
		fitted = append(fitted, offsetPts[idx])
	}

	degree, err := g.CurveDegree(chain.Curve)
	if err != nil {
		return scene.CurveID(scene.InvalidNode), referenceErr(err)
	}
	if len(fitted) < degree+1 {
		degree = len(fitted) - 1
	}
	closed, err := g.CurveClosed(chain.Curve)
	if err != nil {
		return scene.CurveID(scene.InvalidNode), referenceErr(err)
	}

	ref, err := g.CreateCurveFromPoints(chain.Prefix+"_offsetCurve", fitted, degree, closed)
	if err != nil {
		return scene.CurveID(scene.InvalidNode), fmt.Errorf("re-fit failed: %w", ErrOffsetDegenerate)
	}
	return ref, nil
}

// buildFallbackReference offsets every control vertex of the primary curve
// by a fixed normal. It is the interchangeable degenerate-path reference:
// chain orientation consumes any curve, never the particular construction.
func (b *Builder) buildFallbackReference(curve scene.CurveID, distance float64, prefix string) (scene.CurveID, error) {
	g := b.g
	tangent, err := g.CurveTangentAtParam(curve, 0)
	if err != nil {
		return scene.CurveID(scene.InvalidNode), referenceErr(err)
	}
	normal := fixedNormal(tangent)

	points, err := curveCVPositions(g, curve)
	if err != nil {
		return scene.CurveID(scene.InvalidNode), err
	}
	for i := range points {
		points[i] = points[i].Add(normal.Scale(distance))
	}

	degree, err := g.CurveDegree(curve)
	if err != nil {
		return scene.CurveID(scene.InvalidNode), referenceErr(err)
	}
	closed, err := g.CurveClosed(curve)
	if err != nil {
		return scene.CurveID(scene.InvalidNode), referenceErr(err)
	}
	return g.CreateCurveFromPoints(prefix+"_refCurve", points, degree, closed)
}

// fixedNormal picks a unit vector perpendicular to the tangent, preferring
// world Y.
func fixedNormal(tangent math.Vec3) math.Vec3 {
	n := projectOut(math.Vec3{Y: 1}, tangent)
	if n.Length() < 1e-9 {
		n = projectOut(math.Vec3{Z: 1}, tangent)
	}
	return n.Normalize()
}

// projectOut removes from v its component along dir.
func projectOut(v, dir math.Vec3) math.Vec3 {
	d := dir.Normalize()
	return v.Sub(d.Scale(v.Dot(d)))
}

// rotationMinimizingNormals propagates an initial normal along the curve
// with the double-reflection method, yielding frames free of sudden twist.
func rotationMinimizingNormals(positions, tangents []math.Vec3) []math.Vec3 {
	normals := make([]math.Vec3, len(positions))
	normals[0] = fixedNormal(tangents[0])

	for i := 0; i+1 < len(positions); i++ {
		v1 := positions[i+1].Sub(positions[i])
		c1 := v1.Dot(v1)
		if c1 == 0 {
			normals[i+1] = normals[i]
			continue
		}
		rL := normals[i].Sub(v1.Scale(2 / c1 * v1.Dot(normals[i])))
		tL := tangents[i].Sub(v1.Scale(2 / c1 * v1.Dot(tangents[i])))
		v2 := tangents[i+1].Sub(tL)
		c2 := v2.Dot(v2)
		if c2 == 0 {
			normals[i+1] = rL.Normalize()
			continue
		}
		normals[i+1] = rL.Sub(v2.Scale(2 / c2 * v2.Dot(rL))).Normalize()
	}
	return normals
}

// curveCVPositions evaluates the current control vertex positions.
func curveCVPositions(g *scene.Graph, curve scene.CurveID) ([]math.Vec3, error) {
	count, err := g.CurveCVCount(curve)
	if err != nil {
		return nil, referenceErr(err)
	}
	points := make([]math.Vec3, count)
	for i := range points {
		h, err := g.CurveCV(curve, i)
		if err != nil {
			return nil, referenceErr(err)
		}
		v, err := g.GetVec3(h.Node, h.Name)
		if err != nil {
			return nil, referenceErr(err)
		}
		points[i] = v
	}
	return points, nil
}
