// Package spline implements B-spline curve evaluation for rig construction.
//
// Curves are uniform B-splines of degree 1 to 3, either open (clamped knots)
// or closed (periodic, wrapped control points). The normalized parameter
// domain is [0, 1] in both cases.
package spline

import (
	"errors"
	"fmt"

	"github.com/Faultbox/splinerig/pkg/math"
)

// Evaluation step used for finite-difference tangents.
const tangentStep = 1e-6

var (
	// ErrDegree is returned for degrees outside 1..3.
	ErrDegree = errors.New("spline: degree must be 1, 2 or 3")
	// ErrTooFewPoints is returned when the control polygon cannot support the degree.
	ErrTooFewPoints = errors.New("spline: not enough control points")
)

// Curve is an immutable B-spline curve.
type Curve struct {
	degree int
	points []math.Vec3
	closed bool
	knots  []float64
}

// New creates a curve from ordered control points.
// Open curves need at least degree+1 points, closed curves at least 3.
func New(points []math.Vec3, degree int, closed bool) (*Curve, error) {
	if degree < 1 || degree > 3 {
		return nil, fmt.Errorf("degree %d: %w", degree, ErrDegree)
	}
	minPoints := degree + 1
	if closed {
		minPoints = 3
	}
	if len(points) < minPoints {
		return nil, fmt.Errorf("%d points for degree %d: %w", len(points), degree, ErrTooFewPoints)
	}

	c := &Curve{
		degree: degree,
		points: append([]math.Vec3(nil), points...),
		closed: closed,
	}
	c.knots = c.buildKnots()
	return c, nil
}

// Degree returns the curve degree.
func (c *Curve) Degree() int { return c.degree }

// Closed reports whether the curve is periodic.
func (c *Curve) Closed() bool { return c.closed }

// Points returns a copy of the control points.
func (c *Curve) Points() []math.Vec3 {
	return append([]math.Vec3(nil), c.points...)
}

// NumPoints returns the control point count.
func (c *Curve) NumPoints() int { return len(c.points) }

// controlPoint returns control point i, wrapping for closed curves.
func (c *Curve) controlPoint(i int) math.Vec3 {
	if c.closed {
		return c.points[i%len(c.points)]
	}
	return c.points[i]
}

// effectiveCount is the control point count after periodic wrapping.
func (c *Curve) effectiveCount() int {
	if c.closed {
		return len(c.points) + c.degree
	}
	return len(c.points)
}

// buildKnots constructs the knot vector: clamped uniform for open curves,
// plain uniform for closed ones.
func (c *Curve) buildKnots() []float64 {
	n := c.effectiveCount()
	p := c.degree
	m := n + p + 1
	knots := make([]float64, m)

	if c.closed {
		for i := range knots {
			knots[i] = float64(i)
		}
		return knots
	}

	// Clamped: p+1 copies at each end, uniform interior.
	interior := n - p - 1
	for i := 0; i <= p; i++ {
		knots[i] = 0
		knots[m-1-i] = float64(interior + 1)
	}
	for i := 1; i <= interior; i++ {
		knots[p+i] = float64(i)
	}
	return knots
}

// domain returns the valid knot interval [lo, hi] for evaluation.
func (c *Curve) domain() (float64, float64) {
	p := c.degree
	n := c.effectiveCount()
	return c.knots[p], c.knots[n]
}

// denormalize maps u in [0,1] to the knot domain, clamping out-of-range input.
func (c *Curve) denormalize(u float64) float64 {
	if u < 0 {
		u = 0
	}
	if c.closed {
		// Periodic wrap.
		u = u - float64(int(u))
	} else if u > 1 {
		u = 1
	}
	lo, hi := c.domain()
	return lo + u*(hi-lo)
}

// findSpan locates k such that knots[k] <= t < knots[k+1].
func (c *Curve) findSpan(t float64) int {
	p := c.degree
	n := c.effectiveCount()
	if t >= c.knots[n] {
		return n - 1
	}
	lo, hi := p, n
	for lo+1 < hi {
		mid := (lo + hi) / 2
		if t < c.knots[mid] {
			hi = mid
		} else {
			lo = mid
		}
	}
	return lo
}

// PointAt evaluates the curve at normalized parameter u via de Boor's algorithm.
func (c *Curve) PointAt(u float64) math.Vec3 {
	t := c.denormalize(u)
	p := c.degree
	k := c.findSpan(t)

	d := make([]math.Vec3, p+1)
	for j := 0; j <= p; j++ {
		d[j] = c.controlPoint(j + k - p)
	}

	for r := 1; r <= p; r++ {
		for j := p; j >= r; j-- {
			lo := c.knots[j+k-p]
			hi := c.knots[j+1+k-r]
			alpha := 0.0
			if hi != lo {
				alpha = (t - lo) / (hi - lo)
			}
			d[j] = d[j-1].Lerp(d[j], alpha)
		}
	}
	return d[p]
}

// TangentAt returns the normalized tangent at u, estimated by central
// differences (one-sided at the ends of an open curve).
func (c *Curve) TangentAt(u float64) math.Vec3 {
	lo, hi := u-tangentStep, u+tangentStep
	if !c.closed {
		if lo < 0 {
			lo = 0
		}
		if hi > 1 {
			hi = 1
		}
	}
	return c.PointAt(hi).Sub(c.PointAt(lo)).Normalize()
}

// ClosestParam returns the normalized parameter of the point on the curve
// nearest to p. A coarse scan over the given sample count is refined by
// ternary search inside the best bracket.
func (c *Curve) ClosestParam(p math.Vec3, scanSamples int) float64 {
	if scanSamples < 2 {
		scanSamples = 2
	}

	best := 0
	bestDist := c.PointAt(0).Distance(p)
	for i := 1; i <= scanSamples; i++ {
		u := float64(i) / float64(scanSamples)
		if d := c.PointAt(u).Distance(p); d < bestDist {
			bestDist = d
			best = i
		}
	}

	lo := float64(best-1) / float64(scanSamples)
	hi := float64(best+1) / float64(scanSamples)
	if lo < 0 {
		lo = 0
	}
	if hi > 1 {
		hi = 1
	}

	for i := 0; i < 48; i++ {
		m1 := lo + (hi-lo)/3
		m2 := hi - (hi-lo)/3
		if c.PointAt(m1).Distance(p) < c.PointAt(m2).Distance(p) {
			hi = m2
		} else {
			lo = m1
		}
	}
	return (lo + hi) / 2
}
