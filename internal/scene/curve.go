package scene

import (
	"fmt"

	"github.com/Faultbox/splinerig/pkg/math"
	"github.com/Faultbox/splinerig/pkg/spline"
)

// CurveID identifies a curve node. It is a distinct type so curve queries
// cannot be handed an arbitrary node id by mistake.
type CurveID NodeID

// Node returns the underlying node id of a curve.
func (c CurveID) Node() NodeID { return NodeID(c) }

// curveState holds the static shape of a curve node. CV positions live in
// attributes (cv0, cv1, ...) so connections can drive them.
type curveState struct {
	degree  int
	closed  bool
	cvCount int
}

// CreateCurveFromPoints creates a curve node of the given degree through the
// given control vertices. Degree and point-count validation follows
// pkg/spline's rules.
func (g *Graph) CreateCurveFromPoints(name string, points []math.Vec3, degree int, closed bool) (CurveID, error) {
	// Validate up front so a bad curve creates no node at all.
	if _, err := spline.New(points, degree, closed); err != nil {
		return CurveID(InvalidNode), err
	}

	n := g.newNode(name, KindCurve)
	n.curve = &curveState{degree: degree, closed: closed, cvCount: len(points)}
	for i, p := range points {
		n.attrs[cvAttrName(i)] = newAttr(p)
	}
	n.attrs["arcLength"] = newComputedAttr()
	return CurveID(n.id), nil
}

// cvAttrName is the attribute name of control vertex i.
func cvAttrName(i int) string {
	return fmt.Sprintf("cv%d", i)
}

// CurveCV returns the attribute handle of control vertex i.
func (g *Graph) CurveCV(id CurveID, i int) (AttrHandle, error) {
	n, err := g.curveNode(id)
	if err != nil {
		return AttrHandle{}, err
	}
	if i < 0 || i >= n.curve.cvCount {
		return AttrHandle{}, fmt.Errorf("cv %d of %d: %w", i, n.curve.cvCount, ErrAttrNotFound)
	}
	return AttrHandle{Node: n.id, Name: cvAttrName(i)}, nil
}

// CurveCVCount returns the number of control vertices.
func (g *Graph) CurveCVCount(id CurveID) (int, error) {
	n, err := g.curveNode(id)
	if err != nil {
		return 0, err
	}
	return n.curve.cvCount, nil
}

// CurveDegree returns the curve degree.
func (g *Graph) CurveDegree(id CurveID) (int, error) {
	n, err := g.curveNode(id)
	if err != nil {
		return 0, err
	}
	return n.curve.degree, nil
}

// CurveClosed reports whether the curve is periodic.
func (g *Graph) CurveClosed(id CurveID) (bool, error) {
	n, err := g.curveNode(id)
	if err != nil {
		return false, err
	}
	return n.curve.closed, nil
}

// CurveArcLength returns the curve's current arc length, evaluating any
// connections driving its control vertices.
func (g *Graph) CurveArcLength(id CurveID) (float64, error) {
	n, err := g.curveNode(id)
	if err != nil {
		return 0, err
	}
	table, err := g.curveTable(n, map[AttrHandle]bool{})
	if err != nil {
		return 0, err
	}
	return table.Length(), nil
}

// CurveParamFromLength converts an arc-length distance to a curve parameter.
func (g *Graph) CurveParamFromLength(id CurveID, length float64) (float64, error) {
	n, err := g.curveNode(id)
	if err != nil {
		return 0, err
	}
	table, err := g.curveTable(n, map[AttrHandle]bool{})
	if err != nil {
		return 0, err
	}
	return table.ParamAtLength(length), nil
}

// CurvePointAtParam evaluates the curve position at a normalized parameter.
func (g *Graph) CurvePointAtParam(id CurveID, u float64) (math.Vec3, error) {
	c, err := g.curveGeometry(id)
	if err != nil {
		return math.Vec3{}, err
	}
	return c.PointAt(u), nil
}

// CurveTangentAtParam evaluates the normalized curve tangent at a parameter.
func (g *Graph) CurveTangentAtParam(id CurveID, u float64) (math.Vec3, error) {
	c, err := g.curveGeometry(id)
	if err != nil {
		return math.Vec3{}, err
	}
	return c.TangentAt(u), nil
}

// CurveClosestParam returns the parameter of the curve point nearest to p.
func (g *Graph) CurveClosestParam(id CurveID, p math.Vec3) (float64, error) {
	c, err := g.curveGeometry(id)
	if err != nil {
		return 0, err
	}
	return c.ClosestParam(p, 128), nil
}

// curveNode resolves a curve id with kind checking.
func (g *Graph) curveNode(id CurveID) (*node, error) {
	n := g.node(NodeID(id))
	if n == nil {
		return nil, fmt.Errorf("curve %d: %w", id, ErrNodeNotFound)
	}
	if n.kind != KindCurve || n.curve == nil {
		return nil, fmt.Errorf("node %s: %w", n.name, ErrNotACurve)
	}
	return n, nil
}

// curveGeometry rebuilds the spline from the current (possibly connected)
// CV attribute values.
func (g *Graph) curveGeometry(id CurveID) (*spline.Curve, error) {
	n, err := g.curveNode(id)
	if err != nil {
		return nil, err
	}
	return g.curveGeometryOf(n, map[AttrHandle]bool{})
}

func (g *Graph) curveGeometryOf(n *node, visiting map[AttrHandle]bool) (*spline.Curve, error) {
	points := make([]math.Vec3, n.curve.cvCount)
	for i := range points {
		p, err := g.evalVec3(AttrHandle{Node: n.id, Name: cvAttrName(i)}, visiting)
		if err != nil {
			return nil, err
		}
		points[i] = p
	}
	return spline.New(points, n.curve.degree, n.curve.closed)
}

// curveTable builds the arc-length table for the curve's current geometry.
func (g *Graph) curveTable(n *node, visiting map[AttrHandle]bool) (spline.ArcTable, error) {
	c, err := g.curveGeometryOf(n, visiting)
	if err != nil {
		return spline.ArcTable{}, err
	}
	return c.ArcTable(spline.DefaultArcResolution), nil
}
