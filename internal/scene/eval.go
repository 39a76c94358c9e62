package scene

import (
	"fmt"

	"github.com/Faultbox/splinerig/pkg/math"
)

// worldKey is the pseudo-attribute used for cycle detection on world
// transform evaluation.
const worldKey = "#world"

// eval resolves an attribute value, following connections and computing
// operator outputs. visiting guards against dependency cycles.
func (g *Graph) eval(h AttrHandle, visiting map[AttrHandle]bool) (Value, error) {
	if visiting[h] {
		return nil, fmt.Errorf("%s.%s: %w", g.Name(h.Node), h.Name, ErrCycle)
	}
	visiting[h] = true
	defer delete(visiting, h)

	n, a, err := g.attrOf(h)
	if err != nil {
		return nil, err
	}

	if a.computed {
		return g.evalComputed(n, h.Name, visiting)
	}
	if a.incoming != nil {
		return g.eval(*a.incoming, visiting)
	}
	return a.value, nil
}

// evalComputed produces the value of a computed output attribute.
func (g *Graph) evalComputed(n *node, name string, visiting map[AttrHandle]bool) (Value, error) {
	switch {
	case n.kind == KindMultiplyDivide && name == "output":
		in1, err := g.evalFloat(AttrHandle{n.id, "input1"}, visiting)
		if err != nil {
			return nil, err
		}
		in2, err := g.evalFloat(AttrHandle{n.id, "input2"}, visiting)
		if err != nil {
			return nil, err
		}
		op, _ := n.attrs["operation"].value.(string)
		if op == "divide" {
			if in2 == 0 {
				return 0.0, nil
			}
			return in1 / in2, nil
		}
		return in1 * in2, nil

	case n.kind == KindAdd && name == "output":
		in1, err := g.evalFloat(AttrHandle{n.id, "input1"}, visiting)
		if err != nil {
			return nil, err
		}
		in2, err := g.evalFloat(AttrHandle{n.id, "input2"}, visiting)
		if err != nil {
			return nil, err
		}
		return in1 + in2, nil

	case n.kind == KindClamp && name == "output":
		in, err := g.evalFloat(AttrHandle{n.id, "input"}, visiting)
		if err != nil {
			return nil, err
		}
		lo, err := g.evalFloat(AttrHandle{n.id, "min"}, visiting)
		if err != nil {
			return nil, err
		}
		hi, err := g.evalFloat(AttrHandle{n.id, "max"}, visiting)
		if err != nil {
			return nil, err
		}
		if in < lo {
			in = lo
		}
		if in > hi {
			in = hi
		}
		return in, nil

	case n.kind == KindReverse && name == "output":
		in, err := g.evalFloat(AttrHandle{n.id, "input"}, visiting)
		if err != nil {
			return nil, err
		}
		return 1 - in, nil

	case n.kind == KindCurve && name == "arcLength":
		table, err := g.curveTable(n, visiting)
		if err != nil {
			return nil, err
		}
		return table.Length(), nil

	case name == "worldPosition":
		return g.worldPositionOf(n.id, visiting)
	}
	return nil, fmt.Errorf("%s.%s: %w", n.name, name, ErrAttrNotFound)
}

// evalFloat evaluates an attribute expected to hold a float64.
func (g *Graph) evalFloat(h AttrHandle, visiting map[AttrHandle]bool) (float64, error) {
	v, err := g.eval(h, visiting)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("%s.%s: %T is not float64: %w", g.Name(h.Node), h.Name, v, ErrBadValue)
	}
	return f, nil
}

// evalVec3 evaluates an attribute expected to hold a Vec3.
func (g *Graph) evalVec3(h AttrHandle, visiting map[AttrHandle]bool) (math.Vec3, error) {
	v, err := g.eval(h, visiting)
	if err != nil {
		return math.Vec3{}, err
	}
	vec, ok := v.(math.Vec3)
	if !ok {
		return math.Vec3{}, fmt.Errorf("%s.%s: %T is not Vec3: %w", g.Name(h.Node), h.Name, v, ErrBadValue)
	}
	return vec, nil
}

// WorldTransform returns the node's world matrix, honoring parents,
// constraints and connected attributes.
func (g *Graph) WorldTransform(id NodeID) (math.Mat4, error) {
	return g.worldTransform(id, map[AttrHandle]bool{})
}

// WorldPosition returns the node's world-space position, evaluated through
// the scale-free pose path.
func (g *Graph) WorldPosition(id NodeID) (math.Vec3, error) {
	return g.worldPositionOf(id, map[AttrHandle]bool{})
}

// poseKey is the pseudo-attribute for cycle detection on pose evaluation.
const poseKey = "#worldPose"

func (g *Graph) worldPositionOf(id NodeID, visiting map[AttrHandle]bool) (math.Vec3, error) {
	w, err := g.worldPoseOf(id, visiting)
	if err != nil {
		return math.Vec3{}, err
	}
	return w.Translation(), nil
}

// worldPoseOf returns the node's translate-rotate world pose, ignoring
// scale throughout the hierarchy. The worldPosition computed attribute
// reads through this path: curve control vertices consume it, and curve
// length drives joint scale, so a scale-aware reading would feed the
// length back into itself.
func (g *Graph) worldPoseOf(id NodeID, visiting map[AttrHandle]bool) (math.Mat4, error) {
	key := AttrHandle{Node: id, Name: poseKey}
	if visiting[key] {
		return math.Mat4{}, fmt.Errorf("node %s: %w", g.Name(id), ErrCycle)
	}
	visiting[key] = true
	defer delete(visiting, key)

	n := g.node(id)
	if n == nil {
		return math.Mat4{}, fmt.Errorf("node %d: %w", id, ErrNodeNotFound)
	}

	local := math.Identity()
	if _, ok := n.attrs["translate"]; ok {
		t, err := g.evalVec3(AttrHandle{n.id, "translate"}, visiting)
		if err != nil {
			return math.Mat4{}, err
		}
		rv, err := g.eval(AttrHandle{n.id, "rotate"}, visiting)
		if err != nil {
			return math.Mat4{}, err
		}
		r, ok := rv.(math.Quat)
		if !ok {
			return math.Mat4{}, fmt.Errorf("%s.rotate: %T is not Quat: %w", n.name, rv, ErrBadValue)
		}
		local = math.Translate(t.X, t.Y, t.Z).Mul(r.ToMat4())
	}

	world := local
	if p := g.node(n.parent); p != nil {
		pw, err := g.worldPoseOf(p.id, visiting)
		if err != nil {
			return math.Mat4{}, err
		}
		world = pw.Mul(local)
	}

	var err error
	for _, cid := range n.constraints {
		world, err = g.applyPoseConstraint(cid, world, visiting)
		if err != nil {
			return math.Mat4{}, err
		}
	}
	return world, nil
}

func (g *Graph) worldTransform(id NodeID, visiting map[AttrHandle]bool) (math.Mat4, error) {
	key := AttrHandle{Node: id, Name: worldKey}
	if visiting[key] {
		return math.Mat4{}, fmt.Errorf("node %s: %w", g.Name(id), ErrCycle)
	}
	visiting[key] = true
	defer delete(visiting, key)

	n := g.node(id)
	if n == nil {
		return math.Mat4{}, fmt.Errorf("node %d: %w", id, ErrNodeNotFound)
	}

	local, err := g.localMatrix(n, visiting)
	if err != nil {
		return math.Mat4{}, err
	}

	world := local
	if p := g.node(n.parent); p != nil {
		pw, err := g.worldTransform(p.id, visiting)
		if err != nil {
			return math.Mat4{}, err
		}
		world = pw.Mul(local)
	}

	for _, cid := range n.constraints {
		world, err = g.applyConstraint(cid, n, world, visiting)
		if err != nil {
			return math.Mat4{}, err
		}
	}
	return world, nil
}

// localMatrix composes the node's TRS attributes.
func (g *Graph) localMatrix(n *node, visiting map[AttrHandle]bool) (math.Mat4, error) {
	if _, ok := n.attrs["translate"]; !ok {
		return math.Identity(), nil
	}
	t, err := g.evalVec3(AttrHandle{n.id, "translate"}, visiting)
	if err != nil {
		return math.Mat4{}, err
	}
	rv, err := g.eval(AttrHandle{n.id, "rotate"}, visiting)
	if err != nil {
		return math.Mat4{}, err
	}
	r, ok := rv.(math.Quat)
	if !ok {
		return math.Mat4{}, fmt.Errorf("%s.rotate: %T is not Quat: %w", n.name, rv, ErrBadValue)
	}
	sx, err := g.evalFloat(AttrHandle{n.id, "scaleX"}, visiting)
	if err != nil {
		return math.Mat4{}, err
	}
	sy, err := g.evalFloat(AttrHandle{n.id, "scaleY"}, visiting)
	if err != nil {
		return math.Mat4{}, err
	}
	sz, err := g.evalFloat(AttrHandle{n.id, "scaleZ"}, visiting)
	if err != nil {
		return math.Mat4{}, err
	}
	return math.Translate(t.X, t.Y, t.Z).Mul(r.ToMat4()).Mul(math.Scale(sx, sy, sz)), nil
}

// rotationOf extracts the normalized rotation of a world matrix.
func rotationOf(w math.Mat4) math.Quat {
	return math.QuatFromMat4(math.FromBasis(
		w.AxisX().Normalize(),
		w.AxisY().Normalize(),
		w.AxisZ().Normalize(),
		math.Vec3{},
	))
}
