package scene

import (
	"fmt"

	"github.com/Faultbox/splinerig/pkg/math"
)

// ConstraintID identifies a constraint node.
type ConstraintID NodeID

// Node returns the underlying node id of a constraint.
func (c ConstraintID) Node() NodeID { return NodeID(c) }

// ConstraintKind enumerates the supported constraint types.
type ConstraintKind int

const (
	// ConstraintParent blends position and rotation from the sources.
	ConstraintParent ConstraintKind = iota
	// ConstraintPoint blends position only.
	ConstraintPoint
	// ConstraintAim orients the target's X axis at the first source. An
	// optional second source acts as the up object; otherwise the
	// constraint's upVector attribute is used.
	ConstraintAim
)

// String returns the kind name used in logs.
func (k ConstraintKind) String() string {
	switch k {
	case ConstraintParent:
		return "parent"
	case ConstraintPoint:
		return "point"
	case ConstraintAim:
		return "aim"
	default:
		return "unknown"
	}
}

// constraintState holds constraint wiring.
type constraintState struct {
	kind    ConstraintKind
	target  NodeID
	sources []NodeID
	aliases []string
}

// CreateConstraint constrains target to the given sources. weightAliases
// names the per-source weight attributes created on the constraint node and
// must match sources one-to-one.
func (g *Graph) CreateConstraint(kind ConstraintKind, target NodeID, sources []NodeID, weightAliases []string) (ConstraintID, error) {
	t := g.node(target)
	if t == nil {
		return ConstraintID(InvalidNode), fmt.Errorf("constraint target %d: %w", target, ErrNodeNotFound)
	}
	if len(sources) == 0 {
		return ConstraintID(InvalidNode), fmt.Errorf("constraint on %s: no sources: %w", t.name, ErrNodeNotFound)
	}
	for _, s := range sources {
		if g.node(s) == nil {
			return ConstraintID(InvalidNode), fmt.Errorf("constraint source %d: %w", s, ErrNodeNotFound)
		}
	}
	if len(weightAliases) != len(sources) {
		return ConstraintID(InvalidNode), fmt.Errorf("%d aliases for %d sources: %w",
			len(weightAliases), len(sources), ErrWeightAliasMismatch)
	}

	n := g.newNode(fmt.Sprintf("%s_%sConstraint", t.name, kind), KindConstraint)
	n.constraint = &constraintState{
		kind:    kind,
		target:  target,
		sources: append([]NodeID(nil), sources...),
		aliases: append([]string(nil), weightAliases...),
	}
	for _, alias := range weightAliases {
		n.attrs[alias] = newAttr(1.0)
	}
	if kind == ConstraintAim {
		n.attrs["upVector"] = newAttr(math.Vec3{Y: 1})
	}

	if g.tx != nil {
		g.tx.noteConstraintTarget(target)
	}
	t.constraints = append(t.constraints, ConstraintID(n.id))
	return ConstraintID(n.id), nil
}

// ConstraintWeight returns the handle of the weight attribute for alias.
func (g *Graph) ConstraintWeight(id ConstraintID, alias string) (AttrHandle, error) {
	n := g.node(NodeID(id))
	if n == nil || n.constraint == nil {
		return AttrHandle{}, fmt.Errorf("constraint %d: %w", id, ErrNodeNotFound)
	}
	return g.Attr(n.id, alias)
}

// constraintWeights evaluates the per-source weight attributes.
func (g *Graph) constraintWeights(cn *node, cs *constraintState, visiting map[AttrHandle]bool) ([]float64, float64, error) {
	weights := make([]float64, len(cs.sources))
	total := 0.0
	for i, alias := range cs.aliases {
		w, err := g.evalFloat(AttrHandle{Node: cn.id, Name: alias}, visiting)
		if err != nil {
			return nil, 0, err
		}
		weights[i] = w
		total += w
	}
	return weights, total, nil
}

// applyConstraint folds one constraint into the target's world matrix.
func (g *Graph) applyConstraint(cid ConstraintID, target *node, world math.Mat4, visiting map[AttrHandle]bool) (math.Mat4, error) {
	cn := g.node(NodeID(cid))
	if cn == nil || cn.constraint == nil {
		// Constraint was rolled back; leave the target untouched.
		return world, nil
	}
	cs := cn.constraint

	weights, total, err := g.constraintWeights(cn, cs, visiting)
	if err != nil {
		return math.Mat4{}, err
	}
	if total == 0 {
		return world, nil
	}

	switch cs.kind {
	case ConstraintPoint:
		pos, err := g.blendSourcePositions(cs.sources, weights, total, visiting)
		if err != nil {
			return math.Mat4{}, err
		}
		world[12], world[13], world[14] = pos.X, pos.Y, pos.Z
		return world, nil

	case ConstraintParent:
		pos, err := g.blendSourcePositions(cs.sources, weights, total, visiting)
		if err != nil {
			return math.Mat4{}, err
		}
		rot, err := g.blendSourceRotations(cs.sources, weights, visiting)
		if err != nil {
			return math.Mat4{}, err
		}
		scale := math.Scale(
			world.AxisX().Length(),
			world.AxisY().Length(),
			world.AxisZ().Length(),
		)
		return math.Translate(pos.X, pos.Y, pos.Z).Mul(rot.ToMat4()).Mul(scale), nil

	case ConstraintAim:
		targetPos := world.Translation()
		aimAt, err := g.worldPositionOf(cs.sources[0], visiting)
		if err != nil {
			return math.Mat4{}, err
		}
		up, err := g.aimUpVector(cn, cs, targetPos, visiting)
		if err != nil {
			return math.Mat4{}, err
		}
		return math.AimBasis(targetPos, aimAt, up), nil
	}
	return world, nil
}

// applyPoseConstraint is applyConstraint for the scale-free pose path: it
// blends positions and rotations through source poses only, so evaluating
// a constrained node's position never touches a scale attribute.
func (g *Graph) applyPoseConstraint(cid ConstraintID, world math.Mat4, visiting map[AttrHandle]bool) (math.Mat4, error) {
	cn := g.node(NodeID(cid))
	if cn == nil || cn.constraint == nil {
		return world, nil
	}
	cs := cn.constraint

	weights, total, err := g.constraintWeights(cn, cs, visiting)
	if err != nil {
		return math.Mat4{}, err
	}
	if total == 0 {
		return world, nil
	}

	switch cs.kind {
	case ConstraintPoint:
		pos, err := g.blendSourcePoses(cs.sources, weights, total, visiting)
		if err != nil {
			return math.Mat4{}, err
		}
		world[12], world[13], world[14] = pos.X, pos.Y, pos.Z
		return world, nil

	case ConstraintParent:
		pos, err := g.blendSourcePoses(cs.sources, weights, total, visiting)
		if err != nil {
			return math.Mat4{}, err
		}
		rot, err := g.blendSourceRotations(cs.sources, weights, visiting)
		if err != nil {
			return math.Mat4{}, err
		}
		return math.Translate(pos.X, pos.Y, pos.Z).Mul(rot.ToMat4()), nil

	case ConstraintAim:
		targetPos := world.Translation()
		aimAt, err := g.worldPositionOf(cs.sources[0], visiting)
		if err != nil {
			return math.Mat4{}, err
		}
		up, err := g.aimUpVector(cn, cs, targetPos, visiting)
		if err != nil {
			return math.Mat4{}, err
		}
		return math.AimBasis(targetPos, aimAt, up), nil
	}
	return world, nil
}

// blendSourcePositions returns the weight-normalized average of source
// world positions from the full transform path.
func (g *Graph) blendSourcePositions(sources []NodeID, weights []float64, total float64, visiting map[AttrHandle]bool) (math.Vec3, error) {
	var pos math.Vec3
	for i, src := range sources {
		if weights[i] == 0 {
			continue
		}
		w, err := g.worldTransform(src, visiting)
		if err != nil {
			return math.Vec3{}, err
		}
		pos = pos.Add(w.Translation().Scale(weights[i] / total))
	}
	return pos, nil
}

// blendSourcePoses is blendSourcePositions over the scale-free pose path.
func (g *Graph) blendSourcePoses(sources []NodeID, weights []float64, total float64, visiting map[AttrHandle]bool) (math.Vec3, error) {
	var pos math.Vec3
	for i, src := range sources {
		if weights[i] == 0 {
			continue
		}
		p, err := g.worldPositionOf(src, visiting)
		if err != nil {
			return math.Vec3{}, err
		}
		pos = pos.Add(p.Scale(weights[i] / total))
	}
	return pos, nil
}

// blendSourceRotations accumulates source rotations with incremental slerp,
// which is exact for the two-source complementary-weight case. Rotations
// come from the pose path: normalizing the axes of a scaled matrix yields
// the same rotation, and the pose path cannot cycle through joint scale.
func (g *Graph) blendSourceRotations(sources []NodeID, weights []float64, visiting map[AttrHandle]bool) (math.Quat, error) {
	acc := math.QuatIdentity()
	accWeight := 0.0
	for i, src := range sources {
		if weights[i] == 0 {
			continue
		}
		w, err := g.worldPoseOf(src, visiting)
		if err != nil {
			return math.Quat{}, err
		}
		rot := rotationOf(w)
		if accWeight == 0 {
			acc = rot
		} else {
			acc = acc.Slerp(rot, weights[i]/(accWeight+weights[i]))
		}
		accWeight += weights[i]
	}
	return acc, nil
}

// aimUpVector resolves the up reference: a second source acts as an up
// object, otherwise the static upVector attribute applies.
func (g *Graph) aimUpVector(cn *node, cs *constraintState, targetPos math.Vec3, visiting map[AttrHandle]bool) (math.Vec3, error) {
	if len(cs.sources) >= 2 {
		upObj, err := g.worldPositionOf(cs.sources[1], visiting)
		if err != nil {
			return math.Vec3{}, err
		}
		return upObj.Sub(targetPos).Normalize(), nil
	}
	return g.evalVec3(AttrHandle{Node: cn.id, Name: "upVector"}, visiting)
}
