// Package scene provides the in-memory scene graph the rig builder constructs
// into: transforms, joints, curves, math operator nodes and constraints, with
// typed ids, attribute connections and savepoint transactions.
package scene

import (
	"fmt"

	"github.com/Faultbox/splinerig/pkg/math"
)

// NodeID identifies a node in the graph. Ids are arena indices scoped to one
// graph instance and are never reused within it.
type NodeID int

// InvalidNode marks "no node" (for example, the parent of a root).
const InvalidNode NodeID = -1

// Kind enumerates node types.
type Kind int

const (
	KindTransform Kind = iota
	KindJoint
	KindCurve
	KindMultiplyDivide
	KindAdd
	KindClamp
	KindReverse
	KindConstraint
)

// String returns the kind name used in logs and summaries.
func (k Kind) String() string {
	switch k {
	case KindTransform:
		return "transform"
	case KindJoint:
		return "joint"
	case KindCurve:
		return "curve"
	case KindMultiplyDivide:
		return "multiplyDivide"
	case KindAdd:
		return "add"
	case KindClamp:
		return "clamp"
	case KindReverse:
		return "reverse"
	case KindConstraint:
		return "constraint"
	default:
		return "unknown"
	}
}

// node is the arena entry behind every id.
type node struct {
	id       NodeID
	name     string
	kind     Kind
	parent   NodeID
	children []NodeID
	attrs    map[string]*attr
	deleted  bool

	curve       *curveState
	constraint  *constraintState
	constraints []ConstraintID // constraints targeting this node
}

// Graph is an in-memory scene graph. It is not safe for concurrent use;
// construction is single-threaded by design.
type Graph struct {
	nodes []*node
	tx    *Tx
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// node resolves an id, returning nil for invalid or deleted nodes.
func (g *Graph) node(id NodeID) *node {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil
	}
	n := g.nodes[id]
	if n.deleted {
		return nil
	}
	return n
}

// Exists reports whether id refers to a live node.
func (g *Graph) Exists(id NodeID) bool {
	return g.node(id) != nil
}

// Name returns the node name, or "" for a dead id.
func (g *Graph) Name(id NodeID) string {
	n := g.node(id)
	if n == nil {
		return ""
	}
	return n.name
}

// Find returns the first live node with the given name.
func (g *Graph) Find(name string) (NodeID, bool) {
	for _, n := range g.nodes {
		if !n.deleted && n.name == name {
			return n.id, true
		}
	}
	return InvalidNode, false
}

// KindOf returns the node kind, or -1 for a dead id.
func (g *Graph) KindOf(id NodeID) Kind {
	n := g.node(id)
	if n == nil {
		return -1
	}
	return n.kind
}

// NumLive returns the number of live nodes, used by rollback tests and the
// rigtool summary.
func (g *Graph) NumLive() int {
	count := 0
	for _, n := range g.nodes {
		if !n.deleted {
			count++
		}
	}
	return count
}

// newNode appends a node to the arena and records it in the open transaction.
func (g *Graph) newNode(name string, kind Kind) *node {
	n := &node{
		id:     NodeID(len(g.nodes)),
		name:   name,
		kind:   kind,
		parent: InvalidNode,
		attrs:  map[string]*attr{},
	}
	g.nodes = append(g.nodes, n)
	if g.tx != nil {
		g.tx.created = append(g.tx.created, n.id)
	}
	return n
}

// CreateTransform creates a transform node with standard TRS attributes.
func (g *Graph) CreateTransform(name string) NodeID {
	n := g.newNode(name, KindTransform)
	addTransformAttrs(n)
	return n.id
}

// CreateJoint creates a joint node, optionally parented.
// Pass InvalidNode for a root joint.
func (g *Graph) CreateJoint(name string, parent NodeID) (NodeID, error) {
	if parent != InvalidNode && g.node(parent) == nil {
		return InvalidNode, fmt.Errorf("joint %q parent %d: %w", name, parent, ErrNodeNotFound)
	}
	n := g.newNode(name, KindJoint)
	addTransformAttrs(n)
	if parent != InvalidNode {
		if err := g.SetParent(n.id, parent); err != nil {
			return InvalidNode, err
		}
	}
	return n.id, nil
}

// SetParent re-parents child under parent (InvalidNode to unparent).
func (g *Graph) SetParent(child, parent NodeID) error {
	c := g.node(child)
	if c == nil {
		return fmt.Errorf("child %d: %w", child, ErrNodeNotFound)
	}
	var p *node
	if parent != InvalidNode {
		p = g.node(parent)
		if p == nil {
			return fmt.Errorf("parent %d: %w", parent, ErrNodeNotFound)
		}
	}
	if g.tx != nil {
		g.tx.noteParent(child, c.parent)
	}
	if old := g.node(c.parent); old != nil {
		old.children = removeID(old.children, child)
	}
	c.parent = parent
	if p != nil {
		p.children = append(p.children, child)
	}
	return nil
}

// Parent returns the parent id of a node (InvalidNode for roots).
func (g *Graph) Parent(id NodeID) NodeID {
	n := g.node(id)
	if n == nil {
		return InvalidNode
	}
	return n.parent
}

// Children returns a copy of the child id list.
func (g *Graph) Children(id NodeID) []NodeID {
	n := g.node(id)
	if n == nil {
		return nil
	}
	return append([]NodeID(nil), n.children...)
}

// CreateMultiplyDivide creates a math node computing output = input1 op input2.
// op is "multiply" or "divide".
func (g *Graph) CreateMultiplyDivide(name, op string) NodeID {
	n := g.newNode(name, KindMultiplyDivide)
	n.attrs["input1"] = newAttr(0.0)
	n.attrs["input2"] = newAttr(1.0)
	n.attrs["operation"] = newAttr(op)
	n.attrs["output"] = newComputedAttr()
	return n.id
}

// CreateAdd creates a math node computing output = input1 + input2.
func (g *Graph) CreateAdd(name string) NodeID {
	n := g.newNode(name, KindAdd)
	n.attrs["input1"] = newAttr(0.0)
	n.attrs["input2"] = newAttr(0.0)
	n.attrs["output"] = newComputedAttr()
	return n.id
}

// CreateClamp creates a math node clamping input to [min, max].
func (g *Graph) CreateClamp(name string, min, max float64) NodeID {
	n := g.newNode(name, KindClamp)
	n.attrs["input"] = newAttr(0.0)
	n.attrs["min"] = newAttr(min)
	n.attrs["max"] = newAttr(max)
	n.attrs["output"] = newComputedAttr()
	return n.id
}

// CreateReverse creates a math node computing output = 1 - input.
func (g *Graph) CreateReverse(name string) NodeID {
	n := g.newNode(name, KindReverse)
	n.attrs["input"] = newAttr(0.0)
	n.attrs["output"] = newComputedAttr()
	return n.id
}

// addTransformAttrs installs the standard transform attribute set.
func addTransformAttrs(n *node) {
	n.attrs["translate"] = newAttr(math.Vec3{})
	n.attrs["rotate"] = newAttr(math.QuatIdentity())
	n.attrs["scaleX"] = newAttr(1.0)
	n.attrs["scaleY"] = newAttr(1.0)
	n.attrs["scaleZ"] = newAttr(1.0)
	n.attrs["visibility"] = newAttr(1.0)
	n.attrs["worldPosition"] = newComputedAttr()
}

// removeID removes the first occurrence of id from ids.
func removeID(ids []NodeID, id NodeID) []NodeID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
