package scene

import (
	"fmt"

	"github.com/Faultbox/splinerig/pkg/math"
)

// Value is an attribute value: float64, string, math.Vec3 or math.Quat.
type Value interface{}

// AttrHandle names one attribute on one node. Handles are the only currency
// for wiring connections; the builder never re-derives identity from names.
type AttrHandle struct {
	Node NodeID
	Name string
}

// attr is the storage behind a single attribute.
type attr struct {
	value    Value
	incoming *AttrHandle // source connection, nil if unconnected
	min, max *float64    // optional numeric range, enforced on set
	computed bool        // derived output; read-only, value comes from evaluation
}

func newAttr(def Value) *attr {
	return &attr{value: def}
}

func newComputedAttr() *attr {
	return &attr{computed: true}
}

// AddAttr adds a user attribute with a default value and optional numeric
// range (pass nil to leave an end open).
func (g *Graph) AddAttr(id NodeID, name string, def Value, min, max *float64) (AttrHandle, error) {
	n := g.node(id)
	if n == nil {
		return AttrHandle{}, fmt.Errorf("node %d: %w", id, ErrNodeNotFound)
	}
	if _, ok := n.attrs[name]; ok {
		return AttrHandle{}, fmt.Errorf("%s.%s: %w", n.name, name, ErrAttrExists)
	}
	a := newAttr(def)
	a.min, a.max = min, max
	n.attrs[name] = a
	return AttrHandle{Node: id, Name: name}, nil
}

// Attr returns a handle to an existing attribute.
func (g *Graph) Attr(id NodeID, name string) (AttrHandle, error) {
	n := g.node(id)
	if n == nil {
		return AttrHandle{}, fmt.Errorf("node %d: %w", id, ErrNodeNotFound)
	}
	if _, ok := n.attrs[name]; !ok {
		return AttrHandle{}, fmt.Errorf("%s.%s: %w", n.name, name, ErrAttrNotFound)
	}
	return AttrHandle{Node: id, Name: name}, nil
}

// attrOf resolves a handle to storage.
func (g *Graph) attrOf(h AttrHandle) (*node, *attr, error) {
	n := g.node(h.Node)
	if n == nil {
		return nil, nil, fmt.Errorf("node %d: %w", h.Node, ErrNodeNotFound)
	}
	a, ok := n.attrs[h.Name]
	if !ok {
		return nil, nil, fmt.Errorf("%s.%s: %w", n.name, h.Name, ErrAttrNotFound)
	}
	return n, a, nil
}

// SetAttr writes a value, clamping numeric values into the attribute's range.
func (g *Graph) SetAttr(id NodeID, name string, v Value) error {
	return g.SetAttrHandle(AttrHandle{Node: id, Name: name}, v)
}

// SetAttrHandle writes a value through a handle.
func (g *Graph) SetAttrHandle(h AttrHandle, v Value) error {
	n, a, err := g.attrOf(h)
	if err != nil {
		return err
	}
	if a.computed {
		return fmt.Errorf("%s.%s: cannot set computed output: %w", n.name, h.Name, ErrBadValue)
	}
	if !sameValueType(a.value, v) {
		return fmt.Errorf("%s.%s: set %T over %T: %w", n.name, h.Name, v, a.value, ErrBadValue)
	}
	if f, ok := v.(float64); ok {
		if a.min != nil && f < *a.min {
			f = *a.min
		}
		if a.max != nil && f > *a.max {
			f = *a.max
		}
		v = f
	}
	if g.tx != nil {
		g.tx.noteAttr(h, a.value)
	}
	a.value = v
	return nil
}

// Connect wires src into dst. Reading dst afterwards evaluates src.
func (g *Graph) Connect(src, dst AttrHandle) error {
	if _, _, err := g.attrOf(src); err != nil {
		return fmt.Errorf("connect source: %w", err)
	}
	n, a, err := g.attrOf(dst)
	if err != nil {
		return fmt.Errorf("connect destination: %w", err)
	}
	if a.computed {
		return fmt.Errorf("%s.%s: cannot connect into computed output: %w", n.name, dst.Name, ErrBadValue)
	}
	if g.tx != nil {
		g.tx.noteConnection(dst, a.incoming)
	}
	s := src
	a.incoming = &s
	return nil
}

// Disconnect removes the incoming connection of dst, if any.
func (g *Graph) Disconnect(dst AttrHandle) error {
	_, a, err := g.attrOf(dst)
	if err != nil {
		return err
	}
	if g.tx != nil {
		g.tx.noteConnection(dst, a.incoming)
	}
	a.incoming = nil
	return nil
}

// Incoming returns the source handle connected into dst, or nil.
func (g *Graph) Incoming(dst AttrHandle) *AttrHandle {
	_, a, err := g.attrOf(dst)
	if err != nil || a.incoming == nil {
		return nil
	}
	s := *a.incoming
	return &s
}

// GetAttr reads an attribute, evaluating its incoming connection chain.
func (g *Graph) GetAttr(id NodeID, name string) (Value, error) {
	return g.eval(AttrHandle{Node: id, Name: name}, map[AttrHandle]bool{})
}

// GetFloat reads a float64 attribute.
func (g *Graph) GetFloat(id NodeID, name string) (float64, error) {
	v, err := g.GetAttr(id, name)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("%s.%s: %T is not float64: %w", g.Name(id), name, v, ErrBadValue)
	}
	return f, nil
}

// GetVec3 reads a Vec3 attribute.
func (g *Graph) GetVec3(id NodeID, name string) (math.Vec3, error) {
	v, err := g.GetAttr(id, name)
	if err != nil {
		return math.Vec3{}, err
	}
	vec, ok := v.(math.Vec3)
	if !ok {
		return math.Vec3{}, fmt.Errorf("%s.%s: %T is not Vec3: %w", g.Name(id), name, v, ErrBadValue)
	}
	return vec, nil
}

// GetQuat reads a Quat attribute.
func (g *Graph) GetQuat(id NodeID, name string) (math.Quat, error) {
	v, err := g.GetAttr(id, name)
	if err != nil {
		return math.Quat{}, err
	}
	q, ok := v.(math.Quat)
	if !ok {
		return math.Quat{}, fmt.Errorf("%s.%s: %T is not Quat: %w", g.Name(id), name, v, ErrBadValue)
	}
	return q, nil
}

// sameValueType reports whether two values carry the same dynamic type.
func sameValueType(a, b Value) bool {
	switch a.(type) {
	case float64:
		_, ok := b.(float64)
		return ok
	case string:
		_, ok := b.(string)
		return ok
	case math.Vec3:
		_, ok := b.(math.Vec3)
		return ok
	case math.Quat:
		_, ok := b.(math.Quat)
		return ok
	default:
		return false
	}
}
