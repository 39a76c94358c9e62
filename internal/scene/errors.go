package scene

import "errors"

var (
	// ErrNodeNotFound is returned when an id does not refer to a live node.
	ErrNodeNotFound = errors.New("scene: node not found")
	// ErrAttrNotFound is returned for lookups of attributes a node does not carry.
	ErrAttrNotFound = errors.New("scene: attribute not found")
	// ErrAttrExists is returned when adding an attribute that already exists.
	ErrAttrExists = errors.New("scene: attribute already exists")
	// ErrBadValue is returned when a value's type does not match the attribute.
	ErrBadValue = errors.New("scene: value type mismatch")
	// ErrNotACurve is returned when a curve query targets a non-curve node.
	ErrNotACurve = errors.New("scene: node is not a curve")
	// ErrWeightAliasMismatch is returned when constraint weight aliases do not
	// line up one-to-one with constraint sources.
	ErrWeightAliasMismatch = errors.New("scene: weight alias count does not match source count")
	// ErrCycle is returned when attribute evaluation revisits an attribute
	// already on the evaluation stack.
	ErrCycle = errors.New("scene: dependency cycle in attribute graph")
	// ErrTransactionOpen is returned by Begin while another transaction is open.
	ErrTransactionOpen = errors.New("scene: transaction already open")
)
