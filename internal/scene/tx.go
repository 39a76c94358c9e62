package scene

// Tx is a savepoint over one builder invocation. Every node created and
// every pre-existing attribute, connection or parent changed while the
// transaction is open is recorded, so Rollback restores the graph exactly
// as it was at Begin.
type Tx struct {
	g       *Graph
	created []NodeID

	savedAttrs   map[AttrHandle]Value
	savedConns   map[AttrHandle]*AttrHandle
	savedParents map[NodeID]NodeID
	done         bool
}

// Begin opens a transaction. Only one may be open at a time.
func (g *Graph) Begin() (*Tx, error) {
	if g.tx != nil {
		return nil, ErrTransactionOpen
	}
	tx := &Tx{
		g:            g,
		savedAttrs:   map[AttrHandle]Value{},
		savedConns:   map[AttrHandle]*AttrHandle{},
		savedParents: map[NodeID]NodeID{},
	}
	g.tx = tx
	return tx, nil
}

// InTransaction reports whether a transaction is open.
func (g *Graph) InTransaction() bool {
	return g.tx != nil
}

// noteAttr records the first pre-change value of an attribute.
func (t *Tx) noteAttr(h AttrHandle, old Value) {
	if _, ok := t.savedAttrs[h]; !ok {
		t.savedAttrs[h] = old
	}
}

// noteConnection records the first pre-change incoming connection.
func (t *Tx) noteConnection(h AttrHandle, old *AttrHandle) {
	if _, ok := t.savedConns[h]; !ok {
		if old != nil {
			o := *old
			t.savedConns[h] = &o
		} else {
			t.savedConns[h] = nil
		}
	}
}

// noteParent records the first pre-change parent of a node.
func (t *Tx) noteParent(id, oldParent NodeID) {
	if _, ok := t.savedParents[id]; !ok {
		t.savedParents[id] = oldParent
	}
}

// noteConstraintTarget exists so constraint creation participates in the
// transaction; cleanup is handled by the liveness sweep on rollback.
func (t *Tx) noteConstraintTarget(NodeID) {}

// Commit keeps all changes and closes the transaction.
func (t *Tx) Commit() {
	if t.done {
		return
	}
	t.done = true
	t.g.tx = nil
}

// Rollback deletes every node created in the transaction and restores the
// recorded attribute values, connections and parent links.
func (t *Tx) Rollback() {
	if t.done {
		return
	}
	t.done = true
	t.g.tx = nil

	for _, id := range t.created {
		if n := t.g.node(id); n != nil {
			n.deleted = true
		}
	}

	for id, parent := range t.savedParents {
		if n := t.g.node(id); n != nil {
			n.parent = parent
		}
	}

	for h, v := range t.savedAttrs {
		if _, a, err := t.g.attrOf(h); err == nil {
			a.value = v
		}
	}
	for h, src := range t.savedConns {
		if _, a, err := t.g.attrOf(h); err == nil {
			a.incoming = src
		}
	}

	t.g.sweep()
}

// sweep rebuilds child lists from parent links and drops references to
// deleted nodes from constraint lists and connections.
func (g *Graph) sweep() {
	for _, n := range g.nodes {
		n.children = n.children[:0]
	}
	for _, n := range g.nodes {
		if n.deleted {
			continue
		}
		if p := g.node(n.parent); p != nil {
			p.children = append(p.children, n.id)
		} else {
			n.parent = InvalidNode
		}

		live := n.constraints[:0]
		for _, cid := range n.constraints {
			if g.node(NodeID(cid)) != nil {
				live = append(live, cid)
			}
		}
		n.constraints = live

		for _, a := range n.attrs {
			if a.incoming != nil && g.node(a.incoming.Node) == nil {
				a.incoming = nil
			}
		}
	}
}
