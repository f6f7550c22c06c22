package model

import (
	"github.com/FocuswithJustin/xmldoc/core/errors"
	"github.com/FocuswithJustin/xmldoc/core/schema"
)

// IncrementalData is the authoritative store of nodes keyed by id. It owns
// the create, delete and set primitives and fires index hooks before each
// call returns. Validation always happens before mutation, so a failed call
// leaves the store and its indices untouched.
type IncrementalData struct {
	schema  *schema.Schema
	factory *NodeFactory

	nodes map[string]*Node
	// order holds records in insertion order; deleted slots are nil until
	// the next compaction.
	order []*Node
	slot  map[string]int
	dead  int

	indexes []Index
}

// NewIncrementalData creates an empty store.
func NewIncrementalData(s *schema.Schema, factory *NodeFactory) *IncrementalData {
	if factory == nil {
		factory = NewNodeFactory(s)
	}
	return &IncrementalData{
		schema:  s,
		factory: factory,
		nodes:   make(map[string]*Node),
		slot:    make(map[string]int),
	}
}

// AddIndex registers an index and feeds it every existing node.
func (d *IncrementalData) AddIndex(idx Index) {
	d.indexes = append(d.indexes, idx)
	rebuild(idx, d.list())
}

func rebuild(idx Index, nodes []*Node) {
	idx.Reset()
	for _, n := range nodes {
		if idx.Select(n) {
			idx.Create(n)
		}
	}
}

// Contains reports whether id names a live node.
func (d *IncrementalData) Contains(id string) bool {
	_, ok := d.nodes[id]
	return ok
}

// Len returns the number of live nodes.
func (d *IncrementalData) Len() int {
	return len(d.nodes)
}

// Get returns a snapshot of the node.
func (d *IncrementalData) Get(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	if !ok {
		return nil, false
	}
	return n.clone(), true
}

func (d *IncrementalData) get(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// Nodes returns snapshots of all live nodes in insertion order.
func (d *IncrementalData) Nodes() []*Node {
	live := d.list()
	out := make([]*Node, len(live))
	for i, n := range live {
		out[i] = n.clone()
	}
	return out
}

// list returns the live records in insertion order.
func (d *IncrementalData) list() []*Node {
	out := make([]*Node, 0, len(d.nodes))
	for _, n := range d.order {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// compact drops deleted slots once they make up half of the order.
func (d *IncrementalData) compact() {
	if d.dead < 32 || d.dead*2 < len(d.order) {
		return
	}
	live := d.order[:0]
	for _, n := range d.order {
		if n != nil {
			d.slot[n.ID] = len(live)
			live = append(live, n)
		}
	}
	clear(d.order[len(live):])
	d.order = live
	d.dead = 0
}

// Create validates and inserts a node. props must carry the id.
func (d *IncrementalData) Create(typeName string, props Props) (Operation, error) {
	node, err := d.factory.Create(typeName, props)
	if err != nil {
		return Operation{}, err
	}
	if d.Contains(node.ID) {
		return Operation{}, errors.NewDuplicateID(node.ID)
	}

	d.nodes[node.ID] = node
	d.slot[node.ID] = len(d.order)
	d.order = append(d.order, node)

	for _, idx := range d.indexes {
		if idx.Select(node) {
			idx.Create(node)
		}
	}

	return Operation{Type: OpCreate, ID: node.ID, NodeType: node.Type, Node: node.clone()}, nil
}

// Delete removes a node. Indices see the node before it disappears.
func (d *IncrementalData) Delete(id string) (Operation, error) {
	node, ok := d.nodes[id]
	if !ok {
		return Operation{}, errors.NewNotFound("node", id)
	}

	for _, idx := range d.indexes {
		if idx.Select(node) {
			idx.Delete(node)
		}
	}

	delete(d.nodes, id)
	d.order[d.slot[id]] = nil
	delete(d.slot, id)
	d.dead++
	d.compact()

	return Operation{Type: OpDelete, ID: id, NodeType: node.Type, Node: node.clone()}, nil
}

// Set replaces one property value.
func (d *IncrementalData) Set(id, property string, value any) (Operation, error) {
	node, ok := d.nodes[id]
	if !ok {
		return Operation{}, errors.NewNotFound("node", id)
	}
	nodeType, ok := d.schema.Type(node.Type)
	if !ok {
		return Operation{}, errors.NewSchema(node.Type, "", "unknown node type")
	}
	v, err := d.factory.Validate(nodeType, property, value)
	if err != nil {
		return Operation{}, err
	}

	old := node.props[property]
	node.props[property] = v

	for _, idx := range d.indexes {
		if idx.Select(node) {
			idx.Update(node, property, old, v)
		}
	}

	return Operation{
		Type:     OpSet,
		ID:       id,
		NodeType: node.Type,
		Property: property,
		Original: schema.Clone(old),
		Value:    schema.Clone(v),
	}, nil
}
