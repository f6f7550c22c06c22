package model

// OpType is the kind of a change record.
type OpType int

// Change record kinds.
const (
	OpCreate OpType = iota
	OpDelete
	OpSet
)

func (t OpType) String() string {
	switch t {
	case OpCreate:
		return "create"
	case OpDelete:
		return "delete"
	case OpSet:
		return "set"
	}
	return "unknown"
}

// Operation records one primitive change to the node store.
type Operation struct {
	Type     OpType
	ID       string
	NodeType string

	// Property, Original and Value are set for OpSet.
	Property string
	Original any
	Value    any

	// Node is a snapshot of the created or deleted node.
	Node *Node
}

// Index is a derived view over the node store, kept current by the store
// through synchronous hooks. An index is a cache: the store is the source
// of truth, and Check reports any disagreement as ErrIndexCorrupt.
type Index interface {
	// Select reports whether the index tracks the node at all.
	Select(n *Node) bool

	// Reset drops all indexed state.
	Reset()

	// Create is called after a selected node was inserted.
	Create(n *Node)

	// Delete is called before a selected node is removed.
	Delete(n *Node)

	// Update is called after a property of a selected node changed.
	Update(n *Node, property string, oldValue, newValue any)

	// Check compares the index against the given live nodes.
	Check(nodes []*Node) error
}
