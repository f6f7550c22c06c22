package model

import (
	"log/slog"
	"sort"

	"github.com/FocuswithJustin/xmldoc/core/errors"
	"github.com/FocuswithJustin/xmldoc/core/schema"
	"github.com/FocuswithJustin/xmldoc/internal/logging"
)

// Names of the indices every Document registers.
const (
	TypeIndexName       = "type"
	AnnotationIndexName = "annotations"
	ParentIndexName     = "parents"
)

// Seed is a node to create when the document is constructed.
type Seed struct {
	Type  string
	Props Props
}

// Option configures a Document.
type Option func(*Document)

// WithLogger sets the logger mutations are reported to at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(d *Document) {
		d.logger = l
	}
}

// WithIDGenerator replaces the UUID based id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(d *Document) {
		d.newID = g
	}
}

// WithNodes creates the given nodes, in order, during construction.
func WithNodes(seeds ...Seed) Option {
	return func(d *Document) {
		d.seeds = append(d.seeds, seeds...)
	}
}

// WithRoot designates the root node. The node must exist once construction
// (including WithNodes) has finished.
func WithRoot(id string) Option {
	return func(d *Document) {
		d.root = id
	}
}

// Document is the single mutation entry point over a node store and its
// indices. It assumes one writer at a time and does no locking.
type Document struct {
	schema  *schema.Schema
	factory *NodeFactory
	data    *IncrementalData

	indexes    map[string]Index
	indexNames []string

	types       *PropertyIndex
	annotations *AnnotationIndex
	parents     *ParentIndex

	root   string
	newID  IDGenerator
	logger *slog.Logger
	seeds  []Seed

	listeners    map[int]func([]Operation)
	nextListener int
}

// New creates a document over s.
func New(s *schema.Schema, opts ...Option) (*Document, error) {
	factory := NewNodeFactory(s)
	d := &Document{
		schema:    s,
		factory:   factory,
		data:      NewIncrementalData(s, factory),
		indexes:   make(map[string]Index),
		newID:     UUIDs(),
		listeners: make(map[int]func([]Operation)),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = logging.GetLogger()
	}

	d.types = NewPropertyIndex(schema.TypeProperty)
	d.annotations = NewAnnotationIndex(s)
	d.parents = NewParentIndex(s)
	for _, builtin := range []struct {
		name string
		idx  Index
	}{
		{TypeIndexName, d.types},
		{AnnotationIndexName, d.annotations},
		{ParentIndexName, d.parents},
	} {
		if err := d.AddIndex(builtin.name, builtin.idx); err != nil {
			return nil, err
		}
	}

	for _, seed := range d.seeds {
		if _, err := d.Create(seed.Type, seed.Props); err != nil {
			return nil, errors.Wrap(err, "creating initial nodes")
		}
	}
	d.seeds = nil

	if d.root != "" && !d.data.Contains(d.root) {
		return nil, errors.NewNotFound("root node", d.root)
	}
	return d, nil
}

// Schema returns the document's schema.
func (d *Document) Schema() *schema.Schema {
	return d.schema
}

// Factory returns the node factory bound to the document's schema.
func (d *Document) Factory() *NodeFactory {
	return d.factory
}

// AddIndex registers an index under name and fills it from the store.
func (d *Document) AddIndex(name string, idx Index) error {
	if _, exists := d.indexes[name]; exists {
		return errors.Wrapf(errors.ErrInvalidInput, "index %q already registered", name)
	}
	d.indexes[name] = idx
	d.indexNames = append(d.indexNames, name)
	d.data.AddIndex(idx)
	return nil
}

// Index returns the index registered under name.
func (d *Document) Index(name string) (Index, error) {
	idx, ok := d.indexes[name]
	if !ok {
		return nil, errors.NewNotFound("index", name)
	}
	return idx, nil
}

// TypeIndex returns the index of node ids by type.
func (d *Document) TypeIndex() *PropertyIndex {
	return d.types
}

// AnnotationIndex returns the index of annotations by annotated property.
func (d *Document) AnnotationIndex() *AnnotationIndex {
	return d.annotations
}

// ParentIndex returns the index of containers by child.
func (d *Document) ParentIndex() *ParentIndex {
	return d.parents
}

// Subscribe registers fn to receive the change records of every successful
// mutation. The returned function unsubscribes.
func (d *Document) Subscribe(fn func([]Operation)) func() {
	id := d.nextListener
	d.nextListener++
	d.listeners[id] = fn
	return func() {
		delete(d.listeners, id)
	}
}

func (d *Document) emit(ops []Operation) {
	for _, op := range ops {
		d.logger.Debug("node "+op.Type.String(), "id", op.ID, "type", op.NodeType, "property", op.Property)
	}
	keys := make([]int, 0, len(d.listeners))
	for k := range d.listeners {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		d.listeners[k](ops)
	}
}

// Contains reports whether id names a live node.
func (d *Document) Contains(id string) bool {
	return d.data.Contains(id)
}

// Len returns the number of live nodes.
func (d *Document) Len() int {
	return d.data.Len()
}

// Get returns a snapshot of the node.
func (d *Document) Get(id string) (*Node, error) {
	n, ok := d.data.Get(id)
	if !ok {
		return nil, errors.NewNotFound("node", id)
	}
	return n, nil
}

// Nodes returns snapshots of every live node in creation order.
func (d *Document) Nodes() []*Node {
	return d.data.Nodes()
}

// NodesByType returns the ids of the nodes of the given type.
func (d *Document) NodesByType(typeName string) []string {
	return d.types.IDs(typeName)
}

// NewID returns an unused id for a node of the given type.
func (d *Document) NewID(typeName string) string {
	for {
		id := d.newID(typeName)
		if !d.data.Contains(id) {
			return id
		}
	}
}

// Create validates props against typeName and inserts the node. When props
// carries no "id", one is generated. The new id is returned.
func (d *Document) Create(typeName string, props Props) (string, error) {
	p := make(Props, len(props)+1)
	for k, v := range props {
		p[k] = v
	}
	if id, _ := p[schema.IDProperty].(string); id == "" {
		p[schema.IDProperty] = d.NewID(typeName)
	}

	node, err := d.factory.Create(typeName, p)
	if err != nil {
		return "", err
	}
	if d.data.Contains(node.ID) {
		return "", errors.NewDuplicateID(node.ID)
	}
	if err := d.checkNode(node); err != nil {
		return "", err
	}

	op, err := d.data.Create(typeName, p)
	if err != nil {
		return "", err
	}
	d.emit([]Operation{op})
	return op.ID, nil
}

// checkNode validates the cross-node constraints of a node about to be
// written: container children must be live and annotation ranges must fit
// the annotated text.
func (d *Document) checkNode(n *Node) error {
	t, _ := d.schema.Type(n.Type)
	if t.IsContainer() {
		if err := d.checkLive(n.GetIDs(t.Container)); err != nil {
			return err
		}
	}
	if t.Annotation {
		return d.checkAnnotation(n)
	}
	return nil
}

func (d *Document) checkLive(ids []string) error {
	for _, id := range ids {
		if !d.data.Contains(id) {
			return errors.NewNotFound("node", id)
		}
	}
	return nil
}

func (d *Document) checkAnnotation(n *Node) error {
	path := n.Path()
	if len(path) != 2 {
		return errors.NewSchemaf(n.Type, schema.PathProperty, "annotation %s has no anchor", n.ID)
	}
	target, ok := d.data.get(path[0])
	if !ok {
		return errors.NewNotFound("node", path[0])
	}
	targetType, _ := d.schema.Type(target.Type)
	p, ok := targetType.Property(path[1])
	if !ok || p.Kind != schema.Text {
		return errors.NewSchemaf(n.Type, schema.PathProperty, "%s.%s is not a text property", target.Type, path[1])
	}
	start, end := n.Offsets()
	length := TextLength(target.GetString(path[1]))
	if start < 0 || start > end || end > length {
		return errors.NewSchemaf(n.Type, schema.StartOffsetProperty,
			"range [%d,%d) does not fit text of length %d", start, end, length)
	}
	return nil
}

// Set replaces one property of a node. Changing a text property moves the
// annotations on it in the same call.
func (d *Document) Set(id, property string, value any) error {
	node, ok := d.data.get(id)
	if !ok {
		return errors.NewNotFound("node", id)
	}
	t, _ := d.schema.Type(node.Type)
	v, err := d.factory.Validate(t, property, value)
	if err != nil {
		return err
	}
	p, _ := t.Property(property)

	var shifts []Shift
	switch {
	case property == t.Container:
		if err := d.checkLive(v.([]string)); err != nil {
			return err
		}
	case t.Annotation && (property == schema.PathProperty ||
		property == schema.StartOffsetProperty || property == schema.EndOffsetProperty):
		candidate := node.clone()
		candidate.props[property] = v
		if err := d.checkAnnotation(candidate); err != nil {
			return err
		}
	case p.Kind == schema.Text:
		if edit, changed := DiffText(node.GetString(property), v.(string)); changed {
			shifts = d.annotations.Transform(id, property, edit)
		}
	}

	ops := make([]Operation, 0, 1+2*len(shifts))
	op, err := d.data.Set(id, property, v)
	if err != nil {
		return err
	}
	ops = append(ops, op)
	for _, s := range shifts {
		for _, change := range []struct {
			name  string
			value int
		}{
			{schema.StartOffsetProperty, s.Start},
			{schema.EndOffsetProperty, s.End},
		} {
			op, err := d.data.Set(s.ID, change.name, change.value)
			if err != nil {
				// Shifts are computed from valid state and cannot fail.
				return errors.Wrapf(err, "shifting annotation %s", s.ID)
			}
			ops = append(ops, op)
		}
	}

	d.emit(ops)
	return nil
}

// Delete removes a node. It fails with ReferencedByContainer while any
// container lists the node. Annotations on the node's text are deleted
// with it.
func (d *Document) Delete(id string) error {
	if !d.data.Contains(id) {
		return errors.NewNotFound("node", id)
	}
	if containers := d.parents.Containers(id); len(containers) > 0 {
		return errors.NewReferenced(id, containers)
	}
	annotations := d.annotations.ForNode(id)
	for _, a := range annotations {
		if containers := d.parents.Containers(a); len(containers) > 0 {
			return errors.NewReferenced(a, containers)
		}
	}

	ops := make([]Operation, 0, len(annotations)+1)
	for _, a := range append(annotations, id) {
		op, err := d.data.Delete(a)
		if err != nil {
			return err
		}
		ops = append(ops, op)
	}
	if d.root == id {
		d.root = ""
	}

	d.emit(ops)
	return nil
}

// Root returns the designated root node.
func (d *Document) Root() (*Node, error) {
	if d.root == "" {
		return nil, errors.NewNotFound("root node", "")
	}
	return d.Get(d.root)
}

// RootID returns the id of the designated root node, or "".
func (d *Document) RootID() string {
	return d.root
}

// SetRoot designates the root node.
func (d *Document) SetRoot(id string) error {
	if !d.data.Contains(id) {
		return errors.NewNotFound("node", id)
	}
	d.root = id
	return nil
}

// Parent returns a container listing id.
func (d *Document) Parent(id string) (string, bool) {
	return d.parents.Parent(id)
}

// Annotations returns the annotations on a text property, sorted by range.
func (d *Document) Annotations(nodeID, property string) []string {
	return d.annotations.Get(nodeID, property)
}

// AnnotationsForRange returns the annotations on a text property whose
// range overlaps [start,end).
func (d *Document) AnnotationsForRange(nodeID, property string, start, end int) []string {
	return d.annotations.Query(nodeID, property, start, end)
}

// Check verifies every registered index against the store, and the store's
// own cross-node invariants.
func (d *Document) Check() error {
	nodes := d.data.list()
	for _, name := range d.indexNames {
		if err := d.indexes[name].Check(nodes); err != nil {
			return errors.Wrapf(err, "index %s", name)
		}
	}
	for _, n := range nodes {
		if err := d.checkNode(n); err != nil {
			return errors.Wrapf(err, "node %s", n.ID)
		}
	}
	return nil
}

// Reindex rebuilds every registered index from the store.
func (d *Document) Reindex() {
	nodes := d.data.list()
	for _, name := range d.indexNames {
		rebuild(d.indexes[name], nodes)
	}
}
