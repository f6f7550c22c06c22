package model

import (
	"sort"

	"github.com/FocuswithJustin/xmldoc/core/errors"
	"github.com/FocuswithJustin/xmldoc/core/schema"
)

type pathKey struct {
	node     string
	property string
}

type annotationEntry struct {
	id     string
	start  int
	end    int
	policy schema.Policy
}

func (e annotationEntry) less(o annotationEntry) bool {
	if e.start != o.start {
		return e.start < o.start
	}
	if e.end != o.end {
		return e.end < o.end
	}
	return e.id < o.id
}

// Shift is a new offset pair computed for an annotation by Transform.
type Shift struct {
	ID    string
	Start int
	End   int
}

// AnnotationIndex buckets annotations by the (node, property) they point at.
// Each bucket is kept sorted by start offset, then end offset, then id.
type AnnotationIndex struct {
	schema  *schema.Schema
	buckets map[pathKey][]annotationEntry
	byID    map[string]pathKey
	// byNode lists the annotated properties of each node.
	byNode map[string]map[string]bool
}

// NewAnnotationIndex creates an index over the annotation types of s.
func NewAnnotationIndex(s *schema.Schema) *AnnotationIndex {
	return &AnnotationIndex{
		schema:  s,
		buckets: make(map[pathKey][]annotationEntry),
		byID:    make(map[string]pathKey),
		byNode:  make(map[string]map[string]bool),
	}
}

func (a *AnnotationIndex) entry(n *Node) (pathKey, annotationEntry, bool) {
	path := n.Path()
	if len(path) != 2 {
		return pathKey{}, annotationEntry{}, false
	}
	t, _ := a.schema.Type(n.Type)
	start, end := n.Offsets()
	return pathKey{node: path[0], property: path[1]},
		annotationEntry{id: n.ID, start: start, end: end, policy: t.Policy},
		true
}

// Select implements Index.
func (a *AnnotationIndex) Select(n *Node) bool {
	t, ok := a.schema.Type(n.Type)
	return ok && t.Annotation
}

// Reset implements Index.
func (a *AnnotationIndex) Reset() {
	a.buckets = make(map[pathKey][]annotationEntry)
	a.byID = make(map[string]pathKey)
	a.byNode = make(map[string]map[string]bool)
}

// Create implements Index.
func (a *AnnotationIndex) Create(n *Node) {
	key, e, ok := a.entry(n)
	if !ok {
		return
	}
	a.insert(key, e)
}

// Delete implements Index.
func (a *AnnotationIndex) Delete(n *Node) {
	a.remove(n.ID)
}

// Update implements Index.
func (a *AnnotationIndex) Update(n *Node, property string, oldValue, newValue any) {
	switch property {
	case schema.PathProperty, schema.StartOffsetProperty, schema.EndOffsetProperty:
	default:
		return
	}
	a.remove(n.ID)
	if key, e, ok := a.entry(n); ok {
		a.insert(key, e)
	}
}

func (a *AnnotationIndex) insert(key pathKey, e annotationEntry) {
	bucket := a.buckets[key]
	i := sort.Search(len(bucket), func(i int) bool { return e.less(bucket[i]) })
	bucket = append(bucket, annotationEntry{})
	copy(bucket[i+1:], bucket[i:])
	bucket[i] = e
	a.buckets[key] = bucket
	a.byID[e.id] = key
	if a.byNode[key.node] == nil {
		a.byNode[key.node] = make(map[string]bool)
	}
	a.byNode[key.node][key.property] = true
}

func (a *AnnotationIndex) remove(id string) {
	key, ok := a.byID[id]
	if !ok {
		return
	}
	delete(a.byID, id)
	bucket := a.buckets[key]
	for i := range bucket {
		if bucket[i].id == id {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(a.buckets, key)
		delete(a.byNode[key.node], key.property)
		if len(a.byNode[key.node]) == 0 {
			delete(a.byNode, key.node)
		}
		return
	}
	a.buckets[key] = bucket
}

// Get returns all annotations on the property, sorted by range.
func (a *AnnotationIndex) Get(nodeID, property string) []string {
	bucket := a.buckets[pathKey{nodeID, property}]
	ids := make([]string, len(bucket))
	for i, e := range bucket {
		ids[i] = e.id
	}
	return ids
}

// ForNode returns all annotations on any property of the node.
func (a *AnnotationIndex) ForNode(nodeID string) []string {
	props := make([]string, 0, len(a.byNode[nodeID]))
	for p := range a.byNode[nodeID] {
		props = append(props, p)
	}
	sort.Strings(props)

	var ids []string
	for _, p := range props {
		ids = append(ids, a.Get(nodeID, p)...)
	}
	return ids
}

// Query returns the annotations on the property whose range overlaps
// [start,end), in bucket order.
//
// For a non-empty range an annotation [a,b) overlaps when a < end and
// start < b; a zero-width annotation overlaps when start <= a < end. For
// an empty range at p the result holds the annotations strictly containing
// p, zero-width annotations at p, and annotations with a boundary at p that
// would absorb text typed there.
func (a *AnnotationIndex) Query(nodeID, property string, start, end int) []string {
	bucket := a.buckets[pathKey{nodeID, property}]
	if end < start {
		start, end = end, start
	}

	limit := end - 1
	if start == end {
		limit = end
	}
	cut := sort.Search(len(bucket), func(i int) bool { return bucket[i].start > limit })

	var ids []string
	for _, e := range bucket[:cut] {
		if overlaps(e, start, end) {
			ids = append(ids, e.id)
		}
	}
	return ids
}

func overlaps(e annotationEntry, start, end int) bool {
	if start == end {
		p := start
		switch {
		case e.start == e.end:
			return e.start == p
		case e.start < p && p < e.end:
			return true
		case e.start == p:
			return e.policy.AbsorbsStart()
		case e.end == p:
			return e.policy.AbsorbsEnd()
		}
		return false
	}
	if e.start == e.end {
		return start <= e.start && e.start < end
	}
	return e.start < end && start < e.end
}

// Transform computes the offsets every annotation on the property takes
// after edit. Only annotations that move are returned; nothing is mutated.
func (a *AnnotationIndex) Transform(nodeID, property string, edit TextEdit) []Shift {
	var shifts []Shift
	for _, e := range a.buckets[pathKey{nodeID, property}] {
		start, end := edit.Apply(e.start, e.end, e.policy)
		if start != e.start || end != e.end {
			shifts = append(shifts, Shift{ID: e.id, Start: start, End: end})
		}
	}
	return shifts
}

// Check implements Index.
func (a *AnnotationIndex) Check(nodes []*Node) error {
	want := NewAnnotationIndex(a.schema)
	for _, n := range nodes {
		if want.Select(n) {
			want.Create(n)
		}
	}
	if len(want.byID) != len(a.byID) {
		return errors.Wrapf(errors.ErrIndexCorrupt, "annotation index holds %d annotations, store has %d",
			len(a.byID), len(want.byID))
	}
	if len(want.byNode) != len(a.byNode) {
		return errors.Wrapf(errors.ErrIndexCorrupt, "annotation index covers %d nodes, store has %d",
			len(a.byNode), len(want.byNode))
	}
	for key, bucket := range want.buckets {
		if !a.byNode[key.node][key.property] {
			return errors.Wrapf(errors.ErrIndexCorrupt, "annotation bucket %s.%s is not listed for its node",
				key.node, key.property)
		}
		got := a.buckets[key]
		if len(got) != len(bucket) {
			return errors.Wrapf(errors.ErrIndexCorrupt, "annotation bucket %s.%s has %d entries, store has %d",
				key.node, key.property, len(got), len(bucket))
		}
		for i := range bucket {
			if got[i].id != bucket[i].id || got[i].start != bucket[i].start || got[i].end != bucket[i].end {
				return errors.Wrapf(errors.ErrIndexCorrupt, "annotation bucket %s.%s differs at %d",
					key.node, key.property, i)
			}
		}
	}
	return nil
}
