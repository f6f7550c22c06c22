package model

import (
	"fmt"
	"sort"

	"github.com/FocuswithJustin/xmldoc/core/errors"
)

// PropertyIndex maps the value of one property to the ids of the nodes
// holding that value. Registered under "type" it answers "which nodes have
// type T". Values that are not comparable (lists, paths) are not indexed.
type PropertyIndex struct {
	property string
	buckets  map[any]map[string]uint64
	seq      uint64
}

// NewPropertyIndex creates an index over the named property.
func NewPropertyIndex(property string) *PropertyIndex {
	return &PropertyIndex{
		property: property,
		buckets:  make(map[any]map[string]uint64),
	}
}

// Property returns the indexed property name.
func (p *PropertyIndex) Property() string {
	return p.property
}

func indexKey(v any) (any, bool) {
	switch v.(type) {
	case string, int, float64, bool:
		return v, true
	}
	return nil, false
}

// Select implements Index.
func (p *PropertyIndex) Select(n *Node) bool {
	return n.Has(p.property)
}

// Reset implements Index.
func (p *PropertyIndex) Reset() {
	p.buckets = make(map[any]map[string]uint64)
	p.seq = 0
}

// Create implements Index.
func (p *PropertyIndex) Create(n *Node) {
	p.add(n.Get(p.property), n.ID)
}

// Delete implements Index.
func (p *PropertyIndex) Delete(n *Node) {
	p.remove(n.Get(p.property), n.ID)
}

// Update implements Index.
func (p *PropertyIndex) Update(n *Node, property string, oldValue, newValue any) {
	if property != p.property {
		return
	}
	p.remove(oldValue, n.ID)
	p.add(newValue, n.ID)
}

func (p *PropertyIndex) add(value any, id string) {
	key, ok := indexKey(value)
	if !ok {
		return
	}
	bucket, ok := p.buckets[key]
	if !ok {
		bucket = make(map[string]uint64)
		p.buckets[key] = bucket
	}
	bucket[id] = p.seq
	p.seq++
}

func (p *PropertyIndex) remove(value any, id string) {
	key, ok := indexKey(value)
	if !ok {
		return
	}
	bucket, ok := p.buckets[key]
	if !ok {
		return
	}
	delete(bucket, id)
	if len(bucket) == 0 {
		delete(p.buckets, key)
	}
}

// IDs returns the ids holding value, in the order they entered the bucket.
// The slice is a snapshot.
func (p *PropertyIndex) IDs(value any) []string {
	key, ok := indexKey(value)
	if !ok {
		return nil
	}
	bucket := p.buckets[key]
	ids := make([]string, 0, len(bucket))
	for id := range bucket {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bucket[ids[i]] < bucket[ids[j]]
	})
	return ids
}

// Count returns the number of ids holding value.
func (p *PropertyIndex) Count(value any) int {
	key, ok := indexKey(value)
	if !ok {
		return 0
	}
	return len(p.buckets[key])
}

// Counts returns the bucket sizes keyed by the value's text form.
func (p *PropertyIndex) Counts() map[string]int {
	out := make(map[string]int, len(p.buckets))
	for key, bucket := range p.buckets {
		out[FormatValue(key)] = len(bucket)
	}
	return out
}

// Check implements Index.
func (p *PropertyIndex) Check(nodes []*Node) error {
	want := make(map[any]map[string]bool)
	for _, n := range nodes {
		if !p.Select(n) {
			continue
		}
		key, ok := indexKey(n.Get(p.property))
		if !ok {
			continue
		}
		if want[key] == nil {
			want[key] = make(map[string]bool)
		}
		want[key][n.ID] = true
	}

	if len(want) != len(p.buckets) {
		return errors.Wrapf(errors.ErrIndexCorrupt, "property index %q has %d buckets, store has %d values",
			p.property, len(p.buckets), len(want))
	}
	for key, ids := range want {
		bucket := p.buckets[key]
		if len(bucket) != len(ids) {
			return errors.Wrapf(errors.ErrIndexCorrupt, "property index %q bucket %v has %d ids, store has %d",
				p.property, key, len(bucket), len(ids))
		}
		for id := range ids {
			if _, ok := bucket[id]; !ok {
				return errors.Wrapf(errors.ErrIndexCorrupt, "property index %q bucket %v is missing %s",
					p.property, key, id)
			}
		}
	}
	return nil
}

func (p *PropertyIndex) String() string {
	return fmt.Sprintf("PropertyIndex(%s)", p.property)
}
