package model

import (
	"sort"

	"github.com/FocuswithJustin/xmldoc/core/errors"
	"github.com/FocuswithJustin/xmldoc/core/schema"
)

// ParentIndex tracks which containers list each node. It is what makes a
// delete of a still-listed node detectable without scanning every container.
type ParentIndex struct {
	schema  *schema.Schema
	parents map[string]map[string]int
}

// NewParentIndex creates a parent index for the containers of s.
func NewParentIndex(s *schema.Schema) *ParentIndex {
	return &ParentIndex{
		schema:  s,
		parents: make(map[string]map[string]int),
	}
}

func (p *ParentIndex) containerProperty(n *Node) string {
	t, ok := p.schema.Type(n.Type)
	if !ok {
		return ""
	}
	return t.Container
}

// Select implements Index.
func (p *ParentIndex) Select(n *Node) bool {
	return p.containerProperty(n) != ""
}

// Reset implements Index.
func (p *ParentIndex) Reset() {
	p.parents = make(map[string]map[string]int)
}

// Create implements Index.
func (p *ParentIndex) Create(n *Node) {
	p.link(n.ID, n.GetIDs(p.containerProperty(n)))
}

// Delete implements Index.
func (p *ParentIndex) Delete(n *Node) {
	p.unlink(n.ID, n.GetIDs(p.containerProperty(n)))
}

// Update implements Index.
func (p *ParentIndex) Update(n *Node, property string, oldValue, newValue any) {
	if property != p.containerProperty(n) {
		return
	}
	oldIDs, _ := oldValue.([]string)
	newIDs, _ := newValue.([]string)
	p.unlink(n.ID, oldIDs)
	p.link(n.ID, newIDs)
}

func (p *ParentIndex) link(container string, children []string) {
	for _, child := range children {
		if p.parents[child] == nil {
			p.parents[child] = make(map[string]int)
		}
		p.parents[child][container]++
	}
}

func (p *ParentIndex) unlink(container string, children []string) {
	for _, child := range children {
		set := p.parents[child]
		if set == nil {
			continue
		}
		set[container]--
		if set[container] <= 0 {
			delete(set, container)
		}
		if len(set) == 0 {
			delete(p.parents, child)
		}
	}
}

// Containers returns the ids of the containers listing child, sorted.
func (p *ParentIndex) Containers(child string) []string {
	set := p.parents[child]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Parent returns the container listing child. When several do, the
// lexically smallest id is returned.
func (p *ParentIndex) Parent(child string) (string, bool) {
	containers := p.Containers(child)
	if len(containers) == 0 {
		return "", false
	}
	return containers[0], true
}

// Check implements Index.
func (p *ParentIndex) Check(nodes []*Node) error {
	want := NewParentIndex(p.schema)
	for _, n := range nodes {
		if want.Select(n) {
			want.Create(n)
		}
	}
	if len(want.parents) != len(p.parents) {
		return errors.Wrapf(errors.ErrIndexCorrupt, "parent index tracks %d children, store lists %d",
			len(p.parents), len(want.parents))
	}
	for child, set := range want.parents {
		got := p.parents[child]
		if len(got) != len(set) {
			return errors.Wrapf(errors.ErrIndexCorrupt, "parent index for %s has %d containers, store has %d",
				child, len(got), len(set))
		}
		for container, count := range set {
			if got[container] != count {
				return errors.Wrapf(errors.ErrIndexCorrupt, "parent index for %s in %s counts %d, store has %d",
					child, container, got[container], count)
			}
		}
	}
	return nil
}
