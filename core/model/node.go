package model

import (
	"sort"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/xmldoc/core/schema"
)

// Props is a property bag keyed by property name.
type Props map[string]any

// Node is an identified, typed record of properties.
//
// Nodes handed out by a Document are snapshots: mutating one has no effect
// on the document. Relationships between nodes are plain ids.
type Node struct {
	ID   string
	Type string

	props map[string]any
}

// Get returns the value of a property, or nil when it is not set.
// The pseudo-properties "id" and "type" are always available.
func (n *Node) Get(name string) any {
	switch name {
	case schema.IDProperty:
		return n.ID
	case schema.TypeProperty:
		return n.Type
	}
	return schema.Clone(n.props[name])
}

// Has reports whether the property is set on the node.
func (n *Node) Has(name string) bool {
	if name == schema.IDProperty || name == schema.TypeProperty {
		return true
	}
	_, ok := n.props[name]
	return ok
}

// GetString returns a string or text property, or "" if it has another kind.
func (n *Node) GetString(name string) string {
	s, _ := n.Get(name).(string)
	return s
}

// GetInt returns an integer property, or 0 if it has another kind.
func (n *Node) GetInt(name string) int {
	i, _ := n.props[name].(int)
	return i
}

// GetIDs returns a copy of a reference-list property.
func (n *Node) GetIDs(name string) []string {
	ids, _ := n.Get(name).([]string)
	return ids
}

// Path returns the [nodeID, property] an annotation points at.
func (n *Node) Path() []string {
	return n.GetIDs(schema.PathProperty)
}

// Offsets returns an annotation's start and end offsets.
func (n *Node) Offsets() (start, end int) {
	return n.GetInt(schema.StartOffsetProperty), n.GetInt(schema.EndOffsetProperty)
}

// Properties returns a copy of the node's property bag.
func (n *Node) Properties() Props {
	out := make(Props, len(n.props))
	for k, v := range n.props {
		out[k] = schema.Clone(v)
	}
	return out
}

// PropertyNames returns the names of the set properties, sorted.
func (n *Node) PropertyNames() []string {
	names := make([]string, 0, len(n.props))
	for k := range n.props {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (n *Node) clone() *Node {
	return &Node{
		ID:    n.ID,
		Type:  n.Type,
		props: n.Properties(),
	}
}

// FormatValue renders a property value as text: lists and paths are joined
// by single spaces.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []string:
		return strings.Join(t, " ")
	}
	return ""
}

// ParseValue is the inverse of FormatValue for the given kind.
func ParseValue(kind schema.Kind, s string) (any, error) {
	switch kind {
	case schema.Integer:
		return strconv.Atoi(s)
	case schema.Number:
		return strconv.ParseFloat(s, 64)
	case schema.Boolean:
		return strconv.ParseBool(s)
	case schema.ReferenceList:
		return strings.Fields(s), nil
	case schema.Path:
		return strings.Fields(s), nil
	}
	return s, nil
}
