// Package schema describes node types, their properties, and the kinds of
// values those properties may hold.
//
// A Schema is built once and then consumed read-only by the node factory,
// the data store, the indices and the XML layer.
package schema

import (
	"fmt"
	"math"

	"github.com/FocuswithJustin/xmldoc/core/errors"
)

// Reserved and conventional property names.
const (
	IDProperty   = "id"
	TypeProperty = "type"

	// DefaultContainerProperty is the reference-list property that holds a
	// container's children unless the node type names another one.
	DefaultContainerProperty = "childNodes"

	PathProperty        = "path"
	StartOffsetProperty = "startOffset"
	EndOffsetProperty   = "endOffset"
)

// Kind is the kind of value a property holds.
type Kind int

// Property kinds.
const (
	String Kind = iota
	Integer
	Number
	Boolean
	Reference
	ReferenceList
	Text
	Path
)

var kindNames = map[Kind]string{
	String:        "string",
	Integer:       "integer",
	Number:        "number",
	Boolean:       "boolean",
	Reference:     "reference",
	ReferenceList: "reference-list",
	Text:          "text",
	Path:          "path",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Policy decides whether an annotation absorbs text inserted exactly at one
// of its boundaries. Insertions strictly inside an annotation always grow it.
type Policy int

// Boundary policies.
const (
	// Exclusive never absorbs boundary insertions.
	Exclusive Policy = iota
	// StickyStart absorbs insertions at the start boundary.
	StickyStart
	// StickyEnd absorbs insertions at the end boundary.
	StickyEnd
	// Expand absorbs insertions at both boundaries.
	Expand
)

var policyNames = map[Policy]string{
	Exclusive:   "exclusive",
	StickyStart: "sticky-start",
	StickyEnd:   "sticky-end",
	Expand:      "expand",
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// AbsorbsStart reports whether text inserted at the start offset becomes
// part of the annotation.
func (p Policy) AbsorbsStart() bool {
	return p == StickyStart || p == Expand
}

// AbsorbsEnd reports whether text inserted at the end offset becomes part
// of the annotation.
func (p Policy) AbsorbsEnd() bool {
	return p == StickyEnd || p == Expand
}

// Property declares one property of a node type.
type Property struct {
	Name     string
	Kind     Kind
	Required bool
	Default  any
}

// Zero returns the value a property takes when it is omitted at creation.
func (p Property) Zero() any {
	if p.Default != nil {
		return Clone(p.Default)
	}
	switch p.Kind {
	case String, Text, Reference:
		return ""
	case Integer:
		return 0
	case Number:
		return float64(0)
	case Boolean:
		return false
	case ReferenceList:
		return []string{}
	case Path:
		return []string(nil)
	}
	return nil
}

// NodeType declares a node type.
type NodeType struct {
	Name       string
	Properties []Property

	// Container names the reference-list property whose order is document
	// order. Empty when the type is not a container.
	Container string

	// Annotation marks types whose nodes annotate a range of another
	// node's text property.
	Annotation bool
	Policy     Policy

	props map[string]int
}

// Property returns the named property declaration.
func (t *NodeType) Property(name string) (Property, bool) {
	i, ok := t.props[name]
	if !ok {
		return Property{}, false
	}
	return t.Properties[i], true
}

// IsContainer reports whether nodes of this type hold ordered children.
func (t *NodeType) IsContainer() bool {
	return t.Container != ""
}

// TextProperties returns the names of the text properties in declaration order.
func (t *NodeType) TextProperties() []string {
	var names []string
	for _, p := range t.Properties {
		if p.Kind == Text {
			names = append(names, p.Name)
		}
	}
	return names
}

// ContainerType declares a container type whose children live in the
// default childNodes property.
func ContainerType(name string, props ...Property) NodeType {
	return NodeType{
		Name:       name,
		Properties: append([]Property{{Name: DefaultContainerProperty, Kind: ReferenceList}}, props...),
		Container:  DefaultContainerProperty,
	}
}

// AnnotationType declares an annotation type with the given boundary policy.
// The path and offset properties are added when the type is defined.
func AnnotationType(name string, policy Policy, props ...Property) NodeType {
	return NodeType{
		Name:       name,
		Properties: props,
		Annotation: true,
		Policy:     policy,
	}
}

// Schema is a named set of node types.
type Schema struct {
	Name  string
	types map[string]*NodeType
	order []string
}

// New creates a schema and defines the given types.
func New(name string, types ...NodeType) (*Schema, error) {
	s := &Schema{
		Name:  name,
		types: make(map[string]*NodeType),
	}
	for _, t := range types {
		if err := s.Define(t); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustNew is like New but panics on an invalid declaration.
func MustNew(name string, types ...NodeType) *Schema {
	s, err := New(name, types...)
	if err != nil {
		panic(err)
	}
	return s
}

// Define adds a node type to the schema.
func (s *Schema) Define(t NodeType) error {
	if t.Name == "" {
		return errors.NewSchema("", "", "node type name is required")
	}
	if _, exists := s.types[t.Name]; exists {
		return errors.NewSchema(t.Name, "", "node type already defined")
	}

	props := make([]Property, 0, len(t.Properties)+3)
	props = append(props, t.Properties...)
	if t.Annotation {
		props = withImplicit(props, Property{Name: PathProperty, Kind: Path, Required: true})
		props = withImplicit(props, Property{Name: StartOffsetProperty, Kind: Integer, Required: true})
		props = withImplicit(props, Property{Name: EndOffsetProperty, Kind: Integer, Required: true})
	}

	index := make(map[string]int, len(props))
	for i, p := range props {
		if p.Name == "" {
			return errors.NewSchema(t.Name, "", "property name is required")
		}
		if p.Name == IDProperty || p.Name == TypeProperty {
			return errors.NewSchema(t.Name, p.Name, "property name is reserved")
		}
		if _, dup := index[p.Name]; dup {
			return errors.NewSchema(t.Name, p.Name, "property declared twice")
		}
		if _, ok := kindNames[p.Kind]; !ok {
			return errors.NewSchemaf(t.Name, p.Name, "unknown kind %d", int(p.Kind))
		}
		if p.Default != nil {
			if _, err := p.Kind.Check(p.Default); err != nil {
				return errors.NewSchemaf(t.Name, p.Name, "default: %v", err)
			}
		}
		index[p.Name] = i
	}

	if t.Annotation {
		for _, name := range []string{PathProperty, StartOffsetProperty, EndOffsetProperty} {
			want := Integer
			if name == PathProperty {
				want = Path
			}
			i := index[name]
			if got := props[i].Kind; got != want {
				return errors.NewSchemaf(t.Name, name, "annotation property must be %s, not %s", want, got)
			}
			// Every annotation is anchored; a redeclaration cannot relax that.
			props[i].Required = true
			props[i].Default = nil
		}
	}

	if t.Container != "" {
		i, ok := index[t.Container]
		if !ok {
			return errors.NewSchema(t.Name, t.Container, "container property is not declared")
		}
		if props[i].Kind != ReferenceList {
			return errors.NewSchemaf(t.Name, t.Container, "container property must be %s", ReferenceList)
		}
	}

	def := t
	def.Properties = props
	def.props = index
	s.types[def.Name] = &def
	s.order = append(s.order, def.Name)
	return nil
}

func withImplicit(props []Property, p Property) []Property {
	for _, existing := range props {
		if existing.Name == p.Name {
			return props
		}
	}
	return append(props, p)
}

// Type returns the named node type.
func (s *Schema) Type(name string) (*NodeType, bool) {
	t, ok := s.types[name]
	return t, ok
}

// Has reports whether the schema declares the named type.
func (s *Schema) Has(name string) bool {
	_, ok := s.types[name]
	return ok
}

// Types returns all node types in definition order.
func (s *Schema) Types() []*NodeType {
	out := make([]*NodeType, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.types[name])
	}
	return out
}

// Check validates v against the kind and returns it in canonical form:
// integers become int, numbers float64, reference lists and paths a fresh
// []string.
func (k Kind) Check(v any) (any, error) {
	switch k {
	case String, Text, Reference:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case Integer:
		switch n := v.(type) {
		case int:
			return n, nil
		case int32:
			return int(n), nil
		case int64:
			return int(n), nil
		case float64:
			if n == math.Trunc(n) {
				return int(n), nil
			}
		}
	case Number:
		switch n := v.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
	case Boolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case ReferenceList:
		switch ids := v.(type) {
		case []string:
			return append([]string{}, ids...), nil
		case nil:
			return []string{}, nil
		}
	case Path:
		if p, ok := v.([]string); ok {
			if len(p) != 2 || p[0] == "" || p[1] == "" {
				return nil, fmt.Errorf("path must be [nodeID, property], got %v", p)
			}
			return []string{p[0], p[1]}, nil
		}
	}
	return nil, fmt.Errorf("expected %s, got %T", k, v)
}

// Clone returns a copy of v that shares no mutable state with it.
func Clone(v any) any {
	if ids, ok := v.([]string); ok {
		if ids == nil {
			return []string(nil)
		}
		return append([]string{}, ids...)
	}
	return v
}
