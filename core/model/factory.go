package model

import (
	"github.com/FocuswithJustin/xmldoc/core/errors"
	"github.com/FocuswithJustin/xmldoc/core/schema"
)

// NodeFactory builds nodes validated against a schema.
type NodeFactory struct {
	schema *schema.Schema
}

// NewNodeFactory creates a factory for the given schema.
func NewNodeFactory(s *schema.Schema) *NodeFactory {
	return &NodeFactory{schema: s}
}

// Schema returns the schema nodes are validated against.
func (f *NodeFactory) Schema() *schema.Schema {
	return f.schema
}

// Create validates props against typeName and returns a new node. props
// must carry the node id under "id". Omitted optional properties take
// their declared zero value.
func (f *NodeFactory) Create(typeName string, props Props) (*Node, error) {
	nodeType, ok := f.schema.Type(typeName)
	if !ok {
		return nil, errors.NewSchema(typeName, "", "unknown node type")
	}

	id, ok := props[schema.IDProperty].(string)
	if !ok || id == "" {
		return nil, errors.NewSchema(typeName, schema.IDProperty, "a non-empty string id is required")
	}
	if t, ok := props[schema.TypeProperty]; ok && t != typeName {
		return nil, errors.NewSchemaf(typeName, schema.TypeProperty, "conflicting type %v", t)
	}

	node := &Node{
		ID:    id,
		Type:  typeName,
		props: make(map[string]any, len(nodeType.Properties)),
	}

	for name, value := range props {
		if name == schema.IDProperty || name == schema.TypeProperty {
			continue
		}
		v, err := f.Validate(nodeType, name, value)
		if err != nil {
			return nil, err
		}
		node.props[name] = v
	}

	for _, p := range nodeType.Properties {
		if _, set := node.props[p.Name]; set {
			continue
		}
		if p.Required {
			return nil, errors.NewSchema(typeName, p.Name, "required property is missing")
		}
		node.props[p.Name] = p.Zero()
	}

	if nodeType.Annotation {
		start, end := node.Offsets()
		if start < 0 || start > end {
			return nil, errors.NewSchemaf(typeName, schema.StartOffsetProperty,
				"offsets must satisfy 0 <= start <= end, got [%d,%d)", start, end)
		}
	}

	return node, nil
}

// Validate checks a single property value against the node type and returns
// it in canonical form.
func (f *NodeFactory) Validate(nodeType *schema.NodeType, name string, value any) (any, error) {
	if name == schema.IDProperty || name == schema.TypeProperty {
		return nil, errors.NewSchema(nodeType.Name, name, "identity properties are immutable")
	}
	p, ok := nodeType.Property(name)
	if !ok {
		return nil, errors.NewSchema(nodeType.Name, name, "undeclared property")
	}
	if value == nil && !p.Required {
		return p.Zero(), nil
	}
	v, err := p.Kind.Check(value)
	if err != nil {
		return nil, errors.NewSchema(nodeType.Name, name, err.Error())
	}
	return v, nil
}
