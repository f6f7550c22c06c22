package xml

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/xmldoc/core/errors"
	"github.com/FocuswithJustin/xmldoc/core/schema"
)

// ContentKind says how an element's content maps to node properties.
type ContentKind int

const (
	// EmptyContent elements carry attributes only.
	EmptyContent ContentKind = iota
	// ContainerContent elements hold child elements, in container order.
	ContainerContent
	// TextContent elements hold one text property, with annotations
	// nested inline.
	TextContent
	// InlineContent elements are annotations, emitted inside text.
	InlineContent
	// MixedContent elements hold their text property, annotations nested
	// inline, followed by their child elements in container order. All
	// text inside them is significant.
	MixedContent
)

func (k ContentKind) String() string {
	switch k {
	case EmptyContent:
		return "empty"
	case ContainerContent:
		return "container"
	case TextContent:
		return "text"
	case InlineContent:
		return "inline"
	case MixedContent:
		return "mixed"
	}
	return fmt.Sprintf("ContentKind(%d)", int(k))
}

// ElementSchema describes how one node type is written as an XML element.
type ElementSchema struct {
	Type    string
	Content ContentKind
	// Attributes lists the properties written as attributes, in output
	// order. The id attribute is always written first and is not listed.
	Attributes []string
	// TextProperty names the text property of TextContent and
	// MixedContent elements.
	TextProperty string
}

// Schema is a node schema plus the element schema of every node type.
type Schema struct {
	*schema.Schema

	elements map[string]*ElementSchema
}

// NewSchema derives an element schema for every type of s. Entries in
// overrides replace the derived ones.
//
// Derivation: annotation types are inline, container types hold their
// children, types with exactly one text property hold that text, container
// types with exactly one text property hold both, and everything else is
// empty. Scalar properties become attributes in declaration order.
func NewSchema(s *schema.Schema, overrides ...ElementSchema) (*Schema, error) {
	xs := &Schema{Schema: s, elements: make(map[string]*ElementSchema)}
	for _, t := range s.Types() {
		es := deriveElement(t)
		xs.elements[t.Name] = &es
	}
	for _, o := range overrides {
		t, ok := s.Type(o.Type)
		if !ok {
			return nil, errors.NewSchema(o.Type, "", "element schema for unknown node type")
		}
		if err := checkElement(t, o); err != nil {
			return nil, err
		}
		es := o
		es.Attributes = append([]string(nil), o.Attributes...)
		xs.elements[o.Type] = &es
	}
	return xs, nil
}

// MustNewSchema is NewSchema for package-level schema definitions.
func MustNewSchema(s *schema.Schema, overrides ...ElementSchema) *Schema {
	xs, err := NewSchema(s, overrides...)
	if err != nil {
		panic(err)
	}
	return xs
}

func deriveElement(t *schema.NodeType) ElementSchema {
	es := ElementSchema{Type: t.Name}
	texts := t.TextProperties()
	switch {
	case t.Annotation:
		es.Content = InlineContent
	case t.IsContainer() && len(texts) == 1:
		es.Content = MixedContent
		es.TextProperty = texts[0]
	case t.IsContainer():
		es.Content = ContainerContent
	case len(texts) == 1:
		es.Content = TextContent
		es.TextProperty = texts[0]
	}
	for _, p := range t.Properties {
		if isAttributeKind(p.Kind) && !implicit(t, p.Name) {
			es.Attributes = append(es.Attributes, p.Name)
		}
	}
	return es
}

func checkElement(t *schema.NodeType, es ElementSchema) error {
	switch es.Content {
	case ContainerContent:
		if !t.IsContainer() {
			return errors.NewSchema(t.Name, "", "container element for a non-container type")
		}
	case TextContent, MixedContent:
		p, ok := t.Property(es.TextProperty)
		if !ok || p.Kind != schema.Text {
			return errors.NewSchemaf(t.Name, es.TextProperty, "text element needs a text property")
		}
		if es.Content == MixedContent && !t.IsContainer() {
			return errors.NewSchema(t.Name, "", "mixed element for a non-container type")
		}
	case InlineContent:
		if !t.Annotation {
			return errors.NewSchema(t.Name, "", "inline element for a non-annotation type")
		}
	case EmptyContent:
	default:
		return errors.NewSchemaf(t.Name, "", "unknown content kind %d", int(es.Content))
	}

	seen := make(map[string]bool, len(es.Attributes))
	for _, name := range es.Attributes {
		p, ok := t.Property(name)
		if !ok {
			return errors.NewSchema(t.Name, name, "attribute is not a declared property")
		}
		if !isAttributeKind(p.Kind) || implicit(t, name) {
			return errors.NewSchemaf(t.Name, name, "%s property cannot be an attribute", p.Kind)
		}
		if seen[name] {
			return errors.NewSchema(t.Name, name, "attribute listed twice")
		}
		seen[name] = true
	}
	return nil
}

func isAttributeKind(k schema.Kind) bool {
	switch k {
	case schema.Text, schema.Path:
		return false
	}
	return true
}

// implicit reports properties whose value is carried by the XML structure
// rather than an attribute.
func implicit(t *schema.NodeType, name string) bool {
	if name == t.Container {
		return true
	}
	if t.Annotation {
		return name == schema.StartOffsetProperty || name == schema.EndOffsetProperty
	}
	return false
}

// unwritten returns the properties of t that es carries neither as an
// attribute nor as element content.
func unwritten(t *schema.NodeType, es *ElementSchema) []string {
	written := make(map[string]bool, len(es.Attributes)+3)
	for _, name := range es.Attributes {
		written[name] = true
	}
	switch es.Content {
	case ContainerContent:
		written[t.Container] = true
	case TextContent:
		written[es.TextProperty] = true
	case MixedContent:
		written[t.Container] = true
		written[es.TextProperty] = true
	case InlineContent:
		written[schema.PathProperty] = true
		written[schema.StartOffsetProperty] = true
		written[schema.EndOffsetProperty] = true
	}

	var names []string
	for _, p := range t.Properties {
		if !written[p.Name] {
			names = append(names, p.Name)
		}
	}
	return names
}

// GetElementSchema returns the element schema of a node type.
func (s *Schema) GetElementSchema(typeName string) (*ElementSchema, error) {
	es, ok := s.elements[typeName]
	if !ok {
		return nil, errors.NewSchema(typeName, "", "no element schema for node type")
	}
	return es, nil
}

// DocType is the document type declaration triple.
type DocType struct {
	QualifiedName string
	PublicID      string
	SystemID      string
}

// Notation returns the declaration without its "<!" and ">" delimiters.
func (d DocType) Notation() string {
	var b strings.Builder
	b.WriteString("DOCTYPE ")
	b.WriteString(d.QualifiedName)
	switch {
	case d.PublicID != "":
		fmt.Fprintf(&b, " PUBLIC %q %q", d.PublicID, d.SystemID)
	case d.SystemID != "":
		fmt.Fprintf(&b, " SYSTEM %q", d.SystemID)
	}
	return b.String()
}

// String returns the full <!DOCTYPE ...> declaration.
func (d DocType) String() string {
	return "<!" + d.Notation() + ">"
}

// parseDocTypeName returns the qualified name of a DOCTYPE notation.
func parseDocTypeName(notation string) (string, bool) {
	fields := strings.Fields(notation)
	if len(fields) < 2 || !strings.EqualFold(fields[0], "DOCTYPE") {
		return "", false
	}
	return fields[1], true
}
