package xml

import (
	"bytes"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/FocuswithJustin/xmldoc/core/errors"
	"github.com/FocuswithJustin/xmldoc/core/model"
	"github.com/FocuswithJustin/xmldoc/core/schema"
)

// Parse reads an XML document of the given dialect. Element names are node
// types, the id attribute is the node id (generated when absent), other
// attributes are properties, child elements fill containers and inline
// elements inside text become annotations. Whitespace-only text between the
// children of a container element is ignored; in mixed elements every text
// node belongs to the text property, wherever it sits among the children.
//
// A document written by ToXML parses back to a document that writes the
// same bytes.
func Parse(dialect Dialect, data []byte, opts ...model.Option) (*Document, error) {
	p, err := scan(data)
	if err != nil {
		return nil, err
	}
	tree, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &errors.ParseError{Format: "XML", Message: err.Error(), Err: errors.ErrInvalidInput}
	}

	d, err := NewDocument(dialect, opts...)
	if err != nil {
		return nil, err
	}
	docType, err := dialect.DocTypeParams()
	if err != nil {
		return nil, err
	}

	if name, ok := parseDocTypeName(p.docType); ok && name != docType.QualifiedName {
		return nil, errors.NewSchemaf(name, "", "document type %s does not match dialect %s",
			name, docType.QualifiedName)
	}

	var rootEl *xmlquery.Node
	for n := tree.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			rootEl = n
			break
		}
	}
	if rootEl == nil {
		return nil, errors.NewParse("XML", "", "no root element")
	}

	r := &treeReader{doc: d}
	rootID, err := r.element(rootEl)
	if err != nil {
		return nil, err
	}
	if err := d.SetRoot(rootID); err != nil {
		return nil, err
	}
	return d, nil
}

type treeReader struct {
	doc *Document
}

type pendingAnnotation struct {
	typeName string
	props    model.Props
}

func (r *treeReader) element(el *xmlquery.Node) (string, error) {
	typeName := elementName(el)
	es, err := r.doc.xs.GetElementSchema(typeName)
	if err != nil {
		return "", err
	}
	if es.Content == InlineContent {
		return "", errors.NewSchema(typeName, "", "annotation element outside of text")
	}
	t, _ := r.doc.Schema().Type(typeName)
	props, err := r.attributes(el, t, es)
	if err != nil {
		return "", err
	}

	var pending []pendingAnnotation
	switch es.Content {
	case ContainerContent:
		ids := make([]string, 0)
		for c := el.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case xmlquery.ElementNode:
				id, err := r.element(c)
				if err != nil {
					return "", err
				}
				ids = append(ids, id)
			case xmlquery.TextNode, xmlquery.CharDataNode:
				if strings.TrimSpace(c.Data) != "" {
					return "", errors.NewSchemaf(typeName, "", "unexpected text %q in container element", c.Data)
				}
			}
		}
		props[t.Container] = ids

	case TextContent:
		var text []rune
		if err := r.inline(el, &text, &pending); err != nil {
			return "", err
		}
		props[es.TextProperty] = string(text)

	case MixedContent:
		var text []rune
		ids := make([]string, 0)
		for c := el.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == xmlquery.ElementNode {
				ces, err := r.doc.xs.GetElementSchema(elementName(c))
				if err != nil {
					return "", err
				}
				if ces.Content != InlineContent {
					id, err := r.element(c)
					if err != nil {
						return "", err
					}
					ids = append(ids, id)
					continue
				}
			}
			if err := r.inlineNode(c, &text, &pending); err != nil {
				return "", err
			}
		}
		props[es.TextProperty] = string(text)
		props[t.Container] = ids

	case EmptyContent:
		for c := el.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case xmlquery.ElementNode:
				return "", errors.NewSchemaf(typeName, "", "empty element cannot contain <%s>", elementName(c))
			case xmlquery.TextNode, xmlquery.CharDataNode:
				if strings.TrimSpace(c.Data) != "" {
					return "", errors.NewSchemaf(typeName, "", "unexpected text %q in empty element", c.Data)
				}
			}
		}
	}

	id, err := r.doc.Create(typeName, props)
	if err != nil {
		return "", err
	}
	for _, a := range pending {
		a.props[schema.PathProperty] = []string{id, es.TextProperty}
		if _, err := r.doc.Create(a.typeName, a.props); err != nil {
			return "", err
		}
	}
	return id, nil
}

// inline appends the text below el to text and records an annotation for
// every inline element, with offsets relative to the start of text.
func (r *treeReader) inline(el *xmlquery.Node, text *[]rune, pending *[]pendingAnnotation) error {
	for c := el.FirstChild; c != nil; c = c.NextSibling {
		if err := r.inlineNode(c, text, pending); err != nil {
			return err
		}
	}
	return nil
}

func (r *treeReader) inlineNode(c *xmlquery.Node, text *[]rune, pending *[]pendingAnnotation) error {
	switch c.Type {
	case xmlquery.TextNode, xmlquery.CharDataNode:
		*text = append(*text, []rune(c.Data)...)
	case xmlquery.ElementNode:
		typeName := elementName(c)
		es, err := r.doc.xs.GetElementSchema(typeName)
		if err != nil {
			return err
		}
		if es.Content != InlineContent {
			return errors.NewSchemaf(typeName, "", "<%s> is not allowed inside text", typeName)
		}
		t, _ := r.doc.Schema().Type(typeName)
		props, err := r.attributes(c, t, es)
		if err != nil {
			return err
		}

		i := len(*pending)
		*pending = append(*pending, pendingAnnotation{typeName: typeName, props: props})
		start := len(*text)
		if err := r.inline(c, text, pending); err != nil {
			return err
		}
		(*pending)[i].props[schema.StartOffsetProperty] = start
		(*pending)[i].props[schema.EndOffsetProperty] = len(*text)
	}
	return nil
}

func (r *treeReader) attributes(el *xmlquery.Node, t *schema.NodeType, es *ElementSchema) (model.Props, error) {
	allowed := make(map[string]bool, len(es.Attributes))
	for _, name := range es.Attributes {
		allowed[name] = true
	}

	props := make(model.Props, len(el.Attr)+1)
	for _, a := range el.Attr {
		name := attrName(a)
		if name == schema.IDProperty {
			props[schema.IDProperty] = a.Value
			continue
		}
		if !allowed[name] {
			return nil, errors.NewSchema(t.Name, name, "attribute not declared for element")
		}
		p, _ := t.Property(name)
		v, err := model.ParseValue(p.Kind, a.Value)
		if err != nil {
			return nil, errors.NewSchemaf(t.Name, name, "bad attribute value %q: %v", a.Value, err)
		}
		props[name] = v
	}
	return props, nil
}

func elementName(n *xmlquery.Node) string {
	if n.Prefix != "" {
		return n.Prefix + ":" + n.Data
	}
	return n.Data
}

func attrName(a xmlquery.Attr) string {
	if a.Name.Space != "" {
		return a.Name.Space + ":" + a.Name.Local
	}
	return a.Name.Local
}
