// Package xml binds the document model to an XML serialization. A Dialect
// supplies the document type, the element schema and the root element;
// Document writes the node graph as an element tree and Parse reads it
// back with the same ids, properties, container order and annotations.
package xml

import (
	"bytes"
	"sort"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/FocuswithJustin/xmldoc/core/cas"
	"github.com/FocuswithJustin/xmldoc/core/errors"
	"github.com/FocuswithJustin/xmldoc/core/model"
	"github.com/FocuswithJustin/xmldoc/core/schema"
)

// Document is a model.Document whose schema and root element come from a
// Dialect.
type Document struct {
	*model.Document

	dialect Dialect
	xs      *Schema
}

// NewDocument creates an empty document of the given dialect. It fails
// with ErrNotImplemented when the dialect leaves any Dialect method
// unimplemented.
func NewDocument(dialect Dialect, opts ...model.Option) (*Document, error) {
	xs, err := dialect.XMLSchema()
	if err != nil {
		return nil, errors.Wrap(err, "dialect schema")
	}
	if xs == nil || xs.Schema == nil {
		return nil, errors.NewSchema("", "", "dialect returned no schema")
	}
	if _, err := dialect.DocTypeParams(); err != nil {
		return nil, errors.Wrap(err, "dialect doctype")
	}
	if _, err := dialect.DocTypeAsString(); err != nil {
		return nil, errors.Wrap(err, "dialect doctype")
	}

	doc, err := model.New(xs.Schema, opts...)
	if err != nil {
		return nil, err
	}
	d := &Document{Document: doc, dialect: dialect, xs: xs}

	// An empty document may not have a root yet; only a missing
	// implementation is fatal here.
	if _, err := dialect.RootNode(d); errors.Is(err, errors.ErrNotImplemented) {
		return nil, errors.Wrap(err, "dialect root")
	}
	return d, nil
}

// Dialect returns the document's dialect.
func (d *Document) Dialect() Dialect {
	return d.dialect
}

// XMLSchema returns the element schema the document is written with.
func (d *Document) XMLSchema() *Schema {
	return d.xs
}

// GetElementSchema returns the element schema of a node type.
func (d *Document) GetElementSchema(typeName string) (*ElementSchema, error) {
	return d.xs.GetElementSchema(typeName)
}

// DocTypeParams returns the dialect's document type declaration.
func (d *Document) DocTypeParams() (DocType, error) {
	return d.dialect.DocTypeParams()
}

// DocTypeAsString returns the dialect's <!DOCTYPE ...> declaration.
func (d *Document) DocTypeAsString() (string, error) {
	return d.dialect.DocTypeAsString()
}

// RootNode returns the root element as chosen by the dialect.
func (d *Document) RootNode() (*model.Node, error) {
	return d.dialect.RootNode(d)
}

// CreateElement creates a node of type tagName with a generated id and
// returns the id.
func (d *Document) CreateElement(tagName string) (string, error) {
	return d.CreateElementWith(tagName, nil)
}

// CreateElementWith is CreateElement with initial properties. An "id" in
// props is used instead of a generated one.
func (d *Document) CreateElementWith(tagName string, props model.Props) (string, error) {
	if _, err := d.xs.GetElementSchema(tagName); err != nil {
		return "", err
	}
	return d.Create(tagName, props)
}

// Find returns the first node below the dialect's root matching selector.
func (d *Document) Find(selector string) (*model.Node, error) {
	if err := d.syncRoot(); err != nil {
		return nil, err
	}
	return d.Document.Find(selector)
}

// FindAll returns every node below the dialect's root matching selector.
func (d *Document) FindAll(selector string) ([]*model.Node, error) {
	if err := d.syncRoot(); err != nil {
		return nil, err
	}
	return d.Document.FindAll(selector)
}

func (d *Document) syncRoot() error {
	root, err := d.RootNode()
	if err != nil {
		return err
	}
	if d.RootID() == root.ID {
		return nil
	}
	return d.SetRoot(root.ID)
}

// ToXML serializes the document: the XML declaration, the dialect's
// document type declaration, then the root element.
func (d *Document) ToXML() ([]byte, error) {
	tree, err := d.Tree()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tree.WriteWithOptions(&buf, xmlquery.WithEmptyTagSupport()); err != nil {
		return nil, errors.Wrap(err, "writing XML")
	}
	return buf.Bytes(), nil
}

// Tree builds the XML tree ToXML writes.
func (d *Document) Tree() (*xmlquery.Node, error) {
	docType, err := d.dialect.DocTypeParams()
	if err != nil {
		return nil, err
	}
	root, err := d.RootNode()
	if err != nil {
		return nil, err
	}

	w := &treeWriter{doc: d, onPath: make(map[string]bool), written: make(map[string]bool)}
	el, err := w.element(root)
	if err != nil {
		return nil, err
	}

	tree := &xmlquery.Node{Type: xmlquery.DocumentNode}
	decl := &xmlquery.Node{Type: xmlquery.DeclarationNode, Data: "xml"}
	xmlquery.AddAttr(decl, "version", "1.0")
	xmlquery.AddAttr(decl, "encoding", "UTF-8")
	xmlquery.AddChild(tree, decl)
	addText(tree, "\n")
	xmlquery.AddChild(tree, &xmlquery.Node{Type: xmlquery.NotationNode, Data: docType.Notation()})
	addText(tree, "\n")
	xmlquery.AddChild(tree, el)
	addText(tree, "\n")
	return tree, nil
}

type treeWriter struct {
	doc     *Document
	onPath  map[string]bool
	written map[string]bool
}

type span struct {
	node       *model.Node
	es         *ElementSchema
	start, end int
}

func (w *treeWriter) element(n *model.Node) (*xmlquery.Node, error) {
	es, err := w.doc.xs.GetElementSchema(n.Type)
	if err != nil {
		return nil, err
	}
	if es.Content == InlineContent {
		return nil, errors.NewSchema(n.Type, "", "annotation element outside of text")
	}
	if w.onPath[n.ID] {
		return nil, errors.NewSchemaf(n.Type, "", "node %s contains itself", n.ID)
	}
	if w.written[n.ID] {
		return nil, errors.NewSchemaf(n.Type, "", "node %s is listed in more than one place", n.ID)
	}
	w.onPath[n.ID] = true
	w.written[n.ID] = true
	defer delete(w.onPath, n.ID)

	t, _ := w.doc.Schema().Type(n.Type)
	children := n.GetIDs(t.Container)
	if es.Content == TextContent && len(children) > 0 {
		return nil, errors.NewSchemaf(n.Type, t.Container, "text element %s cannot hold children", n.ID)
	}
	if err := w.checkWritable(n, t, es); err != nil {
		return nil, err
	}

	el := newElement(n, es)
	switch es.Content {
	case TextContent, MixedContent:
		if err := w.text(el, n, es.TextProperty); err != nil {
			return nil, err
		}
	}
	switch es.Content {
	case ContainerContent, MixedContent:
		for _, id := range children {
			child, err := w.doc.Get(id)
			if err != nil {
				return nil, err
			}
			childEl, err := w.element(child)
			if err != nil {
				return nil, err
			}
			xmlquery.AddChild(el, childEl)
		}
	}
	return el, nil
}

// checkWritable fails when n holds a value, or carries an annotation, that
// its element schema has no place for.
func (w *treeWriter) checkWritable(n *model.Node, t *schema.NodeType, es *ElementSchema) error {
	for _, name := range unwritten(t, es) {
		p, _ := t.Property(name)
		if model.FormatValue(n.Get(name)) != model.FormatValue(p.Zero()) {
			return errors.NewSchemaf(n.Type, name, "%s element cannot hold property %s of %s", es.Content, name, n.ID)
		}
	}
	for _, id := range w.doc.AnnotationIndex().ForNode(n.ID) {
		a, err := w.doc.Get(id)
		if err != nil {
			return err
		}
		if path := a.Path(); es.TextProperty == "" || path[1] != es.TextProperty {
			return errors.NewSchemaf(a.Type, schema.PathProperty,
				"annotation %s on %s.%s cannot be written inline", a.ID, n.ID, path[1])
		}
	}
	return nil
}

func (w *treeWriter) text(el *xmlquery.Node, n *model.Node, property string) error {
	spans := make([]span, 0)
	for _, id := range w.doc.Annotations(n.ID, property) {
		a, err := w.doc.Get(id)
		if err != nil {
			return err
		}
		es, err := w.doc.xs.GetElementSchema(a.Type)
		if err != nil {
			return err
		}
		start, end := a.Offsets()
		spans = append(spans, span{node: a, es: es, start: start, end: end})
	}
	// Outer spans first: by start, then longest first.
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		if spans[i].end != spans[j].end {
			return spans[i].end > spans[j].end
		}
		return spans[i].node.ID < spans[j].node.ID
	})

	text := []rune(n.GetString(property))
	return nest(el, text, spans, 0, len(text))
}

// nest writes text[from:to] into parent, wrapping each span in its element.
// Spans must be sorted outer first and lie within [from,to].
func nest(parent *xmlquery.Node, text []rune, spans []span, from, to int) error {
	pos := from
	for i := 0; i < len(spans); {
		s := spans[i]
		j := i + 1
		for j < len(spans) && spans[j].start < s.end {
			if spans[j].end > s.end {
				return errors.NewSchemaf(spans[j].node.Type, schema.StartOffsetProperty,
					"annotation %s [%d,%d) crosses %s [%d,%d) and cannot be nested",
					spans[j].node.ID, spans[j].start, spans[j].end, s.node.ID, s.start, s.end)
			}
			j++
		}

		addText(parent, string(text[pos:s.start]))
		el := newElement(s.node, s.es)
		if err := nest(el, text, spans[i+1:j], s.start, s.end); err != nil {
			return err
		}
		xmlquery.AddChild(parent, el)
		pos = s.end
		i = j
	}
	addText(parent, string(text[pos:to]))
	return nil
}

func newElement(n *model.Node, es *ElementSchema) *xmlquery.Node {
	el := &xmlquery.Node{Type: xmlquery.ElementNode}
	if i := strings.IndexByte(n.Type, ':'); i > 0 {
		el.Prefix, el.Data = n.Type[:i], n.Type[i+1:]
	} else {
		el.Data = n.Type
	}
	xmlquery.AddAttr(el, schema.IDProperty, n.ID)
	for _, name := range es.Attributes {
		if v := model.FormatValue(n.Get(name)); v != "" {
			xmlquery.AddAttr(el, name, v)
		}
	}
	return el
}

func addText(parent *xmlquery.Node, s string) {
	if s == "" {
		return
	}
	xmlquery.AddChild(parent, &xmlquery.Node{Type: xmlquery.TextNode, Data: s})
}

// XPath evaluates expr over the document's XML tree and returns the ids of
// the matching elements, in document order. Matches on text or attributes
// resolve to the nearest enclosing element with an id.
func (d *Document) XPath(expr string) ([]string, error) {
	compiled, err := compileXPath(expr)
	if err != nil {
		return nil, err
	}
	tree, err := d.Tree()
	if err != nil {
		return nil, err
	}

	var ids []string
	seen := make(map[string]bool)
	for _, n := range xmlquery.QuerySelectorAll(tree, compiled) {
		if id := owningID(n); id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Evaluate evaluates an XPath expression that yields a scalar, such as
// count(//p). Node-set results are returned as element ids.
func (d *Document) Evaluate(expr string) (any, error) {
	compiled, err := compileXPath(expr)
	if err != nil {
		return nil, err
	}
	tree, err := d.Tree()
	if err != nil {
		return nil, err
	}

	result := compiled.Evaluate(xmlquery.CreateXPathNavigator(tree))
	iter, ok := result.(*xpath.NodeIterator)
	if !ok {
		return result, nil
	}
	var ids []string
	seen := make(map[string]bool)
	for iter.MoveNext() {
		nav, ok := iter.Current().(*xmlquery.NodeNavigator)
		if !ok {
			continue
		}
		if id := owningID(nav.Current()); id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func compileXPath(expr string) (*xpath.Expr, error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, &errors.ParseError{Format: "xpath", Message: err.Error(), Err: errors.ErrInvalidInput}
	}
	return compiled, nil
}

func owningID(n *xmlquery.Node) string {
	for ; n != nil; n = n.Parent {
		if n.Type != xmlquery.ElementNode {
			continue
		}
		if id := n.SelectAttr(schema.IDProperty); id != "" {
			return id
		}
	}
	return ""
}

// Fingerprint returns the digests of the document's XML serialization.
func (d *Document) Fingerprint() (cas.Digest, error) {
	data, err := d.ToXML()
	if err != nil {
		return cas.Digest{}, err
	}
	return cas.Fingerprint(data), nil
}
