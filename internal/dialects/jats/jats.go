// Package jats is the Journal Article Tag Suite dialect: a small, strict
// subset of the JATS archiving tag set covering article structure, sections,
// figures and inline formatting.
package jats

import (
	"github.com/FocuswithJustin/xmldoc/core/errors"
	"github.com/FocuswithJustin/xmldoc/core/model"
	"github.com/FocuswithJustin/xmldoc/core/schema"
	"github.com/FocuswithJustin/xmldoc/core/xml"
	"github.com/FocuswithJustin/xmldoc/internal/dialects"
)

// Name is the registry name of the dialect.
const Name = "jats"

const (
	xlinkNamespace = "http://www.w3.org/1999/xlink"
	dtdVersion     = "1.2"
)

// DocType is the JATS archiving DTD declaration.
var DocType = xml.DocType{
	QualifiedName: "article",
	PublicID:      "-//NLM//DTD JATS (Z39.96) Journal Archiving and Interchange DTD v1.2 20190208//EN",
	SystemID:      "JATS-archivearticle1.dtd",
}

func text(name string) schema.NodeType {
	return schema.NodeType{Name: name, Properties: []schema.Property{{Name: "content", Kind: schema.Text}}}
}

// Schema is the node and element schema of the dialect.
var Schema = xml.MustNewSchema(schema.MustNew("jats",
	schema.ContainerType("article",
		schema.Property{Name: "xmlns:xlink", Kind: schema.String, Default: xlinkNamespace},
		schema.Property{Name: "article-type", Kind: schema.String},
		schema.Property{Name: "dtd-version", Kind: schema.String, Default: dtdVersion},
	),
	schema.ContainerType("front"),
	schema.ContainerType("article-meta"),
	schema.ContainerType("title-group"),
	text("article-title"),
	schema.ContainerType("abstract"),
	schema.ContainerType("body"),
	schema.ContainerType("back"),
	schema.ContainerType("sec", schema.Property{Name: "sec-type", Kind: schema.String}),
	text("title"),
	text("p"),
	schema.ContainerType("fig", schema.Property{Name: "position", Kind: schema.String}),
	text("label"),
	schema.ContainerType("caption"),
	schema.NodeType{Name: "graphic", Properties: []schema.Property{
		{Name: "xlink:href", Kind: schema.String, Required: true},
		{Name: "mimetype", Kind: schema.String},
	}},
	schema.AnnotationType("bold", schema.Expand),
	schema.AnnotationType("italic", schema.Expand),
	schema.AnnotationType("monospace", schema.Expand),
	schema.AnnotationType("sup", schema.Exclusive),
	schema.AnnotationType("sub", schema.Exclusive),
	schema.AnnotationType("ext-link", schema.Exclusive,
		schema.Property{Name: "ext-link-type", Kind: schema.String},
		schema.Property{Name: "xlink:href", Kind: schema.String, Required: true},
	),
	schema.AnnotationType("xref", schema.StickyStart,
		schema.Property{Name: "ref-type", Kind: schema.String},
		schema.Property{Name: "rid", Kind: schema.Reference},
	),
))

// Dialect implements xml.Dialect for JATS articles.
type Dialect struct{}

// Register adds the dialect to the registry.
func Register() {
	dialects.Register(&dialects.Registration{
		Name:           Name,
		Extensions:     []string{".jats", ".nxml"},
		ContentMarkers: []string{"<!DOCTYPE article", "JATS"},
		New:            func() xml.Dialect { return Dialect{} },
	})
}

func init() {
	Register()
}

// DocTypeParams implements xml.Dialect.
func (Dialect) DocTypeParams() (xml.DocType, error) {
	return DocType, nil
}

// XMLSchema implements xml.Dialect.
func (Dialect) XMLSchema() (*xml.Schema, error) {
	return Schema, nil
}

// RootNode implements xml.Dialect. The document root is used when it is an
// article; otherwise the first article created.
func (Dialect) RootNode(doc *xml.Document) (*model.Node, error) {
	if root, err := doc.Root(); err == nil && root.Type == "article" {
		return root, nil
	}
	ids := doc.NodesByType("article")
	if len(ids) == 0 {
		return nil, errors.NewNotFound("root element", "article")
	}
	return doc.Get(ids[0])
}

// DocTypeAsString implements xml.Dialect.
func (Dialect) DocTypeAsString() (string, error) {
	return DocType.String(), nil
}

// NewArticle returns a document holding an empty article with front matter
// and a body.
func NewArticle(opts ...model.Option) (*xml.Document, error) {
	doc, err := xml.NewDocument(Dialect{}, opts...)
	if err != nil {
		return nil, err
	}
	article, err := doc.CreateElement("article")
	if err != nil {
		return nil, err
	}
	c, err := doc.Container(article)
	if err != nil {
		return nil, err
	}
	for _, tag := range []string{"front", "body"} {
		id, err := doc.CreateElement(tag)
		if err != nil {
			return nil, err
		}
		if err := c.AppendChild(id); err != nil {
			return nil, err
		}
	}
	if err := doc.SetRoot(article); err != nil {
		return nil, err
	}
	return doc, nil
}

// Parse reads a JATS article.
func Parse(data []byte, opts ...model.Option) (*xml.Document, error) {
	return xml.Parse(Dialect{}, data, opts...)
}
