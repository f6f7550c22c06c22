package xml

import (
	"github.com/FocuswithJustin/xmldoc/core/errors"
	"github.com/FocuswithJustin/xmldoc/core/model"
)

// Dialect is a concrete XML document type. It supplies the document type
// declaration, the element schema and the root element.
type Dialect interface {
	DocTypeParams() (DocType, error)
	XMLSchema() (*Schema, error)
	RootNode(doc *Document) (*model.Node, error)
	DocTypeAsString() (string, error)
}

// Unimplemented can be embedded in a Dialect under construction. Every
// method it provides fails with ErrNotImplemented, and NewDocument refuses
// a dialect that still relies on any of them.
type Unimplemented struct{}

// DocTypeParams implements Dialect.
func (Unimplemented) DocTypeParams() (DocType, error) {
	return DocType{}, errors.NewNotImplemented("DocTypeParams")
}

// XMLSchema implements Dialect.
func (Unimplemented) XMLSchema() (*Schema, error) {
	return nil, errors.NewNotImplemented("XMLSchema")
}

// RootNode implements Dialect.
func (Unimplemented) RootNode(*Document) (*model.Node, error) {
	return nil, errors.NewNotImplemented("RootNode")
}

// DocTypeAsString implements Dialect.
func (Unimplemented) DocTypeAsString() (string, error) {
	return "", errors.NewNotImplemented("DocTypeAsString")
}
