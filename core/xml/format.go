package xml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/FocuswithJustin/xmldoc/core/encoding"
	"github.com/FocuswithJustin/xmldoc/core/errors"
)

// FormatOptions controls XML formatting behavior.
type FormatOptions struct {
	Indent string // Indentation string (e.g., "  " or "\t")
}

// prolog records what precedes the root element. xmlquery adds a
// declaration node to input without one and drops the DOCTYPE of such
// input, so both are taken from the token stream.
type prolog struct {
	declaration bool
	// docType is the DOCTYPE notation without its "<!" and ">".
	docType string
}

// CheckWellFormed reports the first well-formedness error in data as a
// ParseError carrying its line and column.
//
// Security: entity expansion is disabled, and encoding/xml never fetches
// external entities.
func CheckWellFormed(data []byte) error {
	_, err := scan(data)
	return err
}

func scan(data []byte) (prolog, error) {
	var p prolog
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Entity = map[string]string{}

	inProlog := true
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return p, nil
		}
		if err != nil {
			line, column := decoder.InputPos()
			return p, &errors.ParseError{
				Format:  "XML",
				Message: fmt.Sprintf("line %d, column %d: %v", line, column, err),
				Err:     errors.ErrInvalidInput,
			}
		}
		if !inProlog {
			continue
		}
		switch t := tok.(type) {
		case xml.ProcInst:
			if t.Target == "xml" {
				p.declaration = true
			}
		case xml.Directive:
			if _, ok := parseDocTypeName(string(t)); ok && p.docType == "" {
				p.docType = strings.TrimSpace(string(t))
			}
		case xml.StartElement:
			inProlog = false
		}
	}
}

// Format pretty-prints XML data. Whitespace-only text is dropped and
// element-only content is indented; text content is kept on the line of
// its element. The XML declaration is written only when the input has one.
// The result is for reading, not for Parse round trips.
func Format(data []byte, opts FormatOptions) ([]byte, error) {
	if opts.Indent == "" {
		opts.Indent = "  "
	}
	p, err := scan(data)
	if err != nil {
		return nil, err
	}
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &errors.ParseError{Format: "XML", Message: err.Error(), Err: errors.ErrInvalidInput}
	}

	var buf bytes.Buffer
	docTypeDone := false
	for n := root.FirstChild; n != nil; n = n.NextSibling {
		switch n.Type {
		case xmlquery.DeclarationNode:
			if !p.declaration {
				continue
			}
		case xmlquery.NotationNode:
			docTypeDone = true
		case xmlquery.ElementNode:
			if !docTypeDone && p.docType != "" {
				buf.WriteString("<!" + p.docType + ">\n")
				docTypeDone = true
			}
		}
		formatNode(&buf, n, 0, opts.Indent)
	}
	return buf.Bytes(), nil
}

// formatNode recursively formats an XML node.
func formatNode(w *bytes.Buffer, n *xmlquery.Node, depth int, indent string) {
	switch n.Type {
	case xmlquery.DeclarationNode:
		w.WriteString("<?xml")
		for _, attr := range n.Attr {
			w.WriteString(" ")
			w.WriteString(attr.Name.Local)
			w.WriteString("=\"")
			w.WriteString(encoding.EscapeXMLAttr(attr.Value))
			w.WriteString("\"")
		}
		w.WriteString("?>\n")

	case xmlquery.NotationNode:
		w.WriteString("<!")
		w.WriteString(n.Data)
		w.WriteString(">\n")

	case xmlquery.ElementNode:
		writeIndent(w, depth, indent)
		w.WriteString("<")
		w.WriteString(elementName(n))
		for _, attr := range n.Attr {
			w.WriteString(" ")
			w.WriteString(attrName(attr))
			w.WriteString("=\"")
			w.WriteString(encoding.EscapeXMLAttr(attr.Value))
			w.WriteString("\"")
		}

		if n.FirstChild == nil {
			w.WriteString("/>\n")
			return
		}

		// Mixed content stays on one line so no text is altered.
		blockChildren := true
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if (child.Type == xmlquery.TextNode || child.Type == xmlquery.CharDataNode) &&
				strings.TrimSpace(child.Data) != "" {
				blockChildren = false
				break
			}
		}

		w.WriteString(">")
		if blockChildren {
			w.WriteString("\n")
			for child := n.FirstChild; child != nil; child = child.NextSibling {
				if child.Type == xmlquery.ElementNode || child.Type == xmlquery.CommentNode {
					formatNode(w, child, depth+1, indent)
				}
			}
			writeIndent(w, depth, indent)
		} else {
			for child := n.FirstChild; child != nil; child = child.NextSibling {
				formatInline(w, child)
			}
		}
		w.WriteString("</")
		w.WriteString(elementName(n))
		w.WriteString(">\n")

	case xmlquery.CommentNode:
		writeIndent(w, depth, indent)
		w.WriteString("<!--")
		w.WriteString(n.Data)
		w.WriteString("-->\n")
	}
}

// formatInline writes mixed content verbatim.
func formatInline(w *bytes.Buffer, n *xmlquery.Node) {
	switch n.Type {
	case xmlquery.TextNode:
		w.WriteString(encoding.EscapeXMLText(n.Data))
	case xmlquery.CharDataNode:
		w.WriteString("<![CDATA[")
		w.WriteString(n.Data)
		w.WriteString("]]>")
	case xmlquery.CommentNode:
		w.WriteString("<!--")
		w.WriteString(n.Data)
		w.WriteString("-->")
	case xmlquery.ElementNode:
		w.WriteString("<")
		w.WriteString(elementName(n))
		for _, attr := range n.Attr {
			w.WriteString(" ")
			w.WriteString(attrName(attr))
			w.WriteString("=\"")
			w.WriteString(encoding.EscapeXMLAttr(attr.Value))
			w.WriteString("\"")
		}
		if n.FirstChild == nil {
			w.WriteString("/>")
			return
		}
		w.WriteString(">")
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			formatInline(w, child)
		}
		w.WriteString("</")
		w.WriteString(elementName(n))
		w.WriteString(">")
	}
}

func writeIndent(w *bytes.Buffer, depth int, indent string) {
	for i := 0; i < depth; i++ {
		w.WriteString(indent)
	}
}
