package xml

import (
	"errors"
	"strings"
	"testing"

	xerrors "github.com/FocuswithJustin/xmldoc/core/errors"
	"github.com/FocuswithJustin/xmldoc/core/model"
)

// TestRoundTrip verifies ToXML output parses back to the same bytes.
func TestRoundTrip(t *testing.T) {
	d, err := Parse(testDialect{}, []byte(sampleXML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if err := d.Check(); err != nil {
		t.Errorf("Check() after Parse error = %v", err)
	}

	got, err := d.ToXML()
	if err != nil {
		t.Fatalf("ToXML() error = %v", err)
	}
	if string(got) != sampleXML {
		t.Errorf("round trip =\n%s\nwant\n%s", got, sampleXML)
	}
}

// TestParseContent verifies properties, container order and annotations.
func TestParseContent(t *testing.T) {
	d, err := Parse(testDialect{}, []byte(sampleXML))
	if err != nil {
		t.Fatal(err)
	}

	if d.RootID() != "article-1" {
		t.Errorf("RootID() = %q, want article-1", d.RootID())
	}
	sec, err := d.Container("sec-1")
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(sec.Content(), ","); got != "title-1,p-1,graphic-1" {
		t.Errorf("sec content = %s", got)
	}

	graphic, _ := d.Get("graphic-1")
	if graphic.GetInt("width") != 300 || graphic.GetString("xlink:href") != "fig1.png" {
		t.Errorf("graphic props = %v", graphic.Properties())
	}

	p, _ := d.Get("p-1")
	if p.GetString("content") != "Hello bold world" {
		t.Errorf("p content = %q", p.GetString("content"))
	}
	got := d.AnnotationsForRange("p-1", "content", 7, 8)
	if len(got) != 1 || got[0] != "bold-1" {
		t.Errorf("annotations over [7,8) = %v, want [bold-1]", got)
	}
	bold, _ := d.Get("bold-1")
	if start, end := bold.Offsets(); start != 6 || end != 10 {
		t.Errorf("bold offsets = [%d,%d), want [6,10)", start, end)
	}
	if parent, ok := d.Parent("p-1"); !ok || parent != "sec-1" {
		t.Errorf("Parent(p-1) = %q, %v", parent, ok)
	}
}

// TestParseGeneratesIDs verifies elements without an id attribute get one.
func TestParseGeneratesIDs(t *testing.T) {
	input := `<article><sec><p>one <italic>two</italic></p><p>three</p></sec></article>`
	d, err := Parse(testDialect{}, []byte(input), model.WithIDGenerator(model.SequentialIDs()))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	for _, id := range []string{"article-1", "sec-1", "p-1", "p-2", "italic-1"} {
		if !d.Contains(id) {
			t.Errorf("missing generated id %s", id)
		}
	}
	sec, _ := d.Container("sec-1")
	if got := strings.Join(sec.Content(), ","); got != "p-1,p-2" {
		t.Errorf("sec content = %s, want p-1,p-2", got)
	}
	italic, _ := d.Get("italic-1")
	if path := italic.Path(); len(path) != 2 || path[0] != "p-1" {
		t.Errorf("italic path = %v", path)
	}
}

// TestParseIgnoresContainerWhitespace verifies indentation between block
// elements is not content.
func TestParseIgnoresContainerWhitespace(t *testing.T) {
	input := `<?xml version="1.0"?>
<article id="a">
  <sec id="s">
    <p id="p"> spaced  text </p>
  </sec>
</article>
`
	d, err := Parse(testDialect{}, []byte(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	p, _ := d.Get("p")
	if got := p.GetString("content"); got != " spaced  text " {
		t.Errorf("p content = %q", got)
	}

	out, err := d.ToXML()
	if err != nil {
		t.Fatal(err)
	}
	want := `<article id="a" xmlns:xlink="http://www.w3.org/1999/xlink"><sec id="s"><p id="p"> spaced  text </p></sec></article>`
	if !strings.Contains(string(out), want) {
		t.Errorf("ToXML() =\n%s\nwant element\n%s", out, want)
	}
}

// TestParseUnicodeOffsets verifies annotation offsets count characters.
func TestParseUnicodeOffsets(t *testing.T) {
	input := `<article id="a"><p id="p">naïve <bold id="b">café</bold></p></article>`
	d, err := Parse(testDialect{}, []byte(input))
	if err != nil {
		t.Fatal(err)
	}
	b, _ := d.Get("b")
	if start, end := b.Offsets(); start != 6 || end != 10 {
		t.Errorf("bold offsets = [%d,%d), want [6,10)", start, end)
	}
}

// TestParseErrors verifies malformed and invalid documents are rejected.
func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"malformed", `<article><p>unclosed</article>`, xerrors.ErrInvalidInput},
		{"no root", `<?xml version="1.0"?>`, xerrors.ErrInvalidInput},
		{"unknown element", `<article><table/></article>`, xerrors.ErrSchemaViolation},
		{"text in container", `<article>loose text</article>`, xerrors.ErrSchemaViolation},
		{"block inside text", `<article><p>a <sec/></p></article>`, xerrors.ErrSchemaViolation},
		{"inline outside text", `<article><bold>x</bold></article>`, xerrors.ErrSchemaViolation},
		{"children of empty element", `<article><graphic xlink:href="a"><p/></graphic></article>`, xerrors.ErrSchemaViolation},
		{"undeclared attribute", `<article><p align="left">x</p></article>`, xerrors.ErrSchemaViolation},
		{"bad attribute value", `<article><graphic xlink:href="a" width="wide"/></article>`, xerrors.ErrSchemaViolation},
		{"missing required attribute", `<article><graphic/></article>`, xerrors.ErrSchemaViolation},
		{"duplicate id", `<article><p id="x">a</p><p id="x">b</p></article>`, xerrors.ErrDuplicateID},
		{"doctype mismatch", `<!DOCTYPE book SYSTEM "book.dtd"><article/>`, xerrors.ErrSchemaViolation},
		{"doctype mismatch after declaration", `<?xml version="1.0"?><!DOCTYPE book SYSTEM "book.dtd"><article/>`, xerrors.ErrSchemaViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(testDialect{}, []byte(tt.input))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestParseWithoutDocType verifies the declaration is optional on input.
func TestParseWithoutDocType(t *testing.T) {
	d, err := Parse(testDialect{}, []byte(`<article id="a"/>`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	out, _ := d.ToXML()
	if !strings.Contains(string(out), `<!DOCTYPE article PUBLIC "-//TEST//DTD Article//EN" "article.dtd">`) {
		t.Errorf("ToXML() = %s, want the dialect's DOCTYPE", out)
	}
}

// TestParseMatchingDocType verifies a matching declaration is accepted with
// or without an XML declaration in front.
func TestParseMatchingDocType(t *testing.T) {
	for _, in := range []string{
		`<!DOCTYPE article SYSTEM "other.dtd"><article id="a"/>`,
		`<?xml version="1.0"?>` + "\n" + `<!DOCTYPE article><article id="a"/>`,
	} {
		if _, err := Parse(testDialect{}, []byte(in)); err != nil {
			t.Errorf("Parse(%q) error = %v", in, err)
		}
	}
}

// TestParseRefusesUnimplementedDialect verifies abstract dialects cannot
// read documents.
func TestParseRefusesUnimplementedDialect(t *testing.T) {
	_, err := Parse(partialDialect{}, []byte(sampleXML))
	if !errors.Is(err, xerrors.ErrNotImplemented) {
		t.Errorf("Parse() error = %v, want ErrNotImplemented", err)
	}
}
