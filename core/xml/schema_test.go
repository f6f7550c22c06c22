package xml

import (
	"errors"
	"reflect"
	"testing"

	xerrors "github.com/FocuswithJustin/xmldoc/core/errors"
	"github.com/FocuswithJustin/xmldoc/core/schema"
)

// TestDerivedElementSchemas verifies the content kind and attributes
// derived from node types.
func TestDerivedElementSchemas(t *testing.T) {
	tests := []struct {
		typeName   string
		content    ContentKind
		attributes []string
		text       string
	}{
		{"article", ContainerContent, []string{"xmlns:xlink", "lang"}, ""},
		{"sec", ContainerContent, []string{"sec-type"}, ""},
		{"p", TextContent, nil, "content"},
		{"graphic", EmptyContent, []string{"xlink:href", "width"}, ""},
		{"bold", InlineContent, nil, ""},
		{"ext-link", InlineContent, []string{"xlink:href"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			es, err := testXMLSchema.GetElementSchema(tt.typeName)
			if err != nil {
				t.Fatal(err)
			}
			if es.Content != tt.content {
				t.Errorf("Content = %v, want %v", es.Content, tt.content)
			}
			if !reflect.DeepEqual(es.Attributes, tt.attributes) {
				t.Errorf("Attributes = %v, want %v", es.Attributes, tt.attributes)
			}
			if es.TextProperty != tt.text {
				t.Errorf("TextProperty = %q, want %q", es.TextProperty, tt.text)
			}
		})
	}

	if _, err := testXMLSchema.GetElementSchema("table"); !errors.Is(err, xerrors.ErrSchemaViolation) {
		t.Errorf("GetElementSchema(table) error = %v, want ErrSchemaViolation", err)
	}
}

// TestSchemaOverrides verifies overrides are applied and validated.
func TestSchemaOverrides(t *testing.T) {
	s := schema.MustNew("notes",
		schema.NodeType{Name: "note", Properties: []schema.Property{
			{Name: "title", Kind: schema.Text},
			{Name: "body", Kind: schema.Text},
			{Name: "level", Kind: schema.Integer},
		}},
		schema.ContainerType("list"),
	)

	xs, err := NewSchema(s, ElementSchema{Type: "note", Content: TextContent, TextProperty: "body", Attributes: []string{"level"}})
	if err != nil {
		t.Fatalf("NewSchema() error = %v", err)
	}
	es, _ := xs.GetElementSchema("note")
	if es.Content != TextContent || es.TextProperty != "body" {
		t.Errorf("note = %+v", es)
	}

	bad := []ElementSchema{
		{Type: "missing"},
		{Type: "note", Content: ContainerContent},
		{Type: "note", Content: TextContent, TextProperty: "level"},
		{Type: "note", Content: InlineContent},
		{Type: "note", Content: MixedContent, TextProperty: "body"},
		{Type: "list", Content: MixedContent, TextProperty: "title"},
		{Type: "note", Attributes: []string{"title"}},
		{Type: "note", Attributes: []string{"level", "level"}},
		{Type: "note", Attributes: []string{"color"}},
		{Type: "list", Attributes: []string{schema.DefaultContainerProperty}},
	}
	for _, o := range bad {
		if _, err := NewSchema(s, o); !errors.Is(err, xerrors.ErrSchemaViolation) {
			t.Errorf("NewSchema(%+v) error = %v, want ErrSchemaViolation", o, err)
		}
	}
}

// TestDocTypeString verifies the three declaration forms.
func TestDocTypeString(t *testing.T) {
	tests := []struct {
		dt   DocType
		want string
	}{
		{DocType{QualifiedName: "html"}, "<!DOCTYPE html>"},
		{DocType{QualifiedName: "book", SystemID: "book.dtd"}, `<!DOCTYPE book SYSTEM "book.dtd">`},
		{DocType{QualifiedName: "article", PublicID: "-//X//EN", SystemID: "a.dtd"}, `<!DOCTYPE article PUBLIC "-//X//EN" "a.dtd">`},
	}
	for _, tt := range tests {
		if got := tt.dt.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
		name, ok := parseDocTypeName(tt.dt.Notation())
		if !ok || name != tt.dt.QualifiedName {
			t.Errorf("parseDocTypeName(%q) = %q, %v", tt.dt.Notation(), name, ok)
		}
	}
}
