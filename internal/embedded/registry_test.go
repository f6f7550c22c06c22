package embedded_test

import (
	"testing"

	"github.com/FocuswithJustin/xmldoc/internal/dialects"
	_ "github.com/FocuswithJustin/xmldoc/internal/embedded"
)

// TestDialectRegistrations verifies that importing the embedded package
// registers every built-in dialect.
func TestDialectRegistrations(t *testing.T) {
	expected := []string{
		"jats",
	}

	for _, name := range expected {
		t.Run(name, func(t *testing.T) {
			d, err := dialects.Lookup(name)
			if err != nil {
				t.Fatalf("dialect %q not registered: %v", name, err)
			}
			if _, err := d.XMLSchema(); err != nil {
				t.Errorf("dialect %q has no schema: %v", name, err)
			}
		})
	}

	if got := len(dialects.Names()); got != len(expected) {
		t.Errorf("Names() lists %d dialects, want %d", got, len(expected))
	}
}
