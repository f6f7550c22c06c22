// Package embedded registers every built-in dialect. Import it for its side
// effects.
package embedded

import (
	// Dialects register themselves from init.
	_ "github.com/FocuswithJustin/xmldoc/internal/dialects/jats"
)
