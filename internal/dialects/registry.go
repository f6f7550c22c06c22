// Package dialects keeps the registry of XML dialects the command line can
// read and write. Dialect packages register themselves from init.
package dialects

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/FocuswithJustin/xmldoc/core/errors"
	"github.com/FocuswithJustin/xmldoc/core/xml"
)

// Registration describes a dialect and how to recognize its documents.
type Registration struct {
	// Name is the lookup key, e.g. "jats".
	Name string
	// Extensions are file extensions that suggest the dialect (".jats").
	Extensions []string
	// ContentMarkers must all appear in a document of this dialect.
	ContentMarkers []string
	// New returns the dialect.
	New func() xml.Dialect
}

// DetectResult reports which dialect, if any, a document belongs to.
type DetectResult struct {
	Detected bool
	Dialect  string
	Reason   string
}

var (
	mu       sync.RWMutex
	registry = make(map[string]*Registration)
)

// Register adds a dialect. Registering a name twice replaces the first
// registration.
func Register(r *Registration) {
	if r == nil || r.Name == "" || r.New == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	registry[r.Name] = r
}

// Lookup returns the dialect registered under name.
func Lookup(name string) (xml.Dialect, error) {
	mu.RLock()
	r, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, errors.NewNotFound("dialect", name)
	}
	return r.New(), nil
}

// Names returns the registered dialect names in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Detect picks the dialect of a document from its content markers, falling
// back to the file extension of path.
func Detect(path string, data []byte) DetectResult {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		r := registry[name]
		if len(r.ContentMarkers) == 0 {
			continue
		}
		found := true
		for _, marker := range r.ContentMarkers {
			if !bytes.Contains(data, []byte(marker)) {
				found = false
				break
			}
		}
		if found {
			return DetectResult{Detected: true, Dialect: name, Reason: fmt.Sprintf("%s markers detected", name)}
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	for _, name := range names {
		for _, e := range registry[name].Extensions {
			if ext != "" && ext == strings.ToLower(e) {
				return DetectResult{Detected: true, Dialect: name, Reason: fmt.Sprintf("%s file extension detected", name)}
			}
		}
	}
	return DetectResult{Reason: "no registered dialect matches"}
}

// reset clears the registry (for testing).
func reset() {
	mu.Lock()
	defer mu.Unlock()
	registry = make(map[string]*Registration)
}
