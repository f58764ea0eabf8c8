// Package catalog resolves downloadable resource keys to their title and
// public path. The catalog is static configuration, loaded once and read-only.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed resources.yaml
var defaultResources []byte

// Entry is one downloadable resource.
type Entry struct {
	Title string `yaml:"title"`
	Path  string `yaml:"path"` // absolute web path, leading slash
}

// Catalog maps resource keys to entries. It is never mutated after construction.
type Catalog struct {
	entries map[string]Entry
}

// New copies entries into a Catalog.
func New(entries map[string]Entry) *Catalog {
	m := make(map[string]Entry, len(entries))
	for k, e := range entries {
		m[k] = e
	}
	return &Catalog{entries: m}
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(defaultResources)
}

// Parse decodes a YAML document of key -> {title, path}.
func Parse(data []byte) (*Catalog, error) {
	var entries map[string]Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for key, e := range entries {
		if e.Title == "" || !strings.HasPrefix(e.Path, "/") {
			return nil, fmt.Errorf("catalog entry %q: title required and path must start with /", key)
		}
	}
	return New(entries), nil
}

// LoadFile reads a YAML catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Resolve looks up key. ok is false for unknown keys.
func (c *Catalog) Resolve(key string) (Entry, bool) {
	e, ok := c.entries[key]
	return e, ok
}

// Has reports whether key is in the catalog.
func (c *Catalog) Has(key string) bool {
	_, ok := c.entries[key]
	return ok
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// Link joins baseURL and the entry path into an absolute download URL.
func Link(baseURL string, e Entry) string {
	return strings.TrimRight(baseURL, "/") + e.Path
}

// OnDisk reports whether the entry's file exists below docRoot. It is an
// advisory check used to catch typos in the catalog; an empty docRoot
// disables it and reports true.
func OnDisk(docRoot string, e Entry) (string, bool) {
	if docRoot == "" {
		return "", true
	}
	fsPath := filepath.Join(docRoot, filepath.FromSlash(e.Path))
	if _, err := os.Stat(fsPath); err != nil {
		return fsPath, false
	}
	return fsPath, true
}
