// Package catalog holds the library of named analyses: for each report
// section, the table config to run, the conclusion routine to apply, and
// the column titles to print. Catalogs load from YAML so analysts can add
// or tune sections without a rebuild; Default returns the built-in set.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/propstat-org/propstat/engine"
)

// Entry is one named analysis in the catalog.
type Entry struct {
	// Key identifies the entry, e.g. "area_segment_distribution".
	Key string `yaml:"key"`

	// Title is the human heading for rendered output.
	Title string `yaml:"title"`

	// Config is the table pipeline to run.
	Config engine.AnalysisConfig `yaml:"config"`

	// Conclusion names the routine applied to the finished table.
	// Empty means the entry produces a table only.
	Conclusion string `yaml:"conclusion,omitempty"`

	// Threshold parameterizes conclusion routines that split segments.
	Threshold float64 `yaml:"threshold,omitempty"`

	// Columns overrides the printed column titles, in table order.
	Columns []string `yaml:"columns,omitempty"`
}

// Catalog is an ordered set of entries addressable by key.
type Catalog struct {
	entries []Entry
	byKey   map[string]int
}

// New builds a catalog from entries, validating each config and rejecting
// duplicate keys.
func New(entries []Entry) (*Catalog, error) {
	c := &Catalog{byKey: make(map[string]int, len(entries))}
	for _, e := range entries {
		if e.Key == "" {
			return nil, fmt.Errorf("catalog entry %q: missing key", e.Title)
		}
		if _, dup := c.byKey[e.Key]; dup {
			return nil, fmt.Errorf("catalog entry %q: duplicate key", e.Key)
		}
		if err := e.Config.Validate(); err != nil {
			return nil, fmt.Errorf("catalog entry %q: %w", e.Key, err)
		}
		c.byKey[e.Key] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc struct {
		Entries []Entry `yaml:"entries"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(doc.Entries)
}

// Load reads and parses a YAML catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return Parse(data)
}

// Get returns the entry for key.
func (c *Catalog) Get(key string) (Entry, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Keys returns every entry key in catalog order.
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.entries))
	for i, e := range c.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns the entries in catalog order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}
