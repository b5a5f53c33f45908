// Package treatment serves the static remediation catalogue keyed by
// disease label. The catalogue is read-only reference data loaded once.
package treatment

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed treatments.yaml
var defaultCatalogue []byte

// Entry is one remediation step for a disease.
type Entry struct {
	Title string `yaml:"title" json:"title"`
	Desc  string `yaml:"desc" json:"desc"`
}

// Catalogue is an immutable label → treatments lookup with a fallback
// entry under the "default" key.
type Catalogue struct {
	entries map[string][]Entry
}

// Load parses the embedded catalogue.
func Load() (*Catalogue, error) {
	return Parse(defaultCatalogue)
}

// Parse builds a Catalogue from YAML data.
func Parse(data []byte) (*Catalogue, error) {
	entries := map[string][]Entry{}
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse treatment catalogue: %w", err)
	}
	return &Catalogue{entries: entries}, nil
}

// Lookup returns the treatments for a disease label. Labels without a
// dedicated entry fall back to the "default" entry; ok is false only when
// neither exists.
func (c *Catalogue) Lookup(disease string) (entries []Entry, ok bool) {
	if e, found := c.entries[disease]; found {
		return e, true
	}
	if e, found := c.entries["default"]; found {
		return e, true
	}
	return nil, false
}
