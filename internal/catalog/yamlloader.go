package catalog

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// MenuFile is the top-level structure of a catalog YAML file.
//
// Example:
//
//	items:
//	  - key: margherita
//	    label: Margherita
//	    price_cents: 1000
//	    category: pizza
//	    ingredients: [tomato, mozzarella, basil]
//	modifiers:
//	  - key: olives
//	    label: Olives
//	    price_cents: 100
type MenuFile struct {
	Items     []Item     `yaml:"items"`
	Modifiers []Modifier `yaml:"modifiers"`
}

// LoadFile reads and parses a catalog YAML file from disk and builds a
// validated [Catalog] from it.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open menu file %q: %w", path, err)
	}
	defer f.Close()

	c, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("catalog: parse menu file %q: %w", path, err)
	}
	return c, nil
}

// LoadFromReader parses catalog YAML from an [io.Reader]. The reader is
// consumed entirely; the caller is responsible for closing it.
func LoadFromReader(r io.Reader) (*Catalog, error) {
	var mf MenuFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true) // reject unknown keys to catch typos
	if err := dec.Decode(&mf); err != nil {
		return nil, fmt.Errorf("catalog: decode menu yaml: %w", err)
	}
	return New(mf.Items, mf.Modifiers)
}
