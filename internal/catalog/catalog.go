// Package catalog holds the static menu reference data for the ordering
// engine: products with base prices and priced modifiers. A [Catalog] is
// built once at process start (from the built-in menu or a YAML file) and is
// never mutated afterwards, so it is safe to share across concurrent turns.
package catalog

import (
	"fmt"
	"strings"
)

// Category classifies a catalog item.
type Category string

const (
	CategoryPizza   Category = "pizza"
	CategoryDrink   Category = "drink"
	CategoryDessert Category = "dessert"
)

// IsValid reports whether c is a recognised category.
func (c Category) IsValid() bool {
	switch c {
	case CategoryPizza, CategoryDrink, CategoryDessert:
		return true
	}
	return false
}

// Cents is a money amount in integer cents. Prices are kept in cents so that
// totals and spoken amounts stay exact; the source of truth is never a float.
type Cents int64

// String renders the amount in decimal form, e.g. "10" or "11.50".
func (c Cents) String() string {
	if c%100 == 0 {
		return fmt.Sprintf("%d", c/100)
	}
	return fmt.Sprintf("%d.%02d", c/100, c%100)
}

// Spoken renders the amount the way it should be read out loud,
// e.g. "10 euros" or "11 euros 50".
func (c Cents) Spoken() string {
	if c%100 == 0 {
		return fmt.Sprintf("%d euros", c/100)
	}
	return fmt.Sprintf("%d euros %02d", c/100, c%100)
}

// Item is a single orderable product. Items are immutable once the catalog is
// constructed.
type Item struct {
	// Key is the lowercase identifier matched against transcripts (e.g. "margherita").
	Key string `yaml:"key"`

	// Label is the display name used in prompts and order records.
	Label string `yaml:"label"`

	// BasePrice is the price before modifiers.
	BasePrice Cents `yaml:"price_cents"`

	// Category determines which dialogue flow offers the item and whether
	// modifiers apply (pizza only).
	Category Category `yaml:"category"`

	// Ingredients lists the default ingredients, used when describing pizzas.
	Ingredients []string `yaml:"ingredients"`
}

// Modifier is a priced add-on. Modifiers apply only to pizza items.
type Modifier struct {
	Key   string `yaml:"key"`
	Label string `yaml:"label"`
	Price Cents  `yaml:"price_cents"`
}

// Catalog is the immutable menu. Item order is significant: substring matches
// are resolved in declaration order (first match wins).
type Catalog struct {
	items     []Item
	modifiers []Modifier
}

// Provider is the read-only view of the menu consumed by the engine.
type Provider interface {
	// ListItems returns all items in declaration order.
	ListItems() []Item

	// ListModifiers returns all modifiers in declaration order.
	ListModifiers() []Modifier
}

var _ Provider = (*Catalog)(nil)

// New builds a Catalog from the given items and modifiers. The slices are
// copied; callers may not mutate the catalog through them afterwards.
func New(items []Item, modifiers []Modifier) (*Catalog, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("catalog: at least one item is required")
	}

	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.Key == "" || it.Label == "" {
			return nil, fmt.Errorf("catalog: item %q: key and label are required", it.Label)
		}
		if !it.Category.IsValid() {
			return nil, fmt.Errorf("catalog: item %q: unknown category %q", it.Label, it.Category)
		}
		if it.BasePrice < 0 {
			return nil, fmt.Errorf("catalog: item %q: negative price", it.Label)
		}
		if _, dup := seen[it.Key]; dup {
			return nil, fmt.Errorf("catalog: duplicate item key %q", it.Key)
		}
		seen[it.Key] = struct{}{}
	}
	for _, m := range modifiers {
		if m.Key == "" || m.Label == "" {
			return nil, fmt.Errorf("catalog: modifier %q: key and label are required", m.Label)
		}
		if m.Price < 0 {
			return nil, fmt.Errorf("catalog: modifier %q: negative price", m.Label)
		}
	}

	c := &Catalog{
		items:     make([]Item, len(items)),
		modifiers: make([]Modifier, len(modifiers)),
	}
	copy(c.items, items)
	copy(c.modifiers, modifiers)
	return c, nil
}

// ListItems implements [Provider].
func (c *Catalog) ListItems() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// ListModifiers implements [Provider].
func (c *Catalog) ListModifiers() []Modifier {
	out := make([]Modifier, len(c.modifiers))
	copy(out, c.modifiers)
	return out
}

// ItemByLabel returns the item with the given display label.
func (c *Catalog) ItemByLabel(label string) (Item, bool) {
	for _, it := range c.items {
		if strings.EqualFold(it.Label, label) {
			return it, true
		}
	}
	return Item{}, false
}

// ModifierByLabel returns the modifier with the given display label.
func (c *Catalog) ModifierByLabel(label string) (Modifier, bool) {
	for _, m := range c.modifiers {
		if strings.EqualFold(m.Label, label) {
			return m, true
		}
	}
	return Modifier{}, false
}

// ItemsInCategory returns all items of the given category in declaration order.
func (c *Catalog) ItemsInCategory(cat Category) []Item {
	var out []Item
	for _, it := range c.items {
		if it.Category == cat {
			out = append(out, it)
		}
	}
	return out
}
