// Package cart models the accumulating order draft: line items with
// quantities, modifiers and computed unit prices. Everything here is pure
// data and pure functions; persistence and dialogue policy live elsewhere.
package cart

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ordervox/ordervox/internal/catalog"
)

// Size is a pizza size annotation. The empty value means unspecified.
type Size string

const (
	SizeSmall  Size = "S"
	SizeMedium Size = "M"
	SizeLarge  Size = "L"
)

// Spoken returns the size word used in prompts ("small", "medium", "large").
func (s Size) Spoken() string {
	switch s {
	case SizeSmall:
		return "small"
	case SizeMedium:
		return "medium"
	case SizeLarge:
		return "large"
	}
	return ""
}

// LineItem is one ordered product. Additions and Removals are kept disjoint:
// a label never appears in both. Removals encode preparation instructions and
// do not affect the price; UnitPrice is base price plus addition prices.
type LineItem struct {
	Category  catalog.Category `json:"category"`
	Label     string           `json:"label"`
	Quantity  int              `json:"quantity"`
	Size      Size             `json:"size,omitempty"`
	Additions []string         `json:"additions,omitempty"`
	Removals  []string         `json:"removals,omitempty"`
	UnitPrice catalog.Cents    `json:"unit_price_cents"`
}

// AddAddition records a priced add-on on the item. If the same label was
// previously a removal, the removal is dropped to keep the sets disjoint.
// Duplicate additions are ignored.
func (li *LineItem) AddAddition(label string) {
	li.Removals = deleteFold(li.Removals, label)
	if !containsFold(li.Additions, label) {
		li.Additions = append(li.Additions, label)
	}
}

// AddRemoval records an ingredient to leave out. If the same label was
// previously an addition, the addition is dropped. Duplicates are ignored.
func (li *LineItem) AddRemoval(name string) {
	li.Additions = deleteFold(li.Additions, name)
	if !containsFold(li.Removals, name) {
		li.Removals = append(li.Removals, name)
	}
}

// Reprice recomputes UnitPrice as basePrice plus the price of each addition,
// looked up through modifierPrice. Removals never change the price.
func (li *LineItem) Reprice(basePrice catalog.Cents, modifierPrice func(label string) (catalog.Cents, bool)) {
	price := basePrice
	for _, a := range li.Additions {
		if p, ok := modifierPrice(a); ok {
			price += p
		}
	}
	li.UnitPrice = price
}

// Describe renders the item the way it is read back to the caller:
// "2 pizzas Reine, large, with Cheese, without mushrooms".
func (li LineItem) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s", li.Quantity, categoryWord(li.Category, li.Quantity))
	b.WriteString(" " + li.Label)
	if li.Category == catalog.CategoryPizza && li.Size != "" {
		b.WriteString(", " + li.Size.Spoken())
	}
	if len(li.Additions) > 0 {
		b.WriteString(", with " + strings.Join(li.Additions, " and "))
	}
	if len(li.Removals) > 0 {
		b.WriteString(", without " + strings.Join(li.Removals, " and "))
	}
	return b.String()
}

func categoryWord(c catalog.Category, qty int) string {
	word := string(c)
	if word == "" {
		word = "item"
	}
	if qty > 1 {
		word += "s"
	}
	return word
}

// Cart is the order draft. ExtrasOffered is a one-shot flag: the drink and
// dessert upsell is offered at most once per call.
type Cart struct {
	Items         []LineItem `json:"items"`
	ExtrasOffered bool       `json:"extras_offered,omitempty"`
}

// Add appends a line item to the cart.
func (c *Cart) Add(li LineItem) {
	c.Items = append(c.Items, li)
}

// Total returns the cart total, always recomputed from the line items.
func (c *Cart) Total() catalog.Cents {
	var total catalog.Cents
	for _, li := range c.Items {
		total += li.UnitPrice * catalog.Cents(li.Quantity)
	}
	return total
}

// IsEmpty reports whether the cart holds no items.
func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

// HasPizza reports whether at least one line item is a pizza.
func (c *Cart) HasPizza() bool {
	for _, li := range c.Items {
		if li.Category == catalog.CategoryPizza {
			return true
		}
	}
	return false
}

// RemoveByLabel deletes the first line item whose label matches
// (case-insensitively) and returns it. The second return is false when no
// item matched; the cart is left unchanged in that case.
func (c *Cart) RemoveByLabel(label string) (LineItem, bool) {
	for i, li := range c.Items {
		if strings.EqualFold(li.Label, label) {
			c.Items = slices.Delete(c.Items, i, i+1)
			return li, true
		}
	}
	return LineItem{}, false
}

// RemoveLast deletes and returns the most recently added line item.
// The second return is false when the cart is empty.
func (c *Cart) RemoveLast() (LineItem, bool) {
	if len(c.Items) == 0 {
		return LineItem{}, false
	}
	li := c.Items[len(c.Items)-1]
	c.Items = c.Items[:len(c.Items)-1]
	return li, true
}

// LastPizza returns a pointer to the most recently added pizza line item,
// scanning from the end of the list. Returns nil when the cart has no pizza.
// The pointer stays valid until the cart's item list is next mutated.
func (c *Cart) LastPizza() *LineItem {
	for i := len(c.Items) - 1; i >= 0; i-- {
		if c.Items[i].Category == catalog.CategoryPizza {
			return &c.Items[i]
		}
	}
	return nil
}

// Describe enumerates every line item, comma-joined, for the recap readback.
// An empty cart yields the empty string.
func (c *Cart) Describe() string {
	parts := make([]string, len(c.Items))
	for i, li := range c.Items {
		parts[i] = li.Describe()
	}
	return strings.Join(parts, "; ")
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func deleteFold(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if !strings.EqualFold(v, s) {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
