package catalog

import "strings"

// Default returns the built-in pizzeria menu. It is used when no catalog file
// is configured.
func Default() *Catalog {
	c, err := New(
		[]Item{
			{Key: "margherita", Label: "Margherita", BasePrice: 1000, Category: CategoryPizza, Ingredients: []string{"tomato", "mozzarella", "basil"}},
			{Key: "reine", Label: "Reine", BasePrice: 1100, Category: CategoryPizza, Ingredients: []string{"tomato", "mozzarella", "ham", "mushrooms"}},
			{Key: "pepperoni", Label: "Pepperoni", BasePrice: 1200, Category: CategoryPizza, Ingredients: []string{"tomato", "mozzarella", "pepperoni"}},
			{Key: "coca", Label: "Coca", BasePrice: 300, Category: CategoryDrink},
			{Key: "water", Label: "Water", BasePrice: 200, Category: CategoryDrink},
			{Key: "ice tea", Label: "Ice Tea", BasePrice: 300, Category: CategoryDrink},
			{Key: "tiramisu", Label: "Tiramisu", BasePrice: 500, Category: CategoryDessert},
			{Key: "brownie", Label: "Brownie", BasePrice: 400, Category: CategoryDessert},
			{Key: "ice cream", Label: "Ice Cream", BasePrice: 400, Category: CategoryDessert},
		},
		[]Modifier{
			{Key: "cheese", Label: "Cheese", Price: 200},
			{Key: "olives", Label: "Olives", Price: 100},
			{Key: "mushrooms", Label: "Mushrooms", Price: 150},
		},
	)
	if err != nil {
		// The built-in menu is validated by tests; a construction error here
		// is a programming mistake.
		panic(err)
	}
	return c
}

// Describe returns the spoken menu enumeration: pizzas, drinks, desserts and
// toppings with their prices, ending with an invitation to order.
func (c *Catalog) Describe() string {
	var b strings.Builder
	b.WriteString("Here is the menu. ")
	b.WriteString("Pizzas: " + priceList(c.ItemsInCategory(CategoryPizza)) + ". ")
	b.WriteString("Drinks: " + priceList(c.ItemsInCategory(CategoryDrink)) + ". ")
	b.WriteString("Desserts: " + priceList(c.ItemsInCategory(CategoryDessert)) + ". ")

	if len(c.modifiers) > 0 {
		parts := make([]string, len(c.modifiers))
		for i, m := range c.modifiers {
			parts[i] = m.Label + " plus " + m.Price.Spoken()
		}
		b.WriteString("Available toppings: " + strings.Join(parts, ", ") + ". ")
	}

	b.WriteString("Tell me what you would like to order.")
	return b.String()
}

func priceList(items []Item) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.Label + " at " + it.BasePrice.Spoken()
	}
	return strings.Join(parts, ", ")
}
