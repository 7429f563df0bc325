package dialogue

import (
	"fmt"

	"github.com/ordervox/ordervox/internal/cart"
	"github.com/ordervox/ordervox/internal/catalog"
	"github.com/ordervox/ordervox/internal/order"
)

// Fixed prompts. Everything spoken to the caller originates here (or in
// catalog.Describe); the transport layer only renders text it is handed.
const (
	promptGreeting = "Hello, this is the pizzeria. What would you like to order?"

	promptAnythingElse  = "Would you like anything else?"
	promptWhatToAdd     = "All right. Tell me what you would like to add."
	promptExtrasOffer   = "Would you like a drink or a dessert?"
	promptEditIntro     = "All right. Tell me what you would like to change. For example: remove the Coca, add a Reine, or a Margherita without basil."
	promptEditClarify   = "I did not catch that change. Tell me what you would like to modify."
	promptRecapClarify  = "Say yes to confirm, or tell me what you would like to change."
	promptTypeQuestion  = "Is that for delivery or takeaway?"
	promptNameQuestion  = "What name is the order under?"
	promptPhoneQuestion = "Thank you. What is your phone number?"
	promptAddressFull   = "What is the full delivery address?"
	promptAddressRetry  = "I need the house number, the street and the city. For example: 12 Baker Street, Springfield."

	promptEmptyCart = "I have not noted anything yet. Tell me what you would like to order."

	promptEscalation = "I am sorry, I am having trouble understanding you. Please hold while I transfer you to a colleague."
	promptCancelled  = "Understood, I have cancelled the order. Thank you for calling, goodbye."

	promptTerminalConfirmed = "Your order is already registered. Thank you, goodbye."
	promptTerminalCancelled = "This call has ended. Please call back to place an order. Goodbye."

	confirmationTakeaway = "Your order is registered. We will call you when it is ready for pickup. Thank you and see you soon."
	confirmationDelivery = "Your order is registered and will be delivered to you. Thank you and see you soon."
)

// Greeting is the first prompt of a call, before any speech arrives.
func Greeting() string { return promptGreeting }

// TerminalMessage is the fixed message for turns arriving after the session
// reached a terminal lifecycle.
func TerminalMessage(l order.Lifecycle) string {
	if l == order.LifecycleConfirmed {
		return promptTerminalConfirmed
	}
	return promptTerminalCancelled
}

// recapText enumerates the cart and asks for confirmation.
func recapText(c *cart.Cart) string {
	if c.IsEmpty() {
		return promptEmptyCart
	}
	return fmt.Sprintf("Let me recap: %s. Total %s. Do you confirm?",
		c.Describe(), c.Total().Spoken())
}

// addedText acknowledges freshly parsed items.
func addedText(items []cart.LineItem) string {
	if len(items) == 1 {
		return fmt.Sprintf("Very well, I have added %s.", items[0].Describe())
	}
	s := "Very well, I have added"
	for i, li := range items {
		if i > 0 {
			s += ";"
		}
		s += " " + li.Describe()
	}
	return s + "."
}

// listenClarify suggests concrete things to say, built from the catalog so
// the examples always exist on the menu.
func listenClarify(cat *catalog.Catalog) string {
	pizzas := cat.ItemsInCategory(catalog.CategoryPizza)
	drinks := cat.ItemsInCategory(catalog.CategoryDrink)
	if len(pizzas) == 0 || len(drinks) == 0 {
		return "I did not understand. Tell me what you would like to order, or ask for the menu."
	}
	return fmt.Sprintf("I did not understand. You can say for example: one %s, or one %s. I can also read you the menu.",
		pizzas[0].Label, drinks[0].Label)
}

// extrasClarify suggests drinks and desserts during the upsell.
func extrasClarify(cat *catalog.Catalog) string {
	drinks := cat.ItemsInCategory(catalog.CategoryDrink)
	desserts := cat.ItemsInCategory(catalog.CategoryDessert)
	if len(drinks) == 0 || len(desserts) == 0 {
		return promptExtrasOffer
	}
	return fmt.Sprintf("You can say for example: %s, %s, or %s.",
		drinks[0].Label, drinks[len(drinks)-1].Label, desserts[0].Label)
}

func confirmationText(f order.Fulfillment, total catalog.Cents) string {
	base := confirmationTakeaway
	if f == order.FulfillmentDelivery {
		base = confirmationDelivery
	}
	return fmt.Sprintf("Noted, the total is %s. %s", total.Spoken(), base)
}
