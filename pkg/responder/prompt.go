package responder

import (
	"strings"

	"github.com/ordervox/ordervox/internal/catalog"
)

// SystemPrompt builds the instruction block sent to the language model. It
// anchors the model to the telephone register: short sentences, one question
// per turn, no invented menu items or prices.
func SystemPrompt(restaurant string, cat catalog.Provider) string {
	var b strings.Builder
	b.WriteString("You are the phone assistant for the pizzeria ")
	b.WriteString(restaurant)
	b.WriteString(", taking an order over a voice call.\n\n")
	b.WriteString("Style rules (VOICE):\n")
	b.WriteString("- Very short sentences, one or two at most.\n")
	b.WriteString("- ONE question at a time.\n")
	b.WriteString("- Natural, polite tone. No technical jargon.\n")
	b.WriteString("- Say \"delivery\" or \"takeaway\" in plain words.\n\n")
	b.WriteString("Your task:\n")
	b.WriteString("Rephrase the scripted line you are given so it sounds natural when spoken aloud. ")
	b.WriteString("Keep the exact meaning. Never change item names, quantities or prices. ")
	b.WriteString("Never add items, offers or questions of your own. Reply with the rephrased line only.\n\n")
	b.WriteString("The menu, for reference:\n")
	for _, it := range cat.ListItems() {
		b.WriteString("- ")
		b.WriteString(it.Label)
		b.WriteString(" (")
		b.WriteString(string(it.Category))
		b.WriteString("), ")
		b.WriteString(it.BasePrice.Spoken())
		b.WriteString("\n")
	}
	if mods := cat.ListModifiers(); len(mods) > 0 {
		b.WriteString("Pizza toppings:\n")
		for _, m := range mods {
			b.WriteString("- ")
			b.WriteString(m.Label)
			b.WriteString(", ")
			b.WriteString(m.Price.Spoken())
			b.WriteString("\n")
		}
	}
	return b.String()
}

// UserMessage renders the per-turn content for a rephrase request.
func UserMessage(req Request) string {
	var b strings.Builder
	if req.Utterance != "" {
		b.WriteString("The caller just said: ")
		b.WriteString(req.Utterance)
		b.WriteString("\n")
	}
	if req.CartSummary != "" {
		b.WriteString("Order so far: ")
		b.WriteString(req.CartSummary)
		b.WriteString("\n")
	}
	b.WriteString("Scripted line to rephrase: ")
	b.WriteString(req.Prompt)
	return b.String()
}
