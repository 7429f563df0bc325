package utterance

var yesTokens = map[string]bool{
	"yes": true, "yeah": true, "yep": true, "yup": true, "sure": true,
	"ok": true, "okay": true, "perfect": true, "correct": true,
	"right": true, "confirm": true, "confirmed": true, "exactly": true,
	"absolutely": true,
}

var noTokens = map[string]bool{
	"no": true, "nope": true, "nah": true,
}

var changeTokens = map[string]bool{
	"actually": true, "change": true, "instead": true, "replace": true,
	"modify": true, "swap": true, "wrong": true,
}

var removeTokens = map[string]bool{
	"remove": true, "delete": true, "cancel": true, "drop": true,
}

var menuPhrases = []string{
	"menu",
	"what do you have",
	"what have you got",
	"what are the options",
	"what pizzas",
	"what drinks",
	"what desserts",
	"whats on offer",
}

var donePhrases = []string{
	"thats all",
	"that is all",
	"thats it",
	"that will be all",
	"thatll be all",
	"thats everything",
	"nothing else",
	"nothing more",
	"im done",
	"i am done",
	"nothing",
}

var cancelPhrases = []string{
	"cancel the order",
	"cancel my order",
	"cancel everything",
	"cancel it all",
	"cancel the whole order",
	"forget it",
	"forget the order",
	"never mind",
	"nevermind",
}

// detectIntents scans the whole normalized utterance (not per-segment) for
// the global dialogue signals.
func (e *Extractor) detectIntents(normalized string) Intents {
	flat := flatten(normalized)
	tokens := tokensOf(normalized)

	var in Intents

	for _, p := range menuPhrases {
		if indexWord(flat, p) >= 0 {
			in.WantsMenu = true
			break
		}
	}
	for _, p := range donePhrases {
		if indexWord(flat, p) >= 0 {
			in.IsDone = true
			break
		}
	}
	for _, p := range cancelPhrases {
		if indexWord(flat, p) >= 0 {
			in.WantsCancel = true
			break
		}
	}

	for _, t := range tokens {
		if yesTokens[t] {
			in.IsYes = true
		}
		if changeTokens[t] {
			in.WantsChange = true
		}
	}

	// A bare "no" (possibly with one trailing word, fillers already
	// stripped) is a refusal. Longer utterances starting with "no" carry
	// their own content ("no olives instead") and are not refusals.
	if len(tokens) > 0 && noTokens[tokens[0]] && len(tokens) <= 2 {
		in.IsNo = true
	}

	// "cancel" inside a cancel-everything phrase is termination, not an
	// item removal.
	if !in.WantsCancel {
		for _, t := range tokens {
			if removeTokens[t] {
				in.RemoveItem = true
				break
			}
		}
		if !in.RemoveItem && indexWord(flat, "take off") >= 0 {
			in.RemoveItem = true
		}
	}

	// "remove the coca" is not a yes answer even though speech recognisers
	// sometimes surface "ok" prefixes; a removal request wins over yes.
	if in.RemoveItem {
		in.IsYes = false
	}

	return in
}
