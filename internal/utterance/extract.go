package utterance

import (
	"strings"

	"github.com/ordervox/ordervox/internal/cart"
	"github.com/ordervox/ordervox/internal/catalog"
	"github.com/ordervox/ordervox/internal/utterance/phonetic"
)

// additionTriggers start an addition span. A bare mention of a modifier name
// is never an addition; one of these words must introduce it.
var additionTriggers = map[string]bool{
	"with": true, "add": true, "extra": true, "plus": true,
}

// removalStops end a removal span.
var removalStops = map[string]bool{
	"with": true, "plus": true, "add": true, "extra": true,
}

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4,
}

// quantitySplitWords are the words that, when following "and", split a
// segment in two ("a margherita and two cocas"). Without one of these, "and"
// stays inside the segment so that "without mushrooms and olives" holds
// together.
var quantitySplitWords = map[string]bool{
	"a": true, "an": true, "another": true,
	"one": true, "two": true, "three": true, "four": true,
}

var sizeWords = map[string]cart.Size{
	"small":  cart.SizeSmall,
	"medium": cart.SizeMedium,
	"large":  cart.SizeLarge,
	"s":      cart.SizeSmall,
	"m":      cart.SizeMedium,
	"l":      cart.SizeLarge,
}

// Intents are the global signals detected across the whole utterance.
type Intents struct {
	WantsMenu   bool
	IsYes       bool
	IsNo        bool
	IsDone      bool
	WantsChange bool
	WantsCancel bool

	// RemoveItem is set when the utterance asks to take an item off the
	// order ("remove the Coca"). Item extraction is suppressed for such
	// utterances; the referenced item, if recognised, lands in
	// [Result.RemoveTarget].
	RemoveItem bool
}

// Any reports whether at least one intent fired.
func (i Intents) Any() bool {
	return i.WantsMenu || i.IsYes || i.IsNo || i.IsDone || i.WantsChange || i.WantsCancel || i.RemoveItem
}

// Result is the outcome of extracting entities from one normalized utterance.
type Result struct {
	// Items are the fully parsed line items, priced and in spoken order.
	Items []cart.LineItem

	// Intents are the utterance-wide signals.
	Intents Intents

	// RemoveTarget is the catalog label the caller asked to remove, when
	// Intents.RemoveItem is set and an item name was recognised.
	RemoveTarget string

	// LooseAdditions and LooseRemovals are modifier phrases that appeared in
	// segments naming no item and could not be attached to a pizza parsed
	// earlier in the same utterance. The dialogue layer applies them to the
	// most recently added pizza in the cart.
	LooseAdditions []string
	LooseRemovals  []string
}

// Actionable reports whether the utterance produced anything the dialogue can
// act on. Per the retry policy, an actionable turn resets the fail counter.
func (r Result) Actionable() bool {
	return len(r.Items) > 0 || r.Intents.Any() ||
		len(r.LooseAdditions) > 0 || len(r.LooseRemovals) > 0
}

// ExtractorOption configures an [Extractor].
type ExtractorOption func(*Extractor)

// WithPhoneticMatcher enables phonetic fallback matching of item and modifier
// names. When nil (the default), only exact substring matching is performed.
func WithPhoneticMatcher(m *phonetic.Matcher) ExtractorOption {
	return func(e *Extractor) { e.matcher = m }
}

// Extractor finds order entities in normalized utterances. It is read-only
// after construction and safe for concurrent use.
type Extractor struct {
	items     []catalog.Item
	modifiers []catalog.Modifier
	matcher   *phonetic.Matcher

	itemLabels []string
	modLabels  []string
	stopTokens map[string]bool
}

// NewExtractor builds an Extractor over the given catalog.
func NewExtractor(c catalog.Provider, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		items:     c.ListItems(),
		modifiers: c.ListModifiers(),
	}
	for _, o := range opts {
		o(e)
	}

	for _, it := range e.items {
		e.itemLabels = append(e.itemLabels, it.Label)
	}
	for _, m := range e.modifiers {
		e.modLabels = append(e.modLabels, m.Label)
	}
	e.stopTokens = buildStopTokens()
	return e
}

// buildStopTokens lists dialogue vocabulary that must never be fed to the
// phonetic matcher as an item candidate.
func buildStopTokens() map[string]bool {
	words := []string{
		"a", "an", "and", "another", "the", "of", "for", "me", "my", "it",
		"i", "you", "want", "like", "take", "have", "get", "order",
		"yes", "yeah", "no", "nope", "ok", "okay", "sure", "that", "thats",
		"all", "else", "nothing", "done", "more", "too", "also", "again",
		"with", "without", "add", "extra", "plus", "remove", "delete",
		"cancel", "change", "instead", "actually", "replace", "modify",
		"menu", "pizza", "pizzas", "drink", "drinks", "dessert", "desserts",
		"size", "small", "medium", "large",
		"one", "two", "three", "four",
	}
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// Extract parses a normalized utterance. It never errors: unintelligible
// input simply yields an empty, non-actionable Result.
func (e *Extractor) Extract(normalized string) Result {
	var res Result
	if normalized == "" {
		return res
	}

	res.Intents = e.detectIntents(normalized)

	// A removal request suppresses item extraction entirely; "remove the
	// Coca" must not read as an order for a Coca.
	if res.Intents.RemoveItem {
		if it, ok := e.matchItem(flatten(normalized), tokensOf(normalized), nil); ok {
			res.RemoveTarget = it.Label
		}
		return res
	}

	for _, seg := range e.segment(normalized) {
		parsed := e.parseSegment(seg)

		if parsed.item != nil {
			res.Items = append(res.Items, e.buildLineItem(parsed))
			continue
		}

		// No item in this segment: modifier phrases attach to the last pizza
		// parsed from this same utterance, otherwise they surface as loose.
		if len(parsed.additions) == 0 && len(parsed.removals) == 0 {
			continue
		}
		if target := lastPizza(res.Items); target != nil {
			for _, a := range parsed.additions {
				target.AddAddition(a)
			}
			for _, r := range parsed.removals {
				target.AddRemoval(r)
			}
			e.repriceItem(target)
		} else {
			res.LooseAdditions = append(res.LooseAdditions, parsed.additions...)
			res.LooseRemovals = append(res.LooseRemovals, parsed.removals...)
		}
	}

	return res
}

// segment splits the utterance on comma/semicolon/period, then on "and" when
// it is followed by a quantity word or digit.
func (e *Extractor) segment(normalized string) [][]string {
	var segments [][]string
	for _, part := range strings.FieldsFunc(normalized, func(r rune) bool {
		return r == ',' || r == ';' || r == '.'
	}) {
		tokens := strings.Fields(part)
		start := 0
		for i := 0; i < len(tokens); i++ {
			if tokens[i] != "and" || i+1 >= len(tokens) {
				continue
			}
			next := tokens[i+1]
			if quantitySplitWords[next] || isDigitQuantity(next) {
				if i > start {
					segments = append(segments, tokens[start:i])
				}
				start = i + 1
			}
		}
		if start < len(tokens) {
			segments = append(segments, tokens[start:])
		}
	}
	return segments
}

// parsedSegment is the intermediate result of scanning one segment.
type parsedSegment struct {
	tokens    []string
	item      *catalog.Item
	quantity  int
	size      cart.Size
	additions []string // resolved modifier labels
	removals  []string // resolved modifier labels or free-text ingredients
}

func (e *Extractor) parseSegment(tokens []string) parsedSegment {
	p := parsedSegment{tokens: tokens, quantity: detectQuantity(tokens)}

	consumed := make(map[int]bool, len(tokens))
	p.size = detectSize(tokens, consumed)
	e.scanRemovals(&p, consumed)
	e.scanAdditions(&p, consumed)

	segText := strings.Join(tokens, " ")
	if it, ok := e.matchItem(segText, tokens, consumed); ok {
		p.item = &it
	}

	// Disjointness: anything removed in this segment cannot also be added.
	p.additions = subtractFold(p.additions, p.removals)
	return p
}

// scanRemovals collects phrases following "without" or a non-final "no", up
// to a stop word or an "and" that introduces a new quantity. Phrases are
// resolved against known modifiers where possible and kept as free-text
// ingredient names otherwise.
func (e *Extractor) scanRemovals(p *parsedSegment, consumed map[int]bool) {
	tokens := p.tokens
	for i := 0; i < len(tokens); i++ {
		trigger := tokens[i] == "without" || (tokens[i] == "no" && i < len(tokens)-1)
		if !trigger {
			continue
		}
		consumed[i] = true

		var phrase []string
		flush := func() {
			if len(phrase) == 0 {
				return
			}
			p.removals = append(p.removals, e.resolveModifierOrFreeText(strings.Join(phrase, " ")))
			phrase = nil
		}

		j := i + 1
		for ; j < len(tokens); j++ {
			t := tokens[j]
			if removalStops[t] {
				break
			}
			if t == "and" {
				if j+1 < len(tokens) && (quantitySplitWords[tokens[j+1]] || isDigitQuantity(tokens[j+1])) {
					break
				}
				flush()
				consumed[j] = true
				continue
			}
			phrase = append(phrase, t)
			consumed[j] = true
		}
		flush()
		i = j - 1
	}
}

// scanAdditions collects phrases following an explicit trigger word. Only
// phrases that resolve to a known modifier become additions; everything else
// is dropped.
func (e *Extractor) scanAdditions(p *parsedSegment, consumed map[int]bool) {
	tokens := p.tokens
	for i := 0; i < len(tokens); i++ {
		if consumed[i] || !additionTriggers[tokens[i]] {
			continue
		}
		consumed[i] = true

		var phrase []string
		flush := func() {
			if len(phrase) == 0 {
				return
			}
			if label, ok := e.resolveModifier(strings.Join(phrase, " ")); ok && !containsFold(p.additions, label) {
				p.additions = append(p.additions, label)
			}
			phrase = nil
		}

		j := i + 1
		for ; j < len(tokens); j++ {
			t := tokens[j]
			if consumed[j] || t == "without" || t == "no" || additionTriggers[t] {
				break
			}
			if t == "and" {
				flush()
				continue
			}
			// Only modifier-looking tokens join the phrase; an item name
			// after "with" ("pizza with a coca"?) is left for item matching.
			phrase = append(phrase, t)
			consumed[j] = true
		}
		flush()
		i = j - 1
	}
}

// matchItem finds the catalog item referenced by the segment. The exact pass
// is a substring match against item keys and labels in declaration order
// (first match wins). When nothing matches exactly and a phonetic matcher is
// configured, unconsumed content tokens and their bigrams are ranked against
// the item labels.
func (e *Extractor) matchItem(segText string, tokens []string, consumed map[int]bool) (catalog.Item, bool) {
	for _, it := range e.items {
		if strings.Contains(segText, it.Key) || strings.Contains(segText, strings.ToLower(it.Label)) {
			return it, true
		}
	}

	if e.matcher == nil {
		return catalog.Item{}, false
	}

	var (
		bestItem  catalog.Item
		bestScore float64
		found     bool
	)
	try := func(phrase string) {
		label, score, ok := e.matcher.BestLabel(phrase, e.itemLabels)
		if !ok || score <= bestScore {
			return
		}
		for _, it := range e.items {
			if it.Label == label {
				bestItem, bestScore, found = it, score, true
				return
			}
		}
	}

	for i, t := range tokens {
		if consumed[i] || e.stopTokens[t] || len(t) < 4 {
			continue
		}
		try(t)
		if i+1 < len(tokens) && !consumed[i+1] && !e.stopTokens[tokens[i+1]] {
			try(t + " " + tokens[i+1])
		}
	}

	return bestItem, found
}

// resolveModifier maps a spoken phrase to a modifier label, trying exact
// key/label containment first and the phonetic matcher second.
func (e *Extractor) resolveModifier(phrase string) (string, bool) {
	for _, m := range e.modifiers {
		lowerLabel := strings.ToLower(m.Label)
		if phrase == m.Key || phrase == lowerLabel ||
			strings.Contains(phrase, m.Key) ||
			(len(phrase) >= 4 && strings.Contains(m.Key, phrase)) {
			return m.Label, true
		}
	}
	if e.matcher != nil {
		if label, _, ok := e.matcher.BestLabel(phrase, e.modLabels); ok {
			return label, true
		}
	}
	return "", false
}

func (e *Extractor) resolveModifierOrFreeText(phrase string) string {
	if label, ok := e.resolveModifier(phrase); ok {
		return label
	}
	return phrase
}

func (e *Extractor) buildLineItem(p parsedSegment) cart.LineItem {
	li := cart.LineItem{
		Category:  p.item.Category,
		Label:     p.item.Label,
		Quantity:  p.quantity,
		UnitPrice: p.item.BasePrice,
	}

	// Modifiers and sizes apply to pizzas only.
	if p.item.Category == catalog.CategoryPizza {
		li.Size = p.size
		for _, a := range p.additions {
			li.AddAddition(a)
		}
		for _, r := range p.removals {
			li.AddRemoval(r)
		}
		e.repriceItem(&li)
	}
	return li
}

func (e *Extractor) repriceItem(li *cart.LineItem) {
	base := li.UnitPrice
	if it, ok := e.itemByLabel(li.Label); ok {
		base = it.BasePrice
	}
	li.Reprice(base, func(label string) (catalog.Cents, bool) {
		for _, m := range e.modifiers {
			if strings.EqualFold(m.Label, label) {
				return m.Price, true
			}
		}
		return 0, false
	})
}

func (e *Extractor) itemByLabel(label string) (catalog.Item, bool) {
	for _, it := range e.items {
		if strings.EqualFold(it.Label, label) {
			return it, true
		}
	}
	return catalog.Item{}, false
}

func detectQuantity(tokens []string) int {
	for _, t := range tokens {
		if isDigitQuantity(t) {
			return int(t[0] - '0')
		}
		if n, ok := numberWords[t]; ok {
			return n
		}
	}
	return 1
}

func detectSize(tokens []string, consumed map[int]bool) cart.Size {
	for i, t := range tokens {
		if t == "size" && i+1 < len(tokens) {
			if s, ok := sizeWords[tokens[i+1]]; ok {
				consumed[i] = true
				consumed[i+1] = true
				return s
			}
			continue
		}
		// Single letters only count after an explicit "size".
		if len(t) > 1 {
			if s, ok := sizeWords[t]; ok {
				consumed[i] = true
				return s
			}
		}
	}
	return ""
}

func isDigitQuantity(t string) bool {
	return len(t) == 1 && t[0] >= '1' && t[0] <= '9'
}

func lastPizza(items []cart.LineItem) *cart.LineItem {
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].Category == catalog.CategoryPizza {
			return &items[i]
		}
	}
	return nil
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func subtractFold(list, exclude []string) []string {
	if len(list) == 0 || len(exclude) == 0 {
		return list
	}
	var out []string
	for _, v := range list {
		if !containsFold(exclude, v) {
			out = append(out, v)
		}
	}
	return out
}

// flatten replaces segment delimiters with spaces for whole-utterance scans.
func flatten(normalized string) string {
	return strings.Join(tokensOf(normalized), " ")
}

func tokensOf(normalized string) []string {
	return strings.Fields(strings.NewReplacer(",", " ", ";", " ", ".", " ").Replace(normalized))
}
