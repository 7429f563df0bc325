// Package dialogue implements the per-turn controller: given the persisted
// session and the new utterance, it decides the next dialogue state, mutates
// the cart, and selects the prompt to speak. Each state is handled by an
// exhaustive switch over [order.DialogueState]; the retry/escalation policy
// runs before any state logic because escalation overrides everything.
package dialogue

import (
	"strings"

	"github.com/ordervox/ordervox/internal/catalog"
	"github.com/ordervox/ordervox/internal/order"
	"github.com/ordervox/ordervox/internal/utterance"
)

// Result is the outcome of one dialogue turn.
type Result struct {
	// Prompt is the text to speak to the caller.
	Prompt string

	// Clarify marks the prompt as a clarification re-prompt. An external
	// responder, when configured, may rephrase clarifications; accepting
	// prompts are always spoken verbatim.
	Clarify bool

	// Terminal indicates the call should hang up after the prompt.
	Terminal bool

	// Order is the finalized order when this turn confirmed the draft.
	Order *order.FinalOrder
}

// verdict classifies a turn for the retry policy.
type verdict int

const (
	// verdictAccept resets the failure counter.
	verdictAccept verdict = iota
	// verdictFail increments it and may escalate.
	verdictFail
	// verdictNeutral leaves it unchanged (closed binary questions).
	verdictNeutral
)

// Option configures a [Machine].
type Option func(*Machine)

// WithMaxFailures overrides the escalation threshold.
func WithMaxFailures(n int) Option {
	return func(m *Machine) { m.policy.MaxFailures = n }
}

// Machine is the dialogue state machine. It is read-only after construction
// and safe for concurrent use; all mutable state lives in the session it is
// handed each turn.
type Machine struct {
	catalog   *catalog.Catalog
	extractor *utterance.Extractor
	policy    Policy
}

// NewMachine builds a Machine over the given catalog and extractor.
func NewMachine(cat *catalog.Catalog, ex *utterance.Extractor, opts ...Option) *Machine {
	m := &Machine{catalog: cat, extractor: ex}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Turn processes one utterance against the session. The session is mutated
// in place; the caller persists it afterwards.
func (m *Machine) Turn(sess *order.Session, transcript string) Result {
	if sess.Terminal() {
		return Result{Prompt: TerminalMessage(sess.Lifecycle), Terminal: true}
	}

	normalized := utterance.Normalize(transcript)
	res := m.extractor.Extract(normalized)

	// Caller-initiated cancellation terminates from any state.
	if res.Intents.WantsCancel {
		sess.Lifecycle = order.LifecycleCancelled
		sess.State = order.StateCancelled
		return Result{Prompt: promptCancelled, Terminal: true}
	}

	switch m.assess(sess, normalized, res) {
	case verdictFail:
		if m.policy.Fail(sess) {
			return Result{Prompt: promptEscalation, Terminal: true}
		}
	case verdictAccept:
		m.policy.Reset(sess)
	}

	switch sess.State {
	case order.StateListen, order.StateMore, order.StateExtras, order.StateExtrasMore:
		return m.handleCollect(sess, res)
	case order.StateRecap:
		return m.handleRecap(sess, res)
	case order.StateEdit:
		return m.handleEdit(sess, res)
	case order.StateType:
		return m.handleType(sess, normalized)
	case order.StateName:
		return m.handleName(sess, transcript)
	case order.StatePhone:
		return m.handlePhone(sess, transcript)
	case order.StateAddress:
		return m.handleAddress(sess, transcript)
	case order.StateConfirmed, order.StateCancelled:
		return Result{Prompt: TerminalMessage(sess.Lifecycle), Terminal: true}
	}

	// Unknown state in a stored session; recover at the beginning rather
	// than dropping the call.
	sess.State = order.StateListen
	return Result{Prompt: listenClarify(m.catalog), Clarify: true}
}

// assess classifies the turn for the retry policy before any state logic
// runs. Empty turns fail everywhere. The Type state is a closed binary
// choice: unmatched input re-asks without counting toward escalation.
func (m *Machine) assess(sess *order.Session, normalized string, res utterance.Result) verdict {
	if normalized == "" {
		return verdictFail
	}

	switch sess.State {
	case order.StateType:
		if _, ok := parseFulfillment(normalized); ok {
			return verdictAccept
		}
		return verdictNeutral
	case order.StateName, order.StatePhone:
		return verdictAccept // any non-empty utterance is the field value
	case order.StateAddress:
		if validAddress(normalized) {
			return verdictAccept
		}
		return verdictFail
	default:
		if res.Actionable() {
			return verdictAccept
		}
		return verdictFail
	}
}

// handleCollect covers the item-collection states: Listen, More, Extras and
// ExtrasMore share the append rule and differ only in where "done" leads and
// how the clarification reads.
func (m *Machine) handleCollect(sess *order.Session, res utterance.Result) Result {
	c := &sess.Cart
	inExtras := sess.State == order.StateExtras || sess.State == order.StateExtrasMore

	if len(res.Items) > 0 {
		for _, li := range res.Items {
			c.Add(li)
		}
		m.applyLoose(sess, res)
		if inExtras {
			sess.State = order.StateExtrasMore
		} else {
			sess.State = order.StateMore
		}
		return Result{Prompt: addedText(res.Items) + " " + promptAnythingElse}
	}

	if res.Intents.WantsMenu {
		return Result{Prompt: m.catalog.Describe()}
	}

	if res.Intents.IsDone || res.Intents.IsNo {
		return m.advanceFromCollect(sess)
	}

	if res.Intents.IsYes {
		if inExtras {
			sess.State = order.StateExtras
			return Result{Prompt: extrasClarify(m.catalog)}
		}
		sess.State = order.StateListen
		return Result{Prompt: promptWhatToAdd}
	}

	// Bare modifier phrases with no item apply to the most recent pizza.
	if len(res.LooseAdditions) > 0 || len(res.LooseRemovals) > 0 {
		if m.applyLoose(sess, res) {
			return Result{Prompt: "Noted. " + promptAnythingElse}
		}
		return Result{Prompt: listenClarify(m.catalog), Clarify: true}
	}

	if inExtras {
		return Result{Prompt: extrasClarify(m.catalog), Clarify: true}
	}
	return Result{Prompt: listenClarify(m.catalog), Clarify: true}
}

// advanceFromCollect routes a "done" signal: the drink/dessert upsell happens
// exactly once (and only when the cart already holds a pizza), then the recap.
func (m *Machine) advanceFromCollect(sess *order.Session) Result {
	c := &sess.Cart
	if c.IsEmpty() {
		sess.State = order.StateListen
		return Result{Prompt: promptEmptyCart}
	}
	if c.HasPizza() && !c.ExtrasOffered {
		c.ExtrasOffered = true
		sess.State = order.StateExtras
		return Result{Prompt: promptExtrasOffer}
	}
	sess.State = order.StateRecap
	return Result{Prompt: recapText(c)}
}

func (m *Machine) handleRecap(sess *order.Session, res utterance.Result) Result {
	switch {
	case res.Intents.IsYes:
		sess.State = order.StateType
		return Result{Prompt: "Perfect. " + promptTypeQuestion}
	case res.Intents.IsNo, res.Intents.WantsChange:
		sess.State = order.StateEdit
		return Result{Prompt: promptEditIntro}
	default:
		return Result{Prompt: promptRecapClarify, Clarify: true}
	}
}

// handleEdit applies in-place corrections: removals by name or last-added,
// new items exactly as in Listen, and bare modifier phrases against the most
// recently added pizza. Every successful edit returns to Recap with an
// updated readback.
func (m *Machine) handleEdit(sess *order.Session, res utterance.Result) Result {
	c := &sess.Cart

	if res.Intents.RemoveItem {
		if res.RemoveTarget != "" {
			removed, ok := c.RemoveByLabel(res.RemoveTarget)
			if !ok {
				// The caller clearly attempted the right action; report the
				// miss without burning progress.
				return Result{Prompt: "I do not see " + res.RemoveTarget + " in your order. Tell me what you would like to remove."}
			}
			sess.State = order.StateRecap
			return Result{Prompt: "All right, I removed " + removed.Label + ". " + recapText(c)}
		}
		if removed, ok := c.RemoveLast(); ok {
			sess.State = order.StateRecap
			return Result{Prompt: "All right, I removed " + removed.Label + ". " + recapText(c)}
		}
		return Result{Prompt: "There is nothing in your order yet. Tell me what you would like to add."}
	}

	if len(res.Items) > 0 {
		for _, li := range res.Items {
			c.Add(li)
		}
		m.applyLoose(sess, res)
		sess.State = order.StateRecap
		return Result{Prompt: addedText(res.Items) + " " + recapText(c)}
	}

	if len(res.LooseAdditions) > 0 || len(res.LooseRemovals) > 0 {
		if m.applyLoose(sess, res) {
			sess.State = order.StateRecap
			return Result{Prompt: "All right. " + recapText(c)}
		}
		return Result{Prompt: "Understood, but I do not see a pizza to change. Tell me what you would like to add."}
	}

	if res.Intents.WantsMenu {
		return Result{Prompt: m.catalog.Describe()}
	}

	return Result{Prompt: promptEditClarify, Clarify: true}
}

// applyLoose attaches loose modifier phrases to the most recently added
// pizza, scanning the cart from the end, and reprices it. Returns false when
// the cart has no pizza to modify.
func (m *Machine) applyLoose(sess *order.Session, res utterance.Result) bool {
	if len(res.LooseAdditions) == 0 && len(res.LooseRemovals) == 0 {
		return true
	}
	target := sess.Cart.LastPizza()
	if target == nil {
		return false
	}
	for _, a := range res.LooseAdditions {
		target.AddAddition(a)
	}
	for _, r := range res.LooseRemovals {
		target.AddRemoval(r)
	}
	base := target.UnitPrice
	if it, ok := m.catalog.ItemByLabel(target.Label); ok {
		base = it.BasePrice
	}
	target.Reprice(base, func(label string) (catalog.Cents, bool) {
		mod, ok := m.catalog.ModifierByLabel(label)
		return mod.Price, ok
	})
	return true
}

func (m *Machine) handleType(sess *order.Session, normalized string) Result {
	f, ok := parseFulfillment(normalized)
	if !ok {
		return Result{Prompt: promptTypeQuestion, Clarify: true}
	}
	sess.Fulfillment = f
	sess.State = order.StateName
	return Result{Prompt: "Very well. " + promptNameQuestion}
}

func (m *Machine) handleName(sess *order.Session, transcript string) Result {
	name := strings.TrimSpace(transcript)
	if name == "" {
		return Result{Prompt: promptNameQuestion, Clarify: true}
	}
	sess.CustomerName = name
	sess.State = order.StatePhone
	return Result{Prompt: promptPhoneQuestion}
}

func (m *Machine) handlePhone(sess *order.Session, transcript string) Result {
	phone := strings.TrimSpace(transcript)
	if phone == "" {
		return Result{Prompt: promptPhoneQuestion, Clarify: true}
	}
	sess.CustomerPhone = phone

	if sess.Fulfillment == order.FulfillmentDelivery {
		sess.State = order.StateAddress
		return Result{Prompt: "Perfect. " + promptAddressFull}
	}
	return m.finalize(sess)
}

func (m *Machine) handleAddress(sess *order.Session, transcript string) Result {
	addr := strings.TrimSpace(transcript)
	if !validAddress(addr) {
		return Result{Prompt: promptAddressRetry, Clarify: true}
	}
	sess.Address = addr
	return m.finalize(sess)
}

// finalize validates the draft and either confirms the order or re-enters
// the collection state for the first missing field. Finalization failure is
// recoverable, never terminal.
func (m *Machine) finalize(sess *order.Session) Result {
	fo, err := order.Finalize(sess)
	if err != nil {
		ve, ok := err.(*order.ValidationError)
		if !ok || len(ve.Missing) == 0 {
			return Result{Prompt: promptRecapClarify, Clarify: true}
		}
		return m.reenterFor(sess, ve.Missing[0])
	}
	return Result{
		Prompt:   confirmationText(fo.Fulfillment, fo.Total),
		Terminal: true,
		Order:    &fo,
	}
}

// reenterFor routes a failed validation back to the state that collects the
// missing field.
func (m *Machine) reenterFor(sess *order.Session, missing string) Result {
	switch missing {
	case "items":
		sess.State = order.StateListen
		return Result{Prompt: promptEmptyCart}
	case "fulfillment":
		sess.State = order.StateType
		return Result{Prompt: promptTypeQuestion}
	case "name":
		sess.State = order.StateName
		return Result{Prompt: promptNameQuestion}
	case "phone":
		sess.State = order.StatePhone
		return Result{Prompt: promptPhoneQuestion}
	case "address":
		sess.State = order.StateAddress
		return Result{Prompt: promptAddressFull}
	}
	sess.State = order.StateRecap
	return Result{Prompt: recapText(&sess.Cart)}
}

var deliveryWords = []string{"delivery", "deliver", "delivered", "home"}

var takeawayWords = []string{"takeaway", "take away", "pickup", "pick up", "collect", "collection", "carry out"}

// parseFulfillment maps the closed binary answer in the Type state.
func parseFulfillment(normalized string) (order.Fulfillment, bool) {
	for _, w := range takeawayWords {
		if strings.Contains(normalized, w) {
			return order.FulfillmentTakeaway, true
		}
	}
	for _, w := range deliveryWords {
		if strings.Contains(normalized, w) {
			return order.FulfillmentDelivery, true
		}
	}
	return "", false
}

// validAddress requires at least three whitespace-delimited tokens and at
// least one digit — enough structure to plausibly be a street address.
func validAddress(s string) bool {
	if len(strings.Fields(s)) < 3 {
		return false
	}
	return strings.ContainsAny(s, "0123456789")
}
