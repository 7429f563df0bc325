// Package order holds the durable per-call state: the [Session] draft the
// dialogue mutates on every turn, and the immutable [FinalOrder] produced by
// the finalizer once a draft passes validation.
package order

import (
	"time"

	"github.com/ordervox/ordervox/internal/cart"
)

// DialogueState is the dialogue position persisted with the session. The
// per-turn controller switches exhaustively over these values; there is no
// string dispatch anywhere.
type DialogueState string

const (
	// StateListen collects pizza items. Initial state.
	StateListen DialogueState = "listen"

	// StateMore asks whether to add another item.
	StateMore DialogueState = "more"

	// StateExtras offers drinks and desserts. Entered at most once per call.
	StateExtras DialogueState = "extras"

	// StateExtrasMore asks whether to add another extra.
	StateExtrasMore DialogueState = "extras_more"

	// StateRecap reads the cart back and asks for confirmation.
	StateRecap DialogueState = "recap"

	// StateEdit accepts free-form corrections.
	StateEdit DialogueState = "edit"

	// StateType asks delivery vs takeaway.
	StateType DialogueState = "type"

	// StateName collects the customer name.
	StateName DialogueState = "name"

	// StatePhone collects the customer phone number.
	StatePhone DialogueState = "phone"

	// StateAddress collects the full delivery address.
	StateAddress DialogueState = "address"

	// StateConfirmed is terminal: the order was finalized.
	StateConfirmed DialogueState = "confirmed"

	// StateCancelled is terminal: the caller cancelled or the retry policy
	// escalated to a human operator.
	StateCancelled DialogueState = "cancelled"
)

// IsValid reports whether s is a recognised dialogue state.
func (s DialogueState) IsValid() bool {
	switch s {
	case StateListen, StateMore, StateExtras, StateExtrasMore, StateRecap,
		StateEdit, StateType, StateName, StatePhone, StateAddress,
		StateConfirmed, StateCancelled:
		return true
	}
	return false
}

// Fulfillment is how the order reaches the customer.
type Fulfillment string

const (
	FulfillmentDelivery Fulfillment = "delivery"
	FulfillmentTakeaway Fulfillment = "takeaway"
)

// Lifecycle is the session's coarse status. A session is mutable only while
// InProgress; further turns for a terminal session short-circuit to a fixed
// message without re-entering the state machine.
type Lifecycle string

const (
	LifecycleInProgress Lifecycle = "in_progress"
	LifecycleConfirmed  Lifecycle = "confirmed"
	LifecycleCancelled  Lifecycle = "cancelled"
)

// Session is the durable record keyed by the external call identifier. The
// store exclusively owns its lifetime; the dialogue borrows it for one turn
// (load, mutate, save) and never holds it across turns.
type Session struct {
	CallID     string        `json:"call_id"`
	Restaurant string        `json:"restaurant,omitempty"`
	State      DialogueState `json:"state"`
	Cart       cart.Cart     `json:"cart"`

	Fulfillment   Fulfillment `json:"fulfillment,omitempty"`
	CustomerName  string      `json:"customer_name,omitempty"`
	CustomerPhone string      `json:"customer_phone,omitempty"`
	Address       string      `json:"address,omitempty"`

	FailCount int       `json:"fail_count"`
	Lifecycle Lifecycle `json:"lifecycle"`

	// Version implements the store's compare-and-swap: Save succeeds only
	// when the stored version still matches, then increments it. Never
	// mutated outside the store.
	Version int64 `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession returns a fresh in-progress session for callID, positioned at
// the initial dialogue state.
func NewSession(callID, restaurant string) Session {
	now := time.Now().UTC()
	return Session{
		CallID:     callID,
		Restaurant: restaurant,
		State:      StateListen,
		Lifecycle:  LifecycleInProgress,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Terminal reports whether the session stopped accepting turns.
func (s *Session) Terminal() bool {
	return s.Lifecycle != LifecycleInProgress
}
