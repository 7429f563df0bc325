package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ordervox/ordervox/internal/cart"
	"github.com/ordervox/ordervox/internal/catalog"
)

// minPhoneDigits is the shortest phone value accepted at finalize.
const minPhoneDigits = 6

// FinalOrder is the immutable snapshot materialised from a confirmed session.
type FinalOrder struct {
	ID            string          `json:"id"`
	CallID        string          `json:"call_id"`
	Restaurant    string          `json:"restaurant,omitempty"`
	Fulfillment   Fulfillment     `json:"fulfillment"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	Address       string          `json:"address,omitempty"`
	Items         []cart.LineItem `json:"items"`
	Total         catalog.Cents   `json:"total_cents"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ValidationError reports which required fields are missing from a draft.
// Finalization failure is recoverable: the dialogue re-enters the collection
// state for the first missing field instead of terminating the call.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("order: draft incomplete, missing %s", strings.Join(e.Missing, ", "))
}

// Finalize validates the completed session against the fulfillment-specific
// required-field rules and, on success, builds the immutable order record and
// marks the session confirmed. On validation failure the session is left
// untouched and the returned error is a [*ValidationError] naming the missing
// fields.
func Finalize(s *Session) (FinalOrder, error) {
	var missing []string

	if s.Cart.IsEmpty() {
		missing = append(missing, "items")
	}
	if s.Fulfillment != FulfillmentDelivery && s.Fulfillment != FulfillmentTakeaway {
		missing = append(missing, "fulfillment")
	}
	if strings.TrimSpace(s.CustomerName) == "" {
		missing = append(missing, "name")
	}
	if len(strings.TrimSpace(s.CustomerPhone)) < minPhoneDigits {
		missing = append(missing, "phone")
	}
	if s.Fulfillment == FulfillmentDelivery && strings.TrimSpace(s.Address) == "" {
		missing = append(missing, "address")
	}

	if len(missing) > 0 {
		return FinalOrder{}, &ValidationError{Missing: missing}
	}

	items := make([]cart.LineItem, len(s.Cart.Items))
	copy(items, s.Cart.Items)

	fo := FinalOrder{
		ID:            uuid.NewString(),
		CallID:        s.CallID,
		Restaurant:    s.Restaurant,
		Fulfillment:   s.Fulfillment,
		CustomerName:  strings.TrimSpace(s.CustomerName),
		CustomerPhone: strings.TrimSpace(s.CustomerPhone),
		Address:       strings.TrimSpace(s.Address),
		Items:         items,
		Total:         s.Cart.Total(),
		CreatedAt:     time.Now().UTC(),
	}

	s.Lifecycle = LifecycleConfirmed
	s.State = StateConfirmed
	s.UpdatedAt = fo.CreatedAt
	return fo, nil
}
