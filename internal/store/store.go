// Package store defines the persistence boundary for call sessions and
// finalized orders. The engine is stateless across turns; everything it knows
// about a call crosses this interface.
package store

import (
	"context"
	"errors"

	"github.com/ordervox/ordervox/internal/order"
)

// ErrNotFound is returned by Load when no session exists for the call ID.
var ErrNotFound = errors.New("store: session not found")

// ErrConflict is returned by Save when the session's version no longer
// matches the stored one — a concurrent turn for the same call saved first.
// Callers must re-load and re-apply; the store never silently overwrites.
var ErrConflict = errors.New("store: session version conflict")

// Store persists sessions and final orders. Implementations must serialize
// the load-mutate-save cycle per call ID through the version check: a Save
// whose input version does not match the stored version fails with
// [ErrConflict]. All methods are safe for concurrent use.
type Store interface {
	// Create inserts a fresh session. It is idempotent on the call ID: when
	// a session already exists, the stored session is returned unchanged and
	// no duplicate is created.
	Create(ctx context.Context, s order.Session) (order.Session, error)

	// Load returns the session for callID, or [ErrNotFound].
	Load(ctx context.Context, callID string) (order.Session, error)

	// Save writes the session if its Version still matches the stored one,
	// then returns the session with the incremented version. Returns
	// [ErrConflict] on a version mismatch and [ErrNotFound] when the session
	// was never created.
	Save(ctx context.Context, s order.Session) (order.Session, error)

	// SaveOrder persists an immutable finalized order.
	SaveOrder(ctx context.Context, fo order.FinalOrder) error

	// Ping verifies the backing storage is reachable.
	Ping(ctx context.Context) error
}
