// Package mock provides a test double for the responder.Responder interface.
//
// Use Responder in unit tests to verify that the engine sends correct
// rephrase requests and to feed controlled output without a live backend.
//
// Example:
//
//	r := &mock.Responder{Output: "Sure, what would you like?"}
//	got, err := r.Rephrase(ctx, req)
package mock

import (
	"context"
	"sync"

	"github.com/ordervox/ordervox/pkg/responder"
)

// Responder is a mock implementation of responder.Responder.
// A zero value returns the request's prompt unchanged.
type Responder struct {
	mu sync.Mutex

	// Output, when non-empty, is returned by Rephrase.
	Output string

	// Err, if non-nil, is returned as the error from Rephrase.
	Err error

	// Delay, if non-zero, makes Rephrase wait before answering, honoring
	// context cancellation. Useful for deadline tests.
	Delay func(ctx context.Context) error

	// Calls records every invocation of Rephrase in order.
	Calls []responder.Request
}

var _ responder.Responder = (*Responder)(nil)

// Rephrase implements responder.Responder.
func (r *Responder) Rephrase(ctx context.Context, req responder.Request) (string, error) {
	r.mu.Lock()
	r.Calls = append(r.Calls, req)
	out, err, delay := r.Output, r.Err, r.Delay
	r.mu.Unlock()

	if delay != nil {
		if derr := delay(ctx); derr != nil {
			return "", derr
		}
	}
	if err != nil {
		return "", err
	}
	if out == "" {
		return req.Prompt, nil
	}
	return out, nil
}

// CallCount returns the number of recorded Rephrase invocations.
func (r *Responder) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Calls)
}
