// Package engine orchestrates one webhook turn: load the session, run the
// dialogue machine, persist the result. It owns the retry loop around the
// store's optimistic locking and the best-effort speech-responder call; the
// dialogue logic itself lives in [dialogue.Machine].
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ordervox/ordervox/internal/dialogue"
	"github.com/ordervox/ordervox/internal/observe"
	"github.com/ordervox/ordervox/internal/order"
	"github.com/ordervox/ordervox/internal/store"
	"github.com/ordervox/ordervox/pkg/responder"
)

// saveAttempts bounds the load-turn-save loop when concurrent webhooks for
// the same call race on the session version.
const saveAttempts = 3

// defaultRephraseTimeout bounds the responder call. Telephony webhooks have a
// hard response deadline; a slow model must never stall the call.
const defaultRephraseTimeout = 2 * time.Second

// Output is what a turn hands back to the transport layer.
type Output struct {
	// Prompt is the text to speak to the caller.
	Prompt string

	// Terminal indicates the call should hang up after the prompt.
	Terminal bool

	// Order is set when this turn confirmed the draft.
	Order *order.FinalOrder
}

// Option configures an [Engine].
type Option func(*Engine)

// WithResponder attaches a speech responder that rephrases clarification
// prompts. Without one, scripted prompts are spoken verbatim.
func WithResponder(r responder.Responder) Option {
	return func(e *Engine) { e.responder = r }
}

// WithMetrics overrides the metrics instance. Intended for tests.
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithRephraseTimeout overrides the responder deadline.
func WithRephraseTimeout(d time.Duration) Option {
	return func(e *Engine) { e.rephraseTimeout = d }
}

// Engine processes dialogue turns against the session store. Safe for
// concurrent use.
type Engine struct {
	store           store.Store
	machine         *dialogue.Machine
	responder       responder.Responder
	metrics         *observe.Metrics
	rephraseTimeout time.Duration
}

// New creates an Engine over the given store and dialogue machine.
func New(st store.Store, m *dialogue.Machine, opts ...Option) *Engine {
	e := &Engine{
		store:           st,
		machine:         m,
		rephraseTimeout: defaultRephraseTimeout,
	}
	for _, o := range opts {
		o(e)
	}
	if e.metrics == nil {
		e.metrics = observe.DefaultMetrics()
	}
	return e
}

// StartCall creates the session for a new call and returns the greeting.
// It is idempotent: a webhook redelivery for an already-started call returns
// the greeting again without disturbing the stored session.
func (e *Engine) StartCall(ctx context.Context, callID, restaurant string) (Output, error) {
	ctx, span := observe.StartSpan(ctx, "engine.StartCall",
		trace.WithAttributes(observe.Attr("call_id", callID)),
	)
	defer span.End()

	fresh := order.NewSession(callID, restaurant)
	sess, err := e.store.Create(ctx, fresh)
	if err != nil {
		return Output{}, fmt.Errorf("engine: create session: %w", err)
	}
	if sess.CreatedAt.Equal(fresh.CreatedAt) {
		e.metrics.ActiveCalls.Add(ctx, 1)
	}

	observe.Logger(ctx).Info("call started",
		"call_id", callID,
		"restaurant", restaurant,
	)
	return Output{Prompt: dialogue.Greeting()}, nil
}

// HandleTurn processes one utterance for the call. The session is loaded
// (created on the spot when the greeting webhook never arrived), advanced by
// the dialogue machine, and saved back under optimistic locking; on a version
// conflict the whole turn is replayed against the fresh session, up to
// [saveAttempts] times.
func (e *Engine) HandleTurn(ctx context.Context, callID, restaurant, transcript string) (Output, error) {
	start := time.Now()
	ctx, span := observe.StartSpan(ctx, "engine.HandleTurn",
		trace.WithAttributes(observe.Attr("call_id", callID)),
	)
	defer span.End()

	var (
		res        dialogue.Result
		entryState order.DialogueState
		sess       order.Session
	)
	for attempt := 1; ; attempt++ {
		var err error
		sess, err = e.loadSession(ctx, callID)
		if errors.Is(err, store.ErrNotFound) {
			sess, err = e.store.Create(ctx, order.NewSession(callID, restaurant))
			if err != nil {
				return Output{}, fmt.Errorf("engine: create session: %w", err)
			}
			e.metrics.ActiveCalls.Add(ctx, 1)
		} else if err != nil {
			return Output{}, err
		}
		entryState = sess.State
		wasTerminal := sess.Terminal()

		res = e.machine.Turn(&sess, transcript)

		if wasTerminal {
			// Nothing changed; skip the save.
			break
		}

		saved, err := e.saveSession(ctx, sess)
		if err == nil {
			sess = saved
			break
		}
		if !errors.Is(err, store.ErrConflict) {
			return Output{}, fmt.Errorf("engine: save session: %w", err)
		}
		e.metrics.SaveConflicts.Add(ctx, 1)
		if attempt >= saveAttempts {
			return Output{}, fmt.Errorf("engine: save session after %d attempts: %w", attempt, err)
		}
		observe.Logger(ctx).Warn("session save conflict, replaying turn",
			"call_id", callID,
			"attempt", attempt,
		)
	}

	if res.Order != nil {
		if err := e.store.SaveOrder(ctx, *res.Order); err != nil {
			return Output{}, fmt.Errorf("engine: save order: %w", err)
		}
		e.metrics.RecordOrderConfirmed(ctx, string(res.Order.Fulfillment))
	}

	prompt := res.Prompt
	if res.Clarify && e.responder != nil {
		prompt = e.rephrase(ctx, sess, transcript, prompt)
	}

	outcome := turnOutcome(sess, res)
	if outcome == "escalated" {
		e.metrics.Escalations.Add(ctx, 1)
	}
	if res.Terminal {
		e.metrics.ActiveCalls.Add(ctx, -1)
	}
	e.metrics.RecordTurn(ctx, string(entryState), outcome)
	e.metrics.TurnDuration.Record(ctx, time.Since(start).Seconds())

	observe.Logger(ctx).Info("turn processed",
		"call_id", callID,
		"state", string(sess.State),
		"outcome", outcome,
		"terminal", res.Terminal,
	)

	return Output{Prompt: prompt, Terminal: res.Terminal, Order: res.Order}, nil
}

// loadSession fetches the session, timing the store round trip.
func (e *Engine) loadSession(ctx context.Context, callID string) (order.Session, error) {
	t := time.Now()
	sess, err := e.store.Load(ctx, callID)
	e.metrics.StoreDuration.Record(ctx, time.Since(t).Seconds(),
		storeOpAttr("load"))
	if err != nil {
		return order.Session{}, fmt.Errorf("engine: load session: %w", err)
	}
	return sess, nil
}

// saveSession writes the session back, timing the store round trip.
func (e *Engine) saveSession(ctx context.Context, sess order.Session) (order.Session, error) {
	t := time.Now()
	saved, err := e.store.Save(ctx, sess)
	e.metrics.StoreDuration.Record(ctx, time.Since(t).Seconds(),
		storeOpAttr("save"))
	return saved, err
}

// rephrase asks the responder for a natural rendition of the clarification
// prompt. Any failure or timeout falls back to the scripted text.
func (e *Engine) rephrase(ctx context.Context, sess order.Session, transcript, prompt string) string {
	rctx, cancel := context.WithTimeout(ctx, e.rephraseTimeout)
	defer cancel()

	t := time.Now()
	out, err := e.responder.Rephrase(rctx, responder.Request{
		Restaurant:  sess.Restaurant,
		Prompt:      prompt,
		Utterance:   transcript,
		CartSummary: sess.Cart.Describe(),
	})
	e.metrics.ResponderDuration.Record(ctx, time.Since(t).Seconds())
	if err != nil {
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		e.metrics.RecordResponderError(ctx, reason)
		observe.Logger(ctx).Warn("responder failed, using scripted prompt",
			"call_id", sess.CallID,
			"error", err,
		)
		return prompt
	}
	return out
}

func storeOpAttr(op string) metric.MeasurementOption {
	return metric.WithAttributes(observe.Attr("op", op))
}

// turnOutcome labels the turn for metrics.
func turnOutcome(sess order.Session, res dialogue.Result) string {
	switch {
	case res.Order != nil:
		return "confirmed"
	case sess.Lifecycle == order.LifecycleCancelled && sess.FailCount > 0:
		return "escalated"
	case sess.Lifecycle == order.LifecycleCancelled:
		return "cancelled"
	case res.Clarify:
		return "clarify"
	default:
		return "continue"
	}
}
