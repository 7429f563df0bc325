// Package responder defines the interface for optional speech-polish
// backends. The dialogue engine always produces a scripted prompt; a
// Responder may rephrase clarification prompts into more natural speech. The
// engine treats the responder as best-effort: any error or timeout falls back
// to the scripted text, so an implementation never gates a call.
//
// Implementors must be safe for concurrent use.
package responder

import "context"

// Request carries everything a backend needs to rephrase one prompt.
type Request struct {
	// Restaurant is the display name of the restaurant taking the order.
	Restaurant string

	// Prompt is the scripted text to rephrase. The rephrased output must
	// preserve its full meaning, especially item names and prices.
	Prompt string

	// Utterance is what the caller just said, for conversational context.
	// May be empty on a silent turn.
	Utterance string

	// CartSummary is a readback of the order so far. May be empty.
	CartSummary string
}

// Responder rephrases a scripted prompt into natural speech.
type Responder interface {
	// Rephrase returns a spoken-friendly rendition of req.Prompt. It must
	// return promptly when ctx is cancelled; the caller imposes a short
	// deadline and discards late results.
	Rephrase(ctx context.Context, req Request) (string, error)
}
