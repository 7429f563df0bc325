package responder_test

import (
	"strings"
	"testing"

	"github.com/ordervox/ordervox/internal/catalog"
	"github.com/ordervox/ordervox/pkg/responder"
)

func TestSystemPrompt_AnchorsMenuAndRestaurant(t *testing.T) {
	t.Parallel()
	prompt := responder.SystemPrompt("Luigi's Pizza", catalog.Default())

	for _, want := range []string{
		"Luigi's Pizza",
		"Margherita (pizza), 10 euros",
		"Coca (drink), 3 euros",
		"Cheese, 2 euros",
		"Reply with the rephrased line only",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("system prompt should contain %q", want)
		}
	}
}

func TestUserMessage_IncludesContext(t *testing.T) {
	t.Parallel()
	msg := responder.UserMessage(responder.Request{
		Restaurant:  "Luigi's Pizza",
		Prompt:      "Would you like anything else?",
		Utterance:   "one margherita",
		CartSummary: "1 pizza Margherita",
	})

	for _, want := range []string{
		"The caller just said: one margherita",
		"Order so far: 1 pizza Margherita",
		"Scripted line to rephrase: Would you like anything else?",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("user message should contain %q, got: %s", want, msg)
		}
	}
}

func TestUserMessage_OmitsEmptyContext(t *testing.T) {
	t.Parallel()
	msg := responder.UserMessage(responder.Request{Prompt: "What name is the order under?"})

	if strings.Contains(msg, "caller just said") || strings.Contains(msg, "Order so far") {
		t.Errorf("empty context lines should be omitted, got: %s", msg)
	}
	if !strings.Contains(msg, "What name is the order under?") {
		t.Errorf("scripted line missing, got: %s", msg)
	}
}
