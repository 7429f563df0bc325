package openai

import (
	"testing"

	"github.com/ordervox/ordervox/internal/catalog"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	t.Parallel()
	if _, err := New("", "gpt-4o-mini", "Luigi's Pizza", catalog.Default()); err == nil {
		t.Fatal("expected error for empty API key, got nil")
	}
}

func TestNew_RequiresModel(t *testing.T) {
	t.Parallel()
	if _, err := New("sk-test", "", "Luigi's Pizza", catalog.Default()); err == nil {
		t.Fatal("expected error for empty model, got nil")
	}
}

func TestNew_BuildsSystemPromptOnce(t *testing.T) {
	t.Parallel()
	r, err := New("sk-test", "gpt-4o-mini", "Luigi's Pizza", catalog.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.systemPrompt == "" {
		t.Error("system prompt should be built at construction")
	}
	if r.model != "gpt-4o-mini" {
		t.Errorf("model: got %q, want gpt-4o-mini", r.model)
	}
}
