package anyllm

import (
	"testing"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/ordervox/ordervox/internal/catalog"
)

func TestNew_RequiresModel(t *testing.T) {
	if _, err := New("ollama", "", "Luigi's Pizza", catalog.Default()); err == nil {
		t.Fatal("expected error for empty model, got nil")
	}
}

func TestNew_UnsupportedProvider(t *testing.T) {
	_, err := New("bedrock", "some-model", "Luigi's Pizza", catalog.Default(),
		anyllmlib.WithAPIKey("dummy"))
	if err == nil {
		t.Fatal("expected error for unsupported provider, got nil")
	}
}

func TestNew_WithAPIKey(t *testing.T) {
	r, err := New("openai", "gpt-4o-mini", "Luigi's Pizza", catalog.Default(),
		anyllmlib.WithAPIKey("sk-test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.model != "gpt-4o-mini" {
		t.Errorf("model: got %q, want gpt-4o-mini", r.model)
	}
	if r.systemPrompt == "" {
		t.Error("system prompt should be built at construction")
	}
}

func TestNew_OllamaNeedsNoKey(t *testing.T) {
	// Ollama is a local server; construction must succeed without a key.
	r, err := New("ollama", "llama3.2", "Luigi's Pizza", catalog.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r == nil {
		t.Fatal("expected non-nil responder")
	}
}

func TestCreateBackend_IsCaseInsensitive(t *testing.T) {
	backend, err := createBackend("OLLAMA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend == nil {
		t.Fatal("expected non-nil backend")
	}
}
