// Package anyllm provides a responder backed by github.com/mozilla-ai/any-llm-go,
// a unified multi-provider interface that supports OpenAI, Anthropic, Gemini,
// Ollama, DeepSeek, Mistral, Groq, and more.
//
// Usage:
//
//	r, err := anyllm.New("ollama", "llama3.2", "La Bella", cat)
//	r, err := anyllm.New("anthropic", "claude-3-5-haiku-latest", "La Bella", cat, anyllmlib.WithAPIKey("sk-ant-..."))
package anyllm

import (
	"context"
	"fmt"
	"strings"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/groq"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"

	"github.com/ordervox/ordervox/internal/catalog"
	"github.com/ordervox/ordervox/pkg/responder"
)

// Responder implements [responder.Responder] by wrapping any-llm-go.
type Responder struct {
	backend      anyllmlib.Provider
	model        string
	systemPrompt string
}

// New creates a Responder backed by the given provider name.
//
// providerName is one of: "openai", "anthropic", "gemini", "ollama",
// "mistral", "groq". Without an API key option, the backend falls back to
// the relevant environment variable (OPENAI_API_KEY, ANTHROPIC_API_KEY, ...).
func New(providerName, model, restaurant string, cat catalog.Provider, opts ...anyllmlib.Option) (*Responder, error) {
	if model == "" {
		return nil, fmt.Errorf("anyllm: model must not be empty")
	}

	backend, err := createBackend(providerName, opts...)
	if err != nil {
		return nil, fmt.Errorf("anyllm: create %q backend: %w", providerName, err)
	}

	return &Responder{
		backend:      backend,
		model:        model,
		systemPrompt: responder.SystemPrompt(restaurant, cat),
	}, nil
}

var _ responder.Responder = (*Responder)(nil)

// createBackend creates the underlying any-llm-go provider.
func createBackend(providerName string, opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
	switch strings.ToLower(providerName) {
	case "openai":
		return anyllmoai.New(opts...)
	case "anthropic":
		return anthropic.New(opts...)
	case "gemini":
		return gemini.New(opts...)
	case "ollama":
		return ollama.New(opts...)
	case "mistral":
		return mistral.New(opts...)
	case "groq":
		return groq.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported provider %q; supported: openai, anthropic, gemini, ollama, mistral, groq", providerName)
	}
}

// Rephrase implements responder.Responder.
func (r *Responder) Rephrase(ctx context.Context, req responder.Request) (string, error) {
	temp := 0.7
	maxTokens := 120
	params := anyllmlib.CompletionParams{
		Model: r.model,
		Messages: []anyllmlib.Message{
			{Role: anyllmlib.RoleSystem, Content: r.systemPrompt},
			{Role: anyllmlib.RoleUser, Content: responder.UserMessage(req)},
		},
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	}

	resp, err := r.backend.Completion(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anyllm: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("anyllm: empty choices in response")
	}

	out := strings.TrimSpace(resp.Choices[0].Message.ContentString())
	if out == "" {
		return "", fmt.Errorf("anyllm: empty completion")
	}
	return out, nil
}
