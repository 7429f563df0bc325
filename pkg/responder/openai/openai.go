// Package openai provides a responder backed by the OpenAI API.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/ordervox/ordervox/internal/catalog"
	"github.com/ordervox/ordervox/pkg/responder"
)

// Responder implements [responder.Responder] using OpenAI chat completions.
type Responder struct {
	client       oai.Client
	model        string
	systemPrompt string
}

// config holds optional configuration for the responder.
type config struct {
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Responder.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// New constructs a new OpenAI-backed responder for one restaurant's menu.
func New(apiKey, model, restaurant string, cat catalog.Provider, opts ...Option) (*Responder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("openai: model must not be empty")
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	return &Responder{
		client:       oai.NewClient(reqOpts...),
		model:        model,
		systemPrompt: responder.SystemPrompt(restaurant, cat),
	}, nil
}

var _ responder.Responder = (*Responder)(nil)

// Rephrase implements responder.Responder.
func (r *Responder) Rephrase(ctx context.Context, req responder.Request) (string, error) {
	params := oai.ChatCompletionNewParams{
		Model: shared.ChatModel(r.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(r.systemPrompt),
			oai.UserMessage(responder.UserMessage(req)),
		},
		Temperature:         param.NewOpt(0.7),
		MaxCompletionTokens: param.NewOpt(int64(120)),
	}

	resp, err := r.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices in response")
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("openai: empty completion")
	}
	return out, nil
}
